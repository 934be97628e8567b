package model

import "time"

type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Post struct {
	ID          string    `json:"id"`
	BoardID     string    `json:"boardId"`
	AuthorID    int64     `json:"authorId"`
	AuthorLogin string    `json:"authorLogin"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Comment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"postId"`
	AuthorID    int64     `json:"authorId"`
	AuthorLogin string    `json:"authorLogin"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

type BoardCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PostCreateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type PostUpdateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type CommentCreateRequest struct {
	Body string `json:"body"`
}
