package db

import (
	"context"

	"github.com/corkboard/backend/internal/model"
)

func (db *Postgres) CreateBoard(ctx context.Context, board *model.Board) error {
	query := `
		INSERT INTO boards (id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := db.Pool.Exec(ctx, query, board.ID, board.Name, board.Description, board.CreatedBy, board.CreatedAt)
	return err
}

func (db *Postgres) GetBoards(ctx context.Context) ([]model.Board, error) {
	query := `
		SELECT id, name, description, created_by, created_at
		FROM boards
		ORDER BY created_at ASC
	`
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Board
	for rows.Next() {
		var b model.Board
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}

	if list == nil {
		list = []model.Board{}
	}
	return list, rows.Err()
}

func (db *Postgres) GetBoard(ctx context.Context, boardID string) (*model.Board, error) {
	query := `
		SELECT id, name, description, created_by, created_at
		FROM boards
		WHERE id = $1
	`
	var b model.Board
	err := db.Pool.QueryRow(ctx, query, boardID).Scan(&b.ID, &b.Name, &b.Description, &b.CreatedBy, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *Postgres) CreatePost(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (id, board_id, author_id, title, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	_, err := db.Pool.Exec(ctx, query, post.ID, post.BoardID, post.AuthorID, post.Title, post.Body, post.CreatedAt)
	return err
}

func (db *Postgres) GetPostsByBoard(ctx context.Context, boardID string) ([]model.Post, error) {
	query := `
		SELECT p.id, p.board_id, p.author_id, u.login_id, p.title, p.body, p.created_at, p.updated_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.board_id = $1
		ORDER BY p.created_at DESC
	`
	rows, err := db.Pool.Query(ctx, query, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.BoardID, &p.AuthorID, &p.AuthorLogin, &p.Title, &p.Body, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}

	if list == nil {
		list = []model.Post{}
	}
	return list, rows.Err()
}

func (db *Postgres) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	query := `
		SELECT p.id, p.board_id, p.author_id, u.login_id, p.title, p.body, p.created_at, p.updated_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`
	var p model.Post
	err := db.Pool.QueryRow(ctx, query, postID).Scan(
		&p.ID, &p.BoardID, &p.AuthorID, &p.AuthorLogin, &p.Title, &p.Body, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *Postgres) UpdatePost(ctx context.Context, postID string, title, body string) error {
	query := `
		UPDATE posts
		SET title = $2, body = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := db.Pool.Exec(ctx, query, postID, title, body)
	return err
}

func (db *Postgres) DeletePost(ctx context.Context, postID string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	return err
}

func (db *Postgres) CreateComment(ctx context.Context, comment *model.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := db.Pool.Exec(ctx, query, comment.ID, comment.PostID, comment.AuthorID, comment.Body, comment.CreatedAt)
	return err
}

func (db *Postgres) GetCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, u.login_id, c.body, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
	`
	rows, err := db.Pool.Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorLogin, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}

	if list == nil {
		list = []model.Comment{}
	}
	return list, rows.Err()
}
