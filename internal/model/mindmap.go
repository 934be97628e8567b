package model

import (
	"encoding/json"
	"time"
)

// Mindmap stores the whole node/edge graph as one JSON document; the
// frontend owns its internal shape.
type Mindmap struct {
	ID        string          `json:"id"`
	OwnerID   int64           `json:"ownerId"`
	Title     string          `json:"title"`
	Graph     json.RawMessage `json:"graph"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type MindmapSaveRequest struct {
	Title string          `json:"title"`
	Graph json.RawMessage `json:"graph"`
}

type MindmapListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}
