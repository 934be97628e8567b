package db

import (
	"context"

	"github.com/corkboard/backend/internal/model"
)

func (db *Postgres) CreateMindmap(ctx context.Context, m *model.Mindmap) error {
	query := `
		INSERT INTO mindmaps (id, owner_id, title, graph, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	_, err := db.Pool.Exec(ctx, query, m.ID, m.OwnerID, m.Title, m.Graph, m.CreatedAt)
	return err
}

func (db *Postgres) GetMindmap(ctx context.Context, mindmapID string) (*model.Mindmap, error) {
	query := `
		SELECT id, owner_id, title, graph, created_at, updated_at
		FROM mindmaps
		WHERE id = $1
	`
	var m model.Mindmap
	err := db.Pool.QueryRow(ctx, query, mindmapID).Scan(
		&m.ID, &m.OwnerID, &m.Title, &m.Graph, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (db *Postgres) GetMindmapsByOwner(ctx context.Context, ownerID int64) ([]model.MindmapListItem, error) {
	query := `
		SELECT id, title, updated_at
		FROM mindmaps
		WHERE owner_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.MindmapListItem
	for rows.Next() {
		var item model.MindmapListItem
		if err := rows.Scan(&item.ID, &item.Title, &item.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, item)
	}

	if list == nil {
		list = []model.MindmapListItem{}
	}
	return list, rows.Err()
}

func (db *Postgres) UpdateMindmap(ctx context.Context, mindmapID, title string, graph []byte) error {
	query := `
		UPDATE mindmaps
		SET title = $2, graph = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := db.Pool.Exec(ctx, query, mindmapID, title, graph)
	return err
}

func (db *Postgres) DeleteMindmap(ctx context.Context, mindmapID string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM mindmaps WHERE id = $1`, mindmapID)
	return err
}
