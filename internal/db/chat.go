package db

import (
	"context"

	"github.com/corkboard/backend/internal/model"
)

func (db *Postgres) InsertChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, room, author_id, author_login, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := db.Pool.Exec(ctx, query, msg.ID, msg.Room, msg.AuthorID, msg.AuthorLogin, msg.Body, msg.CreatedAt)
	return err
}

// GetChatHistory returns the most recent messages for a room in
// chronological order.
func (db *Postgres) GetChatHistory(ctx context.Context, room string, limit int) ([]model.ChatMessage, error) {
	query := `
		SELECT id, room, author_id, author_login, body, created_at
		FROM (
			SELECT id, room, author_id, author_login, body, created_at
			FROM chat_messages
			WHERE room = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`
	rows, err := db.Pool.Query(ctx, query, room, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.Room, &m.AuthorID, &m.AuthorLogin, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}

	if list == nil {
		list = []model.ChatMessage{}
	}
	return list, rows.Err()
}

func (db *Postgres) GetChatRooms(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT DISTINCT room FROM chat_messages ORDER BY room ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []string
	for rows.Next() {
		var room string
		if err := rows.Scan(&room); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	if rooms == nil {
		rooms = []string{}
	}
	return rooms, rows.Err()
}
