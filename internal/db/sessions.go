package db

import (
	"context"
	"time"

	"github.com/corkboard/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

func (db *Postgres) CreateSession(ctx context.Context, sess *model.RefreshSession) error {
	query := `
		INSERT INTO refresh_sessions (session_id, user_id, token_hash, token_type, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := db.Pool.Exec(ctx, query, sess.SessionID, sess.UserID, sess.TokenHash, sess.TokenType, sess.ExpiresAt)
	return err
}

func (db *Postgres) GetSession(ctx context.Context, sessionID string) (*model.RefreshSession, error) {
	query := `
		SELECT session_id, user_id, token_hash, token_type, expires_at, created_at, updated_at
		FROM refresh_sessions
		WHERE session_id = $1
	`
	var sess model.RefreshSession
	err := db.Pool.QueryRow(ctx, query, sessionID).Scan(
		&sess.SessionID,
		&sess.UserID,
		&sess.TokenHash,
		&sess.TokenType,
		&sess.ExpiresAt,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// RotateSession replaces the stored token hash and expiry in place, keyed by
// session_id. The row is locked and the current hash compared inside the
// transaction, so of two concurrent refreshes presenting the same stale
// state exactly one rotates; the other observes the mismatch and gets
// pgx.ErrNoRows, which callers surface as "no session".
func (db *Postgres) RotateSession(ctx context.Context, sessionID, expectHash, newHash string, newExpiry time.Time) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var currentHash string
	err = tx.QueryRow(ctx, `
		SELECT token_hash
		FROM refresh_sessions
		WHERE session_id = $1
		FOR UPDATE
	`, sessionID).Scan(&currentHash)
	if err != nil {
		return err
	}

	if currentHash != expectHash {
		return pgx.ErrNoRows
	}

	if _, err = tx.Exec(ctx, `
		UPDATE refresh_sessions
		SET token_hash = $2, expires_at = $3, updated_at = NOW()
		WHERE session_id = $1
	`, sessionID, newHash, newExpiry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteSession is idempotent: deleting an absent session is not an error.
func (db *Postgres) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE session_id = $1`, sessionID)
	return err
}

func (db *Postgres) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
