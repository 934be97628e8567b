package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/corkboard/backend/internal/db"
	"github.com/corkboard/backend/internal/model"
)

// ErrNoSession is the normalized "refresh denied" result: the session id is
// unknown, expired, or its stored token no longer matches.
var ErrNoSession = errors.New("session not found")

// SessionStore abstracts refresh-session persistence so the manager's state
// has a defined lifecycle and can be swapped for a shared store when
// scaling out. *db.Postgres is the production implementation.
type SessionStore interface {
	CreateSession(ctx context.Context, sess *model.RefreshSession) error
	GetSession(ctx context.Context, sessionID string) (*model.RefreshSession, error)
	RotateSession(ctx context.Context, sessionID, expectHash, newHash string, newExpiry time.Time) error
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionManager owns the refresh-session lifecycle: creation at login,
// in-place rotation on refresh, idempotent deletion at logout, and the
// periodic expiry sweep.
type SessionManager struct {
	store SessionStore
	log   *slog.Logger
}

func NewSessionManager(store SessionStore, log *slog.Logger) *SessionManager {
	return &SessionManager{store: store, log: log}
}

// Create persists a new session owning tokenValue (stored hashed) and
// returns the record. The session id is cryptographically random and never
// reused; uniqueness is enforced by the store's unique key.
func (m *SessionManager) Create(ctx context.Context, userID int64, tokenValue string, ttl time.Duration, tokenType string) (*model.RefreshSession, error) {
	sessionID, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	sess := &model.RefreshSession{
		SessionID: sessionID,
		UserID:    userID,
		TokenHash: HashToken(tokenValue),
		TokenType: tokenType,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Find looks a session up by id. A miss returns ErrNoSession; store
// failures propagate unchanged.
func (m *SessionManager) Find(ctx context.Context, sessionID string) (*model.RefreshSession, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	sess, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return sess, nil
}

// Rotate overwrites the stored token value and expiry in place, invalidating
// the previous value. expectHash is the hash observed by the caller's Find;
// a concurrent rotation that got there first makes it stale, and the loser
// receives ErrNoSession.
func (m *SessionManager) Rotate(ctx context.Context, sessionID, expectHash, newTokenValue string, ttl time.Duration) (time.Time, error) {
	newExpiry := time.Now().Add(ttl)
	err := m.store.RotateSession(ctx, sessionID, expectHash, HashToken(newTokenValue), newExpiry)
	if err != nil {
		if db.IsNoRows(err) {
			return time.Time{}, ErrNoSession
		}
		return time.Time{}, err
	}
	return newExpiry, nil
}

// Delete removes a session. Absence is not an error.
func (m *SessionManager) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.store.DeleteSession(ctx, sessionID)
}

// SweepExpired deletes all sessions past expiry. Run hourly; failures are
// logged by the job runner, never fatal.
func (m *SessionManager) SweepExpired(ctx context.Context) error {
	n, err := m.store.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		m.log.Info("auth.session.sweep", "deleted", n)
	}
	return nil
}

// NewOpaqueToken returns 32 bytes of crypto randomness, URL-safe encoded.
// Used for session ids and local refresh-token values.
func NewOpaqueToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashToken is the at-rest form of refresh-token values; plaintext is never
// persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
