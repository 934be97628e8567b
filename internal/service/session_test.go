package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corkboard/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// fakeSessionStore mirrors the Postgres store's contract, including the
// no-rows signal on a miss or a stale rotation hash.
type fakeSessionStore struct {
	sessions map[string]*model.RefreshSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.RefreshSession)}
}

func (f *fakeSessionStore) CreateSession(ctx context.Context, sess *model.RefreshSession) error {
	if _, exists := f.sessions[sess.SessionID]; exists {
		return errors.New("duplicate session id")
	}
	copied := *sess
	f.sessions[sess.SessionID] = &copied
	return nil
}

func (f *fakeSessionStore) GetSession(ctx context.Context, sessionID string) (*model.RefreshSession, error) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *sess
	return &copied, nil
}

func (f *fakeSessionStore) RotateSession(ctx context.Context, sessionID, expectHash, newHash string, newExpiry time.Time) error {
	sess, ok := f.sessions[sessionID]
	if !ok || sess.TokenHash != expectHash {
		return pgx.ErrNoRows
	}
	sess.TokenHash = newHash
	sess.ExpiresAt = newExpiry
	return nil
}

func (f *fakeSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeSessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, sess := range f.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

func TestSessionCreateStoresHash(t *testing.T) {
	store := newFakeSessionStore()
	m := NewSessionManager(store, testLogger())

	token, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	sess, err := m.Create(context.Background(), 1, token, time.Hour, model.SessionTypeLocal)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sess.SessionID == "" {
		t.Fatalf("expected a session id")
	}
	if sess.TokenHash == token {
		t.Fatalf("plaintext token must not be stored")
	}
	if sess.TokenHash != HashToken(token) {
		t.Fatalf("stored hash does not match the token")
	}
}

func TestSessionFindMiss(t *testing.T) {
	m := NewSessionManager(newFakeSessionStore(), testLogger())

	if _, err := m.Find(context.Background(), "unknown"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := m.Find(context.Background(), ""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for empty id, got %v", err)
	}
}

func TestSessionRotate(t *testing.T) {
	store := newFakeSessionStore()
	m := NewSessionManager(store, testLogger())

	sess, err := m.Create(context.Background(), 1, "old-token", time.Hour, model.SessionTypeLocal)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := m.Rotate(context.Background(), sess.SessionID, sess.TokenHash, "new-token", time.Hour); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}

	after, err := m.Find(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if after.TokenHash != HashToken("new-token") {
		t.Fatalf("rotation did not replace the hash")
	}
	if after.SessionID != sess.SessionID {
		t.Fatalf("session id must stay stable across rotation")
	}
}

func TestSessionRotateStaleHash(t *testing.T) {
	store := newFakeSessionStore()
	m := NewSessionManager(store, testLogger())

	sess, err := m.Create(context.Background(), 1, "old-token", time.Hour, model.SessionTypeLocal)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// First rotation wins.
	if _, err := m.Rotate(context.Background(), sess.SessionID, sess.TokenHash, "winner", time.Hour); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}

	// A concurrent caller still holding the pre-rotation hash loses.
	if _, err := m.Rotate(context.Background(), sess.SessionID, sess.TokenHash, "loser", time.Hour); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for stale hash, got %v", err)
	}

	after, _ := m.Find(context.Background(), sess.SessionID)
	if after.TokenHash != HashToken("winner") {
		t.Fatalf("losing rotation must not overwrite the winner")
	}
}

func TestSessionDeleteIdempotent(t *testing.T) {
	store := newFakeSessionStore()
	m := NewSessionManager(store, testLogger())

	sess, err := m.Create(context.Background(), 1, "token", time.Hour, model.SessionTypeLocal)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := m.Delete(context.Background(), sess.SessionID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := m.Delete(context.Background(), sess.SessionID); err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}
	if err := m.Delete(context.Background(), ""); err != nil {
		t.Fatalf("empty id delete must be a no-op, got %v", err)
	}
}

func TestSessionSweepExpired(t *testing.T) {
	store := newFakeSessionStore()
	m := NewSessionManager(store, testLogger())

	live, err := m.Create(context.Background(), 1, "live", time.Hour, model.SessionTypeLocal)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	dead, err := m.Create(context.Background(), 2, "dead", -time.Hour, model.SessionTypeLocal)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := m.SweepExpired(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if _, err := m.Find(context.Background(), live.SessionID); err != nil {
		t.Fatalf("live session must survive the sweep: %v", err)
	}
	if _, err := m.Find(context.Background(), dead.SessionID); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expired session must be gone, got %v", err)
	}
}

func TestOpaqueTokensUnique(t *testing.T) {
	a, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}
	b, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}
	if a == b {
		t.Fatalf("opaque tokens must be unique")
	}
	if len(a) != 43 {
		t.Fatalf("expected 43 chars for 32 bytes url-encoded, got %d", len(a))
	}
}
