package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/corkboard/backend/internal/config"
	"github.com/corkboard/backend/internal/model"
	"github.com/corkboard/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type memUserStore struct {
	nextID  int64
	byLogin map[string]*model.User
	byID    map[int64]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{nextID: 1, byLogin: make(map[string]*model.User), byID: make(map[int64]*model.User)}
}

func (s *memUserStore) CreateUser(ctx context.Context, loginID, passwordHash string) (*model.User, error) {
	if _, exists := s.byLogin[loginID]; exists {
		return nil, errors.New("duplicate")
	}
	user := &model.User{ID: s.nextID, LoginID: loginID, PasswordHash: passwordHash}
	s.nextID++
	s.byLogin[loginID] = user
	s.byID[user.ID] = user
	return user, nil
}

func (s *memUserStore) GetUserByLoginID(ctx context.Context, loginID string) (*model.User, error) {
	user, ok := s.byLogin[loginID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (s *memUserStore) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	user, ok := s.byID[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (s *memUserStore) GetOrCreateUser(ctx context.Context, loginID string) (*model.User, error) {
	if user, ok := s.byLogin[loginID]; ok {
		return user, nil
	}
	return s.CreateUser(ctx, loginID, "")
}

type memSessionStore struct {
	sessions map[string]*model.RefreshSession
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*model.RefreshSession)}
}

func (s *memSessionStore) CreateSession(ctx context.Context, sess *model.RefreshSession) error {
	copied := *sess
	s.sessions[sess.SessionID] = &copied
	return nil
}

func (s *memSessionStore) GetSession(ctx context.Context, sessionID string) (*model.RefreshSession, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *sess
	return &copied, nil
}

func (s *memSessionStore) RotateSession(ctx context.Context, sessionID, expectHash, newHash string, newExpiry time.Time) error {
	sess, ok := s.sessions[sessionID]
	if !ok || sess.TokenHash != expectHash {
		return pgx.ErrNoRows
	}
	sess.TokenHash = newHash
	sess.ExpiresAt = newExpiry
	return nil
}

func (s *memSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

func (s *memSessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, sess := range s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func newTestAuthService(t *testing.T) (*service.AuthService, *memUserStore) {
	t.Helper()
	users := newMemUserStore()
	sessions := service.NewSessionManager(newMemSessionStore(), slog.Default())
	svc, err := service.NewAuthService(users, sessions, nil, config.AuthConfig{
		JWTSecret:     "test-secret",
		JWTAccessTTL:  "1h",
		OIDCAccessTTL: "15m",
		RefreshTTL:    "24h",
		AllowSignup:   "true",
		CookieName:    "corkboard_refresh",
		CookieSecure:  "false",
	}, slog.Default())
	if err != nil {
		t.Fatalf("NewAuthService failed: %v", err)
	}
	return svc, users
}

func seedLocalUser(t *testing.T, users *memUserStore, loginID, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	if _, err := users.CreateUser(context.Background(), loginID, string(hash)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func newAuthRouter(svc *service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(svc)
	router := gin.New()
	router.POST("/api/v1/auth/login", h.Login)
	router.POST("/api/v1/auth/refresh", h.Refresh)
	router.POST("/api/v1/auth/logout", h.Logout)
	router.GET("/api/v1/auth/config", h.Config)
	return router
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestLoginSetsSessionCookie(t *testing.T) {
	svc, users := newTestAuthService(t)
	seedLocalUser(t, users, "alice", "password123")
	router := newAuthRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"id":"alice","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "accessToken") {
		t.Fatalf("response missing access token: %s", rec.Body.String())
	}

	cookie := sessionCookie(t, rec, "corkboard_refresh")
	if cookie == nil {
		t.Fatalf("session cookie not set")
	}
	if cookie.Value == "" {
		t.Fatalf("session cookie is empty")
	}
	if !cookie.HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}
	if cookie.Path != "/" {
		t.Fatalf("expected cookie path /, got %q", cookie.Path)
	}
	if cookie.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected cookie max-age %d", cookie.MaxAge)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	svc, users := newTestAuthService(t)
	seedLocalUser(t, users, "alice", "password123")
	router := newAuthRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"id":"alice","password":"wrong-password"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if sessionCookie(t, rec, "corkboard_refresh") != nil {
		t.Fatalf("failed login must not set a cookie")
	}
}

func TestRefreshFromCookie(t *testing.T) {
	svc, users := newTestAuthService(t)
	seedLocalUser(t, users, "alice", "password123")
	router := newAuthRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"id":"alice","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	cookie := sessionCookie(t, rec, "corkboard_refresh")
	if cookie == nil {
		t.Fatalf("login did not set a cookie")
	}

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest("POST", "/api/v1/auth/refresh", nil)
	req2.AddCookie(cookie)
	router.ServeHTTP(rec2, req2)

	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec2.Code, rec2.Body.String())
	}
	renewed := sessionCookie(t, rec2, "corkboard_refresh")
	if renewed == nil {
		t.Fatalf("refresh must re-set the session cookie")
	}
	if renewed.Value != cookie.Value {
		t.Fatalf("session cookie value must stay stable across refresh")
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	svc, _ := newTestAuthService(t)
	router := newAuthRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/refresh", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	svc, users := newTestAuthService(t)
	seedLocalUser(t, users, "alice", "password123")
	router := newAuthRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"id":"alice","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	cookie := sessionCookie(t, rec, "corkboard_refresh")

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req2.AddCookie(cookie)
	router.ServeHTTP(rec2, req2)

	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec2.Code)
	}
	cleared := sessionCookie(t, rec2, "corkboard_refresh")
	if cleared == nil {
		t.Fatalf("logout must send a clearing cookie")
	}
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("clearing cookie must be empty and expired, got value=%q maxAge=%d", cleared.Value, cleared.MaxAge)
	}

	// The session is gone; refresh with the old cookie fails.
	rec3 := httptest.NewRecorder()
	req3 := httptest.NewRequest("POST", "/api/v1/auth/refresh", nil)
	req3.AddCookie(cookie)
	router.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec3.Code)
	}

	// Logging out again without a session is still a 200.
	rec4 := httptest.NewRecorder()
	req4 := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req4.AddCookie(cookie)
	router.ServeHTTP(rec4, req4)
	if rec4.Code != http.StatusOK {
		t.Fatalf("logout must be idempotent, got %d", rec4.Code)
	}
}

func TestAuthConfigEndpoint(t *testing.T) {
	svc, _ := newTestAuthService(t)
	router := newAuthRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/auth/config", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"allowSignup":true`) || !strings.Contains(body, `"oidcEnabled":false`) {
		t.Fatalf("unexpected config body: %s", body)
	}
}
