package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/corkboard/backend/internal/config"
	"github.com/corkboard/backend/internal/db"
	"github.com/corkboard/backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const (
	minLoginIDLength  = 3
	minPasswordLength = 8
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrMisconfigured = errors.New("auth config invalid")
)

type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

// UserStore abstracts user persistence. *db.Postgres is the production
// implementation.
type UserStore interface {
	CreateUser(ctx context.Context, loginID, passwordHash string) (*model.User, error)
	GetUserByLoginID(ctx context.Context, loginID string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	GetOrCreateUser(ctx context.Context, loginID string) (*model.User, error)
}

// Issued is the result of login, register, or refresh: an access token for
// the response body and a session for the cookie.
type Issued struct {
	AccessToken   string
	ExpiresIn     int64
	SessionID     string
	SessionExpiry time.Time
}

type AuthService struct {
	users    UserStore
	sessions *SessionManager
	tokens   *TokenService
	oidc     *OIDCService

	accessTTL     time.Duration
	oidcAccessTTL time.Duration
	refreshTTL    time.Duration
	allowSignup   bool
	cookieCfg     CookieConfig
	log           *slog.Logger
}

// NewAuthService validates cfg up front so a bad deployment fails at boot,
// not on the first login. oidcSvc may be nil when no IdP is configured.
func NewAuthService(users UserStore, sessions *SessionManager, oidcSvc *OIDCService, cfg config.AuthConfig, log *slog.Logger) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.JWTAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}

	oidcAccessTTL, err := time.ParseDuration(cfg.OIDCAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid OIDC_ACCESS_TTL", ErrMisconfigured)
	}

	refreshTTL, err := time.ParseDuration(cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid REFRESH_TTL", ErrMisconfigured)
	}

	allowSignup, err := parseBool(cfg.AllowSignup, false)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ALLOW_SIGNUP", ErrMisconfigured)
	}

	cookieSecure, err := parseBool(cfg.CookieSecure, true)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SECURE", ErrMisconfigured)
	}

	cookieSameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}

	// Browsers reject SameSite=None cookies without Secure.
	if cookieSameSite == http.SameSiteNoneMode {
		cookieSecure = true
	}

	cookiePath := cfg.CookiePath
	if strings.TrimSpace(cookiePath) == "" {
		cookiePath = "/"
	}

	return &AuthService{
		users:         users,
		sessions:      sessions,
		tokens:        NewTokenService([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, log),
		oidc:          oidcSvc,
		accessTTL:     accessTTL,
		oidcAccessTTL: oidcAccessTTL,
		refreshTTL:    refreshTTL,
		allowSignup:   allowSignup,
		cookieCfg: CookieConfig{
			Name:     cfg.CookieName,
			Path:     cookiePath,
			Domain:   cfg.CookieDomain,
			Secure:   cookieSecure,
			SameSite: cookieSameSite,
			MaxAge:   int(refreshTTL.Seconds()),
		},
		log: log,
	}, nil
}

func (s *AuthService) AllowSignup() bool {
	return s.allowSignup
}

func (s *AuthService) OIDCEnabled() bool {
	return s.oidc != nil
}

func (s *AuthService) OIDC() *OIDCService {
	return s.oidc
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

func (s *AuthService) Register(ctx context.Context, loginID, password string) (*Issued, error) {
	if !s.allowSignup {
		return nil, ErrForbidden
	}

	if err := validateCredentials(loginID, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, loginID, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return s.issue(ctx, user, model.SessionTypeLocal)
}

func (s *AuthService) Login(ctx context.Context, loginID, password string) (*Issued, error) {
	if err := validateCredentials(loginID, password); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByLoginID(ctx, loginID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	// Users created through the OIDC path have no password.
	if user.PasswordHash == "" {
		return nil, ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	return s.issue(ctx, user, model.SessionTypeLocal)
}

// LoginWithOIDC completes the external-IdP path: code exchange, ID-token
// verification, then a normal session of type oidc with the short access TTL.
func (s *AuthService) LoginWithOIDC(ctx context.Context, code, pkceVerifier, nonce string) (*Issued, error) {
	if s.oidc == nil {
		return nil, ErrForbidden
	}

	ident, err := s.oidc.Exchange(ctx, code, pkceVerifier, nonce)
	if err != nil {
		s.log.Warn("auth.oidc.exchange_failed", "err", err)
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetOrCreateUser(ctx, ident.LoginID())
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, user, model.SessionTypeOIDC)
}

// Refresh renews the access token for the session identified by the cookie
// value and rotates the stored refresh token in place. Any miss, expiry, or
// lost rotation race comes back as ErrUnauthorized.
func (s *AuthService) Refresh(ctx context.Context, sessionID string) (*Issued, error) {
	sess, err := s.sessions.Find(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if time.Now().After(sess.ExpiresAt) {
		// Best effort; the sweep job collects stragglers.
		_ = s.sessions.Delete(ctx, sess.SessionID)
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	newValue, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	newExpiry, err := s.sessions.Rotate(ctx, sess.SessionID, sess.TokenHash, newValue, s.refreshTTL)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			s.log.Info("auth.refresh.denied", "reason", "rotation race or deleted")
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	accessToken, expiresIn, err := s.tokens.Sign(&model.AuthUser{ID: user.ID, LoginID: user.LoginID}, s.accessTTLFor(sess.TokenType))
	if err != nil {
		return nil, err
	}

	return &Issued{
		AccessToken:   accessToken,
		ExpiresIn:     expiresIn,
		SessionID:     sess.SessionID,
		SessionExpiry: newExpiry,
	}, nil
}

// Logout deletes the session; calling it again, or with an unknown id, is a
// no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, strings.TrimSpace(sessionID))
}

func (s *AuthService) ParseAccessToken(tokenStr string) (*model.AuthUser, error) {
	user := s.tokens.Verify(tokenStr)
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *model.User, tokenType string) (*Issued, error) {
	refreshValue, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, user.ID, refreshValue, s.refreshTTL, tokenType)
	if err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.tokens.Sign(&model.AuthUser{ID: user.ID, LoginID: user.LoginID}, s.accessTTLFor(tokenType))
	if err != nil {
		return nil, err
	}

	return &Issued{
		AccessToken:   accessToken,
		ExpiresIn:     expiresIn,
		SessionID:     sess.SessionID,
		SessionExpiry: sess.ExpiresAt,
	}, nil
}

func (s *AuthService) accessTTLFor(tokenType string) time.Duration {
	if tokenType == model.SessionTypeOIDC {
		return s.oidcAccessTTL
	}
	return s.accessTTL
}

func validateCredentials(loginID, password string) error {
	loginID = strings.TrimSpace(loginID)
	password = strings.TrimSpace(password)

	if len(loginID) < minLoginIDLength || len(loginID) > 64 {
		return ErrInvalidInput
	}
	if len(password) < minPasswordLength || len(password) > 128 {
		return ErrInvalidInput
	}
	return nil
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, err
	}
	return parsed, nil
}

func parseSameSite(value string) (http.SameSite, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return http.SameSiteLaxMode, nil
	}
	switch value {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrInvalidInput
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
