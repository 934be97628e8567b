package service

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/corkboard/backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// tokenLeeway absorbs small clock drift between the issuer and verifier.
const tokenLeeway = 5 * time.Second

type tokenClaims struct {
	LoginID string `json:"loginId"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies short-lived HS256 access tokens.
// Issuer and audience claims are emitted and checked only when configured;
// leaving them unset keeps older tokens verifiable.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	log      *slog.Logger
}

func NewTokenService(secret []byte, issuer, audience string, log *slog.Logger) *TokenService {
	return &TokenService{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		log:      log,
	}
}

// Sign issues an access token for user, valid for ttl.
func (s *TokenService) Sign(user *model.AuthUser, ttl time.Duration) (string, int64, error) {
	now := time.Now()
	claims := tokenClaims{
		LoginID: user.LoginID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if s.issuer != "" {
		claims.Issuer = s.issuer
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(ttl.Seconds()), nil
}

// Verify returns the identity embedded in tokenStr, or nil if the token is
// malformed, mis-signed, expired beyond leeway, or carries the wrong
// issuer/audience. Callers treat nil uniformly as "unauthenticated".
func (s *TokenService) Verify(tokenStr string) *model.AuthUser {
	claims := &tokenClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		s.log.Debug("auth.token.rejected", "err", err)
		return nil
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		s.log.Warn("auth.token.bad_subject", "err", err)
		return nil
	}

	return &model.AuthUser{
		ID:      userID,
		LoginID: claims.LoginID,
	}
}
