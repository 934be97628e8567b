package config

import "os"

type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Auth      AuthConfig
	OIDC      OIDCConfig
	RateLimit RateLimitConfig
	Chat      ChatConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Addr string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

// AuthConfig carries raw env values; durations and booleans are parsed by
// service.NewAuthService so a bad value fails startup with a clear error.
type AuthConfig struct {
	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	JWTAccessTTL  string
	OIDCAccessTTL string
	RefreshTTL    string
	AllowSignup   string

	CookieName     string
	CookiePath     string
	CookieDomain   string
	CookieSecure   string
	CookieSameSite string
}

type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type RateLimitConfig struct {
	Capacity  string
	Interval  string
	IdleAfter string
}

type ChatConfig struct {
	IdleTimeout     string
	AnonIdleTimeout string
}

type CORSConfig struct {
	AllowedOrigins string
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Addr: getenv("LISTEN_ADDR", ":8080"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("JWT_SECRET"),
			JWTIssuer:      os.Getenv("JWT_ISSUER"),
			JWTAudience:    os.Getenv("JWT_AUDIENCE"),
			JWTAccessTTL:   getenv("JWT_ACCESS_TTL", "168h"),
			OIDCAccessTTL:  getenv("OIDC_ACCESS_TTL", "15m"),
			RefreshTTL:     getenv("REFRESH_TTL", "720h"),
			AllowSignup:    os.Getenv("ALLOW_SIGNUP"),
			CookieName:     getenv("AUTH_COOKIE_NAME", "corkboard_refresh"),
			CookiePath:     os.Getenv("AUTH_COOKIE_PATH"),
			CookieDomain:   os.Getenv("AUTH_COOKIE_DOMAIN"),
			CookieSecure:   os.Getenv("AUTH_COOKIE_SECURE"),
			CookieSameSite: os.Getenv("AUTH_COOKIE_SAMESITE"),
		},
		OIDC: OIDCConfig{
			IssuerURL:    os.Getenv("OIDC_ISSUER_URL"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		},
		RateLimit: RateLimitConfig{
			Capacity:  getenv("RATE_LIMIT_CAPACITY", "60"),
			Interval:  getenv("RATE_LIMIT_INTERVAL", "60s"),
			IdleAfter: getenv("RATE_LIMIT_IDLE_AFTER", "1h"),
		},
		Chat: ChatConfig{
			IdleTimeout:     getenv("CHAT_IDLE_TIMEOUT", "5m"),
			AnonIdleTimeout: getenv("CHAT_ANON_IDLE_TIMEOUT", "1m"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
