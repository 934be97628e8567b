package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/corkboard/backend/internal/model"
	"github.com/corkboard/backend/internal/service"
	"github.com/gin-gonic/gin"
)

const authUserKey = "auth_user"

// AuthMiddleware requires a valid Bearer token and aborts with 401
// otherwise. Verification failures are never detailed to the client.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		user := bearerUser(c, authService)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the identity when a valid token is
// present but lets unauthenticated requests through. Used on public reads
// so rate limiting can key on the real user.
func OptionalAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := bearerUser(c, authService); user != nil {
			c.Set(authUserKey, user)
		}
		c.Next()
	}
}

func bearerUser(c *gin.Context, authService *service.AuthService) *model.AuthUser {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return nil
	}

	user, err := authService.ParseAccessToken(token)
	if err != nil {
		return nil
	}
	return user
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}

// IdentityKey derives the rate-limit key: the resolved user, or the shared
// anonymous sentinel for everything else.
func IdentityKey(user *model.AuthUser) string {
	if user == nil {
		return service.AnonymousKey
	}
	return "user:" + strconv.FormatInt(user.ID, 10)
}

// RateLimitMiddleware enforces the per-identity token bucket. Denials are
// 429 with a Retry-After hint, distinct from authentication failures.
func RateLimitMiddleware(limiter *service.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		ok, retryAfter := limiter.Allow(c.Request.Context(), IdentityKey(GetAuthUser(c)))
		if !ok {
			seconds := int64(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.FormatInt(seconds, 10))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
