package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/virtuline/accounthub/internal/auth"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifySessionToken(ctx context.Context, token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	sessions TokenVerifier
}

func NewAuthMiddleware(sessions TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

const (
	ctxUserIDKey   = "auth.userID"
	ctxRolesKey    = "auth.roles"
	ctxRawTokenKey = "auth.rawToken"
)

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing or invalid Authorization header",
				},
			})
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing or invalid session token",
				},
			})
			return
		}

		claims, err := m.sessions.VerifySessionToken(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Invalid or expired session token",
				},
			})
			return
		}

		// Stash useful bits of identity on the context
		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxRolesKey, claims.Roles)
		c.Set(ctxRawTokenKey, raw)

		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func RawTokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxRawTokenKey)
	if !ok {
		return "", false
	}
	raw, ok := v.(string)
	return raw, ok
}
