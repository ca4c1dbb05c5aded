package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"spotwise/internal/pkg/cookie"

	"github.com/gin-gonic/gin"
)

// TokenValidator resolves a token into the signed-in email.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

type AuthMiddleware struct {
	tokenValidator TokenValidator
}

const ctxUserEmailKey = "user_email"

func NewAuthMiddleware(tokenValidator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookie.GetAccessToken(c)

		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimSpace(authHeader[len("Bearer "):])
			}
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		email, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxUserEmailKey, email)
		c.Next()
	}
}

// UserEmail returns the authenticated identity set by RequireAuth.
func UserEmail(c *gin.Context) string {
	if email, exists := c.Get(ctxUserEmailKey); exists {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}
