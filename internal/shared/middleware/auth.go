package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"qwitter-backend/internal/shared/response"
	"qwitter-backend/pkg/jwt"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID   = "userID"
	CtxUsername = "username"
)

// AuthMiddleware validates the bearer session token and exposes the
// authenticated identity to handlers.
func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Next()
	}
}
