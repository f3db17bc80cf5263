package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"freework/internal/util"
)

// RoleResolver supplies the authoritative role for a user id. Roles
// are never taken from the token or the request body.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID int) (string, error)
}

func AuthMiddleware(jwtSecret string, roles RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}

		userID, err := util.ParseJWT(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		role, err := roles.ResolveRole(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}
