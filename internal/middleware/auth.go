package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/echotrack/echotrack-api/internal/service"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
	"github.com/echotrack/echotrack-api/pkg/response"
)

const (
	// ContextUserID is the gin context key holding the authenticated user id.
	ContextUserID = "auth_user_id"
	// ContextUsername is the gin context key holding the authenticated username.
	ContextUsername = "auth_username"
)

// Auth enforces a Bearer token on protected routes.
func Auth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}
