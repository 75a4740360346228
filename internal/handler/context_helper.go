package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/echotrack/echotrack-api/internal/middleware"
)

// userID pulls the authenticated user id injected by the auth middleware.
func userID(c *gin.Context) string {
	if v, exists := c.Get(middleware.ContextUserID); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
