package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TasksFlow/TasksFlowBackend/pkg/config"
	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
)

// Auth validates the Bearer API key. An empty configured key disables the
// check, which is the local-development default.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := config.GlobalConfig.Server.APIKey
		if expected == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token != expected {
			logger.WarnCtx(c.Request.Context(), "unauthorized request to %s", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}
