package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/pretty"

	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
)

const maxLoggedBody = 1000

// Logger writes one access log line per request. Bodies of mutating requests
// are compacted and truncated before logging.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var bodyStr string
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			bodyStr = requestBody(c)
		}

		c.Next()

		if c.Writer.Status() == http.StatusNotFound {
			return
		}

		msg := "%3d | %13v | %15s | %-6s %s"
		args := []any{
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			c.Request.Method,
			c.Request.RequestURI,
		}
		if bodyStr != "" {
			msg += " | body: %s"
			args = append(args, bodyStr)
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.ErrorCtx(c.Request.Context(), msg, args...)
		} else {
			logger.InfoCtx(c.Request.Context(), msg, args...)
		}
	}
}

// requestBody reads and restores the request body
func requestBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	bodyBytes, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	return CompressBody(string(bodyBytes))
}

// CompressBody strips whitespace from a JSON body and truncates long payloads
func CompressBody(body string) string {
	if len(body) == 0 {
		return ""
	}
	compressed := pretty.Ugly([]byte(body))
	if len(compressed) > maxLoggedBody {
		return string(compressed[:maxLoggedBody]) + "..."
	}
	return string(compressed)
}
