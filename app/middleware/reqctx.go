package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
)

const (
	headerUserID    = "X-User-ID"
	headerUserRole  = "X-User-Role"
	headerRequestID = "X-Request-ID"

	requestContextKey = "request_context"

	// RoleAdmin is the role the auth layer assigns to administrators
	RoleAdmin = "admin"
)

// RequestContext carries the caller identity materialized from the headers
// set by the external auth layer.
type RequestContext struct {
	RequestID string
	UserID    string
	UserRole  string
}

// IsAdmin reports whether the caller has the admin role
func (rc *RequestContext) IsAdmin() bool {
	return rc.UserRole == RoleAdmin
}

// RequestContextMiddleware materializes the caller identity and assigns every
// request an id, echoed back in the response headers and threaded through the
// logger for correlation.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		rc := &RequestContext{
			RequestID: requestID,
			UserID:    c.GetHeader(headerUserID),
			UserRole:  c.GetHeader(headerUserRole),
		}

		c.Set(requestContextKey, rc)
		c.Header(headerRequestID, requestID)
		c.Request = c.Request.WithContext(
			logger.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// GetRequestContext retrieves the materialized caller identity; a request
// that skipped the middleware yields an empty context, never nil.
func GetRequestContext(c *gin.Context) *RequestContext {
	if v, ok := c.Get(requestContextKey); ok {
		if rc, ok := v.(*RequestContext); ok {
			return rc
		}
	}
	return &RequestContext{}
}

// AdminRequired rejects callers without the admin role
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := GetRequestContext(c)
		if !rc.IsAdmin() {
			logger.WarnCtx(c.Request.Context(),
				"admin-only endpoint %s denied for user %q role %q",
				c.Request.URL.Path, rc.UserID, rc.UserRole)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}
