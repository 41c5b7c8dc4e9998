package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newReqCtxRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestContextMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		rc := GetRequestContext(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id": rc.UserID,
			"role":    rc.UserRole,
			"admin":   rc.IsAdmin(),
		})
	})
	r.POST("/restricted", AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequestContext_MaterializesHeaders(t *testing.T) {
	r := newReqCtxRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-User-Role", "admin")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"42","role":"admin","admin":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestContext_PreservesIncomingRequestID(t *testing.T) {
	r := newReqCtxRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestAdminRequired(t *testing.T) {
	r := newReqCtxRouter()

	tests := []struct {
		name     string
		role     string
		wantCode int
	}{
		{"admin allowed", "admin", http.StatusNoContent},
		{"user forbidden", "user", http.StatusForbidden},
		{"missing role forbidden", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/restricted", nil)
			if tt.role != "" {
				req.Header.Set("X-User-Role", tt.role)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestCompressBody(t *testing.T) {
	assert.Equal(t, "", CompressBody(""))
	assert.Equal(t, `{"a":1}`, CompressBody("{\n  \"a\": 1\n}"))
}
