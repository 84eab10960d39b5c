package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("X-Request-ID", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddlewareGeneratesID(t *testing.T) {
	rec, seen := serve("")
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestMiddlewareKeepsClientID(t *testing.T) {
	_, seen := serve("scanner-42")
	assert.Equal(t, "scanner-42", seen)
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	_, seen := serve(strings.Repeat("x", 500))
	assert.NotEqual(t, strings.Repeat("x", 500), seen)
}
