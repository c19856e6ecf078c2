package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	echo := func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	}
	r.POST("/echo", echo)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	r := newEngine(RateLimit(2, time.Minute))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestDeduplicatorRejectsRepeatedBody(t *testing.T) {
	d := NewDeduplicator(time.Second)
	defer d.Stop()
	now := time.Unix(1_700_000_000, 0)
	d.now = func() time.Time { return now }
	r := newEngine(d.Middleware())

	first := post(r, `{"days": 3}`)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, `{"days": 3}`, first.Body.String())

	assert.Equal(t, http.StatusTooManyRequests, post(r, `{"days": 3}`).Code)
	assert.Equal(t, http.StatusOK, post(r, `{"days": 4}`).Code)

	now = now.Add(2 * time.Second)
	assert.Equal(t, http.StatusOK, post(r, `{"days": 3}`).Code)

	now = now.Add(time.Hour)
	d.sweep()
	assert.Empty(t, d.requests)
}

func TestDeduplicatorIgnoresGet(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	defer d.Stop()
	r := newEngine(d.Middleware())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(8))

	assert.Equal(t, http.StatusOK, post(r, "small").Code)
	w := post(r, strings.Repeat("x", 64))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), Logger(), Metrics())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
