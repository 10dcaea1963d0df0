package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NanduBolleddu/Revu/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newEngine(cfg *config.SecureConfig, mode string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Secure(cfg, mode))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestSecureSetsHeaders(t *testing.T) {
	r := newEngine(&config.SecureConfig{}, "release")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pong", w.Body.String())
	require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestSecureRedirectsToHTTPS(t *testing.T) {
	r := newEngine(&config.SecureConfig{SSLRedirect: true, SSLHost: "revu.example"}, "release")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://revu.example/ping", nil))

	require.Equal(t, http.StatusMovedPermanently, w.Code)
	require.Equal(t, "https://revu.example/ping", w.Header().Get("Location"))
	require.NotContains(t, w.Body.String(), "pong")
}
