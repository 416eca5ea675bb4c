package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/windchimes/backend/internal/config"
)

func newCORSTestRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(cfg))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{
		Env:            "production",
		AllowedOrigins: []string{"https://app.example/"},
	}

	t.Run("echoes an allowed origin despite trailing slash in config", func(t *testing.T) {
		router := newCORSTestRouter(cfg)
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://app.example")
		router.ServeHTTP(recorder, req)

		if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
			t.Errorf("expected origin echoed, got %q", got)
		}
	})

	t.Run("leaves the allow-origin header unset for unknown origins", func(t *testing.T) {
		router := newCORSTestRouter(cfg)
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://evil.example")
		router.ServeHTTP(recorder, req)

		if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no allow-origin header, got %q", got)
		}
	})

	t.Run("allows any origin in development", func(t *testing.T) {
		router := newCORSTestRouter(&config.Config{Env: "development"})
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		router.ServeHTTP(recorder, req)

		if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("expected origin echoed in development, got %q", got)
		}
	})

	t.Run("answers preflight with 204 and exposes the rate limit headers", func(t *testing.T) {
		router := newCORSTestRouter(cfg)
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "https://app.example")
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", recorder.Code)
		}
		if got := recorder.Header().Get("Access-Control-Expose-Headers"); got == "" {
			t.Error("expected exposed headers advertised")
		}
	})
}
