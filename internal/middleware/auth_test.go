package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/windchimes/backend/internal/config"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, subject, secret string) string {
	t.Helper()

	claims := jwtlib.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwtlib.NewNumericDate(time.Now()),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func newAuthTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.Use(ResolveCurrentUser(cfg))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserSub(c))
	})
	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestResolveCurrentUser(t *testing.T) {
	router := newAuthTestRouter()

	t.Run("resolves the subject from a valid bearer token", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-42", testSecret))
		router.ServeHTTP(recorder, req)

		if recorder.Body.String() != "user-42" {
			t.Errorf("expected user-42, got %q", recorder.Body.String())
		}
	})

	t.Run("continues anonymously without a token", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/whoami", nil))

		if recorder.Code != http.StatusOK || recorder.Body.String() != "" {
			t.Errorf("expected empty identity, got %d %q", recorder.Code, recorder.Body.String())
		}
	})

	t.Run("ignores a token signed with the wrong secret", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-42", "other-secret"))
		router.ServeHTTP(recorder, req)

		if recorder.Body.String() != "" {
			t.Errorf("expected anonymous, got %q", recorder.Body.String())
		}
	})
}

func TestRequireAuth(t *testing.T) {
	router := newAuthTestRouter()

	t.Run("rejects anonymous requests", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

		if recorder.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("passes authenticated requests", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-42", testSecret))
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", recorder.Code)
		}
	})
}
