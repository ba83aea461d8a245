package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fuswap/backend/internal/database/dbtest"
	"github.com/fuswap/backend/internal/services/session"
	"github.com/fuswap/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	router := gin.New()
	router.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		id, found := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "found": found})
	})
	router.GET("/admin", AuthMiddleware(tokens), AdminMiddleware(), ok)

	userID := uuid.New()
	userToken, err := tokens.Generate(userID, "a@example.com", false)
	require.NoError(t, err)
	adminToken, err := tokens.Generate(uuid.Nil, "admin", true)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing token", "/me", "", http.StatusUnauthorized},
		{"malformed header", "/me", userToken.AccessToken, http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"user token", "/me", "Bearer " + userToken.AccessToken, http.StatusOK},
		{"user on admin route", "/admin", "Bearer " + userToken.AccessToken, http.StatusForbidden},
		{"admin token", "/admin", "Bearer " + adminToken.AccessToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+userToken.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestWalletSessionMiddleware(t *testing.T) {
	client, _ := dbtest.Redis(t)
	store := session.NewStore(client, time.Hour, zap.NewNop())
	sess, err := store.Open(context.Background(), "UQDa2QRkf7Jj3dYqwRdU7XO6s21WvlvkG-NjUs77htjOMcEI", "ABC-12345")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", WalletSessionMiddleware(store, zap.NewNop()), func(c *gin.Context) {
		s, found := WalletSession(c)
		require.True(t, found)
		c.String(http.StatusOK, s.Address)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(WalletSessionHeader, "unknown")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(WalletSessionHeader, sess.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sess.Address, w.Body.String())
}

func TestAuthRateLimiterKeepsBody(t *testing.T) {
	rl := NewRateLimiter(100, 60, 100, 2)
	defer rl.Stop()

	router := gin.New()
	router.POST("/login", rl.AuthRateLimiterMiddleware(), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})

	send := func(email string) *httptest.ResponseRecorder {
		body := `{"email":"` + email + `","password":"secret"}`
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send("a@example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"password":"secret"`)

	assert.Equal(t, http.StatusOK, send("a@example.com").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("a@example.com").Code)
	assert.Equal(t, http.StatusOK, send("b@example.com").Code)
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 60, 1, 1)
	defer rl.Stop()

	router := gin.New()
	router.GET("/", rl.IPRateLimiterMiddleware(), ok)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestSecureHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecureHeadersMiddleware(DefaultSecureHeadersConfig(true)))
	router.GET("/api/admin/stats", ok)
	router.GET("/api/rates", ok)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rates", nil))
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func TestRecoveryReturnsJSON(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(zap.NewNop()), Recovery(zap.NewNop()))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}
