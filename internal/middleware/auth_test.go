package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/auth"
)

func setupRouter(tokens *auth.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt("userID")})
	})
	r.GET("/tiered", OptionalAuth(tokens), func(c *gin.Context) {
		_, authed := c.Get("userID")
		c.JSON(http.StatusOK, gin.H{"authed": authed})
	})
	return r
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	tokens := auth.NewTokenService("secret", time.Hour)
	router := setupRouter(tokens)

	token, err := tokens.Issue(7)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_id":7`)
}

func TestAuthMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	tokens := auth.NewTokenService("secret", time.Hour)
	router := setupRouter(tokens)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthNeverRejects(t *testing.T) {
	tokens := auth.NewTokenService("secret", time.Hour)
	router := setupRouter(tokens)

	// anonymous falls through unauthenticated
	req := httptest.NewRequest(http.MethodGet, "/tiered", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"authed":false`)

	// a garbage token degrades to anonymous instead of failing
	req = httptest.NewRequest(http.MethodGet, "/tiered", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Contains(t, rec.Body.String(), `"authed":false`)

	token, err := tokens.Issue(7)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/tiered", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Contains(t, rec.Body.String(), `"authed":true`)
}
