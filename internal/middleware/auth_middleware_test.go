package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/cinetheque/api/internal/auth"
	"github.com/cinetheque/api/internal/models"
)

func newJWT(t *testing.T) *iauth.JWTService {
	t.Helper()
	svc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)
	return svc
}

func TestAuthRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Auth(newJWT(t)))
	r.GET("/protected", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Auth(newJWT(t)))
	r.GET("/protected", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestAuthPopulatesIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwt := newJWT(t)

	token, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: "user-1", Username: "claire", Role: models.RoleAuthor,
	})
	require.NoError(t, err)

	r := gin.New()
	r.Use(Auth(jwt))
	r.GET("/protected", func(c *gin.Context) {
		require.Equal(t, "user-1", CurrentUserID(c))
		require.Equal(t, models.RoleAuthor, CurrentRole(c))
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwt := newJWT(t)

	spectatorToken, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: "user-2", Role: models.RoleSpectator,
	})
	require.NoError(t, err)
	adminToken, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: "user-3", Role: models.RoleAdmin,
	})
	require.NoError(t, err)

	r := gin.New()
	r.Use(Auth(jwt))
	r.DELETE("/films/:id", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, "deleted")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/films/1", nil)
	req.Header.Set("Authorization", "Bearer "+spectatorToken)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/films/1", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(OptionalAuth(newJWT(t)))
	r.GET("/films", func(c *gin.Context) {
		require.Empty(t, CurrentUserID(c))
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/films", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
