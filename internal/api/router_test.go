package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cinetheque/api/internal/app"
	iauth "github.com/cinetheque/api/internal/auth"
	"github.com/cinetheque/api/internal/cache"
	"github.com/cinetheque/api/internal/database/testutil"
	"github.com/cinetheque/api/internal/models"
	"github.com/cinetheque/api/internal/services"
)

type routerEnv struct {
	router *gin.Engine
	db     *gorm.DB
	lists  *cache.ListCache
}

func newTestRouter(t *testing.T) routerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	lists := cache.NewListCache(cache.NewDatabaseStore(db))

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "router-test-secret",
		Issuer:         "cinetheque",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	router, err := NewRouter(db, jwtSvc, &app.Config{}, lists)
	require.NoError(t, err)

	return routerEnv{router: router, db: db, lists: lists}
}

func (env routerEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func (env routerEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username":       username,
		"email":          username + "@example.com",
		"password":       "spectator-pass",
		"favorite_genre": "drama",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return env.login(t, username, "spectator-pass")
}

func (env routerEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	token, _ := decodeData(t, rec)["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (env routerEnv) adminToken(t *testing.T) string {
	t.Helper()

	users, err := services.NewUserService(env.db)
	require.NoError(t, err)
	_, err = users.Create(context.Background(), services.CreateUserInput{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "admin-pass-123",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)

	return env.login(t, "admin", "admin-pass-123")
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	env := newTestRouter(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/films", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/films", "", gin.H{"title": "x", "release_date": "2024-01-01"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/does-not-exist", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	env := newTestRouter(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "cinetheque_api_latency_seconds")
}

func TestRegisterLoginReviewFlow(t *testing.T) {
	env := newTestRouter(t)
	token := env.registerAndLogin(t, "cinephile")

	rec := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "cinephile", decodeData(t, rec)["username"])

	films, err := services.NewFilmService(env.db)
	require.NoError(t, err)
	film, err := films.Create(context.Background(), services.CreateFilmInput{
		Title:       "La Haine",
		ReleaseDate: "1995-05-31",
		Status:      models.FilmStatusPublished,
	})
	require.NoError(t, err)

	reviewPath := fmt.Sprintf("/api/films/%s/reviews", film.ID)
	rec = env.do(t, http.MethodPost, reviewPath, token, gin.H{"rating": 5, "comment": "superb"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Second review of the same film is rejected.
	rec = env.do(t, http.MethodPost, reviewPath, token, gin.H{"rating": 3})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "REVIEW_EXISTS")

	rec = env.do(t, http.MethodGet, reviewPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSpectatorFavoritesFlow(t *testing.T) {
	env := newTestRouter(t)

	// The public sign-up alias under the spectator resource works too.
	rec := env.do(t, http.MethodPost, "/api/spectators/register", "", gin.H{
		"username":       "favfan",
		"email":          "favfan@example.com",
		"password":       "spectator-pass",
		"favorite_genre": "drama",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token := env.login(t, "favfan", "spectator-pass")

	films, err := services.NewFilmService(env.db)
	require.NoError(t, err)
	film, err := films.Create(context.Background(), services.CreateFilmInput{
		Title:       "Wings of Desire",
		ReleaseDate: "1987-09-23",
		Status:      models.FilmStatusPublished,
	})
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/api/spectators/me/favorites/"+film.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/spectators/me/favorites", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Wings of Desire")

	rec = env.do(t, http.MethodDelete, "/api/spectators/me/favorites/"+film.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/spectators/me/favorites", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "Wings of Desire")
}

func TestRouterRoleEnforcement(t *testing.T) {
	env := newTestRouter(t)
	spectatorToken := env.registerAndLogin(t, "viewer")
	adminToken := env.adminToken(t)

	body := gin.H{"title": "Cleo from 5 to 7", "release_date": "1962-04-11"}

	rec := env.do(t, http.MethodPost, "/api/films", spectatorToken, body)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/films", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Reviews are spectator-only; the admin cannot post one.
	filmID, _ := decodeData(t, rec)["id"].(string)
	require.NotEmpty(t, filmID)
	rec = env.do(t, http.MethodPost, "/api/films/"+filmID+"/reviews", adminToken, gin.H{"rating": 4})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFilmListCachedAndInvalidatedOnMutation(t *testing.T) {
	env := newTestRouter(t)
	adminToken := env.adminToken(t)
	ctx := context.Background()

	// Anonymous list request populates the cache.
	rec := env.do(t, http.MethodGet, "/api/films", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, payload, hit := env.lists.Fetch(ctx, cache.PrefixFilms, "", "")
	require.True(t, hit)
	require.Equal(t, rec.Body.Bytes(), payload)

	// A successful mutation bumps the version, orphaning the cached payload.
	rec = env.do(t, http.MethodPost, "/api/films", adminToken, gin.H{
		"title":        "Breathless",
		"release_date": "1960-03-16",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, _, hit = env.lists.Fetch(ctx, cache.PrefixFilms, "", "")
	require.False(t, hit)

	// A rejected mutation leaves the cache version untouched.
	rec = env.do(t, http.MethodGet, "/api/films", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "Breathless"))

	rec = env.do(t, http.MethodPost, "/api/films", adminToken, gin.H{"title": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	_, _, hit = env.lists.Fetch(ctx, cache.PrefixFilms, "", "")
	require.True(t, hit)
}

func TestFilmListCacheVariesByActor(t *testing.T) {
	env := newTestRouter(t)
	token := env.registerAndLogin(t, "keyed-viewer")
	ctx := context.Background()

	rec := env.do(t, http.MethodGet, "/api/films", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The anonymous slot stays cold; the authenticated one is warm.
	_, _, hit := env.lists.Fetch(ctx, cache.PrefixFilms, "", "")
	require.False(t, hit)

	var user models.User
	require.NoError(t, env.db.Take(&user, "username = ?", "keyed-viewer").Error)
	_, _, hit = env.lists.Fetch(ctx, cache.PrefixFilms, user.ID, "")
	require.True(t, hit)
}
