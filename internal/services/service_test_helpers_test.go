package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cinetheque/api/internal/database/testutil"
	"github.com/cinetheque/api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func mustCreateFilm(t *testing.T, svc *FilmService, title string) *models.Film {
	t.Helper()
	film, err := svc.Create(context.Background(), CreateFilmInput{
		Title:       title,
		ReleaseDate: "2024-06-01",
		Status:      models.FilmStatusPublished,
	})
	require.NoError(t, err)
	return film
}

func mustCreateAuthor(t *testing.T, svc *AuthorService, username string) *models.Author {
	t.Helper()
	author, err := svc.Create(context.Background(), CreateAuthorInput{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "s3cret-pass",
		FirstName: "Alex",
		LastName:  "Durand",
	})
	require.NoError(t, err)
	return author
}

func mustRegisterSpectator(t *testing.T, svc *SpectatorService, username string) *models.Spectator {
	t.Helper()
	spectator, err := svc.Register(context.Background(), RegisterSpectatorInput{
		Username:      username,
		Email:         username + "@example.com",
		Password:      "s3cret-pass",
		FavoriteGenre: "drama",
	})
	require.NoError(t, err)
	return spectator
}
