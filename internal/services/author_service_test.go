package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetheque/api/internal/models"
)

func TestAuthorCreateProvisionsUser(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db)
	require.NoError(t, err)
	authors, err := NewAuthorService(db, users)
	require.NoError(t, err)

	author := mustCreateAuthor(t, authors, "director1")

	require.NotNil(t, author.User)
	assert.Equal(t, models.RoleAuthor, author.User.Role)
	assert.Equal(t, models.SourceAdmin, author.Source)

	got, err := authors.Get(context.Background(), author.ID)
	require.NoError(t, err)
	assert.Equal(t, "director1", got.User.Username)
}

func TestAuthorDeleteWithFilmsConflicts(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db)
	require.NoError(t, err)
	authors, err := NewAuthorService(db, users)
	require.NoError(t, err)
	films, err := NewFilmService(db)
	require.NoError(t, err)

	author := mustCreateAuthor(t, authors, "busy_director")
	film := mustCreateFilm(t, films, "Their Film")
	require.NoError(t, films.AddDirector(context.Background(), film.ID, author.ID))

	err = authors.Delete(context.Background(), author.ID)
	assert.ErrorIs(t, err, ErrAuthorHasFilms)

	// Still present after the rejected delete.
	_, err = authors.Get(context.Background(), author.ID)
	require.NoError(t, err)

	// Once the film is gone the author can be removed.
	require.NoError(t, films.Delete(context.Background(), film.ID))
	require.NoError(t, authors.Delete(context.Background(), author.ID))

	_, err = authors.Get(context.Background(), author.ID)
	assert.ErrorIs(t, err, ErrAuthorNotFound)
}

func TestAuthorUpsertByTMDBIDIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db)
	require.NoError(t, err)
	authors, err := NewAuthorService(db, users)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := authors.UpsertByTMDBID(ctx, db, UpsertAuthorInput{
		TMDBID: 525, Name: "Christopher Nolan", Birthday: "1970-07-30", Biography: "old bio",
	})
	require.NoError(t, err)
	require.NotNil(t, first.User)
	assert.Equal(t, "tmdb_525", first.User.Username)
	assert.Equal(t, "Christopher", first.User.FirstName)
	assert.Equal(t, "Nolan", first.User.LastName)
	assert.False(t, first.User.IsActive, "imported accounts cannot log in")
	assert.Equal(t, models.SourceTMDB, first.Source)
	require.NotNil(t, first.DateOfBirth)

	second, err := authors.UpsertByTMDBID(ctx, db, UpsertAuthorInput{
		TMDBID: 525, Name: "Christopher Nolan", Biography: "refreshed bio",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "refreshed bio", second.Bio)
	assert.Nil(t, second.DateOfBirth, "missing birthday clears the stored date")

	var stored models.Author
	require.NoError(t, db.Take(&stored, "id = ?", first.ID).Error)
	assert.Nil(t, stored.DateOfBirth)

	var authorCount, userCount int64
	require.NoError(t, db.Model(&models.Author{}).Count(&authorCount).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.EqualValues(t, 1, authorCount)
	assert.EqualValues(t, 1, userCount)
}

func TestAuthorUpsertTruncatesBiography(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db)
	require.NoError(t, err)
	authors, err := NewAuthorService(db, users)
	require.NoError(t, err)
	ctx := context.Background()

	long := strings.Repeat("b", 5000)
	created, err := authors.UpsertByTMDBID(ctx, db, UpsertAuthorInput{
		TMDBID: 1032, Name: "Martin Scorsese", Biography: long,
	})
	require.NoError(t, err)
	assert.Len(t, created.Bio, 1000)

	refreshed, err := authors.UpsertByTMDBID(ctx, db, UpsertAuthorInput{
		TMDBID: 1032, Name: "Martin Scorsese", Biography: strings.Repeat("c", 1200),
	})
	require.NoError(t, err)
	assert.Len(t, refreshed.Bio, 1000)
}

func TestAuthorListSearch(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db)
	require.NoError(t, err)
	authors, err := NewAuthorService(db, users)
	require.NoError(t, err)

	mustCreateAuthor(t, authors, "jean_renoir")
	mustCreateAuthor(t, authors, "agnes_varda")

	matched, total, err := authors.List(context.Background(), ListAuthorsOptions{Search: "varda"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, matched, 1)
	assert.Equal(t, "agnes_varda", matched[0].User.Username)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		input string
		first string
		last  string
	}{
		{"Christopher Nolan", "Christopher", "Nolan"},
		{"Madonna", "Madonna", ""},
		{"Jean Pierre Jeunet", "Jean", "Pierre Jeunet"},
		{"  Agnes   Varda  ", "Agnes", "Varda"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.input)
		assert.Equal(t, tt.first, first, tt.input)
		assert.Equal(t, tt.last, last, tt.input)
	}
}
