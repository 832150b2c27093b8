package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilmReviewOncePerSpectator(t *testing.T) {
	db := newTestDB(t)
	films, err := NewFilmService(db)
	require.NoError(t, err)
	spectators, err := NewSpectatorService(db)
	require.NoError(t, err)
	reviews, err := NewReviewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	film := mustCreateFilm(t, films, "Popular Film")
	spectator := mustRegisterSpectator(t, spectators, "critic")

	_, err = reviews.CreateFilmReview(ctx, CreateReviewInput{
		SpectatorID: spectator.ID, SubjectID: film.ID, Rating: 5, Comment: "great",
	})
	require.NoError(t, err)

	_, err = reviews.CreateFilmReview(ctx, CreateReviewInput{
		SpectatorID: spectator.ID, SubjectID: film.ID, Rating: 1,
	})
	assert.ErrorIs(t, err, ErrReviewExists)

	// Another spectator may still review the same film.
	other := mustRegisterSpectator(t, spectators, "other_critic")
	_, err = reviews.CreateFilmReview(ctx, CreateReviewInput{
		SpectatorID: other.ID, SubjectID: film.ID, Rating: 2,
	})
	require.NoError(t, err)
}

func TestFilmReviewValidation(t *testing.T) {
	db := newTestDB(t)
	films, err := NewFilmService(db)
	require.NoError(t, err)
	spectators, err := NewSpectatorService(db)
	require.NoError(t, err)
	reviews, err := NewReviewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	film := mustCreateFilm(t, films, "Any Film")
	spectator := mustRegisterSpectator(t, spectators, "critic")

	_, err = reviews.CreateFilmReview(ctx, CreateReviewInput{
		SpectatorID: spectator.ID, SubjectID: film.ID, Rating: 0,
	})
	assert.Error(t, err, "rating below range")

	_, err = reviews.CreateFilmReview(ctx, CreateReviewInput{
		SpectatorID: spectator.ID, SubjectID: film.ID, Rating: 6,
	})
	assert.Error(t, err, "rating above range")

	_, err = reviews.CreateFilmReview(ctx, CreateReviewInput{
		SpectatorID: spectator.ID, SubjectID: "missing-film", Rating: 3,
	})
	assert.ErrorIs(t, err, ErrFilmNotFound)
}

func TestAuthorReviewOncePerSpectator(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db)
	require.NoError(t, err)
	authors, err := NewAuthorService(db, users)
	require.NoError(t, err)
	spectators, err := NewSpectatorService(db)
	require.NoError(t, err)
	reviews, err := NewReviewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	author := mustCreateAuthor(t, authors, "director1")
	spectator := mustRegisterSpectator(t, spectators, "critic")

	_, err = reviews.CreateAuthorReview(ctx, CreateReviewInput{
		SpectatorID: spectator.ID, SubjectID: author.ID, Rating: 4,
	})
	require.NoError(t, err)

	_, err = reviews.CreateAuthorReview(ctx, CreateReviewInput{
		SpectatorID: spectator.ID, SubjectID: author.ID, Rating: 2,
	})
	assert.ErrorIs(t, err, ErrReviewExists)
}

func TestReviewOwnershipOnUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	films, err := NewFilmService(db)
	require.NoError(t, err)
	spectators, err := NewSpectatorService(db)
	require.NoError(t, err)
	reviews, err := NewReviewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	film := mustCreateFilm(t, films, "Contested Film")
	owner := mustRegisterSpectator(t, spectators, "owner")
	stranger := mustRegisterSpectator(t, spectators, "stranger")

	review, err := reviews.CreateFilmReview(ctx, CreateReviewInput{
		SpectatorID: owner.ID, SubjectID: film.ID, Rating: 3,
	})
	require.NoError(t, err)

	newRating := 5
	_, err = reviews.UpdateFilmReview(ctx, review.ID, stranger.ID, UpdateReviewInput{Rating: &newRating})
	assert.ErrorIs(t, err, ErrNotReviewOwner)

	updated, err := reviews.UpdateFilmReview(ctx, review.ID, owner.ID, UpdateReviewInput{Rating: &newRating})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)

	err = reviews.DeleteFilmReview(ctx, review.ID, stranger.ID, false)
	assert.ErrorIs(t, err, ErrNotReviewOwner)

	// Admins bypass ownership.
	require.NoError(t, reviews.DeleteFilmReview(ctx, review.ID, stranger.ID, true))

	err = reviews.DeleteFilmReview(ctx, review.ID, owner.ID, false)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestListFilmReviewsPagination(t *testing.T) {
	db := newTestDB(t)
	films, err := NewFilmService(db)
	require.NoError(t, err)
	spectators, err := NewSpectatorService(db)
	require.NoError(t, err)
	reviews, err := NewReviewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	film := mustCreateFilm(t, films, "Much Reviewed")
	for _, name := range []string{"a_critic", "b_critic", "c_critic"} {
		spectator := mustRegisterSpectator(t, spectators, name)
		_, err = reviews.CreateFilmReview(ctx, CreateReviewInput{
			SpectatorID: spectator.ID, SubjectID: film.ID, Rating: 4,
		})
		require.NoError(t, err)
	}

	page, total, err := reviews.ListFilmReviews(ctx, film.ID, ListReviewsOptions{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 2)

	rest, _, err := reviews.ListFilmReviews(ctx, film.ID, ListReviewsOptions{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
