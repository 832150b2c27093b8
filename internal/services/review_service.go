package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/cinetheque/api/internal/models"
	apperrors "github.com/cinetheque/api/pkg/errors"
)

var (
	// ErrReviewNotFound indicates the requested review does not exist.
	ErrReviewNotFound = apperrors.New("REVIEW_NOT_FOUND", "Review not found", http.StatusNotFound)
	// ErrReviewExists blocks a spectator reviewing the same subject twice.
	ErrReviewExists = apperrors.NewConflict("REVIEW_EXISTS", "You have already reviewed this item")
	// ErrNotReviewOwner blocks mutating another spectator's review.
	ErrNotReviewOwner = apperrors.New("NOT_REVIEW_OWNER", "You can only modify your own reviews", http.StatusForbidden)
)

// CreateReviewInput carries a new rating from a spectator.
type CreateReviewInput struct {
	SpectatorID string
	SubjectID   string
	Rating      int
	Comment     string
}

// UpdateReviewInput enumerates mutable review attributes.
type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

// ListReviewsOptions controls pagination for review listings.
type ListReviewsOptions struct {
	Page     int
	PageSize int
}

// ReviewService manages spectator ratings of films and authors.
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService constructs a ReviewService instance.
func NewReviewService(db *gorm.DB) (*ReviewService, error) {
	if db == nil {
		return nil, errors.New("review service: db is required")
	}
	return &ReviewService{db: db}, nil
}

// CreateFilmReview records a spectator's rating of a film. A spectator may
// review each film at most once.
func (s *ReviewService) CreateFilmReview(ctx context.Context, input CreateReviewInput) (*models.FilmReview, error) {
	ctx = ensureContext(ctx)

	if !models.ValidRating(input.Rating) {
		return nil, apperrors.NewBadRequest("rating must be between 1 and 5")
	}

	var film models.Film
	err := s.db.WithContext(ctx).Take(&film, "id = ?", input.SubjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFilmNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("review service: load film: %w", err)
	}

	review := &models.FilmReview{
		FilmID:      film.ID,
		SpectatorID: input.SpectatorID,
		Rating:      input.Rating,
		Comment:     strings.TrimSpace(input.Comment),
	}
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrReviewExists
		}
		return nil, fmt.Errorf("review service: create film review: %w", err)
	}
	return review, nil
}

// CreateAuthorReview records a spectator's rating of an author. A spectator
// may review each author at most once.
func (s *ReviewService) CreateAuthorReview(ctx context.Context, input CreateReviewInput) (*models.AuthorReview, error) {
	ctx = ensureContext(ctx)

	if !models.ValidRating(input.Rating) {
		return nil, apperrors.NewBadRequest("rating must be between 1 and 5")
	}

	var author models.Author
	err := s.db.WithContext(ctx).Take(&author, "id = ?", input.SubjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("review service: load author: %w", err)
	}

	review := &models.AuthorReview{
		AuthorID:    author.ID,
		SpectatorID: input.SpectatorID,
		Rating:      input.Rating,
		Comment:     strings.TrimSpace(input.Comment),
	}
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrReviewExists
		}
		return nil, fmt.Errorf("review service: create author review: %w", err)
	}
	return review, nil
}

// ListFilmReviews returns a page of reviews for a film and the total count.
func (s *ReviewService) ListFilmReviews(ctx context.Context, filmID string, opts ListReviewsOptions) ([]models.FilmReview, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize := normalisePagination(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.FilmReview{}).Where("film_id = ?", filmID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("review service: count film reviews: %w", err)
	}

	var reviews []models.FilmReview
	err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("review service: list film reviews: %w", err)
	}
	return reviews, total, nil
}

// ListAuthorReviews returns a page of reviews for an author and the total count.
func (s *ReviewService) ListAuthorReviews(ctx context.Context, authorID string, opts ListReviewsOptions) ([]models.AuthorReview, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize := normalisePagination(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.AuthorReview{}).Where("author_id = ?", authorID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("review service: count author reviews: %w", err)
	}

	var reviews []models.AuthorReview
	err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("review service: list author reviews: %w", err)
	}
	return reviews, total, nil
}

// UpdateFilmReview applies partial changes to a film review. Only the owning
// spectator may modify a review.
func (s *ReviewService) UpdateFilmReview(ctx context.Context, id, spectatorID string, input UpdateReviewInput) (*models.FilmReview, error) {
	ctx = ensureContext(ctx)

	var review models.FilmReview
	err := s.db.WithContext(ctx).Take(&review, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("review service: load film review: %w", err)
	}

	if review.SpectatorID != spectatorID {
		return nil, ErrNotReviewOwner
	}

	if input.Rating != nil {
		if !models.ValidRating(*input.Rating) {
			return nil, apperrors.NewBadRequest("rating must be between 1 and 5")
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = strings.TrimSpace(*input.Comment)
	}

	if err := s.db.WithContext(ctx).Save(&review).Error; err != nil {
		return nil, fmt.Errorf("review service: update film review: %w", err)
	}
	return &review, nil
}

// UpdateAuthorReview applies partial changes to an author review. Only the
// owning spectator may modify a review.
func (s *ReviewService) UpdateAuthorReview(ctx context.Context, id, spectatorID string, input UpdateReviewInput) (*models.AuthorReview, error) {
	ctx = ensureContext(ctx)

	var review models.AuthorReview
	err := s.db.WithContext(ctx).Take(&review, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("review service: load author review: %w", err)
	}

	if review.SpectatorID != spectatorID {
		return nil, ErrNotReviewOwner
	}

	if input.Rating != nil {
		if !models.ValidRating(*input.Rating) {
			return nil, apperrors.NewBadRequest("rating must be between 1 and 5")
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = strings.TrimSpace(*input.Comment)
	}

	if err := s.db.WithContext(ctx).Save(&review).Error; err != nil {
		return nil, fmt.Errorf("review service: update author review: %w", err)
	}
	return &review, nil
}

// DeleteFilmReview removes a film review. The owning spectator or an admin
// (signalled by isAdmin) may delete it.
func (s *ReviewService) DeleteFilmReview(ctx context.Context, id, spectatorID string, isAdmin bool) error {
	ctx = ensureContext(ctx)

	var review models.FilmReview
	err := s.db.WithContext(ctx).Take(&review, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReviewNotFound
	}
	if err != nil {
		return fmt.Errorf("review service: load film review: %w", err)
	}

	if !isAdmin && review.SpectatorID != spectatorID {
		return ErrNotReviewOwner
	}

	if err := s.db.WithContext(ctx).Delete(&review).Error; err != nil {
		return fmt.Errorf("review service: delete film review: %w", err)
	}
	return nil
}

// DeleteAuthorReview removes an author review. The owning spectator or an
// admin may delete it.
func (s *ReviewService) DeleteAuthorReview(ctx context.Context, id, spectatorID string, isAdmin bool) error {
	ctx = ensureContext(ctx)

	var review models.AuthorReview
	err := s.db.WithContext(ctx).Take(&review, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReviewNotFound
	}
	if err != nil {
		return fmt.Errorf("review service: load author review: %w", err)
	}

	if !isAdmin && review.SpectatorID != spectatorID {
		return ErrNotReviewOwner
	}

	if err := s.db.WithContext(ctx).Delete(&review).Error; err != nil {
		return fmt.Errorf("review service: delete author review: %w", err)
	}
	return nil
}
