package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinetheque/api/internal/cache"
	"github.com/cinetheque/api/internal/middleware"
	"github.com/cinetheque/api/internal/models"
	"github.com/cinetheque/api/internal/services"
	"github.com/cinetheque/api/pkg/errors"
	"github.com/cinetheque/api/pkg/response"
)

// ReviewHandler exposes film and author review endpoints.
type ReviewHandler struct {
	reviews    *services.ReviewService
	spectators *services.SpectatorService
	lists      *cache.ListCache
}

type createReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(db *gorm.DB, lists *cache.ListCache) (*ReviewHandler, error) {
	reviews, err := services.NewReviewService(db)
	if err != nil {
		return nil, err
	}
	spectators, err := services.NewSpectatorService(db)
	if err != nil {
		return nil, err
	}
	return &ReviewHandler{reviews: reviews, spectators: spectators, lists: lists}, nil
}

// currentSpectator resolves the caller's spectator profile. Reviews are a
// spectator-only feature; other roles get SPECTATOR_REQUIRED.
func (h *ReviewHandler) currentSpectator(c *gin.Context) (*models.Spectator, bool) {
	spectator, err := h.spectators.GetByUserID(requestContext(c), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, errors.ErrSpectatorRequired)
		return nil, false
	}
	return spectator, true
}

// GET /api/films/:id/reviews
func (h *ReviewHandler) ListFilmReviews(c *gin.Context) {
	key, served := serveCachedList(c, h.lists, cache.PrefixFilmReviews)
	if served {
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	reviews, total, err := h.reviews.ListFilmReviews(requestContext(c), c.Param("id"), services.ListReviewsOptions{
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	writeAndCacheList(c, h.lists, key, reviews, listMeta(page, perPage, total))
}

// POST /api/films/:id/reviews
func (h *ReviewHandler) CreateFilmReview(c *gin.Context) {
	spectator, ok := h.currentSpectator(c)
	if !ok {
		return
	}

	var body createReviewRequest
	if !bindAndValidate(c, &body) {
		return
	}

	review, err := h.reviews.CreateFilmReview(requestContext(c), services.CreateReviewInput{
		SpectatorID: spectator.ID,
		SubjectID:   c.Param("id"),
		Rating:      body.Rating,
		Comment:     body.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixFilmReviews)
	h.lists.Invalidate(requestContext(c), cache.PrefixFilms)
	response.Success(c, http.StatusCreated, review)
}

// PATCH /api/film-reviews/:id
func (h *ReviewHandler) UpdateFilmReview(c *gin.Context) {
	spectator, ok := h.currentSpectator(c)
	if !ok {
		return
	}

	var body updateReviewRequest
	if !bindAndValidate(c, &body) {
		return
	}

	review, err := h.reviews.UpdateFilmReview(requestContext(c), c.Param("id"), spectator.ID, services.UpdateReviewInput{
		Rating:  body.Rating,
		Comment: body.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixFilmReviews)
	h.lists.Invalidate(requestContext(c), cache.PrefixFilms)
	response.Success(c, http.StatusOK, review)
}

// DELETE /api/film-reviews/:id
func (h *ReviewHandler) DeleteFilmReview(c *gin.Context) {
	isAdmin := middleware.CurrentRole(c) == models.RoleAdmin

	spectatorID := ""
	if !isAdmin {
		spectator, ok := h.currentSpectator(c)
		if !ok {
			return
		}
		spectatorID = spectator.ID
	}

	if err := h.reviews.DeleteFilmReview(requestContext(c), c.Param("id"), spectatorID, isAdmin); err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixFilmReviews)
	h.lists.Invalidate(requestContext(c), cache.PrefixFilms)
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/authors/:id/reviews
func (h *ReviewHandler) ListAuthorReviews(c *gin.Context) {
	key, served := serveCachedList(c, h.lists, cache.PrefixAuthorReviews)
	if served {
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	reviews, total, err := h.reviews.ListAuthorReviews(requestContext(c), c.Param("id"), services.ListReviewsOptions{
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	writeAndCacheList(c, h.lists, key, reviews, listMeta(page, perPage, total))
}

// POST /api/authors/:id/reviews
func (h *ReviewHandler) CreateAuthorReview(c *gin.Context) {
	spectator, ok := h.currentSpectator(c)
	if !ok {
		return
	}

	var body createReviewRequest
	if !bindAndValidate(c, &body) {
		return
	}

	review, err := h.reviews.CreateAuthorReview(requestContext(c), services.CreateReviewInput{
		SpectatorID: spectator.ID,
		SubjectID:   c.Param("id"),
		Rating:      body.Rating,
		Comment:     body.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixAuthorReviews)
	h.lists.Invalidate(requestContext(c), cache.PrefixAuthors)
	response.Success(c, http.StatusCreated, review)
}

// PATCH /api/author-reviews/:id
func (h *ReviewHandler) UpdateAuthorReview(c *gin.Context) {
	spectator, ok := h.currentSpectator(c)
	if !ok {
		return
	}

	var body updateReviewRequest
	if !bindAndValidate(c, &body) {
		return
	}

	review, err := h.reviews.UpdateAuthorReview(requestContext(c), c.Param("id"), spectator.ID, services.UpdateReviewInput{
		Rating:  body.Rating,
		Comment: body.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixAuthorReviews)
	h.lists.Invalidate(requestContext(c), cache.PrefixAuthors)
	response.Success(c, http.StatusOK, review)
}

// DELETE /api/author-reviews/:id
func (h *ReviewHandler) DeleteAuthorReview(c *gin.Context) {
	isAdmin := middleware.CurrentRole(c) == models.RoleAdmin

	spectatorID := ""
	if !isAdmin {
		spectator, ok := h.currentSpectator(c)
		if !ok {
			return
		}
		spectatorID = spectator.ID
	}

	if err := h.reviews.DeleteAuthorReview(requestContext(c), c.Param("id"), spectatorID, isAdmin); err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixAuthorReviews)
	h.lists.Invalidate(requestContext(c), cache.PrefixAuthors)
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
