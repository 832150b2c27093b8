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

// SpectatorHandler exposes viewer profile and favourites endpoints.
type SpectatorHandler struct {
	spectators *services.SpectatorService
	lists      *cache.ListCache
}

type updateSpectatorRequest struct {
	FirstName     *string `json:"first_name" validate:"omitempty,max=100"`
	LastName      *string `json:"last_name" validate:"omitempty,max=100"`
	FavoriteGenre *string `json:"favorite_genre"`
	Bio           *string `json:"bio"`
}

// NewSpectatorHandler constructs a SpectatorHandler.
func NewSpectatorHandler(db *gorm.DB, lists *cache.ListCache) (*SpectatorHandler, error) {
	spectators, err := services.NewSpectatorService(db)
	if err != nil {
		return nil, err
	}
	return &SpectatorHandler{spectators: spectators, lists: lists}, nil
}

// GET /api/spectators
func (h *SpectatorHandler) List(c *gin.Context) {
	key, served := serveCachedList(c, h.lists, cache.PrefixSpectators)
	if served {
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	spectators, total, err := h.spectators.List(requestContext(c), services.ListSpectatorsOptions{
		Page:     page,
		PageSize: perPage,
		Genre:    c.Query("favorite_genre"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	writeAndCacheList(c, h.lists, key, spectators, listMeta(page, perPage, total))
}

// GET /api/spectators/:id
func (h *SpectatorHandler) Get(c *gin.Context) {
	spectator, err := h.spectators.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, spectator)
}

// GET /api/spectators/me
func (h *SpectatorHandler) Me(c *gin.Context) {
	spectator, err := h.spectators.GetByUserID(requestContext(c), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, errors.ErrSpectatorRequired)
		return
	}
	response.Success(c, http.StatusOK, spectator)
}

// PATCH /api/spectators/:id
func (h *SpectatorHandler) Update(c *gin.Context) {
	spectator, err := h.spectators.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.canManage(c, spectator) {
		response.Error(c, errors.ErrForbidden)
		return
	}

	var body updateSpectatorRequest
	if !bindAndValidate(c, &body) {
		return
	}

	updated, err := h.spectators.Update(requestContext(c), spectator.ID, services.UpdateSpectatorInput{
		FirstName:     body.FirstName,
		LastName:      body.LastName,
		FavoriteGenre: body.FavoriteGenre,
		Bio:           body.Bio,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixSpectators)
	response.Success(c, http.StatusOK, updated)
}

// DELETE /api/spectators/:id
func (h *SpectatorHandler) Delete(c *gin.Context) {
	spectator, err := h.spectators.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.canManage(c, spectator) {
		response.Error(c, errors.ErrForbidden)
		return
	}

	if err := h.spectators.Delete(requestContext(c), spectator.ID); err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixSpectators)
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/spectators/me/favorites
func (h *SpectatorHandler) ListFavorites(c *gin.Context) {
	spectator, err := h.spectators.GetByUserID(requestContext(c), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, errors.ErrSpectatorRequired)
		return
	}

	films, err := h.spectators.ListFavorites(requestContext(c), spectator.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, films)
}

// POST /api/spectators/me/favorites/:filmID
func (h *SpectatorHandler) AddFavorite(c *gin.Context) {
	spectator, err := h.spectators.GetByUserID(requestContext(c), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, errors.ErrSpectatorRequired)
		return
	}

	if err := h.spectators.AddFavorite(requestContext(c), spectator.ID, c.Param("filmID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"favorited": true})
}

// DELETE /api/spectators/me/favorites/:filmID
func (h *SpectatorHandler) RemoveFavorite(c *gin.Context) {
	spectator, err := h.spectators.GetByUserID(requestContext(c), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, errors.ErrSpectatorRequired)
		return
	}

	if err := h.spectators.RemoveFavorite(requestContext(c), spectator.ID, c.Param("filmID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"favorited": false})
}

// canManage allows the profile owner and admins through.
func (h *SpectatorHandler) canManage(c *gin.Context, spectator *models.Spectator) bool {
	if middleware.CurrentRole(c) == models.RoleAdmin {
		return true
	}
	return spectator.UserID == middleware.CurrentUserID(c)
}
