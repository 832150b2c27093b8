package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinetheque/api/internal/cache"
	"github.com/cinetheque/api/internal/services"
	"github.com/cinetheque/api/pkg/response"
)

// FilmHandler exposes the film catalog endpoints.
type FilmHandler struct {
	films *services.FilmService
	lists *cache.ListCache
}

type createFilmRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description"`
	ReleaseDate string   `json:"release_date" validate:"required"`
	Evaluation  string   `json:"evaluation" validate:"omitempty,oneof=G PG PG-13 R NC-17"`
	Status      string   `json:"status" validate:"omitempty,oneof=draft published archived"`
	AuthorIDs   []string `json:"author_ids"`
}

type updateFilmRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=255"`
	Description *string  `json:"description"`
	ReleaseDate *string  `json:"release_date"`
	Evaluation  *string  `json:"evaluation" validate:"omitempty,oneof=G PG PG-13 R NC-17"`
	Status      *string  `json:"status" validate:"omitempty,oneof=draft published archived"`
	AuthorIDs   []string `json:"author_ids"`
}

type addDirectorRequest struct {
	AuthorID string `json:"author_id" validate:"required"`
}

// NewFilmHandler constructs a FilmHandler.
func NewFilmHandler(db *gorm.DB, lists *cache.ListCache) (*FilmHandler, error) {
	films, err := services.NewFilmService(db)
	if err != nil {
		return nil, err
	}
	return &FilmHandler{films: films, lists: lists}, nil
}

// GET /api/films
func (h *FilmHandler) List(c *gin.Context) {
	key, served := serveCachedList(c, h.lists, cache.PrefixFilms)
	if served {
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	films, total, err := h.films.List(requestContext(c), services.ListFilmsOptions{
		Page:     page,
		PageSize: perPage,
		Ordering: c.Query("ordering"),
		Filters: services.FilmFilters{
			Status:     c.Query("status"),
			Evaluation: c.Query("evaluation"),
			Source:     c.Query("source"),
			Search:     c.Query("search"),
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	writeAndCacheList(c, h.lists, key, films, listMeta(page, perPage, total))
}

// GET /api/films/:id
func (h *FilmHandler) Get(c *gin.Context) {
	film, err := h.films.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, film)
}

// POST /api/films
func (h *FilmHandler) Create(c *gin.Context) {
	var body createFilmRequest
	if !bindAndValidate(c, &body) {
		return
	}

	film, err := h.films.Create(requestContext(c), services.CreateFilmInput{
		Title:       body.Title,
		Description: body.Description,
		ReleaseDate: body.ReleaseDate,
		Evaluation:  body.Evaluation,
		Status:      body.Status,
		AuthorIDs:   body.AuthorIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixFilms)
	response.Success(c, http.StatusCreated, film)
}

// PATCH /api/films/:id
func (h *FilmHandler) Update(c *gin.Context) {
	var body updateFilmRequest
	if !bindAndValidate(c, &body) {
		return
	}

	film, err := h.films.Update(requestContext(c), c.Param("id"), services.UpdateFilmInput{
		Title:       body.Title,
		Description: body.Description,
		ReleaseDate: body.ReleaseDate,
		Evaluation:  body.Evaluation,
		Status:      body.Status,
		AuthorIDs:   body.AuthorIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixFilms)
	response.Success(c, http.StatusOK, film)
}

// DELETE /api/films/:id
func (h *FilmHandler) Delete(c *gin.Context) {
	if err := h.films.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixFilms)
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/films/:id/archive
func (h *FilmHandler) Archive(c *gin.Context) {
	film, err := h.films.Archive(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixFilms)
	response.Success(c, http.StatusOK, film)
}

// POST /api/films/:id/directors
func (h *FilmHandler) AddDirector(c *gin.Context) {
	var body addDirectorRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.films.AddDirector(requestContext(c), c.Param("id"), body.AuthorID); err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixFilms)
	h.lists.Invalidate(requestContext(c), cache.PrefixAuthors)
	response.Success(c, http.StatusOK, gin.H{"linked": true})
}
