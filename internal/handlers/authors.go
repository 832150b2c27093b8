package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinetheque/api/internal/cache"
	"github.com/cinetheque/api/internal/services"
	"github.com/cinetheque/api/pkg/response"
)

// AuthorHandler exposes the director profile endpoints.
type AuthorHandler struct {
	authors *services.AuthorService
	lists   *cache.ListCache
}

type createAuthorRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	DateOfBirth string `json:"date_of_birth"`
	Bio         string `json:"bio"`
}

type updateAuthorRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	DateOfBirth *string `json:"date_of_birth"`
	Bio         *string `json:"bio"`
}

// NewAuthorHandler constructs an AuthorHandler.
func NewAuthorHandler(db *gorm.DB, lists *cache.ListCache) (*AuthorHandler, error) {
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	authors, err := services.NewAuthorService(db, users)
	if err != nil {
		return nil, err
	}
	return &AuthorHandler{authors: authors, lists: lists}, nil
}

// GET /api/authors
func (h *AuthorHandler) List(c *gin.Context) {
	key, served := serveCachedList(c, h.lists, cache.PrefixAuthors)
	if served {
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	authors, total, err := h.authors.List(requestContext(c), services.ListAuthorsOptions{
		Page:     page,
		PageSize: perPage,
		Search:   c.Query("search"),
		Source:   c.Query("source"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	writeAndCacheList(c, h.lists, key, authors, listMeta(page, perPage, total))
}

// GET /api/authors/:id
func (h *AuthorHandler) Get(c *gin.Context) {
	author, err := h.authors.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, author)
}

// POST /api/authors
func (h *AuthorHandler) Create(c *gin.Context) {
	var body createAuthorRequest
	if !bindAndValidate(c, &body) {
		return
	}

	author, err := h.authors.Create(requestContext(c), services.CreateAuthorInput{
		Username:    body.Username,
		Email:       body.Email,
		Password:    body.Password,
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		DateOfBirth: body.DateOfBirth,
		Bio:         body.Bio,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixAuthors)
	response.Success(c, http.StatusCreated, author)
}

// PATCH /api/authors/:id
func (h *AuthorHandler) Update(c *gin.Context) {
	var body updateAuthorRequest
	if !bindAndValidate(c, &body) {
		return
	}

	author, err := h.authors.Update(requestContext(c), c.Param("id"), services.UpdateAuthorInput{
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		DateOfBirth: body.DateOfBirth,
		Bio:         body.Bio,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixAuthors)
	response.Success(c, http.StatusOK, author)
}

// DELETE /api/authors/:id
func (h *AuthorHandler) Delete(c *gin.Context) {
	if err := h.authors.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	h.lists.Invalidate(requestContext(c), cache.PrefixAuthors)
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
