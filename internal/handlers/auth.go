package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/cinetheque/api/internal/auth"
	"github.com/cinetheque/api/internal/cache"
	"github.com/cinetheque/api/internal/middleware"
	"github.com/cinetheque/api/internal/services"
	"github.com/cinetheque/api/pkg/errors"
	"github.com/cinetheque/api/pkg/response"
)

// AuthHandler manages authentication flows (login/register/me).
type AuthHandler struct {
	users      *services.UserService
	spectators *services.SpectatorService
	jwt        *iauth.JWTService
	lists      *cache.ListCache
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username      string `json:"username" validate:"required,min=3,max=64"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	FirstName     string `json:"first_name" validate:"max=100"`
	LastName      string `json:"last_name" validate:"max=100"`
	FavoriteGenre string `json:"favorite_genre"`
	Bio           string `json:"bio"`
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService, lists *cache.ListCache) (*AuthHandler, error) {
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	spectators, err := services.NewSpectatorService(db)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{users: users, spectators: spectators, jwt: jwt, lists: lists}, nil
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), body.Username, body.Password)
	if err != nil {
		// Normalise auth errors to 401
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"access_token": token,
		"user":         user,
	})
}

// POST /api/auth/register registers a new spectator account.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if !bindAndValidate(c, &body) {
		return
	}

	spectator, err := h.spectators.Register(requestContext(c), services.RegisterSpectatorInput{
		Username:      body.Username,
		Email:         body.Email,
		Password:      body.Password,
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
	response.Success(c, http.StatusCreated, spectator)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, user)
}
