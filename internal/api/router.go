package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/cinetheque/api/internal/app"
	iauth "github.com/cinetheque/api/internal/auth"
	"github.com/cinetheque/api/internal/cache"
	"github.com/cinetheque/api/internal/handlers"
	"github.com/cinetheque/api/internal/middleware"
	"github.com/cinetheque/api/internal/models"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, lists *cache.ListCache) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if lists == nil {
		return nil, fmt.Errorf("list cache must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Health endpoints (public)
	r.GET("/health", handlers.Health(db))
	r.GET("/health/live", handlers.HealthLive)
	r.GET("/health/ready", handlers.Health(db))

	authHandler, err := handlers.NewAuthHandler(db, jwt, lists)
	if err != nil {
		return nil, err
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
	}
	r.GET("/api/auth/me", middleware.Auth(jwt), authHandler.Me)

	requireAuth := middleware.Auth(jwt)
	optionalAuth := middleware.OptionalAuth(jwt)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	spectatorOnly := middleware.RequireRole(models.RoleSpectator)

	// Films
	filmHandler, err := handlers.NewFilmHandler(db, lists)
	if err != nil {
		return nil, err
	}
	films := r.Group("/api/films")
	{
		films.GET("", optionalAuth, filmHandler.List)
		films.GET("/:id", optionalAuth, filmHandler.Get)
		films.POST("", requireAuth, adminOnly, filmHandler.Create)
		films.PATCH("/:id", requireAuth, adminOnly, filmHandler.Update)
		films.DELETE("/:id", requireAuth, adminOnly, filmHandler.Delete)
		films.POST("/:id/archive", requireAuth, adminOnly, filmHandler.Archive)
		films.POST("/:id/directors", requireAuth, adminOnly, filmHandler.AddDirector)
	}

	// Authors
	authorHandler, err := handlers.NewAuthorHandler(db, lists)
	if err != nil {
		return nil, err
	}
	authors := r.Group("/api/authors")
	{
		authors.GET("", optionalAuth, authorHandler.List)
		authors.GET("/:id", optionalAuth, authorHandler.Get)
		authors.POST("", requireAuth, adminOnly, authorHandler.Create)
		authors.PATCH("/:id", requireAuth, adminOnly, authorHandler.Update)
		authors.DELETE("/:id", requireAuth, adminOnly, authorHandler.Delete)
	}

	// Spectators
	spectatorHandler, err := handlers.NewSpectatorHandler(db, lists)
	if err != nil {
		return nil, err
	}
	// Public sign-up lives under the spectator resource.
	r.POST("/api/spectators/register", authHandler.Register)

	spectators := r.Group("/api/spectators")
	spectators.Use(requireAuth)
	{
		spectators.GET("", spectatorHandler.List)
		spectators.GET("/me", spectatorHandler.Me)
		spectators.GET("/:id", spectatorHandler.Get)
		spectators.PATCH("/:id", spectatorHandler.Update)
		spectators.DELETE("/:id", spectatorHandler.Delete)
		spectators.GET("/me/favorites", spectatorOnly, spectatorHandler.ListFavorites)
		spectators.POST("/me/favorites/:filmID", spectatorOnly, spectatorHandler.AddFavorite)
		spectators.DELETE("/me/favorites/:filmID", spectatorOnly, spectatorHandler.RemoveFavorite)
	}

	// Reviews
	reviewHandler, err := handlers.NewReviewHandler(db, lists)
	if err != nil {
		return nil, err
	}
	films.GET("/:id/reviews", optionalAuth, reviewHandler.ListFilmReviews)
	films.POST("/:id/reviews", requireAuth, spectatorOnly, reviewHandler.CreateFilmReview)
	authors.GET("/:id/reviews", optionalAuth, reviewHandler.ListAuthorReviews)
	authors.POST("/:id/reviews", requireAuth, spectatorOnly, reviewHandler.CreateAuthorReview)

	filmReviews := r.Group("/api/film-reviews")
	filmReviews.Use(requireAuth)
	{
		filmReviews.PATCH("/:id", spectatorOnly, reviewHandler.UpdateFilmReview)
		filmReviews.DELETE("/:id", reviewHandler.DeleteFilmReview)
	}
	authorReviews := r.Group("/api/author-reviews")
	authorReviews.Use(requireAuth)
	{
		authorReviews.PATCH("/:id", spectatorOnly, reviewHandler.UpdateAuthorReview)
		authorReviews.DELETE("/:id", reviewHandler.DeleteAuthorReview)
	}

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
