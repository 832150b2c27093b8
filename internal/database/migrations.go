package database

import (
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/cinetheque/api/internal/models"
	"github.com/cinetheque/api/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Author{},
		&models.Film{},
		&models.Spectator{},
		&models.FilmReview{},
		&models.AuthorReview{},
		&models.CacheEntry{},
	)
}

// SeedData ensures a default administrator account exists. The password comes
// from CINETHEQUE_ADMIN_PASSWORD; without it the account is created locked
// (no password hash, so authentication always fails until one is set).
func SeedData(db *gorm.DB) error {
	admin := models.User{
		Username: "admin",
		Email:    "admin@cinetheque.local",
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	if password := strings.TrimSpace(os.Getenv("CINETHEQUE_ADMIN_PASSWORD")); password != "" {
		hash, err := crypto.HashPassword(password)
		if err != nil {
			return err
		}
		admin.Password = hash
	}

	return db.Where(models.User{Username: admin.Username}).
		Attrs(admin).
		FirstOrCreate(&models.User{}).Error
}
