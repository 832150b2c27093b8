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
	// ErrSpectatorNotFound indicates the requested spectator does not exist.
	ErrSpectatorNotFound = apperrors.New("SPECTATOR_NOT_FOUND", "Spectator not found", http.StatusNotFound)
)

// RegisterSpectatorInput describes the public sign-up payload.
type RegisterSpectatorInput struct {
	Username      string
	Email         string
	Password      string
	FirstName     string
	LastName      string
	FavoriteGenre string
	Bio           string
}

// UpdateSpectatorInput enumerates mutable spectator attributes.
type UpdateSpectatorInput struct {
	FirstName     *string
	LastName      *string
	FavoriteGenre *string
	Bio           *string
}

// ListSpectatorsOptions controls pagination for spectator listings.
type ListSpectatorsOptions struct {
	Page     int
	PageSize int
	Genre    string
}

// SpectatorService manages viewer profiles, sign-up and favourites.
type SpectatorService struct {
	db *gorm.DB
}

// NewSpectatorService constructs a SpectatorService instance.
func NewSpectatorService(db *gorm.DB) (*SpectatorService, error) {
	if db == nil {
		return nil, errors.New("spectator service: db is required")
	}
	return &SpectatorService{db: db}, nil
}

// Register creates the user account and spectator profile atomically.
func (s *SpectatorService) Register(ctx context.Context, input RegisterSpectatorInput) (*models.Spectator, error) {
	ctx = ensureContext(ctx)

	genre := strings.TrimSpace(input.FavoriteGenre)
	if !models.ValidGenre(genre) {
		return nil, apperrors.NewBadRequest("unknown favorite genre")
	}

	var spectator *models.Spectator
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := NewUserService(tx)
		if err != nil {
			return err
		}
		user, err := users.Create(ctx, CreateUserInput{
			Username:  input.Username,
			Email:     input.Email,
			Password:  input.Password,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Role:      models.RoleSpectator,
		})
		if err != nil {
			return err
		}

		spectator = &models.Spectator{
			UserID:        user.ID,
			User:          user,
			FavoriteGenre: genre,
			Bio:           strings.TrimSpace(input.Bio),
		}
		return tx.Omit("User").Create(spectator).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("spectator service: register: %w", err)
	}

	return spectator, nil
}

// List returns a page of spectators and the total count.
func (s *SpectatorService) List(ctx context.Context, opts ListSpectatorsOptions) ([]models.Spectator, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize := normalisePagination(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.Spectator{})
	if genre := strings.TrimSpace(opts.Genre); genre != "" {
		query = query.Where("favorite_genre = ?", genre)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("spectator service: count spectators: %w", err)
	}

	var spectators []models.Spectator
	err := query.
		Preload("User").
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&spectators).Error
	if err != nil {
		return nil, 0, fmt.Errorf("spectator service: list spectators: %w", err)
	}
	return spectators, total, nil
}

// Get loads a spectator with user and favourite films.
func (s *SpectatorService) Get(ctx context.Context, id string) (*models.Spectator, error) {
	ctx = ensureContext(ctx)

	var spectator models.Spectator
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("FavoriteFilms").
		Take(&spectator, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSpectatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("spectator service: load spectator: %w", err)
	}
	return &spectator, nil
}

// GetByUserID loads the spectator profile attached to a user account.
func (s *SpectatorService) GetByUserID(ctx context.Context, userID string) (*models.Spectator, error) {
	ctx = ensureContext(ctx)

	var spectator models.Spectator
	err := s.db.WithContext(ctx).Preload("User").Take(&spectator, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSpectatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("spectator service: load spectator: %w", err)
	}
	return &spectator, nil
}

// Update applies partial changes to a spectator profile and its user.
func (s *SpectatorService) Update(ctx context.Context, id string, input UpdateSpectatorInput) (*models.Spectator, error) {
	ctx = ensureContext(ctx)

	var spectator models.Spectator
	err := s.db.WithContext(ctx).Preload("User").Take(&spectator, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSpectatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("spectator service: load spectator: %w", err)
	}

	if input.FavoriteGenre != nil {
		genre := strings.TrimSpace(*input.FavoriteGenre)
		if !models.ValidGenre(genre) {
			return nil, apperrors.NewBadRequest("unknown favorite genre")
		}
		spectator.FavoriteGenre = genre
	}
	if input.Bio != nil {
		spectator.Bio = strings.TrimSpace(*input.Bio)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Save(&spectator).Error; err != nil {
			return err
		}
		if spectator.User != nil && (input.FirstName != nil || input.LastName != nil) {
			if input.FirstName != nil {
				spectator.User.FirstName = strings.TrimSpace(*input.FirstName)
			}
			if input.LastName != nil {
				spectator.User.LastName = strings.TrimSpace(*input.LastName)
			}
			return tx.Save(spectator.User).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("spectator service: update spectator: %w", err)
	}

	return &spectator, nil
}

// Delete removes a spectator profile along with its reviews and favourites.
func (s *SpectatorService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var spectator models.Spectator
		err := tx.Take(&spectator, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSpectatorNotFound
		}
		if err != nil {
			return fmt.Errorf("spectator service: load spectator: %w", err)
		}

		if err := tx.Where("spectator_id = ?", spectator.ID).Delete(&models.FilmReview{}).Error; err != nil {
			return fmt.Errorf("spectator service: delete film reviews: %w", err)
		}
		if err := tx.Where("spectator_id = ?", spectator.ID).Delete(&models.AuthorReview{}).Error; err != nil {
			return fmt.Errorf("spectator service: delete author reviews: %w", err)
		}
		if err := tx.Model(&spectator).Association("FavoriteFilms").Clear(); err != nil {
			return fmt.Errorf("spectator service: clear favourites: %w", err)
		}
		if err := tx.Delete(&spectator).Error; err != nil {
			return fmt.Errorf("spectator service: delete spectator: %w", err)
		}
		return nil
	})
}

// AddFavorite marks a film as one of the spectator's favourites. Adding the
// same film twice is a no-op.
func (s *SpectatorService) AddFavorite(ctx context.Context, spectatorID, filmID string) error {
	ctx = ensureContext(ctx)

	var spectator models.Spectator
	err := s.db.WithContext(ctx).Take(&spectator, "id = ?", spectatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSpectatorNotFound
	}
	if err != nil {
		return fmt.Errorf("spectator service: load spectator: %w", err)
	}

	var film models.Film
	err = s.db.WithContext(ctx).Take(&film, "id = ?", filmID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrFilmNotFound
	}
	if err != nil {
		return fmt.Errorf("spectator service: load film: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&spectator).Association("FavoriteFilms").Append(&film); err != nil {
		return fmt.Errorf("spectator service: add favourite: %w", err)
	}
	return nil
}

// ListFavorites returns the spectator's favourite films.
func (s *SpectatorService) ListFavorites(ctx context.Context, spectatorID string) ([]models.Film, error) {
	ctx = ensureContext(ctx)

	var spectator models.Spectator
	err := s.db.WithContext(ctx).Take(&spectator, "id = ?", spectatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSpectatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("spectator service: load spectator: %w", err)
	}

	var films []models.Film
	if err := s.db.WithContext(ctx).Model(&spectator).Association("FavoriteFilms").Find(&films); err != nil {
		return nil, fmt.Errorf("spectator service: list favourites: %w", err)
	}
	return films, nil
}

// RemoveFavorite drops a film from the spectator's favourites.
func (s *SpectatorService) RemoveFavorite(ctx context.Context, spectatorID, filmID string) error {
	ctx = ensureContext(ctx)

	var spectator models.Spectator
	err := s.db.WithContext(ctx).Take(&spectator, "id = ?", spectatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSpectatorNotFound
	}
	if err != nil {
		return fmt.Errorf("spectator service: load spectator: %w", err)
	}

	film := models.Film{BaseModel: models.BaseModel{ID: filmID}}
	if err := s.db.WithContext(ctx).Model(&spectator).Association("FavoriteFilms").Delete(&film); err != nil {
		return fmt.Errorf("spectator service: remove favourite: %w", err)
	}
	return nil
}
