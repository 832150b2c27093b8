package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cinetheque/api/internal/models"
	apperrors "github.com/cinetheque/api/pkg/errors"
)

var (
	// ErrAuthorNotFound indicates the requested author does not exist.
	ErrAuthorNotFound = apperrors.New("AUTHOR_NOT_FOUND", "Author not found", http.StatusNotFound)
	// ErrAuthorHasFilms blocks deleting an author still linked to films.
	ErrAuthorHasFilms = apperrors.NewConflict("AUTHOR_HAS_FILMS", "Author is still associated with films")
)

// CreateAuthorInput describes an author profile creation, including the
// backing user account.
type CreateAuthorInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth string
	Bio         string
}

// UpdateAuthorInput enumerates mutable author attributes.
type UpdateAuthorInput struct {
	FirstName   *string
	LastName    *string
	DateOfBirth *string
	Bio         *string
}

// ListAuthorsOptions controls pagination and search for author listings.
type ListAuthorsOptions struct {
	Page     int
	PageSize int
	Search   string
	Source   string
}

// AuthorWithRating pairs an author with its review aggregate.
type AuthorWithRating struct {
	models.Author
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
	FilmCount     int64   `json:"film_count"`
}

// UpsertAuthorInput carries external person metadata for idempotent imports.
type UpsertAuthorInput struct {
	TMDBID      int64
	Name        string
	Birthday    string
	Biography   string
}

// AuthorService manages director profiles and their user accounts.
type AuthorService struct {
	db    *gorm.DB
	users *UserService
}

// NewAuthorService constructs an AuthorService instance.
func NewAuthorService(db *gorm.DB, users *UserService) (*AuthorService, error) {
	if db == nil {
		return nil, errors.New("author service: db is required")
	}
	if users == nil {
		return nil, errors.New("author service: user service is required")
	}
	return &AuthorService{db: db, users: users}, nil
}

// List returns a page of authors with their aggregates and the total count.
func (s *AuthorService) List(ctx context.Context, opts ListAuthorsOptions) ([]AuthorWithRating, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize := normalisePagination(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.Author{})

	if source := strings.TrimSpace(opts.Source); source != "" {
		query = query.Where("source = ?", source)
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.
			Joins("JOIN users ON users.id = authors.user_id").
			Where("LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.username) LIKE ?",
				like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("author service: count authors: %w", err)
	}

	var authors []models.Author
	err := query.
		Preload("User").
		Order("authors.created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&authors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("author service: list authors: %w", err)
	}

	results, err := s.attachAggregates(ctx, authors)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// Get loads an author with user, films and aggregates.
func (s *AuthorService) Get(ctx context.Context, id string) (*AuthorWithRating, error) {
	ctx = ensureContext(ctx)

	var author models.Author
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Films").
		Take(&author, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("author service: load author: %w", err)
	}

	results, err := s.attachAggregates(ctx, []models.Author{author})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// GetByUserID loads the author profile attached to a user account.
func (s *AuthorService) GetByUserID(ctx context.Context, userID string) (*models.Author, error) {
	ctx = ensureContext(ctx)

	var author models.Author
	err := s.db.WithContext(ctx).Preload("User").Take(&author, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("author service: load author: %w", err)
	}
	return &author, nil
}

// Create provisions an author profile along with its user account.
func (s *AuthorService) Create(ctx context.Context, input CreateAuthorInput) (*models.Author, error) {
	ctx = ensureContext(ctx)

	var dateOfBirth *time.Time
	if strings.TrimSpace(input.DateOfBirth) != "" {
		parsed, ok := parseDate(input.DateOfBirth)
		if !ok {
			return nil, apperrors.NewBadRequest("date_of_birth must be YYYY-MM-DD")
		}
		dateOfBirth = &parsed
	}

	var author *models.Author
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
			Role:      models.RoleAuthor,
		})
		if err != nil {
			return err
		}

		author = &models.Author{
			UserID:      user.ID,
			User:        user,
			DateOfBirth: dateOfBirth,
			Bio:         strings.TrimSpace(input.Bio),
			Source:      models.SourceAdmin,
		}
		return tx.Omit("User").Create(author).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("author service: create author: %w", err)
	}

	return author, nil
}

// Update applies partial changes to an author profile and its user.
func (s *AuthorService) Update(ctx context.Context, id string, input UpdateAuthorInput) (*models.Author, error) {
	ctx = ensureContext(ctx)

	var author models.Author
	err := s.db.WithContext(ctx).Preload("User").Take(&author, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("author service: load author: %w", err)
	}

	if input.DateOfBirth != nil {
		if strings.TrimSpace(*input.DateOfBirth) == "" {
			author.DateOfBirth = nil
		} else {
			parsed, ok := parseDate(*input.DateOfBirth)
			if !ok {
				return nil, apperrors.NewBadRequest("date_of_birth must be YYYY-MM-DD")
			}
			author.DateOfBirth = &parsed
		}
	}
	if input.Bio != nil {
		author.Bio = strings.TrimSpace(*input.Bio)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Save(&author).Error; err != nil {
			return err
		}
		if author.User != nil && (input.FirstName != nil || input.LastName != nil) {
			if input.FirstName != nil {
				author.User.FirstName = strings.TrimSpace(*input.FirstName)
			}
			if input.LastName != nil {
				author.User.LastName = strings.TrimSpace(*input.LastName)
			}
			return tx.Save(author.User).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("author service: update author: %w", err)
	}

	return &author, nil
}

// Delete removes an author profile. An author still linked to films cannot be
// deleted; the films must be reassigned or removed first.
func (s *AuthorService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author models.Author
		err := tx.Take(&author, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAuthorNotFound
		}
		if err != nil {
			return fmt.Errorf("author service: load author: %w", err)
		}

		filmCount := tx.Model(&author).Association("Films").Count()
		if filmCount > 0 {
			return ErrAuthorHasFilms
		}

		if err := tx.Where("author_id = ?", author.ID).Delete(&models.AuthorReview{}).Error; err != nil {
			return fmt.Errorf("author service: delete reviews: %w", err)
		}
		if err := tx.Delete(&author).Error; err != nil {
			return fmt.Errorf("author service: delete author: %w", err)
		}
		return nil
	})
}

// UpsertByTMDBID inserts or refreshes an imported director. The backing user
// account uses a synthetic username derived from the external identifier, so
// repeated imports land on the same row. The caller is expected to run this
// inside a transaction.
func (s *AuthorService) UpsertByTMDBID(ctx context.Context, tx *gorm.DB, input UpsertAuthorInput) (*models.Author, error) {
	ctx = ensureContext(ctx)
	if tx == nil {
		tx = s.db
	}
	if input.TMDBID <= 0 {
		return nil, apperrors.NewBadRequest("tmdb id must be positive")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	firstName, lastName := splitName(name)
	bio := truncateBio(input.Biography)

	var dateOfBirth *time.Time
	if parsed, ok := parseDate(input.Birthday); ok {
		dateOfBirth = &parsed
	}

	lookup := tx.WithContext(ctx)
	// SQLite serialises writers on its own and rejects FOR UPDATE.
	if tx.Dialector != nil && tx.Dialector.Name() != "sqlite" {
		lookup = lookup.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var author models.Author
	err := lookup.Preload("User").Take(&author, "tmdb_id = ?", input.TMDBID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("author service: lookup imported author: %w", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		username := fmt.Sprintf("tmdb_%d", input.TMDBID)
		user := &models.User{
			Username:  username,
			Email:     username + "@import.cinetheque.local",
			FirstName: firstName,
			LastName:  lastName,
			Role:      models.RoleAuthor,
			IsActive:  false,
		}
		if err := tx.WithContext(ctx).Create(user).Error; err != nil {
			return nil, fmt.Errorf("author service: create imported user: %w", err)
		}

		tmdbID := input.TMDBID
		author = models.Author{
			UserID:      user.ID,
			User:        user,
			DateOfBirth: dateOfBirth,
			Bio:         bio,
			TMDBID:      &tmdbID,
			Source:      models.SourceTMDB,
		}
		if err := tx.WithContext(ctx).Omit("User").Create(&author).Error; err != nil {
			return nil, fmt.Errorf("author service: create imported author: %w", err)
		}
		return &author, nil
	}

	author.Bio = bio
	// A birthday that no longer parses clears the stored date, mirroring the
	// refresh-everything semantics of the import.
	author.DateOfBirth = dateOfBirth
	if err := tx.WithContext(ctx).Omit("User").Save(&author).Error; err != nil {
		return nil, fmt.Errorf("author service: refresh imported author: %w", err)
	}
	if author.User != nil {
		author.User.FirstName = firstName
		author.User.LastName = lastName
		if err := tx.WithContext(ctx).Save(author.User).Error; err != nil {
			return nil, fmt.Errorf("author service: refresh imported user: %w", err)
		}
	}
	return &author, nil
}

// SetPhotoPath records the stored portrait location for an author.
func (s *AuthorService) SetPhotoPath(ctx context.Context, tx *gorm.DB, authorID, path string) error {
	ctx = ensureContext(ctx)
	if tx == nil {
		tx = s.db
	}
	return tx.WithContext(ctx).
		Model(&models.Author{}).
		Where("id = ?", authorID).
		Update("photo_path", path).Error
}

// maxImportedBioLen caps biographies coming from the external catalogue.
const maxImportedBioLen = 1000

// splitName separates a display name on the first whitespace run: the first
// word becomes the first name, the remainder the last name.
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func truncateBio(bio string) string {
	runes := []rune(bio)
	if len(runes) <= maxImportedBioLen {
		return bio
	}
	return string(runes[:maxImportedBioLen])
}

// attachAggregates decorates authors with review and film aggregates.
func (s *AuthorService) attachAggregates(ctx context.Context, authors []models.Author) ([]AuthorWithRating, error) {
	results := make([]AuthorWithRating, len(authors))
	if len(authors) == 0 {
		return results, nil
	}

	ids := make([]string, len(authors))
	for i := range authors {
		ids[i] = authors[i].ID
		results[i] = AuthorWithRating{Author: authors[i]}
	}

	type reviewAggregate struct {
		AuthorID string
		Average  float64
		Count    int64
	}
	var reviewRows []reviewAggregate
	err := s.db.WithContext(ctx).
		Model(&models.AuthorReview{}).
		Select("author_id, AVG(rating) AS average, COUNT(*) AS count").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&reviewRows).Error
	if err != nil {
		return nil, fmt.Errorf("author service: aggregate reviews: %w", err)
	}

	type filmAggregate struct {
		AuthorID string
		Count    int64
	}
	var filmRows []filmAggregate
	err = s.db.WithContext(ctx).
		Table("film_authors").
		Select("author_id, COUNT(*) AS count").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&filmRows).Error
	if err != nil {
		return nil, fmt.Errorf("author service: aggregate films: %w", err)
	}

	reviewsByAuthor := make(map[string]reviewAggregate, len(reviewRows))
	for _, row := range reviewRows {
		reviewsByAuthor[row.AuthorID] = row
	}
	filmsByAuthor := make(map[string]int64, len(filmRows))
	for _, row := range filmRows {
		filmsByAuthor[row.AuthorID] = row.Count
	}

	for i := range results {
		if agg, ok := reviewsByAuthor[results[i].ID]; ok {
			results[i].AverageRating = agg.Average
			results[i].ReviewCount = agg.Count
		}
		results[i].FilmCount = filmsByAuthor[results[i].ID]
	}
	return results, nil
}
