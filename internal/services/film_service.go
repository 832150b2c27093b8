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
	// ErrFilmNotFound indicates the requested film does not exist.
	ErrFilmNotFound = apperrors.New("FILM_NOT_FOUND", "Film not found", http.StatusNotFound)
	// ErrFilmAlreadyArchived rejects archiving a film twice.
	ErrFilmAlreadyArchived = apperrors.NewConflict("FILM_ALREADY_ARCHIVED", "Film is already archived")
)

// CreateFilmInput describes the fields accepted when creating a film.
type CreateFilmInput struct {
	Title       string
	Description string
	ReleaseDate string
	Evaluation  string
	Status      string
	AuthorIDs   []string
}

// UpdateFilmInput enumerates mutable film attributes.
type UpdateFilmInput struct {
	Title       *string
	Description *string
	ReleaseDate *string
	Evaluation  *string
	Status      *string
	AuthorIDs   []string
}

// FilmFilters captures listing filters.
type FilmFilters struct {
	Status     string
	Evaluation string
	Source     string
	Search     string
}

// ListFilmsOptions controls filtering, ordering and pagination for listings.
type ListFilmsOptions struct {
	Page     int
	PageSize int
	Ordering string
	Filters  FilmFilters
}

// FilmWithRating pairs a film with its review aggregate.
type FilmWithRating struct {
	models.Film
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// UpsertFilmInput carries the external metadata used for idempotent imports.
type UpsertFilmInput struct {
	TMDBID      int64
	Title       string
	Description string
	ReleaseDate time.Time
}

// FilmService manages the CRUD lifecycle of catalog films.
type FilmService struct {
	db *gorm.DB
}

// NewFilmService constructs a FilmService instance.
func NewFilmService(db *gorm.DB) (*FilmService, error) {
	if db == nil {
		return nil, errors.New("film service: db is required")
	}
	return &FilmService{db: db}, nil
}

// filmOrderings whitelists the sortable columns exposed by the API. Rating
// sorts on the review average; films without reviews sort as NULL.
var filmOrderings = map[string]string{
	"title":        "title",
	"release_date": "release_date",
	"created_at":   "created_at",
	"rating":       "(SELECT AVG(rating) FROM film_reviews WHERE film_reviews.film_id = films.id)",
}

// List returns a page of films matching the filters, each with its review
// aggregate, plus the total match count.
func (s *FilmService) List(ctx context.Context, opts ListFilmsOptions) ([]FilmWithRating, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize := normalisePagination(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.Film{})

	if status := strings.TrimSpace(opts.Filters.Status); status != "" {
		if !models.ValidFilmStatus(status) {
			return nil, 0, apperrors.NewBadRequest("unknown status filter")
		}
		query = query.Where("status = ?", status)
	}
	if evaluation := strings.TrimSpace(opts.Filters.Evaluation); evaluation != "" {
		if !models.ValidEvaluation(evaluation) {
			return nil, 0, apperrors.NewBadRequest("unknown evaluation filter")
		}
		query = query.Where("evaluation = ?", evaluation)
	}
	if source := strings.TrimSpace(opts.Filters.Source); source != "" {
		query = query.Where("source = ?", source)
	}
	if search := strings.TrimSpace(opts.Filters.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("film service: count films: %w", err)
	}

	order := "created_at DESC"
	if raw := strings.TrimSpace(opts.Ordering); raw != "" {
		direction := "ASC"
		column := raw
		if strings.HasPrefix(raw, "-") {
			direction = "DESC"
			column = raw[1:]
		}
		mapped, ok := filmOrderings[column]
		if !ok {
			return nil, 0, apperrors.NewBadRequest("unknown ordering field")
		}
		order = mapped + " " + direction
	}

	var films []models.Film
	err := query.
		Preload("Authors").
		Preload("Authors.User").
		Order(order).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&films).Error
	if err != nil {
		return nil, 0, fmt.Errorf("film service: list films: %w", err)
	}

	results, err := s.attachRatings(ctx, films)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// Get loads a film with its authors and review aggregate.
func (s *FilmService) Get(ctx context.Context, id string) (*FilmWithRating, error) {
	ctx = ensureContext(ctx)

	var film models.Film
	err := s.db.WithContext(ctx).
		Preload("Authors").
		Preload("Authors.User").
		Take(&film, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFilmNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("film service: load film: %w", err)
	}

	results, err := s.attachRatings(ctx, []models.Film{film})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// Create inserts a new catalog film.
func (s *FilmService) Create(ctx context.Context, input CreateFilmInput) (*models.Film, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	releaseDate, ok := parseDate(input.ReleaseDate)
	if !ok {
		return nil, apperrors.NewBadRequest("release_date must be YYYY-MM-DD")
	}

	evaluation := strings.TrimSpace(input.Evaluation)
	if evaluation == "" {
		evaluation = models.EvaluationG
	}
	if !models.ValidEvaluation(evaluation) {
		return nil, apperrors.NewBadRequest("unknown evaluation")
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = models.FilmStatusDraft
	}
	if !models.ValidFilmStatus(status) {
		return nil, apperrors.NewBadRequest("unknown status")
	}

	film := &models.Film{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		ReleaseDate: releaseDate,
		Evaluation:  evaluation,
		Status:      status,
		Source:      models.SourceAdmin,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(film).Error; err != nil {
			return err
		}
		return replaceFilmAuthors(tx, film, input.AuthorIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("film service: create film: %w", err)
	}

	return film, nil
}

// Update applies partial changes to a film.
func (s *FilmService) Update(ctx context.Context, id string, input UpdateFilmInput) (*models.Film, error) {
	ctx = ensureContext(ctx)

	var film models.Film
	err := s.db.WithContext(ctx).Take(&film, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFilmNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("film service: load film: %w", err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("title must not be empty")
		}
		film.Title = title
	}
	if input.Description != nil {
		film.Description = strings.TrimSpace(*input.Description)
	}
	if input.ReleaseDate != nil {
		releaseDate, ok := parseDate(*input.ReleaseDate)
		if !ok {
			return nil, apperrors.NewBadRequest("release_date must be YYYY-MM-DD")
		}
		film.ReleaseDate = releaseDate
	}
	if input.Evaluation != nil {
		if !models.ValidEvaluation(*input.Evaluation) {
			return nil, apperrors.NewBadRequest("unknown evaluation")
		}
		film.Evaluation = *input.Evaluation
	}
	if input.Status != nil {
		if !models.ValidFilmStatus(*input.Status) {
			return nil, apperrors.NewBadRequest("unknown status")
		}
		film.Status = *input.Status
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&film).Error; err != nil {
			return err
		}
		if input.AuthorIDs != nil {
			return replaceFilmAuthors(tx, &film, input.AuthorIDs)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("film service: update film: %w", err)
	}

	return &film, nil
}

// Delete removes a film along with its reviews and author links.
func (s *FilmService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var film models.Film
		err := tx.Take(&film, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFilmNotFound
		}
		if err != nil {
			return fmt.Errorf("film service: load film: %w", err)
		}

		if err := tx.Where("film_id = ?", film.ID).Delete(&models.FilmReview{}).Error; err != nil {
			return fmt.Errorf("film service: delete reviews: %w", err)
		}
		if err := tx.Model(&film).Association("Authors").Clear(); err != nil {
			return fmt.Errorf("film service: clear authors: %w", err)
		}
		if err := tx.Delete(&film).Error; err != nil {
			return fmt.Errorf("film service: delete film: %w", err)
		}
		return nil
	})
}

// Archive transitions a film to the archived status. Archiving an archived
// film is a conflict; any other status may be archived.
func (s *FilmService) Archive(ctx context.Context, id string) (*models.Film, error) {
	ctx = ensureContext(ctx)

	var film models.Film
	err := s.db.WithContext(ctx).Take(&film, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFilmNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("film service: load film: %w", err)
	}

	if film.Status == models.FilmStatusArchived {
		return nil, ErrFilmAlreadyArchived
	}

	film.Status = models.FilmStatusArchived
	if err := s.db.WithContext(ctx).Save(&film).Error; err != nil {
		return nil, fmt.Errorf("film service: archive film: %w", err)
	}
	return &film, nil
}

// AddDirector links an author to a film, ignoring an existing link.
func (s *FilmService) AddDirector(ctx context.Context, filmID, authorID string) error {
	return addDirector(ensureContext(ctx), s.db, filmID, authorID)
}

func addDirector(ctx context.Context, db *gorm.DB, filmID, authorID string) error {
	var film models.Film
	err := db.WithContext(ctx).Take(&film, "id = ?", filmID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrFilmNotFound
	}
	if err != nil {
		return fmt.Errorf("film service: load film: %w", err)
	}

	var author models.Author
	err = db.WithContext(ctx).Take(&author, "id = ?", authorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAuthorNotFound
	}
	if err != nil {
		return fmt.Errorf("film service: load author: %w", err)
	}

	if err := db.WithContext(ctx).Model(&film).Association("Authors").Append(&author); err != nil {
		return fmt.Errorf("film service: link author: %w", err)
	}
	return nil
}

// UpsertByTMDBID inserts or refreshes an imported film, keyed on the external
// identifier. Repeated imports update metadata in place and never duplicate
// rows. The caller is expected to run this inside a transaction.
func (s *FilmService) UpsertByTMDBID(ctx context.Context, tx *gorm.DB, input UpsertFilmInput) (*models.Film, error) {
	ctx = ensureContext(ctx)
	if tx == nil {
		tx = s.db
	}
	if input.TMDBID <= 0 {
		return nil, apperrors.NewBadRequest("tmdb id must be positive")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	lookup := tx.WithContext(ctx)
	// SQLite serialises writers on its own and rejects FOR UPDATE.
	if tx.Dialector != nil && tx.Dialector.Name() != "sqlite" {
		lookup = lookup.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var film models.Film
	err := lookup.Take(&film, "tmdb_id = ?", input.TMDBID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("film service: lookup imported film: %w", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		tmdbID := input.TMDBID
		film = models.Film{
			Title:       strings.TrimSpace(input.Title),
			Description: input.Description,
			ReleaseDate: input.ReleaseDate,
			Evaluation:  models.EvaluationG,
			Status:      models.FilmStatusPublished,
			TMDBID:      &tmdbID,
			Source:      models.SourceTMDB,
		}
		if err := tx.WithContext(ctx).Create(&film).Error; err != nil {
			return nil, fmt.Errorf("film service: create imported film: %w", err)
		}
		return &film, nil
	}

	film.Title = strings.TrimSpace(input.Title)
	film.Description = input.Description
	film.ReleaseDate = input.ReleaseDate
	if err := tx.WithContext(ctx).Save(&film).Error; err != nil {
		return nil, fmt.Errorf("film service: refresh imported film: %w", err)
	}
	return &film, nil
}

// SetPosterPath records the stored poster location for a film.
func (s *FilmService) SetPosterPath(ctx context.Context, tx *gorm.DB, filmID, path string) error {
	ctx = ensureContext(ctx)
	if tx == nil {
		tx = s.db
	}
	return tx.WithContext(ctx).
		Model(&models.Film{}).
		Where("id = ?", filmID).
		Update("poster_path", path).Error
}

func replaceFilmAuthors(tx *gorm.DB, film *models.Film, authorIDs []string) error {
	if authorIDs == nil {
		return nil
	}

	var authors []models.Author
	if len(authorIDs) > 0 {
		if err := tx.Where("id IN ?", authorIDs).Find(&authors).Error; err != nil {
			return fmt.Errorf("load authors: %w", err)
		}
		if len(authors) != len(authorIDs) {
			return apperrors.NewBadRequest("one or more authors do not exist")
		}
	}

	refs := make([]any, len(authors))
	for i := range authors {
		refs[i] = &authors[i]
	}
	if err := tx.Model(film).Association("Authors").Replace(refs...); err != nil {
		return fmt.Errorf("replace authors: %w", err)
	}
	return nil
}

// attachRatings decorates films with their average rating and review count.
func (s *FilmService) attachRatings(ctx context.Context, films []models.Film) ([]FilmWithRating, error) {
	results := make([]FilmWithRating, len(films))
	if len(films) == 0 {
		return results, nil
	}

	ids := make([]string, len(films))
	for i := range films {
		ids[i] = films[i].ID
		results[i] = FilmWithRating{Film: films[i]}
	}

	type aggregate struct {
		FilmID  string
		Average float64
		Count   int64
	}
	var rows []aggregate
	err := s.db.WithContext(ctx).
		Model(&models.FilmReview{}).
		Select("film_id, AVG(rating) AS average, COUNT(*) AS count").
		Where("film_id IN ?", ids).
		Group("film_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("film service: aggregate ratings: %w", err)
	}

	byFilm := make(map[string]aggregate, len(rows))
	for _, row := range rows {
		byFilm[row.FilmID] = row
	}
	for i := range results {
		if agg, ok := byFilm[results[i].ID]; ok {
			results[i].AverageRating = agg.Average
			results[i].ReviewCount = agg.Count
		}
	}
	return results, nil
}
