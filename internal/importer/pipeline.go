// Package importer pulls popular movie metadata from TMDb into the catalog.
// Imports are idempotent: each external record maps to at most one local row,
// and re-running a completed import refreshes metadata instead of duplicating.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cinetheque/api/internal/cache"
	"github.com/cinetheque/api/internal/models"
	"github.com/cinetheque/api/internal/services"
	"github.com/cinetheque/api/internal/storage"
	"github.com/cinetheque/api/internal/tmdb"
	"github.com/cinetheque/api/pkg/logger"
	"github.com/cinetheque/api/pkg/metrics"
)

// Report summarises a completed import run.
type Report struct {
	Requested int
	Imported  int
	Skipped   int
}

// Importer drives the TMDb import pipeline.
type Importer struct {
	db      *gorm.DB
	api     tmdb.API
	films   *services.FilmService
	authors *services.AuthorService
	media   *storage.MediaStore
	lists   *cache.ListCache
	log     *zap.Logger
}

// New constructs an Importer. The list cache is optional; without one the run
// simply skips invalidation.
func New(db *gorm.DB, api tmdb.API, media *storage.MediaStore, lists *cache.ListCache) (*Importer, error) {
	if db == nil {
		return nil, errors.New("importer: db is required")
	}
	if api == nil {
		return nil, errors.New("importer: tmdb api is required")
	}
	if media == nil {
		return nil, errors.New("importer: media store is required")
	}

	films, err := services.NewFilmService(db)
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	authors, err := services.NewAuthorService(db, users)
	if err != nil {
		return nil, err
	}

	return &Importer{
		db:      db,
		api:     api,
		films:   films,
		authors: authors,
		media:   media,
		lists:   lists,
		log:     logger.WithModule("importer"),
	}, nil
}

// Run imports up to limit popular movies. A failing movie is skipped and the
// run continues. When the popular list itself cannot be fetched the run ends
// cleanly with nothing imported; the catalogue keeps serving what it has.
func (i *Importer) Run(ctx context.Context, limit int) (Report, error) {
	report := Report{}

	movies, err := i.api.PopularMovies(ctx, limit)
	if err != nil {
		i.log.Warn("popular movies unavailable, nothing imported", zap.Error(err))
		return report, nil
	}
	report.Requested = len(movies)

	for _, movie := range movies {
		if err := i.importMovie(ctx, movie); err != nil {
			report.Skipped++
			metrics.ImportedMovies.WithLabelValues("skipped").Inc()
			i.log.Warn("movie skipped",
				zap.Int64("tmdb_id", movie.ID),
				zap.String("title", movie.Title),
				zap.Error(err))
			continue
		}
		report.Imported++
		metrics.ImportedMovies.WithLabelValues("imported").Inc()
		i.log.Info("movie imported",
			zap.Int64("tmdb_id", movie.ID),
			zap.String("title", movie.Title))
	}

	if report.Imported > 0 && i.lists != nil {
		i.lists.Invalidate(ctx, cache.PrefixFilms)
		i.lists.Invalidate(ctx, cache.PrefixAuthors)
	}

	return report, nil
}

// importMovie runs the full pipeline for a single movie. Database changes are
// transactional; asset downloads happen after commit and never fail the movie.
func (i *Importer) importMovie(ctx context.Context, movie tmdb.Movie) error {
	if movie.ID <= 0 || strings.TrimSpace(movie.Title) == "" {
		return errors.New("missing id or title")
	}
	releaseDate, err := time.Parse("2006-01-02", movie.ReleaseDate)
	if err != nil {
		return errors.New("missing or invalid release date")
	}

	credits, err := i.api.MovieCredits(ctx, movie.ID)
	if err != nil {
		return fmt.Errorf("fetch credits: %w", err)
	}
	director := credits.Director()
	if director == nil {
		return errors.New("no director credited")
	}

	// Person details enrich the author profile but are best-effort: the crew
	// credit alone is enough to import.
	person := &tmdb.Person{
		ID:          director.ID,
		Name:        director.Name,
		ProfilePath: director.ProfilePath,
	}
	if details, err := i.api.PersonDetails(ctx, director.ID); err != nil {
		i.log.Debug("person details unavailable",
			zap.Int64("person_id", director.ID),
			zap.Error(err))
	} else {
		person = details
		if person.ProfilePath == "" {
			person.ProfilePath = director.ProfilePath
		}
	}

	var film *models.Film
	var author *models.Author
	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author, err = i.authors.UpsertByTMDBID(ctx, tx, services.UpsertAuthorInput{
			TMDBID:    person.ID,
			Name:      person.Name,
			Birthday:  person.Birthday,
			Biography: person.Biography,
		})
		if err != nil {
			return err
		}

		film, err = i.films.UpsertByTMDBID(ctx, tx, services.UpsertFilmInput{
			TMDBID:      movie.ID,
			Title:       movie.Title,
			Description: movie.Overview,
			ReleaseDate: releaseDate,
		})
		if err != nil {
			return err
		}

		return tx.Model(film).Association("Authors").Append(author)
	})
	if err != nil {
		return err
	}

	i.replacePoster(ctx, film, movie.PosterPath)
	i.replacePortrait(ctx, author, person.ProfilePath)
	return nil
}

// replacePoster re-fetches the film poster and swaps the stored file. Any
// failure leaves the film imported without a poster update.
func (i *Importer) replacePoster(ctx context.Context, film *models.Film, posterPath string) {
	if posterPath == "" {
		return
	}

	data, err := i.api.DownloadImage(ctx, posterPath)
	if err != nil {
		i.log.Warn("poster download failed",
			zap.String("film_id", film.ID),
			zap.Error(err))
		return
	}

	if film.PosterPath != "" {
		if err := i.media.Delete(film.PosterPath); err != nil {
			i.log.Warn("old poster delete failed",
				zap.String("path", film.PosterPath),
				zap.Error(err))
		}
	}

	name := fmt.Sprintf("poster_%s.jpg", storage.Slugify(film.Title))
	stored, err := i.media.Save(name, data)
	if err != nil {
		i.log.Warn("poster save failed", zap.String("film_id", film.ID), zap.Error(err))
		return
	}

	if err := i.films.SetPosterPath(ctx, nil, film.ID, stored); err != nil {
		i.log.Warn("poster path update failed", zap.String("film_id", film.ID), zap.Error(err))
	}
}

// replacePortrait re-fetches the director portrait and swaps the stored file.
func (i *Importer) replacePortrait(ctx context.Context, author *models.Author, profilePath string) {
	if profilePath == "" {
		return
	}

	data, err := i.api.DownloadImage(ctx, profilePath)
	if err != nil {
		i.log.Warn("portrait download failed",
			zap.String("author_id", author.ID),
			zap.Error(err))
		return
	}

	if author.PhotoPath != "" {
		if err := i.media.Delete(author.PhotoPath); err != nil {
			i.log.Warn("old portrait delete failed",
				zap.String("path", author.PhotoPath),
				zap.Error(err))
		}
	}

	name := portraitName(author)
	stored, err := i.media.Save(name, data)
	if err != nil {
		i.log.Warn("portrait save failed", zap.String("author_id", author.ID), zap.Error(err))
		return
	}

	if err := i.authors.SetPhotoPath(ctx, nil, author.ID, stored); err != nil {
		i.log.Warn("portrait path update failed", zap.String("author_id", author.ID), zap.Error(err))
	}
}

// portraitName derives the stored filename from the author's name, falling
// back to the username when both name parts are empty.
func portraitName(author *models.Author) string {
	first, last := "", ""
	if author.User != nil {
		first = storage.Slugify(author.User.FirstName)
		last = storage.Slugify(author.User.LastName)
	}

	switch {
	case first != "" && last != "":
		return fmt.Sprintf("author_%s_%s.jpg", first, last)
	case first != "":
		return fmt.Sprintf("author_%s.jpg", first)
	case last != "":
		return fmt.Sprintf("author_%s.jpg", last)
	default:
		username := ""
		if author.User != nil {
			username = storage.Slugify(author.User.Username)
		}
		if username == "" {
			username = storage.Slugify(author.ID)
		}
		return fmt.Sprintf("author_%s.jpg", username)
	}
}
