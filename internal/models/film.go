package models

import (
	"time"
)

// Film publication statuses.
const (
	FilmStatusDraft     = "draft"
	FilmStatusPublished = "published"
	FilmStatusArchived  = "archived"
)

// Audience evaluations, mirroring the MPA ratings used by the catalog.
const (
	EvaluationG    = "G"
	EvaluationPG   = "PG"
	EvaluationPG13 = "PG-13"
	EvaluationR    = "R"
	EvaluationNC17 = "NC-17"
)

// Entity sources: created through the admin API or imported from TMDb.
const (
	SourceAdmin = "ADMIN"
	SourceTMDB  = "TMDB"
)

// Film is a catalog entry, optionally linked to a TMDb record.
type Film struct {
	BaseModel

	Title       string    `gorm:"type:varchar(255);not null;index" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ReleaseDate time.Time `gorm:"index" json:"release_date"`
	Evaluation  string    `gorm:"type:varchar(10);not null;default:G" json:"evaluation"`
	Status      string    `gorm:"type:varchar(20);not null;default:draft;index" json:"status"`

	TMDBID     *int64 `gorm:"column:tmdb_id;uniqueIndex" json:"tmdb_id,omitempty"`
	Source     string `gorm:"type:varchar(10);not null;default:ADMIN" json:"source"`
	PosterPath string `gorm:"type:varchar(512)" json:"poster_path,omitempty"`

	Authors []Author     `gorm:"many2many:film_authors;" json:"authors,omitempty"`
	Reviews []FilmReview `gorm:"foreignKey:FilmID" json:"-"`
}

// ValidFilmStatus reports whether s is a recognised publication status.
func ValidFilmStatus(s string) bool {
	switch s {
	case FilmStatusDraft, FilmStatusPublished, FilmStatusArchived:
		return true
	}
	return false
}

// ValidEvaluation reports whether e is a recognised audience evaluation.
func ValidEvaluation(e string) bool {
	switch e {
	case EvaluationG, EvaluationPG, EvaluationPG13, EvaluationR, EvaluationNC17:
		return true
	}
	return false
}
