package models

// FilmReview is a spectator's rating of a film. One review per (film, spectator).
type FilmReview struct {
	BaseModel

	FilmID      string `gorm:"type:uuid;not null;uniqueIndex:idx_film_review_once,priority:1" json:"film_id"`
	SpectatorID string `gorm:"type:uuid;not null;uniqueIndex:idx_film_review_once,priority:2" json:"spectator_id"`

	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `gorm:"type:text" json:"comment"`

	Film      *Film      `json:"-"`
	Spectator *Spectator `json:"-"`
}

// AuthorReview is a spectator's rating of an author. One review per (author, spectator).
type AuthorReview struct {
	BaseModel

	AuthorID    string `gorm:"type:uuid;not null;uniqueIndex:idx_author_review_once,priority:1" json:"author_id"`
	SpectatorID string `gorm:"type:uuid;not null;uniqueIndex:idx_author_review_once,priority:2" json:"spectator_id"`

	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `gorm:"type:text" json:"comment"`

	Author    *Author    `json:"-"`
	Spectator *Spectator `json:"-"`
}

// ValidRating reports whether r falls in the accepted 1..5 range.
func ValidRating(r int) bool {
	return r >= 1 && r <= 5
}
