package models

import (
	"time"
)

// Author is a director profile attached to a user account.
type Author struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   *User  `json:"user,omitempty"`

	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Bio         string     `gorm:"type:text" json:"bio"`

	TMDBID    *int64 `gorm:"column:tmdb_id;uniqueIndex" json:"tmdb_id,omitempty"`
	Source    string `gorm:"type:varchar(10);not null;default:ADMIN" json:"source"`
	PhotoPath string `gorm:"type:varchar(512)" json:"photo_path,omitempty"`

	Films   []Film         `gorm:"many2many:film_authors;" json:"films,omitempty"`
	Reviews []AuthorReview `gorm:"foreignKey:AuthorID" json:"-"`
}
