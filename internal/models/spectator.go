package models

// Favourite genres a spectator can declare.
var SpectatorGenres = []string{
	"action", "comedy", "drama", "horror", "scifi",
	"romance", "thriller", "animation", "documentary", "fantasy",
}

// Spectator is a viewer profile attached to a user account.
type Spectator struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   *User  `json:"user,omitempty"`

	FavoriteGenre string `gorm:"type:varchar(20);index" json:"favorite_genre"`
	Bio           string `gorm:"type:text" json:"bio"`
	AvatarPath    string `gorm:"type:varchar(512)" json:"avatar_path,omitempty"`

	FavoriteFilms []Film `gorm:"many2many:spectator_favorite_films;" json:"favorite_films,omitempty"`
}

// ValidGenre reports whether g is one of the recognised genres.
func ValidGenre(g string) bool {
	if g == "" {
		return true
	}
	for _, genre := range SpectatorGenres {
		if genre == g {
			return true
		}
	}
	return false
}
