package models

import (
	"strings"
)

// User roles recognised by the application.
const (
	RoleAdmin     = "admin"
	RoleAuthor    = "author"
	RoleSpectator = "spectator"
)

// User describes an account. Imported directors get a synthetic user with no
// usable password.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Role string `gorm:"type:varchar(20);not null;default:spectator;index" json:"role"`

	// No column default here: gorm drops zero-valued fields that carry one,
	// which would silently activate imported accounts. Callers set it.
	IsActive bool `gorm:"not null" json:"is_active"`
}

// FullName returns "First Last" falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
