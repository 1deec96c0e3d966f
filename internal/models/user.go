package models

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex;uniqueIndex:idx_users_username_email;not null" json:"username"`
	Email     string    `gorm:"type:varchar(254);uniqueIndex;uniqueIndex:idx_users_username_email;not null" json:"email"`
	Role      Role      `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	Bio       string    `gorm:"type:text" json:"bio"`
	FirstName string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(150)" json:"last_name"`
	IsStaff   bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// IsAdmin is true for the admin role and for staff accounts regardless of role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsStaff
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}
