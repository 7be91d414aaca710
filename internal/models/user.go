package models

import (
	"time"

	"gorm.io/gorm"
)

// UserAuth represents an operator account. Admin commands require an active
// session for a user with the admin role.
type UserAuth struct {
	ID        string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username  string     `gorm:"unique;not null" json:"username"`
	Password  string     `gorm:"not null" json:"-"`
	Name      string     `json:"name,omitempty"`
	Role      string     `gorm:"default:'operator'" json:"role"` // operator | admin
	IsActive  bool       `gorm:"default:true" json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for UserAuth model
func (UserAuth) TableName() string {
	return "user_auths"
}

// IsAdmin reports whether the user may execute admin commands.
func (u *UserAuth) IsAdmin() bool {
	return u.IsActive && u.Role == "admin"
}
