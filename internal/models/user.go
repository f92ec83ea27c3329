package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "EMPLOYEE"

	AuthTypeLocal = "local"
	AuthTypeLDAP  = "ldap"
)

// Role is a named permission group. Users may hold several.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:50;not null" json:"name"`
}

func (Role) TableName() string { return "roles" }

// User is an employee or administrator.
type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"size:100;not null" json:"name"`
	Email           string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone           string         `gorm:"size:50" json:"phone"`
	DOB             *time.Time     `json:"dob,omitempty"`
	HourlyRateCents int64          `gorm:"not null;default:0" json:"hourly_rate_cents"`
	Verified        bool           `gorm:"default:false" json:"verified"`
	InvoiceCount    int            `gorm:"not null;default:0" json:"invoice_count"`
	Password        string         `gorm:"size:255" json:"-"` // empty for LDAP users
	AuthType        string         `gorm:"size:20;default:local" json:"auth_type"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	LastLogin       *time.Time     `json:"last_login,omitempty"`
	Roles           []Role         `gorm:"many2many:user_roles;" json:"roles,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// HasRole reports whether the user holds the named role. Roles must be preloaded.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames lists the preloaded role names.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
