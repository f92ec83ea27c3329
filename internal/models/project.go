package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProjectStatusActive   = "ACTIVE"
	ProjectStatusInactive = "INACTIVE"
	ProjectStatusArchived = "ARCHIVED"
)

// ValidProjectStatus reports whether s is a known project status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusInactive, ProjectStatusArchived:
		return true
	}
	return false
}

type Address struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Street  string `gorm:"size:255" json:"street"`
	City    string `gorm:"size:100" json:"city"`
	State   string `gorm:"size:100" json:"state"`
	Zip     string `gorm:"size:20" json:"zip"`
	Country string `gorm:"size:100" json:"country"`
}

func (Address) TableName() string { return "addresses" }

// Project is a work site or engagement employees clock in to.
type Project struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	StartDate *time.Time      `json:"start_date,omitempty"`
	Status    string          `gorm:"size:20;default:ACTIVE;index" json:"status"`
	AddressID *uint           `json:"address_id,omitempty"`
	Address   *Address        `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Members   []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }
