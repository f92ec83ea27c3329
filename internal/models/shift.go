package models

import "time"

// ActiveShift is an open clock-in. It is deleted when the user clocks out.
type ActiveShift struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_active_user_project;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProjectID uint      `gorm:"uniqueIndex:idx_active_user_project;not null" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Start     time.Time `gorm:"column:started_at;not null" json:"start"`
	CreatedAt time.Time `json:"created_at"`
}

func (ActiveShift) TableName() string { return "active_shifts" }

// CompletedShift is an immutable record of worked time.
// Date is the clock-out instant and decides which invoice window a shift falls in.
type CompletedShift struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Start     time.Time `gorm:"column:started_at;not null" json:"start"`
	End       time.Time `gorm:"column:ended_at;not null" json:"end"`
	Date      time.Time `gorm:"column:shift_date;index;not null" json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

func (CompletedShift) TableName() string { return "completed_shifts" }
