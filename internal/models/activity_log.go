package models

import "time"

const (
	LogActionCreate = "create"
	LogActionUpdate = "update"
	LogActionDelete = "delete"

	LogTypeShift   = "shift"
	LogTypeProject = "project"
	LogTypeUser    = "user"
)

// LogMeta classifies an activity log entry.
type LogMeta struct {
	Action string `json:"action"`
	Type   string `json:"type"`
}

// ActivityLog is an append-only record of a user-visible event.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProjectID *uint     `gorm:"index" json:"project_id,omitempty"`
	Message   string    `gorm:"size:500;not null" json:"message"`
	Meta      LogMeta   `gorm:"serializer:json;type:text" json:"meta"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
