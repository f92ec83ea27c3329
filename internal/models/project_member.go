package models

import "time"

const (
	MemberRoleManager    = "MANAGER"
	MemberRoleAdmin      = "ADMIN"
	MemberRoleSupervisor = "SUPERVISOR"
	MemberRoleEmployee   = "EMPLOYEE"
)

// ValidMemberRole reports whether r is a known project member role.
func ValidMemberRole(r string) bool {
	switch r {
	case MemberRoleManager, MemberRoleAdmin, MemberRoleSupervisor, MemberRoleEmployee:
		return true
	}
	return false
}

// ProjectMember links a user to a project with a role on that project.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string    `gorm:"size:20;default:EMPLOYEE" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMember) TableName() string { return "project_members" }
