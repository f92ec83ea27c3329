package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/pkg/logger"
	"gorm.io/gorm"
)

type ProjectService struct {
	db   *gorm.DB
	logs *ActivityLogService
}

func NewProjectService(db *gorm.DB, logs *ActivityLogService) *ProjectService {
	return &ProjectService{db: db, logs: logs}
}

type ProjectListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Name     string `form:"name"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type AddressInput struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type CreateProjectRequest struct {
	Name      string        `json:"name" binding:"required,max=255"`
	StartDate string        `json:"start_date"` // YYYY-MM-DD
	Status    string        `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
	Address   *AddressInput `json:"address"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE ARCHIVED"`
}

type AddMemberRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"omitempty,oneof=MANAGER ADMIN SUPERVISOR EMPLOYEE"`
}

func (s *ProjectService) logProjectEvent(ctx context.Context, actorID, projectID uint, action, message string) {
	if s.logs == nil || actorID == 0 {
		return
	}
	if _, err := s.logs.RecordProjectEvent(ctx, actorID, projectID, action, message); err != nil {
		logger.Warn().Err(err).Uint("project_id", projectID).Msg("failed to record project activity log")
	}
}

// Create stores a project and its address together.
func (s *ProjectService) Create(ctx context.Context, req *CreateProjectRequest, actorID uint) (*models.Project, error) {
	status := req.Status
	if status == "" {
		status = models.ProjectStatusActive
	}
	if !models.ValidProjectStatus(status) {
		return nil, &ValidationError{Field: "status", Message: "unknown status"}
	}

	project := &models.Project{Name: strings.TrimSpace(req.Name), Status: status}
	if req.StartDate != "" {
		d, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return nil, &ValidationError{Field: "start_date", Message: "must be a YYYY-MM-DD date"}
		}
		project.StartDate = &d
	}

	err := models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		if req.Address != nil {
			addr := &models.Address{
				Street:  req.Address.Street,
				City:    req.Address.City,
				State:   req.Address.State,
				Zip:     req.Address.Zip,
				Country: req.Address.Country,
			}
			if err := tx.Create(addr).Error; err != nil {
				return persistence("create address", err)
			}
			project.AddressID = &addr.ID
			project.Address = addr
		}
		if err := tx.Omit("Address").Create(project).Error; err != nil {
			return persistence("create project", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logProjectEvent(ctx, actorID, project.ID, models.LogActionCreate, fmt.Sprintf("Project %s created", project.Name))
	return project, nil
}

// List returns paginated projects
func (s *ProjectService) List(ctx context.Context, req *ProjectListRequest) (*ProjectListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 10
	}

	query := s.db.WithContext(ctx).Model(&models.Project{})
	if req.Name != "" {
		query = query.Where("name LIKE ?", "%"+req.Name+"%")
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, persistence("count projects", err)
	}

	var projects []models.Project
	err := query.Preload("Address").
		Order("created_at DESC, id DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&projects).Error
	if err != nil {
		return nil, persistence("list projects", err)
	}

	return &ProjectListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: projects}, nil
}

// GetByID returns a project with address and members.
func (s *ProjectService) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("Address").
		Preload("Members.User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email")
		}).
		First(&project, id).Error
	if err != nil {
		return nil, lookupErr("project", id, err)
	}
	return &project, nil
}

// ListByUser returns the projects the user is a member of.
func (s *ProjectService) ListByUser(ctx context.Context, userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Preload("Address").
		Where("id IN (SELECT project_id FROM project_members WHERE user_id = ?)", userID).
		Order("name ASC").
		Find(&projects).Error
	if err != nil {
		return nil, persistence("list user projects", err)
	}
	return projects, nil
}

// IsMember reports whether the user belongs to the project.
func (s *ProjectService) IsMember(ctx context.Context, projectID, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&n).Error
	if err != nil {
		return false, persistence("check membership", err)
	}
	return n > 0, nil
}

// UpdateStatus changes the lifecycle status of a project.
func (s *ProjectService) UpdateStatus(ctx context.Context, id uint, status string, actorID uint) (*models.Project, error) {
	if !models.ValidProjectStatus(status) {
		return nil, &ValidationError{Field: "status", Message: "unknown status"}
	}

	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, lookupErr("project", id, err)
	}
	if err := s.db.WithContext(ctx).Model(&project).Update("status", status).Error; err != nil {
		return nil, persistence("update project status", err)
	}
	project.Status = status

	s.logProjectEvent(ctx, actorID, id, models.LogActionUpdate, fmt.Sprintf("Project %s set to %s", project.Name, status))
	return &project, nil
}

// ListMembers returns the project's members with their users.
func (s *ProjectService) ListMembers(ctx context.Context, projectID uint) ([]models.ProjectMember, error) {
	if _, err := s.exists(ctx, projectID); err != nil {
		return nil, err
	}

	var members []models.ProjectMember
	err := s.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email", "hourly_rate_cents")
		}).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, persistence("list members", err)
	}
	return members, nil
}

func (s *ProjectService) exists(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).Select("id", "name").First(&project, id).Error; err != nil {
		return nil, lookupErr("project", id, err)
	}
	return &project, nil
}

// AddMember puts a user on a project.
func (s *ProjectService) AddMember(ctx context.Context, projectID uint, req *AddMemberRequest, actorID uint) (*models.ProjectMember, error) {
	role := req.Role
	if role == "" {
		role = models.MemberRoleEmployee
	}
	if !models.ValidMemberRole(role) {
		return nil, &ValidationError{Field: "role", Message: "unknown member role"}
	}

	var (
		project *models.Project
		user    models.User
		member  *models.ProjectMember
	)
	err := models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.Select("id", "name").First(&p, projectID).Error; err != nil {
			return lookupErr("project", projectID, err)
		}
		project = &p
		if err := tx.Select("id", "name", "email").First(&user, req.UserID).Error; err != nil {
			return lookupErr("user", req.UserID, err)
		}

		member = &models.ProjectMember{ProjectID: projectID, UserID: req.UserID, Role: role}
		if err := tx.Create(member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Message: "user is already a member of this project"}
			}
			return persistence("add member", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	member.User = &user
	s.logProjectEvent(ctx, actorID, projectID, models.LogActionCreate, fmt.Sprintf("%s added to %s", user.Name, project.Name))
	return member, nil
}

// RemoveMember deletes a membership by its id.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, memberID uint, actorID uint) error {
	res := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&models.ProjectMember{}, memberID)
	if res.Error != nil {
		return persistence("remove member", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("project member", memberID)
	}

	s.logProjectEvent(ctx, actorID, projectID, models.LogActionDelete, fmt.Sprintf("Member %d removed", memberID))
	return nil
}
