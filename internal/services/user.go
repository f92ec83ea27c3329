package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/internal/utils"
	"github.com/huangang/shiftledger/pkg/logger"
	"gorm.io/gorm"
)

type UserService struct {
	db   *gorm.DB
	logs *ActivityLogService
}

func NewUserService(db *gorm.DB, logs *ActivityLogService) *UserService {
	return &UserService{db: db, logs: logs}
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"max=50"`
	DOB      string `json:"dob"` // YYYY-MM-DD
}

type UserListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Name     string `form:"name"`
}

type UserListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

type UpdatePayRateRequest struct {
	HourlyRate string `json:"hourly_rate" binding:"required"` // e.g. "25.00"
}

type AssignRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1"`
}

func (s *UserService) logUserEvent(ctx context.Context, userID uint, action, message string) {
	if s.logs == nil {
		return
	}
	if _, err := s.logs.RecordUserEvent(ctx, userID, action, message); err != nil {
		logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to record user activity log")
	}
}

func findRoles(tx *gorm.DB, names []string) ([]models.Role, error) {
	seen := make(map[string]struct{}, len(names))
	unique := names[:0:0]
	for _, n := range names {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			unique = append(unique, n)
		}
	}

	var roles []models.Role
	if err := tx.Where("name IN ?", unique).Find(&roles).Error; err != nil {
		return nil, persistence("load roles", err)
	}
	if len(roles) != len(unique) {
		return nil, &ValidationError{Field: "roles", Message: fmt.Sprintf("unknown role in %v", names)}
	}
	return roles, nil
}

// Signup registers a local account with the EMPLOYEE role.
func (s *UserService) Signup(ctx context.Context, req *SignupRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var dob *time.Time
	if req.DOB != "" {
		d, err := time.Parse(dateLayout, req.DOB)
		if err != nil {
			return nil, &ValidationError{Field: "dob", Message: "must be a YYYY-MM-DD date"}
		}
		dob = &d
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Phone:    req.Phone,
		DOB:      dob,
		Password: hash,
		AuthType: models.AuthTypeLocal,
		IsActive: true,
	}

	err = models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Unscoped().Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
			return persistence("check email", err)
		}
		if taken > 0 {
			return &ConflictError{Message: "email is already registered"}
		}

		roles, err := findRoles(tx, []string{models.RoleEmployee})
		if err != nil {
			return err
		}
		user.Roles = roles
		if err := tx.Omit("Roles.*").Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Message: "email is already registered"}
			}
			return persistence("create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logUserEvent(ctx, user.ID, models.LogActionCreate, "Joined")
	return user, nil
}

// GetByID loads a user with roles.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Roles").First(&user, id).Error; err != nil {
		return nil, lookupErr("user", id, err)
	}
	return &user, nil
}

// ListEmployees pages through users holding the EMPLOYEE role.
func (s *UserService) ListEmployees(ctx context.Context, req *UserListRequest) (*UserListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.User{}).
		Where("users.id IN (SELECT ur.user_id FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE r.name = ?)", models.RoleEmployee)
	if req.Name != "" {
		query = query.Where("users.name LIKE ?", "%"+req.Name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, persistence("count employees", err)
	}

	var users []models.User
	err := query.Preload("Roles").
		Order("users.name ASC, users.id ASC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, persistence("list employees", err)
	}

	return &UserListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: users}, nil
}

// ListNonMembers returns employees not yet on the project.
func (s *UserService) ListNonMembers(ctx context.Context, projectID uint) ([]models.User, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).Select("id").First(&project, projectID).Error; err != nil {
		return nil, lookupErr("project", projectID, err)
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("users.id IN (SELECT ur.user_id FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE r.name = ?)", models.RoleEmployee).
		Where("users.id NOT IN (SELECT pm.user_id FROM project_members pm WHERE pm.project_id = ?)", projectID).
		Order("users.name ASC").
		Find(&users).Error
	if err != nil {
		return nil, persistence("list non-members", err)
	}
	return users, nil
}

// UpdatePayRate sets the hourly rate in cents.
func (s *UserService) UpdatePayRate(ctx context.Context, id uint, rateCents int64) (*models.User, error) {
	if rateCents < 0 {
		return nil, &ValidationError{Field: "hourly_rate", Message: "must not be negative"}
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).UpdateColumn("hourly_rate_cents", rateCents).Error; err != nil {
		return nil, persistence("update pay rate", err)
	}
	user.HourlyRateCents = rateCents

	s.logUserEvent(ctx, id, models.LogActionUpdate, fmt.Sprintf("Pay rate updated to %s", FormatCents(rateCents)))
	return user, nil
}

// AssignRoles replaces the user's roles.
func (s *UserService) AssignRoles(ctx context.Context, id uint, names []string) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		roles, err := findRoles(tx, names)
		if err != nil {
			return err
		}
		if err := tx.Model(user).Association("Roles").Replace(roles); err != nil {
			return persistence("replace roles", err)
		}
		user.Roles = roles
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logUserEvent(ctx, id, models.LogActionUpdate, fmt.Sprintf("Roles set to %s", strings.Join(user.RoleNames(), ", ")))
	return user, nil
}

// Delete soft-deletes a user. Users with an open shift cannot be removed.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, id).Error; err != nil {
			return lookupErr("user", id, err)
		}
		var open int64
		if err := tx.Model(&models.ActiveShift{}).Where("user_id = ?", id).Count(&open).Error; err != nil {
			return persistence("check active shift", err)
		}
		if open > 0 {
			return &ConflictError{Message: "user is clocked in"}
		}
		if err := tx.Delete(&user).Error; err != nil {
			return persistence("delete user", err)
		}
		return nil
	})
}

// MarkLogin stamps the last login time.
func (s *UserService) MarkLogin(ctx context.Context, id uint, at time.Time) {
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login", at).Error; err != nil {
		logger.Warn().Err(err).Uint("user_id", id).Msg("failed to update last login")
	}
}
