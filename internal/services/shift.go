package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/pkg/logger"
	"gorm.io/gorm"
)

// ShiftService owns the clock-in / clock-out lifecycle.
type ShiftService struct {
	db           *gorm.DB
	logs         *ActivityLogService
	events       EventPublisher
	metrics      *Metrics
	singleActive bool
	now          func() time.Time
}

func NewShiftService(db *gorm.DB, cfg *config.ShiftsConfig, logs *ActivityLogService, events EventPublisher, metrics *Metrics) *ShiftService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &ShiftService{
		db:           db,
		logs:         logs,
		events:       events,
		metrics:      metrics,
		singleActive: cfg == nil || cfg.SingleActiveShift,
		now:          time.Now,
	}
}

// SetClock replaces the time source.
func (s *ShiftService) SetClock(now func() time.Time) {
	s.now = now
}

type ClockInRequest struct {
	ProjectID uint `json:"project_id" binding:"required"`
}

type ClockOutRequest struct {
	ActiveShiftID uint `json:"active_shift_id" binding:"required"`
}

type CompletedShiftsRequest struct {
	ProjectID uint `form:"project_id"`
}

// projectName preloads only what the shift views need, including soft-deleted projects.
func projectName(db *gorm.DB) *gorm.DB {
	return db.Unscoped().Select("id", "name")
}

// ClockIn opens a shift for the user on the project.
func (s *ShiftService) ClockIn(ctx context.Context, userID, projectID uint) (*models.ActiveShift, error) {
	var (
		shift   *models.ActiveShift
		project models.Project
	)

	err := models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			return lookupErr("user", userID, err)
		}
		if err := tx.Select("id", "name").First(&project, projectID).Error; err != nil {
			return lookupErr("project", projectID, err)
		}

		q := tx.Model(&models.ActiveShift{}).Where("user_id = ?", userID)
		if !s.singleActive {
			q = q.Where("project_id = ?", projectID)
		}
		var open int64
		if err := q.Count(&open).Error; err != nil {
			return persistence("check active shift", err)
		}
		if open > 0 {
			if s.singleActive {
				return &ConflictError{Message: "user already has an active shift"}
			}
			return &ConflictError{Message: "user already has an active shift on this project"}
		}

		shift = &models.ActiveShift{
			UserID:    userID,
			ProjectID: projectID,
			Start:     s.now().UTC(),
		}
		if err := tx.Create(shift).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Message: "user already has an active shift on this project"}
			}
			return persistence("create active shift", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	shift.Project = &project
	s.metrics.shiftEvent("clock_in")
	s.recordShiftLog(ctx, userID, projectID, models.LogActionCreate, fmt.Sprintf("Clock in at %s", project.Name))
	publishQuietly(ctx, s.events, EventShiftClockedIn, shift.Start, ShiftEventData{
		ShiftID:   shift.ID,
		UserID:    userID,
		ProjectID: projectID,
		Start:     shift.Start,
	})
	return shift, nil
}

// ClockOut closes an open shift. A non-zero actorID must own the shift.
func (s *ShiftService) ClockOut(ctx context.Context, activeShiftID, actorID uint) (*models.CompletedShift, error) {
	var (
		active    models.ActiveShift
		completed *models.CompletedShift
	)

	err := models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Preload("Project", projectName).First(&active, activeShiftID).Error; err != nil {
			return lookupErr("active shift", activeShiftID, err)
		}
		if actorID != 0 && active.UserID != actorID {
			return &ForbiddenError{Message: "shift belongs to another user"}
		}

		now := s.now().UTC()
		completed = &models.CompletedShift{
			UserID:    active.UserID,
			ProjectID: active.ProjectID,
			Start:     active.Start,
			End:       now,
			Date:      now,
		}
		if err := tx.Create(completed).Error; err != nil {
			return persistence("create completed shift", err)
		}

		res := tx.Delete(&models.ActiveShift{}, active.ID)
		if res.Error != nil {
			return persistence("delete active shift", res.Error)
		}
		if res.RowsAffected == 0 {
			// Someone else clocked this shift out between our read and delete.
			return notFound("active shift", activeShiftID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	name := ""
	if active.Project != nil {
		name = active.Project.Name
		completed.Project = active.Project
	}
	s.metrics.shiftEvent("clock_out")
	s.recordShiftLog(ctx, active.UserID, active.ProjectID, models.LogActionUpdate, fmt.Sprintf("Clock out at %s", name))
	publishQuietly(ctx, s.events, EventShiftClockedOut, completed.End, ShiftEventData{
		ShiftID:   completed.ID,
		UserID:    completed.UserID,
		ProjectID: completed.ProjectID,
		Start:     completed.Start,
		End:       completed.End,
	})
	return completed, nil
}

func (s *ShiftService) recordShiftLog(ctx context.Context, userID, projectID uint, action, message string) {
	if s.logs == nil {
		return
	}
	if _, err := s.logs.RecordShiftEvent(ctx, userID, projectID, action, message); err != nil {
		logger.Warn().Err(err).
			Uint("user_id", userID).
			Uint("project_id", projectID).
			Msg("failed to record shift activity log")
	}
}

// GetActiveShift returns the user's earliest open shift, or nil when there is none.
func (s *ShiftService) GetActiveShift(ctx context.Context, userID uint) (*models.ActiveShift, error) {
	var shifts []models.ActiveShift
	err := s.db.WithContext(ctx).
		Preload("Project", projectName).
		Where("user_id = ?", userID).
		Order("started_at ASC, id ASC").
		Limit(1).
		Find(&shifts).Error
	if err != nil {
		return nil, persistence("load active shift", err)
	}
	if len(shifts) == 0 {
		return nil, nil
	}
	return &shifts[0], nil
}

// ListCompletedShifts returns the user's shifts newest first; projectID 0 means all projects.
func (s *ShiftService) ListCompletedShifts(ctx context.Context, userID, projectID uint) ([]models.CompletedShift, error) {
	q := s.db.WithContext(ctx).
		Preload("Project", projectName).
		Where("user_id = ?", userID)
	if projectID != 0 {
		q = q.Where("project_id = ?", projectID)
	}

	var shifts []models.CompletedShift
	if err := q.Order("shift_date DESC, id DESC").Find(&shifts).Error; err != nil {
		return nil, persistence("list completed shifts", err)
	}
	return shifts, nil
}

// LastWeekCompletedShifts returns shifts that ended within the last seven days.
func (s *ShiftService) LastWeekCompletedShifts(ctx context.Context, userID uint) ([]models.CompletedShift, error) {
	since := s.now().UTC().AddDate(0, 0, -7)

	var shifts []models.CompletedShift
	err := s.db.WithContext(ctx).
		Preload("Project", projectName).
		Where("user_id = ? AND shift_date >= ?", userID, since).
		Order("shift_date DESC, id DESC").
		Find(&shifts).Error
	if err != nil {
		return nil, persistence("list completed shifts", err)
	}
	return shifts, nil
}

// CountActiveShifts counts every open shift.
func (s *ShiftService) CountActiveShifts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.ActiveShift{}).Count(&n).Error; err != nil {
		return 0, persistence("count active shifts", err)
	}
	return n, nil
}
