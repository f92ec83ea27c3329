package services

import (
	"context"

	"github.com/huangang/shiftledger/internal/models"
	"gorm.io/gorm"
)

const (
	defaultLogLimit = 10
	maxLogLimit     = 100
)

type ActivityLogService struct {
	db *gorm.DB
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	return &ActivityLogService{db: db}
}

func (s *ActivityLogService) record(ctx context.Context, userID uint, projectID *uint, logType, action, message string) (*models.ActivityLog, error) {
	entry := &models.ActivityLog{
		UserID:    userID,
		ProjectID: projectID,
		Message:   message,
		Meta:      models.LogMeta{Action: action, Type: logType},
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, persistence("record activity log", err)
	}
	return entry, nil
}

// RecordShiftEvent appends a shift entry such as "Clock in at Site A".
func (s *ActivityLogService) RecordShiftEvent(ctx context.Context, userID, projectID uint, action, message string) (*models.ActivityLog, error) {
	return s.record(ctx, userID, &projectID, models.LogTypeShift, action, message)
}

func (s *ActivityLogService) RecordUserEvent(ctx context.Context, userID uint, action, message string) (*models.ActivityLog, error) {
	return s.record(ctx, userID, nil, models.LogTypeUser, action, message)
}

func (s *ActivityLogService) RecordProjectEvent(ctx context.Context, userID, projectID uint, action, message string) (*models.ActivityLog, error) {
	return s.record(ctx, userID, &projectID, models.LogTypeProject, action, message)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLogLimit
	}
	if limit > maxLogLimit {
		return maxLogLimit
	}
	return limit
}

// RecentLogs returns the user's newest entries first.
func (s *ActivityLogService) RecentLogs(ctx context.Context, userID uint, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&logs).Error
	if err != nil {
		return nil, persistence("list activity logs", err)
	}
	return logs, nil
}

// RecentAll is the admin feed across all users, with the user's id and name attached.
func (s *ActivityLogService) RecentAll(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := s.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped().Select("id", "name", "email")
		}).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&logs).Error
	if err != nil {
		return nil, persistence("list activity logs", err)
	}
	return logs, nil
}
