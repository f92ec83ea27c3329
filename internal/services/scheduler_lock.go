package services

import (
	"context"
	"errors"
	"time"

	"github.com/huangang/shiftledger/internal/models"
	"gorm.io/gorm"
)

// SchedulerLockService hands out named, expiring locks stored in the database
// so that scheduled jobs run on only one instance.
type SchedulerLockService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSchedulerLockService(db *gorm.DB) *SchedulerLockService {
	return &SchedulerLockService{db: db, now: time.Now}
}

// SetClock replaces the time source.
func (s *SchedulerLockService) SetClock(now func() time.Time) {
	s.now = now
}

// TryAcquire takes the (name, key) lock for owner. It returns false when
// another owner holds an unexpired lock.
func (s *SchedulerLockService) TryAcquire(ctx context.Context, name, key, owner string, ttl time.Duration) (bool, error) {
	now := s.now().UTC()
	lock := models.SchedulerLock{
		LockName:  name,
		LockKey:   key,
		LockedBy:  owner,
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	err := s.db.WithContext(ctx).Create(&lock).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, persistence("acquire lock", err)
	}

	// take over only if the holder let it expire
	result := s.db.WithContext(ctx).Model(&models.SchedulerLock{}).
		Where("lock_name = ? AND lock_key = ? AND expires_at <= ?", name, key, now).
		Updates(map[string]interface{}{
			"locked_by":  owner,
			"locked_at":  now,
			"expires_at": now.Add(ttl),
		})
	if result.Error != nil {
		return false, persistence("acquire lock", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Release drops the lock if owner still holds it.
func (s *SchedulerLockService) Release(ctx context.Context, name, key, owner string) error {
	err := s.db.WithContext(ctx).
		Where("lock_name = ? AND lock_key = ? AND locked_by = ?", name, key, owner).
		Delete(&models.SchedulerLock{}).Error
	if err != nil {
		return persistence("release lock", err)
	}
	return nil
}
