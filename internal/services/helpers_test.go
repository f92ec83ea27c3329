package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/internal/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := models.Seed(db); err != nil {
		t.Fatalf("seed test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func createUser(t *testing.T, db *gorm.DB, name string, rateCents int64) *models.User {
	t.Helper()
	user := &models.User{
		Name:            name,
		Email:           strings.ToLower(name) + "@example.com",
		HourlyRateCents: rateCents,
		AuthType:        models.AuthTypeLocal,
		IsActive:        true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createProject(t *testing.T, db *gorm.DB, name string) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, Status: models.ProjectStatusActive}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func createCompletedShift(t *testing.T, db *gorm.DB, userID, projectID uint, start, end time.Time) *models.CompletedShift {
	t.Helper()
	shift := &models.CompletedShift{
		UserID:    userID,
		ProjectID: projectID,
		Start:     start,
		End:       end,
		Date:      end,
	}
	if err := db.Create(shift).Error; err != nil {
		t.Fatalf("create completed shift: %v", err)
	}
	return shift
}

// recordingPublisher captures events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
