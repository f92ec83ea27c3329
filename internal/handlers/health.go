package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the server's dependencies.
type HealthHandler struct {
	db     *gorm.DB
	queue  services.TaskQueue
	shifts *services.ShiftService
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, shifts *services.ShiftService) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, shifts: shifts}
}

// CheckHealth returns the health status of all subsystems.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	components := gin.H{
		"database":   dbStatus,
		"queue_mode": queueMode,
	}
	if dbStatus == "ok" {
		if n, err := h.shifts.CountActiveShifts(c.Request.Context()); err == nil {
			components["active_shifts"] = n
		}
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"service":    "shiftledger",
		"components": components,
	})
}
