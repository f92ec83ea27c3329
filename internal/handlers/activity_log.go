package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/middleware"
	"github.com/huangang/shiftledger/internal/services"
	"github.com/huangang/shiftledger/pkg/response"
)

type ActivityLogHandler struct {
	logService *services.ActivityLogService
}

func NewActivityLogHandler(logService *services.ActivityLogService) *ActivityLogHandler {
	return &ActivityLogHandler{logService: logService}
}

type recentLogsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Recent returns the caller's newest activity
// GET /api/logs
func (h *ActivityLogHandler) Recent(c *gin.Context) {
	var req recentLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	logs, err := h.logService.RecentLogs(c.Request.Context(), middleware.GetUserID(c), req.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, logs)
}

// RecentAll returns the newest activity across all users
// GET /api/admin/logs
func (h *ActivityLogHandler) RecentAll(c *gin.Context) {
	var req recentLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	logs, err := h.logService.RecentAll(c.Request.Context(), req.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, logs)
}
