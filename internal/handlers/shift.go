package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/middleware"
	"github.com/huangang/shiftledger/internal/services"
	"github.com/huangang/shiftledger/pkg/response"
)

type ShiftHandler struct {
	shiftService *services.ShiftService
}

func NewShiftHandler(shiftService *services.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

// ClockIn opens a shift for the caller
// POST /api/shifts/clock-in
func (h *ShiftHandler) ClockIn(c *gin.Context) {
	var req services.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	shift, err := h.shiftService.ClockIn(c.Request.Context(), middleware.GetUserID(c), req.ProjectID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, shift)
}

// ClockOut closes one of the caller's open shifts
// POST /api/shifts/clock-out
func (h *ShiftHandler) ClockOut(c *gin.Context) {
	var req services.ClockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	shift, err := h.shiftService.ClockOut(c.Request.Context(), req.ActiveShiftID, middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, shift)
}

// ForceClockOut closes any open shift
// POST /api/admin/shifts/:id/clock-out
func (h *ShiftHandler) ForceClockOut(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	shift, err := h.shiftService.ClockOut(c.Request.Context(), id, 0)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, shift)
}

// GetActive returns the caller's open shift, or null
// GET /api/shifts/active
func (h *ShiftHandler) GetActive(c *gin.Context) {
	shift, err := h.shiftService.GetActiveShift(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"shift": shift})
}

// ListCompleted returns the caller's completed shifts
// GET /api/shifts
func (h *ShiftHandler) ListCompleted(c *gin.Context) {
	var req services.CompletedShiftsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	shifts, err := h.shiftService.ListCompletedShifts(c.Request.Context(), middleware.GetUserID(c), req.ProjectID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, shifts)
}

// LastWeek returns the caller's shifts from the last 7 days with totals
// GET /api/shifts/last-week
func (h *ShiftHandler) LastWeek(c *gin.Context) {
	shifts, err := h.shiftService.LastWeekCompletedShifts(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"shifts":      shifts,
		"total_hours": services.TotalHours(services.IntervalsOf(shifts)),
	})
}
