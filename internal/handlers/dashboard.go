package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/services"
	"github.com/huangang/shiftledger/pkg/response"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	holidayService   *services.HolidayService
}

func NewDashboardHandler(dashboardService *services.DashboardService, holidayService *services.HolidayService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, holidayService: holidayService}
}

// GetOverview returns the admin dashboard
// GET /api/admin/dashboard
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	var req services.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.dashboardService.GetOverview(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, resp)
}

// GetHolidayCountries lists the calendars expected hours can use
// GET /api/admin/holiday-countries
func (h *DashboardHandler) GetHolidayCountries(c *gin.Context) {
	response.Success(c, h.holidayService.SupportedCountries())
}
