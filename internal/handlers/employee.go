package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/services"
	"github.com/huangang/shiftledger/pkg/response"
)

type EmployeeHandler struct {
	userService    *services.UserService
	invoiceService *services.InvoiceService
	billingService *services.BillingService
}

func NewEmployeeHandler(userService *services.UserService, invoiceService *services.InvoiceService, billingService *services.BillingService) *EmployeeHandler {
	return &EmployeeHandler{
		userService:    userService,
		invoiceService: invoiceService,
		billingService: billingService,
	}
}

// List returns paginated employees
// GET /api/admin/employees
func (h *EmployeeHandler) List(c *gin.Context) {
	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.userService.ListEmployees(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Paged(c, resp.Items, resp.Total, resp.Page, resp.PageSize)
}

// GetByID returns an employee with their invoices and billing details
// GET /api/admin/employees/:id
func (h *EmployeeHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	invoices, err := h.invoiceService.ListByUser(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	billing, err := h.billingService.Get(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user":        user,
		"hourly_rate": services.FormatCents(user.HourlyRateCents),
		"invoices":    invoiceViews(invoices),
		"billing":     billing,
	})
}

// UpdatePayRate sets an employee's hourly rate
// PUT /api/admin/employees/:id/pay-rate
func (h *EmployeeHandler) UpdatePayRate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req services.UpdatePayRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cents, err := services.ParseAmount(req.HourlyRate)
	if err != nil {
		writeError(c, err)
		return
	}

	user, err := h.userService.UpdatePayRate(c.Request.Context(), id, cents)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, user)
}

// AssignRoles replaces an employee's roles
// PUT /api/admin/employees/:id/roles
func (h *EmployeeHandler) AssignRoles(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req services.AssignRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.AssignRoles(c.Request.Context(), id, req.Roles)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, user)
}

// Delete removes an employee
// DELETE /api/admin/employees/:id
func (h *EmployeeHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "employee deleted"})
}
