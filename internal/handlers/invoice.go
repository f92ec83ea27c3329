package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/middleware"
	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/internal/services"
	"github.com/huangang/shiftledger/pkg/response"
)

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func invoiceViews(invoices []models.Invoice) []services.InvoiceView {
	views := make([]services.InvoiceView, len(invoices))
	for i, inv := range invoices {
		views[i] = services.NewInvoiceView(inv)
	}
	return views
}

// ListMine returns the caller's invoices, newest first
// GET /api/invoices
func (h *InvoiceHandler) ListMine(c *gin.Context) {
	invoices, err := h.invoiceService.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, invoiceViews(invoices))
}

// GetMine returns one of the caller's invoices with its shifts
// GET /api/invoices/:id
func (h *InvoiceHandler) GetMine(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetForUser(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, services.NewInvoiceView(*invoice))
}

// List returns paginated invoices across users
// GET /api/admin/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var req services.InvoiceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.invoiceService.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Paged(c, invoiceViews(resp.Items), resp.Total, resp.Page, resp.PageSize)
}

// GetByID returns any invoice with its shifts
// GET /api/admin/invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, services.NewInvoiceView(*invoice))
}

// GenerateAll invoices every eligible employee for the window
// POST /api/admin/invoices/generate
func (h *InvoiceHandler) GenerateAll(c *gin.Context) {
	var req services.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	from, to, err := h.invoiceService.ParseWindow(req.From, req.To)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.invoiceService.GenerateForAllUsersInRange(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// GenerateForEmployee invoices one employee for the window
// POST /api/admin/employees/:id/invoices
func (h *InvoiceHandler) GenerateForEmployee(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req services.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	from, to, err := h.invoiceService.ParseWindow(req.From, req.To)
	if err != nil {
		writeError(c, err)
		return
	}

	invoice, err := h.invoiceService.GenerateForUser(c.Request.Context(), userID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, services.NewInvoiceView(*invoice))
}
