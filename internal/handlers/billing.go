package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/middleware"
	"github.com/huangang/shiftledger/internal/services"
	"github.com/huangang/shiftledger/pkg/response"
)

type BillingHandler struct {
	billingService *services.BillingService
}

func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// Get returns the caller's billing details, or null
// GET /api/billing
func (h *BillingHandler) Get(c *gin.Context) {
	billing, err := h.billingService.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"billing": billing})
}

// Update stores the caller's billing details
// PUT /api/billing
func (h *BillingHandler) Update(c *gin.Context) {
	var req services.BillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	billing, err := h.billingService.Upsert(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"billing": billing})
}
