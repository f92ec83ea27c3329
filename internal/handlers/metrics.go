package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/services"
)

// Metrics serves the Prometheus registry.
// GET /metrics
func Metrics(m *services.Metrics) gin.HandlerFunc {
	return gin.WrapH(m.Handler())
}
