package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/service"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides the health endpoint.
type HealthHandler struct {
	db      *sqlx.DB
	gateway service.Gateway
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB, gateway service.Gateway) *HealthHandler {
	return &HealthHandler{db: db, gateway: gateway}
}

// GetHealth responds with service, database and vendor configuration status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	dbStatus := "connected"
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		dbStatus = "disconnected"
	}

	vendorStatus := "configured"
	if !h.gateway.Configured() {
		vendorStatus = "not_configured"
	}

	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":   "healthy",
		"version":  "1.0.0",
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": dbStatus,
		"vendor":   vendorStatus,
	})
}
