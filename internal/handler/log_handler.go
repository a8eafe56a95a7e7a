package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/repository"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// LogHandler exposes the vendor API audit trail.
type LogHandler struct {
	logRepo *repository.APILogRepository
}

// NewLogHandler constructs a LogHandler.
func NewLogHandler(logRepo *repository.APILogRepository) *LogHandler {
	return &LogHandler{logRepo: logRepo}
}

// GetLogs returns audit records newest first, with optional operation and
// status filters.
func (h *LogHandler) GetLogs(c *gin.Context) {
	operation := c.Query("operation")
	status := c.Query("status")
	page, limit := pageParams(c)

	logs, total, err := h.logRepo.ListPaged(operation, status, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get logs")
		return
	}

	utils.SuccessWithPagination(c, 200, "Logs retrieved successfully", gin.H{
		"logs": logs,
	}, page, limit, total)
}
