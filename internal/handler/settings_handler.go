package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/service"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// SettingsHandler exposes vendor connectivity operations.
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// TestConnection handles POST /v1/admin/settings/test-connection, forcing a
// fresh vendor authentication.
func (h *SettingsHandler) TestConnection(c *gin.Context) {
	status := h.settingsService.TestConnection(c.Request.Context())
	if !status.Connected {
		utils.Success(c, 200, "Connection test failed", status)
		return
	}
	utils.Success(c, 200, "Connection test passed", status)
}

// ClearToken handles POST /v1/admin/settings/clear-token.
func (h *SettingsHandler) ClearToken(c *gin.Context) {
	h.settingsService.ClearToken(c.Request.Context())
	utils.Success(c, 200, "Cached token cleared", nil)
}
