package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/service"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// ReassignHandler handles tag size reassignment endpoints.
type ReassignHandler struct {
	reassignService *service.ReassignService
}

// NewReassignHandler constructs a ReassignHandler.
func NewReassignHandler(reassignService *service.ReassignService) *ReassignHandler {
	return &ReassignHandler{reassignService: reassignService}
}

type reassignRequest struct {
	Size string `json:"size" binding:"required"`
}

// Preview handles POST /v1/admin/products/:id/reassign-preview.
func (h *ReassignHandler) Preview(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "size is required")
		return
	}

	preview, err := h.reassignService.Preview(c.Request.Context(), id, req.Size)
	if err != nil {
		reassignError(c, err)
		return
	}
	utils.Success(c, 200, "Reassignment preview", preview)
}

// Reassign handles POST /v1/admin/products/:id/reassign.
func (h *ReassignHandler) Reassign(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "size is required")
		return
	}

	if err := h.reassignService.Reassign(c.Request.Context(), id, req.Size); err != nil {
		reassignError(c, err)
		return
	}
	utils.Success(c, 202, "Reassignment applied, syncs queued", nil)
}

func reassignError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrProductNotFound):
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, utils.ErrInvalidTagSize):
		utils.Error(c, 400, "INVALID_TAG_SIZE", "Unknown tag size")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Reassignment failed")
	}
}
