package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/service"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// TagHandler handles ESL tag HTTP endpoints.
type TagHandler struct {
	tagService *service.TagService
}

// NewTagHandler constructs a TagHandler.
func NewTagHandler(tagService *service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// GetTags returns the mirrored tag list with filters and pagination.
func (h *TagHandler) GetTags(c *gin.Context) {
	size := c.Query("size")
	status := c.Query("status")
	freeOnly := c.Query("free") == "true"
	page, limit := pageParams(c)

	tags, total, err := h.tagService.List(size, status, freeOnly, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get tags")
		return
	}

	utils.SuccessWithPagination(c, 200, "Tags retrieved successfully", gin.H{
		"tags": tags,
	}, page, limit, total)
}

// GetTagStats returns per-size (total, free) counts.
func (h *TagHandler) GetTagStats(c *gin.Context) {
	counts, err := h.tagService.CountBySize()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get tag stats")
		return
	}

	stats := make(map[string]gin.H, len(counts))
	for size, c := range counts {
		stats[size] = gin.H{"total": c[0], "free": c[1]}
	}
	utils.Success(c, 200, "Tag stats retrieved successfully", gin.H{"sizes": stats})
}

// FetchTags handles POST /v1/admin/tags/fetch, refreshing the inventory
// from the vendor.
func (h *TagHandler) FetchTags(c *gin.Context) {
	result, err := h.tagService.FetchTags(c.Request.Context())
	if err != nil {
		utils.Error(c, 502, "VENDOR_ERROR", "Failed to fetch tags from vendor")
		return
	}
	utils.Success(c, 200, "Tags fetched successfully", result)
}

type bindRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
}

// BindTag handles POST /v1/admin/tags/:id/bind.
func (h *TagHandler) BindTag(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req bindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "productId is required")
		return
	}

	err := h.tagService.ManualBind(c.Request.Context(), id, req.ProductID)
	switch {
	case err == nil:
		utils.Success(c, 200, "Tag bound successfully", nil)
	case errors.Is(err, utils.ErrTagNotFound):
		utils.Error(c, 404, "TAG_NOT_FOUND", "Tag not found")
	case errors.Is(err, utils.ErrProductNotFound):
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, utils.ErrNoGoodsID):
		utils.Error(c, 400, "NO_GOODS_ID", "Product has not been synced to the vendor yet")
	case errors.Is(err, utils.ErrTagNotBindable):
		utils.Error(c, 400, "TAG_NOT_BINDABLE", "Tag is missing template or base station")
	case errors.Is(err, utils.ErrBindRejected):
		utils.Error(c, 502, "BIND_REJECTED", "Vendor refused the binding")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Bind failed")
	}
}
