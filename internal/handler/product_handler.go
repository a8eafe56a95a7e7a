package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/service"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// productView decorates a product with its derived ESL status for list and
// detail responses.
type productView struct {
	models.Product
	EslStatus string `json:"eslStatus"`
}

// ProductHandler handles catalog HTTP endpoints.
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GetProducts returns the product list with search and pagination.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	search := c.Query("search")
	page, limit := pageParams(c)

	products, total, err := h.productService.List(search, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get products")
		return
	}

	views := make([]productView, len(products))
	for i := range products {
		views[i] = productView{
			Product:   products[i],
			EslStatus: string(products[i].EslStatus()),
		}
	}

	utils.SuccessWithPagination(c, 200, "Products retrieved successfully", gin.H{
		"products": views,
	}, page, limit, total)
}

// GetProduct returns one product.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	p, err := h.productService.Get(id)
	if err != nil {
		productError(c, err)
		return
	}
	utils.Success(c, 200, "Product retrieved successfully", gin.H{
		"product":   p,
		"eslStatus": string(p.EslStatus()),
	})
}

// CreateProduct handles POST /v1/admin/products.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input service.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid product payload")
		return
	}

	p, err := h.productService.Create(input)
	if err != nil {
		productError(c, err)
		return
	}
	utils.Success(c, 201, "Product created successfully", gin.H{"product": p})
}

// UpdateProduct handles PUT /v1/admin/products/:id.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input service.ProductUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid product payload")
		return
	}

	p, err := h.productService.Update(c.Request.Context(), id, input)
	if err != nil {
		productError(c, err)
		return
	}
	utils.Success(c, 200, "Product updated successfully", gin.H{"product": p})
}

// DeleteProduct handles DELETE /v1/admin/products/:id.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		productError(c, err)
		return
	}
	utils.Success(c, 200, "Product deleted successfully", nil)
}

// SyncProduct handles POST /v1/admin/products/:id/sync.
func (h *ProductHandler) SyncProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.productService.SyncNow(id); err != nil {
		productError(c, err)
		return
	}
	utils.Success(c, 202, "Sync queued", nil)
}

// BulkSync handles POST /v1/admin/products/sync.
func (h *ProductHandler) BulkSync(c *gin.Context) {
	count, err := h.productService.BulkSync()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to queue bulk sync")
		return
	}
	utils.Success(c, 202, "Bulk sync queued", gin.H{"queued": count})
}

// GenerateBarcodes handles POST /v1/admin/products/generate-barcodes.
func (h *ProductHandler) GenerateBarcodes(c *gin.Context) {
	count, err := h.productService.GenerateBarcodes()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to generate barcodes")
		return
	}
	utils.Success(c, 200, "Barcodes generated", gin.H{"generated": count})
}

func productError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrProductNotFound):
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, utils.ErrDuplicateBarcode):
		utils.Error(c, 409, "DUPLICATE_BARCODE", "A product with this barcode already exists")
	case errors.Is(err, utils.ErrInvalidTagSize):
		utils.Error(c, 400, "INVALID_TAG_SIZE", "Unknown tag size")
	case errors.Is(err, utils.ErrSyncDisabled):
		utils.Error(c, 400, "SYNC_DISABLED", "ESL sync is disabled for this product")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Operation failed")
	}
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid id")
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, limit := 1, 50
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return page, limit
}
