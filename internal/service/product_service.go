package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/repository"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// ProductInput carries the fields accepted when creating a product.
type ProductInput struct {
	Barcode          string  `json:"barcode"`
	Name             string  `json:"name" binding:"required"`
	ListPrice        float64 `json:"listPrice"`
	OriginalPrice    float64 `json:"originalPrice"`
	SalesUnit        string  `json:"salesUnit"`
	SKU              string  `json:"sku"`
	Category         string  `json:"category"`
	Stock            int     `json:"stock"`
	SyncEnabled      bool    `json:"eslSyncEnabled"`
	PreferredTagSize string  `json:"preferredTagSize"`
}

// ProductUpdate carries a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Barcode          *string  `json:"barcode"`
	Name             *string  `json:"name"`
	ListPrice        *float64 `json:"listPrice"`
	OriginalPrice    *float64 `json:"originalPrice"`
	SalesUnit        *string  `json:"salesUnit"`
	SKU              *string  `json:"sku"`
	Category         *string  `json:"category"`
	Stock            *int     `json:"stock"`
	SyncEnabled      *bool    `json:"eslSyncEnabled"`
	PreferredTagSize *string  `json:"preferredTagSize"`
}

// ProductService implements the catalog operations and wires edits into the
// sync trigger pipeline.
type ProductService struct {
	repo    *repository.ProductRepository
	store   repository.TxRunner
	trigger *TriggerService
}

// NewProductService constructs a ProductService.
func NewProductService(repo *repository.ProductRepository, store repository.TxRunner, trigger *TriggerService) *ProductService {
	return &ProductService{repo: repo, store: store, trigger: trigger}
}

// List returns products with search and pagination.
func (s *ProductService) List(search string, page, limit int) ([]models.Product, int, error) {
	return s.repo.ListPaged(search, page, limit)
}

// Get returns one product.
func (s *ProductService) Get(id int64) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// Create validates and stores a new product, generating an EAN-13 barcode
// when none was supplied, and queues an initial sync for enabled products.
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	if err := validateSize(input.PreferredTagSize); err != nil {
		return nil, err
	}
	if input.Barcode == "" {
		input.Barcode = utils.GenerateEAN13()
	} else if !utils.ValidEAN13(input.Barcode) {
		log.Warn().Str("barcode", input.Barcode).Msg("creating product with non-EAN-13 barcode")
	}

	p := &models.Product{
		Barcode:          input.Barcode,
		Name:             input.Name,
		ListPrice:        input.ListPrice,
		OriginalPrice:    input.OriginalPrice,
		SalesUnit:        input.SalesUnit,
		SKU:              input.SKU,
		Category:         input.Category,
		Stock:            input.Stock,
		SyncEnabled:      input.SyncEnabled,
		PreferredTagSize: input.PreferredTagSize,
	}
	if err := s.repo.Create(p); err != nil {
		return nil, err
	}

	if p.SyncEnabled {
		s.trigger.ScheduleSync([]int64{p.ID})
	}
	return p, nil
}

// Update applies a partial edit in one transaction. Changing the preferred
// size or the barcode releases the current tag and discards the remote goods
// id immediately, so the next sync registers the product afresh. Catalog
// changes on a sync-enabled product queue a debounced sync.
func (s *ProductService) Update(ctx context.Context, id int64, input ProductUpdate) (*models.Product, error) {
	if input.PreferredTagSize != nil {
		if err := validateSize(*input.PreferredTagSize); err != nil {
			return nil, err
		}
	}

	var updated *models.Product
	var needsSync bool
	err := s.store.InTransaction(ctx, func(tx repository.SyncTx) error {
		p, err := tx.ProductByID(id)
		if err != nil {
			return err
		}

		before := *p
		applyUpdate(p, input)

		sizeChanged := before.PreferredTagSize != p.PreferredTagSize
		barcodeChanged := before.Barcode != p.Barcode
		catalogChanged := barcodeChanged ||
			before.Name != p.Name ||
			before.ListPrice != p.ListPrice ||
			before.OriginalPrice != p.OriginalPrice ||
			before.SalesUnit != p.SalesUnit ||
			before.SKU != p.SKU ||
			before.Category != p.Category ||
			before.Stock != p.Stock

		if sizeChanged || barcodeChanged {
			if err := tx.ClearProductBinding(p.ID); err != nil {
				return err
			}
			if err := tx.ClearRemoteGoods(p.ID); err != nil {
				return err
			}
			p.BoundTagID = nil
			p.RemoteGoodsID = ""
			p.LastSyncAt = nil
		}

		if err := tx.UpdateProduct(p); err != nil {
			return err
		}

		updated = p
		needsSync = p.SyncEnabled && (catalogChanged || sizeChanged ||
			(input.SyncEnabled != nil && !before.SyncEnabled))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if needsSync {
		s.trigger.ScheduleSync([]int64{id})
	}
	return updated, nil
}

// Delete removes a product after releasing any tag it holds.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	err := s.store.InTransaction(ctx, func(tx repository.SyncTx) error {
		if _, err := tx.ProductByID(id); err != nil {
			return err
		}
		return tx.ClearProductBinding(id)
	})
	if err != nil {
		return err
	}
	return s.repo.Delete(id)
}

// SyncNow queues an immediate sync for one product, bypassing the debounce.
func (s *ProductService) SyncNow(id int64) error {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if !p.SyncEnabled {
		return utils.ErrSyncDisabled
	}
	s.trigger.ScheduleSyncAfter([]int64{id}, 0)
	return nil
}

// BulkSync queues one sync covering every sync-enabled product and returns
// how many were included.
func (s *ProductService) BulkSync() (int, error) {
	ids, err := s.repo.ListSyncEnabled()
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		s.trigger.ScheduleSyncAfter(ids, 0)
	}
	return len(ids), nil
}

// GenerateBarcodes assigns EAN-13 barcodes to every product missing one and
// returns how many were filled.
func (s *ProductService) GenerateBarcodes() (int, error) {
	products, err := s.repo.ListWithoutBarcode()
	if err != nil {
		return 0, err
	}

	base := time.Now()
	count := 0
	for i := range products {
		// Advance the instant per product so time-derived codes stay unique.
		code := utils.GenerateEAN13From(base.Add(time.Duration(i) * time.Millisecond))
		if err := s.repo.SetBarcode(products[i].ID, code); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func validateSize(size string) error {
	if size == "" || size == models.TagSizeOther || models.IsKnownTagSize(size) {
		return nil
	}
	return utils.ErrInvalidTagSize
}

func applyUpdate(p *models.Product, in ProductUpdate) {
	if in.Barcode != nil {
		p.Barcode = *in.Barcode
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.ListPrice != nil {
		p.ListPrice = *in.ListPrice
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.SalesUnit != nil {
		p.SalesUnit = *in.SalesUnit
	}
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.SyncEnabled != nil {
		p.SyncEnabled = *in.SyncEnabled
	}
	if in.PreferredTagSize != nil {
		p.PreferredTagSize = *in.PreferredTagSize
	}
}
