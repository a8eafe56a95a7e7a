package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/repository"
)

// AllocatorService binds free tags to products that have earned one. It
// always runs inside a caller's sync transaction so the claimed tag row
// stays locked until the vendor bind either lands or fails.
type AllocatorService struct {
	gateway Gateway
}

// NewAllocatorService constructs an AllocatorService.
func NewAllocatorService(gateway Gateway) *AllocatorService {
	return &AllocatorService{gateway: gateway}
}

// AutoBind allocates a tag of the product's preferred size and pushes the
// binding to the vendor. No-ops when the product has no size, already holds
// a tag, or no free tag exists; scarcity is logged, never an error. The
// returned error is reserved for storage failures and auth failures, which
// abort the surrounding transaction.
func (a *AllocatorService) AutoBind(ctx context.Context, tx repository.SyncTx, p *models.Product, goodsID string) error {
	if p.PreferredTagSize == "" || goodsID == "" {
		return nil
	}

	bound, err := tx.BoundTag(p.ID)
	if err != nil {
		return err
	}
	if bound != nil {
		return nil
	}

	tag, err := tx.ClaimFreeTag(p.PreferredTagSize)
	if err != nil {
		return err
	}
	if tag == nil {
		total, _, err := tx.CountTagsBySize(p.PreferredTagSize)
		if err != nil {
			return err
		}
		if total == 0 {
			log.Warn().Str("size", p.PreferredTagSize).Str("barcode", p.Barcode).
				Msg("no tags of this size provisioned, product left waiting")
		} else {
			log.Warn().Str("size", p.PreferredTagSize).Str("barcode", p.Barcode).Int("total", total).
				Msg("all tags of this size occupied, product left waiting")
		}
		return nil
	}

	ok, err := a.gateway.BindTag(ctx, tag.TagID, tag.TemplateID, tag.StationID, goodsID)
	if err != nil {
		return err
	}
	if !ok {
		// Leave the tag free; the row lock releases with the transaction.
		log.Error().Str("tag", tag.TagID).Str("barcode", p.Barcode).
			Msg("vendor refused tag binding, allocation rolled back")
		return nil
	}

	if err := tx.BindTag(tag.ID, p.ID, goodsID, p.Name); err != nil {
		return err
	}
	p.BoundTagID = &tag.ID
	log.Info().Str("tag", tag.TagID).Str("size", tag.TagSize).Str("barcode", p.Barcode).
		Msg("tag bound to product")
	return nil
}
