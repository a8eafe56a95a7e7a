package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/repository"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/sse"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/pkg/sunlux"
)

// Recovery markers in vendor rejection rows. A row carrying one of these was
// persisted on the vendor side despite being reported as failed, so its
// goods id can be recovered with a lookup instead of a re-push.
const (
	recoveryTipMarker  = "WRITE TO DB"
	recoveryCodeMarker = "INVALID_KEY"
	rowRefPrefix       = "ROW_"
)

// SyncService pushes product state to the vendor cloud and records the
// resulting bookkeeping. One sync run is a single database transaction, so
// two overlapping runs over the same products contend on row locks; the
// loser retries on a fixed backoff.
type SyncService struct {
	gateway   Gateway
	store     repository.TxRunner
	allocator *AllocatorService
	notifier  sse.SyncNotifier

	retryAttempts int
	retryBackoff  time.Duration
}

// NewSyncService constructs a SyncService.
func NewSyncService(gateway Gateway, store repository.TxRunner, allocator *AllocatorService,
	notifier sse.SyncNotifier, retryAttempts int, retryBackoff time.Duration) *SyncService {
	if retryAttempts <= 0 {
		retryAttempts = 4
	}
	return &SyncService{
		gateway:       gateway,
		store:         store,
		allocator:     allocator,
		notifier:      notifier,
		retryAttempts: retryAttempts,
		retryBackoff:  retryBackoff,
	}
}

// SyncBackground runs one sync for the given products, retrying the whole
// unit of work on transient lock contention. Meant to run from the
// scheduler; all failures end in logs, never in a caller error.
func (s *SyncService) SyncBackground(ctx context.Context, productIDs []int64) {
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		synced, err := s.runOnce(ctx, productIDs)
		if err == nil {
			if synced {
				s.notifier.NotifyTagsRefreshed()
			}
			return
		}
		if !repository.IsTransientLockError(err) {
			log.Error().Err(err).Ints64("product_ids", productIDs).Msg("sync failed, not retryable")
			return
		}
		log.Warn().Err(err).Int("attempt", attempt).Ints64("product_ids", productIDs).
			Msg("sync hit lock contention")
		if attempt == s.retryAttempts {
			break
		}
		select {
		case <-time.After(s.retryBackoff):
		case <-ctx.Done():
			log.Warn().Ints64("product_ids", productIDs).Msg("sync cancelled during backoff")
			return
		}
	}
	log.Error().Int("attempts", s.retryAttempts).Ints64("product_ids", productIDs).
		Msg("sync abandoned after repeated lock contention")
}

// runOnce performs one sync attempt, reporting whether any product actually
// qualified for a push so callers can stay silent on empty runs.
func (s *SyncService) runOnce(ctx context.Context, productIDs []int64) (bool, error) {
	synced := false
	err := s.store.InTransaction(ctx, func(tx repository.SyncTx) error {
		products, err := tx.ProductsByIDs(productIDs)
		if err != nil {
			return err
		}

		var fresh, known []models.Product
		for _, p := range products {
			if !p.SyncEnabled || p.Barcode == "" {
				continue
			}
			if p.RemoteGoodsID == "" {
				fresh = append(fresh, p)
			} else {
				known = append(known, p)
			}
		}
		if len(fresh) == 0 && len(known) == 0 {
			log.Debug().Ints64("product_ids", productIDs).Msg("nothing to sync")
			return nil
		}
		synced = true

		if len(fresh) > 0 {
			if err := s.pushFull(ctx, tx, fresh); err != nil {
				return err
			}
		}
		if len(known) > 0 {
			if err := s.pushPrices(ctx, tx, known); err != nil {
				return err
			}
		}
		return nil
	})
	return synced && err == nil, err
}

// pushFull registers products the vendor has never seen, records the goods
// ids it assigns, and allocates tags for the successful ones.
func (s *SyncService) pushFull(ctx context.Context, tx repository.SyncTx, products []models.Product) error {
	goods := make([]sunlux.Goods, len(products))
	byBarcode := make(map[string]*models.Product, len(products))
	for i := range products {
		goods[i] = buildGoods(&products[i])
		byBarcode[products[i].Barcode] = &products[i]
	}

	ref := callRef(products)
	result, err := s.gateway.PushFull(ctx, goods, ref)
	if err != nil {
		return err
	}

	for _, row := range result.Accepted {
		p, ok := byBarcode[row.BarCode]
		if !ok || row.GoodsID == "" {
			continue
		}
		if err := s.recordGoods(ctx, tx, p, row.GoodsID); err != nil {
			return err
		}
	}

	for _, row := range result.Rejected {
		p := s.recoverProduct(row, products, byBarcode)
		if p == nil {
			log.Error().Str("row", row.Row).Str("code", row.Code).Str("tip", row.Tip).
				Msg("vendor rejected product record")
			continue
		}
		goodsID, err := s.gateway.LookupGoodsID(ctx, p.Barcode)
		if err != nil {
			return err
		}
		if goodsID == "" {
			log.Warn().Str("barcode", p.Barcode).Str("tip", row.Tip).
				Msg("rejected record looked persisted but lookup found no goods id")
			continue
		}
		log.Info().Str("barcode", p.Barcode).Str("goods_id", goodsID).
			Msg("recovered goods id from rejected row")
		if err := s.recordGoods(ctx, tx, p, goodsID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncService) recordGoods(ctx context.Context, tx repository.SyncTx, p *models.Product, goodsID string) error {
	if err := tx.SetRemoteGoods(p.ID, goodsID); err != nil {
		return err
	}
	p.RemoteGoodsID = goodsID
	return s.allocator.AutoBind(ctx, tx, p, goodsID)
}

// pushPrices refreshes prices for products the vendor already knows, then
// fills any missing tag allocation for them.
func (s *SyncService) pushPrices(ctx context.Context, tx repository.SyncTx, products []models.Product) error {
	prices := make([]sunlux.PriceUpdate, len(products))
	byBarcode := make(map[string]*models.Product, len(products))
	for i := range products {
		p := &products[i]
		prices[i] = sunlux.PriceUpdate{
			BarCode:     p.Barcode,
			RetailPrice: p.RetailPrice(),
			MemberPrice: p.ListPrice,
			SalePrice:   p.ListPrice,
		}
		byBarcode[p.Barcode] = p
	}

	result, err := s.gateway.PushPrices(ctx, prices, callRef(products))
	if err != nil {
		return err
	}

	for _, row := range result.Accepted {
		p, ok := byBarcode[row.BarCode]
		if !ok {
			continue
		}
		if err := tx.TouchLastSync(p.ID); err != nil {
			return err
		}
		if p.BoundTagID == nil {
			if err := s.allocator.AutoBind(ctx, tx, p, p.RemoteGoodsID); err != nil {
				return err
			}
		}
	}
	for _, row := range result.Rejected {
		log.Warn().Str("row", row.Row).Str("code", row.Code).Str("tip", row.Tip).
			Msg("vendor rejected price update")
	}
	return nil
}

// recoverProduct maps a rejection row back to the product it refers to, but
// only when the row carries a marker showing the vendor persisted the record
// anyway. The tip sometimes quotes the barcode; otherwise the positional
// "ROW_n" reference indexes into the request order.
func (s *SyncService) recoverProduct(row sunlux.RejectedRow, ordered []models.Product, byBarcode map[string]*models.Product) *models.Product {
	persisted := strings.Contains(strings.ToUpper(row.Tip), recoveryTipMarker) ||
		strings.Contains(strings.ToUpper(row.Code), recoveryCodeMarker)
	if !persisted {
		return nil
	}

	for barcode, p := range byBarcode {
		if strings.Contains(row.Tip, barcode) {
			return p
		}
	}
	if idx, ok := rowIndex(row.Row); ok && idx < len(ordered) {
		return byBarcode[ordered[idx].Barcode]
	}
	return nil
}

// rowIndex parses a vendor "ROW_n" reference into a zero-based index.
func rowIndex(ref string) (int, bool) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if !strings.HasPrefix(ref, rowRefPrefix) {
		return 0, false
	}
	n := 0
	digits := ref[len(rowRefPrefix):]
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 {
		return 0, false
	}
	return n - 1, true
}

func buildGoods(p *models.Product) sunlux.Goods {
	return sunlux.Goods{
		GoodsName:   p.Name,
		BarCode:     p.Barcode,
		RetailPrice: p.RetailPrice(),
		MemberPrice: p.ListPrice,
		SalePrice:   p.ListPrice,
		SalesUnit:   p.SalesUnit,
		SKU:         p.SKU,
		ItemNo:      p.SKU,
		Category:    p.Category,
		Stock:       p.Stock,
	}
}

// callRef links single-product pushes to the product in the audit log;
// batches stay anonymous.
func callRef(products []models.Product) sunlux.CallRef {
	if len(products) == 1 {
		return sunlux.CallRef{ProductID: &products[0].ID, ProductName: products[0].Name}
	}
	return sunlux.CallRef{}
}
