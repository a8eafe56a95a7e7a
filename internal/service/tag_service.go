package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/repository"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/sse"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// FetchResult summarizes one tag inventory refresh.
type FetchResult struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// TagService mirrors the vendor's tag inventory locally and handles manual
// binding.
type TagService struct {
	gateway  Gateway
	repo     *repository.TagRepository
	store    repository.TxRunner
	notifier sse.SyncNotifier

	pageSize int
}

// NewTagService constructs a TagService.
func NewTagService(gateway Gateway, repo *repository.TagRepository, store repository.TxRunner,
	notifier sse.SyncNotifier, pageSize int) *TagService {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &TagService{gateway: gateway, repo: repo, store: store, notifier: notifier, pageSize: pageSize}
}

// List returns locally mirrored tags with filters and pagination.
func (s *TagService) List(size, status string, freeOnly bool, page, limit int) ([]models.Tag, int, error) {
	return s.repo.ListPaged(size, status, freeOnly, page, limit)
}

// CountBySize returns per-size (total, free) tag counts.
func (s *TagService) CountBySize() (map[string][2]int, error) {
	return s.repo.CountBySize()
}

// FetchTags pulls the full tag inventory from the vendor and upserts it,
// classifying each tag's screen size from its resolution description.
// Existing product allocations survive the refresh.
func (s *TagService) FetchTags(ctx context.Context) (*FetchResult, error) {
	records, err := s.gateway.ListTags(ctx, s.pageSize)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{Total: len(records)}
	for i := range records {
		r := &records[i]
		tag := models.Tag{
			TagID:            r.TagID.String(),
			TagCode:          r.TagCode.String(),
			StationID:        r.StationID.String(),
			StationName:      r.BaseStationName(),
			TemplateID:       r.TemplateID.String(),
			TemplateName:     r.TemplateName,
			ResolutionID:     r.ResolutionID.String(),
			ResolutionDesc:   r.ResolutionDesc,
			TagSize:          models.TagSizeFromResolution(r.ResolutionDesc),
			Status:           r.Status.String(),
			BindMode:         r.BindMode.String(),
			CurrentGoodsID:   r.CurrentGoodsID(),
			CurrentGoodsName: r.GoodsName,
		}
		if tag.TagID == "" {
			continue
		}
		inserted, err := s.repo.Upsert(&tag)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.Created++
		} else {
			result.Updated++
		}
	}

	log.Info().Int("total", result.Total).Int("created", result.Created).Int("updated", result.Updated).
		Msg("tag inventory refreshed")
	s.notifier.NotifyTagsRefreshed()
	return result, nil
}

// ManualBind binds a specific tag to a specific product, overriding the
// allocator's choice. The product must already exist on the vendor side and
// the tag must carry its hardware identifiers. Any previous allocation on
// either side is released first.
func (s *TagService) ManualBind(ctx context.Context, tagID, productID int64) error {
	err := s.store.InTransaction(ctx, func(tx repository.SyncTx) error {
		product, err := tx.ProductByID(productID)
		if err != nil {
			return err
		}
		if product.RemoteGoodsID == "" {
			return utils.ErrNoGoodsID
		}

		tag, err := s.repo.GetByID(tagID)
		if err != nil {
			return err
		}
		if !tag.Bindable() {
			return utils.ErrTagNotBindable
		}

		if err := tx.ReleaseTag(tag.ID); err != nil {
			return err
		}
		if err := tx.ClearProductBinding(productID); err != nil {
			return err
		}

		ok, err := s.gateway.BindTag(ctx, tag.TagID, tag.TemplateID, tag.StationID, product.RemoteGoodsID)
		if err != nil {
			return err
		}
		if !ok {
			return utils.ErrBindRejected
		}
		return tx.BindTag(tag.ID, productID, product.RemoteGoodsID, product.Name)
	})
	if err != nil {
		return err
	}
	s.notifier.NotifyTagsRefreshed()
	return nil
}
