package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/models"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/repository"
	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/internal/utils"
)

// PreviewKind classifies what a reassignment to the requested size would do.
type PreviewKind string

const (
	// PreviewNoneProvisioned means no tag of the size exists at all.
	PreviewNoneProvisioned PreviewKind = "none_provisioned"
	// PreviewNoConflict means a free tag is available.
	PreviewNoConflict PreviewKind = "no_conflict"
	// PreviewConflict means every tag of the size is occupied and one
	// owner would be displaced.
	PreviewConflict PreviewKind = "conflict"
)

// ReassignPreview describes the consequences of moving a product to a new
// tag size before the operator confirms.
type ReassignPreview struct {
	Kind          PreviewKind `json:"kind"`
	Size          string      `json:"size"`
	TotalTags     int         `json:"totalTags"`
	FreeTags      int         `json:"freeTags"`
	DisplacedName string      `json:"displacedName,omitempty"`
	DisplacedTag  string      `json:"displacedTag,omitempty"`
	Summary       string      `json:"summary"`
}

// ReassignService moves a product between tag sizes, displacing another
// product's tag when the target size is fully occupied.
type ReassignService struct {
	store   repository.TxRunner
	trigger *TriggerService

	targetDelay    time.Duration
	displacedDelay time.Duration
}

// NewReassignService constructs a ReassignService.
func NewReassignService(store repository.TxRunner, trigger *TriggerService,
	targetDelay, displacedDelay time.Duration) *ReassignService {
	return &ReassignService{
		store:          store,
		trigger:        trigger,
		targetDelay:    targetDelay,
		displacedDelay: displacedDelay,
	}
}

// Preview reports what reassigning the product to size would entail.
func (s *ReassignService) Preview(ctx context.Context, productID int64, size string) (*ReassignPreview, error) {
	if !models.IsKnownTagSize(size) && size != models.TagSizeOther {
		return nil, utils.ErrInvalidTagSize
	}

	preview := &ReassignPreview{Size: size}
	err := s.store.InTransaction(ctx, func(tx repository.SyncTx) error {
		product, err := tx.ProductByID(productID)
		if err != nil {
			return err
		}

		total, free, err := tx.CountTagsBySize(size)
		if err != nil {
			return err
		}
		preview.TotalTags = total
		preview.FreeTags = free

		// A tag the product already owns counts as available, same as the
		// confirm path.
		available, err := tx.FreeTagExists(size, productID)
		if err != nil {
			return err
		}

		switch {
		case total == 0:
			preview.Kind = PreviewNoneProvisioned
			preview.Summary = fmt.Sprintf("No %s\" tags are provisioned. %s will wait until one is fetched.", size, product.Name)
		case available:
			preview.Kind = PreviewNoConflict
			if free > 0 {
				preview.Summary = fmt.Sprintf("%d free %s\" tag(s) available. %s will bind on next sync.", free, size, product.Name)
			} else {
				preview.Summary = fmt.Sprintf("%s already holds a %s\" tag and will keep it.", product.Name, size)
			}
		default:
			occupied, err := tx.OccupiedTagsOfSize(size, productID)
			if err != nil {
				return err
			}
			candidate := PickDisplacementCandidate(occupied)
			preview.Kind = PreviewConflict
			holders := occupantNames(occupied)
			if candidate != nil {
				preview.DisplacedTag = candidate.TagID
				if candidate.OwnerName != nil {
					preview.DisplacedName = *candidate.OwnerName
				}
				preview.Summary = fmt.Sprintf("All %d %s\" tags are occupied (held by %s). Confirming will take tag %s from %s.",
					total, size, holders, candidate.TagID, preview.DisplacedName)
			} else {
				preview.Summary = fmt.Sprintf("All %d %s\" tags are occupied (held by %s) and none can be reassigned.",
					total, size, holders)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return preview, nil
}

// Reassign moves the product to the new size: its current tag is released,
// the preferred size recorded, and syncs scheduled for the product and,
// when a displacement happened, for the previous owner. The availability
// check is redone under locks, so a tag freed since the preview is used
// instead of displacing anyone.
func (s *ReassignService) Reassign(ctx context.Context, productID int64, size string) error {
	if !models.IsKnownTagSize(size) && size != models.TagSizeOther {
		return utils.ErrInvalidTagSize
	}

	var displaced *models.Product
	err := s.store.InTransaction(ctx, func(tx repository.SyncTx) error {
		displaced = nil
		product, err := tx.ProductByID(productID)
		if err != nil {
			return err
		}

		current, err := tx.BoundTag(productID)
		if err != nil {
			return err
		}

		free, err := tx.FreeTagExists(size, productID)
		if err != nil {
			return err
		}
		if !free {
			occupied, err := tx.OccupiedTagsOfSize(size, productID)
			if err != nil {
				return err
			}
			candidate := PickDisplacementCandidate(occupied)
			if candidate == nil {
				log.Warn().Int64("product_id", productID).Str("size", size).
					Msg("no tag of requested size to displace, product will wait")
			} else {
				ownerID := *candidate.ProductID
				if err := tx.ReleaseTag(candidate.ID); err != nil {
					return err
				}
				owner, err := tx.ProductByID(ownerID)
				if err != nil {
					return err
				}
				displaced = owner
				log.Info().Str("tag", candidate.TagID).Str("from", owner.Name).Str("to", product.Name).
					Msg("displacing tag owner for reassignment")
			}
		}

		if current != nil {
			if err := tx.ReleaseTag(current.ID); err != nil {
				return err
			}
		}
		// Drop the vendor identity so the scheduled job re-registers the
		// product in full instead of pushing a price update.
		if err := tx.ClearRemoteGoods(productID); err != nil {
			return err
		}
		return tx.SetPreferredSize(productID, size)
	})
	if err != nil {
		return err
	}

	s.trigger.ScheduleSyncAfter([]int64{productID}, s.targetDelay)
	if displaced != nil && displaced.SyncEnabled {
		s.trigger.ScheduleSyncAfter([]int64{displaced.ID}, s.displacedDelay)
	}
	return nil
}

// occupantNames renders the owners of a set of occupied tags for the
// preview summary, deduplicated in tag order.
func occupantNames(occupied []models.Tag) string {
	var names []string
	seen := make(map[string]bool)
	for i := range occupied {
		name := "unknown"
		if occupied[i].OwnerName != nil {
			name = *occupied[i].OwnerName
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// PickDisplacementCandidate chooses which occupied tag to take: the first
// bindable one in online-first id order, falling back to the first overall
// so the preview can still name an owner.
func PickDisplacementCandidate(occupied []models.Tag) *models.Tag {
	for i := range occupied {
		if occupied[i].Bindable() {
			return &occupied[i]
		}
	}
	if len(occupied) > 0 {
		return &occupied[0]
	}
	return nil
}
