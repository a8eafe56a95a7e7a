package models

import (
	"strings"
	"time"
)

// Vendor tag status values. The vendor reports status as "0" (online) or
// "1" (offline); stored verbatim so ORDER BY status ASC keeps online tags
// first during allocation.
const (
	TagOnline  = "0"
	TagOffline = "1"
)

// TagSizeOther is the fallback size for resolutions that match no known size.
const TagSizeOther = "other"

// KnownTagSizes lists the supported screen sizes in the order they are
// matched against the vendor's resolution description.
var KnownTagSizes = []string{"2.13", "2.66", "2.9", "4.2", "7.5"}

// TagSizeFromResolution classifies a free-text resolution description into
// one of the known tag sizes by substring match, defaulting to "other".
func TagSizeFromResolution(desc string) string {
	for _, size := range KnownTagSizes {
		if strings.Contains(desc, size) {
			return size
		}
	}
	return TagSizeOther
}

// IsKnownTagSize reports whether s is one of the supported screen sizes.
func IsKnownTagSize(s string) bool {
	for _, size := range KnownTagSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Tag represents one physical ESL device as last fetched from the vendor.
type Tag struct {
	ID             int64  `db:"id" json:"id"`
	TagID          string `db:"tag_id" json:"tagId"`
	TagCode        string `db:"tag_code" json:"tagCode"`
	StationID      string `db:"station_id" json:"stationId"`
	StationName    string `db:"station_name" json:"stationName"`
	TemplateID     string `db:"template_id" json:"templateId"`
	TemplateName   string `db:"template_name" json:"templateName"`
	ResolutionID   string `db:"resolution_id" json:"resolutionId"`
	ResolutionDesc string `db:"resolution_desc" json:"resolutionDesc"`
	TagSize        string `db:"tag_size" json:"tagSize"`
	Status         string `db:"status" json:"status"`
	BindMode       string `db:"bind_mode" json:"bindMode"`

	// Snapshot of whatever the vendor reports is currently shown; may lag
	// the product's true state.
	CurrentGoodsID   string `db:"current_goods_id" json:"currentGoodsId"`
	CurrentGoodsName string `db:"current_goods_name" json:"currentGoodsName"`

	ProductID *int64    `db:"product_id" json:"productId,omitempty"`
	FetchedAt time.Time `db:"fetched_at" json:"fetchedAt"`

	// Populated via join when listing occupied tags.
	OwnerName *string `db:"owner_name" json:"ownerName,omitempty"`
}

// Bindable reports whether the tag carries the hardware identifiers the
// vendor requires for binding. Tags fetched without a template or base
// station cannot be bound.
func (t *Tag) Bindable() bool {
	return t.TemplateID != "" && t.StationID != ""
}
