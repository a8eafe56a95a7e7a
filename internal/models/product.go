package models

import "time"

// TagStatus is the derived ESL state of a product, computed from its sync
// flag, remote goods id and tag binding.
type TagStatus string

const (
	TagStatusBound     TagStatus = "bound"
	TagStatusWaiting   TagStatus = "waiting"
	TagStatusNotSynced TagStatus = "not_synced"
)

// Product represents a catalog product and its ESL bookkeeping state.
// Fields are tagged for both DB scanning and JSON serialization.
type Product struct {
	ID            int64   `db:"id" json:"id"`
	Barcode       string  `db:"barcode" json:"barcode"`
	Name          string  `db:"name" json:"name"`
	ListPrice     float64 `db:"list_price" json:"listPrice"`
	OriginalPrice float64 `db:"original_price" json:"originalPrice"`
	SalesUnit     string  `db:"sales_unit" json:"salesUnit"`
	SKU           string  `db:"sku" json:"sku"`
	Category      string  `db:"category" json:"category"`
	Stock         int     `db:"stock" json:"stock"`

	SyncEnabled      bool       `db:"esl_sync_enabled" json:"eslSyncEnabled"`
	PreferredTagSize string     `db:"preferred_tag_size" json:"preferredTagSize"`
	RemoteGoodsID    string     `db:"remote_goods_id" json:"remoteGoodsId"`
	LastSyncAt       *time.Time `db:"last_sync_at" json:"lastSyncAt,omitempty"`
	BoundTagID       *int64     `db:"bound_tag_id" json:"boundTagId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// EslStatus derives the user-facing tag status of the product.
func (p *Product) EslStatus() TagStatus {
	switch {
	case !p.SyncEnabled:
		return TagStatusNotSynced
	case p.BoundTagID != nil:
		return TagStatusBound
	case p.RemoteGoodsID != "" && p.PreferredTagSize != "":
		return TagStatusWaiting
	default:
		return TagStatusNotSynced
	}
}

// RetailPrice returns the price pushed as retailPrice: the original price
// when it is set above the current list price, so the tag renders a
// strikethrough discount; otherwise the current list price.
func (p *Product) RetailPrice() float64 {
	if p.OriginalPrice > 0 && p.OriginalPrice > p.ListPrice {
		return p.OriginalPrice
	}
	return p.ListPrice
}
