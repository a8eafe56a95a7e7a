package service

import (
	"context"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/pkg/sunlux"
)

// Gateway is the vendor API surface the engine depends on. *sunlux.Client
// satisfies it; tests substitute fakes.
type Gateway interface {
	Configured() bool
	Authenticate(ctx context.Context, force bool) (string, error)
	PushFull(ctx context.Context, goods []sunlux.Goods, ref sunlux.CallRef) (*sunlux.BatchResult, error)
	PushPrices(ctx context.Context, prices []sunlux.PriceUpdate, ref sunlux.CallRef) (*sunlux.BatchResult, error)
	LookupGoodsID(ctx context.Context, barcode string) (string, error)
	ListTags(ctx context.Context, pageSize int) ([]sunlux.TagRecord, error)
	BindTag(ctx context.Context, tagID, templateID, stationID, goodsID string) (bool, error)
	ClearToken(ctx context.Context)
}
