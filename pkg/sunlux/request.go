package sunlux

// authRequest is the token acquisition payload. The sign is an MD5 hex digest
// of "sid={sid}&key={key}&uid={uid}&timestamp={timestamp}".
type authRequest struct {
	UID       string `json:"uid"`
	SID       string `json:"sid"`
	Timestamp int64  `json:"timestamp"`
	Sign      string `json:"sign"`
}

// Goods is one product record for the batch-edit (full sync) endpoint.
// The trailing empty fields are required by the vendor schema but unused
// by this integration.
type Goods struct {
	GoodsName   string  `json:"goodsName"`
	BarCode     string  `json:"barCode"`
	RetailPrice float64 `json:"retailPrice"`
	MemberPrice float64 `json:"memberPrice"`
	SalePrice   float64 `json:"salePrice"`
	SalesUnit   string  `json:"salesUnit"`
	SKU         string  `json:"sku"`
	ItemNo      string  `json:"itemNo"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`

	QrcodeURL      string `json:"qrcodeUrl"`
	GoodsPhoto     string `json:"goodsPhoto"`
	Specif         string `json:"specif"`
	Grade          string `json:"grade"`
	Origin         string `json:"origin"`
	Model          string `json:"model"`
	PromotionBegin string `json:"promotionBegin"`
	PromotionEnd   string `json:"promotionEnd"`
	ProductionDate string `json:"productionDate"`
	Warehouse      string `json:"warehouse"`
	FreightSpace   string `json:"freightSpace"`
	ShelfLife      string `json:"shelfLife"`
	Mode           string `json:"mode"`
	Supplier       string `json:"supplier"`
	Department     string `json:"department"`
	ExtendParams   string `json:"extendParams"`
}

// PriceUpdate is one record for the batch-price (price-only sync) endpoint.
type PriceUpdate struct {
	BarCode     string  `json:"barCode"`
	RetailPrice float64 `json:"retailPrice"`
	MemberPrice float64 `json:"memberPrice"`
	SalePrice   float64 `json:"salePrice"`
}

// bindRequest is the tag bind payload. The vendor expects the goods id under
// a single-element goodsList with label "a".
type bindRequest struct {
	TagID      string     `json:"tagId"`
	TemplateID string     `json:"templateId"`
	StationID  string     `json:"stationId"`
	GoodsList  []GoodsRef `json:"goodsList"`
}

// GoodsRef is a labeled goods id slot on a tag.
type GoodsRef struct {
	Label string     `json:"label"`
	Value FlexString `json:"value"`
}
