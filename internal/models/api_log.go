package models

import "time"

// APILogOperation enumerates the vendor operations recorded in the audit log.
type APILogOperation string

const (
	OpGetToken    APILogOperation = "get_token"
	OpSyncProduct APILogOperation = "sync_product"
	OpSyncPrice   APILogOperation = "sync_price"
	OpLookupGoods APILogOperation = "lookup_goods"
	OpFetchTags   APILogOperation = "fetch_tags"
	OpBindTag     APILogOperation = "bind_tag"
)

// APILogStatus is the derived outcome of a vendor call.
type APILogStatus string

const (
	APILogSuccess APILogStatus = "success"
	APILogWarning APILogStatus = "warning"
	APILogError   APILogStatus = "error"
)

// APICallLog is one append-only audit record of a vendor API call. Written
// for every call, including failures; never read by allocation logic.
type APICallLog struct {
	ID           int64           `db:"id" json:"id"`
	Operation    APILogOperation `db:"operation" json:"operation"`
	ProductID    *int64          `db:"product_id" json:"productId,omitempty"`
	ProductName  string          `db:"product_name" json:"productName"`
	Endpoint     string          `db:"endpoint" json:"endpoint"`
	RequestData  string          `db:"request_data" json:"requestData"`
	ResponseCode *int            `db:"response_code" json:"responseCode,omitempty"`
	ResponseData string          `db:"response_data" json:"responseData"`
	Status       APILogStatus    `db:"status" json:"status"`
	ErrorMessage string          `db:"error_message" json:"errorMessage"`
	DurationMs   int64           `db:"duration_ms" json:"durationMs"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}
