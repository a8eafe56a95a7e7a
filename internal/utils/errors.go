package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrProductNotFound    = errors.New("PRODUCT_NOT_FOUND")
	ErrTagNotFound        = errors.New("TAG_NOT_FOUND")
	ErrSyncDisabled       = errors.New("SYNC_DISABLED")
	ErrNoGoodsID          = errors.New("NO_GOODS_ID")
	ErrTagNotBindable     = errors.New("TAG_NOT_BINDABLE")
	ErrBindRejected       = errors.New("BIND_REJECTED")
	ErrInvalidTagSize     = errors.New("INVALID_TAG_SIZE")
	ErrDuplicateBarcode   = errors.New("DUPLICATE_BARCODE")
)
