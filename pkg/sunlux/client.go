package sunlux

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Vendor endpoint paths, relative to the configured base URL.
const (
	pathToken      = "/epts-api/v2/sys/api/tToken"
	pathBatchEdit  = "/epts-api/goods/goods/batch/edit?light=0"
	pathBatchPrice = "/epts-api/goods/goods/batchPrice"
	pathGoodsList  = "/epts-api/goods/goods/list"
	pathTagList    = "/epts-api/priceTag/priceTag/list"
	pathTagBind    = "/epts-api/priceTag/priceTag/bound"
)

const (
	authTimeout = 15 * time.Second
	dataTimeout = 30 * time.Second

	// defaultExpireMinutes is assumed when the auth response omits expire.
	defaultExpireMinutes = 1440
)

// ErrNotConfigured is returned when a call is attempted before the vendor
// credentials are configured.
var ErrNotConfigured = errors.New("sunlux: API credentials not configured")

// Config carries the merchant credentials for the SUNLUX cloud API.
type Config struct {
	BaseURL string
	UID     string
	SID     string
	Key     string
}

// CallLog is the audit record emitted for every vendor call, including
// failures. EnvelopeCode is the vendor's application-level code (200 means
// success regardless of HTTP status); zero when no envelope was decoded.
type CallLog struct {
	Operation    string
	Endpoint     string
	RequestBody  []byte
	ResponseCode int
	ResponseBody []byte
	EnvelopeCode int
	ErrorMessage string
	Duration     time.Duration
	ProductID    *int64
	ProductName  string
}

// CallLogger receives one CallLog per vendor call. Implementations must not
// fail the call: logging is observational.
type CallLogger interface {
	LogCall(ctx context.Context, entry CallLog)
}

// CallRef optionally links a call's audit entry to catalog products.
type CallRef struct {
	ProductID   *int64
	ProductName string
}

// Client is the HTTP client for the SUNLUX ESL cloud API. Tokens come from
// the injected TokenCache; every request is measured and audited through the
// injected CallLogger.
type Client struct {
	cfg        Config
	authClient *http.Client
	dataClient *http.Client
	tokens     TokenCache
	logs       CallLogger
}

// NewClient constructs a Client. Authentication uses a short timeout, data
// operations a longer one.
func NewClient(cfg Config, tokens TokenCache, logs CallLogger) *Client {
	return &Client{
		cfg:        cfg,
		authClient: &http.Client{Timeout: authTimeout},
		dataClient: &http.Client{Timeout: dataTimeout},
		tokens:     tokens,
		logs:       logs,
	}
}

// Configured reports whether all four credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.BaseURL != "" && c.cfg.UID != "" && c.cfg.SID != "" && c.cfg.Key != ""
}

// sign generates the MD5 hex digest the vendor expects for token requests.
func sign(sid, key, uid string, timestamp int64) string {
	raw := fmt.Sprintf("sid=%s&key=%s&uid=%s&timestamp=%d", sid, key, uid, timestamp)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Authenticate returns a bearer token, reusing the cached one unless it is
// within the refresh margin of expiry. force bypasses the cache (used by
// connectivity tests). Authentication failure is a hard error: without a
// token no request can be signed.
func (c *Client) Authenticate(ctx context.Context, force bool) (string, error) {
	if !force {
		if token, ok := c.tokens.Token(ctx); ok {
			return token, nil
		}
	}
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	timestamp := time.Now().UnixMilli()
	payload := authRequest{
		UID:       c.cfg.UID,
		SID:       c.cfg.SID,
		Timestamp: timestamp,
		Sign:      sign(c.cfg.SID, c.cfg.Key, c.cfg.UID, timestamp),
	}
	body, _ := json.Marshal(payload)

	endpoint := c.cfg.BaseURL + pathToken
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("sunlux: build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.authClient.Do(req)
	if err != nil {
		c.logs.LogCall(ctx, CallLog{
			Operation:    "get_token",
			Endpoint:     endpoint,
			RequestBody:  body,
			ErrorMessage: err.Error(),
			Duration:     time.Since(start),
		})
		return "", fmt.Errorf("sunlux: auth request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		c.logs.LogCall(ctx, CallLog{
			Operation:    "get_token",
			Endpoint:     endpoint,
			RequestBody:  body,
			ResponseCode: resp.StatusCode,
			ErrorMessage: err.Error(),
			Duration:     duration,
		})
		return "", fmt.Errorf("sunlux: read auth response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		c.logs.LogCall(ctx, CallLog{
			Operation:    "get_token",
			Endpoint:     endpoint,
			RequestBody:  body,
			ResponseCode: resp.StatusCode,
			ResponseBody: respBody,
			ErrorMessage: err.Error(),
			Duration:     duration,
		})
		return "", fmt.Errorf("sunlux: decode auth response: %w", err)
	}

	c.logs.LogCall(ctx, CallLog{
		Operation:    "get_token",
		Endpoint:     endpoint,
		RequestBody:  body,
		ResponseCode: resp.StatusCode,
		ResponseBody: respBody,
		EnvelopeCode: env.Code,
		Duration:     duration,
	})

	if env.Code != 200 {
		return "", fmt.Errorf("sunlux: auth failed: %s", env.Msg)
	}

	var data tokenData
	if err := json.Unmarshal(env.payload(), &data); err != nil || data.Token == "" {
		return "", errors.New("sunlux: no token in auth response")
	}
	expire := data.Expire
	if expire <= 0 {
		expire = defaultExpireMinutes
	}
	c.tokens.Store(ctx, data.Token, time.Duration(expire)*time.Minute)
	return data.Token, nil
}

// PushFull sends complete product records to the batch-edit endpoint.
// Transport and envelope failures are folded into the result's rejected
// rows; only missing configuration or authentication failure is an error.
func (c *Client) PushFull(ctx context.Context, goods []Goods, ref CallRef) (*BatchResult, error) {
	return c.postBatch(ctx, "sync_product", pathBatchEdit, goods, ref)
}

// PushPrices sends price-only records to the batch-price endpoint. Failure
// semantics match PushFull.
func (c *Client) PushPrices(ctx context.Context, prices []PriceUpdate, ref CallRef) (*BatchResult, error) {
	return c.postBatch(ctx, "sync_price", pathBatchPrice, prices, ref)
}

func (c *Client) postBatch(ctx context.Context, operation, path string, payload any, ref CallRef) (*BatchResult, error) {
	token, err := c.Authenticate(ctx, false)
	if err != nil {
		return nil, err
	}

	body, _ := json.Marshal(payload)
	endpoint := c.cfg.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sunlux: build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.dataClient.Do(req)
	if err != nil {
		c.logs.LogCall(ctx, CallLog{
			Operation:    operation,
			Endpoint:     endpoint,
			RequestBody:  body,
			ErrorMessage: err.Error(),
			Duration:     time.Since(start),
			ProductID:    ref.ProductID,
			ProductName:  ref.ProductName,
		})
		return &BatchResult{Rejected: []RejectedRow{{Tip: err.Error()}}}, nil
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	duration := time.Since(start)

	var env envelope
	decodeErr := readErr
	if decodeErr == nil {
		decodeErr = json.Unmarshal(respBody, &env)
	}
	if decodeErr != nil {
		c.logs.LogCall(ctx, CallLog{
			Operation:    operation,
			Endpoint:     endpoint,
			RequestBody:  body,
			ResponseCode: resp.StatusCode,
			ResponseBody: respBody,
			ErrorMessage: decodeErr.Error(),
			Duration:     duration,
			ProductID:    ref.ProductID,
			ProductName:  ref.ProductName,
		})
		return &BatchResult{Rejected: []RejectedRow{{Tip: decodeErr.Error()}}}, nil
	}

	c.logs.LogCall(ctx, CallLog{
		Operation:    operation,
		Endpoint:     endpoint,
		RequestBody:  body,
		ResponseCode: resp.StatusCode,
		ResponseBody: respBody,
		EnvelopeCode: env.Code,
		Duration:     duration,
		ProductID:    ref.ProductID,
		ProductName:  ref.ProductName,
	})

	var data batchData
	if len(env.payload()) > 0 {
		// Best effort: a failed envelope may still carry partial results.
		_ = json.Unmarshal(env.payload(), &data)
	}
	result := data.result()
	if env.Code != 200 {
		log.Error().Str("operation", operation).Int("code", env.Code).Str("msg", env.Msg).Msg("sunlux batch call failed")
		result.Rejected = append(result.Rejected, RejectedRow{Code: strconv.Itoa(env.Code), Tip: env.Msg})
	}
	return result, nil
}

// LookupGoodsID resolves a barcode to the vendor's goods id via the goods
// list endpoint. Best effort: all failures yield an empty id.
func (c *Client) LookupGoodsID(ctx context.Context, barcode string) (string, error) {
	token, err := c.Authenticate(ctx, false)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s%s?barCode=%s&pageNum=1&pageSize=5", c.cfg.BaseURL, pathGoodsList, barcode)
	env, ok := c.getJSON(ctx, "lookup_goods", endpoint, token)
	if !ok || env.Code != 200 {
		return "", nil
	}

	var rows []goodsRow
	if err := json.Unmarshal(env.payload(), &rows); err != nil {
		log.Warn().Err(err).Str("barcode", barcode).Msg("sunlux goods lookup decode failed")
		return "", nil
	}
	for _, row := range rows {
		if row.BarCode.String() == barcode && row.GoodsID.String() != "" {
			return row.GoodsID.String(), nil
		}
	}
	return "", nil
}

// ListTags pages through the vendor tag list until a short page is returned.
func (c *Client) ListTags(ctx context.Context, pageSize int) ([]TagRecord, error) {
	token, err := c.Authenticate(ctx, false)
	if err != nil {
		return nil, err
	}

	var all []TagRecord
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s%s?pageNum=%d&pageSize=%d", c.cfg.BaseURL, pathTagList, page, pageSize)
		env, ok := c.getJSON(ctx, "fetch_tags", endpoint, token)
		if !ok {
			return nil, fmt.Errorf("sunlux: tag list request failed on page %d", page)
		}
		if env.Code != 200 {
			return nil, fmt.Errorf("sunlux: tag list failed: %s", env.Msg)
		}

		var batch []TagRecord
		if len(env.payload()) > 0 {
			if err := json.Unmarshal(env.payload(), &batch); err != nil {
				return nil, fmt.Errorf("sunlux: decode tag list page %d: %w", page, err)
			}
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}

// BindTag asks the vendor to display goodsID on the given tag. Vendor
// rejection and transport failures return false; only auth failure is an
// error.
func (c *Client) BindTag(ctx context.Context, tagID, templateID, stationID, goodsID string) (bool, error) {
	token, err := c.Authenticate(ctx, false)
	if err != nil {
		return false, err
	}

	payload := bindRequest{
		TagID:      tagID,
		TemplateID: templateID,
		StationID:  stationID,
		GoodsList:  []GoodsRef{{Label: "a", Value: FlexString(goodsID)}},
	}
	body, _ := json.Marshal(payload)

	endpoint := c.cfg.BaseURL + pathTagBind
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("sunlux: build bind request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.dataClient.Do(req)
	if err != nil {
		c.logs.LogCall(ctx, CallLog{
			Operation:    "bind_tag",
			Endpoint:     endpoint,
			RequestBody:  body,
			ErrorMessage: err.Error(),
			Duration:     time.Since(start),
		})
		return false, nil
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	duration := time.Since(start)

	var env envelope
	decodeErr := readErr
	if decodeErr == nil {
		decodeErr = json.Unmarshal(respBody, &env)
	}
	if decodeErr != nil {
		c.logs.LogCall(ctx, CallLog{
			Operation:    "bind_tag",
			Endpoint:     endpoint,
			RequestBody:  body,
			ResponseCode: resp.StatusCode,
			ResponseBody: respBody,
			ErrorMessage: decodeErr.Error(),
			Duration:     duration,
		})
		return false, nil
	}

	c.logs.LogCall(ctx, CallLog{
		Operation:    "bind_tag",
		Endpoint:     endpoint,
		RequestBody:  body,
		ResponseCode: resp.StatusCode,
		ResponseBody: respBody,
		EnvelopeCode: env.Code,
		Duration:     duration,
	})

	if env.Code != 200 {
		log.Error().Str("tag_id", tagID).Str("msg", env.Msg).Msg("sunlux bind_tag failed")
		return false, nil
	}
	return true, nil
}

// getJSON performs a logged, authorized GET and decodes the envelope.
// ok=false means the request or decoding failed (already logged).
func (c *Client) getJSON(ctx context.Context, operation, endpoint, token string) (*envelope, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.dataClient.Do(req)
	if err != nil {
		c.logs.LogCall(ctx, CallLog{
			Operation:    operation,
			Endpoint:     endpoint,
			ErrorMessage: err.Error(),
			Duration:     time.Since(start),
		})
		return nil, false
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	duration := time.Since(start)

	var env envelope
	decodeErr := readErr
	if decodeErr == nil {
		decodeErr = json.Unmarshal(respBody, &env)
	}
	if decodeErr != nil {
		c.logs.LogCall(ctx, CallLog{
			Operation:    operation,
			Endpoint:     endpoint,
			ResponseCode: resp.StatusCode,
			ResponseBody: respBody,
			ErrorMessage: decodeErr.Error(),
			Duration:     duration,
		})
		return nil, false
	}

	c.logs.LogCall(ctx, CallLog{
		Operation:    operation,
		Endpoint:     endpoint,
		ResponseCode: resp.StatusCode,
		ResponseBody: respBody,
		EnvelopeCode: env.Code,
		Duration:     duration,
	})
	return &env, true
}

// ClearToken drops the cached token so the next call re-authenticates.
func (c *Client) ClearToken(ctx context.Context) {
	c.tokens.Clear(ctx)
}
