package sunlux

import (
	"encoding/json"
)

// FlexString decodes a JSON value that the vendor serializes inconsistently
// as either a string or a number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

func (f FlexString) String() string { return string(f) }

// envelope is the common response wrapper: code 200 means success even when
// the HTTP status differs, and rows may arrive under "rows" or "data".
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
	Rows json.RawMessage `json:"rows"`
}

// payload returns whichever of rows/data is populated.
func (e *envelope) payload() json.RawMessage {
	if len(e.Rows) > 0 && string(e.Rows) != "null" {
		return e.Rows
	}
	return e.Data
}

// tokenData is the auth response body: a bearer token and its lifetime in
// minutes (vendor default 1440).
type tokenData struct {
	Token  string `json:"token"`
	Expire int    `json:"expire"`
}

// batchData is the batch-edit / batch-price response body.
type batchData struct {
	Suc []sucRow `json:"suc"`
	Msg []msgRow `json:"msg"`
}

type sucRow struct {
	BarCode FlexString `json:"barCode"`
	GoodsID FlexString `json:"goodsId"`
}

type msgRow struct {
	Row  FlexString `json:"row"`
	Code FlexString `json:"code"`
	Tip  string     `json:"tip"`
}

// AcceptedRow is one record the vendor accepted in a batch push.
type AcceptedRow struct {
	BarCode string
	GoodsID string
}

// RejectedRow is one record the vendor rejected, with the vendor's row
// reference (e.g. "ROW_1"), error code and human-readable tip.
type RejectedRow struct {
	Row  string
	Code string
	Tip  string
}

// BatchResult is the structured outcome of a batch push. Transport failures
// surface as a rejected row carrying the failure reason, never as an error,
// so callers always receive a result they can iterate.
type BatchResult struct {
	Accepted []AcceptedRow
	Rejected []RejectedRow
}

func (d *batchData) result() *BatchResult {
	res := &BatchResult{}
	for _, r := range d.Suc {
		res.Accepted = append(res.Accepted, AcceptedRow{BarCode: r.BarCode.String(), GoodsID: r.GoodsID.String()})
	}
	for _, r := range d.Msg {
		res.Rejected = append(res.Rejected, RejectedRow{Row: r.Row.String(), Code: r.Code.String(), Tip: r.Tip})
	}
	return res
}

// goodsRow is one record of the goods list endpoint, used for recovery
// lookups by barcode.
type goodsRow struct {
	BarCode FlexString `json:"barCode"`
	GoodsID FlexString `json:"goodsId"`
}

// TagRecord is one physical tag as reported by the vendor tag list.
type TagRecord struct {
	TagID          FlexString `json:"tagId"`
	TagCode        FlexString `json:"tagCode"`
	StationID      FlexString `json:"stationId"`
	StationNum     FlexString `json:"stationNum"`
	StationName    FlexString `json:"stationName"`
	TemplateID     FlexString `json:"templateId"`
	TemplateName   string     `json:"templateName"`
	ResolutionID   FlexString `json:"resolutionId"`
	ResolutionDesc string     `json:"resolutionDesc"`
	Status         FlexString `json:"status"`
	BindMode       FlexString `json:"bindMode"`
	GoodsList      []GoodsRef `json:"goodsList"`
	GoodsName      string     `json:"goodsName"`
}

// CurrentGoodsID returns the goods id currently shown on the tag, if any.
func (r *TagRecord) CurrentGoodsID() string {
	if len(r.GoodsList) == 0 {
		return ""
	}
	return r.GoodsList[0].Value.String()
}

// BaseStationName returns the station label, preferring stationNum the way
// the vendor's own UI does.
func (r *TagRecord) BaseStationName() string {
	if s := r.StationNum.String(); s != "" {
		return s
	}
	return r.StationName.String()
}
