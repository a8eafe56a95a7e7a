package sunlux

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu      sync.Mutex
	entries []CallLog
}

func (l *recordingLogger) LogCall(ctx context.Context, entry CallLog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *recordingLogger) byOperation(op string) []CallLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []CallLog
	for _, e := range l.entries {
		if e.Operation == op {
			out = append(out, e)
		}
	}
	return out
}

func testClient(t *testing.T, handler http.Handler) (*Client, *recordingLogger) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logs := &recordingLogger{}
	client := NewClient(Config{
		BaseURL: srv.URL,
		UID:     "uid-1",
		SID:     "sid-1",
		Key:     "key-1",
	}, NewMemoryTokenCache(), logs)
	return client, logs
}

func authOK(t *testing.T, w http.ResponseWriter, r *http.Request) {
	t.Helper()
	var req struct {
		UID       string `json:"uid"`
		SID       string `json:"sid"`
		Timestamp int64  `json:"timestamp"`
		Sign      string `json:"sign"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	assert.Equal(t, "uid-1", req.UID)
	assert.Equal(t, "sid-1", req.SID)
	assert.Equal(t, sign("sid-1", "key-1", "uid-1", req.Timestamp), req.Sign)

	fmt.Fprint(w, `{"code":200,"msg":"ok","data":{"token":"tok-abc","expire":60}}`)
}

func TestSignDigest(t *testing.T) {
	// md5 of "sid=s&key=k&uid=u&timestamp=1700000000000"
	assert.Equal(t, "5258f5cf41e69050ad0e78dc0be90170", sign("s", "k", "u", 1700000000000))
	assert.NotEqual(t, sign("s", "k", "u", 1), sign("s", "k", "u", 2))
}

func TestAuthenticateCachesToken(t *testing.T) {
	var authCalls int
	client, logs := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, pathToken, r.URL.Path)
		authCalls++
		authOK(t, w, r)
	}))

	token, err := client.Authenticate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)

	_, err = client.Authenticate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, authCalls, "second call must hit the cache")

	_, err = client.Authenticate(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, authCalls, "force bypasses the cache")

	require.Len(t, logs.byOperation("get_token"), 2)
}

func TestAuthenticateRejectsVendorFailure(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":401,"msg":"bad sign"}`)
	}))

	_, err := client.Authenticate(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad sign")
}

func TestAuthenticateRequiresConfiguration(t *testing.T) {
	client := NewClient(Config{}, NewMemoryTokenCache(), &recordingLogger{})
	_, err := client.Authenticate(context.Background(), false)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPushFullParsesBatchOutcome(t *testing.T) {
	client, logs := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathToken {
			authOK(t, w, r)
			return
		}
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"code":200,"msg":"ok","data":{
            "suc":[{"barCode":"B1","goodsId":12345}],
            "msg":[{"row":"ROW_2","code":"E1","tip":"bad record"}]}}`)
	}))

	result, err := client.PushFull(context.Background(), []Goods{{BarCode: "B1"}, {BarCode: "B2"}}, CallRef{})
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	assert.Equal(t, "B1", result.Accepted[0].BarCode)
	assert.Equal(t, "12345", result.Accepted[0].GoodsID, "numeric goods ids decode as strings")
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "ROW_2", result.Rejected[0].Row)

	entries := logs.byOperation("sync_product")
	require.Len(t, entries, 1)
	assert.Equal(t, 200, entries[0].EnvelopeCode)
}

func TestPushFullFoldsEnvelopeFailureIntoRejections(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathToken {
			authOK(t, w, r)
			return
		}
		fmt.Fprint(w, `{"code":500,"msg":"internal error"}`)
	}))

	result, err := client.PushFull(context.Background(), []Goods{{BarCode: "B1"}}, CallRef{})
	require.NoError(t, err, "envelope failures are data, not errors")
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "internal error", result.Rejected[0].Tip)
}

func TestPushPricesSurvivesTransportFailure(t *testing.T) {
	client, logs := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathToken {
			authOK(t, w, r)
			return
		}
		fmt.Fprint(w, `{not json`)
	}))

	result, err := client.PushPrices(context.Background(), []PriceUpdate{{BarCode: "B1"}}, CallRef{})
	require.NoError(t, err)
	require.Len(t, result.Rejected, 1)

	entries := logs.byOperation("sync_price")
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ErrorMessage)
}

func TestLookupGoodsIDMatchesBarcode(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathToken {
			authOK(t, w, r)
			return
		}
		assert.Equal(t, "B2", r.URL.Query().Get("barCode"))
		fmt.Fprint(w, `{"code":200,"rows":[
            {"barCode":"B2-extended","goodsId":"G-9"},
            {"barCode":"B2","goodsId":"G-2"}]}`)
	}))

	goodsID, err := client.LookupGoodsID(context.Background(), "B2")
	require.NoError(t, err)
	assert.Equal(t, "G-2", goodsID, "only the exact barcode counts")
}

func TestLookupGoodsIDIsBestEffort(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathToken {
			authOK(t, w, r)
			return
		}
		fmt.Fprint(w, `{"code":500,"msg":"boom"}`)
	}))

	goodsID, err := client.LookupGoodsID(context.Background(), "B1")
	require.NoError(t, err)
	assert.Empty(t, goodsID)
}

func TestListTagsPaginates(t *testing.T) {
	pageSize := 2
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathToken {
			authOK(t, w, r)
			return
		}
		switch r.URL.Query().Get("pageNum") {
		case "1":
			fmt.Fprint(w, `{"code":200,"rows":[{"tagId":"T1"},{"tagId":"T2"}]}`)
		case "2":
			fmt.Fprint(w, `{"code":200,"rows":[{"tagId":"T3"}]}`)
		default:
			t.Error("requested a page past the short one")
		}
	}))

	tags, err := client.ListTags(context.Background(), pageSize)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "T3", tags[2].TagID.String())
}

func TestListTagsPropagatesFailure(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathToken {
			authOK(t, w, r)
			return
		}
		fmt.Fprint(w, `{"code":500,"msg":"boom"}`)
	}))

	_, err := client.ListTags(context.Background(), 10)
	assert.Error(t, err, "a failed inventory fetch must not look like an empty store")
}

func TestBindTagSendsVendorPayload(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathToken {
			authOK(t, w, r)
			return
		}
		assert.Equal(t, http.MethodPut, r.Method)
		var req struct {
			TagID      string `json:"tagId"`
			TemplateID string `json:"templateId"`
			StationID  string `json:"stationId"`
			GoodsList  []struct {
				Label string `json:"label"`
				Value string `json:"value"`
			} `json:"goodsList"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "T1", req.TagID)
		require.Len(t, req.GoodsList, 1)
		assert.Equal(t, "a", req.GoodsList[0].Label)
		assert.Equal(t, "G-1", req.GoodsList[0].Value)

		fmt.Fprint(w, `{"code":200,"msg":"ok"}`)
	}))

	ok, err := client.BindTag(context.Background(), "T1", "tpl", "st", "G-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBindTagRefusalIsNotAnError(t *testing.T) {
	client, logs := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pathToken {
			authOK(t, w, r)
			return
		}
		fmt.Fprint(w, `{"code":400,"msg":"tag offline"}`)
	}))

	ok, err := client.BindTag(context.Background(), "T1", "tpl", "st", "G-1")
	require.NoError(t, err)
	assert.False(t, ok)

	entries := logs.byOperation("bind_tag")
	require.Len(t, entries, 1)
	assert.Equal(t, 400, entries[0].EnvelopeCode)
}

func TestFlexStringDecodesBothShapes(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":42,"c":null}`), &v))
	assert.Equal(t, "x", v.A.String())
	assert.Equal(t, "42", v.B.String())
	assert.Empty(t, v.C.String())
}

func TestMemoryTokenCacheExpiry(t *testing.T) {
	c := NewMemoryTokenCache()
	ctx := context.Background()

	_, ok := c.Token(ctx)
	assert.False(t, ok)

	c.Store(ctx, "tok", time.Hour)
	token, ok := c.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "tok", token)

	// Within the refresh margin the token reads as absent.
	c.Store(ctx, "tok", RefreshMargin/2)
	_, ok = c.Token(ctx)
	assert.False(t, ok)

	c.Store(ctx, "tok", time.Hour)
	c.Clear(ctx)
	_, ok = c.Token(ctx)
	assert.False(t, ok)
}
