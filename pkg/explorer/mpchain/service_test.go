package mpchain_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mpurse-network/mpurse-daemon/pkg/explorer"
	"github.com/mpurse-network/mpurse-daemon/pkg/explorer/mpchain"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

type mockAPI struct {
	*httptest.Server
	lock     sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, body []byte)
}

func newMockAPI(
	t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte),
) *mockAPI {
	m := &mockAPI{handler: handler}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.lock.Lock()
		m.requests = append(m.requests, recordedRequest{r.Method, r.URL.Path, string(body)})
		m.lock.Unlock()
		m.handler(w, r, body)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockAPI) lastRequest() recordedRequest {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.requests[len(m.requests)-1]
}

func (m *mockAPI) count() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.requests)
}

func newTestService(t *testing.T, m *mockAPI) explorer.Service {
	svc, err := mpchain.NewService(mpchain.ServiceOpts{
		APIURL:    m.URL + "/api",
		RateLimit: 1000,
	})
	require.NoError(t, err)
	return svc
}

func replyJSON(body string) func(http.ResponseWriter, *http.Request, []byte) {
	return func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestMpchainPaths(t *testing.T) {
	m := newMockAPI(t, replyJSON(`{"ok":true}`))
	svc := newTestService(t, m)

	tests := []struct {
		method       string
		params       string
		expectedPath string
	}{
		{"balance", `{"address":"MAddr","asset":"XMP"}`, "/api/balance/MAddr/XMP"},
		{"market", `{"base_asset":"XMP","quote_asset":"MONA"}`, "/api/market/XMP/MONA"},
		{"market_history", `{"base_asset":"XMP","quote_asset":"MONA"}`, "/api/market/XMP/MONA/history"},
		{
			"market_history",
			`{"base_asset":"XMP","quote_asset":"MONA","address":"MAddr"}`,
			"/api/market/XMP/MONA/history/MAddr",
		},
		{
			"market_orderbook",
			`{"base_asset":"XMP","quote_asset":"MONA","address":""}`,
			"/api/market/XMP/MONA/orderbook",
		},
		{
			"market_orders",
			`{"base_asset":"XMP","quote_asset":"MONA","address":"MAddr"}`,
			"/api/market/XMP/MONA/orders/MAddr",
		},
		{"address", `{"address":"MAddr"}`, "/api/address/MAddr"},
		{"block", `{"block":1500000}`, "/api/block/1500000"},
		{"tx", `{"tx_hash":"abcd"}`, "/api/tx/abcd"},
		{"balances", `{"address":"MAddr","page":2,"limit":50}`, "/api/balances/MAddr/2/50"},
		{"history", `{"address":"MAddr","page":1}`, "/api/history/MAddr/1"},
	}

	for _, tt := range tests {
		t.Run(tt.expectedPath, func(t *testing.T) {
			res, err := svc.Mpchain(context.Background(), tt.method, json.RawMessage(tt.params))
			require.NoError(t, err)
			require.JSONEq(t, `{"ok":true}`, string(res))

			req := m.lastRequest()
			require.Equal(t, http.MethodGet, req.method)
			require.Equal(t, tt.expectedPath, req.path)
		})
	}
}

func TestMpchainInvalidArguments(t *testing.T) {
	m := newMockAPI(t, replyJSON(`{}`))
	svc := newTestService(t, m)

	tests := []struct {
		method string
		params string
	}{
		{"address", `"MAddr"`},
		{"address", `["MAddr"]`},
		{"balance", `{"address":"MAddr"}`},
		{"market", `{"base_asset":"XMP"}`},
		{"market_orders", `{"base_asset":"XMP","quote_asset":"MONA"}`},
		{"send_tx", `{"tx":"0100"}`},
	}

	for _, tt := range tests {
		_, err := svc.Mpchain(context.Background(), tt.method, json.RawMessage(tt.params))
		require.ErrorIs(t, err, explorer.ErrInvalidArgument)
		require.EqualError(t, err, "Invalid argument")
	}
	require.Zero(t, m.count())
}

func TestSendTx(t *testing.T) {
	m := newMockAPI(t, replyJSON(`{"tx_hash":"ff00"}`))
	svc := newTestService(t, m)

	res, err := svc.SendTx(context.Background(), "0100")
	require.NoError(t, err)
	require.JSONEq(t, `{"tx_hash":"ff00"}`, string(res))

	req := m.lastRequest()
	require.Equal(t, http.MethodPost, req.method)
	require.Equal(t, "/api/send_tx", req.path)
	require.JSONEq(t, `{"tx_hex":"0100"}`, req.body)
}

func TestPostFailures(t *testing.T) {
	tests := []struct {
		name         string
		reply        string
		status       int
		expectedBody string
		expectedMsg  string
	}{
		{
			"error field",
			`{"error":"bad-txns-inputs-spent"}`,
			http.StatusOK,
			`{"error":"bad-txns-inputs-spent"}`,
			"bad-txns-inputs-spent",
		},
		{
			"code field",
			`{"code":-26,"message":"dust"}`,
			http.StatusOK,
			`{"code":-26,"message":"dust"}`,
			"dust",
		},
		{
			"server error with payload",
			`{"error":"internal"}`,
			http.StatusInternalServerError,
			`{"error":"internal"}`,
			"internal",
		},
		{
			"not json",
			`<html>502 Bad Gateway</html>`,
			http.StatusBadGateway,
			`{"error":"api dead"}`,
			"api dead",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockAPI(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.reply))
			})
			svc := newTestService(t, m)

			_, err := svc.SendTx(context.Background(), "0100")
			require.Error(t, err)

			apiErr, ok := err.(*explorer.Error)
			require.True(t, ok)
			require.JSONEq(t, tt.expectedBody, string(apiErr.Body))
			require.Equal(t, tt.expectedMsg, apiErr.Error())
		})
	}
}

func TestCounterBlock(t *testing.T) {
	m := newMockAPI(t, replyJSON(`{"jsonrpc":"2.0","id":0,"result":[{"asset":"XMP"}]}`))
	svc := newTestService(t, m)

	res, err := svc.CounterBlock(
		context.Background(), "get_assets_info", json.RawMessage(`{"assetsList":["XMP"]}`),
	)
	require.NoError(t, err)
	require.JSONEq(t, `[{"asset":"XMP"}]`, string(res))

	req := m.lastRequest()
	require.Equal(t, http.MethodPost, req.method)
	require.Equal(t, "/api/cb/", req.path)
	require.JSONEq(t,
		`{"jsonrpc":"2.0","id":0,"method":"get_assets_info","params":{"assetsList":["XMP"]}}`,
		req.body,
	)

	_, err = svc.CounterBlock(context.Background(), "get_assets_info", json.RawMessage(`[]`))
	require.ErrorIs(t, err, explorer.ErrInvalidArgument)
}

func TestCounterParty(t *testing.T) {
	m := newMockAPI(t, replyJSON(`{"jsonrpc":"2.0","id":0,"result":"0100abcd"}`))
	svc := newTestService(t, m)

	res, err := svc.CreateSend(context.Background(), explorer.CreateSendOpts{
		Source:      "MSource",
		Destination: "MDest",
		Asset:       "XMP",
		Quantity:    100000000,
		FeePerKb:    200000,
	})
	require.NoError(t, err)
	require.JSONEq(t, `"0100abcd"`, string(res))

	req := m.lastRequest()
	require.JSONEq(t, `{
		"jsonrpc": "2.0",
		"id": 0,
		"method": "proxy_to_counterpartyd",
		"params": {
			"method": "create_send",
			"params": {
				"source": "MSource",
				"destination": "MDest",
				"asset": "XMP",
				"quantity": 100000000,
				"memo": "",
				"memo_is_hex": false,
				"fee_per_kb": 200000,
				"disable_utxo_locks": false,
				"allow_unconfirmed_inputs": true,
				"extended_tx_info": true
			}
		}
	}`, req.body)
}

func TestGetScriptPubKey(t *testing.T) {
	m := newMockAPI(t, replyJSON(`{"jsonrpc":"2.0","id":0,"result":{` +
		`"scriptPubKey":{"hex":"76a914000000000000000000000000000000000000000088ac"},` +
		`"value":0.12345678}}`))
	svc := newTestService(t, m)

	for i := 0; i < 3; i++ {
		prevOut, err := svc.FetchPrevOutput(context.Background(), "aabb", 1)
		require.NoError(t, err)
		require.Equal(t, int64(12345678), prevOut.Value)
		require.Len(t, prevOut.Script, 25)
	}
	// cached after the first lookup.
	require.Equal(t, 1, m.count())
	require.JSONEq(t,
		`{"jsonrpc":"2.0","id":0,"method":"get_script_pub_key","params":{"tx_hash":"aabb","vout_index":1}}`,
		m.lastRequest().body,
	)
}

func TestGetIsNotRejected(t *testing.T) {
	m := newMockAPI(t, replyJSON(`{"error":"Address not found"}`))
	svc := newTestService(t, m)

	res, err := svc.GetAddressInfo(context.Background(), "MAddr")
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"Address not found"}`, string(res))
}
