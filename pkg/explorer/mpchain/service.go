package mpchain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mpurse-network/mpurse-daemon/pkg/circuitbreaker"
	"github.com/mpurse-network/mpurse-daemon/pkg/explorer"
	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

const (
	// DefaultAPIURL is the base url of the mpchain.info API.
	DefaultAPIURL = "https://mpchain.info/api/"

	defaultRequestTimeout  = 15 * time.Second
	defaultRateLimit       = 10
	defaultScriptCacheSize = 256
)

// ServiceOpts is the struct given to NewService method
type ServiceOpts struct {
	APIURL          string
	RequestTimeout  time.Duration
	RateLimit       int
	ScriptCacheSize int
}

func (o *ServiceOpts) init() {
	if o.APIURL == "" {
		o.APIURL = DefaultAPIURL
	}
	if !strings.HasSuffix(o.APIURL, "/") {
		o.APIURL += "/"
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
	if o.RateLimit <= 0 {
		o.RateLimit = defaultRateLimit
	}
	if o.ScriptCacheSize <= 0 {
		o.ScriptCacheSize = defaultScriptCacheSize
	}
}

type service struct {
	apiURL  string
	client  *client
	cb      *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
	scripts *lru.Cache
}

// NewService returns a new mpchain service as an explorer.Service interface
func NewService(opts ServiceOpts) (explorer.Service, error) {
	opts.init()

	scripts, err := lru.New(opts.ScriptCacheSize)
	if err != nil {
		return nil, err
	}

	return &service{
		apiURL:  opts.APIURL,
		client:  newHTTPClient(opts.RequestTimeout),
		cb:      circuitbreaker.NewCircuitBreaker("mpchain"),
		limiter: ratelimit.New(opts.RateLimit),
		scripts: scripts,
	}, nil
}

func (s *service) Mpchain(
	ctx context.Context, method string, rawParams json.RawMessage,
) (json.RawMessage, error) {
	p, err := parseParams(rawParams)
	if err != nil {
		return nil, err
	}

	if method == "send_tx" {
		if !p.has("tx_hex") {
			return nil, explorer.ErrInvalidArgument
		}
		return s.post(ctx, method, rawParams)
	}

	path, err := apiPath(method, p)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, path)
}

func (s *service) CounterBlock(
	ctx context.Context, method string, rawParams json.RawMessage,
) (json.RawMessage, error) {
	if _, err := parseParams(rawParams); err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      0,
		"method":  method,
		"params":  rawParams,
	})
	resp, err := s.post(ctx, "cb/", body)
	if err != nil {
		return nil, err
	}

	rpcResp := struct {
		Result json.RawMessage `json:"result"`
	}{}
	if err := json.Unmarshal(resp, &rpcResp); err != nil {
		return nil, explorer.ErrAPIDead
	}
	if len(rpcResp.Result) <= 0 {
		return json.RawMessage("null"), nil
	}
	return rpcResp.Result, nil
}

func (s *service) CounterParty(
	ctx context.Context, method string, rawParams json.RawMessage,
) (json.RawMessage, error) {
	if _, err := parseParams(rawParams); err != nil {
		return nil, err
	}

	cbParams, _ := json.Marshal(map[string]interface{}{
		"method": method,
		"params": rawParams,
	})
	return s.CounterBlock(ctx, "proxy_to_counterpartyd", cbParams)
}

func (s *service) GetAddressInfo(
	ctx context.Context, address string,
) (json.RawMessage, error) {
	return s.mp(ctx, "address", map[string]interface{}{"address": address})
}

func (s *service) GetAsset(
	ctx context.Context, asset string,
) (json.RawMessage, error) {
	return s.mp(ctx, "asset", map[string]interface{}{"asset": asset})
}

func (s *service) GetBalances(
	ctx context.Context, address string, page, limit int,
) (json.RawMessage, error) {
	return s.mp(ctx, "balances", map[string]interface{}{
		"address": address, "page": page, "limit": limit,
	})
}

func (s *service) GetMempool(
	ctx context.Context, address string, page, limit int,
) (json.RawMessage, error) {
	return s.mp(ctx, "mempool", map[string]interface{}{
		"address": address, "page": page, "limit": limit,
	})
}

func (s *service) SendTx(
	ctx context.Context, txHex string,
) (json.RawMessage, error) {
	return s.mp(ctx, "send_tx", map[string]interface{}{"tx_hex": txHex})
}

func (s *service) CreateSend(
	ctx context.Context, opts explorer.CreateSendOpts,
) (json.RawMessage, error) {
	cpParams, _ := json.Marshal(struct {
		explorer.CreateSendOpts
		AllowUnconfirmedInputs bool `json:"allow_unconfirmed_inputs"`
		ExtendedTxInfo         bool `json:"extended_tx_info"`
	}{opts, true, true})
	return s.CounterParty(ctx, "create_send", cpParams)
}

func (s *service) GetScriptPubKey(
	ctx context.Context, txHash string, vout uint32,
) (*explorer.ScriptPubKey, error) {
	key := fmt.Sprintf("%s:%d", txHash, vout)
	if cached, ok := s.scripts.Get(key); ok {
		script := cached.(explorer.ScriptPubKey)
		return &script, nil
	}

	cbParams, _ := json.Marshal(map[string]interface{}{
		"tx_hash":    txHash,
		"vout_index": vout,
	})
	result, err := s.CounterBlock(ctx, "get_script_pub_key", cbParams)
	if err != nil {
		return nil, err
	}

	resp := struct {
		ScriptPubKey struct {
			Hex string `json:"hex"`
		} `json:"scriptPubKey"`
		Value decimal.Decimal `json:"value"`
	}{}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse script pubkey of %s: %w", key, err)
	}
	if resp.ScriptPubKey.Hex == "" {
		return nil, fmt.Errorf("script pubkey of %s not found", key)
	}

	script := explorer.ScriptPubKey{
		Hex:   resp.ScriptPubKey.Hex,
		Value: resp.Value,
	}
	s.scripts.Add(key, script)
	return &script, nil
}

func (s *service) FetchPrevOutput(
	ctx context.Context, txHash string, index uint32,
) (*wallet.PrevOutput, error) {
	script, err := s.GetScriptPubKey(ctx, txHash, index)
	if err != nil {
		return nil, err
	}
	buf, err := hex.DecodeString(script.Hex)
	if err != nil {
		return nil, fmt.Errorf("invalid script pubkey of %s:%d: %w", txHash, index, err)
	}
	return &wallet.PrevOutput{
		Script: buf,
		Value:  script.Satoshis(),
	}, nil
}

func (s *service) mp(
	ctx context.Context, method string, p map[string]interface{},
) (json.RawMessage, error) {
	buf, _ := json.Marshal(p)
	return s.Mpchain(ctx, method, buf)
}

// get resolves with whatever JSON the API returns.
func (s *service) get(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, explorer.ErrAPIDead
	}
	return body, nil
}

// post fails with the response body if it carries either a code or an error
// field.
func (s *service) post(
	ctx context.Context, path string, payload []byte,
) (json.RawMessage, error) {
	body, err := s.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, explorer.ErrAPIDead
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err == nil {
		_, hasCode := fields["code"]
		_, hasError := fields["error"]
		if hasCode || hasError {
			return nil, &explorer.Error{Body: body}
		}
	}
	return body, nil
}

type response struct {
	status int
	body   []byte
}

func (s *service) do(
	ctx context.Context, method, path string, payload []byte,
) ([]byte, error) {
	s.limiter.Take()

	url := s.apiURL + path
	iResp, err := s.cb.Execute(func() (interface{}, error) {
		var (
			status int
			body   []byte
			err    error
		)
		if method == http.MethodPost {
			status, body, err = s.client.post(ctx, url, payload)
		} else {
			status, body, err = s.client.get(ctx, url)
		}
		if err != nil {
			return nil, err
		}

		resp := &response{status, body}
		if status >= http.StatusInternalServerError {
			return resp, fmt.Errorf("%s %s: %s", method, path, http.StatusText(status))
		}
		return resp, nil
	})
	if err != nil {
		// server failures still carry the API's own error payload.
		if resp, ok := iResp.(*response); ok && resp != nil {
			log.WithError(err).Debug("mpchain request failed")
			return resp.body, nil
		}
		return nil, err
	}
	return iResp.(*response).body, nil
}
