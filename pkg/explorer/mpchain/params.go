package mpchain

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/mpurse-network/mpurse-daemon/pkg/explorer"
)

type params map[string]json.RawMessage

func parseParams(raw json.RawMessage) (params, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) <= 0 || raw[0] != '{' {
		return nil, explorer.ErrInvalidArgument
	}
	p := params{}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, explorer.ErrInvalidArgument
	}
	return p, nil
}

func (p params) has(key string) bool {
	_, ok := p[key]
	return ok
}

// str returns the value of key as it would be concatenated to a path.
func (p params) str(key string) string {
	raw, ok := p[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return string(bytes.TrimSpace(raw))
}

// isSet returns whether key has a non empty value.
func (p params) isSet(key string) bool {
	switch p.str(key) {
	case "", "null", "false", "0":
		return false
	default:
		return true
	}
}

// apiPath builds the REST path of a GET method.
func apiPath(method string, p params) (string, error) {
	path := method
	switch method {
	case "balance":
		if !p.has("address") || !p.has("asset") {
			return "", explorer.ErrInvalidArgument
		}
		path += "/" + p.str("address") + "/" + p.str("asset")
	case "market":
		if !p.has("base_asset") || !p.has("quote_asset") {
			return "", explorer.ErrInvalidArgument
		}
		path += "/" + p.str("base_asset") + "/" + p.str("quote_asset")
	case "market_history", "market_orderbook":
		if !p.has("base_asset") || !p.has("quote_asset") {
			return "", explorer.ErrInvalidArgument
		}
		suffix := "/history"
		if method == "market_orderbook" {
			suffix = "/orderbook"
		}
		path = "market/" + p.str("base_asset") + "/" + p.str("quote_asset") + suffix
		if p.isSet("address") {
			path += "/" + p.str("address")
		}
	case "market_orders":
		if !p.has("base_asset") || !p.has("quote_asset") || !p.has("address") {
			return "", explorer.ErrInvalidArgument
		}
		path = "market/" + p.str("base_asset") + "/" + p.str("quote_asset") +
			"/orders/" + p.str("address")
	default:
		path += "/" + p.str("address") + p.str("asset") + p.str("block") +
			p.str("tx_index") + p.str("tx_hash")
	}

	if p.has("page") {
		path += "/" + p.str("page")
		if p.has("limit") {
			path += "/" + p.str("limit")
		}
	}
	return path, nil
}
