// Package bybit implements the broker boundary against the Bybit V5 REST API.
package bybit

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"perpbot/broker"
	"perpbot/market"
)

const (
	MainnetURL = "https://api.bybit.com"
	TestnetURL = "https://api-testnet.bybit.com"

	recvWindow = "5000"
)

// Client talks to the Bybit V5 REST API for one account. All trading
// calls use the linear (USDT perpetual) category and the unified
// account type.
type Client struct {
	apiKey      string
	secretKey   string
	baseURL     string
	category    string
	accountType string
	httpClient  *http.Client
}

// NewClient builds a client for the mainnet or testnet environment.
func NewClient(apiKey, secretKey string, testnet bool) *Client {
	baseURL := MainnetURL
	if testnet {
		baseURL = TestnetURL
	}

	return &Client{
		apiKey:      apiKey,
		secretKey:   secretKey,
		baseURL:     baseURL,
		category:    "linear",
		accountType: "UNIFIED",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// APIError is a non-zero retCode from the venue.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bybit retCode %d: %s", e.Code, e.Msg)
}

func (c *Client) sign(payload string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// request performs one signed call and unwraps the V5 response envelope.
// GET parameters go in the query string, POST parameters in the JSON body;
// the signature covers timestamp + key + recvWindow + query-or-body.
func (c *Client) request(ctx context.Context, method, path string, params map[string]any) (json.RawMessage, error) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)

	var queryString string
	var bodyBytes []byte

	if method == http.MethodGet {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, fmt.Sprintf("%v", v))
		}
		queryString = values.Encode()
	} else if params != nil {
		var err error
		bodyBytes, err = json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	signStr := timestamp + c.apiKey + recvWindow
	if method == http.MethodGet {
		signStr += queryString
	} else {
		signStr += string(bodyBytes)
	}

	fullURL := c.baseURL + path
	if queryString != "" {
		fullURL += "?" + queryString
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-BAPI-API-KEY", c.apiKey)
	req.Header.Set("X-BAPI-SIGN", c.sign(signStr))
	req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
	req.Header.Set("X-BAPI-RECV-WINDOW", recvWindow)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var envelope struct {
		RetCode int             `json:"retCode"`
		RetMsg  string          `json:"retMsg"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if envelope.RetCode != 0 {
		return nil, &APIError{Code: envelope.RetCode, Msg: envelope.RetMsg}
	}

	return envelope.Result, nil
}

// GetTicker returns the last traded price for a linear symbol.
func (c *Client) GetTicker(ctx context.Context, symbol string) (broker.Ticker, error) {
	data, err := c.request(ctx, http.MethodGet, "/v5/market/tickers", map[string]any{
		"category": c.category,
		"symbol":   symbol,
	})
	if err != nil {
		return broker.Ticker{}, err
	}

	var result struct {
		List []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return broker.Ticker{}, fmt.Errorf("decode tickers: %w", err)
	}
	if len(result.List) == 0 {
		return broker.Ticker{}, fmt.Errorf("no ticker for %s", symbol)
	}

	last, err := market.ParsePrice(result.List[0].LastPrice)
	if err != nil {
		return broker.Ticker{}, err
	}

	return broker.Ticker{Symbol: symbol, LastPrice: last}, nil
}

// GetWalletBalance returns the wallet balance for one coin of the
// unified account. A coin the account never held is a zero balance.
func (c *Client) GetWalletBalance(ctx context.Context, coin string) (decimal.Decimal, error) {
	data, err := c.request(ctx, http.MethodGet, "/v5/account/wallet-balance", map[string]any{
		"accountType": c.accountType,
		"coin":        coin,
	})
	if err != nil {
		return decimal.Zero, err
	}

	var result struct {
		List []struct {
			Coin []struct {
				Coin          string `json:"coin"`
				WalletBalance string `json:"walletBalance"`
			} `json:"coin"`
		} `json:"list"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return decimal.Zero, fmt.Errorf("decode wallet balance: %w", err)
	}

	for _, account := range result.List {
		for _, entry := range account.Coin {
			if entry.Coin != coin {
				continue
			}
			bal, err := decimal.NewFromString(entry.WalletBalance)
			if err != nil {
				return decimal.Zero, fmt.Errorf("parse balance %q: %w", entry.WalletBalance, err)
			}
			return bal, nil
		}
	}

	return decimal.Zero, nil
}

// GetPositions returns the raw position list for a symbol, unfiltered
// and unnormalized.
func (c *Client) GetPositions(ctx context.Context, symbol string) ([]broker.PositionEntry, error) {
	data, err := c.request(ctx, http.MethodGet, "/v5/position/list", map[string]any{
		"category": c.category,
		"symbol":   symbol,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		List []struct {
			Symbol string `json:"symbol"`
			Side   string `json:"side"`
			Size   string `json:"size"`
		} `json:"list"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}

	entries := make([]broker.PositionEntry, 0, len(result.List))
	for _, p := range result.List {
		entries = append(entries, broker.PositionEntry{
			Symbol: p.Symbol,
			Side:   p.Side,
			Size:   p.Size,
		})
	}

	return entries, nil
}

// PlaceOrder submits one market order via /v5/order/create.
func (c *Client) PlaceOrder(ctx context.Context, req broker.MarketOrderRequest) (broker.OrderFill, error) {
	params := map[string]any{
		"category":  c.category,
		"symbol":    req.Symbol,
		"side":      req.Side.String(),
		"orderType": "Market",
		"qty":       req.Qty.String(),
	}
	if req.TakeProfit != nil {
		params["takeProfit"] = req.TakeProfit.String()
	}
	if req.StopLoss != nil {
		params["stopLoss"] = req.StopLoss.String()
	}
	if req.ReduceOnly {
		params["reduceOnly"] = true
	}
	if req.OrderLinkID != "" {
		params["orderLinkId"] = req.OrderLinkID
	}

	data, err := c.request(ctx, http.MethodPost, "/v5/order/create", params)
	if err != nil {
		return broker.OrderFill{}, err
	}

	var result struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return broker.OrderFill{}, fmt.Errorf("decode order result: %w", err)
	}

	return broker.OrderFill{OrderID: result.OrderID, OrderLinkID: result.OrderLinkID}, nil
}
