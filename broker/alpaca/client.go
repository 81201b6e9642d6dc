// Package alpaca implements the brokerage transport against the Alpaca
// trading and market-data REST APIs.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quartzlab/tradedesk/broker"
	"github.com/quartzlab/tradedesk/market"
)

const (
	// PaperURL is the trading API for Alpaca's paper environment.
	PaperURL = "https://paper-api.alpaca.markets"
	// LiveURL is the trading API for real-money accounts.
	LiveURL = "https://api.alpaca.markets"
	// DataURL serves historical bars and quotes for both environments.
	DataURL = "https://data.alpaca.markets"

	// Feed is the market-data feed available on the free tier.
	Feed = "iex"
)

// Client talks to the Alpaca REST APIs and implements broker.Client.
type Client struct {
	tradingURL string
	dataURL    string
	key        string
	secret     string
	httpClient *http.Client
}

// NewClient returns a Client for the given trading base URL (PaperURL or
// LiveURL) and credentials.
func NewClient(tradingURL, key, secret string) *Client {
	return &Client{
		tradingURL: tradingURL,
		dataURL:    DataURL,
		key:        key,
		secret:     secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiOrder is an order as serialized by the trading API. Quantities and
// prices arrive as JSON strings.
type apiOrder struct {
	ID             string  `json:"id"`
	ClientOrderID  string  `json:"client_order_id"`
	Symbol         string  `json:"symbol"`
	Qty            string  `json:"qty"`
	FilledQty      string  `json:"filled_qty"`
	FilledAvgPrice *string `json:"filled_avg_price"`
	Side           string  `json:"side"`
	Type           string  `json:"type"`
	TimeInForce    string  `json:"time_in_force"`
	Status         string  `json:"status"`
	FilledAt       *string `json:"filled_at"`
}

func (o apiOrder) toOrder() (broker.Order, error) {
	side, err := broker.ParseSide(o.Side)
	if err != nil {
		return broker.Order{}, fmt.Errorf("order %s: %w", o.ID, err)
	}
	typ, err := broker.ParseOrderType(o.Type)
	if err != nil {
		return broker.Order{}, fmt.Errorf("order %s: %w", o.ID, err)
	}
	status, err := broker.ParseStatus(o.Status)
	if err != nil {
		return broker.Order{}, fmt.Errorf("order %s: %w", o.ID, err)
	}

	out := broker.Order{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          side,
		Type:          typ,
		TimeInForce:   o.TimeInForce,
		Status:        status,
	}
	if out.Qty, err = parseFloat(o.Qty); err != nil {
		return broker.Order{}, fmt.Errorf("order %s qty: %w", o.ID, err)
	}
	if out.FilledQty, err = parseFloat(o.FilledQty); err != nil {
		return broker.Order{}, fmt.Errorf("order %s filled_qty: %w", o.ID, err)
	}
	if o.FilledAvgPrice != nil {
		if out.FilledAvgPrice, err = parseFloat(*o.FilledAvgPrice); err != nil {
			return broker.Order{}, fmt.Errorf("order %s filled_avg_price: %w", o.ID, err)
		}
	}
	if o.FilledAt != nil && *o.FilledAt != "" {
		t, err := time.Parse(time.RFC3339, *o.FilledAt)
		if err != nil {
			return broker.Order{}, fmt.Errorf("order %s filled_at: %w", o.ID, err)
		}
		out.FilledAt = t.UTC()
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// SubmitOrder places a new order via POST /v2/orders.
func (c *Client) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.Order, error) {
	body := map[string]string{
		"symbol":          req.Symbol,
		"qty":             strconv.FormatFloat(req.Qty, 'f', -1, 64),
		"side":            req.Side.String(),
		"type":            req.Type.String(),
		"time_in_force":   req.TimeInForce,
		"client_order_id": req.ClientOrderID,
	}
	var resp apiOrder
	if err := c.do(ctx, http.MethodPost, c.tradingURL+"/v2/orders", body, &resp); err != nil {
		return broker.Order{}, fmt.Errorf("submit order: %w", err)
	}
	return resp.toOrder()
}

// GetOrder fetches a single order by its brokerage id.
func (c *Client) GetOrder(ctx context.Context, id string) (broker.Order, error) {
	var resp apiOrder
	if err := c.do(ctx, http.MethodGet, c.tradingURL+"/v2/orders/"+url.PathEscape(id), nil, &resp); err != nil {
		return broker.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return resp.toOrder()
}

// CancelOrder requests cancellation of an open order.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.tradingURL+"/v2/orders/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("cancel order %s: %w", id, err)
	}
	return nil
}

// ListOrders returns orders filtered by status.
func (c *Client) ListOrders(ctx context.Context, status string, nested bool) ([]broker.Order, error) {
	params := url.Values{}
	params.Set("status", status)
	params.Set("nested", strconv.FormatBool(nested))
	params.Set("limit", "500")

	var resp []apiOrder
	if err := c.do(ctx, http.MethodGet, c.tradingURL+"/v2/orders?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]broker.Order, 0, len(resp))
	for _, o := range resp {
		order, err := o.toOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// apiBar is a bar in the data API response.
type apiBar struct {
	Time   string  `json:"t"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

type barsResponse struct {
	Bars          []apiBar `json:"bars"`
	Symbol        string   `json:"symbol"`
	NextPageToken *string  `json:"next_page_token"`
}

// GetBars fetches one page of historical bars for symbol. The returned token
// is non-empty while more pages remain.
func (c *Client) GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int, pageToken string) ([]market.Candle, string, error) {
	params := url.Values{}
	params.Set("timeframe", timeframe)
	params.Set("start", start.UTC().Format(time.RFC3339))
	params.Set("end", end.UTC().Format(time.RFC3339))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("feed", Feed)
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}

	apiURL := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", c.dataURL, url.PathEscape(symbol), params.Encode())

	var resp barsResponse
	if err := c.do(ctx, http.MethodGet, apiURL, nil, &resp); err != nil {
		return nil, "", fmt.Errorf("get bars %s: %w", symbol, err)
	}

	candles := make([]market.Candle, 0, len(resp.Bars))
	for _, b := range resp.Bars {
		t, err := time.Parse(time.RFC3339, b.Time)
		if err != nil {
			return nil, "", fmt.Errorf("get bars %s: parse time %q: %w", symbol, b.Time, err)
		}
		candles = append(candles, market.Candle{
			Time:   t.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}

	next := ""
	if resp.NextPageToken != nil {
		next = *resp.NextPageToken
	}
	return candles, next, nil
}

type latestQuoteResponse struct {
	Quote struct {
		AskPrice float64 `json:"ap"`
		BidPrice float64 `json:"bp"`
	} `json:"quote"`
}

// GetLatestQuote returns the latest ask price for symbol.
func (c *Client) GetLatestQuote(ctx context.Context, symbol string) (float64, error) {
	apiURL := fmt.Sprintf("%s/v2/stocks/%s/quotes/latest?feed=%s", c.dataURL, url.PathEscape(symbol), Feed)

	var resp latestQuoteResponse
	if err := c.do(ctx, http.MethodGet, apiURL, nil, &resp); err != nil {
		return 0, fmt.Errorf("get latest quote %s: %w", symbol, err)
	}
	if resp.Quote.AskPrice == 0 {
		return 0, fmt.Errorf("get latest quote %s: no ask price in response", symbol)
	}
	return resp.Quote.AskPrice, nil
}

// do executes one authenticated request and decodes the JSON response into
// out when out is non-nil.
func (c *Client) do(ctx context.Context, method, apiURL string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.key)
	req.Header.Set("APCA-API-SECRET-KEY", c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
