package broker

import (
	"context"
	"time"

	"github.com/quartzlab/tradedesk/market"
)

// MarketData is the price-history half of the brokerage API.
type MarketData interface {
	// GetBars returns up to limit bars for symbol in [start, end], along
	// with a token for the next page ("" when exhausted).
	GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int, pageToken string) ([]market.Candle, string, error)
	// GetLatestQuote returns the most recent quote price for symbol.
	GetLatestQuote(ctx context.Context, symbol string) (float64, error)
}

// Client is the full brokerage transport: order routing plus market data.
type Client interface {
	MarketData

	SubmitOrder(ctx context.Context, req OrderRequest) (Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
	CancelOrder(ctx context.Context, id string) error
	// ListOrders returns orders with the given status; nested includes legs
	// of multi-leg orders.
	ListOrders(ctx context.Context, status string, nested bool) ([]Order, error)
}
