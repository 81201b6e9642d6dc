// Package trading is the facade a request dispatcher talks to: it validates
// trade intents, routes them through the order gateway and turns ledger
// reports into renderable responses.
package trading

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quartzlab/tradedesk/broker"
	"github.com/quartzlab/tradedesk/ledger"
	"github.com/quartzlab/tradedesk/market"
)

// Gateway routes orders to terminal outcomes and recalls this broker's
// order history. Implemented by gateway.Gateway.
type Gateway interface {
	Submit(ctx context.Context, symbol string, qty float64, side broker.Side, typ broker.OrderType) (broker.Order, error)
	FilledOrders(ctx context.Context) ([]broker.Order, error)
	Timeout() time.Duration
}

// Ledger computes PnL and position reports. Implemented by ledger.Engine.
type Ledger interface {
	RunningPnl(ctx context.Context, orders []broker.Order) ([]ledger.Snapshot, error)
	Positions(ctx context.Context, orders []broker.Order) ([]ledger.Position, error)
}

// Desk composes the gateway and ledger behind one request surface.
type Desk struct {
	gateway Gateway
	ledger  Ledger
	clock   market.Clock
	// paper desks route every trade straight through: the paper broker
	// accepts anything, so pre-trade validation would only get in the way.
	paper bool
	log   *slog.Logger
	now   func() time.Time
}

// NewDesk builds a Desk. paper disables pre-trade validation.
func NewDesk(gw Gateway, led Ledger, clock market.Clock, paper bool, log *slog.Logger) *Desk {
	if log == nil {
		log = slog.Default()
	}
	return &Desk{
		gateway: gw,
		ledger:  led,
		clock:   clock,
		paper:   paper,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch routes a request to its handler. Validation failures come back as
// unsuccessful responses; the error return carries only failures the caller
// cannot recover from, such as a stuck order.
func (d *Desk) Dispatch(ctx context.Context, req Request) (Response, error) {
	switch r := req.(type) {
	case SubmitTradeRequest:
		return d.SubmitTrade(ctx, r)
	case GetPnlRequest:
		return d.GetPnl(ctx, r.Window)
	case GetOrdersRequest:
		return d.GetOrders(ctx, r.Window)
	case GetPositionsRequest:
		return d.GetPositions(ctx)
	default:
		return Response{}, fmt.Errorf("unhandled request type %T", req)
	}
}

// SubmitTrade validates the intent, routes it and reports the terminal
// outcome.
func (d *Desk) SubmitTrade(ctx context.Context, req SubmitTradeRequest) (Response, error) {
	if !d.paper {
		if req.Type == broker.Limit {
			return Response{
				Message: "Failed to route trade: the brokerage can't signal fills on limit orders.",
			}, nil
		}
		if now := d.now(); !d.clock.IsOpen(now) {
			return Response{
				Message: fmt.Sprintf("Failed to route trade: %s is outside US market hours.",
					now.Format("Mon 15:04 MST")),
			}, nil
		}
	}

	order, err := d.gateway.Submit(ctx, req.Symbol, req.Qty, req.Side, req.Type)
	if err != nil {
		return Response{}, err
	}

	msg, err := d.outcomeMessage(order)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Success: order.Status == broker.Filled,
		Message: msg,
	}, nil
}

func (d *Desk) outcomeMessage(order broker.Order) (string, error) {
	switch order.Status {
	case broker.Filled:
		action := "Bought"
		if order.Side == broker.Sell {
			action = "Sold"
		}
		return fmt.Sprintf("Order filled! %s %g shares of %s at %.2f.",
			action, order.FilledQty, order.Symbol, order.FilledAvgPrice), nil
	case broker.Canceled:
		return fmt.Sprintf("Order was routed but didn't fill within %s. Canceled.",
			d.gateway.Timeout()), nil
	case broker.Rejected:
		return "Order was rejected by the brokerage - likely insufficient funds.", nil
	default:
		return "", fmt.Errorf("unexpected terminal order status %q", order.Status)
	}
}

// GetPnl returns the running PnL series, rebased to the window unless the
// window is Total.
func (d *Desk) GetPnl(ctx context.Context, window market.Window) (Response, error) {
	orders, err := d.gateway.FilledOrders(ctx)
	if err != nil {
		return Response{}, err
	}
	snaps, err := d.ledger.RunningPnl(ctx, orders)
	if err != nil {
		return Response{}, err
	}
	if window != market.Total {
		start, err := market.WindowStart(window, d.now())
		if err != nil {
			return Response{}, err
		}
		snaps = ledger.Rebase(snaps, start)
	}
	return Response{
		Success: true,
		Message: fmt.Sprintf("Done calculating %s PnL.", window),
		Chart:   snaps,
	}, nil
}

// GetOrders returns the filled-order history, filtered to fills at or after
// the window start unless the window is Total.
func (d *Desk) GetOrders(ctx context.Context, window market.Window) (Response, error) {
	orders, err := d.gateway.FilledOrders(ctx)
	if err != nil {
		return Response{}, err
	}
	if window != market.Total {
		start, err := market.WindowStart(window, d.now())
		if err != nil {
			return Response{}, err
		}
		kept := orders[:0]
		for _, o := range orders {
			if !o.FilledAt.Before(start) {
				kept = append(kept, o)
			}
		}
		orders = kept
	}

	table := [][]string{{"Time", "Symbol", "Type", "Side", "Qty", "Price"}}
	for _, o := range orders {
		table = append(table, []string{
			o.FilledAt.Format(time.RFC3339),
			o.Symbol,
			o.Type.String(),
			o.Side.String(),
			fmt.Sprintf("%g", o.FilledQty),
			fmt.Sprintf("%.2f", o.FilledAvgPrice),
		})
	}
	return Response{
		Success: true,
		Message: "Done fetching filled orders.",
		Table:   table,
	}, nil
}

// GetPositions returns the open-position summary.
func (d *Desk) GetPositions(ctx context.Context) (Response, error) {
	orders, err := d.gateway.FilledOrders(ctx)
	if err != nil {
		return Response{}, err
	}
	positions, err := d.ledger.Positions(ctx, orders)
	if err != nil {
		return Response{}, err
	}

	table := [][]string{{"Symbol", "Qty", "Side", "Avg Entry", "Price", "Cost Basis", "Market Value", "Unrealized PnL"}}
	for _, p := range positions {
		table = append(table, []string{
			p.Symbol,
			fmt.Sprintf("%g", p.Qty),
			p.Side.String(),
			fmt.Sprintf("%.2f", p.AvgEntryPrice),
			fmt.Sprintf("%.2f", p.CurrentPrice),
			fmt.Sprintf("%.2f", p.CostBasis),
			fmt.Sprintf("%.2f", p.MarketValue),
			fmt.Sprintf("%.2f", p.UnrealizedPnl),
		})
	}
	return Response{
		Success: true,
		Message: "Done fetching portfolio positions.",
		Table:   table,
	}, nil
}
