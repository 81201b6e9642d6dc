// Package gateway drives a submitted order to a terminal state, hiding the
// brokerage's asynchronous fill process behind one bounded synchronous call.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quartzlab/tradedesk/broker"
)

const (
	DefaultPollInterval = time.Second
	DefaultOrderTimeout = 5 * time.Second
	DefaultTimeInForce  = "day"
)

// StuckOrderError means an order neither filled nor canceled within the
// retry budget. There is no safe automatic remedy: the account may hold an
// order in an unknown state, so this must reach a human.
type StuckOrderError struct {
	OrderID    string
	LastStatus broker.Status
	Timeout    time.Duration
}

func (e *StuckOrderError) Error() string {
	return fmt.Sprintf("order %s is stuck with status %s and didn't fill or cancel within %s",
		e.OrderID, e.LastStatus, e.Timeout)
}

// Config carries the gateway's retry budget.
type Config struct {
	BrokerID     string
	PollInterval time.Duration // defaults to DefaultPollInterval
	OrderTimeout time.Duration // defaults to DefaultOrderTimeout
	TimeInForce  string        // defaults to DefaultTimeInForce
}

// Gateway submits orders for one broker identity and polls them to a
// terminal state.
type Gateway struct {
	brokerID     string
	client       broker.Client
	pollInterval time.Duration
	timeout      time.Duration
	timeInForce  string
	log          *slog.Logger

	// sleep is swapped out in tests to avoid wall-clock waits.
	sleep func(time.Duration)
}

// New returns a Gateway over client. Zero config fields take defaults.
func New(cfg Config, client broker.Client, log *slog.Logger) *Gateway {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.OrderTimeout <= 0 {
		cfg.OrderTimeout = DefaultOrderTimeout
	}
	if cfg.TimeInForce == "" {
		cfg.TimeInForce = DefaultTimeInForce
	}
	// A poll interval beyond the timeout would starve the retry loop of
	// its single guaranteed query; clamp it to the budget.
	if cfg.PollInterval > cfg.OrderTimeout {
		cfg.PollInterval = cfg.OrderTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		brokerID:     cfg.BrokerID,
		client:       client,
		pollInterval: cfg.PollInterval,
		timeout:      cfg.OrderTimeout,
		timeInForce:  cfg.TimeInForce,
		log:          log,
		sleep:        time.Sleep,
	}
}

// ClientID is the correlation-id prefix tagging every order this gateway
// submits.
func (g *Gateway) ClientID() string {
	return "broker-" + g.brokerID
}

func (g *Gateway) correlationID() string {
	return g.ClientID() + "-" + uuid.NewString()
}

// Timeout returns the order timeout, for user-facing messages.
func (g *Gateway) Timeout() time.Duration {
	return g.timeout
}

// Submit sends one order and returns it in a terminal state. If the order
// does not settle within the timeout it is canceled and the cancellation is
// polled with the same budget; an order that survives both loops yields a
// StuckOrderError.
func (g *Gateway) Submit(ctx context.Context, symbol string, qty float64, side broker.Side, typ broker.OrderType) (broker.Order, error) {
	req := broker.OrderRequest{
		Symbol:        symbol,
		Qty:           qty,
		Side:          side,
		Type:          typ,
		TimeInForce:   g.timeInForce,
		ClientOrderID: g.correlationID(),
	}

	order, err := g.client.SubmitOrder(ctx, req)
	if err != nil {
		return broker.Order{}, fmt.Errorf("submit %s %s: %w", side, symbol, err)
	}
	g.log.Info("order submitted",
		"order_id", order.ID,
		"client_order_id", order.ClientOrderID,
		"symbol", symbol,
		"side", side.String(),
		"qty", qty,
		"status", order.Status.String(),
	)
	if order.Status.Terminal() {
		return order, nil
	}

	if settled, ok, err := g.pollUntilTerminal(ctx, order.ID); err != nil {
		return broker.Order{}, err
	} else if ok {
		return settled, nil
	}

	// The order outlived its budget. Cancel once and watch the cancellation
	// with the same bounded loop.
	g.log.Warn("order not terminal within timeout, canceling",
		"order_id", order.ID, "timeout", g.timeout)
	if err := g.client.CancelOrder(ctx, order.ID); err != nil {
		return broker.Order{}, fmt.Errorf("cancel stuck order %s: %w", order.ID, err)
	}

	if settled, ok, err := g.pollUntilTerminal(ctx, order.ID); err != nil {
		return broker.Order{}, err
	} else if ok {
		return settled, nil
	}

	last, err := g.client.GetOrder(ctx, order.ID)
	if err != nil {
		return broker.Order{}, fmt.Errorf("query stuck order %s: %w", order.ID, err)
	}
	return broker.Order{}, &StuckOrderError{
		OrderID:    order.ID,
		LastStatus: last.Status,
		Timeout:    g.timeout,
	}
}

// pollUntilTerminal re-queries the order every poll interval until it turns
// terminal or the accumulated wait reaches the timeout. The boolean reports
// whether a terminal state was observed.
func (g *Gateway) pollUntilTerminal(ctx context.Context, orderID string) (broker.Order, bool, error) {
	for waited := time.Duration(0); waited < g.timeout; waited += g.pollInterval {
		order, err := g.client.GetOrder(ctx, orderID)
		if err != nil {
			return broker.Order{}, false, fmt.Errorf("poll order %s: %w", orderID, err)
		}
		if order.Status.Terminal() {
			return order, true, nil
		}
		g.sleep(g.pollInterval)
	}
	return broker.Order{}, false, nil
}

// FilledOrders returns every filled order that carries this gateway's
// correlation-id prefix, i.e. the order history belonging to this broker.
func (g *Gateway) FilledOrders(ctx context.Context) ([]broker.Order, error) {
	orders, err := g.client.ListOrders(ctx, broker.Filled.String(), true)
	if err != nil {
		return nil, fmt.Errorf("list filled orders: %w", err)
	}
	prefix := g.ClientID() + "-"
	mine := make([]broker.Order, 0, len(orders))
	for _, o := range orders {
		if strings.HasPrefix(o.ClientOrderID, prefix) {
			mine = append(mine, o)
		}
	}
	return mine, nil
}
