// Package paper implements a brokerage backed by a local SQLite database.
// Orders fill immediately at the latest real quote with a small random slip,
// so the rest of the system runs unchanged against fake money. Market data
// is passed through to a real data source.
package paper

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quartzlab/tradedesk/broker"
	"github.com/quartzlab/tradedesk/market"
)

// maxSlip bounds the random deviation from the quoted price on a fill.
const maxSlip = 0.03

// Broker is a paper-trading implementation of broker.Client.
type Broker struct {
	db   *sql.DB
	data broker.MarketData
	ids  *ulidSource

	now  func() time.Time
	slip func() float64
}

// New opens (creating if needed) the order database at path and returns a
// Broker that fills against quotes from data.
func New(path string, data broker.MarketData) (*Broker, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open order db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create order schema: %w", err)
	}
	return &Broker{
		db:   db,
		data: data,
		ids:  newULIDSource(),
		now:  func() time.Time { return time.Now().UTC() },
		slip: func() float64 { return (rand.Float64()*2 - 1) * maxSlip },
	}, nil
}

// Close closes the underlying database.
func (b *Broker) Close() error {
	return b.db.Close()
}

// SubmitOrder fills the order immediately at the latest quote plus slip and
// records it.
func (b *Broker) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.Order, error) {
	quote, err := b.data.GetLatestQuote(ctx, req.Symbol)
	if err != nil {
		return broker.Order{}, fmt.Errorf("paper fill %s: %w", req.Symbol, err)
	}
	price := quote * (1 + b.slip())

	filledAt := b.now()
	order := broker.Order{
		ID:             b.ids.next(filledAt),
		ClientOrderID:  req.ClientOrderID,
		Symbol:         req.Symbol,
		Side:           req.Side,
		Type:           req.Type,
		Qty:            req.Qty,
		FilledQty:      req.Qty,
		FilledAvgPrice: price,
		TimeInForce:    req.TimeInForce,
		Status:         broker.Filled,
		FilledAt:       filledAt,
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO orders
		(id, client_order_id, symbol, side, type, qty, filled_qty, filled_avg_price, time_in_force, status, filled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.ClientOrderID, order.Symbol, order.Side.String(), order.Type.String(),
		order.Qty, order.FilledQty, order.FilledAvgPrice, order.TimeInForce,
		order.Status.String(), order.FilledAt,
	)
	if err != nil {
		return broker.Order{}, fmt.Errorf("record paper order: %w", err)
	}
	return order, nil
}

// GetOrder returns a recorded order by id.
func (b *Broker) GetOrder(ctx context.Context, orderID string) (broker.Order, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT id, client_order_id, symbol, side, type, qty, filled_qty, filled_avg_price, time_in_force, status, filled_at
		FROM orders
		WHERE id = ?`, orderID)

	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return broker.Order{}, fmt.Errorf("order %q not found", orderID)
		}
		return broker.Order{}, err
	}
	return order, nil
}

// CancelOrder removes an order record. Paper fills are instantaneous so this
// only ever applies to orders that never existed, mirroring a no-op cancel.
func (b *Broker) CancelOrder(ctx context.Context, orderID string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, orderID)
	return err
}

// ListOrders returns all orders with the given status, oldest first.
func (b *Broker) ListOrders(ctx context.Context, status string, _ bool) ([]broker.Order, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, client_order_id, symbol, side, type, qty, filled_qty, filled_avg_price, time_in_force, status, filled_at
		FROM orders
		WHERE status = ?
		ORDER BY filled_at ASC, id ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []broker.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, rows.Err()
}

// GetBars passes through to the real data source.
func (b *Broker) GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time, limit int, pageToken string) ([]market.Candle, string, error) {
	return b.data.GetBars(ctx, symbol, timeframe, start, end, limit, pageToken)
}

// GetLatestQuote passes through to the real data source.
func (b *Broker) GetLatestQuote(ctx context.Context, symbol string) (float64, error) {
	return b.data.GetLatestQuote(ctx, symbol)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (broker.Order, error) {
	var (
		order             broker.Order
		side, typ, status string
		filledAt          time.Time
	)
	if err := s.Scan(
		&order.ID, &order.ClientOrderID, &order.Symbol, &side, &typ,
		&order.Qty, &order.FilledQty, &order.FilledAvgPrice,
		&order.TimeInForce, &status, &filledAt,
	); err != nil {
		return broker.Order{}, err
	}

	var err error
	if order.Side, err = broker.ParseSide(side); err != nil {
		return broker.Order{}, fmt.Errorf("order %s: %w", order.ID, err)
	}
	if order.Type, err = broker.ParseOrderType(typ); err != nil {
		return broker.Order{}, fmt.Errorf("order %s: %w", order.ID, err)
	}
	if order.Status, err = broker.ParseStatus(status); err != nil {
		return broker.Order{}, fmt.Errorf("order %s: %w", order.ID, err)
	}
	order.FilledAt = filledAt.UTC()
	return order, nil
}
