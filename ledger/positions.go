package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/quartzlab/tradedesk/broker"
)

// PositionSide is the direction of an open position.
type PositionSide int

const (
	Long PositionSide = iota
	Short
)

func (s PositionSide) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// Position is the current state of one symbol's open lots, marked to the
// latest quote. Derived on demand, never persisted.
type Position struct {
	Symbol        string
	Qty           float64
	Side          PositionSide
	AvgEntryPrice float64
	CurrentPrice  float64
	CostBasis     float64
	MarketValue   float64
	UnrealizedPnl float64
}

// Positions replays the filled orders with the same FIFO matching as the
// PnL report, keeping only the final lot state, and marks each symbol to its
// latest quote. The lot book is long-only, so every emitted position is
// Long; symbols whose lots are fully consumed are omitted, including
// over-sold ones (the excess sell is logged during the replay).
func (e *Engine) Positions(ctx context.Context, orders []broker.Order) ([]Position, error) {
	sorted := make([]broker.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FilledAt.Before(sorted[j].FilledAt)
	})

	b := newBook()
	for _, o := range sorted {
		if unmatched := b.apply(o); unmatched > 0 {
			e.log.Warn("sell exceeds open lots",
				"symbol", o.Symbol,
				"order_id", o.ID,
				"unmatched_qty", unmatched,
			)
		}
	}

	symbols := make([]string, 0, len(b.lots))
	for symbol := range b.lots {
		if b.openQty(symbol) > 0 {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	positions := make([]Position, 0, len(symbols))
	for _, symbol := range symbols {
		quote, err := e.data.GetLatestQuote(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("quote %s: %w", symbol, err)
		}

		qty := b.openQty(symbol)
		basis := b.costBasis(symbol)

		positions = append(positions, Position{
			Symbol:        symbol,
			Qty:           qty,
			Side:          Long,
			AvgEntryPrice: basis / qty,
			CurrentPrice:  quote,
			CostBasis:     basis,
			MarketValue:   qty * quote,
			UnrealizedPnl: qty*quote - basis,
		})
	}
	return positions, nil
}
