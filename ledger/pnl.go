// Package ledger reconstructs realized and unrealized PnL from a stream of
// filled orders using FIFO lot accounting. It keeps no state of its own:
// every report is recomputed from the authoritative order history, price
// history and the current time.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/quartzlab/tradedesk/broker"
	"github.com/quartzlab/tradedesk/market"
)

// Snapshot is the PnL state at one market minute. Realized is cumulative and
// never changes retroactively; Unrealized is fully recomputed each minute
// from the open lots and that minute's mark price.
type Snapshot struct {
	Time       time.Time
	Realized   float64
	Unrealized float64
	Total      float64
}

// Engine computes PnL reports against a price-history provider.
type Engine struct {
	data  broker.MarketData
	clock market.Clock
	log   *slog.Logger

	now func() time.Time
}

// NewEngine returns an Engine marking prices through data and using clock to
// decide which minutes trade.
func NewEngine(data broker.MarketData, clock market.Clock, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		data:  data,
		clock: clock,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RunningPnl replays the filled orders minute by minute from the earliest
// fill to now and returns one snapshot per market-open minute. The input
// must contain only filled orders; an empty input yields an empty slice.
func (e *Engine) RunningPnl(ctx context.Context, orders []broker.Order) ([]Snapshot, error) {
	snapshots := []Snapshot{}
	if len(orders) == 0 {
		return snapshots, nil
	}

	marks, err := e.markPrices(ctx, orders)
	if err != nil {
		return nil, err
	}

	end := market.FloorMinute(e.now())
	start := end
	fills := make(map[time.Time][]broker.Order)
	for _, o := range orders {
		at := market.FloorMinute(o.FilledAt.UTC())
		if at.Before(start) {
			start = at
		}
		fills[at] = append(fills[at], o)
	}

	b := newBook()
	lastMark := make(map[string]float64)

	for ts := start; !ts.After(end); ts = ts.Add(time.Minute) {
		if !e.clock.IsOpen(ts) {
			continue
		}

		for _, o := range fills[ts] {
			if unmatched := b.apply(o); unmatched > 0 {
				// The history sold more than it ever bought. Keep going with
				// what matched; the gap is data corruption upstream.
				e.log.Warn("sell exceeds open lots",
					"symbol", o.Symbol,
					"order_id", o.ID,
					"unmatched_qty", unmatched,
				)
			}
		}

		var unrealized float64
		for symbol, lots := range b.lots {
			if len(lots) == 0 {
				continue
			}
			mark, ok := marks[symbol][ts]
			if ok {
				lastMark[symbol] = mark
			} else if mark, ok = lastMark[symbol]; !ok {
				// No price seen yet for this symbol; its lots carry no
				// paper PnL until data exists.
				continue
			}
			unrealized += b.unrealized(symbol, mark)
		}

		snapshots = append(snapshots, Snapshot{
			Time:       ts,
			Realized:   b.realized,
			Unrealized: unrealized,
			Total:      b.realized + unrealized,
		})
	}
	return snapshots, nil
}

// Rebase windows a snapshot series: snapshots before start are dropped and
// every remaining Total is shifted by the last Total seen before start, so
// the series reads zero at the window boundary. Realized and Unrealized are
// left untouched.
func Rebase(snapshots []Snapshot, start time.Time) []Snapshot {
	baseline := 0.0
	i := 0
	for i < len(snapshots) && snapshots[i].Time.Before(start) {
		baseline = snapshots[i].Total
		i++
	}

	out := make([]Snapshot, 0, len(snapshots)-i)
	for _, s := range snapshots[i:] {
		s.Total -= baseline
		out = append(out, s)
	}
	return out
}
