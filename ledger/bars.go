package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/quartzlab/tradedesk/broker"
	"github.com/quartzlab/tradedesk/market"
)

// barPageLimit is the maximum bars requested per data-API page.
const barPageLimit = 1000

// markPrices builds a per-symbol minute-to-price map covering each symbol
// from its earliest fill to now.
func (e *Engine) markPrices(ctx context.Context, orders []broker.Order) (map[string]map[time.Time]float64, error) {
	starts := make(map[string]time.Time)
	for _, o := range orders {
		at := o.FilledAt.UTC()
		if cur, ok := starts[o.Symbol]; !ok || at.Before(cur) {
			starts[o.Symbol] = at
		}
	}

	marks := make(map[string]map[time.Time]float64, len(starts))
	for symbol, start := range starts {
		bars, err := e.fetchBars(ctx, symbol, start)
		if err != nil {
			return nil, err
		}
		marks[symbol] = e.forwardFill(bars)
	}
	return marks, nil
}

// fetchBars pulls every 1-minute bar for symbol from start to now, following
// page tokens and stitching the pages in timestamp order.
func (e *Engine) fetchBars(ctx context.Context, symbol string, start time.Time) ([]market.Candle, error) {
	end := e.now()

	var bars []market.Candle
	token := ""
	for {
		page, next, err := e.data.GetBars(ctx, symbol, "1Min", start, end, barPageLimit, token)
		if err != nil {
			return nil, fmt.Errorf("fetch bars %s: %w", symbol, err)
		}
		bars = append(bars, page...)
		if next == "" {
			break
		}
		token = next
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// forwardFill expands sparse bars into a dense minute-to-close map. For each
// trading day seen in the bars, every session minute gets the last known
// close at or before it. Minutes before the first bar ever seen stay
// unresolved. The carry continues across days, so a day's opening minutes
// inherit the prior session's last close until fresh bars arrive.
func (e *Engine) forwardFill(bars []market.Candle) map[time.Time]float64 {
	prices := make(map[time.Time]float64)
	if len(bars) == 0 {
		return prices
	}

	days := make([]time.Time, 0, 8)
	seen := make(map[time.Time]struct{})
	for _, b := range bars {
		day := b.Time.UTC().Truncate(24 * time.Hour)
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	idx := 0
	last := 0.0
	haveLast := false
	for _, day := range days {
		open, close := e.clock.SessionBounds(day)
		for ts := open; !ts.After(close); ts = ts.Add(time.Minute) {
			for idx < len(bars) && !bars[idx].Time.After(ts) {
				last = bars[idx].Close
				haveLast = true
				idx++
			}
			if haveLast {
				prices[ts] = last
			}
		}
	}
	return prices
}
