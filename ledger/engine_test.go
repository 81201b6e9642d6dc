package ledger

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/quartzlab/tradedesk/market"
)

// fakeData serves canned bars (optionally in pages) and quotes.
type fakeData struct {
	bars     map[string][]market.Candle
	quotes   map[string]float64
	pageSize int
	barCalls int
}

func (f *fakeData) GetBars(_ context.Context, symbol, _ string, _, _ time.Time, _ int, pageToken string) ([]market.Candle, string, error) {
	f.barCalls++
	all := f.bars[symbol]

	offset := 0
	if pageToken != "" {
		offset, _ = strconv.Atoi(pageToken)
	}
	size := f.pageSize
	if size <= 0 {
		size = len(all)
	}
	end := offset + size
	if end >= len(all) {
		return all[offset:], "", nil
	}
	return all[offset:end], strconv.Itoa(end), nil
}

func (f *fakeData) GetLatestQuote(_ context.Context, symbol string) (float64, error) {
	return f.quotes[symbol], nil
}

func newTestEngine(data *fakeData, now time.Time) *Engine {
	e := NewEngine(data, market.NewDefaultClock(), slog.New(slog.DiscardHandler))
	e.now = func() time.Time { return now }
	return e
}

// minuteBars builds consecutive 1-minute close bars starting at start.
func minuteBars(start time.Time, closes ...float64) []market.Candle {
	bars := make([]market.Candle, len(closes))
	for i, c := range closes {
		bars[i] = market.Candle{Time: start.Add(time.Duration(i) * time.Minute), Close: c}
	}
	return bars
}
