package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzlab/tradedesk/broker"
	"github.com/quartzlab/tradedesk/market"
)

func at(o broker.Order, t time.Time) broker.Order {
	o.FilledAt = t
	o.Status = broker.Filled
	return o
}

func TestRunningPnlEmptyInput(t *testing.T) {
	t.Parallel()

	e := newTestEngine(&fakeData{}, time.Date(2026, 6, 3, 15, 0, 0, 0, time.UTC))
	snaps, err := e.RunningPnl(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, snaps)
	assert.Empty(t, snaps)
}

func TestRunningPnlRoundTrip(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 3, 15, 0, 0, 0, time.UTC) // Wednesday, mid-session
	data := &fakeData{bars: map[string][]market.Candle{
		"AAPL": minuteBars(base, 100, 102, 104, 110, 110, 111),
	}}
	e := newTestEngine(data, base.Add(5*time.Minute))

	orders := []broker.Order{
		at(buy("AAPL", 10, 100), base),
		at(sell("AAPL", 10, 110), base.Add(3*time.Minute)),
	}

	snaps, err := e.RunningPnl(context.Background(), orders)
	require.NoError(t, err)
	require.Len(t, snaps, 6, "one snapshot per market-open minute")

	// Holding through rising marks.
	assert.InDelta(t, 0.0, snaps[0].Total, 1e-9)
	assert.InDelta(t, 20.0, snaps[1].Unrealized, 1e-9)
	assert.InDelta(t, 40.0, snaps[2].Unrealized, 1e-9)

	// Sell books $100 realized and flattens the position.
	assert.InDelta(t, 100.0, snaps[3].Realized, 1e-9)
	assert.InDelta(t, 0.0, snaps[3].Unrealized, 1e-9)

	// Realized carries unchanged after the position closes.
	for _, s := range snaps[3:] {
		assert.InDelta(t, 100.0, s.Total, 1e-9)
	}
}

func TestRunningPnlPartialSells(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 3, 15, 0, 0, 0, time.UTC)
	data := &fakeData{bars: map[string][]market.Candle{
		"AAPL": minuteBars(base, 100, 110, 120),
	}}
	e := newTestEngine(data, base.Add(2*time.Minute))

	orders := []broker.Order{
		at(buy("AAPL", 10, 100), base),
		at(sell("AAPL", 4, 110), base.Add(time.Minute)),
		at(sell("AAPL", 6, 120), base.Add(2*time.Minute)),
	}

	snaps, err := e.RunningPnl(context.Background(), orders)
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	assert.InDelta(t, 40.0, snaps[1].Realized, 1e-9)
	assert.InDelta(t, 60.0, snaps[1].Unrealized, 1e-9, "6 shares left at $100 marked at $110")
	assert.InDelta(t, 160.0, snaps[2].Realized, 1e-9)
	assert.InDelta(t, 0.0, snaps[2].Unrealized, 1e-9)
}

func TestRunningPnlSkipsClosedMinutes(t *testing.T) {
	t.Parallel()

	friday := time.Date(2026, 6, 5, 19, 58, 0, 0, time.UTC)
	monday := time.Date(2026, 6, 8, 13, 30, 0, 0, time.UTC)

	data := &fakeData{bars: map[string][]market.Candle{
		"AAPL": {
			{Time: friday, Close: 100},
			{Time: monday.Add(time.Minute), Close: 105},
		},
	}}
	e := newTestEngine(data, monday.Add(2*time.Minute))

	orders := []broker.Order{
		at(buy("AAPL", 10, 100), friday),
		at(sell("AAPL", 10, 105), monday.Add(time.Minute)),
	}

	snaps, err := e.RunningPnl(context.Background(), orders)
	require.NoError(t, err)

	// Friday 19:58-20:00 plus Monday 13:30-13:32; nothing over the weekend.
	require.Len(t, snaps, 6)
	assert.True(t, snaps[2].Time.Equal(time.Date(2026, 6, 5, 20, 0, 0, 0, time.UTC)))
	assert.True(t, snaps[3].Time.Equal(monday))

	// Monday's first minute inherits Friday's last close.
	assert.InDelta(t, 0.0, snaps[3].Unrealized, 1e-9)
	assert.InDelta(t, 50.0, snaps[4].Realized, 1e-9)
}

func TestRunningPnlForwardFillsMissingMinutes(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 3, 15, 0, 0, 0, time.UTC)
	// Bars only at 15:00 and 15:03; the gap carries the $104 close forward.
	data := &fakeData{bars: map[string][]market.Candle{
		"AAPL": {
			{Time: base, Close: 104},
			{Time: base.Add(3 * time.Minute), Close: 108},
		},
	}}
	e := newTestEngine(data, base.Add(3*time.Minute))

	orders := []broker.Order{at(buy("AAPL", 10, 104), base)}

	snaps, err := e.RunningPnl(context.Background(), orders)
	require.NoError(t, err)
	require.Len(t, snaps, 4)
	assert.InDelta(t, 0.0, snaps[1].Unrealized, 1e-9)
	assert.InDelta(t, 0.0, snaps[2].Unrealized, 1e-9)
	assert.InDelta(t, 40.0, snaps[3].Unrealized, 1e-9)
}

func TestRunningPnlStitchesBarPages(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 3, 15, 0, 0, 0, time.UTC)
	data := &fakeData{
		bars:     map[string][]market.Candle{"AAPL": minuteBars(base, 100, 101, 102, 103, 104)},
		pageSize: 2,
	}
	e := newTestEngine(data, base.Add(4*time.Minute))

	orders := []broker.Order{at(buy("AAPL", 1, 100), base)}

	snaps, err := e.RunningPnl(context.Background(), orders)
	require.NoError(t, err)
	require.Len(t, snaps, 5)
	assert.Equal(t, 3, data.barCalls, "5 bars in pages of 2")
	assert.InDelta(t, 4.0, snaps[4].Unrealized, 1e-9)
}

func TestRunningPnlIdempotent(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 3, 15, 0, 0, 0, time.UTC)
	data := &fakeData{bars: map[string][]market.Candle{
		"AAPL": minuteBars(base, 100, 101, 102),
	}}
	e := newTestEngine(data, base.Add(2*time.Minute))

	orders := []broker.Order{
		at(buy("AAPL", 10, 100), base),
		at(sell("AAPL", 5, 102), base.Add(2*time.Minute)),
	}

	first, err := e.RunningPnl(context.Background(), orders)
	require.NoError(t, err)
	second, err := e.RunningPnl(context.Background(), orders)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunningPnlOverSellKeepsGoing(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 3, 15, 0, 0, 0, time.UTC)
	data := &fakeData{bars: map[string][]market.Candle{
		"AAPL": minuteBars(base, 100, 110),
	}}
	e := newTestEngine(data, base.Add(time.Minute))

	orders := []broker.Order{
		at(buy("AAPL", 5, 100), base),
		at(sell("AAPL", 8, 110), base.Add(time.Minute)),
	}

	snaps, err := e.RunningPnl(context.Background(), orders)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.InDelta(t, 50.0, snaps[1].Realized, 1e-9, "only held shares realize")
}

func TestRebase(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)
	series := []Snapshot{
		{Time: t0.Add(-48 * time.Hour), Total: 50},
		{Time: t0.Add(-24 * time.Hour), Total: 80},
		{Time: t0, Total: 80},
		{Time: t0.Add(24 * time.Hour), Total: 95},
	}

	rebased := Rebase(series, t0)
	require.Len(t, rebased, 2)
	assert.InDelta(t, 0.0, rebased[0].Total, 1e-9)
	assert.InDelta(t, 15.0, rebased[1].Total, 1e-9)
}

func TestRebaseNoHistoryBeforeWindow(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)
	series := []Snapshot{
		{Time: t0, Total: 30},
		{Time: t0.Add(time.Minute), Total: 45},
	}

	rebased := Rebase(series, t0)
	require.Len(t, rebased, 2)
	assert.InDelta(t, 30.0, rebased[0].Total, 1e-9, "baseline is zero with no prior history")
	assert.InDelta(t, 45.0, rebased[1].Total, 1e-9)
}

func TestRebaseEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Rebase(nil, time.Now()))
}
