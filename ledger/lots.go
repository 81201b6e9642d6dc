package ledger

import "github.com/quartzlab/tradedesk/broker"

// lot is an open quantity acquired at a single entry price.
type lot struct {
	qty   float64
	price float64
}

// book holds per-symbol FIFO lot queues plus the running realized PnL of a
// replay. Buys push lots, sells consume the oldest lots first.
type book struct {
	lots     map[string][]lot
	net      map[string]float64
	realized float64
}

func newBook() *book {
	return &book{
		lots: make(map[string][]lot),
		net:  make(map[string]float64),
	}
}

// apply folds one fill into the book. For sells it returns the quantity that
// could not be matched against any open lot (non-zero means the order
// history sold more than it ever bought).
func (b *book) apply(o broker.Order) float64 {
	qty := o.FilledQty
	price := o.FilledAvgPrice

	if o.Side == broker.Buy {
		b.lots[o.Symbol] = append(b.lots[o.Symbol], lot{qty: qty, price: price})
		b.net[o.Symbol] += qty
		return 0
	}

	remaining := qty
	queue := b.lots[o.Symbol]
	for remaining > 0 && len(queue) > 0 {
		matched := queue[0].qty
		if remaining < matched {
			matched = remaining
		}
		b.realized += matched * (price - queue[0].price)
		remaining -= matched
		queue[0].qty -= matched
		if queue[0].qty == 0 {
			queue = queue[1:]
		}
	}
	b.lots[o.Symbol] = queue
	b.net[o.Symbol] -= qty
	return remaining
}

// unrealized values every open lot against the given mark price.
func (b *book) unrealized(symbol string, mark float64) float64 {
	var total float64
	for _, l := range b.lots[symbol] {
		total += l.qty * (mark - l.price)
	}
	return total
}

// openQty is the total quantity still held in symbol's lot queue.
func (b *book) openQty(symbol string) float64 {
	var total float64
	for _, l := range b.lots[symbol] {
		total += l.qty
	}
	return total
}

// costBasis is the entry cost of symbol's remaining lots.
func (b *book) costBasis(symbol string) float64 {
	var total float64
	for _, l := range b.lots[symbol] {
		total += l.qty * l.price
	}
	return total
}
