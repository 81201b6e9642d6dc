package trading

import (
	"github.com/quartzlab/tradedesk/broker"
	"github.com/quartzlab/tradedesk/ledger"
	"github.com/quartzlab/tradedesk/market"
)

// Request is the closed set of commands a Desk handles. The marker method
// keeps the set sealed so Dispatch's type switch stays exhaustive.
type Request interface {
	isRequest()
}

// SubmitTradeRequest asks the desk to route one order.
type SubmitTradeRequest struct {
	Symbol string
	Qty    float64
	Side   broker.Side
	Type   broker.OrderType
}

// GetPnlRequest asks for the running PnL series over a reporting window.
type GetPnlRequest struct {
	Window market.Window
}

// GetOrdersRequest asks for the filled-order history over a reporting window.
type GetOrdersRequest struct {
	Window market.Window
}

// GetPositionsRequest asks for the current open positions.
type GetPositionsRequest struct{}

func (SubmitTradeRequest) isRequest()  {}
func (GetPnlRequest) isRequest()       {}
func (GetOrdersRequest) isRequest()    {}
func (GetPositionsRequest) isRequest() {}

// Response is what the desk hands back to whatever front end issued the
// request. Chart and Table are payloads for an external renderer; Message is
// always set and human-readable.
type Response struct {
	Success bool
	Message string
	Chart   []ledger.Snapshot
	Table   [][]string
}
