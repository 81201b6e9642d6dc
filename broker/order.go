package broker

import (
	"fmt"
	"strings"
	"time"
)

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// ParseSide converts a wire-format side ("buy"/"sell") into a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown order side %q", s)
	}
}

// OrderType is the brokerage order type.
type OrderType int

const (
	Market OrderType = iota
	Limit
)

func (t OrderType) String() string {
	if t == Limit {
		return "limit"
	}
	return "market"
}

// ParseOrderType converts a wire-format type ("market"/"limit") into an OrderType.
func ParseOrderType(s string) (OrderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "market":
		return Market, nil
	case "limit":
		return Limit, nil
	default:
		return 0, fmt.Errorf("unknown order type %q", s)
	}
}

// Status is the lifecycle state of an order. Filled, Canceled and Rejected
// are terminal; Submitted covers every in-flight state the brokerage reports
// before reaching one of them.
type Status int

const (
	Submitted Status = iota
	Filled
	Canceled
	Rejected
)

func (s Status) String() string {
	switch s {
	case Filled:
		return "filled"
	case Canceled:
		return "canceled"
	case Rejected:
		return "rejected"
	default:
		return "submitted"
	}
}

// Terminal reports whether the order can no longer change state.
func (s Status) Terminal() bool {
	return s == Filled || s == Canceled || s == Rejected
}

// nonTerminalStatuses are the in-flight states the brokerage reports before
// an order settles. Anything outside this set and the terminal set is
// treated as unparseable.
var nonTerminalStatuses = map[string]struct{}{
	"new":                  {},
	"accepted":             {},
	"pending_new":          {},
	"pending_cancel":       {},
	"pending_replace":      {},
	"partially_filled":     {},
	"accepted_for_bidding": {},
	"held":                 {},
	"submitted":            {},
}

// ParseStatus converts a wire-format status into a Status. Known in-flight
// statuses collapse to Submitted; unknown strings are an error so corrupt
// brokerage data fails the request instead of being misread as in-flight.
func ParseStatus(s string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "filled":
		return Filled, nil
	case "canceled", "cancelled":
		return Canceled, nil
	case "rejected":
		return Rejected, nil
	}
	if _, ok := nonTerminalStatuses[normalized]; ok {
		return Submitted, nil
	}
	return 0, fmt.Errorf("unknown order status %q", s)
}

// Order is a brokerage order record. The brokerage is the system of record;
// once terminal the record is immutable and read-only to the ledger.
type Order struct {
	ID             string
	ClientOrderID  string
	Symbol         string
	Side           Side
	Type           OrderType
	Qty            float64
	FilledQty      float64
	FilledAvgPrice float64
	TimeInForce    string
	Status         Status
	FilledAt       time.Time
}

// OrderRequest is the payload for submitting a new order.
type OrderRequest struct {
	Symbol        string
	Qty           float64
	Side          Side
	Type          OrderType
	TimeInForce   string
	ClientOrderID string
}
