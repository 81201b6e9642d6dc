package market

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Window is a reporting lookback period.
type Window int

const (
	Daily Window = iota
	Weekly
	Monthly
	Total
)

// ErrTotalWindow is returned by WindowStart for the Total window, which has
// no start date. Callers treat Total as "no rebasing".
var ErrTotalWindow = errors.New("total window has no start date")

func (w Window) String() string {
	switch w {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Total:
		return "total"
	default:
		return fmt.Sprintf("Window(%d)", int(w))
	}
}

// ParseWindow converts a string such as "daily" or "TOTAL" into a Window.
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "total", "all":
		return Total, nil
	default:
		return 0, fmt.Errorf("unknown window %q", s)
	}
}

// WindowStart maps a window to its lookback start relative to now: Daily is
// midnight today, Weekly 7 days back, Monthly 28 days back. Total fails with
// ErrTotalWindow.
func WindowStart(w Window, now time.Time) (time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch w {
	case Daily:
		return midnight, nil
	case Weekly:
		return midnight.AddDate(0, 0, -7), nil
	case Monthly:
		return midnight.AddDate(0, 0, -28), nil
	case Total:
		return time.Time{}, ErrTotalWindow
	default:
		return time.Time{}, fmt.Errorf("unknown window %q", w)
	}
}
