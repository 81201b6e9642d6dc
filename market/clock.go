package market

import "time"

// Default US cash session expressed in UTC (09:30-16:00 New York).
var (
	DefaultOpen  = 13*time.Hour + 30*time.Minute
	DefaultClose = 20 * time.Hour
)

// Clock answers "is the market open at time T". It is a pure value type;
// the zero value is not usable, construct with NewClock.
type Clock struct {
	open  time.Duration // offset from midnight, in loc
	close time.Duration
	loc   *time.Location
}

// NewClock returns a Clock for a session running [open, close] each weekday,
// with open/close given as offsets from midnight in loc.
func NewClock(open, close time.Duration, loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{open: open, close: close, loc: loc}
}

// NewDefaultClock returns a Clock for the regular US equity session.
func NewDefaultClock() Clock {
	return Clock{open: DefaultOpen, close: DefaultClose, loc: time.UTC}
}

// IsOpen reports whether t falls within the trading session: Monday-Friday,
// time of day within [open, close]. Both boundaries are inclusive.
func (c Clock) IsOpen(t time.Time) bool {
	t = t.In(c.loc)
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	tod := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	return tod >= c.open && tod <= c.close
}

// SessionBounds returns the open and close instants of the session on the
// day containing t, in the clock's location.
func (c Clock) SessionBounds(t time.Time) (open, close time.Time) {
	t = t.In(c.loc)
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
	return midnight.Add(c.open), midnight.Add(c.close)
}

// FloorMinute truncates t to the start of its minute.
func FloorMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}
