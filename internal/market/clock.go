package market

import "time"

// A-share trading sessions, minutes since midnight. The morning session is
// inclusive of both boundary minutes; the afternoon close at 15:00 is
// exclusive.
const (
	morningOpen    = 9*60 + 30
	morningClose   = 11*60 + 30
	afternoonOpen  = 13 * 60
	afternoonClose = 15 * 60
)

// Clock answers whether the exchange is trading at a given instant. It knows
// day-of-week and time-of-day only; there is no holiday calendar.
type Clock struct {
	loc *time.Location
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc}
}

func (c *Clock) IsOpen(t time.Time) bool {
	t = t.In(c.loc)

	weekday := t.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}

	minutes := t.Hour()*60 + t.Minute()

	if minutes >= morningOpen && minutes <= morningClose {
		return true
	}
	return minutes >= afternoonOpen && minutes < afternoonClose
}
