package engine

import (
	"time"

	"github.com/tartampluch/go-sambat/internal/calendar"
)

// Clock abstracts time.Now() to allow deterministic testing.
// The Generator uses it to decide which IPOs are open today.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// TodayBS returns today's BS date as seen in loc.
func TodayBS(c Clock, loc *time.Location) (calendar.BSDate, error) {
	return calendar.ToBS(c.Now().In(loc))
}
