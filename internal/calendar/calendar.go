package calendar

import (
	"fmt"
	"time"
)

// Calendar maps epoch-millis timestamps to calendar-day keys in the
// user's configured time zone. A match played at 23:30 local must land
// in that local day, not the UTC one.
type Calendar struct {
	loc *time.Location
}

func New(tz string) (*Calendar, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", tz, err)
	}
	return &Calendar{loc: loc}, nil
}

// DateKey returns the YYYY-MM-DD day bucket for a timestamp.
func (c *Calendar) DateKey(ms int64) string {
	return time.UnixMilli(ms).In(c.loc).Format("2006-01-02")
}

func (c *Calendar) Now() int64 {
	return time.Now().UnixMilli()
}
