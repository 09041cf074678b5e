// Package servicewindow maps wall-clock time onto the buttery's late-night service.
//
// A service opens at StartHour local time and runs for Length. Times before
// AnchorHour belong to the previous day's service, so a 00:30 order counts
// toward the service that opened the evening before.
package servicewindow

import (
	"fmt"
	"time"

	"github.com/angelmondragon/buttery-backend/pkg/config"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 03:04 PM"

	// AnchorHour is the local hour before which a time counts toward the previous service date.
	AnchorHour = 1
)

type Clock struct {
	loc       *time.Location
	startHour int
	length    time.Duration
}

// New builds a Clock from config.
func New(cfg config.ServiceWindowConfig) (*Clock, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
	}
	return &Clock{loc: loc, startHour: cfg.StartHour, length: cfg.Length}, nil
}

// MustDefault returns the America/New_York 22:00 +6h clock.
func MustDefault() *Clock {
	c, err := New(config.ServiceWindowConfig{TimeZone: "America/New_York", StartHour: 22, Length: 6 * time.Hour})
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

// ServiceDate returns the local calendar date of the service ts belongs to, at local midnight.
func (c *Clock) ServiceDate(ts time.Time) time.Time {
	local := ts.In(c.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
	if local.Hour() < AnchorHour {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// Window returns the [start, end) UTC bounds of the service anchored at now.
func (c *Clock) Window(now time.Time) (time.Time, time.Time) {
	day := c.ServiceDate(now)
	start := time.Date(day.Year(), day.Month(), day.Day(), c.startHour, 0, 0, 0, c.loc)
	return start.UTC(), start.Add(c.length).UTC()
}

// FormatTimestamp renders ts in local time as "YYYY-MM-DD HH:MM AM/PM".
func (c *Clock) FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(c.loc).Format(TimestampLayout)
}

// DateKey is the service-date label used for grouping history and naming sheet tabs.
func (c *Clock) DateKey(ts time.Time) string {
	return c.ServiceDate(ts).Format(DateLayout)
}
