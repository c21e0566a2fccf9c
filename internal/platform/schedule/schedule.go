// Package schedule computes publish calendars for content plans.
//
// All dates are calendar days: times are truncated to midnight in the
// location of the input value.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
	// Embed tzdata for environments without zoneinfo.
	_ "time/tzdata"

	"github.com/araddon/dateparse"
)

// DefaultPeriodDays is the length of a calendar window when none is given.
const DefaultPeriodDays = 30

const (
	hoursPerDay           = 24
	errFmtInvalidTimezone = "invalid timezone: %w"
)

// Static errors for date parsing.
var (
	ErrEmptyDate = errors.New("empty date")
)

var timezoneAliases = map[string]string{
	"Asia/Nicosia": "Europe/Nicosia",
}

// Window is an inclusive range of publish days.
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of days between Start and End.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours() / hoursPerDay)
}

// NextAvailableWindow returns the window that follows the latest existing
// publish date. Without existing dates the window starts today.
func NextAvailableWindow(existing []time.Time, days int, now time.Time) Window {
	if days <= 0 {
		days = DefaultPeriodDays
	}

	if len(existing) == 0 {
		start := DateOnly(now)

		return Window{Start: start, End: start.AddDate(0, 0, days)}
	}

	last := DateOnly(existing[0])

	for _, d := range existing[1:] {
		if day := DateOnly(d); day.After(last) {
			last = day
		}
	}

	start := last.AddDate(0, 0, 1)

	return Window{Start: start, End: start.AddDate(0, 0, days)}
}

// DistributePostDates spreads count posts over periodDays starting at start.
// Posts are spaced by the whole number of days periodDays/count, so more
// posts than days puts every post on the first day.
func DistributePostDates(start time.Time, count, periodDays int) []time.Time {
	if count <= 0 {
		return nil
	}

	if periodDays <= 0 {
		periodDays = DefaultPeriodDays
	}

	first := DateOnly(start)
	interval := periodDays / count

	dates := make([]time.Time, count)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, i*interval)
	}

	return dates
}

// ParseDate parses a loosely formatted date in loc and truncates it to a day.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyDate
	}

	if loc == nil {
		loc = time.UTC
	}

	t, err := dateparse.ParseIn(value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}

	return DateOnly(t), nil
}

// Location resolves an IANA timezone name, defaulting to UTC.
func Location(name string) (*time.Location, error) {
	name = NormalizeTimezone(name)
	if name == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf(errFmtInvalidTimezone, err)
	}

	return loc, nil
}

// NormalizeTimezone maps known aliases to canonical IANA names.
func NormalizeTimezone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if canonical, ok := timezoneAliases[value]; ok {
		return canonical
	}

	return value
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
