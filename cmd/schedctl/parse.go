package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/availability"
)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// parseWeekday accepts a day name ("monday", "Mon") or its number, Sunday
// being 0.
func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("day of week %d out of range 0-6", n)
		}
		return time.Weekday(n), nil
	}
	if len(s) >= 3 {
		if d, ok := weekdays[s[:3]]; ok && strings.HasPrefix(strings.ToLower(d.String()), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid day of week %q", s)
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return availability.CivilDate(t), nil
}

func parseID(s, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

// parseWindow reads an optional start/end pair. Both empty means no window.
func parseWindow(start, end string) (*availability.Window, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("both --start and --end are required for override hours")
	}
	s, err := availability.ParseTimeOfDay(start)
	if err != nil {
		return nil, err
	}
	e, err := availability.ParseTimeOfDay(end)
	if err != nil {
		return nil, err
	}
	return &availability.Window{Start: s, End: e}, nil
}

// startOfDay is midnight of a civil date in loc.
func startOfDay(date time.Time, loc *time.Location) time.Time {
	return availability.TimeOfDay(0).On(date, loc)
}
