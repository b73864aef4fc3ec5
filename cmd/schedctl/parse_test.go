package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/availability"
)

func TestParseWeekday(t *testing.T) {
	cases := map[string]time.Weekday{
		"mon":      time.Monday,
		"Monday":   time.Monday,
		"thurs":    time.Thursday,
		"SUN":      time.Sunday,
		"0":        time.Sunday,
		"6":        time.Saturday,
		" friday ": time.Friday,
	}
	for in, want := range cases {
		got, err := parseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "7", "-1", "mo", "monx", "funday"} {
		_, err := parseWeekday(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	got, err := parseDate("2026-10-20", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDate("20/10/2026", loc)
	assert.Error(t, err)
}

func TestParseWindow(t *testing.T) {
	w, err := parseWindow("", "")
	require.NoError(t, err)
	assert.Nil(t, w)

	w, err = parseWindow("09:00", "12:30")
	require.NoError(t, err)
	assert.Equal(t, availability.MustTimeOfDay("09:00"), w.Start)
	assert.Equal(t, availability.MustTimeOfDay("12:30"), w.End)

	_, err = parseWindow("09:00", "")
	assert.Error(t, err)
	_, err = parseWindow("9am", "12:00")
	assert.Error(t, err)
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	day := time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)

	got := startOfDay(day, loc)
	assert.Equal(t, time.Date(2026, time.October, 19, 22, 0, 0, 0, time.UTC), got.UTC())
}
