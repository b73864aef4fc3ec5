package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBusinessDaysBetween(t *testing.T) {
	// 2026-10-19 is a Monday.
	d := func(day, hour int) time.Time {
		return time.Date(2026, time.October, day, hour, 0, 0, 0, time.UTC)
	}

	cases := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"monday to next tuesday", d(19, 9), d(27, 9), 5},
		{"same day", d(19, 9), d(19, 17), 0},
		{"next day", d(19, 9), d(20, 9), 0},
		{"monday to wednesday", d(19, 9), d(21, 9), 1},
		{"friday to monday", d(23, 10), d(26, 9), 0},
		{"thursday to monday", d(22, 10), d(26, 9), 1},
		{"saturday to tuesday", d(24, 10), d(27, 9), 1},
		{"reversed", d(27, 9), d(19, 9), 0},
		{"equal", d(19, 9), d(19, 9), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BusinessDaysBetween(tc.from, tc.to))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())

	s, ok := ParseStatus("CONFIRMED")
	assert.True(t, ok)
	assert.Equal(t, StatusConfirmed, s)

	_, ok = ParseStatus("confirmed")
	assert.False(t, ok)
}
