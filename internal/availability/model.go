package availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const DefaultSlotMinutes = 30

// TimeOfDay is a wall-clock time as minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "15:04" or "15:04:05"; seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
}

func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On returns this time of day on date's calendar day in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, loc)
}

// Window is a half-open [Start, End) span of a day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (w Window) Valid() bool {
	return w.Start >= 0 && w.End <= 24*60 && w.Start < w.End
}

// Contains reports whether the wall-clock time of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return secs >= int(w.Start)*60 && secs < int(w.End)*60
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// CivilDate strips the clock and zone from t, keeping its calendar day.
// Dates are carried as UTC midnights throughout the package.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeeklyAvailability is one recurring block of open hours of a doctor.
type WeeklyAvailability struct {
	ID                  uuid.UUID
	DoctorID            uuid.UUID
	DayOfWeek           time.Weekday
	StartTime           TimeOfDay
	EndTime             TimeOfDay
	SlotDurationMinutes int
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (w *WeeklyAvailability) Window() Window {
	return Window{Start: w.StartTime, End: w.EndTime}
}

func (w *WeeklyAvailability) SlotDuration() time.Duration {
	return time.Duration(w.SlotDurationMinutes) * time.Minute
}

// DateException overrides the weekly schedule of one doctor on one date.
// A closed exception (IsAvailable false) never has an Override. An open
// exception with an Override replaces the weekly hours for that date; an
// open exception without one leaves them in force.
type DateException struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	Date        time.Time // civil date, see CivilDate
	Reason      string
	IsAvailable bool
	Override    *Window
	Active      bool
	CreatedOn   time.Time
}

func (e *DateException) Closed() bool {
	return !e.IsAvailable
}
