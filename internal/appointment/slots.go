package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/availability"
)

// HasConflict reports whether a non-cancelled appointment of the doctor sits
// exactly on instant.
func (s *Service) HasConflict(ctx context.Context, doctorID uuid.UUID, instant time.Time) (bool, error) {
	n, err := s.repo.CountConflicting(ctx, doctorID, instant)
	if err != nil {
		return false, fmt.Errorf("check conflict: %w", err)
	}
	return n > 0, nil
}

// schedWindow is one block of bookable hours on a specific date.
type schedWindow struct {
	window   availability.Window
	slotSize time.Duration
}

// windowsFor resolves the effective hours of a doctor on a civil date. A nil
// result with a nil error means the doctor does not work that day.
func (s *Service) windowsFor(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]schedWindow, error) {
	exc, err := s.schedule.FindActiveException(ctx, doctorID, date)
	if err != nil && !errors.Is(err, availability.ErrExceptionNotFound) {
		return nil, fmt.Errorf("load date exception: %w", err)
	}
	if exc != nil && exc.Closed() {
		return nil, nil
	}

	weekly, err := s.schedule.FindActiveByDoctorAndDay(ctx, doctorID, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("load weekly availability: %w", err)
	}

	if exc != nil && exc.Override != nil {
		size, err := s.standardSlotSize(ctx, doctorID, weekly)
		if err != nil {
			return nil, err
		}
		return []schedWindow{{window: *exc.Override, slotSize: size}}, nil
	}

	out := make([]schedWindow, 0, len(weekly))
	for i := range weekly {
		w := &weekly[i]
		out = append(out, schedWindow{window: w.Window(), slotSize: w.SlotDuration()})
	}
	return out, nil
}

// standardSlotSize picks the slot duration for an override window: the
// weekday's first active row, else any active row of the doctor, else the
// configured default.
func (s *Service) standardSlotSize(ctx context.Context, doctorID uuid.UUID, weekday []availability.WeeklyAvailability) (time.Duration, error) {
	if len(weekday) > 0 {
		return weekday[0].SlotDuration(), nil
	}

	all, err := s.schedule.ListWeeklyByDoctor(ctx, doctorID)
	if err != nil {
		return 0, fmt.Errorf("load weekly availability: %w", err)
	}
	for i := range all {
		if all[i].Active {
			return all[i].SlotDuration(), nil
		}
	}
	return time.Duration(s.opts.DefaultSlotMinutes) * time.Minute, nil
}

// AvailableSlots enumerates the candidate instants of a doctor on a date in
// window order. An instant is available when nothing occupies it and it is
// still in the future. Overlapping windows each contribute their own
// instants.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	day := availability.CivilDate(date)

	windows, err := s.windowsFor(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []Slot{}, nil
	}

	now := s.now()
	slots := []Slot{}
	for _, w := range windows {
		start := w.window.Start.On(day, s.opts.Location)
		end := w.window.End.On(day, s.opts.Location)

		for t := start; t.Before(end); t = t.Add(w.slotSize) {
			conflict, err := s.HasConflict(ctx, doctorID, t)
			if err != nil {
				return nil, err
			}
			slots = append(slots, Slot{
				Instant:   t,
				Available: !conflict && t.After(now),
			})
		}
	}
	return slots, nil
}

// IsSlotAvailable applies the slot rules to a single instant: the date must
// not be closed, nothing may occupy the instant, and its wall-clock time
// must fall inside one of the day's windows. Past instants are never
// available.
func (s *Service) IsSlotAvailable(ctx context.Context, doctorID uuid.UUID, instant time.Time) (bool, error) {
	local := instant.In(s.opts.Location)
	if !local.After(s.now()) {
		return false, nil
	}

	day := availability.CivilDate(local)
	exc, err := s.schedule.FindActiveException(ctx, doctorID, day)
	if err != nil && !errors.Is(err, availability.ErrExceptionNotFound) {
		return false, fmt.Errorf("load date exception: %w", err)
	}
	if exc != nil && exc.Closed() {
		return false, nil
	}

	conflict, err := s.HasConflict(ctx, doctorID, local)
	if err != nil {
		return false, err
	}
	if conflict {
		return false, nil
	}

	windows, err := s.windowsFor(ctx, doctorID, day)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		if w.window.Contains(local) {
			return true, nil
		}
	}
	return false, nil
}
