package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clock"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/memstore"
)

var today = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

type env struct {
	svc     *availability.Service
	repo    *memstore.Availability
	doctor  identity.Identity
	other   identity.Identity
	patient identity.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := memstore.NewDirectory()
	e := &env{
		repo:    memstore.NewAvailability(),
		doctor:  dir.Add("dr.grey", identity.RoleDoctor),
		other:   dir.Add("dr.shepherd", identity.RoleDoctor),
		patient: dir.Add("izzie", identity.RolePatient),
	}
	e.svc = availability.NewService(e.repo, dir, memstore.NewLocker(), clock.NewFake(today), time.UTC, logger.Discard())
	return e
}

func weekly(day time.Weekday, start, end string, minutes int) availability.WeeklyInput {
	return availability.WeeklyInput{
		DayOfWeek:           day,
		Start:               availability.MustTimeOfDay(start),
		End:                 availability.MustTimeOfDay(end),
		SlotDurationMinutes: minutes,
		Active:              true,
	}
}

func TestCreateWeekly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	w, err := e.svc.CreateWeekly(ctx, e.doctor.Username, weekly(time.Monday, "09:00", "12:00", 0))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, w.ID)
	assert.Equal(t, e.doctor.ID, w.DoctorID)
	assert.Equal(t, availability.DefaultSlotMinutes, w.SlotDurationMinutes)

	rows, err := e.svc.ListWeekly(ctx, e.doctor.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCreateWeekly_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		actor string
		in    availability.WeeklyInput
		kind  error
	}{
		{"end before start", e.doctor.Username, weekly(time.Monday, "12:00", "09:00", 30), apperr.ErrInvalidRequest},
		{"empty window", e.doctor.Username, weekly(time.Monday, "09:00", "09:00", 30), apperr.ErrInvalidRequest},
		{"negative slot", e.doctor.Username, weekly(time.Monday, "09:00", "10:00", -5), apperr.ErrInvalidRequest},
		{"bad weekday", e.doctor.Username, weekly(time.Weekday(9), "09:00", "10:00", 30), apperr.ErrInvalidRequest},
		{"patient actor", e.patient.Username, weekly(time.Monday, "09:00", "10:00", 30), apperr.ErrInvalidRequest},
		{"unknown actor", "ghost", weekly(time.Monday, "09:00", "10:00", 30), apperr.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.svc.CreateWeekly(ctx, tc.actor, tc.in)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestUpdateAndDeleteWeekly_OwnerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	w, err := e.svc.CreateWeekly(ctx, e.doctor.Username, weekly(time.Monday, "09:00", "12:00", 30))
	require.NoError(t, err)

	_, err = e.svc.UpdateWeekly(ctx, e.other.Username, w.ID, weekly(time.Monday, "10:00", "12:00", 30))
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, e.svc.DeleteWeekly(ctx, e.other.Username, w.ID), apperr.ErrForbidden)

	updated, err := e.svc.UpdateWeekly(ctx, e.doctor.Username, w.ID, weekly(time.Tuesday, "13:00", "17:00", 15))
	require.NoError(t, err)
	assert.Equal(t, time.Tuesday, updated.DayOfWeek)
	assert.Equal(t, 15, updated.SlotDurationMinutes)

	require.NoError(t, e.svc.DeleteWeekly(ctx, e.doctor.Username, w.ID))
	assert.ErrorIs(t, e.svc.DeleteWeekly(ctx, e.doctor.Username, w.ID), apperr.ErrNotFound)
}

func TestCreateException(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	date := time.Date(2026, time.December, 24, 0, 0, 0, 0, time.UTC)

	exc, err := e.svc.CreateException(ctx, e.doctor.Username, availability.ExceptionInput{
		Date:   date,
		Reason: "holiday",
	})
	require.NoError(t, err)
	assert.True(t, exc.Closed())
	assert.True(t, exc.Active)

	_, err = e.svc.CreateException(ctx, e.doctor.Username, availability.ExceptionInput{
		Date:        date,
		IsAvailable: true,
	})
	assert.ErrorIs(t, err, apperr.ErrDuplicateException)

	// another doctor may close the same date
	_, err = e.svc.CreateException(ctx, e.other.Username, availability.ExceptionInput{Date: date})
	require.NoError(t, err)
}

func TestCreateException_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	date := time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC)
	window := &availability.Window{
		Start: availability.MustTimeOfDay("10:00"),
		End:   availability.MustTimeOfDay("12:00"),
	}

	cases := []struct {
		name string
		in   availability.ExceptionInput
	}{
		{"missing date", availability.ExceptionInput{}},
		{"override on closed day", availability.ExceptionInput{Date: date, Override: window}},
		{"inverted override", availability.ExceptionInput{Date: date, IsAvailable: true, Override: &availability.Window{
			Start: availability.MustTimeOfDay("12:00"),
			End:   availability.MustTimeOfDay("10:00"),
		}}},
		{"past date", availability.ExceptionInput{Date: today.AddDate(0, 0, -1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.svc.CreateException(ctx, e.doctor.Username, tc.in)
			assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
		})
	}
}

func TestDeleteException_IsLogical(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	date := time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC)

	exc, err := e.svc.CreateException(ctx, e.doctor.Username, availability.ExceptionInput{Date: date})
	require.NoError(t, err)

	assert.ErrorIs(t, e.svc.DeleteException(ctx, e.other.Username, exc.ID), apperr.ErrForbidden)
	require.NoError(t, e.svc.DeleteException(ctx, e.doctor.Username, exc.ID))
	assert.ErrorIs(t, e.svc.DeleteException(ctx, e.doctor.Username, exc.ID), apperr.ErrNotFound)

	stored, err := e.repo.GetException(ctx, exc.ID)
	require.NoError(t, err, "the row is kept")
	assert.False(t, stored.Active)

	list, err := e.svc.ListExceptions(ctx, e.doctor.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// the date can be overridden again once the old exception is gone
	_, err = e.svc.CreateException(ctx, e.doctor.Username, availability.ExceptionInput{Date: date, IsAvailable: true})
	require.NoError(t, err)
}
