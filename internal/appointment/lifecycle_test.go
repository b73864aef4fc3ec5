package appointment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	"github.com/hackgods/clinic-scheduling/internal/memstore"
)

func TestCanTransition(t *testing.T) {
	legal := map[appointment.Status][]appointment.Status{
		appointment.StatusPending:   {appointment.StatusConfirmed, appointment.StatusCancelled},
		appointment.StatusConfirmed: {appointment.StatusCancelled, appointment.StatusCompleted},
	}
	all := []appointment.Status{
		appointment.StatusPending,
		appointment.StatusConfirmed,
		appointment.StatusCancelled,
		appointment.StatusCompleted,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range legal[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, appointment.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)
	appt := f.book(t, "2026-10-19T09:00")
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, appt.ID, f.patient.Username)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.Confirm(ctx, appt.ID, "nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.Confirm(ctx, uuid.New(), f.doctor.Username)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	confirmed, err := f.svc.Confirm(ctx, appt.ID, f.doctor.Username)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusConfirmed, confirmed.Status)
	assert.Contains(t, f.notifier.Kinds(), appointment.NotifyStatusChanged)
	assert.Contains(t, f.appts.Events(), appointment.EventAppointmentConfirmed)

	_, err = f.svc.Confirm(ctx, appt.ID, f.doctor.Username)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestConfirm_OtherDoctorForbidden(t *testing.T) {
	f := newFixture(t)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)
	other := f.dir.Add("dr.wilson", identity.RoleDoctor)
	appt := f.book(t, "2026-10-19T09:00")

	_, err := f.svc.Confirm(context.Background(), appt.ID, other.Username)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestComplete_PendingIsRejected(t *testing.T) {
	f := newFixture(t)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)
	appt := f.book(t, "2026-10-19T09:00")

	_, err := f.svc.Complete(context.Background(), appt.ID, f.doctor.Username, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	stored, err := f.svc.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusPending, stored.Status)
}

func TestComplete_ConfirmedWithNotes(t *testing.T) {
	f := newFixture(t)
	appt := f.put(appointment.StatusConfirmed, at(monday, "09:00"))
	ctx := context.Background()

	_, err := f.svc.Complete(ctx, appt.ID, f.patient.Username, nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	notes := "follow up in two weeks"
	done, err := f.svc.Complete(ctx, appt.ID, f.doctor.Username, &notes)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, done.Status)
	require.NotNil(t, done.DoctorNotes)
	assert.Equal(t, notes, *done.DoctorNotes)

	_, err = f.svc.Cancel(ctx, appt.ID, f.doctor.Username)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "completed is terminal")
}

type failingUpdates struct {
	*memstore.Appointments
}

func (failingUpdates) UpdateStatus(context.Context, uuid.UUID, appointment.Status, appointment.Status, *string) (*appointment.Appointment, error) {
	return nil, errors.New("connection reset")
}

func TestComplete_PersistenceFailureIsServiceFailure(t *testing.T) {
	store := memstore.NewAppointments()
	f := newFixtureWith(t, failingUpdates{store}, nil)
	appt := store.Put(appointment.Appointment{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Instant:   at(monday, "09:00"),
		Status:    appointment.StatusConfirmed,
	})

	_, err := f.svc.Complete(context.Background(), appt.ID, f.doctor.Username, nil)
	assert.ErrorIs(t, err, apperr.ErrServiceFailure)
	assert.Empty(t, f.notifier.Kinds())
}

func TestCancel_PatientConfirmedNeedsOneBusinessDay(t *testing.T) {
	f := newFixture(t)
	appt := f.put(appointment.StatusConfirmed, at(monday, "09:00"))
	ctx := context.Background()

	// Friday 10:00: only the weekend lies between now and Monday.
	f.clock.Set(thursday.AddDate(0, 0, 1))

	_, err := f.svc.Cancel(ctx, appt.ID, f.patient.Username)
	require.ErrorIs(t, err, apperr.ErrModificationNotAllowed)
	remaining, ok := apperr.DetailInt(err, apperr.DetailRemainingBusinessDays)
	require.True(t, ok)
	assert.Equal(t, 0, remaining)

	cancelled, err := f.svc.Cancel(ctx, appt.ID, f.doctor.Username)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, cancelled.Status)
}

func TestCancel_PatientConfirmedWithEnoughNotice(t *testing.T) {
	f := newFixture(t)
	appt := f.put(appointment.StatusConfirmed, at(monday, "09:00"))

	// Thursday: Friday counts as a whole business day.
	cancelled, err := f.svc.Cancel(context.Background(), appt.ID, f.patient.Username)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, cancelled.Status)
	assert.Contains(t, f.appts.Events(), appointment.EventAppointmentCancelled)
}

func TestCancel_PatientPendingNeeds24Hours(t *testing.T) {
	f := newFixture(t)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)
	appt := f.book(t, "2026-10-19T09:00")
	ctx := context.Background()

	f.clock.Set(time.Date(2026, time.October, 18, 13, 0, 0, 0, time.UTC))

	_, err := f.svc.Cancel(ctx, appt.ID, f.patient.Username)
	require.ErrorIs(t, err, apperr.ErrModificationNotAllowed)
	hours, ok := apperr.DetailInt(err, apperr.DetailRemainingHours)
	require.True(t, ok)
	assert.Equal(t, 20, hours)

	f.clock.Set(time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC))
	cancelled, err := f.svc.Cancel(ctx, appt.ID, f.patient.Username)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, cancelled.Status)
}

func TestCancel_DoctorIgnoresDeadline(t *testing.T) {
	f := newFixture(t)
	appt := f.put(appointment.StatusPending, at(monday, "09:00"))
	f.clock.Set(at(monday, "08:55"))

	cancelled, err := f.svc.Cancel(context.Background(), appt.ID, f.doctor.Username)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, cancelled.Status)
}

func TestCancel_StrangerForbidden(t *testing.T) {
	f := newFixture(t)
	appt := f.put(appointment.StatusPending, at(monday, "09:00"))
	stranger := f.dir.Add("mallory", identity.RolePatient)

	_, err := f.svc.Cancel(context.Background(), appt.ID, stranger.Username)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCancel_FreesTheSlotForRebooking(t *testing.T) {
	f := newFixture(t)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)
	appt := f.book(t, "2026-10-19T09:00")

	_, err := f.svc.Cancel(context.Background(), appt.ID, f.doctor.Username)
	require.NoError(t, err)

	again := f.book(t, "2026-10-19T09:00")
	assert.NotEqual(t, appt.ID, again.ID)
}

func TestSystemComplete_SkipsActorChecks(t *testing.T) {
	f := newFixture(t)
	appt := f.put(appointment.StatusConfirmed, at(thursday, "08:00"))

	done, err := f.svc.SystemComplete(context.Background(), appt, appointment.SystemCompletionNote)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, done.Status)
	require.NotNil(t, done.DoctorNotes)
	assert.Equal(t, appointment.SystemCompletionNote, *done.DoctorNotes)
	assert.Contains(t, f.appts.Events(), appointment.EventAppointmentAutoCompleted)

	_, err = f.svc.SystemComplete(context.Background(), appt, appointment.SystemCompletionNote)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestListQueries(t *testing.T) {
	f := newFixture(t)
	a := f.put(appointment.StatusConfirmed, at(monday, "09:00"))
	b := f.put(appointment.StatusPending, at(monday.AddDate(0, 0, 1), "09:00"))
	ctx := context.Background()

	byDoctor, err := f.svc.ListForDoctor(ctx, f.doctor.ID, monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, byDoctor, 1)
	assert.Equal(t, a.ID, byDoctor[0].ID)

	byPatient, err := f.svc.ListForPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, byPatient, 2)
	assert.Equal(t, b.ID, byPatient[0].ID, "latest first")

	_, err = f.svc.ListForDoctor(ctx, f.doctor.ID, monday, monday)
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
}
