package appointment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

func TestCreateAppointment_Success(t *testing.T) {
	f := newFixture(t)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)

	appt := f.book(t, "2026-10-19T09:00")

	assert.Equal(t, appointment.StatusPending, appt.Status)
	assert.Equal(t, f.doctor.ID, appt.DoctorID)
	assert.Equal(t, f.patient.ID, appt.PatientID)
	assert.True(t, appt.Instant.Equal(at(monday, "09:00")))
	assert.Equal(t, "check-up", appt.Reason)

	assert.ElementsMatch(t, []appointment.NotificationKind{
		appointment.NotifyBookingConfirmedToPatient,
		appointment.NotifyBookingAlertToDoctor,
	}, f.notifier.Kinds())
	assert.Contains(t, f.appts.Events(), appointment.EventAppointmentCreated)
}

func TestCreateAppointment_IdentityErrors(t *testing.T) {
	f := newFixture(t)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)
	ctx := context.Background()

	cases := []struct {
		name      string
		doctorID  uuid.UUID
		patientID uuid.UUID
	}{
		{"unknown doctor", uuid.New(), f.patient.ID},
		{"unknown patient", f.doctor.ID, uuid.New()},
		{"patient as doctor", f.patient.ID, f.patient.ID},
		{"doctor as patient", f.doctor.ID, f.doctor.ID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateAppointment(ctx, appointment.BookingRequest{
				DoctorID:  tc.doctorID,
				PatientID: tc.patientID,
				Instant:   "2026-10-19T09:00",
			})
			assert.ErrorIs(t, err, apperr.ErrNotFound)
		})
	}
}

func TestCreateAppointment_InvalidInstant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, instant := range []string{"", "   ", "next monday", "2026-13-01T09:00"} {
		_, err := f.svc.CreateAppointment(ctx, appointment.BookingRequest{
			DoctorID:  f.doctor.ID,
			PatientID: f.patient.ID,
			Instant:   instant,
		})
		assert.ErrorIs(t, err, apperr.ErrInvalidRequest, "instant %q", instant)
	}
}

func TestCreateAppointment_OutsideHours(t *testing.T) {
	f := newFixture(t)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)

	_, err := f.svc.CreateAppointment(context.Background(), appointment.BookingRequest{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Instant:   "2026-10-19T13:00",
	})
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)
	assert.Empty(t, f.notifier.Kinds())
}

func TestCreateAppointment_SecondBookingFails(t *testing.T) {
	f := newFixture(t)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)
	f.book(t, "2026-10-19T09:00")

	_, err := f.svc.CreateAppointment(context.Background(), appointment.BookingRequest{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Instant:   "2026-10-19T09:00",
	})
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)
}

func TestCreateAppointment_ConcurrentBookingsOneWins(t *testing.T) {
	f := newFixture(t)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.CreateAppointment(context.Background(), appointment.BookingRequest{
				DoctorID:  f.doctor.ID,
				PatientID: f.patient.ID,
				Instant:   "2026-10-19T09:30",
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperr.ErrSlotUnavailable):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)

	n, err := f.appts.CountConflicting(context.Background(), f.doctor.ID, at(monday, "09:30"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateAppointment_NotificationFailureDoesNotFailBooking(t *testing.T) {
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, appointment.NotifyBookingConfirmedToPatient, mock.Anything, mock.Anything).
		Return(errors.New("queue full"))
	notifier.On("Notify", mock.Anything, appointment.NotifyBookingAlertToDoctor, mock.Anything, mock.Anything).
		Return(nil)

	f := newFixtureWith(t, nil, notifier)
	f.addWeekly(t, time.Monday, "09:00", "10:00", 30)

	appt := f.book(t, "2026-10-19T09:00")
	assert.Equal(t, appointment.StatusPending, appt.Status)
	notifier.AssertExpectations(t)
}

func TestParseInstant(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	got, err := appointment.ParseInstant("2026-10-19T09:00", berlin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 19, 9, 0, 0, 0, berlin), got)

	got, err = appointment.ParseInstant("2026-10-19 09:00:00", berlin)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour())

	got, err = appointment.ParseInstant("2026-10-19T07:00:00Z", berlin)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour(), "RFC 3339 input is converted to the schedule zone")

	_, err = appointment.ParseInstant("", berlin)
	assert.Error(t, err)
}
