package appointment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clock"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/memstore"
)

// Thursday 2026-10-15 10:00 UTC. The following Monday is 2026-10-19.
var (
	thursday = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)
	monday   = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
)

func at(day time.Time, hhmm string) time.Time {
	return availability.MustTimeOfDay(hhmm).On(day, time.UTC)
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []appointment.NotificationKind
}

func (n *recordingNotifier) Notify(_ context.Context, kind appointment.NotificationKind, _ appointment.Appointment, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	return nil
}

func (n *recordingNotifier) Kinds() []appointment.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]appointment.NotificationKind(nil), n.kinds...)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, kind appointment.NotificationKind, appt appointment.Appointment, extra map[string]string) error {
	args := m.Called(ctx, kind, appt, extra)
	return args.Error(0)
}

type fixture struct {
	svc      *appointment.Service
	appts    *memstore.Appointments
	schedule *memstore.Availability
	dir      *memstore.Directory
	clock    *clock.Fake
	notifier *recordingNotifier

	doctor  identity.Identity
	patient identity.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil, nil)
}

// newFixtureWith lets a test swap the appointment store or the notifier.
func newFixtureWith(t *testing.T, repo appointment.Repository, notifier appointment.Notifier) *fixture {
	t.Helper()

	f := &fixture{
		appts:    memstore.NewAppointments(),
		schedule: memstore.NewAvailability(),
		dir:      memstore.NewDirectory(),
		clock:    clock.NewFake(thursday),
		notifier: &recordingNotifier{},
	}
	f.doctor = f.dir.Add("dr.house", identity.RoleDoctor)
	f.patient = f.dir.Add("jane", identity.RolePatient)

	if repo == nil {
		repo = f.appts
	}
	if notifier == nil {
		notifier = f.notifier
	}

	f.svc = appointment.NewService(
		repo,
		f.schedule,
		f.dir,
		notifier,
		memstore.NewLocker(),
		f.clock,
		appointment.Options{Location: time.UTC, DefaultSlotMinutes: 30},
		logger.Discard(),
	)
	return f
}

func (f *fixture) addWeekly(t *testing.T, day time.Weekday, start, end string, minutes int) {
	t.Helper()
	err := f.schedule.CreateWeekly(context.Background(), &availability.WeeklyAvailability{
		DoctorID:            f.doctor.ID,
		DayOfWeek:           day,
		StartTime:           availability.MustTimeOfDay(start),
		EndTime:             availability.MustTimeOfDay(end),
		SlotDurationMinutes: minutes,
		Active:              true,
	})
	require.NoError(t, err)
}

func (f *fixture) addException(t *testing.T, date time.Time, available bool, override *availability.Window) {
	t.Helper()
	err := f.schedule.CreateException(context.Background(), &availability.DateException{
		DoctorID:    f.doctor.ID,
		Date:        date,
		Reason:      "test",
		IsAvailable: available,
		Override:    override,
	})
	require.NoError(t, err)
}

func (f *fixture) book(t *testing.T, instant string) *appointment.Appointment {
	t.Helper()
	appt, err := f.svc.CreateAppointment(context.Background(), appointment.BookingRequest{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Instant:   instant,
		Reason:    "check-up",
	})
	require.NoError(t, err)
	return appt
}

func (f *fixture) put(status appointment.Status, instant time.Time) appointment.Appointment {
	return f.appts.Put(appointment.Appointment{
		ID:        uuid.New(),
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Instant:   instant,
		Status:    status,
	})
}
