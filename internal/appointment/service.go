package appointment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clock"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentConfirmed     = "APPOINTMENT_CONFIRMED"
	EventAppointmentCancelled     = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted     = "APPOINTMENT_COMPLETED"
	EventAppointmentAutoCompleted = "APPOINTMENT_AUTO_COMPLETED"
)

// Options tunes the scheduling rules that are deployment specific.
type Options struct {
	// Location is the zone doctors' wall-clock hours are expressed in.
	Location *time.Location
	// DefaultSlotMinutes is used for override windows when the doctor has
	// no weekly rows to take a slot duration from.
	DefaultSlotMinutes int
}

type Service struct {
	repo     Repository
	schedule availability.Repository
	dir      identity.Directory
	notifier Notifier
	locker   redisclient.Locker
	clock    clock.Clock
	opts     Options
	log      *logrus.Entry
}

func NewService(
	repo Repository,
	schedule availability.Repository,
	dir identity.Directory,
	notifier Notifier,
	locker redisclient.Locker,
	clk clock.Clock,
	opts Options,
	log *logrus.Entry,
) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultSlotMinutes <= 0 {
		opts.DefaultSlotMinutes = availability.DefaultSlotMinutes
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:     repo,
		schedule: schedule,
		dir:      dir,
		notifier: notifier,
		locker:   locker,
		clock:    clk,
		opts:     opts,
		log:      log,
	}
}

func (s *Service) Location() *time.Location {
	return s.opts.Location
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.opts.Location)
}

// notify hands a notification to the sink. Failures are logged only.
func (s *Service) notify(ctx context.Context, kind NotificationKind, appt Appointment, extra map[string]string) {
	if err := s.notifier.Notify(ctx, kind, appt, extra); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"appointment_id": appt.ID,
			"kind":           string(kind),
		}).Warn("notification not dispatched")
	}
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.WithError(err).WithField("event_type", eventType).Error("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event_type":     eventType,
			"appointment_id": appointmentID,
		}).Error("failed to insert event log")
	}
}
