package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, true
	}
	return "", false
}

type Appointment struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	Instant     time.Time
	Status      Status
	Reason      string
	DoctorNotes *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// Slot is one candidate instant produced by the slot generator.
type Slot struct {
	Instant   time.Time
	Available bool
}

type NotificationKind string

const (
	NotifyBookingConfirmedToPatient NotificationKind = "BookingConfirmedToPatient"
	NotifyBookingAlertToDoctor      NotificationKind = "BookingAlertToDoctor"
	NotifyStatusChanged             NotificationKind = "StatusChanged"
	NotifyReminder                  NotificationKind = "Reminder"
)

// Notifier is the outbound notification sink. Implementations must not block
// on delivery; the returned error only reports that the notification could
// not be scheduled.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, appt Appointment, extra map[string]string) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, NotificationKind, Appointment, map[string]string) error {
	return nil
}
