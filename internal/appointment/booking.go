package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

var errSlotClosed = errors.New("slot is not available")

// BookingRequest is a patient's request for one instant of a doctor's time.
// Instant is a local wall-clock "2006-01-02T15:04" (seconds optional) or an
// RFC 3339 timestamp.
type BookingRequest struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Instant   string
	Reason    string
}

var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseInstant reads a booking instant. Timestamps without a zone are taken
// in loc.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("instant is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid instant %q", s)
}

// resolveRole loads an identity by id and checks its role. A missing identity
// and a wrong role are both reported as not found.
func (s *Service) resolveRole(ctx context.Context, id uuid.UUID, role identity.Role) (*identity.Identity, error) {
	u, err := s.dir.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, apperr.NotFound("%s %s not found", strings.ToLower(string(role)), id)
		}
		return nil, fmt.Errorf("resolve %s: %w", strings.ToLower(string(role)), err)
	}
	if u.Role != role {
		return nil, apperr.NotFound("%s %s not found", strings.ToLower(string(role)), id)
	}
	return u, nil
}

// CreateAppointment books a PENDING appointment. The availability check and
// the insert run under a per-slot distributed lock, and the store rejects a
// second live appointment on the same instant, so concurrent requests for
// one slot cannot both succeed.
func (s *Service) CreateAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	doctor, err := s.resolveRole(ctx, req.DoctorID, identity.RoleDoctor)
	if err != nil {
		return nil, err
	}
	patient, err := s.resolveRole(ctx, req.PatientID, identity.RolePatient)
	if err != nil {
		return nil, err
	}

	instant, err := ParseInstant(req.Instant, s.opts.Location)
	if err != nil {
		return nil, apperr.InvalidRequest("%v", err)
	}

	var created *Appointment

	err = s.locker.WithLock(ctx, redisclient.SlotLockKey(doctor.ID, instant), func(lockCtx context.Context) error {
		// Inside the critical section re-check the slot
		ok, err := s.IsSlotAvailable(lockCtx, doctor.ID, instant)
		if err != nil {
			return err
		}
		if !ok {
			return errSlotClosed
		}

		appt := &Appointment{
			DoctorID:  doctor.ID,
			PatientID: patient.ID,
			Instant:   instant,
			Status:    StatusPending,
			Reason:    req.Reason,
		}
		if err := s.repo.Create(lockCtx, appt); err != nil {
			return err
		}
		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"doctor_id":  doctor.ID.String(),
			"patient_id": patient.ID.String(),
			"instant":    instant,
		})
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			return nil, apperr.SlotUnavailable("slot %s is currently being booked", instant.Format(time.RFC3339))
		case errors.Is(err, errSlotClosed), errors.Is(err, ErrSlotTaken):
			return nil, apperr.SlotUnavailable("slot %s is not available", instant.Format(time.RFC3339))
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"appointment_id": created.ID,
		"doctor_id":      doctor.ID,
		"patient_id":     patient.ID,
		"instant":        instant.Format(time.RFC3339),
	}).Info("appointment booked")

	s.notify(ctx, NotifyBookingConfirmedToPatient, *created, nil)
	s.notify(ctx, NotifyBookingAlertToDoctor, *created, nil)

	return created, nil
}
