package appointment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/identity"
)

// PendingCancelLeadTime is how far ahead a patient must cancel an
// appointment that has not been confirmed yet.
const PendingCancelLeadTime = 24 * time.Hour

// SystemCompletionNote is attached to appointments completed by the sweeper.
const SystemCompletionNote = "Automatically completed after the appointment time passed."

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var eventForStatus = map[Status]string{
	StatusConfirmed: EventAppointmentConfirmed,
	StatusCancelled: EventAppointmentCancelled,
	StatusCompleted: EventAppointmentCompleted,
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, apperr.NotFound("appointment %s not found", id)
		}
		return nil, apperr.ServiceFailure(err, "load appointment %s", id)
	}
	return appt, nil
}

func (s *Service) actor(ctx context.Context, username string) (*identity.Identity, error) {
	u, err := s.dir.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, apperr.NotFound("user %q not found", username)
		}
		return nil, apperr.ServiceFailure(err, "resolve user %q", username)
	}
	return u, nil
}

// transition persists appt's move to `to`. The update only applies while the
// row is still in appt.Status, so a concurrent transition makes it fail.
func (s *Service) transition(ctx context.Context, appt *Appointment, to Status, notes *string, event string, payload map[string]any) (*Appointment, error) {
	if !CanTransition(appt.Status, to) {
		return nil, apperr.InvalidTransition("appointment %s cannot move from %s to %s", appt.ID, appt.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, to, notes)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, apperr.InvalidTransition("appointment %s is no longer %s", appt.ID, appt.Status)
		}
		return nil, apperr.ServiceFailure(err, "update appointment %s to %s", appt.ID, to)
	}

	if payload == nil {
		payload = map[string]any{}
	}
	payload["from"] = string(appt.Status)
	if event == "" {
		event = eventForStatus[to]
	}
	s.logEvent(ctx, updated.ID, event, payload)

	return updated, nil
}

func (s *Service) announce(ctx context.Context, appt *Appointment, previous Status) {
	s.log.WithFields(logrus.Fields{
		"appointment_id": appt.ID,
		"from":           string(previous),
		"to":             string(appt.Status),
	}).Info("appointment status changed")

	s.notify(ctx, NotifyStatusChanged, *appt, map[string]string{
		"previous_status": string(previous),
		"status":          string(appt.Status),
	})
}

// Confirm moves a pending appointment to confirmed. Only the assigned doctor
// may confirm.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, actingDoctor string) (*Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	u, err := s.actor(ctx, actingDoctor)
	if err != nil {
		return nil, err
	}
	if u.ID != appt.DoctorID {
		return nil, apperr.Forbidden("only the assigned doctor may confirm appointment %s", id)
	}

	updated, err := s.transition(ctx, appt, StatusConfirmed, nil, "", nil)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, updated, appt.Status)
	return updated, nil
}

// Cancel cancels an appointment on behalf of its doctor or its patient.
// Patients are held to a deadline: at least one whole business day ahead for
// a confirmed appointment, PendingCancelLeadTime ahead for a pending one.
// Doctors may cancel at any time.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actingUsername string) (*Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	u, err := s.actor(ctx, actingUsername)
	if err != nil {
		return nil, err
	}

	byDoctor := u.ID == appt.DoctorID
	byPatient := u.ID == appt.PatientID
	if !byDoctor && !byPatient {
		return nil, apperr.Forbidden("user %q may not cancel appointment %s", actingUsername, id)
	}
	if !CanTransition(appt.Status, StatusCancelled) {
		return nil, apperr.InvalidTransition("appointment %s cannot move from %s to %s", appt.ID, appt.Status, StatusCancelled)
	}

	if byPatient && !byDoctor {
		if err := s.checkPatientDeadline(appt); err != nil {
			return nil, err
		}
	}

	cancelledBy := "patient"
	if byDoctor {
		cancelledBy = "doctor"
	}
	updated, err := s.transition(ctx, appt, StatusCancelled, nil, "", map[string]any{
		"cancelled_by": cancelledBy,
	})
	if err != nil {
		return nil, err
	}
	s.announce(ctx, updated, appt.Status)
	return updated, nil
}

func (s *Service) checkPatientDeadline(appt *Appointment) error {
	now := s.now()
	instant := appt.Instant.In(s.opts.Location)

	switch appt.Status {
	case StatusConfirmed:
		remaining := BusinessDaysBetween(now, instant)
		if remaining < 1 {
			return apperr.ModificationNotAllowed(apperr.DetailRemainingBusinessDays, remaining,
				"confirmed appointments must be cancelled at least one business day in advance")
		}
	case StatusPending:
		lead := instant.Sub(now)
		if lead < PendingCancelLeadTime {
			hours := int(math.Floor(lead.Hours()))
			if hours < 0 {
				hours = 0
			}
			return apperr.ModificationNotAllowed(apperr.DetailRemainingHours, hours,
				fmt.Sprintf("pending appointments must be cancelled at least %d hours in advance", int(PendingCancelLeadTime.Hours())))
		}
	}
	return nil
}

// Complete marks a confirmed appointment as held. Only the assigned doctor
// may complete it; notes may be nil.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actingDoctor string, notes *string) (*Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	u, err := s.actor(ctx, actingDoctor)
	if err != nil {
		return nil, err
	}
	if u.ID != appt.DoctorID {
		return nil, apperr.Forbidden("only the assigned doctor may complete appointment %s", id)
	}

	updated, err := s.transition(ctx, appt, StatusCompleted, notes, "", nil)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, updated, appt.Status)
	return updated, nil
}

// SystemComplete completes a confirmed appointment without an acting user.
// It is used by the maintenance sweeper.
func (s *Service) SystemComplete(ctx context.Context, appt Appointment, note string) (*Appointment, error) {
	return s.transition(ctx, &appt, StatusCompleted, &note, EventAppointmentAutoCompleted, nil)
}

// GetAppointment returns one appointment.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.load(ctx, id)
}

// ListForDoctor returns the doctor's appointments with instants in [from, to).
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	if !to.After(from) {
		return nil, apperr.InvalidRequest("range end must be after its start")
	}
	out, err := s.repo.ListByDoctorBetween(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return out, nil
}

// ListForPatient returns the patient's appointments, latest first.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	out, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return out, nil
}
