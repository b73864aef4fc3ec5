package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("doctor already has a live appointment at this instant")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Create returns ErrSlotTaken when a non-cancelled appointment already
	// exists for the same doctor and instant.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// For conflict checks; cancelled appointments are not counted.
	CountConflicting(ctx context.Context, doctorID uuid.UUID, instant time.Time) (int, error)

	// UpdateStatus moves id from one status to another, only if it is still
	// in from. notes, when non-nil, replaces the doctor notes. Returns
	// ErrAppointmentNotFound when no row matched.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, notes *string) (*Appointment, error)

	// Sweeper queries
	FindByStatusAndInstantRange(ctx context.Context, status Status, from, to time.Time) ([]Appointment, error)
	FindByStatusAndInstantBefore(ctx context.Context, status Status, before time.Time) ([]Appointment, error)
	DeleteByStatusAndInstantBefore(ctx context.Context, status Status, before time.Time) (int64, error)

	ListByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
