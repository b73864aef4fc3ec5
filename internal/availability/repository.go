package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAvailabilityNotFound = errors.New("weekly availability not found")
	ErrExceptionNotFound    = errors.New("date exception not found")
	ErrDuplicateException   = errors.New("an active exception already exists for this date")
)

// Repository persists weekly availability rows and date exceptions.
type Repository interface {
	CreateWeekly(ctx context.Context, w *WeeklyAvailability) error
	GetWeekly(ctx context.Context, id uuid.UUID) (*WeeklyAvailability, error)
	UpdateWeekly(ctx context.Context, w *WeeklyAvailability) error
	DeleteWeekly(ctx context.Context, id uuid.UUID) error
	ListWeeklyByDoctor(ctx context.Context, doctorID uuid.UUID) ([]WeeklyAvailability, error)

	// Slot generation reads; results ordered by start time.
	FindActiveByDoctorAndDay(ctx context.Context, doctorID uuid.UUID, day time.Weekday) ([]WeeklyAvailability, error)

	// CreateException returns ErrDuplicateException when the store already
	// holds an active exception for the doctor and date.
	CreateException(ctx context.Context, e *DateException) error
	GetException(ctx context.Context, id uuid.UUID) (*DateException, error)
	FindActiveException(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DateException, error)
	ListActiveExceptions(ctx context.Context, doctorID uuid.UUID) ([]DateException, error)
	DeactivateException(ctx context.Context, id uuid.UUID) error
}
