package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/clock"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

// Service manages a doctor's own weekly hours and date exceptions. Every
// mutation is made on behalf of an acting doctor, resolved by username, who
// must own the rows being changed.
type Service struct {
	repo   Repository
	dir    identity.Directory
	locker redisclient.Locker
	clock  clock.Clock
	loc    *time.Location
	log    *logrus.Entry
}

func NewService(repo Repository, dir identity.Directory, locker redisclient.Locker, clk clock.Clock, loc *time.Location, log *logrus.Entry) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:   repo,
		dir:    dir,
		locker: locker,
		clock:  clk,
		loc:    loc,
		log:    log,
	}
}

// WeeklyInput describes a recurring block. A zero SlotDurationMinutes means
// DefaultSlotMinutes.
type WeeklyInput struct {
	DayOfWeek           time.Weekday
	Start               TimeOfDay
	End                 TimeOfDay
	SlotDurationMinutes int
	Active              bool
}

func (in WeeklyInput) validate() error {
	if in.DayOfWeek < time.Sunday || in.DayOfWeek > time.Saturday {
		return apperr.InvalidRequest("invalid day of week %d", in.DayOfWeek)
	}
	if !(Window{Start: in.Start, End: in.End}).Valid() {
		return apperr.InvalidRequest("start time %s must be before end time %s", in.Start, in.End)
	}
	if in.SlotDurationMinutes < 0 {
		return apperr.InvalidRequest("slot duration must be positive, got %d", in.SlotDurationMinutes)
	}
	return nil
}

func (in WeeklyInput) slotMinutes() int {
	if in.SlotDurationMinutes == 0 {
		return DefaultSlotMinutes
	}
	return in.SlotDurationMinutes
}

// ExceptionInput describes a date override. Override may only be set when
// IsAvailable is true.
type ExceptionInput struct {
	Date        time.Time
	Reason      string
	IsAvailable bool
	Override    *Window
}

func (in ExceptionInput) validate() error {
	if in.Date.IsZero() {
		return apperr.InvalidRequest("exception date is required")
	}
	if in.Override != nil {
		if !in.IsAvailable {
			return apperr.InvalidRequest("override hours require the doctor to be available on that date")
		}
		if !in.Override.Valid() {
			return apperr.InvalidRequest("override start %s must be before end %s", in.Override.Start, in.Override.End)
		}
	}
	return nil
}

func (s *Service) actingDoctor(ctx context.Context, username string) (*identity.Identity, error) {
	u, err := s.dir.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, apperr.NotFound("user %q not found", username)
		}
		return nil, fmt.Errorf("resolve user %q: %w", username, err)
	}
	if !u.IsDoctor() {
		return nil, apperr.InvalidRequest("user %q is not a doctor", username)
	}
	return u, nil
}

// Weekly availability

func (s *Service) CreateWeekly(ctx context.Context, actingDoctor string, in WeeklyInput) (*WeeklyAvailability, error) {
	doctor, err := s.actingDoctor(ctx, actingDoctor)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	w := &WeeklyAvailability{
		DoctorID:            doctor.ID,
		DayOfWeek:           in.DayOfWeek,
		StartTime:           in.Start,
		EndTime:             in.End,
		SlotDurationMinutes: in.slotMinutes(),
		Active:              in.Active,
	}
	if err := s.repo.CreateWeekly(ctx, w); err != nil {
		return nil, fmt.Errorf("create weekly availability: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"doctor_id":       doctor.ID,
		"availability_id": w.ID,
		"day":             w.DayOfWeek.String(),
		"window":          w.Window().String(),
	}).Info("weekly availability created")
	return w, nil
}

func (s *Service) ownedWeekly(ctx context.Context, doctor *identity.Identity, id uuid.UUID) (*WeeklyAvailability, error) {
	w, err := s.repo.GetWeekly(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAvailabilityNotFound) {
			return nil, apperr.NotFound("weekly availability %s not found", id)
		}
		return nil, fmt.Errorf("load weekly availability: %w", err)
	}
	if w.DoctorID != doctor.ID {
		return nil, apperr.Forbidden("weekly availability %s belongs to another doctor", id)
	}
	return w, nil
}

func (s *Service) UpdateWeekly(ctx context.Context, actingDoctor string, id uuid.UUID, in WeeklyInput) (*WeeklyAvailability, error) {
	doctor, err := s.actingDoctor(ctx, actingDoctor)
	if err != nil {
		return nil, err
	}
	w, err := s.ownedWeekly(ctx, doctor, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	w.DayOfWeek = in.DayOfWeek
	w.StartTime = in.Start
	w.EndTime = in.End
	w.SlotDurationMinutes = in.slotMinutes()
	w.Active = in.Active

	if err := s.repo.UpdateWeekly(ctx, w); err != nil {
		if errors.Is(err, ErrAvailabilityNotFound) {
			return nil, apperr.NotFound("weekly availability %s not found", id)
		}
		return nil, fmt.Errorf("update weekly availability: %w", err)
	}
	return w, nil
}

func (s *Service) DeleteWeekly(ctx context.Context, actingDoctor string, id uuid.UUID) error {
	doctor, err := s.actingDoctor(ctx, actingDoctor)
	if err != nil {
		return err
	}
	if _, err := s.ownedWeekly(ctx, doctor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteWeekly(ctx, id); err != nil {
		if errors.Is(err, ErrAvailabilityNotFound) {
			return apperr.NotFound("weekly availability %s not found", id)
		}
		return fmt.Errorf("delete weekly availability: %w", err)
	}
	s.log.WithFields(logrus.Fields{"doctor_id": doctor.ID, "availability_id": id}).Info("weekly availability deleted")
	return nil
}

func (s *Service) ListWeekly(ctx context.Context, doctorID uuid.UUID) ([]WeeklyAvailability, error) {
	rows, err := s.repo.ListWeeklyByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list weekly availability: %w", err)
	}
	return rows, nil
}

// Date exceptions

func (s *Service) CreateException(ctx context.Context, actingDoctor string, in ExceptionInput) (*DateException, error) {
	doctor, err := s.actingDoctor(ctx, actingDoctor)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	date := CivilDate(in.Date)
	today := CivilDate(s.clock.Now().In(s.loc))
	if date.Before(today) {
		return nil, apperr.InvalidRequest("exception date %s is in the past", date.Format(time.DateOnly))
	}

	e := &DateException{
		DoctorID:    doctor.ID,
		Date:        date,
		Reason:      in.Reason,
		IsAvailable: in.IsAvailable,
		Override:    in.Override,
		Active:      true,
	}

	key := redisclient.ExceptionLockKey(doctor.ID, date.Format(time.DateOnly))
	err = s.locker.WithLock(ctx, key, func(ctx context.Context) error {
		existing, err := s.repo.FindActiveException(ctx, doctor.ID, date)
		if err != nil && !errors.Is(err, ErrExceptionNotFound) {
			return fmt.Errorf("check existing exception: %w", err)
		}
		if existing != nil {
			return ErrDuplicateException
		}
		return s.repo.CreateException(ctx, e)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateException) || errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, apperr.DuplicateException("doctor already has an active exception on %s", date.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("create date exception: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"doctor_id":    doctor.ID,
		"exception_id": e.ID,
		"date":         date.Format(time.DateOnly),
		"available":    e.IsAvailable,
	}).Info("date exception created")
	return e, nil
}

// DeleteException deactivates an exception; the row is kept.
func (s *Service) DeleteException(ctx context.Context, actingDoctor string, id uuid.UUID) error {
	doctor, err := s.actingDoctor(ctx, actingDoctor)
	if err != nil {
		return err
	}

	e, err := s.repo.GetException(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExceptionNotFound) {
			return apperr.NotFound("date exception %s not found", id)
		}
		return fmt.Errorf("load date exception: %w", err)
	}
	if e.DoctorID != doctor.ID {
		return apperr.Forbidden("date exception %s belongs to another doctor", id)
	}
	if !e.Active {
		return apperr.NotFound("date exception %s not found", id)
	}

	if err := s.repo.DeactivateException(ctx, id); err != nil {
		if errors.Is(err, ErrExceptionNotFound) {
			return apperr.NotFound("date exception %s not found", id)
		}
		return fmt.Errorf("deactivate date exception: %w", err)
	}
	return nil
}

func (s *Service) ListExceptions(ctx context.Context, doctorID uuid.UUID) ([]DateException, error) {
	out, err := s.repo.ListActiveExceptions(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list date exceptions: %w", err)
	}
	return out, nil
}
