package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

const activeExceptionIndex = "ux_date_exceptions_active"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func pgTime(t TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * int64(time.Minute/time.Microsecond), Valid: true}
}

func fromPgTime(t pgtype.Time) TimeOfDay {
	return TimeOfDay(t.Microseconds / int64(time.Minute/time.Microsecond))
}

func pgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: CivilDate(t), Valid: true}
}

func scanWeekly(row pgx.Row) (*WeeklyAvailability, error) {
	var (
		w          WeeklyAvailability
		day        int16
		start, end pgtype.Time
	)

	err := row.Scan(
		&w.ID,
		&w.DoctorID,
		&day,
		&start,
		&end,
		&w.SlotDurationMinutes,
		&w.Active,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}

	w.DayOfWeek = time.Weekday(day)
	w.StartTime = fromPgTime(start)
	w.EndTime = fromPgTime(end)
	return &w, nil
}

func scanException(row pgx.Row) (*DateException, error) {
	var (
		e          DateException
		date       pgtype.Date
		start, end pgtype.Time
	)

	err := row.Scan(
		&e.ID,
		&e.DoctorID,
		&date,
		&e.Reason,
		&e.IsAvailable,
		&start,
		&end,
		&e.Active,
		&e.CreatedOn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExceptionNotFound
		}
		return nil, err
	}

	e.Date = CivilDate(date.Time)
	if start.Valid && end.Valid {
		e.Override = &Window{Start: fromPgTime(start), End: fromPgTime(end)}
	}
	return &e, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const weeklyColumns = `id, doctor_id, day_of_week, start_time, end_time, slot_duration_minutes, active, created_at, updated_at`

const exceptionColumns = `id, doctor_id, exception_date, reason, is_available, override_start_time, override_end_time, active, created_on`

// Weekly availability

func (r *PgRepository) CreateWeekly(ctx context.Context, w *WeeklyAvailability) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO weekly_availability (id, doctor_id, day_of_week, start_time, end_time, slot_duration_minutes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+weeklyColumns,
		w.ID, w.DoctorID, int16(w.DayOfWeek), pgTime(w.StartTime), pgTime(w.EndTime), w.SlotDurationMinutes, w.Active)

	created, err := scanWeekly(row)
	if err != nil {
		return fmt.Errorf("insert weekly availability: %w", err)
	}
	*w = *created
	return nil
}

func (r *PgRepository) GetWeekly(ctx context.Context, id uuid.UUID) (*WeeklyAvailability, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+weeklyColumns+` FROM weekly_availability WHERE id = $1`, id)
	return scanWeekly(row)
}

func (r *PgRepository) UpdateWeekly(ctx context.Context, w *WeeklyAvailability) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE weekly_availability
		SET day_of_week = $2,
		    start_time = $3,
		    end_time = $4,
		    slot_duration_minutes = $5,
		    active = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+weeklyColumns,
		w.ID, int16(w.DayOfWeek), pgTime(w.StartTime), pgTime(w.EndTime), w.SlotDurationMinutes, w.Active)

	updated, err := scanWeekly(row)
	if err != nil {
		return err
	}
	*w = *updated
	return nil
}

func (r *PgRepository) DeleteWeekly(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM weekly_availability WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete weekly availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAvailabilityNotFound
	}
	return nil
}

func (r *PgRepository) ListWeeklyByDoctor(ctx context.Context, doctorID uuid.UUID) ([]WeeklyAvailability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+weeklyColumns+`
		FROM weekly_availability
		WHERE doctor_id = $1
		ORDER BY day_of_week, start_time
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWeekly)
}

func (r *PgRepository) FindActiveByDoctorAndDay(ctx context.Context, doctorID uuid.UUID, day time.Weekday) ([]WeeklyAvailability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+weeklyColumns+`
		FROM weekly_availability
		WHERE doctor_id = $1
		  AND day_of_week = $2
		  AND active
		ORDER BY start_time, created_at
	`, doctorID, int16(day))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWeekly)
}

// Date exceptions

func (r *PgRepository) CreateException(ctx context.Context, e *DateException) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	var start, end pgtype.Time
	if e.Override != nil {
		start, end = pgTime(e.Override.Start), pgTime(e.Override.End)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO date_exceptions (id, doctor_id, exception_date, reason, is_available, override_start_time, override_end_time, active, created_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, now())
		RETURNING `+exceptionColumns,
		e.ID, e.DoctorID, pgDate(e.Date), e.Reason, e.IsAvailable, start, end)

	created, err := scanException(row)
	if err != nil {
		if db.IsUniqueViolation(err, activeExceptionIndex) {
			return ErrDuplicateException
		}
		return fmt.Errorf("insert date exception: %w", err)
	}
	*e = *created
	return nil
}

func (r *PgRepository) GetException(ctx context.Context, id uuid.UUID) (*DateException, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+exceptionColumns+` FROM date_exceptions WHERE id = $1`, id)
	return scanException(row)
}

func (r *PgRepository) FindActiveException(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DateException, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+exceptionColumns+`
		FROM date_exceptions
		WHERE doctor_id = $1
		  AND exception_date = $2
		  AND active
	`, doctorID, pgDate(date))
	return scanException(row)
}

func (r *PgRepository) ListActiveExceptions(ctx context.Context, doctorID uuid.UUID) ([]DateException, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+exceptionColumns+`
		FROM date_exceptions
		WHERE doctor_id = $1
		  AND active
		ORDER BY exception_date
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanException)
}

func (r *PgRepository) DeactivateException(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE date_exceptions
		SET active = FALSE
		WHERE id = $1
		  AND active
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate date exception: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExceptionNotFound
	}
	return nil
}
