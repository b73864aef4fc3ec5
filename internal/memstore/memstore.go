// Package memstore holds in-memory implementations of the scheduling stores
// and of the Redis-backed lock and marker. They enforce the same uniqueness
// rules as the Postgres schema and are used by tests and simulations.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

// Directory

type Directory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]identity.Identity
}

func NewDirectory() *Directory {
	return &Directory{users: make(map[uuid.UUID]identity.Identity)}
}

// Add registers a user and returns it with an ID assigned.
func (d *Directory) Add(username string, role identity.Role) identity.Identity {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	u := identity.Identity{
		ID:        uuid.New(),
		Username:  username,
		Role:      role,
		FullName:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.users[u.ID] = u
	return u
}

// Put stores u as given, replacing any user with the same ID.
func (d *Directory) Put(u identity.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *Directory) FindUserByUsername(_ context.Context, username string) (*identity.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, u := range d.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (d *Directory) FindUserByID(_ context.Context, id uuid.UUID) (*identity.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return &u, nil
}

// Availability

type Availability struct {
	mu         sync.RWMutex
	weekly     map[uuid.UUID]availability.WeeklyAvailability
	exceptions map[uuid.UUID]availability.DateException
}

func NewAvailability() *Availability {
	return &Availability{
		weekly:     make(map[uuid.UUID]availability.WeeklyAvailability),
		exceptions: make(map[uuid.UUID]availability.DateException),
	}
}

func (a *Availability) CreateWeekly(_ context.Context, w *availability.WeeklyAvailability) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now()
	w.CreatedAt, w.UpdatedAt = now, now
	a.weekly[w.ID] = *w
	return nil
}

func (a *Availability) GetWeekly(_ context.Context, id uuid.UUID) (*availability.WeeklyAvailability, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	w, ok := a.weekly[id]
	if !ok {
		return nil, availability.ErrAvailabilityNotFound
	}
	return &w, nil
}

func (a *Availability) UpdateWeekly(_ context.Context, w *availability.WeeklyAvailability) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur, ok := a.weekly[w.ID]
	if !ok {
		return availability.ErrAvailabilityNotFound
	}
	w.CreatedAt = cur.CreatedAt
	w.UpdatedAt = time.Now()
	a.weekly[w.ID] = *w
	return nil
}

func (a *Availability) DeleteWeekly(_ context.Context, id uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.weekly[id]; !ok {
		return availability.ErrAvailabilityNotFound
	}
	delete(a.weekly, id)
	return nil
}

func (a *Availability) selectWeekly(keep func(w *availability.WeeklyAvailability) bool) []availability.WeeklyAvailability {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []availability.WeeklyAvailability
	for _, w := range a.weekly {
		if keep(&w) {
			out = append(out, w)
		}
	}
	return out
}

func (a *Availability) ListWeeklyByDoctor(_ context.Context, doctorID uuid.UUID) ([]availability.WeeklyAvailability, error) {
	out := a.selectWeekly(func(w *availability.WeeklyAvailability) bool {
		return w.DoctorID == doctorID
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (a *Availability) FindActiveByDoctorAndDay(_ context.Context, doctorID uuid.UUID, day time.Weekday) ([]availability.WeeklyAvailability, error) {
	out := a.selectWeekly(func(w *availability.WeeklyAvailability) bool {
		return w.DoctorID == doctorID && w.DayOfWeek == day && w.Active
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (a *Availability) CreateException(_ context.Context, e *availability.DateException) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	date := availability.CivilDate(e.Date)
	for _, cur := range a.exceptions {
		if cur.Active && cur.DoctorID == e.DoctorID && cur.Date.Equal(date) {
			return availability.ErrDuplicateException
		}
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Date = date
	e.Active = true
	e.CreatedOn = time.Now()
	a.exceptions[e.ID] = *e
	return nil
}

func (a *Availability) GetException(_ context.Context, id uuid.UUID) (*availability.DateException, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	e, ok := a.exceptions[id]
	if !ok {
		return nil, availability.ErrExceptionNotFound
	}
	return &e, nil
}

func (a *Availability) FindActiveException(_ context.Context, doctorID uuid.UUID, date time.Time) (*availability.DateException, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	date = availability.CivilDate(date)
	for _, e := range a.exceptions {
		if e.Active && e.DoctorID == doctorID && e.Date.Equal(date) {
			return &e, nil
		}
	}
	return nil, availability.ErrExceptionNotFound
}

func (a *Availability) ListActiveExceptions(_ context.Context, doctorID uuid.UUID) ([]availability.DateException, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []availability.DateException
	for _, e := range a.exceptions {
		if e.Active && e.DoctorID == doctorID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (a *Availability) DeactivateException(_ context.Context, id uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.exceptions[id]
	if !ok || !e.Active {
		return availability.ErrExceptionNotFound
	}
	e.Active = false
	a.exceptions[id] = e
	return nil
}

// Appointments

type Appointments struct {
	mu     sync.RWMutex
	rows   map[uuid.UUID]appointment.Appointment
	events []appointment.EventLog
}

func NewAppointments() *Appointments {
	return &Appointments{rows: make(map[uuid.UUID]appointment.Appointment)}
}

func (s *Appointments) Create(_ context.Context, a *appointment.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cur := range s.rows {
		if cur.DoctorID == a.DoctorID && cur.Instant.Equal(a.Instant) && cur.Status != appointment.StatusCancelled {
			return appointment.ErrSlotTaken
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	s.rows[a.ID] = *a
	return nil
}

// Put stores a as is, bypassing the live-instant rule. Tests use it to seed
// appointments in any status.
func (s *Appointments) Put(a appointment.Appointment) appointment.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
		a.UpdatedAt = a.CreatedAt
	}
	s.rows[a.ID] = a
	return a
}

func (s *Appointments) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.rows[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (s *Appointments) CountConflicting(_ context.Context, doctorID uuid.UUID, instant time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.rows {
		if a.DoctorID == doctorID && a.Instant.Equal(instant) && a.Status != appointment.StatusCancelled {
			n++
		}
	}
	return n, nil
}

func (s *Appointments) UpdateStatus(_ context.Context, id uuid.UUID, from, to appointment.Status, notes *string) (*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok || a.Status != from {
		return nil, appointment.ErrAppointmentNotFound
	}
	a.Status = to
	if notes != nil {
		n := *notes
		a.DoctorNotes = &n
	}
	a.UpdatedAt = time.Now()
	s.rows[id] = a
	return &a, nil
}

func (s *Appointments) filter(keep func(a *appointment.Appointment) bool) []appointment.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []appointment.Appointment
	for _, a := range s.rows {
		if keep(&a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instant.Before(out[j].Instant) })
	return out
}

func (s *Appointments) FindByStatusAndInstantRange(_ context.Context, status appointment.Status, from, to time.Time) ([]appointment.Appointment, error) {
	return s.filter(func(a *appointment.Appointment) bool {
		return a.Status == status && !a.Instant.Before(from) && a.Instant.Before(to)
	}), nil
}

func (s *Appointments) FindByStatusAndInstantBefore(_ context.Context, status appointment.Status, before time.Time) ([]appointment.Appointment, error) {
	return s.filter(func(a *appointment.Appointment) bool {
		return a.Status == status && a.Instant.Before(before)
	}), nil
}

func (s *Appointments) DeleteByStatusAndInstantBefore(_ context.Context, status appointment.Status, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, a := range s.rows {
		if a.Status == status && a.Instant.Before(before) {
			delete(s.rows, id)
			n++
		}
	}
	return n, nil
}

func (s *Appointments) ListByDoctorBetween(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]appointment.Appointment, error) {
	return s.filter(func(a *appointment.Appointment) bool {
		return a.DoctorID == doctorID && !a.Instant.Before(from) && a.Instant.Before(to)
	}), nil
}

func (s *Appointments) ListByPatient(_ context.Context, patientID uuid.UUID) ([]appointment.Appointment, error) {
	out := s.filter(func(a *appointment.Appointment) bool {
		return a.PatientID == patientID
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Instant.After(out[j].Instant) })
	return out, nil
}

func (s *Appointments) InsertEvent(_ context.Context, ev appointment.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.ID = int64(len(s.events) + 1)
	s.events = append(s.events, ev)
	return nil
}

// Events returns the event types logged so far, oldest first.
func (s *Appointments) Events() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.EventType)
	}
	return out
}

// Locker is an in-process keyed try-lock with the same contract as the
// Redis locker: a held key fails fast with ErrLockNotAcquired.
type Locker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]struct{})}
}

func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if _, busy := l.held[key]; busy {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	l.held[key] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()

	return fn(ctx)
}

// Marker is an in-process OnceMarker. TTLs are ignored.
type Marker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMarker() *Marker {
	return &Marker{seen: make(map[string]struct{})}
}

func (m *Marker) MarkOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = struct{}{}
	return true, nil
}

var (
	_ identity.Directory      = (*Directory)(nil)
	_ availability.Repository = (*Availability)(nil)
	_ appointment.Repository  = (*Appointments)(nil)
	_ redisclient.Locker      = (*Locker)(nil)
	_ redisclient.OnceMarker  = (*Marker)(nil)
)
