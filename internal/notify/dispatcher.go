// Package notify delivers appointment notifications by email. Notify only
// enqueues; a small worker pool renders and sends at a limited rate, so
// booking and transitions never wait on a mail server.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/identity"
)

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrClosed    = errors.New("notification dispatcher is closed")
)

type Options struct {
	QueueSize int
	Workers   int
	Rate      float64 // messages per second, <= 0 means unlimited
	Burst     int
	Location  *time.Location
}

type job struct {
	kind  appointment.NotificationKind
	appt  appointment.Appointment
	extra map[string]string
}

type Dispatcher struct {
	dir     identity.Directory
	sender  Sender
	limiter *rate.Limiter
	metrics *Metrics
	opts    Options
	log     *logrus.Entry

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

func NewDispatcher(dir identity.Directory, sender Sender, metrics *Metrics, opts Options, log *logrus.Entry) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	return &Dispatcher{
		dir:     dir,
		sender:  sender,
		limiter: rate.NewLimiter(limit, opts.Burst),
		metrics: metrics,
		opts:    opts,
		log:     log,
		queue:   make(chan job, opts.QueueSize),
	}
}

// Start launches the workers. They stop once Close has drained the queue or
// ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Close stops accepting notifications and waits for queued ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// Notify enqueues a notification without blocking.
func (d *Dispatcher) Notify(_ context.Context, kind appointment.NotificationKind, appt appointment.Appointment, extra map[string]string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.metrics.record(string(kind), OutcomeDropped)
		return ErrClosed
	}

	select {
	case d.queue <- job{kind: kind, appt: appt, extra: extra}:
		d.metrics.record(string(kind), OutcomeQueued)
		return nil
	default:
		d.metrics.record(string(kind), OutcomeDropped)
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(ctx context.Context, n int) {
	defer d.wg.Done()

	for j := range d.queue {
		if err := d.limiter.Wait(ctx); err != nil {
			d.metrics.record(string(j.kind), OutcomeDropped)
			continue
		}
		d.deliver(ctx, j)
	}

	d.log.WithField("worker", n).Debug("notification worker stopped")
}

// recipients lists who hears about each kind of notification.
func recipients(kind appointment.NotificationKind, appt appointment.Appointment) []uuid.UUID {
	switch kind {
	case appointment.NotifyBookingAlertToDoctor:
		return []uuid.UUID{appt.DoctorID}
	case appointment.NotifyStatusChanged:
		return []uuid.UUID{appt.PatientID, appt.DoctorID}
	default:
		return []uuid.UUID{appt.PatientID}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	kind := string(j.kind)
	entry := d.log.WithFields(logrus.Fields{
		"appointment_id": j.appt.ID,
		"kind":           kind,
	})

	doctor := d.lookup(ctx, j.appt.DoctorID)
	patient := d.lookup(ctx, j.appt.PatientID)

	v := view{
		DoctorName:     displayName(doctor),
		PatientName:    displayName(patient),
		When:           j.appt.Instant.In(d.opts.Location).Format("Monday, January 2, 2006 at 15:04 MST"),
		Reason:         j.appt.Reason,
		Status:         string(j.appt.Status),
		PreviousStatus: j.extra["previous_status"],
		AppointmentID:  j.appt.ID.String(),
	}

	for _, id := range recipients(j.kind, j.appt) {
		to := doctor
		if id == j.appt.PatientID {
			to = patient
		}
		if to == nil || to.Email == nil || *to.Email == "" {
			entry.WithField("recipient_id", id).Warn("no email address for recipient, skipping")
			d.metrics.record(kind, OutcomeSkipped)
			continue
		}

		v.RecipientName = displayName(to)
		subject, body, err := render(j.kind, v)
		if err != nil {
			entry.WithError(err).Error("failed to render notification")
			d.metrics.record(kind, OutcomeFailed)
			continue
		}

		if err := d.sender.Send(ctx, Message{To: *to.Email, Subject: subject, Body: body}); err != nil {
			entry.WithError(err).WithField("recipient_id", id).Error("failed to send notification")
			d.metrics.record(kind, OutcomeFailed)
			continue
		}
		d.metrics.record(kind, OutcomeSent)
	}
}

func (d *Dispatcher) lookup(ctx context.Context, id uuid.UUID) *identity.Identity {
	u, err := d.dir.FindUserByID(ctx, id)
	if err != nil {
		if !errors.Is(err, identity.ErrUserNotFound) {
			d.log.WithError(err).WithField("user_id", id).Error("failed to resolve notification recipient")
		}
		return nil
	}
	return u
}

func displayName(u *identity.Identity) string {
	if u == nil {
		return "unknown"
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

var _ appointment.Notifier = (*Dispatcher)(nil)
