// Package sweeper runs the periodic appointment maintenance: reminders for
// tomorrow's appointments, purging old cancellations and completing
// appointments whose time has passed. Every sweep is idempotent and reports
// its outcome instead of returning errors.
package sweeper

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/clock"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

const (
	SweepReminders    = "reminders"
	SweepPurge        = "purge"
	SweepAutoComplete = "auto_complete"
)

const (
	reminderFrom      = 23 * time.Hour
	reminderTo        = 25 * time.Hour
	reminderMarkerTTL = 26 * time.Hour
	purgeAgeMonths    = 6
)

const EventAppointmentsPurged = "APPOINTMENTS_PURGED"

// Completer performs the privileged completion of an elapsed appointment.
type Completer interface {
	SystemComplete(ctx context.Context, appt appointment.Appointment, note string) (*appointment.Appointment, error)
}

type Options struct {
	ReminderInterval     time.Duration
	PurgeInterval        time.Duration
	AutoCompleteInterval time.Duration
	// Timeout bounds a single sweep run.
	Timeout time.Duration
}

// Result summarises one sweep run. Err is set when the sweep could not even
// select its candidates; it is informational and never returned as an error.
type Result struct {
	Sweep     string
	Selected  int
	Succeeded int
	Skipped   int
	Failed    int
	Err       error
	Duration  time.Duration
}

type Sweeper struct {
	repo      appointment.Repository
	completer Completer
	notifier  appointment.Notifier
	marker    redisclient.OnceMarker
	clock     clock.Clock
	metrics   *Metrics
	opts      Options
	log       *logrus.Entry
}

func New(
	repo appointment.Repository,
	completer Completer,
	notifier appointment.Notifier,
	marker redisclient.OnceMarker,
	clk clock.Clock,
	metrics *Metrics,
	opts Options,
	log *logrus.Entry,
) *Sweeper {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	return &Sweeper{
		repo:      repo,
		completer: completer,
		notifier:  notifier,
		marker:    marker,
		clock:     clk,
		metrics:   metrics,
		opts:      opts,
		log:       log,
	}
}

func (s *Sweeper) finish(res *Result, start time.Time) Result {
	res.Duration = time.Since(start)
	s.metrics.observe(res)

	entry := s.log.WithFields(logrus.Fields{
		"sweep":     res.Sweep,
		"selected":  res.Selected,
		"succeeded": res.Succeeded,
		"skipped":   res.Skipped,
		"failed":    res.Failed,
		"duration":  res.Duration.String(),
	})
	if res.Err != nil {
		entry.WithError(res.Err).Error("sweep aborted")
	} else {
		entry.Info("sweep complete")
	}
	return *res
}

// Reminders notifies patients of confirmed appointments starting between 23
// and 25 hours from now. A Redis marker per appointment keeps overlapping
// runs from reminding twice; if the marker store is unreachable the reminder
// is sent anyway.
func (s *Sweeper) Reminders(ctx context.Context) Result {
	start := time.Now()
	res := &Result{Sweep: SweepReminders}

	now := s.clock.Now()
	due, err := s.repo.FindByStatusAndInstantRange(ctx, appointment.StatusConfirmed, now.Add(reminderFrom), now.Add(reminderTo))
	if err != nil {
		res.Err = err
		return s.finish(res, start)
	}
	res.Selected = len(due)

	for _, appt := range due {
		entry := s.log.WithField("appointment_id", appt.ID)

		first, err := s.marker.MarkOnce(ctx, redisclient.ReminderKey(appt.ID), reminderMarkerTTL)
		if err != nil {
			entry.WithError(err).Warn("reminder marker unavailable, sending anyway")
			first = true
		}
		if !first {
			res.Skipped++
			continue
		}

		if err := s.notifier.Notify(ctx, appointment.NotifyReminder, appt, nil); err != nil {
			entry.WithError(err).Error("failed to dispatch reminder")
			res.Failed++
			continue
		}
		res.Succeeded++
	}

	return s.finish(res, start)
}

// Purge deletes cancelled appointments whose instant is more than six months
// in the past.
func (s *Sweeper) Purge(ctx context.Context) Result {
	start := time.Now()
	res := &Result{Sweep: SweepPurge}

	cutoff := s.clock.Now().AddDate(0, -purgeAgeMonths, 0)
	n, err := s.repo.DeleteByStatusAndInstantBefore(ctx, appointment.StatusCancelled, cutoff)
	if err != nil {
		res.Err = err
		return s.finish(res, start)
	}
	res.Selected = int(n)
	res.Succeeded = int(n)

	if n > 0 {
		payload, _ := json.Marshal(map[string]any{"deleted": n, "before": cutoff})
		err := s.repo.InsertEvent(ctx, appointment.EventLog{
			EventType: EventAppointmentsPurged,
			Payload:   payload,
			CreatedAt: s.clock.Now(),
		})
		if err != nil {
			s.log.WithError(err).Error("failed to insert purge event log")
		}
	}

	return s.finish(res, start)
}

// AutoComplete completes confirmed appointments whose instant has passed.
func (s *Sweeper) AutoComplete(ctx context.Context) Result {
	start := time.Now()
	res := &Result{Sweep: SweepAutoComplete}

	elapsed, err := s.repo.FindByStatusAndInstantBefore(ctx, appointment.StatusConfirmed, s.clock.Now())
	if err != nil {
		res.Err = err
		return s.finish(res, start)
	}
	res.Selected = len(elapsed)

	for _, appt := range elapsed {
		_, err := s.completer.SystemComplete(ctx, appt, appointment.SystemCompletionNote)
		switch {
		case err == nil:
			res.Succeeded++
		case errors.Is(err, apperr.ErrInvalidTransition):
			// changed by someone else since it was selected
			res.Skipped++
		default:
			s.log.WithError(err).WithField("appointment_id", appt.ID).Error("failed to auto-complete appointment")
			res.Failed++
		}
	}

	return s.finish(res, start)
}

// RunOnce runs every sweep once, each with its own timeout.
func (s *Sweeper) RunOnce(ctx context.Context) []Result {
	return []Result{
		s.run(ctx, s.Reminders),
		s.run(ctx, s.Purge),
		s.run(ctx, s.AutoComplete),
	}
}

func (s *Sweeper) run(ctx context.Context, sweep func(context.Context) Result) Result {
	runCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return sweep(runCtx)
}

// Run sweeps once at startup and then on each sweep's interval until ctx is
// done. A zero interval disables that sweep's timer.
func (s *Sweeper) Run(ctx context.Context) {
	s.RunOnce(ctx)

	reminders := newTicker(s.opts.ReminderInterval)
	defer reminders.stop()
	purge := newTicker(s.opts.PurgeInterval)
	defer purge.stop()
	complete := newTicker(s.opts.AutoCompleteInterval)
	defer complete.stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("shutdown signal received, stopping sweeper")
			return
		case <-reminders.c:
			s.run(ctx, s.Reminders)
		case <-purge.c:
			s.run(ctx, s.Purge)
		case <-complete.c:
			s.run(ctx, s.AutoComplete)
		}
	}
}

// ticker wraps time.Ticker so a disabled sweep has a nil channel.
type ticker struct {
	t *time.Ticker
	c <-chan time.Time
}

func newTicker(d time.Duration) ticker {
	if d <= 0 {
		return ticker{}
	}
	t := time.NewTicker(d)
	return ticker{t: t, c: t.C}
}

func (t ticker) stop() {
	if t.t != nil {
		t.t.Stop()
	}
}
