package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/clock"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

type SimConfig struct {
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ConfirmRatio float64
	CancelRatio  float64
	ReadRatio    float64
	DoctorLimit  int
	PatientLimit int
	Days         int
}

type user struct {
	ID       uuid.UUID
	Username string
}

type slot struct {
	Doctor  user
	Instant time.Time
}

type booked struct {
	ID      uuid.UUID
	Doctor  user
	Patient user
}

type DataPool struct {
	Patients     []user
	Slots        []slot
	mu           sync.RWMutex
	appointments []booked
}

func (dp *DataPool) AddAppointment(b booked) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, b)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (booked, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return booked{}, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

// OperationMetrics counts outcomes of one operation. A conflict is an
// expected business rejection (slot taken, illegal transition, deadline);
// an error is anything else.
type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err == nil:
		atomic.AddInt64(&om.Success, 1)
	case isConflict(err):
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func isConflict(err error) bool {
	return errors.Is(err, apperr.ErrSlotUnavailable) ||
		errors.Is(err, apperr.ErrInvalidTransition) ||
		errors.Is(err, apperr.ErrModificationNotAllowed)
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95, p99 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = percentile(latencies, 50)
	p95 = percentile(latencies, 95)
	p99 = percentile(latencies, 99)
	return
}

func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type Metrics struct {
	Booking     OperationMetrics
	Confirm     OperationMetrics
	Cancel      OperationMetrics
	SlotListing OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	svc     *appointment.Service
	metrics Metrics
	log     *logrus.Logger
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load base config")
	}
	log := logger.New(baseCfg.LogLevel, baseCfg.LogFormat)

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.WithFields(logrus.Fields{
		"duration": cfg.Duration.String(),
		"workers":  cfg.Workers,
		"booking":  cfg.BookingRatio,
		"confirm":  cfg.ConfirmRatio,
		"cancel":   cfg.CancelRatio,
		"read":     cfg.ReadRatio,
	}).Info("simulator starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.Connect(ctx, "clinic-simulate", baseCfg, log)
	if err != nil {
		log.WithError(err).Fatal("connect")
	}
	defer a.Close()

	// Bookings go through the real locks and constraints; notifications are
	// not part of the measurement.
	svc := appointment.NewService(a.Appointments, a.Schedule, a.Directory, appointment.NopNotifier{},
		redisclient.NewRedisLocker(a.Redis, baseCfg.LockTTL), clock.Real(),
		appointment.Options{Location: baseCfg.Location, DefaultSlotMinutes: baseCfg.DefaultSlotMinutes},
		logger.Component(log, "appointment"))

	dataPool, err := loadDataPool(ctx, a.Pool, svc, cfg)
	if err != nil {
		log.WithError(err).Fatal("load data pool")
	}

	log.WithFields(logrus.Fields{
		"patients": len(dataPool.Patients),
		"slots":    len(dataPool.Slots),
	}).Info("data pool loaded")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		svc:    svc,
		log:    log,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SIM_DURATION", "30s")
	v.SetDefault("SIM_WORKERS", 10)
	v.SetDefault("SIM_BOOKING_RATIO", 0.5)
	v.SetDefault("SIM_CONFIRM_RATIO", 0.2)
	v.SetDefault("SIM_CANCEL_RATIO", 0.1)
	v.SetDefault("SIM_READ_RATIO", 0.2)
	v.SetDefault("SIM_DOCTOR_LIMIT", 20)
	v.SetDefault("SIM_PATIENT_LIMIT", 4000)
	v.SetDefault("SIM_DAYS", 7)

	cfg := SimConfig{
		Duration:     v.GetDuration("SIM_DURATION"),
		Workers:      v.GetInt("SIM_WORKERS"),
		BookingRatio: v.GetFloat64("SIM_BOOKING_RATIO"),
		ConfirmRatio: v.GetFloat64("SIM_CONFIRM_RATIO"),
		CancelRatio:  v.GetFloat64("SIM_CANCEL_RATIO"),
		ReadRatio:    v.GetFloat64("SIM_READ_RATIO"),
		DoctorLimit:  v.GetInt("SIM_DOCTOR_LIMIT"),
		PatientLimit: v.GetInt("SIM_PATIENT_LIMIT"),
		Days:         v.GetInt("SIM_DAYS"),
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.ConfirmRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ConfirmRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Days <= 0 {
		return fmt.Errorf("SIM_DAYS must be > 0")
	}
	return nil
}

func loadUsers(ctx context.Context, pool *pgxpool.Pool, role string, limit int) ([]user, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, username FROM users WHERE role = $1 ORDER BY username LIMIT $2
	`, role, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user
	for rows.Next() {
		var u user
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// loadDataPool collects the open slots of the next few days. Workers book
// them at random, so many requests land on the same slot.
func loadDataPool(ctx context.Context, pool *pgxpool.Pool, svc *appointment.Service, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	doctors, err := loadUsers(ctx, pool, "DOCTOR", cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	dataPool.Patients, err = loadUsers(ctx, pool, "PATIENT", cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}

	today := time.Now().In(svc.Location())
	for _, d := range doctors {
		for day := 1; day <= cfg.Days; day++ {
			slots, err := svc.AvailableSlots(ctx, d.ID, today.AddDate(0, 0, day))
			if err != nil {
				return nil, fmt.Errorf("load slots for %s: %w", d.Username, err)
			}
			for _, s := range slots {
				if s.Available {
					dataPool.Slots = append(dataPool.Slots, slot{Doctor: d, Instant: s.Instant})
				}
			}
		}
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Slots) == 0 {
		return nil, fmt.Errorf("no open slots loaded")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.WithFields(logrus.Fields{
		"duration": s.config.Duration.String(),
		"workers":  s.config.Workers,
	}).Info("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.ConfirmRatio:
				s.doConfirm(ctx, rng)
			case r < s.config.BookingRatio+s.config.ConfirmRatio+s.config.CancelRatio:
				s.doCancel(ctx, rng)
			default:
				s.doListSlots(ctx, rng)
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	sl := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	patient := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()
	appt, err := s.svc.CreateAppointment(ctx, appointment.BookingRequest{
		DoctorID:  sl.Doctor.ID,
		PatientID: patient.ID,
		Instant:   sl.Instant.Format(time.RFC3339),
		Reason:    "simulated visit",
	})
	if ctx.Err() != nil {
		return
	}
	s.metrics.Booking.Record(time.Since(start), err)

	if err == nil {
		s.pool.AddAppointment(booked{ID: appt.ID, Doctor: sl.Doctor, Patient: patient})
	}
}

func (s *Simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	_, err := s.svc.Confirm(ctx, b.ID, b.Doctor.Username)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Confirm.Record(time.Since(start), err)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	_, err := s.svc.Cancel(ctx, b.ID, b.Patient.Username)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Cancel.Record(time.Since(start), err)
}

func (s *Simulator) doListSlots(ctx context.Context, rng *rand.Rand) {
	sl := s.pool.Slots[rng.Intn(len(s.pool.Slots))]

	start := time.Now()
	_, err := s.svc.AvailableSlots(ctx, sl.Doctor.ID, sl.Instant)
	if ctx.Err() != nil {
		return
	}
	s.metrics.SlotListing.Record(time.Since(start), err)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Candidate slots: %d\n", len(s.pool.Slots))
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Confirm", &s.metrics.Confirm)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Slot listing", &s.metrics.SlotListing)

	bookings := atomic.LoadInt64(&s.metrics.Booking.Success)
	if bookings > int64(len(s.pool.Slots)) {
		fmt.Printf("WARNING: %d bookings succeeded for %d slots\n", bookings, len(s.pool.Slots))
	}
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95, p99 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s p99=%s\n",
		avg.Round(time.Microsecond), min.Round(time.Microsecond), max.Round(time.Microsecond),
		p50.Round(time.Microsecond), p95.Round(time.Microsecond), p99.Round(time.Microsecond))
	fmt.Println()
}
