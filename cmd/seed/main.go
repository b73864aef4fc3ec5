package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

const (
	doctorCount  = 40
	patientCount = 2000
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var closureReasons = []string{
	"Conference",
	"Annual leave",
	"Public holiday",
	"Training day",
	"Sick leave",
}

type seeder struct {
	dir      *identity.PgDirectory
	schedule *availability.PgRepository
	loc      *time.Location
	log      *logrus.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load error")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{AppName: "clinic-seed", MaxConns: cfg.PostgresMaxConns})
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	if _, err := db.Migrate(ctx, pool); err != nil {
		log.WithError(err).Fatal("migrate")
	}

	gofakeit.Seed(time.Now().UnixNano())

	s := &seeder{
		dir:      identity.NewPgDirectory(pool),
		schedule: availability.NewPgRepository(pool),
		loc:      cfg.Location,
		log:      log,
	}

	doctors, err := s.seedDoctors(ctx, doctorCount)
	if err != nil {
		log.WithError(err).Fatal("seed doctors")
	}
	for _, d := range doctors {
		if err := s.seedSchedule(ctx, d); err != nil {
			log.WithError(err).WithField("doctor", d.Username).Fatal("seed schedule")
		}
	}
	if err := s.seedPatients(ctx, patientCount); err != nil {
		log.WithError(err).Fatal("seed patients")
	}

	log.Info("seed complete")
}

func (s *seeder) seedDoctors(ctx context.Context, count int) ([]*identity.Identity, error) {
	s.log.WithField("count", count).Info("seeding doctors")

	doctors := make([]*identity.Identity, 0, count)
	for i := 0; i < count; i++ {
		last := gofakeit.LastName()
		email := gofakeit.Email()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		d := &identity.Identity{
			Username:  fmt.Sprintf("dr.%s.%d", strings.ToLower(last), i),
			Role:      identity.RoleDoctor,
			FullName:  "Dr. " + gofakeit.FirstName() + " " + last,
			Email:     &email,
			Specialty: &spec,
		}
		if err := s.dir.CreateUser(ctx, d); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}

	s.log.Info("doctors seeded")
	return doctors, nil
}

// seedSchedule gives a doctor weekday hours, usually split around lunch, and
// a couple of exceptions over the next month.
func (s *seeder) seedSchedule(ctx context.Context, d *identity.Identity) error {
	slot := []int{15, 20, 30, 45, 60}[gofakeit.Number(0, 4)]
	startHour := gofakeit.Number(7, 9)

	for day := time.Monday; day <= time.Friday; day++ {
		if gofakeit.Number(0, 9) == 0 {
			continue
		}

		blocks := []availability.Window{{
			Start: availability.TimeOfDay(startHour * 60),
			End:   availability.TimeOfDay(12 * 60),
		}, {
			Start: availability.TimeOfDay(13 * 60),
			End:   availability.TimeOfDay(gofakeit.Number(16, 18) * 60),
		}}
		if gofakeit.Bool() {
			blocks = []availability.Window{{Start: blocks[0].Start, End: blocks[1].End}}
		}

		for _, b := range blocks {
			w := &availability.WeeklyAvailability{
				DoctorID:            d.ID,
				DayOfWeek:           day,
				StartTime:           b.Start,
				EndTime:             b.End,
				SlotDurationMinutes: slot,
				Active:              true,
			}
			if err := s.schedule.CreateWeekly(ctx, w); err != nil {
				return err
			}
		}
	}

	today := availability.CivilDate(time.Now().In(s.loc))
	seen := map[int]bool{}
	for i := 0; i < 2; i++ {
		offset := gofakeit.Number(1, 30)
		if seen[offset] {
			continue
		}
		seen[offset] = true

		e := &availability.DateException{
			DoctorID:    d.ID,
			Date:        today.AddDate(0, 0, offset),
			Reason:      closureReasons[gofakeit.Number(0, len(closureReasons)-1)],
			IsAvailable: false,
			Active:      true,
		}
		if gofakeit.Number(0, 2) == 0 {
			e.IsAvailable = true
			e.Reason = "Reduced hours"
			e.Override = &availability.Window{
				Start: availability.TimeOfDay(10 * 60),
				End:   availability.TimeOfDay(14 * 60),
			}
		}
		if err := s.schedule.CreateException(ctx, e); err != nil {
			return err
		}
	}

	return nil
}

func (s *seeder) seedPatients(ctx context.Context, count int) error {
	s.log.WithField("count", count).Info("seeding patients")

	for i := 0; i < count; i++ {
		email := gofakeit.Email()
		p := &identity.Identity{
			Username: fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i),
			Role:     identity.RolePatient,
			FullName: gofakeit.Name(),
			Email:    &email,
		}
		if err := s.dir.CreateUser(ctx, p); err != nil {
			return err
		}

		if (i+1)%500 == 0 {
			s.log.WithField("seeded", i+1).Info("patients progress")
		}
	}

	s.log.Info("patients seeded")
	return nil
}
