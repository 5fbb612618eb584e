package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/sus-scheduling/internal/apperr"
	"github.com/hackgods/sus-scheduling/internal/booking"
	"github.com/hackgods/sus-scheduling/internal/config"
	"github.com/hackgods/sus-scheduling/internal/identity"
)

// seedPassword is shared by every seeded account so they can log in.
const seedPassword = "sus123"

func seedCmd() *cobra.Command {
	var doctors, patients, days int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Register fake doctors and patients and publish open slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := requirePersistentBackend(cfg, "seed"); err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := cmd.Context()
			a, err := buildApp(ctx, cfg, zerolog.Nop())
			if err != nil {
				return err
			}
			defer a.Close()

			s := &seeder{app: a, faker: gofakeit.New(0), log: logger}
			doctorIDs, err := s.doctors(ctx, doctors)
			if err != nil {
				return fmt.Errorf("seed doctors: %w", err)
			}
			if err := s.patients(ctx, patients); err != nil {
				return fmt.Errorf("seed patients: %w", err)
			}
			published, err := s.slots(ctx, doctorIDs, days)
			if err != nil {
				return fmt.Errorf("seed slots: %w", err)
			}

			logger.Info().
				Int("doctors", len(doctorIDs)).
				Int("patients", patients).
				Int("slots", published).
				Str("password", seedPassword).
				Msg("seed complete")
			return nil
		},
	}
	cmd.Flags().IntVar(&doctors, "doctors", 10, "number of doctors to register")
	cmd.Flags().IntVar(&patients, "patients", 100, "number of patients to register")
	cmd.Flags().IntVar(&days, "days", 5, "publish slots for this many days starting tomorrow")
	return cmd
}

type seeder struct {
	app   *app
	faker *gofakeit.Faker
	log   zerolog.Logger
}

func (s *seeder) doctors(ctx context.Context, count int) ([]string, error) {
	s.log.Info().Int("count", count).Msg("seeding doctors")

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		id, err := s.app.identity.RegisterDoctor(ctx, identity.DoctorInput{
			Name:      first + " " + last,
			Email:     strings.ToLower(fmt.Sprintf("%s.%s.%d@sus.gov.br", first, last, i)),
			Password:  seedPassword,
			CRM:       s.faker.Numerify("#####"),
			Specialty: s.faker.RandomString(identity.Specialties),
			Phone:     fmt.Sprintf("(%d) 9%s-%s", s.faker.IntRange(11, 99), s.faker.Numerify("####"), s.faker.Numerify("####")),
		})
		if errors.Is(err, apperr.ErrConflict) {
			continue
		}
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *seeder) patients(ctx context.Context, count int) error {
	s.log.Info().Int("count", count).Msg("seeding patients")

	for i := 0; i < count; i++ {
		_, err := s.app.identity.RegisterPatient(ctx, identity.PatientInput{
			Email:    fmt.Sprintf("%d.%s", i, s.faker.Email()),
			Password: seedPassword,
			CPF:      identity.CompleteCPF(s.faker.Numerify("#########")),
			Phone:    fmt.Sprintf("(%d) 9%s-%s", s.faker.IntRange(11, 99), s.faker.Numerify("####"), s.faker.Numerify("####")),
		})
		if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrValidation) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// slots publishes a few open slots per doctor per day on the same half-hour
// grid doctors pick from. Overlapping picks are skipped.
func (s *seeder) slots(ctx context.Context, doctorIDs []string, days int) (int, error) {
	now := s.app.engine.Now()
	published := 0

	for _, doctorID := range doctorIDs {
		for d := 1; d <= days; d++ {
			date := booking.FormatDate(now.AddDate(0, 0, d))
			grid := booking.TimeOptions(date, now)

			for n := s.faker.IntRange(1, 4); n > 0; n-- {
				i := s.faker.IntRange(0, len(grid)-2)
				_, err := s.app.engine.PublishSlot(ctx, booking.SlotInput{
					DoctorID:  doctorID,
					StartTime: grid[i],
					EndTime:   grid[i+1],
					Date:      date,
				})
				if errors.Is(err, booking.ErrSlotConflict) {
					continue
				}
				if err != nil {
					return published, err
				}
				published++
			}
		}
	}
	return published, nil
}
