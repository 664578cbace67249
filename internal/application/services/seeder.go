package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/providers"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/observability"
)

var demoPatientNames = []string{
	"Amara Okafor", "Ben Carver", "Chioma Eze", "Daniel Mensah", "Efe Adeyemi",
	"Folake Balogun", "Grace Nwosu", "Hassan Bello", "Ifeoma Obi", "Jide Alabi",
}

// SeedDemoData populates an empty book with a small strategy library and one
// busy day two days out, so a fresh instance has something to deploy against.
// It is a no-op when strategies already exist.
func SeedDemoData(
	ctx context.Context,
	clockRepo repositories.ClockRepository,
	strategyService *StrategyService,
	appointmentService *AppointmentService,
	rand providers.RandSource,
) error {
	existing, err := strategyService.ListStrategies(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	clock, err := clockRepo.Get(ctx)
	if err != nil {
		return err
	}

	strategies := []*entities.Strategy{
		{
			Name:      "Default reminder",
			IsDefault: true,
			Split:     0.5,
			VariantA:  entities.VariantDefinition{Channel: entities.ChannelSMS, ActionOffsets: []int{-1}},
			VariantB:  entities.VariantDefinition{Channel: entities.ChannelCall, ActionOffsets: []int{-1}},
		},
		{
			Name:    "High risk outreach",
			Segment: &entities.Segment{AgeMin: 0, AgeMax: 120, RiskMin: 0.5, RiskMax: 1.0},
			Split:   0.5,
			VariantA: entities.VariantDefinition{
				Channel:       entities.ChannelCall,
				ActionOffsets: []int{-2, -1},
			},
			VariantB: entities.VariantDefinition{
				Channel:       entities.ChannelSMS,
				ActionOffsets: []int{-2, -1},
			},
		},
		{
			Name:    "Young adult nudge",
			Segment: &entities.Segment{AgeMin: 18, AgeMax: 35, RiskMin: 0.0, RiskMax: 1.0},
			Split:   0.3,
			VariantA: entities.VariantDefinition{
				Channel:       entities.ChannelSMS,
				ActionOffsets: []int{-2},
			},
			VariantB: entities.VariantDefinition{
				Channel:       entities.ChannelSMS,
				ActionOffsets: []int{-1},
			},
		},
	}
	for _, strategy := range strategies {
		if _, err := strategyService.CreateStrategy(ctx, strategy); err != nil {
			return err
		}
	}

	seedDay := clock.TodayIndex + 2
	date := clock.DateForDay(seedDay)
	for i, name := range demoPatientNames {
		hour := 9 + i%9
		scheduled := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.UTC)

		req := CreateAppointmentRequest{
			PatientName: name,
			DayIndex:    seedDay,
			ScheduledAt: scheduled,
			Features: entities.PatientFeatures{
				Age:         18 + int(rand.Float64()*60),
				PrevNoShows: int(rand.Float64() * 4),
				DistanceKM:  math.Round(rand.Float64()*300) / 10,
				NewPatient:  rand.Float64() < 0.3,
			},
		}
		if _, err := appointmentService.CreateAppointment(ctx, req); err != nil {
			return fmt.Errorf("failed to seed appointment for %s: %w", name, err)
		}
	}

	observability.GetLogger().Info().
		Int("strategies", len(strategies)).
		Int("appointments", len(demoPatientNames)).
		Int("seed_day", seedDay).
		Msg("seeded demo data")

	return nil
}
