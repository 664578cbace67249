package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/attendlab/clinic-noshow-sim/internal/adapters/memory"
	"github.com/attendlab/clinic-noshow-sim/internal/adapters/providers/random"
	"github.com/attendlab/clinic-noshow-sim/internal/adapters/providers/scoring"
	"github.com/attendlab/clinic-noshow-sim/internal/application/services"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/observability"
)

// Headless runner: seeds the demo book, deploys every strategy against the
// seeded day, steps the clock forward, and prints each day's summary as JSON.
func main() {
	days := flag.Int("days", 4, "number of days to advance")
	seed := flag.Int64("seed", 1, "random seed (0 = time-seeded)")
	startDate := flag.String("start-date", "", "day zero as YYYY-MM-DD (default today)")
	flag.Parse()

	observability.InitLogger("noshow-simulate", "development")
	ctx := context.Background()

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if *startDate != "" {
		parsed, err := time.Parse("2006-01-02", *startDate)
		if err != nil {
			log.Fatalf("invalid -start-date %q: %v", *startDate, err)
		}
		start = parsed
	}

	clockRepo := memory.NewClockStore(&entities.SimulationClock{TodayIndex: 0, StartDate: start})
	appointmentRepo := memory.NewAppointmentStore()
	strategyRepo := memory.NewStrategyStore()
	deploymentRepo := memory.NewDeploymentStore()
	activityRepo := memory.NewActivityStore()

	randSource := random.NewSource(*seed)
	guard := services.NewExecutionGuard()

	strategyService := services.NewStrategyService(strategyRepo, guard)
	appointmentService := services.NewAppointmentService(appointmentRepo, clockRepo, nil, scoring.NewMockScorer(), guard)
	simulationService := services.NewSimulationService(
		clockRepo, appointmentRepo, strategyRepo, deploymentRepo, activityRepo,
		randSource, services.NewRiskAdjuster(), nil, nil, guard,
	)
	summaryService := services.NewSummaryService(clockRepo, appointmentRepo, strategyRepo, nil, guard)

	if err := services.SeedDemoData(ctx, clockRepo, strategyService, appointmentService, randSource); err != nil {
		log.Fatalf("failed to seed demo data: %v", err)
	}

	strategies, err := strategyService.ListStrategies(ctx)
	if err != nil {
		log.Fatalf("failed to list strategies: %v", err)
	}
	strategyIDs := make([]string, 0, len(strategies))
	for _, strategy := range strategies {
		strategyIDs = append(strategyIDs, strategy.ID)
	}

	// The demo book lives two days out, matching the longest lead time in
	// the seeded strategy library.
	deployment, err := simulationService.Deploy(ctx, 2, strategyIDs)
	if err != nil {
		log.Fatalf("failed to deploy strategies: %v", err)
	}
	fmt.Printf("deployed %d strategies to day %d (%s)\n", len(strategyIDs), deployment.TargetDay, deployment.ID)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	for i := 0; i < *days; i++ {
		status, err := simulationService.AdvanceDay(ctx)
		if err != nil {
			log.Fatalf("failed to advance day: %v", err)
		}

		summary, err := summaryService.Summarize(ctx, status.TodayIndex-1)
		if err != nil {
			log.Fatalf("failed to summarize day %d: %v", status.TodayIndex-1, err)
		}

		fmt.Printf("--- day %d closed ---\n", status.TodayIndex-1)
		if err := encoder.Encode(summary); err != nil {
			log.Fatalf("failed to encode summary: %v", err)
		}
	}
}
