package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attendlab/clinic-noshow-sim/internal/adapters/cache"
	"github.com/attendlab/clinic-noshow-sim/internal/adapters/database"
	"github.com/attendlab/clinic-noshow-sim/internal/adapters/events"
	"github.com/attendlab/clinic-noshow-sim/internal/adapters/memory"
	"github.com/attendlab/clinic-noshow-sim/internal/adapters/providers/random"
	"github.com/attendlab/clinic-noshow-sim/internal/adapters/providers/scoring"
	"github.com/attendlab/clinic-noshow-sim/internal/adapters/search"
	"github.com/attendlab/clinic-noshow-sim/internal/api/handlers"
	"github.com/attendlab/clinic-noshow-sim/internal/api/routes"
	"github.com/attendlab/clinic-noshow-sim/internal/application/services"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/providers"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/postgres"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/redis"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/scorer"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/typesense"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/observability"
	"github.com/attendlab/clinic-noshow-sim/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize stores
	var (
		appointmentRepo repositories.AppointmentRepository
		strategyRepo    repositories.StrategyRepository
		deploymentRepo  repositories.DeploymentRepository
		clockRepo       repositories.ClockRepository
		activityRepo    repositories.ActivityRepository
	)

	switch cfg.Simulation.StoreBackend {
	case "postgres":
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
		}
		defer pgClient.Close()

		appointmentRepo = database.NewAppointmentAdapter(pgClient)
		strategyRepo = database.NewStrategyAdapter(pgClient)
		deploymentRepo = database.NewDeploymentAdapter(pgClient)
		clockRepo = database.NewClockAdapter(pgClient)
		activityRepo = database.NewActivityAdapter(pgClient)
		log.Println("PostgreSQL store backend initialized")
	default:
		clock, err := initialClock(&cfg.Simulation)
		if err != nil {
			log.Fatalf("Failed to initialize simulation clock: %v", err)
		}

		appointmentRepo = memory.NewAppointmentStore()
		strategyRepo = memory.NewStrategyStore()
		deploymentRepo = memory.NewDeploymentStore()
		clockRepo = memory.NewClockStore(clock)
		activityRepo = memory.NewActivityStore()
		log.Println("In-memory store backend initialized")
	}

	if err := ensureClock(ctx, clockRepo, &cfg.Simulation); err != nil {
		log.Fatalf("Failed to initialize simulation clock: %v", err)
	}

	// Initialize Redis-backed cache and event bus
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - summaries go uncached and SSE is disabled
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense-backed appointment search
	var searchRepo repositories.AppointmentSearchRepository
	if cfg.Typesense.URL != "" {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		} else {
			adapter := search.NewTypesenseAdapter(typesenseClient)
			if err := adapter.InitSchema(ctx); err != nil {
				log.Printf("Warning: Failed to initialize Typesense schema: %v", err)
			} else {
				searchRepo = adapter
				log.Println("Typesense client initialized successfully")
			}
		}
	}

	// Initialize the risk scorer
	var riskScorer providers.RiskScorer
	if cfg.Scorer.Endpoint != "" {
		riskScorer = scoring.NewRemoteScorer(scorer.NewClient(&cfg.Scorer))
		log.Println("Remote risk scorer initialized")
	} else {
		riskScorer = scoring.NewMockScorer()
		log.Println("No scorer endpoint configured, using heuristic scorer")
	}

	randSource := random.NewSource(cfg.Simulation.RandomSeed)
	guard := services.NewExecutionGuard()
	riskAdjuster := services.NewRiskAdjuster()

	// Initialize services
	strategyService := services.NewStrategyService(strategyRepo, guard)
	appointmentService := services.NewAppointmentService(appointmentRepo, clockRepo, searchRepo, riskScorer, guard)
	simulationService := services.NewSimulationService(
		clockRepo, appointmentRepo, strategyRepo, deploymentRepo, activityRepo,
		randSource, riskAdjuster, eventBus, metrics, guard,
	)
	summaryService := services.NewSummaryService(clockRepo, appointmentRepo, strategyRepo, cacheProvider, guard)

	if cfg.Simulation.SeedDemoData {
		if err := services.SeedDemoData(ctx, clockRepo, strategyService, appointmentService, randSource); err != nil {
			log.Printf("Warning: Failed to seed demo data: %v", err)
		}
	}

	// Initialize handlers
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService, simulationService)
	strategyHandler := handlers.NewStrategyHandler(strategyService)
	simulationHandler := handlers.NewSimulationHandler(simulationService, deploymentRepo)
	dayHandler := handlers.NewDayHandler(summaryService, activityRepo)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	// Set up routes
	router := routes.NewRouter(
		appointmentHandler,
		strategyHandler,
		simulationHandler,
		dayHandler,
		sseHandler,
		metrics,
	)
	handler := router.SetupRoutes()

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// initialClock builds the day-zero clock from configuration
func initialClock(cfg *config.SimulationConfig) (*entities.SimulationClock, error) {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	if cfg.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", cfg.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid SIM_START_DATE %q: %w", cfg.StartDate, err)
		}
		start = parsed
	}
	return &entities.SimulationClock{TodayIndex: 0, StartDate: start}, nil
}

// ensureClock writes the initial clock when the store does not hold one yet
func ensureClock(ctx context.Context, clockRepo repositories.ClockRepository, cfg *config.SimulationConfig) error {
	if _, err := clockRepo.Get(ctx); err == nil {
		return nil
	}
	clock, err := initialClock(cfg)
	if err != nil {
		return err
	}
	return clockRepo.Save(ctx, clock)
}
