package main

import (
	"context"
	"fmt"
	"os"

	dataagg "github.com/tollgrid/pathways-backend/internal/data/aggregates"
	"github.com/tollgrid/pathways-backend/internal/data/db"
	"github.com/tollgrid/pathways-backend/internal/data/repos"
	"github.com/tollgrid/pathways-backend/internal/handlers"
	"github.com/tollgrid/pathways-backend/internal/observability"
	"github.com/tollgrid/pathways-backend/internal/platform/logger"
	"github.com/tollgrid/pathways-backend/internal/server"
	"github.com/tollgrid/pathways-backend/internal/services"
	"github.com/tollgrid/pathways-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Metrics
	metrics := observability.Init(log)
	if metrics != nil {
		metricsAddr := utils.GetEnv("METRICS_ADDR", ":9090", log)
		metrics.StartServer(ctx, log, metricsAddr)
		metrics.StartPostgresCollector(ctx, log, thePG)
		metrics.StartSLOEvaluator(ctx, log)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	pathwayRepo := repos.NewPathwayRepo(thePG, log)
	optionRepo := repos.NewPathwayOptionRepo(thePG, log)
	tollRepo := repos.NewPathwayOptionTollRepo(thePG, log)
	nodeRepo := repos.NewTransitNodeRepo(thePG, log)

	// Aggregate
	log.Info("Setting up pathway aggregate from main...")
	pathwayAggregate := dataagg.NewPathwayAggregate(dataagg.PathwayAggregateDeps{
		Base: dataagg.BaseDeps{
			DB:       thePG,
			Log:      log,
			Runner:   dataagg.NewGormTxRunner(thePG),
			Hooks:    dataagg.NewObservabilityHooks(metrics),
			CASGuard: dataagg.NewCASGuard(thePG),
		},
		Pathways: pathwayRepo,
		Options:  optionRepo,
		Tolls:    tollRepo,
		Nodes:    nodeRepo,
	})

	// Services
	log.Info("Setting up Services from main...")
	pathwayService := services.NewPathwayService(thePG, log, pathwayAggregate, pathwayRepo, optionRepo, tollRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	pathwayHandler := handlers.NewPathwayHandler(log, pathwayService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		PathwayHandler: pathwayHandler,
		Metrics:        metrics,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
