package server

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tollgrid/pathways-backend/internal/handlers"
	"github.com/tollgrid/pathways-backend/internal/observability"
)

type RouterConfig struct {
	PathwayHandler *handlers.PathwayHandler
	Metrics        *observability.Metrics
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	if cfg.Metrics != nil {
		router.Use(apiMetrics(cfg.Metrics))
	}

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Reads
		api.GET("/pathways", cfg.PathwayHandler.ListPathways)
		api.GET("/pathways/:id", cfg.PathwayHandler.GetPathway)
		api.GET("/pathways/:id/options/:optionId/tolls", cfg.PathwayHandler.GetOptionTolls)

		// Writes, all through the pathway aggregate
		api.POST("/pathways", cfg.PathwayHandler.CreatePathway)
		api.PATCH("/pathways/:id", cfg.PathwayHandler.UpdatePathway)
		api.POST("/pathways/:id/options", cfg.PathwayHandler.AddOption)
		api.PUT("/pathways/:id/options", cfg.PathwayHandler.BulkSyncOptions)
		api.PATCH("/pathways/:id/options/:optionId", cfg.PathwayHandler.UpdateOption)
		api.DELETE("/pathways/:id/options/:optionId", cfg.PathwayHandler.RemoveOption)
		api.POST("/pathways/:id/options/:optionId/default", cfg.PathwayHandler.SetDefaultOption)
		api.PUT("/pathways/:id/options/:optionId/tolls", cfg.PathwayHandler.SyncOptionTolls)
	}

	return router
}

func apiMetrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		c.Next()
		m.ApiInflightDec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
