package main

import (
	"fmt"
	"log"

	"pedestrian-forecast-api/config"
	"pedestrian-forecast-api/handlers"
	"pedestrian-forecast-api/middleware"
	"pedestrian-forecast-api/services"
	"pedestrian-forecast-api/store"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to Redis
	client, err := store.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer client.Close()

	observations := store.New(client)
	calendars := store.NewCalendarSource(client)
	cache := services.NewCacheService(client)
	authService := services.NewAuthService(cfg.JWT, cfg.Admin)

	observationHandler := handlers.NewObservationHandler(observations, cache)
	predictionHandler := handlers.NewPredictionHandler(observations)
	calendarHandler := handlers.NewCalendarHandler(calendars)
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(observations)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.Server))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "UP",
			"message": "Pedestrian Forecast API is running",
		})
	})

	api := router.Group("/api")
	{
		api.GET("/pedestrians/latest/:street", observationHandler.GetLatest)
		api.GET("/pedestrians/:street", observationHandler.GetRange)
		api.GET("/pedestrians/:street/:date/:hour", observationHandler.GetOne)
		api.GET("/predictions", predictionHandler.Get)
		api.GET("/calendar/:date", calendarHandler.Get)
		api.POST("/auth/login", authHandler.Login)

		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(authService))
		{
			admin.POST("/reindex", adminHandler.Reindex)
			admin.POST("/observations/bulk", adminHandler.BulkObservations)
		}
	}

	router.GET("/ws/predictions", handlers.PredictionWebSocket(cache, authService))

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
