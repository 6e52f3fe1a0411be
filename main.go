package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"modsquad-api/config"
	"modsquad-api/database"
	"modsquad-api/jobs"
	"modsquad-api/repositories"
	"modsquad-api/routes"
	"modsquad-api/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Make sure the admin account exists
	if err := database.SeedAdmin(db); err != nil {
		logger.Warn("failed to seed admin user", zap.Error(err))
	}

	// Initialize blob storage
	store, err := storage.NewDiskStore(cfg.UploadDir, cfg.UploadURLPrefix)
	if err != nil {
		log.Fatal("Failed to initialize upload storage:", err)
	}

	// Start the orphaned blob reconciliation job
	reconcileJob := jobs.NewBlobReconcileJob(
		store,
		repositories.NewBuildRepository(db),
		cfg.ReconcileInterval,
		cfg.ReconcileMinAge,
		logger,
	)
	reconcileJob.Start()
	defer reconcileJob.Stop()

	// Set Gin mode based on environment
	if cfg.Port == "5001" { // Development
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(routes.SetupCORS())

	// Setup routes
	routes.SetupRoutes(router, db, store, cfg, logger)

	// Start server
	logger.Info("starting ModSquad API server", zap.String("port", cfg.Port))

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
