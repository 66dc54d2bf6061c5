package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/BerylCAtieno/certificate-verifier/internal/config"
	"github.com/BerylCAtieno/certificate-verifier/internal/db"
	"github.com/BerylCAtieno/certificate-verifier/internal/extractor"
	"github.com/BerylCAtieno/certificate-verifier/internal/handlers"
	"github.com/BerylCAtieno/certificate-verifier/internal/report"
	"github.com/BerylCAtieno/certificate-verifier/internal/repository"
	"github.com/BerylCAtieno/certificate-verifier/internal/router"
	"github.com/BerylCAtieno/certificate-verifier/internal/services"
	"github.com/BerylCAtieno/certificate-verifier/internal/storage"
	"github.com/BerylCAtieno/certificate-verifier/internal/utils"
	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Run migrations
	if err := db.RunMigrations(cfg.DatabasePath); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Initialize database
	database, err := db.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	registry, err := config.LoadCourseRegistry(cfg.CourseRegistryPath)
	if err != nil {
		logger.Fatal("Failed to load course registry", "error", err, "path", cfg.CourseRegistryPath)
	}
	engine := verifier.DefaultEngine().WithRegistry(registry)

	logger.Info("Verification engine ready",
		"courses", registry.Len(),
		"template_set", verifier.TemplateSetVersion)

	var store storage.Storage
	if cfg.S3Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err = storage.NewS3Storage(ctx, cfg)
		cancel()
		if err != nil {
			logger.Fatal("Failed to initialize storage", "error", err)
		}
		logger.Info("Archiving uploads", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3BucketName)
	}

	// Initialize certificate service
	certService := services.NewService(
		engine,
		extractor.NewPDFReader(),
		store,
		repository.NewRepository(database),
		report.NewRenderer(report.Config{RowsPerPage: cfg.ReportRowsPerPage}),
		services.Options{
			PageSeparator: cfg.PageSeparator,
			Concurrency:   cfg.BatchConcurrency,
			MaxBatchFiles: cfg.MaxBatchFiles,
		},
		logger,
	)

	// Setup HTTP router
	handler := router.NewRouter(certService, handlers.Limits{
		MaxFileSize:   cfg.MaxFileSize,
		MaxBatchFiles: cfg.MaxBatchFiles,
	}, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
