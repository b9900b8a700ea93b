package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ekowhinson/HRMS-sub007/internal/auth"
	"github.com/ekowhinson/HRMS-sub007/internal/config"
	"github.com/ekowhinson/HRMS-sub007/internal/database"
	"github.com/ekowhinson/HRMS-sub007/internal/implementation"
	"github.com/ekowhinson/HRMS-sub007/internal/implementation/ingest"
	"github.com/ekowhinson/HRMS-sub007/internal/middleware"
	"github.com/ekowhinson/HRMS-sub007/internal/uploads"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	slog.Info("configuration loaded successfully",
		"db_host", cfg.Database.Host,
		"db_port", cfg.Database.Port,
		"db_name", cfg.Database.Name,
		"db_sslmode", cfg.Database.SSLMode,
	)

	slog.Info("server configuration",
		"port", cfg.Server.Port,
		"salary_workers", cfg.Pipeline.SalaryWorkers,
	)

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	if err := database.HealthCheck(db); err != nil {
		log.Fatalf("database health check failed: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to run database migrations: %v", err)
	}

	// Storage backend for archived source workbooks
	storageDriver, err := uploads.NewStorageFromConfig(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize storage driver: %v", err)
	}
	archive := uploads.NewArchiveService(db, storageDriver)
	uploadsHandler := uploads.NewHTTPHandler(archive)

	// Implementation pipeline wiring
	store := implementation.NewTaskStore(db)
	executor := implementation.NewExecutor(db, store, cfg.Pipeline.SalaryWorkers)
	reset := implementation.NewResetController(db)
	pipeline := implementation.NewRouter(ingest.NewExcelParser(), archive, store, executor, reset)

	authService := auth.NewAuthService(db)
	tokenExtractor := auth.NewTokenExtractor()
	requireAuth := auth.RequireAuth(authService, tokenExtractor)

	// Set up HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/payroll/implementation", requireAuth(http.HandlerFunc(pipeline.HandleUpload)))
	mux.Handle("GET /api/payroll/implementation", requireAuth(http.HandlerFunc(pipeline.HandleListTasks)))
	mux.Handle("POST /api/payroll/implementation/reset", requireAuth(http.HandlerFunc(pipeline.HandleReset)))
	mux.Handle("POST /api/payroll/implementation/{taskID}/execute", requireAuth(http.HandlerFunc(pipeline.HandleExecute)))
	mux.Handle("GET /api/payroll/implementation/{taskID}/progress", requireAuth(http.HandlerFunc(pipeline.HandleGetProgress)))
	// Archive keys contain the company prefix, so the route takes a wildcard.
	mux.Handle("GET /api/payroll/implementation/files/{key...}", requireAuth(http.HandlerFunc(uploadsHandler.Download)))

	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)

	// Wrap handler with CORS; RequireAuth already injects the auth context
	handler := middleware.CORS(&cfg.CORS)(mux)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: handler,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	} else {
		slog.Info("server gracefully stopped")
	}

	// Let any in-flight implementation run finish before closing the database
	slog.Info("waiting for running implementation tasks...")
	pipeline.Wait()

	slog.Info("server stopped")
}
