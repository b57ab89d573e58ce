package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/alerts/transports"
	"github.com/DhruvGupta005/uptime/internal/config"
	"github.com/DhruvGupta005/uptime/internal/database"
	"github.com/DhruvGupta005/uptime/internal/events"
	"github.com/DhruvGupta005/uptime/internal/handlers"
	"github.com/DhruvGupta005/uptime/internal/incidents"
	"github.com/DhruvGupta005/uptime/internal/jobs"
	"github.com/DhruvGupta005/uptime/internal/middleware"
	"github.com/DhruvGupta005/uptime/internal/probe"
	"github.com/DhruvGupta005/uptime/internal/services"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting uptime monitor %s...", Version)

	db, err := database.Open(cfg.DatabaseURL, database.ParseLogLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	repo := database.NewRepository(db)

	cronAuth, err := middleware.NewCronAuth(cfg.CronSecret)
	if err != nil {
		log.Fatalf("Failed to initialize cron authentication: %v", err)
	}
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := events.New(cfg.AllowedOrigins)
	go hub.Run(ctx)

	userAgent := fmt.Sprintf("uptime-monitor/%s", Version)
	prober := probe.NewExecutor(probe.Options{
		DefaultTimeout: cfg.ProbeDefaultTimeout,
		UserAgent:      userAgent,
	})
	log.Printf("Probe executor initialized (default timeout %s)", cfg.ProbeDefaultTimeout)

	slackClient, err := transports.NewSlackHTTPClient(cfg.SlackProxyURL)
	if err != nil {
		log.Fatalf("Failed to configure Slack client: %v", err)
	}
	dispatcher := alerts.NewDispatcher(repo, alerts.Options{
		Attempts:       cfg.AlertRetries,
		RetryDelay:     cfg.AlertRetryDelay,
		AttemptTimeout: cfg.AlertAttemptTimeout,
		Listener:       hub,
	},
		transports.NewWebhook(nil, userAgent),
		transports.NewSlack(slackClient),
	)
	log.Printf("Alert dispatcher initialized (transports: webhook, slack; attempts: %d)", cfg.AlertRetries)

	checkService := services.NewCheckService(repo, prober, incidents.NewManager(repo, cfg.RealertInterval), dispatcher,
		services.CheckServiceOptions{
			MaxConcurrency: cfg.MaxConcurrency,
			Publisher:      hub,
		})

	scheduler, err := jobs.NewScheduler(checkService, jobs.Options{
		Spec:       cfg.SchedulerSpec,
		StartDelay: cfg.SchedulerStartDelay,
	})
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	scheduler.Start()

	router := handlers.NewRouter(handlers.RouterConfig{
		HTTP:           handlers.NewHTTPHandler(scheduler, hub),
		API:            handlers.NewAPIHandler(checkService, scheduler, hub),
		JWT:            jwtAuth,
		Cron:           cronAuth,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)
	log.Printf("Cron endpoint: http://localhost:%d/api/cron", cfg.HTTPPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Received shutdown signal, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	scheduler.Stop()

	log.Println("Waiting for in-flight alerts...")
	checkService.Drain()

	cancel()
	if err := database.Close(db); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	log.Println("Shutdown complete")
}
