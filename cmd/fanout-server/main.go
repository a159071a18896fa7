// Package main provides the fanout server executable: HTTP API, delivery
// engine, and background receipt scheduler.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coregx/fanout"
	"github.com/coregx/fanout/adapters/relica"
	"github.com/coregx/fanout/cmd/fanout-server/internal/api"
	"github.com/coregx/fanout/cmd/fanout-server/internal/config"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SimpleLogger implements fanout.Logger for standard logging.
type SimpleLogger struct{}

func (l *SimpleLogger) Debugf(format string, args ...interface{}) {
	log.Printf("[DEBUG] "+format, args...)
}
func (l *SimpleLogger) Infof(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}
func (l *SimpleLogger) Warnf(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}
func (l *SimpleLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}
func (l *SimpleLogger) Info(message string) {
	log.Printf("[INFO] %s", message)
}

func main() {
	log.Println("Starting fanout server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Configuration loaded:")
	log.Printf("   Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	if cfg.Database.Durable() {
		log.Printf("   Delivery store: %s (%s)", cfg.Database.Driver, cfg.Database.Database)
	} else {
		log.Printf("   Delivery store: in-memory (no durability across restarts)")
	}
	log.Printf("   Push timeout: %ds, ack delay: %ds, ack workers: %d",
		cfg.Fanout.PushTimeout, cfg.Fanout.AckDelay, cfg.Fanout.AckWorkers)

	logger := &SimpleLogger{}

	var notifications fanout.NotificationService
	if cfg.Fanout.EnableNotifications {
		notifications = fanout.NewLoggingNotificationService(logger)
	} else {
		notifications = &fanout.NoOpNotificationService{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Select the delivery tracker: durable when a database is configured,
	// in-memory otherwise.
	var tracker fanout.DeliveryTracker
	brokerOpts := []fanout.BrokerOption{
		fanout.WithGateway(fanout.NewHTTPGateway(time.Duration(cfg.Fanout.PushTimeout) * time.Second)),
		fanout.WithBrokerLogger(logger),
		fanout.WithBrokerNotifications(notifications),
	}

	if cfg.Database.Durable() {
		db, err := sql.Open(cfg.Database.Driver, cfg.Database.GetDSN())
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Printf("Failed to close database: %v", closeErr)
			}
		}()

		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := fanout.ApplyMigrations(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		log.Println("Database connection established, schema ready")

		tracker = relica.NewDeliveryTrackerWithPrefix(db, cfg.Database.Driver, cfg.Database.Prefix)

		// Durable mode defers receipt confirmation behind a grace delay.
		scheduler, err := fanout.NewReceiptScheduler(tracker, logger,
			fanout.WithReceiptDelay(time.Duration(cfg.Fanout.AckDelay)*time.Second),
			fanout.WithReceiptWorkers(cfg.Fanout.AckWorkers),
			fanout.WithReceiptNotifications(notifications),
		)
		if err != nil {
			log.Fatalf("Failed to create receipt scheduler: %v", err)
		}
		go scheduler.Run(ctx)
		brokerOpts = append(brokerOpts, fanout.WithReceipts(scheduler))
	} else {
		tracker = fanout.NewMemoryTracker()
	}
	brokerOpts = append(brokerOpts, fanout.WithTracker(tracker))

	registry := fanout.NewRegistry()

	broker, err := fanout.NewBroker(brokerOpts...)
	if err != nil {
		log.Fatalf("Failed to create broker: %v", err)
	}
	log.Println("Delivery engine ready")

	handler := api.NewHandler(registry, broker, logger, notifications)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/subscribe", handler.HandleSubscribe)
	mux.HandleFunc("/api/v1/subscribers", handler.HandleSubscribers)
	mux.HandleFunc("/api/v1/publish", handler.HandlePublish)
	mux.HandleFunc("/api/v1/messages", handler.HandleMessages)
	mux.HandleFunc("/api/v1/health", handler.HandleHealth)
	mux.HandleFunc("/api/v1/toggle", handler.HandleToggle)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", addr)
		log.Println("API Endpoints:")
		log.Println("   POST /api/v1/subscribe")
		log.Println("   GET  /api/v1/subscribers?topic=")
		log.Println("   POST /api/v1/publish")
		log.Println("   GET  /api/v1/messages?subscriber=")
		log.Println("   GET  /api/v1/health")
		log.Println("   POST /api/v1/toggle")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	cancel() // Stop receipt scheduler
	log.Println("Server stopped gracefully")
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(next http.Handler, logger fanout.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.Infof("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		logger.Debugf("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}
