package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/millwork-io/shoptrak/internal/audit"
	"github.com/millwork-io/shoptrak/internal/broadcast"
	"github.com/millwork-io/shoptrak/internal/config"
	"github.com/millwork-io/shoptrak/internal/database"
	"github.com/millwork-io/shoptrak/internal/engine"
	"github.com/millwork-io/shoptrak/internal/handlers"
	"github.com/millwork-io/shoptrak/internal/models"
	"github.com/millwork-io/shoptrak/internal/store"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	hwSeq, err := models.ParseHardwareSequence(cfg.Hardware.Sequence)
	if err != nil {
		log.Fatalf("Invalid HARDWARE_SEQUENCE: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.WorkOrder{},
		&models.Product{},
		&models.Subassembly{},
		&models.Part{},
		&models.Hardware{},
		&models.NestSheet{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Wire the scan engine
	hub := broadcast.NewHub()
	svc := engine.NewService(
		store.NewGormStore(db),
		hub,
		audit.NewGormSink(db),
		engine.JWTAuthorizer{Secret: cfg.JWTSecret},
		hwSeq,
	)

	// 5. Set up HTTP router
	router := handlers.NewRouter(db, svc, hub, cfg)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
