package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lombardo/gridiron/internal/api/rest"
	"github.com/lombardo/gridiron/internal/cache"
	"github.com/lombardo/gridiron/internal/config"
	"github.com/lombardo/gridiron/internal/ingest/nflverse"
	"github.com/lombardo/gridiron/internal/scheduler"
	"github.com/lombardo/gridiron/internal/store"
	"github.com/lombardo/gridiron/internal/update"
)

const (
	serviceName    = "gridiron"
	serviceVersion = "1.0.0"
)

func main() {
	log.Printf("Starting %s v%s - NFL Analytics Service", serviceName, serviceVersion)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := store.NewDatabase(cfg.DSN(), cfg.SchemaTarget.SchemaName())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("✓ Connected to database (schema %s)", db.Schema())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	cancel()
	log.Println("✓ Schema ensured")

	// Cache is best-effort: the service runs without Redis.
	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Printf("⚠️  Redis unavailable: %v (serving without cache)", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
		log.Println("✓ Connected to Redis")
	}

	orchestrator := update.NewOrchestrator(db, nflverse.NewClient(cfg.NFLVerseBaseURL), cfg)

	var sched *scheduler.Scheduler
	if cfg.RefreshCronEnabled {
		sched = scheduler.New(orchestrator, cfg.RefreshCronSpec)
		if err := sched.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	} else {
		log.Println("Nightly refresh disabled")
	}

	server := rest.NewServer(cfg.RESTPort, db, redisCache)
	go func() {
		log.Printf("✓ REST API listening on :%s", cfg.RESTPort)
		if err := server.Start(); err != nil {
			log.Printf("REST server stopped: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received %v, shutting down...", sig)

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST shutdown error: %v", err)
	}

	log.Println("✓ Shutdown complete")
}
