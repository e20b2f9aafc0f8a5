// Command main is the entry point for the facts API server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"factvault/internal/cache"
	"factvault/internal/config"
	"factvault/internal/database"
	"factvault/internal/observability"
	"factvault/internal/seed"
	"factvault/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Tracing is optional; the server runs fine without an exporter.
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "factvault-api",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingOTLPAddr,
		SamplerRatio: cfg.TracingSampleRatio,
	})
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// First boot on an empty database gets the starter catalog.
	if err := seed.Facts(db); err != nil {
		log.Printf("Starter fact seeding failed: %v", err)
	}

	cache.InitRedis(cfg.RedisURL)

	srv, err := server.NewServerWithDeps(cfg, db, cache.GetClient())
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if shutdownTracing != nil {
			if err := shutdownTracing(ctx); err != nil {
				log.Printf("Tracing shutdown error: %v", err)
			}
		}
	}()

	log.Fatal(srv.Start())
}
