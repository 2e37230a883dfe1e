/**
 * LKA API - Main Entry Point
 *
 * Web process for the local knowledge appliance:
 * - REST API for uploads, documents, hybrid search and passage reads
 * - SSE stream relaying job progress from the Redis pub/sub channel
 * - System surface: health, stats (queue depths, cache hit ratio), reaper
 *
 * Workers run as a separate process (cmd/worker); the two communicate only
 * through PostgreSQL, the object store and Redis.
 */

package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/lkaproject/lka/internal/clients"
	"github.com/lkaproject/lka/internal/config"
	"github.com/lkaproject/lka/internal/events"
	"github.com/lkaproject/lka/internal/logging"
	"github.com/lkaproject/lka/internal/objstore"
	"github.com/lkaproject/lka/internal/pipeline"
	"github.com/lkaproject/lka/internal/queue"
	"github.com/lkaproject/lka/internal/search"
	"github.com/lkaproject/lka/internal/server"
	"github.com/lkaproject/lka/internal/store"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("api", logging.ParseLevel(cfg.LogLevel))
	logger.Info("starting API process", "listen_addr", cfg.ListenAddr)

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := st.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to apply schema: %v", err)
	}
	cancel()
	logger.Info("schema ready")

	objects, err := objstore.New(objstore.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("Failed to create object store client: %v", err)
	}
	if err := objects.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("Failed to ensure bucket: %v", err)
	}

	bus, err := events.NewBus(cfg.RedisURL, logger.With("bus"))
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer bus.Close()

	queueClient, err := queue.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create queue client: %v", err)
	}
	defer queueClient.Close()

	inspector, err := queue.NewInspector(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create queue inspector: %v", err)
	}
	defer inspector.Close()

	embedder, err := clients.NewEmbedder(cfg.EmbedderURL)
	if err != nil {
		log.Fatalf("Failed to create embedder client: %v", err)
	}

	orch := pipeline.New(st, queueClient, bus, logger.With("pipeline"))
	engine := search.NewEngine(st, embedder, logger.With("search"))

	srv := server.New(cfg, st, objects, bus, engine, orch, inspector, embedder, logger)
	if err := srv.Run(); err != nil {
		log.Fatalf("API server exited: %v", err)
	}
}
