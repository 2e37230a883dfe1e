/**
 * LKA Worker - Main Entry Point
 *
 * Queue worker for the document ingestion pipeline:
 * - Asynq consumer on the io and/or cpu logical queues
 * - Five-stage pipeline: extract → ocr → chunk → embed → finalize
 * - Tesseract OCR (eng+fra), 300 DPI PDF rasterization
 * - Embedding batches against the local model server
 * - PostgreSQL persistence, Redis pub/sub progress events
 *
 * Each worker subscribes to one logical queue so I/O-bound stages cannot
 * starve CPU-bound stages and vice versa.
 */

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lkaproject/lka/internal/clients"
	"github.com/lkaproject/lka/internal/config"
	"github.com/lkaproject/lka/internal/events"
	"github.com/lkaproject/lka/internal/logging"
	"github.com/lkaproject/lka/internal/objstore"
	"github.com/lkaproject/lka/internal/pipeline"
	"github.com/lkaproject/lka/internal/queue"
	"github.com/lkaproject/lka/internal/stages"
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

	logger := logging.NewLogger("worker", logging.ParseLevel(cfg.LogLevel))
	logger.Info("starting worker process", "queues", cfg.WorkerQueues, "concurrency", cfg.WorkerConcurrency)

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer st.Close()

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

	embedder, err := clients.NewEmbedder(cfg.EmbedderURL)
	if err != nil {
		log.Fatalf("Failed to create embedder client: %v", err)
	}

	tika, err := clients.NewTika(cfg.TikaURL)
	if err != nil {
		log.Fatalf("Failed to create tika client: %v", err)
	}

	orch := pipeline.New(st, queueClient, bus, logger.With("pipeline"))

	runner := stages.NewRunner(st, objects, embedder, tika, orch, bus, logger.With("stages"), stages.Config{
		SyntheticPageChars: cfg.SyntheticPageChars,
	})

	srv, err := queue.NewServer(queue.ServerConfig{
		RedisURL:    cfg.RedisURL,
		Queues:      cfg.WorkerQueues,
		Concurrency: cfg.WorkerConcurrency,
		OnFailure:   orch.HandleFailure,
	})
	if err != nil {
		log.Fatalf("Failed to create queue server: %v", err)
	}

	srv.Register(store.StageExtract, runner.Extract)
	srv.Register(store.StageOCR, runner.OCR)
	srv.Register(store.StageChunk, runner.Chunk)
	srv.Register(store.StageEmbed, runner.Embed)
	srv.Register(store.StageFinalize, runner.Finalize)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start queue server: %v", err)
	}
	logger.Info("worker ready", "queues", cfg.WorkerQueues)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("received signal, shutting down", "signal", sig)

	srv.Shutdown()
	logger.Info("shutdown complete")
}
