/**
 * Extraction/Mapping Engine Worker - Main Entry Point
 *
 * Architecture:
 * - Asynq consumer for the Redis-backed process-document queue
 * - C1-C5 page pipeline: PDF text/image resolution, LLM extraction,
 *   object detection, concurrent page orchestration
 * - C6-C7 persistence: field flattening + bulk load, transcript build
 * - C8-C9 on-demand mapping/export against a chosen template
 * - PostgreSQL persistence for extracted fields, summaries, transcripts
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/config"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/detect"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/llm"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/logging"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/pdfpage"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/pipeline"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/queue"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/source"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/store"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/worker"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	logger := logging.NewLogger("worker.main")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Info("configuration loaded", "redis", cfg.RedisURL, "database", cfg.DatabaseURL, "max_workers", cfg.MaxWorkers)

	ctx := context.Background()

	logger.Info("connecting to PostgreSQL")
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()
	logger.Info("store connected")

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.MaxWorkers)
	resolver := pdfpage.NewResolver()
	signatureDetector := detect.New(detect.KindSignature, cfg.DetectorURL, cfg.DetectorAPIKey, cfg.DetectorsEnabled)
	faceDetector := detect.New(detect.KindFace, cfg.DetectorURL, cfg.DetectorAPIKey, cfg.DetectorsEnabled)

	pipe := pipeline.New(pipeline.Config{
		MaxWorkers:              cfg.MaxWorkers,
		PagesPerThread:          cfg.PagesPerThread,
		MaxRetriesPerStage:      cfg.MaxRetriesPerStage,
		PipelineDeadlineSec:     cfg.PipelineDeadlineSec,
		TextConfidenceThreshold: cfg.TextConfidenceThreshold,
		RenderScale:             cfg.RenderScale,
		Coord: pdfpage.CoordConfig{
			ScaleXExtra: cfg.ScaleXExtra,
			ScaleYExtra: cfg.ScaleYExtra,
			OffsetX:     cfg.OffsetX,
			OffsetY:     cfg.OffsetY,
		},
	}, pipeline.Deps{
		Resolver:          resolver,
		LLM:               llmClient,
		SignatureDetector: signatureDetector,
		FaceDetector:      faceDetector,
		Logger:            logger,
	})

	sourceRegistry := source.NewRegistry(cfg.SourceFolderRoot)

	proc := worker.New(pipe, st, sourceRegistry)
	logger.Info("processor initialized")

	statusTracker, err := queue.NewStatusTracker(cfg.RedisURL, cfg.QueueName)
	if err != nil {
		log.Fatalf("Failed to initialize status tracker: %v", err)
	}

	queueConsumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerConcurrency,
		Processor:         proc,
		Status:            statusTracker,
		ProcessingTimeout: int64(cfg.PipelineDeadlineSec) * 1000,
	})
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}

	if err := queueConsumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}
	logger.Info("queue consumer started", "queue", cfg.QueueName, "concurrency", cfg.WorkerConcurrency)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("received signal, shutting down", "signal", sig.String())

	if err := queueConsumer.Stop(ctx); err != nil {
		logger.Error("error stopping queue consumer", "error", err)
	}

	if err := st.Close(); err != nil {
		logger.Error("error closing store", "error", err)
	}

	logger.Info("shutdown complete")
}
