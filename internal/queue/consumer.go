/**
 * Queue Consumer for the extraction/mapping engine worker.
 *
 * Consumes process-document jobs from a Redis-backed queue and dispatches
 * them into internal/worker.Processor. Uses Asynq, the same Go queue
 * library the teacher used for its BullMQ-compatible consumer.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/llm"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/logging"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/pipeline"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/source"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/worker"
	"github.com/hibiken/asynq"
)

// TaskTypeProcessDocument is the Asynq task type name for process_document jobs.
const TaskTypeProcessDocument = "process-document"

// JobData is the payload for a process-document task (spec.md §6).
type JobData struct {
	DocumentID     string      `json:"documentId"`
	JobID          string      `json:"jobId"`
	ExtractionTask llm.Task    `json:"extractionTask"`
	DocumentType   string      `json:"documentType,omitempty"`
	SourceAdapter  source.Name `json:"sourceAdapter"`
	SourcePath     string      `json:"sourcePath"`
}

// Consumer handles job consumption from the Redis queue.
type Consumer struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor *worker.Processor
	status    *StatusTracker
	config    *ConsumerConfig
	logger    *logging.Logger
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         *worker.Processor
	Status            *StatusTracker // optional; nil disables Redis lifecycle mirroring
	ProcessingTimeout int64          // milliseconds; 300000 (5 min) when unset; cmd/worker sets it from PipelineDeadlineSec (600 s by default)
}

// NewConsumer creates a new queue consumer.
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := asynq.NewClient(redisOpt)
	logger := logging.NewLogger("queue.Consumer")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing error", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		client:    client,
		server:    server,
		mux:       mux,
		processor: cfg.Processor,
		status:    cfg.Status,
		config:    cfg,
		logger:    logger,
	}

	mux.HandleFunc(TaskTypeProcessDocument, consumer.handleProcessDocument)

	return consumer, nil
}

// Start starts the queue consumer.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting queue consumer", "concurrency", c.config.Concurrency, "queue", c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			c.logger.Error("queue consumer stopped with error", "error", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully.
func (c *Consumer) Stop(ctx context.Context) error {
	c.logger.Info("stopping queue consumer")

	c.server.Shutdown()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}

	if c.status != nil {
		if err := c.status.Close(); err != nil {
			c.logger.Warn("error closing status tracker", "error", err)
		}
	}

	c.logger.Info("queue consumer stopped")
	return nil
}

// handleProcessDocument dispatches a process-document task into
// worker.Processor.ProcessDocument, enforcing spec.md §5's pipeline deadline
// as an Asynq-task-level timeout so a stuck job can never hang the worker
// pool indefinitely.
func (c *Consumer) handleProcessDocument(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var jobData JobData
	if err := json.Unmarshal(task.Payload(), &jobData); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	c.logger.Info("processing document", "document_id", jobData.DocumentID, "job_id", jobData.JobID, "source", jobData.SourceAdapter)
	if c.status != nil {
		c.status.MarkProcessing(ctx, jobData.JobID)
	}

	timeout := 300 * time.Second
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}

	processCtx, cancelCtx := context.WithTimeout(ctx, timeout)
	defer cancelCtx()

	cancelToken := pipeline.NewCancelToken()
	result, err := c.processor.ProcessDocument(processCtx, worker.Request{
		DocumentID:     jobData.DocumentID,
		JobID:          jobData.JobID,
		ExtractionTask: jobData.ExtractionTask,
		DocumentType:   jobData.DocumentType,
		SourceAdapter:  jobData.SourceAdapter,
		SourcePath:     jobData.SourcePath,
	}, cancelToken)

	duration := time.Since(startTime)

	if err != nil {
		if c.status != nil {
			c.status.MarkFailed(ctx, jobData.JobID, map[string]interface{}{"error": err.Error()})
		}

		if processCtx.Err() == context.DeadlineExceeded {
			cancelToken.Cancel()
			c.logger.Error("processing timed out", "document_id", jobData.DocumentID, "duration", duration, "timeout", timeout)
			return fmt.Errorf("document %s: processing timeout after %v: %w", jobData.DocumentID, timeout, err)
		}

		c.logger.Error("processing failed", "document_id", jobData.DocumentID, "duration", duration, "error", err)
		return fmt.Errorf("document processing failed: %w", err)
	}

	c.logger.Info("processing completed", "document_id", jobData.DocumentID, "duration", duration,
		"status", result.Status, "pages_processed", result.PagesProcessed, "pages_failed", result.PagesFailed,
		"fields_extracted", result.FieldsExtracted, "tokens_used", result.TokensUsed)

	if c.status != nil {
		c.status.MarkCompleted(ctx, jobData.JobID, result)
	}

	return nil
}

// Enqueue submits a process-document job onto the queue.
func (c *Consumer) Enqueue(ctx context.Context, job JobData) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job data: %w", err)
	}
	t := asynq.NewTask(TaskTypeProcessDocument, payload)
	_, err = c.client.EnqueueContext(ctx, t, asynq.Queue(c.config.QueueName))
	if err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Statistics returns consumer statistics.
func (c *Consumer) Statistics() map[string]interface{} {
	return map[string]interface{}{
		"concurrency": c.config.Concurrency,
		"queue":       c.config.QueueName,
	}
}
