// Package worker implements spec.md §6's ingest interface,
// process_document(document_id, job_id, config) -> {status, pages_processed,
// pages_failed, fields_extracted, tokens_used, processing_time_s}: it wires
// a source adapter fetch through C5's pipeline, C6's flatten+bulk-load and
// C7's transcript builder into one document-processing run, the same
// top-to-bottom orchestration role the teacher's
// internal/processor.DocumentProcessor played for OCR/embedding, now
// retargeted at this module's own domain.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/flatten"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/llm"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/logging"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/pipeline"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/source"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/store"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/transcript"
)

// Request is process_document's input (spec.md §6).
type Request struct {
	DocumentID     string
	JobID          string
	ExtractionTask llm.Task
	DocumentType   string
	SourceAdapter  source.Name
	SourcePath     string
}

// Result is process_document's output (spec.md §6).
type Result struct {
	Status          domain.DocumentStatus
	PagesProcessed  int
	PagesFailed     int
	PagesCancelled  int
	FieldsExtracted int
	TokensUsed      int64
	ProcessingTimeS float64
}

// Processor implements process_document by composing C5-C7.
type Processor struct {
	pipeline *pipeline.Pipeline
	store    *store.Store
	sources  *source.Registry
	logger   *logging.Logger
}

// New constructs a Processor from its three collaborators (spec.md §9:
// explicit constructor injection, no global singletons for stateful
// components).
func New(p *pipeline.Pipeline, st *store.Store, sources *source.Registry) *Processor {
	return &Processor{pipeline: p, store: st, sources: sources, logger: logging.NewLogger("worker.Processor")}
}

// ProcessDocument implements spec.md §6's process_document operation.
func (p *Processor) ProcessDocument(ctx context.Context, req Request, cancel *pipeline.CancelToken) (*Result, error) {
	start := time.Now()

	adapter := p.sources.Resolve(req.SourceAdapter)
	if adapter == nil {
		return nil, fmt.Errorf("process_document: unknown source adapter %q", req.SourceAdapter)
	}
	pdfBytes, err := adapter.Fetch(ctx, req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("process_document: fetch %s: %w", req.SourcePath, err)
	}

	if cancel == nil {
		cancel = pipeline.NewCancelToken()
	}

	runResult, err := p.pipeline.Run(ctx, req.DocumentID, req.JobID, pdfBytes, req.ExtractionTask, req.DocumentType, cancel)
	if err != nil {
		return nil, fmt.Errorf("process_document: pipeline run: %w", err)
	}

	flattener := flatten.New(req.DocumentID, req.JobID)
	var allFields []domain.ExtractedField
	var tokensUsed int64
	for _, pr := range runResult.Pages {
		if pr == nil {
			continue
		}
		tokensUsed += int64(pr.TokenUsage.TotalTokens)
		if pr.Status != domain.PageDone {
			continue
		}
		allFields = append(allFields, flattener.Flatten(pr)...)
	}

	fieldsWritten := 0
	if len(allFields) > 0 {
		bulkResult, bulkErr := p.store.BulkLoad(ctx, req.DocumentID, allFields)
		if bulkErr != nil {
			// spec.md §8 invariant 10: a failed bulk load persists no
			// fields and the document is marked failed, regardless of how
			// many pages otherwise succeeded.
			result := &Result{
				Status:          domain.DocumentFailed,
				PagesProcessed:  runResult.PagesProcessed,
				PagesFailed:     runResult.PagesFailed,
				TokensUsed:      tokensUsed,
				ProcessingTimeS: time.Since(start).Seconds(),
			}
			p.persistStatus(ctx, req, result, bulkErr)
			return result, fmt.Errorf("process_document: bulk load: %w", bulkErr)
		}
		fieldsWritten = bulkResult.FieldsWritten
	}

	txn := transcript.New(req.DocumentID, req.JobID).Build(runResult.Pages, allFields)
	txn.GenerationTimeMs = time.Since(start).Milliseconds()
	if err := p.store.SaveTranscript(ctx, txn); err != nil {
		p.logger.Warn("failed to persist transcript", "document_id", req.DocumentID, "error", err)
	}

	result := &Result{
		Status:          rollupStatus(runResult),
		PagesProcessed:  runResult.PagesProcessed,
		PagesFailed:     runResult.PagesFailed,
		PagesCancelled:  runResult.PagesCancelled,
		FieldsExtracted: fieldsWritten,
		TokensUsed:      tokensUsed,
		ProcessingTimeS: time.Since(start).Seconds(),
	}
	p.persistStatus(ctx, req, result, nil)
	return result, nil
}

// persistStatus upserts the documents table's lifecycle row (spec.md §6).
// Failures here are logged, not returned: process_document's return value
// is the authoritative result for the caller even if the status mirror
// write fails.
func (p *Processor) persistStatus(ctx context.Context, req Request, result *Result, cause error) {
	doc := &domain.Document{
		ID:              req.DocumentID,
		JobID:           req.JobID,
		Status:          result.Status,
		PagesProcessed:  result.PagesProcessed,
		PagesFailed:     result.PagesFailed,
		FieldsExtracted: result.FieldsExtracted,
		TokensUsed:      result.TokensUsed,
	}
	if cause != nil {
		doc.ErrorMessage = cause.Error()
	}
	if err := p.store.UpdateDocumentStatus(ctx, doc); err != nil {
		p.logger.Warn("failed to persist document status", "document_id", req.DocumentID, "error", err)
	}
}

// rollupStatus implements spec.md §7's document-level status rollup. A
// cancelled page (spec.md §5/§8 invariant 9: token-cancelled pages never
// reach LLM_DONE) is neither a success nor a hard failure on its own, but it
// still means the document is incomplete and needs review, same as a partial
// failure (S6).
func rollupStatus(r *pipeline.RunResult) domain.DocumentStatus {
	switch {
	case r.PagesFailed == 0 && r.PagesCancelled == 0:
		return domain.DocumentCompleted
	case r.PagesProcessed > 0:
		return domain.DocumentNeedsReview
	default:
		return domain.DocumentFailed
	}
}
