package store

import (
	"context"
	"fmt"
	"time"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
)

// UpdateDocumentStatus updates the documents table's lifecycle columns
// (spec.md §6: `documents(id, job_id, status, filename, ..., timings,
// token_usage_blob)`). Called once a pipeline run reaches a terminal status;
// separate from BulkLoad's transaction since a document can go to `failed`
// without any fields ever being written (spec.md §8 invariant 10).
func (s *Store) UpdateDocumentStatus(ctx context.Context, doc *domain.Document) error {
	var completedAt *time.Time
	if doc.Status.Terminal() {
		now := time.Now()
		completedAt = &now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extraction.documents (
			id, job_id, filename, mime_type, byte_size, status,
			pages_total, pages_processed, pages_failed, fields_extracted,
			tokens_used, error_message, error_type, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			pages_total = EXCLUDED.pages_total,
			pages_processed = EXCLUDED.pages_processed,
			pages_failed = EXCLUDED.pages_failed,
			fields_extracted = EXCLUDED.fields_extracted,
			tokens_used = EXCLUDED.tokens_used,
			error_message = EXCLUDED.error_message,
			error_type = EXCLUDED.error_type,
			completed_at = EXCLUDED.completed_at
	`, doc.ID, doc.JobID, doc.Filename, doc.MimeType, doc.ByteSize, doc.Status,
		doc.PagesTotal, doc.PagesProcessed, doc.PagesFailed, doc.FieldsExtracted,
		doc.TokensUsed, doc.ErrorMessage, doc.ErrorType, completedAt)
	if err != nil {
		return fmt.Errorf("update document status for %s: %w", doc.ID, err)
	}
	return nil
}
