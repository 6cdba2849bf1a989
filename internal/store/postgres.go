// Package store implements C6's bulk-loader half: a single transactional
// write of a document's flattened fields plus its summary row.
//
// Grounded on internal/storage/postgres.go's connection-pool setup
// (db.SetMaxOpenConns et al, context-bound PingContext at construction) and
// its sql.Open("postgres", ...)/lib/pq idiom. The original's single-row
// UPSERT pattern doesn't fit here: spec.md §4.6 calls for one bulk write of
// N rows per document, and lib/pq (unlike the asyncpg COPY the original
// Python service used) has no ergonomic COPY FROM STDIN for structured
// values, so this writes batched multi-row INSERTs inside one transaction
// instead (DESIGN.md "bulk loader").
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/logging"
)

// maxRowsPerStatement bounds each INSERT's VALUES list so the bound
// parameter count (rows * columns) stays well under PostgreSQL's ~65535
// parameter limit (spec.md §4.6).
const maxRowsPerStatement = 500

const fieldColumns = 17

// Store is C6's Postgres-backed bulk loader.
type Store struct {
	db     *sql.DB
	logger *logging.Logger
}

// Open connects to Postgres and configures the pool the way the teacher's
// PostgresClient does.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, logger: logging.NewLogger("store.Store")}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BulkLoadResult summarizes a completed bulk write.
type BulkLoadResult struct {
	FieldsWritten      int
	AverageConfidence  float64
	NeedsManualReview  bool
}

// BulkLoad writes every field for one document plus its summary row inside a
// single transaction (spec.md §4.6's "all-or-nothing" invariant: either every
// row and the summary commit, or none do). average_confidence is the simple
// mean of all non-nil per-field confidence scores (SPEC_FULL.md §9, Open
// Question 1).
func (s *Store) BulkLoad(ctx context.Context, documentID string, fields []domain.ExtractedField) (*BulkLoadResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk load transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for start := 0; start < len(fields); start += maxRowsPerStatement {
		end := start + maxRowsPerStatement
		if end > len(fields) {
			end = len(fields)
		}
		if err := insertBatch(ctx, tx, fields[start:end]); err != nil {
			return nil, fmt.Errorf("insert field batch [%d:%d]: %w", start, end, err)
		}
	}

	result := summarize(fields)

	if err := upsertSummary(ctx, tx, documentID, result); err != nil {
		return nil, fmt.Errorf("upsert document summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk load transaction: %w", err)
	}

	s.logger.Info("bulk load committed", "document_id", documentID, "fields", result.FieldsWritten)
	return result, nil
}

func summarize(fields []domain.ExtractedField) *BulkLoadResult {
	var sum float64
	var count int
	needsReview := false
	for _, f := range fields {
		if f.ConfidenceScore != nil {
			sum += *f.ConfidenceScore
			count++
		}
		if f.NeedsManualReview {
			needsReview = true
		}
	}
	avg := 0.0
	if count > 0 {
		avg = sum / float64(count)
	}
	return &BulkLoadResult{
		FieldsWritten:     len(fields),
		AverageConfidence: avg,
		NeedsManualReview: needsReview,
	}
}

func insertBatch(ctx context.Context, tx *sql.Tx, fields []domain.ExtractedField) error {
	if len(fields) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO extraction.extracted_fields (
		document_id, job_id, field_name, field_label, field_type, field_value,
		is_null, field_group, page_number, field_order, confidence_score,
		needs_manual_review, extraction_method, model_version, tokens_used,
		processing_time_ms, field_metadata
	) VALUES `)

	args := make([]interface{}, 0, len(fields)*fieldColumns)
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i*fieldColumns + 1
		b.WriteString(placeholderGroup(base, fieldColumns))

		metadataJSON, err := json.Marshal(f.FieldMetadata)
		if err != nil {
			return fmt.Errorf("marshal field_metadata for %s: %w", f.FieldName, err)
		}

		args = append(args,
			f.DocumentID, f.JobID, f.FieldName, f.FieldLabel, string(f.FieldType), f.FieldValue,
			f.IsNull, f.FieldGroup, f.PageNumber, f.FieldOrder, f.ConfidenceScore,
			f.NeedsManualReview, f.ExtractionMethod, f.ModelVersion, f.TokensUsed,
			f.ProcessingTimeMs, metadataJSON,
		)
	}

	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

func placeholderGroup(base, n int) string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "$%d", base+i)
	}
	b.WriteByte(')')
	return b.String()
}

func upsertSummary(ctx context.Context, tx *sql.Tx, documentID string, result *BulkLoadResult) error {
	query := `
		INSERT INTO extraction.document_summaries (
			document_id, field_count, average_confidence, needs_manual_review, updated_at
		) VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (document_id) DO UPDATE SET
			field_count = EXCLUDED.field_count,
			average_confidence = EXCLUDED.average_confidence,
			needs_manual_review = EXCLUDED.needs_manual_review,
			updated_at = NOW()
	`
	_, err := tx.ExecContext(ctx, query, documentID, result.FieldsWritten, result.AverageConfidence, result.NeedsManualReview)
	return err
}

// FieldsForDocument loads all fields for one document, ordered by
// field_order, for downstream consumers (C7 transcript builder, C8 mapping
// resolver, C9 export engine).
func (s *Store) FieldsForDocument(ctx context.Context, documentID string) ([]domain.ExtractedField, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, job_id, field_name, field_label, field_type, field_value,
			is_null, field_group, page_number, field_order, confidence_score,
			needs_manual_review, extraction_method, model_version, tokens_used,
			processing_time_ms, field_metadata
		FROM extraction.extracted_fields
		WHERE document_id = $1
		ORDER BY field_order ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query fields for document %s: %w", documentID, err)
	}
	defer rows.Close()

	var out []domain.ExtractedField
	for rows.Next() {
		var f domain.ExtractedField
		var metadataJSON []byte
		var fieldType string
		if err := rows.Scan(
			&f.DocumentID, &f.JobID, &f.FieldName, &f.FieldLabel, &fieldType, &f.FieldValue,
			&f.IsNull, &f.FieldGroup, &f.PageNumber, &f.FieldOrder, &f.ConfidenceScore,
			&f.NeedsManualReview, &f.ExtractionMethod, &f.ModelVersion, &f.TokensUsed,
			&f.ProcessingTimeMs, &metadataJSON,
		); err != nil {
			return nil, fmt.Errorf("scan field row: %w", err)
		}
		f.FieldType = domain.FieldType(fieldType)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &f.FieldMetadata); err != nil {
				return nil, fmt.Errorf("unmarshal field_metadata for %s: %w", f.FieldName, err)
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Stats returns connection pool statistics.
func (s *Store) Stats() sql.DBStats {
	return s.db.Stats()
}
