// Package domain holds the core entities shared across the extraction and
// mapping pipelines: documents, page results, extracted fields, transcripts,
// templates and mapping results.
package domain

import "time"

// DocumentStatus is the lifecycle state of a Document.
type DocumentStatus string

const (
	DocumentPending      DocumentStatus = "pending"
	DocumentProcessing   DocumentStatus = "processing"
	DocumentCompleted    DocumentStatus = "completed"
	DocumentNeedsReview  DocumentStatus = "needs_review"
	DocumentFailed       DocumentStatus = "failed"
)

// Timings captures per-phase durations for a document's processing run.
type Timings struct {
	RenderMs    int64 `json:"render_ms,omitempty"`
	ExtractMs   int64 `json:"extract_ms,omitempty"`
	FlattenMs   int64 `json:"flatten_ms,omitempty"`
	PersistMs   int64 `json:"persist_ms,omitempty"`
	TotalMs     int64 `json:"total_ms,omitempty"`
}

// Document is the top-level unit of work: one PDF/image submitted for
// extraction. It is exclusively owned by the pipeline run that processes it
// until it reaches a terminal status.
type Document struct {
	ID              string         `json:"id"`
	JobID           string         `json:"job_id"`
	Filename        string         `json:"filename"`
	MimeType        string         `json:"mime_type"`
	ByteSize        int64          `json:"byte_size"`
	Status          DocumentStatus `json:"status"`
	PagesTotal      int            `json:"pages_total"`
	PagesProcessed  int            `json:"pages_processed"`
	PagesFailed     int            `json:"pages_failed"`
	FieldsExtracted int            `json:"fields_extracted"`
	TokensUsed      int64          `json:"tokens_used"`
	Timings         Timings        `json:"timings"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	ErrorType       string         `json:"error_type,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// DocumentSummary is the subset of Document fields the bulk loader updates
// atomically alongside a field insert (spec.md §4.6).
type DocumentSummary struct {
	DocumentID             string
	TotalFieldsExtracted   int
	AverageConfidence      *float64
	FieldsNeedingReview    int
	TotalTokensUsed        int64
	Status                 DocumentStatus
	ProcessingCompletedAt  time.Time
	ErrorMessage           string
	ErrorType              string
}

// DocumentInfo is what a source adapter's discover() returns for one
// candidate document, before its bytes are fetched (spec.md §6).
type DocumentInfo struct {
	SourcePath string // opaque address the adapter's fetch() accepts
	Filename   string
	MimeType   string
	Size       int64 // 0 when the adapter cannot report size up front
}

// Terminal reports whether s is one of the document's terminal states.
func (s DocumentStatus) Terminal() bool {
	switch s {
	case DocumentCompleted, DocumentFailed, DocumentNeedsReview:
		return true
	default:
		return false
	}
}
