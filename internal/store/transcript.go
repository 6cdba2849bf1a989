package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
)

// SaveTranscript persists C7's output into the document_transcripts table
// (spec.md §6's persisted-state list). Upserted independently of BulkLoad's
// field transaction: a transcript is a derived index, not part of the
// fields/summary atomicity guarantee spec.md §4.6 and §8 invariant 10 cover.
func (s *Store) SaveTranscript(ctx context.Context, t *domain.Transcript) error {
	pageTranscripts, err := json.Marshal(t.PageTranscripts)
	if err != nil {
		return fmt.Errorf("marshal page_transcripts: %w", err)
	}
	sectionIndex, err := json.Marshal(t.SectionIndex)
	if err != nil {
		return fmt.Errorf("marshal section_index: %w", err)
	}
	fieldLocations, err := json.Marshal(t.FieldLocations)
	if err != nil {
		return fmt.Errorf("marshal field_locations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extraction.document_transcripts (
			document_id, job_id, full_transcript, page_transcripts,
			section_index, field_locations, total_pages, total_sections, generation_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_id) DO UPDATE SET
			job_id = EXCLUDED.job_id,
			full_transcript = EXCLUDED.full_transcript,
			page_transcripts = EXCLUDED.page_transcripts,
			section_index = EXCLUDED.section_index,
			field_locations = EXCLUDED.field_locations,
			total_pages = EXCLUDED.total_pages,
			total_sections = EXCLUDED.total_sections,
			generation_time_ms = EXCLUDED.generation_time_ms
	`, t.DocumentID, t.JobID, t.FullTranscript, pageTranscripts,
		sectionIndex, fieldLocations, t.TotalPages, t.TotalSections, t.GenerationTimeMs)
	if err != nil {
		return fmt.Errorf("upsert transcript for document %s: %w", t.DocumentID, err)
	}
	return nil
}
