// Package transcript implements C7, the Transcript Builder: a searchable
// page/section/field index assembled from a document's extracted pages,
// consumed by C8's keyword-search mapping strategy (spec.md §4.7).
package transcript

import (
	"fmt"
	"strings"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
)

// Builder assembles a Transcript from a document's flattened fields, grouped
// by page and section (field_group).
type Builder struct {
	documentID string
	jobID      string
}

// New constructs a Builder for one document.
func New(documentID, jobID string) *Builder {
	return &Builder{documentID: documentID, jobID: jobID}
}

// Build implements C7: given a document's pages (in page order) and their
// flattened fields, produces full_transcript, page_transcripts, section_index
// and field_locations.
func (b *Builder) Build(pages []*domain.PageResult, fields []domain.ExtractedField) *domain.Transcript {
	t := &domain.Transcript{
		DocumentID:      b.documentID,
		JobID:           b.jobID,
		PageTranscripts: map[int]string{},
		SectionIndex:    map[string]domain.SectionRange{},
		FieldLocations:  map[string]domain.FieldLocation{},
		TotalPages:      len(pages),
	}

	fieldsByPage := map[int][]domain.ExtractedField{}
	for _, f := range fields {
		fieldsByPage[f.PageNumber] = append(fieldsByPage[f.PageNumber], f)
	}

	var transcriptParts []string
	sectionOrder := make([]string, 0)
	seenSection := map[string]bool{}

	for _, page := range pages {
		pageFields := fieldsByPage[page.PageNumber]
		pageText := renderPageTranscript(page.PageNumber, pageFields)
		t.PageTranscripts[page.PageNumber] = pageText
		transcriptParts = append(transcriptParts, pageText)

		for _, f := range pageFields {
			section := f.FieldGroup
			if section == "" {
				section = "general"
			}
			if !seenSection[section] {
				seenSection[section] = true
				sectionOrder = append(sectionOrder, section)
				t.SectionIndex[section] = domain.SectionRange{FirstPage: page.PageNumber, LastPage: page.PageNumber}
			} else {
				r := t.SectionIndex[section]
				if page.PageNumber < r.FirstPage {
					r.FirstPage = page.PageNumber
				}
				if page.PageNumber > r.LastPage {
					r.LastPage = page.PageNumber
				}
				t.SectionIndex[section] = r
			}

			// First page/section a field name is seen at wins (spec.md is
			// silent on repeats; fields are already unique per document by
			// field_order, so this only matters for repeated field_name
			// values across pages, where the first sighting is kept).
			if _, exists := t.FieldLocations[f.FieldName]; !exists {
				t.FieldLocations[f.FieldName] = domain.FieldLocation{Page: page.PageNumber, Section: section}
			}
		}
	}

	t.FullTranscript = strings.Join(transcriptParts, "\n\n")
	t.TotalSections = len(sectionOrder)
	return t
}

// renderPageTranscript concatenates one page's fields into readable text,
// grouped under a section header per field_group, matching spec.md's
// "concatenating sections in page order with section headers".
func renderPageTranscript(pageNumber int, fields []domain.ExtractedField) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Page %d ---\n", pageNumber)

	var currentSection string
	for _, f := range fields {
		section := f.FieldGroup
		if section == "" {
			section = "general"
		}
		if section != currentSection {
			currentSection = section
			fmt.Fprintf(&b, "\n[%s]\n", section)
		}
		if f.IsNull || f.FieldValue == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.FieldLabel, f.FieldValue)
	}
	return b.String()
}
