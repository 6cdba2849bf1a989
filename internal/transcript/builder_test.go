package transcript

import (
	"strings"
	"testing"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
)

func TestBuildSectionIndexSpansPages(t *testing.T) {
	pages := []*domain.PageResult{
		{PageNumber: 1},
		{PageNumber: 2},
		{PageNumber: 3},
	}
	fields := []domain.ExtractedField{
		{FieldName: "customer.name", FieldLabel: "Name", FieldValue: "Jane", FieldGroup: "customer", PageNumber: 1, FieldOrder: 0},
		{FieldName: "customer.address", FieldLabel: "Address", FieldValue: "1 Main St", FieldGroup: "customer", PageNumber: 2, FieldOrder: 1},
		{FieldName: "totals.amount", FieldLabel: "Amount", FieldValue: "100", FieldGroup: "totals", PageNumber: 3, FieldOrder: 2},
	}

	b := New("doc-1", "job-1")
	tr := b.Build(pages, fields)

	if tr.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", tr.TotalPages)
	}
	if tr.TotalSections != 2 {
		t.Errorf("TotalSections = %d, want 2", tr.TotalSections)
	}
	customerRange, ok := tr.SectionIndex["customer"]
	if !ok {
		t.Fatalf("missing customer section")
	}
	if customerRange.FirstPage != 1 || customerRange.LastPage != 2 {
		t.Errorf("customer section range = %+v, want {1 2}", customerRange)
	}
	totalsRange := tr.SectionIndex["totals"]
	if totalsRange.FirstPage != 3 || totalsRange.LastPage != 3 {
		t.Errorf("totals section range = %+v, want {3 3}", totalsRange)
	}
}

func TestBuildFieldLocationsFirstSightingWins(t *testing.T) {
	pages := []*domain.PageResult{{PageNumber: 1}, {PageNumber: 2}}
	fields := []domain.ExtractedField{
		{FieldName: "name", FieldLabel: "Name", FieldValue: "a", FieldGroup: "g", PageNumber: 1, FieldOrder: 0},
		{FieldName: "name", FieldLabel: "Name", FieldValue: "b", FieldGroup: "g", PageNumber: 2, FieldOrder: 1},
	}

	b := New("doc-1", "job-1")
	tr := b.Build(pages, fields)

	loc, ok := tr.FieldLocations["name"]
	if !ok {
		t.Fatalf("missing field location for name")
	}
	if loc.Page != 1 {
		t.Errorf("FieldLocations[name].Page = %d, want 1 (first sighting)", loc.Page)
	}
}

func TestBuildFullTranscriptConcatenatesInPageOrder(t *testing.T) {
	pages := []*domain.PageResult{{PageNumber: 1}, {PageNumber: 2}}
	fields := []domain.ExtractedField{
		{FieldName: "a", FieldLabel: "A", FieldValue: "first", FieldGroup: "g1", PageNumber: 1, FieldOrder: 0},
		{FieldName: "b", FieldLabel: "B", FieldValue: "second", FieldGroup: "g2", PageNumber: 2, FieldOrder: 1},
	}

	b := New("doc-1", "job-1")
	tr := b.Build(pages, fields)

	firstIdx := strings.Index(tr.FullTranscript, "first")
	secondIdx := strings.Index(tr.FullTranscript, "second")
	if firstIdx < 0 || secondIdx < 0 || firstIdx > secondIdx {
		t.Errorf("full_transcript does not preserve page order: %q", tr.FullTranscript)
	}
	if len(tr.PageTranscripts) != 2 {
		t.Errorf("PageTranscripts len = %d, want 2", len(tr.PageTranscripts))
	}
}

func TestBuildSkipsNullAndEmptyValues(t *testing.T) {
	pages := []*domain.PageResult{{PageNumber: 1}}
	fields := []domain.ExtractedField{
		{FieldName: "a", FieldLabel: "A", FieldValue: "", IsNull: true, FieldGroup: "g", PageNumber: 1, FieldOrder: 0},
		{FieldName: "b", FieldLabel: "B", FieldValue: "kept", FieldGroup: "g", PageNumber: 1, FieldOrder: 1},
	}
	b := New("doc-1", "job-1")
	tr := b.Build(pages, fields)

	if strings.Contains(tr.PageTranscripts[1], "A:") {
		t.Errorf("null field should not be rendered: %q", tr.PageTranscripts[1])
	}
	if !strings.Contains(tr.PageTranscripts[1], "kept") {
		t.Errorf("expected kept value in transcript: %q", tr.PageTranscripts[1])
	}
}
