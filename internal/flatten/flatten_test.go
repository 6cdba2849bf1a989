package flatten

import (
	"testing"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
)

func TestFlattenObjectOrderAndLabel(t *testing.T) {
	root := domain.NewObject()
	root.Set("full_name", &domain.Node{Kind: domain.KindString, String: "Jane Doe"})
	root.Set("age", &domain.Node{Kind: domain.KindNumber, Number: 42})
	root.Set("_internal_note", &domain.Node{Kind: domain.KindString, String: "skip me"})

	page := &domain.PageResult{PageNumber: 1, HierarchicalData: root}
	f := New("doc-1", "job-1")
	fields := f.Flatten(page)

	if len(fields) != 2 {
		t.Fatalf("expected 2 fields (internal-prefixed key skipped), got %d", len(fields))
	}
	if fields[0].FieldName != "full_name" || fields[0].FieldOrder != 0 {
		t.Errorf("field 0 = %+v", fields[0])
	}
	if fields[0].FieldLabel != "Full Name" {
		t.Errorf("label = %q, want %q", fields[0].FieldLabel, "Full Name")
	}
	if fields[1].FieldName != "age" || fields[1].FieldOrder != 1 {
		t.Errorf("field 1 = %+v", fields[1])
	}
	if fields[1].FieldType != domain.FieldInteger {
		t.Errorf("age type = %v, want integer", fields[1].FieldType)
	}
}

func TestFlattenOrderIsMonotonicAcrossPages(t *testing.T) {
	f := New("doc-1", "job-1")

	page1 := domain.NewObject()
	page1.Set("a", &domain.Node{Kind: domain.KindString, String: "x"})
	fields1 := f.Flatten(&domain.PageResult{PageNumber: 1, HierarchicalData: page1})

	page2 := domain.NewObject()
	page2.Set("b", &domain.Node{Kind: domain.KindString, String: "y"})
	fields2 := f.Flatten(&domain.PageResult{PageNumber: 2, HierarchicalData: page2})

	if fields1[0].FieldOrder != 0 {
		t.Fatalf("page1 order = %d, want 0", fields1[0].FieldOrder)
	}
	if fields2[0].FieldOrder != 1 {
		t.Fatalf("page2 order = %d, want 1 (must not reset per page)", fields2[0].FieldOrder)
	}
}

func TestFlattenEmptyArrayEmitsLiteralBrackets(t *testing.T) {
	root := domain.NewObject()
	root.Set("tags", &domain.Node{Kind: domain.KindArray, Array: nil})

	f := New("doc-1", "job-1")
	fields := f.Flatten(&domain.PageResult{PageNumber: 1, HierarchicalData: root})

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].FieldType != domain.FieldArray || fields[0].FieldValue != "[]" {
		t.Errorf("empty array field = %+v", fields[0])
	}
}

func TestFlattenTableTypedWrapperExpandsRows(t *testing.T) {
	row1 := domain.NewObject()
	row1.Set("date", &domain.Node{Kind: domain.KindString, String: "2024-01-01"})
	row1.Set("amount", &domain.Node{Kind: domain.KindNumber, Number: 10.5})

	row2 := domain.NewObject()
	row2.Set("date", &domain.Node{Kind: domain.KindString, String: "2024-01-02"})
	row2.Set("amount", &domain.Node{Kind: domain.KindNumber, Number: 20})

	table := &domain.Node{
		Kind:       domain.KindTyped,
		TypedName:  "table",
		TypedValue: &domain.Node{Kind: domain.KindArray, Array: []*domain.Node{row1, row2}},
	}

	root := domain.NewObject()
	root.Set("transactions", table)

	f := New("doc-1", "job-1")
	fields := f.Flatten(&domain.PageResult{PageNumber: 1, HierarchicalData: root})

	if len(fields) != 4 {
		t.Fatalf("expected 4 table_cell fields, got %d: %+v", len(fields), fields)
	}
	for _, fld := range fields {
		if fld.FieldType != domain.FieldTableCell {
			t.Errorf("field %q type = %v, want table_cell", fld.FieldName, fld.FieldType)
		}
	}
	if fields[0].FieldName != "transactions[0].date" {
		t.Errorf("field 0 name = %q", fields[0].FieldName)
	}
	if fields[2].FieldName != "transactions[1].date" {
		t.Errorf("field 2 name = %q", fields[2].FieldName)
	}
}

func TestFlattenNilHierarchicalDataReturnsNoFields(t *testing.T) {
	f := New("doc-1", "job-1")
	fields := f.Flatten(&domain.PageResult{PageNumber: 1, HierarchicalData: nil})
	if fields != nil {
		t.Errorf("expected nil fields for nil hierarchical data, got %+v", fields)
	}
}

func TestLabelIndexedSegmentsDropBracket(t *testing.T) {
	label := Label("addresses[2].city")
	if label != "Addresses > City" {
		t.Errorf("label = %q, want %q", label, "Addresses > City")
	}
}
