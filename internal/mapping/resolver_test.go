package mapping

import (
	"testing"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestResolveDirectAndDefaultPathsPreserveOrderAndLength(t *testing.T) {
	columns := []domain.TemplateColumn{
		{ExcelColumn: "Name", DBFieldPath: "customer.full_name"},
		{ExcelColumn: "Country", DefaultValue: strPtr("USA")},
		{ExcelColumn: "Amount", DBFieldPath: "totals.amount"},
	}

	r := New(nil)
	results := r.Resolve(nil, columns, nil, nil)

	if len(results) != len(columns) {
		t.Fatalf("results len = %d, want %d", len(results), len(columns))
	}
	for i, res := range results {
		if res.ExcelColumn != columns[i].ExcelColumn {
			t.Errorf("result %d ExcelColumn = %q, want %q (order must equal template column order)", i, res.ExcelColumn, columns[i].ExcelColumn)
		}
	}

	if results[0].MatchMethod != domain.MatchDBFieldPathDirect || results[0].Confidence != directConfidence {
		t.Errorf("Name result = %+v", results[0])
	}
	if results[1].MatchMethod != domain.MatchDefaultValue || !results[1].IsDefault() {
		t.Errorf("Country result = %+v", results[1])
	}
	if results[2].MatchMethod != domain.MatchDBFieldPathDirect {
		t.Errorf("Amount result = %+v", results[2])
	}
}

func TestResolveDefaultMutuallyExclusiveWithDBFieldName(t *testing.T) {
	columns := []domain.TemplateColumn{
		{ExcelColumn: "Country", DefaultValue: strPtr("USA")},
	}
	r := New(nil)
	results := r.Resolve(nil, columns, nil, nil)

	res := results[0]
	if res.IsDefault() && res.DBFieldName != domain.DefaultSentinel {
		t.Errorf("default mapping must use the sentinel as DBFieldName, got %q", res.DBFieldName)
	}
}

func TestFallbackFuzzyAcceptsAboveThreshold(t *testing.T) {
	r := New(nil)
	col := domain.TemplateColumn{ExcelColumn: "Customer Name"}
	res := r.fallbackFuzzy(col, []string{"customer_name", "totals_amount"})

	if res.MatchMethod != domain.MatchFuzzy {
		t.Fatalf("expected fuzzy match, got %+v", res)
	}
	if res.DBFieldName != "customer_name" {
		t.Errorf("DBFieldName = %q, want customer_name", res.DBFieldName)
	}
}

func TestFallbackFuzzyUnmappedBelowThreshold(t *testing.T) {
	r := New(nil)
	col := domain.TemplateColumn{ExcelColumn: "Zzz Qqq"}
	res := r.fallbackFuzzy(col, []string{"totally_unrelated_field"})

	if res.MatchMethod != domain.MatchUnmapped {
		t.Errorf("expected unmapped for unrelated names, got %+v", res)
	}
}

func TestMatchSavedTemplateAcceptsAtOverlapThreshold(t *testing.T) {
	templates := []domain.ExtractionTemplate{
		{
			TemplateID: "t1",
			Columns: []domain.TemplateColumn{
				{ExcelColumn: "Name"}, {ExcelColumn: "Amount"}, {ExcelColumn: "Date"}, {ExcelColumn: "Country"}, {ExcelColumn: "Notes"},
			},
		},
	}
	excelColumns := []string{"Name", "Amount", "Date", "Country", "Phone"} // 4/5 = 80% overlap of input

	best, confidence := MatchSavedTemplate(templates, excelColumns)
	if best == nil {
		t.Fatalf("expected a template match")
	}
	if confidence != templateMatchConfidence {
		t.Errorf("confidence = %v, want %v", confidence, templateMatchConfidence)
	}
}

func TestMatchSavedTemplateRejectsBelowThreshold(t *testing.T) {
	templates := []domain.ExtractionTemplate{
		{TemplateID: "t1", Columns: []domain.TemplateColumn{{ExcelColumn: "Name"}}},
	}
	excelColumns := []string{"Name", "Amount", "Date", "Country", "Notes"} // 1/5 = 20% overlap

	best, _ := MatchSavedTemplate(templates, excelColumns)
	if best != nil {
		t.Errorf("expected no match below overlap threshold, got %+v", best)
	}
}
