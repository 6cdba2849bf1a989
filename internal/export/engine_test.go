package export

import (
	"testing"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
)

func strPtr(s string) *string { return &s }

func field(name, value string) domain.ExtractedField {
	return domain.ExtractedField{FieldName: name, FieldValue: value}
}

func TestBuildRowsOneRowPerDocumentWithoutArrayMapping(t *testing.T) {
	mappings := []domain.MappingResult{
		{ExcelColumn: "Name", DBFieldName: "customer.full_name"},
		{ExcelColumn: "Amount", DBFieldName: "totals.amount"},
	}
	documentFields := map[string]map[string]domain.ExtractedField{
		"doc-1": {"customer.full_name": field("customer.full_name", "Jane"), "totals.amount": field("totals.amount", "100")},
		"doc-2": {"customer.full_name": field("customer.full_name", "Bob"), "totals.amount": field("totals.amount", "200")},
	}

	rows := BuildRows(Request{Mappings: mappings}, []string{"doc-1", "doc-2"}, documentFields)

	if len(rows) != 2 {
		t.Fatalf("expected 1 row per document (no array mapping), got %d", len(rows))
	}
	if rows[0]["Name"] != "Jane" || rows[1]["Name"] != "Bob" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestBuildRowsArrayExpansionProducesOneRowPerIndex(t *testing.T) {
	mappings := []domain.MappingResult{
		{ExcelColumn: "Shareholder", DBFieldName: "shareholders[0].name"},
		{ExcelColumn: "Company", DBFieldName: "company.name"},
	}
	documentFields := map[string]map[string]domain.ExtractedField{
		"doc-1": {
			"shareholders[0].name": field("shareholders[0].name", "Alice"),
			"shareholders[1].name": field("shareholders[1].name", "Bob"),
			"shareholders[2].name": field("shareholders[2].name", "Carol"),
			"company.name":         field("company.name", "Acme Corp"),
		},
	}

	rows := BuildRows(Request{Mappings: mappings}, []string{"doc-1"}, documentFields)

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (one per shareholder index), got %d: %+v", len(rows), rows)
	}
	names := []string{rows[0]["Shareholder"], rows[1]["Shareholder"], rows[2]["Shareholder"]}
	if names[0] != "Alice" || names[1] != "Bob" || names[2] != "Carol" {
		t.Errorf("shareholder names in index order = %v", names)
	}
	for i, r := range rows {
		if r["Company"] != "Acme Corp" {
			t.Errorf("row %d Company = %q, want repeated Acme Corp", i, r["Company"])
		}
	}
}

func TestBuildRowsDefaultValueForcesOverrideAfterPostProcessing(t *testing.T) {
	mappings := []domain.MappingResult{
		{ExcelColumn: "Country", DBFieldName: "customer.country", DefaultValue: strPtr("USA")},
	}
	documentFields := map[string]map[string]domain.ExtractedField{
		"doc-1": {"customer.country": field("customer.country", "Canada")},
	}

	rows := BuildRows(Request{Mappings: mappings, TemplateID: "t1"}, []string{"doc-1"}, documentFields)

	if rows[0]["Country"] != "USA" {
		t.Errorf("Country = %q, want USA (default_value must force-override the lookup)", rows[0]["Country"])
	}
}

func TestBuildRowsDefaultValueWithoutTemplateDoesNotOverride(t *testing.T) {
	mappings := []domain.MappingResult{
		{ExcelColumn: "Country", DBFieldName: "customer.country", DefaultValue: strPtr("USA")},
	}
	documentFields := map[string]map[string]domain.ExtractedField{
		"doc-1": {"customer.country": field("customer.country", "Canada")},
	}

	rows := BuildRows(Request{Mappings: mappings}, []string{"doc-1"}, documentFields)

	if rows[0]["Country"] != "Canada" {
		t.Errorf("Country = %q, want Canada (no template_id means default_value only fills an empty result)", rows[0]["Country"])
	}
}

func TestBuildRowsExtractedValueShortcutSkipsDBPath(t *testing.T) {
	extracted := "42"
	mappings := []domain.MappingResult{
		{ExcelColumn: "Amount", DBFieldName: "totals.amount", ExtractedValue: &extracted},
	}
	documentFields := map[string]map[string]domain.ExtractedField{
		"doc-1": {"totals.amount": field("totals.amount", "999")},
		"doc-2": {"totals.amount": field("totals.amount", "888")},
	}

	rows := BuildRows(Request{Mappings: mappings}, []string{"doc-1", "doc-2"}, documentFields)

	if len(rows) != 1 {
		t.Fatalf("expected exactly 1 row for the AI-extracted-value shortcut, got %d", len(rows))
	}
	if rows[0]["Amount"] != "42" {
		t.Errorf("Amount = %q, want 42 (from extracted_value, not DB lookup)", rows[0]["Amount"])
	}
}

func TestLookupFieldFourLevelFallback(t *testing.T) {
	fields := map[string]domain.ExtractedField{
		"customer.full_name": field("customer.full_name", "exact"),
	}
	if got := lookupField(fields, "customer.full_name"); got != "exact" {
		t.Errorf("exact match = %q", got)
	}

	fields2 := map[string]domain.ExtractedField{
		"Customer-Full_Name": field("Customer-Full_Name", "normalized"),
	}
	if got := lookupField(fields2, "customer_full_name"); got != "normalized" {
		t.Errorf("normalized match = %q", got)
	}

	fields3 := map[string]domain.ExtractedField{
		"full_name": field("full_name", "keypart"),
	}
	if got := lookupField(fields3, "customer.full_name"); got != "keypart" {
		t.Errorf("key-part match = %q", got)
	}

	fields4 := map[string]domain.ExtractedField{
		"section.customer.full_name": field("section.customer.full_name", "suffix"),
	}
	if got := lookupField(fields4, "full_name"); got != "suffix" {
		t.Errorf("suffix-endswith match = %q", got)
	}
}

func TestColumnOrderMatchesMappingOrder(t *testing.T) {
	mappings := []domain.MappingResult{
		{ExcelColumn: "C"}, {ExcelColumn: "A"}, {ExcelColumn: "B"},
	}
	order := ColumnOrder(mappings)
	if order[0] != "C" || order[1] != "A" || order[2] != "B" {
		t.Errorf("ColumnOrder = %v, want [C A B]", order)
	}
}

func TestFilenamePattern(t *testing.T) {
	if got := Filename("abcdef1234567890", FormatXLSX); got != "export_abcdef12.xlsx" {
		t.Errorf("Filename = %q", got)
	}
	if got := Filename("short", FormatCSV); got != "export_short.csv" {
		t.Errorf("Filename = %q", got)
	}
}
