package domain

// FieldType is the flattener's type tag for a leaf value (spec.md §3).
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldInteger   FieldType = "integer"
	FieldNumber    FieldType = "number"
	FieldBoolean   FieldType = "boolean"
	FieldNull      FieldType = "null"
	FieldArray     FieldType = "array"
	FieldTableCell FieldType = "table_cell"
	FieldDate      FieldType = "date"
	FieldCurrency  FieldType = "currency"
)

// ExtractedField is one flattened leaf of a page's hierarchical_data tree,
// per spec.md §3. (document_id, field_order) is unique and field_order is
// strictly increasing per document, across pages, never reset.
type ExtractedField struct {
	DocumentID string
	JobID      string

	FieldName  string // dotted/indexed path, e.g. customer.addresses[2].city
	FieldLabel string // title-cased, space/>-delimited rendering of the path
	FieldType  FieldType
	FieldValue string // nullable in spirit; Go zero value "" covers it, IsNull distinguishes
	IsNull     bool
	FieldGroup string // top-level section name (path root)

	PageNumber  int
	FieldOrder  int // monotonic per document, across pages

	ConfidenceScore   *float64
	NeedsManualReview bool

	ExtractionMethod string
	ModelVersion     string
	TokensUsed       int
	ProcessingTimeMs int64

	SectionName      string
	SourceLocation   string
	ExtractionContext string
	FieldMetadata    map[string]interface{}

	ValidationStatus string
}

// DeriveNeedsManualReview applies spec.md §4.6's rule:
// needs_manual_review := confidence != null && confidence < 0.7.
func DeriveNeedsManualReview(confidence *float64) bool {
	return confidence != nil && *confidence < 0.7
}
