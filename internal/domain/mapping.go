package domain

// MatchMethod records how a template column was resolved to a field
// (spec.md §3, §4.8).
type MatchMethod string

const (
	MatchDBFieldPathDirect MatchMethod = "db_field_path_direct"
	MatchDefaultValue      MatchMethod = "default_value"
	MatchKeywordSearch     MatchMethod = "keyword_search"
	MatchFuzzy             MatchMethod = "fuzzy_match"
	MatchAIAssisted        MatchMethod = "ai_assisted"
	MatchUnmapped          MatchMethod = "unmapped"
)

// DefaultSentinel is the `__DEFAULT__` marker spec.md §3 defines for columns
// resolved to a literal default rather than an extracted field.
const DefaultSentinel = "__DEFAULT__"

// MappingResult is the transient, per-export resolution of one template
// column (spec.md §3). Order must equal template column order; at most one
// match method applies per column, and DefaultSentinel is mutually exclusive
// with a real DBFieldName.
type MappingResult struct {
	ExcelColumn     string
	DBFieldName     string // may be DefaultSentinel
	Confidence      float64
	SourceLocation  string
	MatchMethod     MatchMethod
	ExtractedValue  *string // set only on the AI path (spec.md §4.9 step 2)
	DefaultValue    *string
}

// IsDefault reports whether this mapping resolved to the default sentinel.
func (m MappingResult) IsDefault() bool {
	return m.DBFieldName == DefaultSentinel
}
