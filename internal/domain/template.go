package domain

import "time"

// TemplateColumn is one ordered column specification in an Extraction
// Template (spec.md §3).
type TemplateColumn struct {
	ColumnNumber      int
	ExcelColumn       string // display header, unique within template
	DBFieldPath       string // optional explicit extracted-field path
	SourceField       string
	SourceSection     string
	SourcePage        int
	SearchKeywords    []string
	ExtractionHint    string
	ExampleValue      string
	DataType          string
	PostProcessType   string
	PostProcessConfig map[string]interface{}
	DefaultValue      *string // pointer distinguishes "unset" from "set to empty string"
}

// ExtractionTemplate is an operator-created, immutable-per-version ordered
// list of column specs driving mapping and export (spec.md §3). Replacing
// columns is a delete-then-insert in one transaction.
type ExtractionTemplate struct {
	TemplateID   string
	Name         string
	Description  string
	DocumentType string
	Columns      []TemplateColumn // ordered by ColumnNumber
	UsageCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
