// Package prompts implements C3, the Prompt Registry: a deterministic
// (task, content_type, document_type, context) -> (prompt, schema) lookup.
//
// Grounded on spec.md §9's guidance that "module-level singletons are only
// acceptable for read-only registries" — this package exposes a package-
// level map literal, the same pattern the teacher uses for its ErrorCode
// constant table in internal/errors.
package prompts

import (
	"fmt"
	"strings"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/llm"
)

// Context carries page-level parameters that vary a prompt without
// changing its task (spec.md §4.3): first/continuation page, carried table
// headers for bank-statement continuation.
type Context struct {
	IsFirstPage  bool
	TableHeaders []string
	PageNumber   int
}

// Spec is the resolved (prompt, schema) pair for one lookup.
type Spec struct {
	Prompt string
	Schema map[string]interface{}
}

var permissiveExtractionSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": true,
}

var strictClassificationSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"matches": map[string]interface{}{"type": "array"},
	},
	"additionalProperties": false,
}

// Resolve implements C3's lookup. documentType == "bank_statement" turns a
// without_template_extraction task into the bank_statement_extraction
// specialization (spec.md §4.3).
func Resolve(task llm.Task, contentType domain.ContentType, documentType string, ctx Context) Spec {
	effectiveTask := task
	if task == llm.TaskWithoutTemplateExtraction && documentType == "bank_statement" {
		effectiveTask = llm.TaskBankStatementExtraction
	}

	switch effectiveTask {
	case llm.TaskBankStatementExtraction:
		return bankStatementSpec(contentType, ctx)
	case llm.TaskTemplateMatching, llm.TaskDBTemplateMatching:
		return Spec{Prompt: classificationPrompt(effectiveTask, contentType), Schema: strictClassificationSchema}
	default:
		return Spec{Prompt: extractionPrompt(effectiveTask, contentType, documentType), Schema: permissiveExtractionSchema}
	}
}

func extractionPrompt(task llm.Task, contentType domain.ContentType, documentType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract structured fields from this %s. ", describeContent(contentType))
	if documentType != "" {
		fmt.Fprintf(&b, "The document type is %q; use domain-appropriate field names. ", documentType)
	}
	switch task {
	case llm.TaskTemplateGuidedExtraction:
		b.WriteString("Use the provided template column hints to guide which fields to extract. ")
	case llm.TaskFieldDetection:
		b.WriteString("Return a nested object describing every labeled field and its value, preserving key order, and set has_signature/has_photo_id booleans where applicable. ")
	case llm.TaskFormCreation:
		b.WriteString("Return a nested object describing the form's field names, types and layout. ")
	}
	b.WriteString("Respond with a single JSON object only, no commentary.")
	return b.String()
}

func classificationPrompt(task llm.Task, contentType domain.ContentType) string {
	return fmt.Sprintf("Classify this %s against the available templates and return {matches:[...]} as strict JSON.", describeContent(contentType))
}

func bankStatementSpec(contentType domain.ContentType, ctx Context) Spec {
	var b strings.Builder
	b.WriteString("Extract every transaction row from this bank statement page as a JSON object. ")
	if ctx.IsFirstPage {
		b.WriteString("This is the first page: detect the table's column headers and return them verbatim in a top-level `_table_headers` array, then extract transaction rows using those headers as keys. ")
	} else if len(ctx.TableHeaders) > 0 {
		fmt.Fprintf(&b, "This is a continuation page (page %d). Use exactly these column headers for every row, in this order: %s. ", ctx.PageNumber, strings.Join(ctx.TableHeaders, ", "))
	}
	b.WriteString("Respond with a single JSON object only, no commentary.")
	return Spec{Prompt: b.String(), Schema: permissiveExtractionSchema}
}

func describeContent(contentType domain.ContentType) string {
	if contentType == domain.ContentImage {
		return "scanned page image"
	}
	return "page of extracted text"
}
