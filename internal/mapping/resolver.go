// Package mapping implements C8, the Mapping Resolver: producing one
// MappingResult per template column, in template column order, for a target
// document batch (spec.md §4.8).
//
// Grounded on original_source/backend-bulk/app/services/template_mapping_service.py:
// the direct/default/AI/fallback resolution order, the AI post-correction
// fuzzy rule (_find_fuzzy_field_match), and the fallback combined-score rule
// (_fuzzy_match_fallback) are all carried over verbatim in semantics, only
// expressed in Go/batched-goroutine form instead of the original's
// sequential async Python.
package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/llm"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/logging"
)

const (
	// aiBatchSize and maxConcurrentBatches are spec.md §4.8's "batch size
	// 20; up to 3 batches in flight."
	aiBatchSize          = 20
	maxConcurrentBatches = 3

	directConfidence  = 0.95
	defaultConfidence = 0.93
	aiCorrectionPenalty = 0.1
	templateMatchConfidence = 0.95

	// templateOverlapThreshold is spec.md §4.8's "overlap >= 80% of input"
	// rule for reusing a saved template against a set of Excel columns.
	templateOverlapThreshold = 0.8
)

// FieldSample is one available extracted field offered to the AI batch
// prompt, grouped by section with a short sample value.
type FieldSample struct {
	FieldName string
	Section   string
	Sample    string
}

// Resolver implements C8 against an llm.Client for the AI-assisted path.
type Resolver struct {
	client *llm.Client
	logger *logging.Logger
}

// New constructs a Resolver.
func New(client *llm.Client) *Resolver {
	return &Resolver{client: client, logger: logging.NewLogger("mapping.Resolver")}
}

// Resolve implements C8's resolution pipeline for one template's columns
// against one job's available fields. Cross-batch DB reads (transcript +
// available fields) must already have happened once, upfront, by the
// caller — availableFields and samples are passed in rather than fetched
// here, per spec.md §4.8's "avoid concurrent DB access" requirement.
func (r *Resolver) Resolve(ctx context.Context, columns []domain.TemplateColumn, availableFields []string, samples []FieldSample) []domain.MappingResult {
	results := make([]domain.MappingResult, len(columns))
	var aiIndices []int

	for i, col := range columns {
		switch {
		case col.DBFieldPath != "":
			results[i] = domain.MappingResult{
				ExcelColumn: col.ExcelColumn,
				DBFieldName: col.DBFieldPath,
				Confidence:  directConfidence,
				MatchMethod: domain.MatchDBFieldPathDirect,
			}
		case col.DefaultValue != nil && col.DBFieldPath == "":
			dv := *col.DefaultValue
			results[i] = domain.MappingResult{
				ExcelColumn:  col.ExcelColumn,
				DBFieldName:  domain.DefaultSentinel,
				Confidence:   defaultConfidence,
				MatchMethod:  domain.MatchDefaultValue,
				DefaultValue: &dv,
			}
		default:
			aiIndices = append(aiIndices, i)
		}
	}

	if len(aiIndices) > 0 {
		r.resolveAIAssisted(ctx, columns, aiIndices, availableFields, samples, results)
	}

	return results
}

// resolveAIAssisted runs spec.md §4.8 steps 3-5 over the columns that need
// AI assistance, batching aiIndices at aiBatchSize with up to
// maxConcurrentBatches batches in flight.
func (r *Resolver) resolveAIAssisted(ctx context.Context, columns []domain.TemplateColumn, aiIndices []int, availableFields []string, samples []FieldSample, results []domain.MappingResult) {
	var batches [][]int
	for start := 0; start < len(aiIndices); start += aiBatchSize {
		end := start + aiBatchSize
		if end > len(aiIndices) {
			end = len(aiIndices)
		}
		batches = append(batches, aiIndices[start:end])
	}

	sem := make(chan struct{}, maxConcurrentBatches)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, batch := range batches {
		batch := batch
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			batchResults, err := r.callAIBatch(ctx, columns, batch, availableFields, samples)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("AI mapping batch failed, falling back to fuzzy match", "error", err, "batch_size", len(batch))
				for _, idx := range batch {
					results[idx] = r.fallbackFuzzy(columns[idx], availableFields)
				}
				return
			}
			for _, idx := range batch {
				if res, ok := batchResults[columns[idx].ExcelColumn]; ok {
					results[idx] = res
				} else {
					results[idx] = domain.MappingResult{ExcelColumn: columns[idx].ExcelColumn, MatchMethod: domain.MatchUnmapped}
				}
			}
		}()
	}
	wg.Wait()
}

type aiSuggestion struct {
	ExcelColumn    string  `json:"excel_column"`
	SuggestedField string  `json:"suggested_field"`
	ExtractedValue string  `json:"extracted_value"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// callAIBatch builds and sends one AI mapping prompt, then post-corrects
// each suggestion against availableFields via fuzzy matching (spec.md §4.8
// step 3).
func (r *Resolver) callAIBatch(ctx context.Context, columns []domain.TemplateColumn, batch []int, availableFields []string, samples []FieldSample) (map[string]domain.MappingResult, error) {
	prompt := buildMappingPrompt(columns, batch, samples)

	resp, err := r.client.Call(ctx, llm.Request{
		Prompt:      prompt,
		Content:     "",
		Task:        llm.TaskFieldMapping,
		DocTag:      "mapping-batch",
		ContentType: domain.ContentText,
	})
	if err != nil {
		return nil, err
	}

	suggestions, err := parseSuggestions(resp.Parsed)
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.MappingResult, len(suggestions))
	for _, s := range suggestions {
		confidence := s.Confidence
		dbField := s.SuggestedField

		if best, _, ok := findBestAICorrection(s.SuggestedField, availableFields); ok {
			if best != s.SuggestedField {
				confidence -= aiCorrectionPenalty
			}
			dbField = best
		} else {
			// No candidate clears the acceptance threshold: this column is
			// unmapped rather than pinned to an unverified AI guess.
			out[s.ExcelColumn] = domain.MappingResult{ExcelColumn: s.ExcelColumn, MatchMethod: domain.MatchUnmapped}
			continue
		}

		result := domain.MappingResult{
			ExcelColumn: s.ExcelColumn,
			DBFieldName: dbField,
			Confidence:  confidence,
			MatchMethod: domain.MatchAIAssisted,
		}
		if s.ExtractedValue != "" {
			v := s.ExtractedValue
			result.ExtractedValue = &v
		}
		out[s.ExcelColumn] = result
	}
	return out, nil
}

func parseSuggestions(parsed map[string]interface{}) ([]aiSuggestion, error) {
	raw, ok := parsed["mappings"]
	if !ok {
		return nil, fmt.Errorf("AI mapping response missing 'mappings' key")
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-encode mapping suggestions: %w", err)
	}
	var suggestions []aiSuggestion
	if err := json.Unmarshal(encoded, &suggestions); err != nil {
		return nil, fmt.Errorf("decode mapping suggestions: %w", err)
	}
	return suggestions, nil
}

// fallbackFuzzy implements spec.md §4.8 step 4: direct fuzzy match on
// normalized column name vs available fields, accepted at combined score
// >= 0.4.
func (r *Resolver) fallbackFuzzy(col domain.TemplateColumn, availableFields []string) domain.MappingResult {
	var best string
	var bestScore float64
	for _, field := range availableFields {
		score := fallbackFuzzyScore(col.ExcelColumn, field)
		if score > bestScore {
			bestScore = score
			best = field
		}
	}
	if bestScore >= 0.4 {
		return domain.MappingResult{
			ExcelColumn: col.ExcelColumn,
			DBFieldName: best,
			Confidence:  bestScore,
			MatchMethod: domain.MatchFuzzy,
		}
	}
	return domain.MappingResult{ExcelColumn: col.ExcelColumn, MatchMethod: domain.MatchUnmapped}
}

// buildMappingPrompt enumerates (a) excel columns, (b) per-column hints,
// (c) available fields grouped by section with sample values, per spec.md
// §4.8 step 3.
func buildMappingPrompt(columns []domain.TemplateColumn, batch []int, samples []FieldSample) string {
	var b strings.Builder
	b.WriteString("Map each Excel column below to the best matching extracted field.\n\nExcel columns:\n")
	for _, idx := range batch {
		col := columns[idx]
		fmt.Fprintf(&b, "- %q", col.ExcelColumn)
		if col.SourceSection != "" {
			fmt.Fprintf(&b, " (section: %s)", col.SourceSection)
		}
		if col.ExtractionHint != "" {
			fmt.Fprintf(&b, " hint: %s", col.ExtractionHint)
		}
		if col.ExampleValue != "" {
			fmt.Fprintf(&b, " example: %s", col.ExampleValue)
		}
		if col.DefaultValue != nil {
			fmt.Fprintf(&b, " default: %q", *col.DefaultValue)
		}
		b.WriteString("\n")
	}

	bySection := map[string][]FieldSample{}
	var sectionOrder []string
	for _, s := range samples {
		if _, seen := bySection[s.Section]; !seen {
			sectionOrder = append(sectionOrder, s.Section)
		}
		bySection[s.Section] = append(bySection[s.Section], s)
	}

	b.WriteString("\nAvailable extracted fields by section:\n")
	for _, section := range sectionOrder {
		fmt.Fprintf(&b, "[%s]\n", section)
		for _, s := range bySection[section] {
			fmt.Fprintf(&b, "  %s = %s\n", s.FieldName, truncate(s.Sample, 60))
		}
	}

	b.WriteString("\nRespond as JSON: {\"mappings\": [{\"excel_column\":..., \"suggested_field\":..., \"extracted_value\":..., \"confidence\":..., \"reasoning\":...}]}.")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// MatchSavedTemplate implements spec.md §4.8's saved-template reuse rule:
// a template whose column set overlaps >= 80% with the given Excel columns
// is applied directly, with confidence ~0.95 and its usage count
// incremented by the caller.
func MatchSavedTemplate(candidates []domain.ExtractionTemplate, excelColumns []string) (*domain.ExtractionTemplate, float64) {
	colSet := map[string]bool{}
	for _, c := range excelColumns {
		colSet[strings.ToLower(strings.TrimSpace(c))] = true
	}

	var best *domain.ExtractionTemplate
	var bestOverlap float64
	for i := range candidates {
		tmpl := &candidates[i]
		if len(tmpl.Columns) == 0 {
			continue
		}
		var matched int
		for _, col := range tmpl.Columns {
			if colSet[strings.ToLower(strings.TrimSpace(col.ExcelColumn))] {
				matched++
			}
		}
		overlap := float64(matched) / float64(len(excelColumns))
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = tmpl
		}
	}

	if best != nil && bestOverlap >= templateOverlapThreshold {
		return best, templateMatchConfidence
	}
	return nil, 0
}
