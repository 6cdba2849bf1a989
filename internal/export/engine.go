// Package export implements C9, the Export Engine: resolving mapped rows
// for a document batch and emitting them as CSV or XLSX (spec.md §4.9).
package export

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/postprocess"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Row is one exported row, keyed by Excel column.
type Row map[string]string

// Request is C9's input (spec.md §4.9). Columns, when set, must be the same
// length and order as Mappings (spec.md invariant 3) — it supplies each
// mapping's post_process_type/config, which MappingResult itself does not
// carry.
type Request struct {
	JobID      string
	TemplateID string // when set, enables applyColumnClosure's default_value force-override (spec.md §4.9 step 6)
	Mappings   []domain.MappingResult
	Columns    []domain.TemplateColumn
	Format     Format
}

// arrayPatternRe extracts {prefix}[{index}]{.suffix} from a db_field_name.
var arrayPatternRe = regexp.MustCompile(`^(.+?)\[(\d+)\](?:\.(.+))?$`)

// BuildRows implements spec.md §4.9 steps 2-6, given the mapping result set
// and, for each target document (in the caller's chosen order), its
// flattened field list keyed by field_name. documentOrder fixes row
// iteration order; documentFields supplies the per-document field map the
// caller already batch-loaded (spec.md step 3: "load the needed field names
// for all target documents in one batch query").
func BuildRows(req Request, documentOrder []string, documentFields map[string]map[string]domain.ExtractedField) []Row {
	// Step 2: AI-extracted-value shortcut. If any mapping already carries an
	// extracted_value, emit a single row directly from those values and
	// skip the per-document DB path entirely.
	if hasExtractedValues(req.Mappings) {
		row := Row{}
		for _, m := range req.Mappings {
			if m.ExtractedValue != nil {
				row[m.ExcelColumn] = *m.ExtractedValue
			} else {
				row[m.ExcelColumn] = ""
			}
		}
		applyColumnClosure(row, req.Mappings, req.TemplateID)
		return []Row{row}
	}

	arrayPrefix, hasArray := firstArrayPrefix(req.Mappings)

	var rows []Row
	for _, docID := range documentOrder {
		fields := documentFields[docID]
		if !hasArray {
			rows = append(rows, buildSingleRow(req, fields, "", ""))
			continue
		}

		indices := arrayIndicesForPrefix(fields, arrayPrefix)
		if len(indices) == 0 {
			rows = append(rows, buildSingleRow(req, fields, "", ""))
			continue
		}
		for _, idx := range indices {
			rows = append(rows, buildSingleRow(req, fields, arrayPrefix, strconv.Itoa(idx)))
		}
	}

	for i := range rows {
		applyColumnClosure(rows[i], req.Mappings, req.TemplateID)
	}
	return rows
}

func hasExtractedValues(mappings []domain.MappingResult) bool {
	for _, m := range mappings {
		if m.ExtractedValue != nil && *m.ExtractedValue != "" {
			return true
		}
	}
	return false
}

// firstArrayPrefix implements SPEC_FULL.md §9's resolution of Open Question
// 2: the driving array pattern is the first array-referencing mapping in
// template column order.
func firstArrayPrefix(mappings []domain.MappingResult) (prefix string, ok bool) {
	for _, m := range mappings {
		if groups := arrayPatternRe.FindStringSubmatch(m.DBFieldName); groups != nil {
			return groups[1], true
		}
	}
	return "", false
}

// arrayIndicesForPrefix finds every distinct index i present in fields under
// `{prefix}[i]`, sorted ascending.
func arrayIndicesForPrefix(fields map[string]domain.ExtractedField, prefix string) []int {
	re := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `\[(\d+)\]`)
	seen := map[int]bool{}
	var indices []int
	for name := range fields {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || seen[idx] {
			continue
		}
		seen[idx] = true
		indices = append(indices, idx)
	}
	for i := 1; i < len(indices); i++ {
		for j := i; j > 0 && indices[j-1] > indices[j]; j-- {
			indices[j-1], indices[j] = indices[j], indices[j-1]
		}
	}
	return indices
}

// buildSingleRow resolves every mapping column into one row. When arrayIdx
// is non-empty, mapping columns under arrayPrefix are re-indexed to that row
// before lookup; other columns resolve once, the same value on every
// expanded row (spec.md §4.9 step 5: "repeating non-array columns").
func buildSingleRow(req Request, fields map[string]domain.ExtractedField, arrayPrefix, arrayIdx string) Row {
	row := Row{}
	for i, m := range req.Mappings {
		if m.IsDefault() {
			if m.DefaultValue != nil {
				row[m.ExcelColumn] = *m.DefaultValue
			} else {
				row[m.ExcelColumn] = ""
			}
			continue
		}

		lookupName := m.DBFieldName
		if arrayPrefix != "" {
			if groups := arrayPatternRe.FindStringSubmatch(m.DBFieldName); groups != nil && groups[1] == arrayPrefix {
				lookupName = arrayPrefix + "[" + arrayIdx + "]"
				if groups[3] != "" {
					lookupName += "." + groups[3]
				}
			}
		}

		value := lookupField(fields, lookupName)

		if i < len(req.Columns) {
			col := req.Columns[i]
			if col.PostProcessType != "" {
				value = postprocess.Apply(postprocess.Type(col.PostProcessType), value, configFromColumn(col))
			}
		}
		if value == "" && m.DefaultValue != nil {
			value = *m.DefaultValue
		}
		row[m.ExcelColumn] = value
	}
	return row
}

// configFromColumn adapts a template column's loosely-typed
// post_process_config map into postprocess.Config.
func configFromColumn(col domain.TemplateColumn) postprocess.Config {
	var cfg postprocess.Config
	if col.PostProcessConfig == nil {
		return cfg
	}
	if sep, ok := col.PostProcessConfig["separator"].(string); ok {
		cfg.Separator = sep
	}
	if format, ok := col.PostProcessConfig["format"].(string); ok {
		cfg.Format = format
	}
	switch v := col.PostProcessConfig["anchor_year"].(type) {
	case float64:
		cfg.AnchorYear = int(v)
	case int:
		cfg.AnchorYear = v
	}
	return cfg
}

// lookupField implements spec.md §4.9 step 4's 4-level fallback:
// exact match -> normalized match -> key-part match (suffix after the last
// `.`) -> suffix-endswith on any field name.
func lookupField(fields map[string]domain.ExtractedField, name string) string {
	if f, ok := fields[name]; ok {
		return f.FieldValue
	}

	normalized := normalizeFieldName(name)
	for fname, f := range fields {
		if normalizeFieldName(fname) == normalized {
			return f.FieldValue
		}
	}

	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		keyPart := name[idx+1:]
		for fname, f := range fields {
			if fname == keyPart {
				return f.FieldValue
			}
		}
		for fname, f := range fields {
			if strings.HasSuffix(fname, "."+keyPart) {
				return f.FieldValue
			}
		}
	}

	for fname, f := range fields {
		if strings.HasSuffix(fname, name) {
			return f.FieldValue
		}
	}

	return ""
}

func normalizeFieldName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// applyColumnClosure implements spec.md §4.9 step 6: when a template is
// supplied, a mapping column's default_value force-overrides whatever the
// row already holds for that column (even an AI-extracted or DB-resolved
// value), applied after all post-processing. Without a template_id there is
// no force-override — step 4 already applied default_value only as a
// fallback for an empty result, and clobbering a resolved value here would
// contradict that. It also guarantees every template column key is present
// in the row.
func applyColumnClosure(row Row, mappings []domain.MappingResult, templateID string) {
	for _, m := range mappings {
		if _, exists := row[m.ExcelColumn]; !exists {
			row[m.ExcelColumn] = ""
		}
		if templateID != "" && m.DefaultValue != nil {
			row[m.ExcelColumn] = *m.DefaultValue
		}
	}
}

// ColumnOrder returns the Excel column header order, matching mapping order
// (spec.md §4.9 step 7: "header row = mapping order").
func ColumnOrder(mappings []domain.MappingResult) []string {
	cols := make([]string, len(mappings))
	for i, m := range mappings {
		cols[i] = m.ExcelColumn
	}
	return cols
}

// Filename implements spec.md §6's `export_{job_id_prefix8}.{csv|xlsx}`
// pattern.
func Filename(jobID string, format Format) string {
	prefix := jobID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "export_" + prefix + "." + string(format)
}
