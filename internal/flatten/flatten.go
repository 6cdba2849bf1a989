// Package flatten implements C6's flattener half: turning a page's
// hierarchical_data tree into an ordered list of typed ExtractedFields.
//
// Grounded on original_source/backend-bulk/app/services/bulk_insert_service.py
// (the dual-format field normalization and field-order bookkeeping) and on
// spec.md §4.6's explicit rules, which this file follows literally since
// the spec gives concrete constants/semantics rather than leaving them
// ambiguous.
package flatten

import (
	"strconv"
	"strings"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
)

// Flattener walks hierarchical_data trees into ExtractedFields, maintaining
// a field_order counter that is monotonic per document across pages (spec.md
// §4.6: "global monotonic counter across the whole document, not reset per
// page").
type Flattener struct {
	documentID string
	jobID      string
	nextOrder  int
}

// New constructs a flattener for one document. Call Flatten once per page,
// in page order; the counter carries across calls.
func New(documentID, jobID string) *Flattener {
	return &Flattener{documentID: documentID, jobID: jobID}
}

// Flatten walks one page's hierarchical_data tree and appends its fields.
func (f *Flattener) Flatten(page *domain.PageResult) []domain.ExtractedField {
	if page.HierarchicalData == nil {
		return nil
	}
	var fields []domain.ExtractedField
	f.walk(page.HierarchicalData, "", "", page.PageNumber, &fields)
	return fields
}

// walk recurses into node, appending leaves to fields. prefix is the dotted/
// indexed path built so far; group is the top-level key (field_group).
func (f *Flattener) walk(node *domain.Node, prefix, group string, pageNumber int, fields *[]domain.ExtractedField) {
	if node == nil {
		return
	}

	switch node.Kind {
	case domain.KindTyped:
		f.emitTyped(node, prefix, group, pageNumber, fields)

	case domain.KindObject:
		for _, key := range node.Keys {
			if strings.HasPrefix(key, "_") {
				continue // spec.md §4.6: skip keys starting with `_`
			}
			child := node.Fields[key]
			childPrefix := joinPath(prefix, key)
			childGroup := group
			if prefix == "" {
				childGroup = key // depth 0 key becomes field_group for descendants
			}
			f.walk(child, childPrefix, childGroup, pageNumber, fields)
		}

	case domain.KindArray:
		if len(node.Array) == 0 {
			f.emitLeaf(prefix, group, pageNumber, domain.FieldArray, "[]", false, fields)
			return
		}
		for i, elem := range node.Array {
			elemPrefix := indexPath(prefix, i)
			f.walk(elem, elemPrefix, group, pageNumber, fields)
		}

	case domain.KindNull:
		f.emitLeaf(prefix, group, pageNumber, domain.FieldNull, "", true, fields)

	case domain.KindBool:
		f.emitLeaf(prefix, group, pageNumber, domain.FieldBoolean, strconv.FormatBool(node.Bool), false, fields)

	case domain.KindNumber:
		value := node.String
		if value == "" {
			value = strconv.FormatFloat(node.Number, 'f', -1, 64)
		}
		ftype := domain.FieldNumber
		if isIntegerLiteral(value) {
			ftype = domain.FieldInteger
		}
		f.emitLeaf(prefix, group, pageNumber, ftype, value, false, fields)

	case domain.KindString:
		f.emitLeaf(prefix, group, pageNumber, domain.FieldText, node.String, false, fields)
	}
}

// emitTyped handles the `{_type, value}` wrapper idiom (spec.md §4.6),
// including the `_type == "table"` row-expansion case: each row of a table
// value is emitted as `{prefix}[i].{column}` of type table_cell.
func (f *Flattener) emitTyped(node *domain.Node, prefix, group string, pageNumber int, fields *[]domain.ExtractedField) {
	if node.TypedName == "table" && node.TypedValue != nil && node.TypedValue.Kind == domain.KindArray {
		for i, row := range node.TypedValue.Array {
			rowPrefix := indexPath(prefix, i)
			if row == nil || row.Kind != domain.KindObject {
				continue
			}
			for _, col := range row.Keys {
				if strings.HasPrefix(col, "_") {
					continue
				}
				cellPrefix := joinPath(rowPrefix, col)
				f.walkTableCell(row.Fields[col], cellPrefix, group, pageNumber, fields)
			}
		}
		return
	}
	f.walk(node.TypedValue, prefix, group, pageNumber, fields)
}

// walkTableCell is like walk but forces leaves to table_cell type, matching
// spec.md §4.6's table row-expansion.
func (f *Flattener) walkTableCell(node *domain.Node, prefix, group string, pageNumber int, fields *[]domain.ExtractedField) {
	if node == nil {
		f.emitLeaf(prefix, group, pageNumber, domain.FieldTableCell, "", true, fields)
		return
	}
	switch node.Kind {
	case domain.KindObject, domain.KindArray, domain.KindTyped:
		f.walk(node, prefix, group, pageNumber, fields)
	default:
		value := leafStringValue(node)
		f.emitLeaf(prefix, group, pageNumber, domain.FieldTableCell, value, node.Kind == domain.KindNull, fields)
	}
}

func leafStringValue(node *domain.Node) string {
	switch node.Kind {
	case domain.KindBool:
		return strconv.FormatBool(node.Bool)
	case domain.KindNumber:
		if node.String != "" {
			return node.String
		}
		return strconv.FormatFloat(node.Number, 'f', -1, 64)
	case domain.KindString:
		return node.String
	default:
		return ""
	}
}

func (f *Flattener) emitLeaf(path, group string, pageNumber int, ftype domain.FieldType, value string, isNull bool, fields *[]domain.ExtractedField) {
	order := f.nextOrder
	f.nextOrder++

	*fields = append(*fields, domain.ExtractedField{
		DocumentID: f.documentID,
		JobID:      f.jobID,
		FieldName:  path,
		FieldLabel: Label(path),
		FieldType:  ftype,
		FieldValue: value,
		IsNull:     isNull,
		FieldGroup: group,
		PageNumber: pageNumber,
		FieldOrder: order,
	})
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func indexPath(prefix string, i int) string {
	return prefix + "[" + strconv.Itoa(i) + "]"
}

func isIntegerLiteral(s string) bool {
	if s == "" {
		return false
	}
	if !strings.Contains(s, ".") && !strings.ContainsAny(s, "eE") {
		return true
	}
	return false
}

// Label renders a field path into a human-readable label (spec.md §4.6:
// "title-cased, space-and->-delimited rendering of the path").
func Label(path string) string {
	segments := strings.Split(path, ".")
	labeled := make([]string, 0, len(segments))
	for _, seg := range segments {
		name := seg
		if idx := strings.IndexByte(seg, '['); idx >= 0 {
			name = seg[:idx]
		}
		if name == "" {
			continue
		}
		labeled = append(labeled, titleCase(strings.ReplaceAll(name, "_", " ")))
	}
	return strings.Join(labeled, " > ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
