// Package postprocess implements C10: the enumerated, pure value transforms
// applied by C8/C9 after a field is resolved (spec.md §4.10).
package postprocess

import (
	"strconv"
	"strings"
	"time"
)

// Type names one of the enumerated transforms.
type Type string

const (
	YesNo          Type = "yes_no"
	SplitFirst     Type = "split_first"
	SplitSecond    Type = "split_second"
	CalculateYears Type = "calculate_years"
	DateFormat     Type = "date_format"
	CurrencyFormat Type = "currency_format"
)

// Config carries a transform's parameters (spec.md's `post_process_config`).
// Only the fields relevant to a given Type need to be set.
type Config struct {
	Separator  string // split_first/split_second
	AnchorYear int    // calculate_years
	Format     string // date_format, e.g. "2006-01-02" (Go reference layout)
}

// inputLayouts are the date patterns date_format/calculate_years attempt, in
// order, mirroring spec.md's "reparse a date in any of several input
// patterns."
var inputLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006/01/02",
	"02/01/2006",
}

// Apply runs one transform. Per spec.md §4.10, every transform is pure and
// returns the original value unchanged on any parse/format error — the
// caller logs and moves on, it never propagates an error upward.
func Apply(t Type, value string, cfg Config) string {
	switch t {
	case YesNo:
		return applyYesNo(value)
	case SplitFirst:
		return applySplit(value, cfg.Separator, true)
	case SplitSecond:
		return applySplit(value, cfg.Separator, false)
	case CalculateYears:
		return applyCalculateYears(value, cfg.AnchorYear)
	case DateFormat:
		return applyDateFormat(value, cfg.Format)
	case CurrencyFormat:
		return applyCurrencyFormat(value)
	default:
		return value
	}
}

func applyYesNo(value string) string {
	v := strings.TrimSpace(strings.ToLower(value))
	switch v {
	case "", "0", "false", "no", "n", "f":
		return "N"
	default:
		return "Y"
	}
}

func applySplit(value, separator string, first bool) string {
	if separator == "" {
		return value
	}
	idx := strings.Index(value, separator)
	if idx < 0 {
		return value
	}
	if first {
		return value[:idx]
	}
	return value[idx+len(separator):]
}

func applyCalculateYears(value string, anchorYear int) string {
	t, ok := parseAnyLayout(value)
	if !ok {
		return value
	}
	if anchorYear == 0 {
		anchorYear = time.Now().Year()
	}
	years := anchorYear - t.Year()
	return strconv.Itoa(years)
}

func applyDateFormat(value, format string) string {
	if format == "" {
		return value
	}
	t, ok := parseAnyLayout(value)
	if !ok {
		return value
	}
	return t.Format(format)
}

func parseAnyLayout(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// applyCurrencyFormat strips currency symbols and thousands separators,
// returning a plain numeric string (spec.md §4.10).
func applyCurrencyFormat(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}
	negative := strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")")
	if negative {
		trimmed = strings.Trim(trimmed, "()")
	}

	var b strings.Builder
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == '-':
			b.WriteRune(r)
		}
	}
	numeric := b.String()
	if numeric == "" {
		return value
	}
	if _, err := strconv.ParseFloat(numeric, 64); err != nil {
		return value
	}
	if negative && !strings.HasPrefix(numeric, "-") {
		numeric = "-" + numeric
	}
	return numeric
}
