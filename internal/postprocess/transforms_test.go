package postprocess

import "testing"

func TestApplyYesNo(t *testing.T) {
	cases := map[string]string{
		"true": "Y", "Yes": "Y", "1": "Y", "anything": "Y",
		"false": "N", "": "N", "0": "N", "no": "N",
	}
	for in, want := range cases {
		if got := Apply(YesNo, in, Config{}); got != want {
			t.Errorf("Apply(YesNo, %q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplySplitFirstAndSecond(t *testing.T) {
	cfg := Config{Separator: "/"}
	if got := Apply(SplitFirst, "2024/invoice-99", cfg); got != "2024" {
		t.Errorf("split_first = %q, want 2024", got)
	}
	if got := Apply(SplitSecond, "2024/invoice-99", cfg); got != "invoice-99" {
		t.Errorf("split_second = %q, want invoice-99", got)
	}
}

func TestApplySplitNoSeparatorReturnsOriginal(t *testing.T) {
	if got := Apply(SplitFirst, "nothing-here", Config{Separator: "/"}); got != "nothing-here" {
		t.Errorf("expected original value on missing separator, got %q", got)
	}
}

func TestApplyCalculateYears(t *testing.T) {
	got := Apply(CalculateYears, "2000-01-01", Config{AnchorYear: 2024})
	if got != "24" {
		t.Errorf("calculate_years = %q, want 24", got)
	}
}

func TestApplyCalculateYearsUnparsableReturnsOriginal(t *testing.T) {
	got := Apply(CalculateYears, "not-a-date", Config{AnchorYear: 2024})
	if got != "not-a-date" {
		t.Errorf("expected original value, got %q", got)
	}
}

func TestApplyDateFormat(t *testing.T) {
	got := Apply(DateFormat, "01/15/2024", Config{Format: "2006-01-02"})
	if got != "2024-01-15" {
		t.Errorf("date_format = %q, want 2024-01-15", got)
	}
}

func TestApplyCurrencyFormat(t *testing.T) {
	cases := map[string]string{
		"$1,234.56":  "1234.56",
		"(500.00)":   "-500.00",
		"USD 42":     "42",
		"not-money":  "not-money",
	}
	for in, want := range cases {
		if got := Apply(CurrencyFormat, in, Config{}); got != want {
			t.Errorf("Apply(CurrencyFormat, %q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplyUnknownTypeReturnsOriginal(t *testing.T) {
	if got := Apply(Type("bogus"), "value", Config{}); got != "value" {
		t.Errorf("expected passthrough for unknown type, got %q", got)
	}
}
