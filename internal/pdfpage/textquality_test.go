package pdfpage

import "testing"

func TestComputeTextQualitySelectableMatchesThreshold(t *testing.T) {
	data := &TextData{
		Text:       "Invoice Number INV-001 Customer ACME Total Due 123.45 Payment Terms Net 30",
		TextBlocks: make([]TextBlock, 12),
	}
	q := ComputeTextQuality(data)
	if q.IsSelectable != (q.Confidence >= selectableThreshold) {
		t.Fatalf("is_selectable (%v) must equal confidence >= %.2f, got confidence %.2f", q.IsSelectable, selectableThreshold, q.Confidence)
	}
	if !q.IsSelectable {
		t.Errorf("expected dense, well-structured text to be selectable, confidence=%.2f", q.Confidence)
	}
}

func TestComputeTextQualityEmptyTextIsNotSelectable(t *testing.T) {
	q := ComputeTextQuality(&TextData{})
	if q.IsSelectable {
		t.Errorf("empty text should never be selectable, confidence=%.2f", q.Confidence)
	}
	if q.Confidence != 0 {
		t.Errorf("empty text should score 0 confidence, got %.2f", q.Confidence)
	}
}

func TestComputeTextQualityImageDominatedPageScoresLower(t *testing.T) {
	textHeavy := ComputeTextQuality(&TextData{
		Text:       "a sample paragraph of body text here",
		TextBlocks: make([]TextBlock, 10),
	})
	imageHeavy := ComputeTextQuality(&TextData{
		Text:        "a sample paragraph of body text here",
		TextBlocks:  make([]TextBlock, 2),
		ImageBlocks: make([]TextBlock, 18),
	})
	if imageHeavy.Confidence >= textHeavy.Confidence {
		t.Errorf("page dominated by image blocks should score lower: text-heavy=%.2f image-heavy=%.2f", textHeavy.Confidence, imageHeavy.Confidence)
	}
}

func TestComputeTextQualityRatioOutsideAcceptableRangeScoresLower(t *testing.T) {
	// a huge run-on "word" (ratio near 0) should score lower than natural text.
	natural := ComputeTextQuality(&TextData{Text: "the quick brown fox jumps over the lazy dog today"})
	garbled := ComputeTextQuality(&TextData{Text: "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"})
	if garbled.Confidence >= natural.Confidence {
		t.Errorf("garbled single-word text should score lower than natural text: natural=%.2f garbled=%.2f", natural.Confidence, garbled.Confidence)
	}
}

func TestComputeTextQualityConfidenceNeverExceedsOne(t *testing.T) {
	data := &TextData{
		Text:       "word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word word",
		TextBlocks: make([]TextBlock, 50),
	}
	q := ComputeTextQuality(data)
	if q.Confidence > 1.0 {
		t.Errorf("confidence must be capped at 1.0, got %.2f", q.Confidence)
	}
}
