package worker

import (
	"testing"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/pipeline"
)

func TestRollupStatusAllPagesDoneIsCompleted(t *testing.T) {
	r := &pipeline.RunResult{PagesProcessed: 3, PagesFailed: 0}
	if got := rollupStatus(r); got != domain.DocumentCompleted {
		t.Errorf("expected completed, got %s", got)
	}
}

func TestRollupStatusPartialFailureIsNeedsReview(t *testing.T) {
	r := &pipeline.RunResult{PagesProcessed: 2, PagesFailed: 1}
	if got := rollupStatus(r); got != domain.DocumentNeedsReview {
		t.Errorf("expected needs_review, got %s", got)
	}
}

func TestRollupStatusAllFailedIsFailed(t *testing.T) {
	r := &pipeline.RunResult{PagesProcessed: 0, PagesFailed: 3}
	if got := rollupStatus(r); got != domain.DocumentFailed {
		t.Errorf("expected failed, got %s", got)
	}
}

// TestRollupStatusCancelledPagesIsNeedsReview covers S6: a token cancels the
// run mid-document, pages 4-10 are recorded as cancelled rather than failed,
// and the document must still land on needs_review, not completed.
func TestRollupStatusCancelledPagesIsNeedsReview(t *testing.T) {
	r := &pipeline.RunResult{PagesProcessed: 3, PagesFailed: 0, PagesCancelled: 7}
	if got := rollupStatus(r); got != domain.DocumentNeedsReview {
		t.Errorf("expected needs_review, got %s", got)
	}
}
