package pipeline

import (
	"errors"
	"testing"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/domain"
	pkgerrors "github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/errors"
)

func TestAllPagesIsOneBasedSequential(t *testing.T) {
	got := allPages(3)
	want := []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allPages(3) = %v, want %v", got, want)
		}
	}
}

func TestTableHeadersExtractsStringArray(t *testing.T) {
	node := domain.NewObject()
	node.Set("_table_headers", &domain.Node{Kind: domain.KindArray, Array: []*domain.Node{
		{Kind: domain.KindString, String: "Date"},
		{Kind: domain.KindString, String: "Amount"},
	}})

	got := tableHeaders(node)
	if len(got) != 2 || got[0] != "Date" || got[1] != "Amount" {
		t.Errorf("tableHeaders = %v", got)
	}
}

func TestTableHeadersMissingReturnsNil(t *testing.T) {
	if got := tableHeaders(domain.NewObject()); got != nil {
		t.Errorf("expected nil for missing _table_headers, got %v", got)
	}
}

func TestHasDetectionHintBareBoolTrue(t *testing.T) {
	node := domain.NewObject()
	node.Set("has_signature", &domain.Node{Kind: domain.KindBool, Bool: true})

	if !hasDetectionHint(node, "has_signature") {
		t.Error("expected true for bare bool has_signature=true")
	}
}

func TestHasDetectionHintTypedWrapperTrue(t *testing.T) {
	node := domain.NewObject()
	node.Set("has_photo_id", &domain.Node{
		Kind:      domain.KindTyped,
		TypedName: "bool",
		TypedValue: &domain.Node{Kind: domain.KindBool, Bool: true},
	})

	if !hasDetectionHint(node, "has_photo_id") {
		t.Error("expected true for typed-wrapper has_photo_id=true")
	}
}

func TestHasDetectionHintFalseWhenAbsent(t *testing.T) {
	if hasDetectionHint(domain.NewObject(), "has_signature") {
		t.Error("expected false for missing has_signature field")
	}
}

func TestHasDetectionHintFalseWhenFalse(t *testing.T) {
	node := domain.NewObject()
	node.Set("has_signature", &domain.Node{Kind: domain.KindBool, Bool: false})

	if hasDetectionHint(node, "has_signature") {
		t.Error("expected false for has_signature=false")
	}
}

func TestWithRetryRetriesRetryableErrorsUpToBudget(t *testing.T) {
	attempts := 0
	_, retries, err := withRetry(2, func() (int, error) {
		attempts++
		return 0, pkgerrors.NewTransportError("doc", errors.New("boom"))
	})
	if attempts != 3 {
		t.Errorf("expected 1 initial + 2 retries = 3 attempts, got %d", attempts)
	}
	if retries != 2 {
		t.Errorf("retries = %d, want 2", retries)
	}
	if err == nil {
		t.Errorf("expected error to surface after exhausting retry budget")
	}
}

func TestWithRetryStopsImmediatelyOnNonRetryableError(t *testing.T) {
	attempts := 0
	_, _, err := withRetry(3, func() (int, error) {
		attempts++
		return 0, pkgerrors.NewProviderError("doc", 500, "server error")
	})
	if attempts != 1 {
		t.Errorf("non-retryable error should not be retried, got %d attempts", attempts)
	}
	if err == nil {
		t.Errorf("expected error to surface")
	}
}

func TestWithRetrySucceedsWithoutExhaustingBudget(t *testing.T) {
	attempts := 0
	v, retries, err := withRetry(5, func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", pkgerrors.NewTransportError("doc", errors.New("transient"))
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" || retries != 1 {
		t.Errorf("v=%q retries=%d, want ok/1", v, retries)
	}
}

func TestCancelTokenSetOnce(t *testing.T) {
	token := NewCancelToken()
	if token.Cancelled() {
		t.Fatal("new token should not be cancelled")
	}
	token.Cancel()
	token.Cancel()
	if !token.Cancelled() {
		t.Fatal("token should report cancelled after Cancel()")
	}
}
