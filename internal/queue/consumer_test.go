package queue

import (
	"encoding/json"
	"testing"

	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/llm"
	"github.com/SHRUTI-SHAR/docflow-extraction-engine/internal/source"
)

func TestJobDataRoundTripsThroughJSON(t *testing.T) {
	original := JobData{
		DocumentID:     "doc-1",
		JobID:          "job-1",
		ExtractionTask: llm.TaskWithoutTemplateExtraction,
		DocumentType:   "invoice",
		SourceAdapter:  source.NameFolder,
		SourcePath:     "/tmp/inbox/doc-1.pdf",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded JobData
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded != original {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestNewConsumerRequiresCoreFields(t *testing.T) {
	if _, err := NewConsumer(&ConsumerConfig{}); err == nil {
		t.Error("expected error for missing RedisURL/QueueName/Processor")
	}
	if _, err := NewConsumer(&ConsumerConfig{RedisURL: "redis://127.0.0.1:6379"}); err == nil {
		t.Error("expected error for missing QueueName")
	}
}
