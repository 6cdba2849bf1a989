package queue

import "testing"

func TestStatusTrackerKeyNamespacesByQueue(t *testing.T) {
	tr := &StatusTracker{queueName: "document-processing"}
	if got := tr.key("processing"); got != "document-processing:processing" {
		t.Errorf("unexpected key: %s", got)
	}
	if got := tr.key("completed"); got != "document-processing:completed" {
		t.Errorf("unexpected key: %s", got)
	}
}
