// File path: internal/llm/providers/local_test.go
package providers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func drain(t *testing.T, stream FragmentStream) string {
	t.Helper()
	var builder strings.Builder
	for stream.Next() {
		builder.WriteString(stream.Current())
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return builder.String()
}

func TestLocalProviderEmitsShapedObject(t *testing.T) {
	provider := NewLocalProvider()
	for _, shape := range []string{"regulations", "articles", "citations"} {
		stream, err := provider.Stream(context.Background(), Request{
			Shape:    shape,
			Messages: []Message{{Role: "user", Content: "hello"}},
		})
		if err != nil {
			t.Fatalf("stream %s: %v", shape, err)
		}
		raw := drain(t, stream)
		var object map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &object); err != nil {
			t.Fatalf("output for %s is not JSON: %v", shape, err)
		}
		if _, ok := object[shape]; !ok {
			t.Fatalf("output for %s missing its key: %s", shape, raw)
		}
	}
}

func TestLocalProviderSummaryShape(t *testing.T) {
	provider := NewLocalProvider()
	stream, err := provider.Stream(context.Background(), Request{
		Shape:    "summary",
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	raw := drain(t, stream)
	var payload struct {
		Summary struct {
			Considerations []json.RawMessage `json:"considerations"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("summary output not parseable: %v", err)
	}
}

func TestLocalProviderRequiresMessages(t *testing.T) {
	provider := NewLocalProvider()
	if _, err := provider.Stream(context.Background(), Request{Shape: "regulations"}); err == nil {
		t.Fatal("expected error without messages")
	}
}
