// File path: internal/pipeline/runner_test.go
package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mjharlow/reglens/internal/compliance"
)

func TestFanoutPreservesSubmissionOrder(t *testing.T) {
	// Later units finish first; the merged stream must still follow
	// submission order.
	worker := func(ctx context.Context, index int) ([]compliance.Event, int, bool) {
		time.Sleep(time.Duration(5-index) * 10 * time.Millisecond)
		events := []compliance.Event{
			{Type: compliance.EventArticle, Content: fmt.Sprintf("unit-%d-a", index)},
			{Type: compliance.EventArticle, Content: fmt.Sprintf("unit-%d-b", index)},
		}
		return events, index, true
	}
	events, results, err := runFanout(context.Background(), 5, 3, worker)
	if err != nil {
		t.Fatalf("fanout failed: %v", err)
	}
	if len(events) != 10 {
		t.Fatalf("expected 10 events, got %d", len(events))
	}
	for i, event := range events {
		want := fmt.Sprintf("unit-%d-%c", i/2, 'a'+byte(i%2))
		if event.Content != want {
			t.Fatalf("event %d out of order: got %v, want %q", i, event.Content, want)
		}
	}
	for i, result := range results {
		if result != i {
			t.Fatalf("result %d out of order: got %d", i, result)
		}
	}
}

func TestFanoutIsolatesFailures(t *testing.T) {
	worker := func(ctx context.Context, index int) ([]compliance.Event, string, bool) {
		if index == 1 {
			return []compliance.Event{compliance.ErrorEvent("unit 1 failed")}, "", false
		}
		return []compliance.Event{{Type: compliance.EventCitation, Content: fmt.Sprintf("unit-%d", index)}}, fmt.Sprintf("result-%d", index), true
	}
	events, results, err := runFanout(context.Background(), 3, 2, worker)
	if err != nil {
		t.Fatalf("fanout failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].Type != compliance.EventError {
		t.Fatalf("expected error event in position 1, got %v", events[1].Type)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results from surviving units, got %d", len(results))
	}
	if results[0] != "result-0" || results[1] != "result-2" {
		t.Fatalf("unexpected surviving results: %v", results)
	}
}

func TestFanoutCancellationReleasesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	worker := func(ctx context.Context, index int) ([]compliance.Event, int, bool) {
		if index == 0 {
			cancel()
		}
		return []compliance.Event{{Type: compliance.EventArticle, Content: index}}, index, true
	}
	events, results, err := runFanout(ctx, 4, 1, worker)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if len(events) != 0 || len(results) != 0 {
		t.Fatalf("expected nothing released after cancel, got %d events, %d results", len(events), len(results))
	}
}

func TestFanoutZeroUnits(t *testing.T) {
	worker := func(ctx context.Context, index int) ([]compliance.Event, int, bool) {
		t.Fatal("worker must not run for zero units")
		return nil, 0, false
	}
	events, results, err := runFanout(context.Background(), 0, 4, worker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 || len(results) != 0 {
		t.Fatal("expected empty output for zero units")
	}
}
