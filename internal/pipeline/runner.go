// File path: internal/pipeline/runner.go
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mjharlow/reglens/internal/compliance"
)

// Worker produces the events and typed result of one fan-out unit. A failed
// unit reports ok=false and includes its own error event among the returned
// events; it must never panic the stage.
type Worker[T any] func(ctx context.Context, index int) (events []compliance.Event, result T, ok bool)

// runFanout executes units concurrently, bounded by limit, and releases
// nothing until the whole set has finished. Events are merged in submission
// order, unit 0 fully, then unit 1, regardless of completion order, so the
// output stream is deterministic for a fixed input. Results come from
// successful units only, also in submission order; a failed unit contributes
// its error events and nothing else. A cancelled context aborts the merge
// entirely: no events are released after cancellation is observed.
func runFanout[T any](ctx context.Context, units, limit int, worker Worker[T]) ([]compliance.Event, []T, error) {
	if units == 0 {
		return nil, nil, ctx.Err()
	}
	if limit <= 0 {
		limit = units
	}
	type outcome struct {
		events []compliance.Event
		result T
		ok     bool
	}
	outcomes := make([]outcome, units)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i := 0; i < units; i++ {
		i := i
		group.Go(func() error {
			events, result, ok := worker(groupCtx, i)
			outcomes[i] = outcome{events: events, result: result, ok: ok}
			return nil
		})
	}
	// Workers never return errors, so Wait is purely the stage barrier.
	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var events []compliance.Event
	var results []T
	for _, out := range outcomes {
		events = append(events, out.events...)
		if out.ok {
			results = append(results, out.result)
		}
	}
	return events, results, nil
}
