// File path: internal/llm/providers/provider.go
package providers

import "context"

// Message is one chat turn sent to a generation backend.
type Message struct {
	Role    string
	Content string
}

// Request describes one generation call: the conversation to send and the
// required top-level key of the JSON object the model must answer with.
type Request struct {
	Messages []Message
	Shape    string
}

// FragmentStream yields the raw text fragments of one generation call. The
// sequence is finite and not restartable; Err must be checked after Next
// returns false.
type FragmentStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Provider abstracts the external text-generation service. Implementations
// must be safe for concurrent use; the pipeline fans out calls across
// goroutines.
type Provider interface {
	Stream(ctx context.Context, req Request) (FragmentStream, error)
	Name() string
}
