// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
)

// LocalProvider is an offline stub used when no API key is configured. It
// answers every request with an empty but well-formed object of the requested
// shape, which keeps the binary runnable without external credentials.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Stream(ctx context.Context, req Request) (FragmentStream, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	body := fmt.Sprintf("{%q: []}", req.Shape)
	if req.Shape == "summary" {
		body = `{"summary": {"considerations": []}}`
	}
	return &scriptedStream{fragments: []string{body}}, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}

type scriptedStream struct {
	fragments []string
	pos       int
	current   string
}

func (s *scriptedStream) Next() bool {
	if s.pos >= len(s.fragments) {
		return false
	}
	s.current = s.fragments[s.pos]
	s.pos++
	return true
}

func (s *scriptedStream) Current() string { return s.current }
func (s *scriptedStream) Err() error      { return nil }
func (s *scriptedStream) Close() error    { return nil }
