// File path: internal/generate/client.go

// Package generate wraps one external generation call: it drains the
// provider's fragment stream, concatenates the output, and validates the
// concatenation as a JSON object carrying the stage's required top-level key.
// Validation happens at this boundary so downstream consumers only ever see
// well-formed payloads or an explicit typed failure.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mjharlow/reglens/internal/common"
	"github.com/mjharlow/reglens/internal/llm/providers"
)

var (
	// ErrEmptyOutput indicates the generation service yielded no fragments.
	ErrEmptyOutput = errors.New("generation returned no output")
	// ErrMalformedOutput indicates the concatenated output did not parse as a
	// JSON object with the expected top-level key.
	ErrMalformedOutput = errors.New("generation returned malformed output")
)

const defaultTimeout = 120 * time.Second

// Result carries the raw model text (forwarded to callers verbatim) and the
// validated payload found under the request's shape key.
type Result struct {
	Raw     string
	Payload json.RawMessage
}

// Client performs validated generation calls against a provider.
type Client struct {
	provider providers.Provider
	timeout  time.Duration
}

type Option func(*Client)

// WithTimeout bounds each individual generation call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewClient(provider providers.Provider, opts ...Option) *Client {
	c := &Client{provider: provider, timeout: defaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Generate submits the request, collects all output fragments, and validates
// the result. It never mutates shared state; a failed call is reported
// through the returned error only.
func (c *Client) Generate(ctx context.Context, req providers.Request) (*Result, error) {
	if c.provider == nil {
		return nil, fmt.Errorf("no provider configured")
	}
	logger := common.Logger()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.provider.Stream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("open generation stream: %w", err)
	}
	defer stream.Close()

	var builder strings.Builder
	fragments := 0
	for stream.Next() {
		builder.WriteString(stream.Current())
		fragments++
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("collect generation output: %w", err)
	}
	if fragments == 0 || strings.TrimSpace(builder.String()) == "" {
		logger.Error("generate: no content received", "shape", req.Shape, "provider", c.provider.Name())
		return nil, ErrEmptyOutput
	}

	raw := builder.String()
	var object map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &object); err != nil {
		logger.Error("generate: invalid JSON received", "shape", req.Shape, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	payload, ok := object[req.Shape]
	if !ok {
		logger.Error("generate: response missing required key", "shape", req.Shape)
		return nil, fmt.Errorf("%w: missing %q key", ErrMalformedOutput, req.Shape)
	}
	logger.Debug("generate: response validated", "shape", req.Shape, "fragments", fragments, "bytes", len(raw))
	return &Result{Raw: raw, Payload: payload}, nil
}
