// Package nl2sql turns natural-language questions into SQL through an
// external generation backend.
package nl2sql

import (
	"context"
	"time"
)

// Output is the raw result of one backend invocation. Latency is populated
// even when the invocation fails so the attempt can still be logged.
type Output struct {
	Text    string
	Model   string
	Latency time.Duration
}

type Generator interface {
	Generate(ctx context.Context, model, prompt string) (Output, error)
}
