// Package embed declares the contract for the embedding model, an
// external collaborator that maps opaque input data to a
// fixed-dimension vector. The engine does not implement vectorization
// itself; it calls this interface and validates the result's dimension
// against its configured vector size.
package embed

import (
	"context"
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned by Validate when an embedder's output
// does not match the configured dimension.
var ErrDimensionMismatch = errors.New("embed: vector dimension mismatch")

// Embedder maps data to a fixed-dimension float32 vector. Implementations
// are supplied by the caller at construction time; the engine treats
// vectorization failures as a typed, non-retryable error unless the
// caller's implementation itself signals a transient condition.
type Embedder interface {
	Embed(ctx context.Context, data any) ([]float32, error)
}

// Func adapts a plain function to the Embedder interface.
type Func func(ctx context.Context, data any) ([]float32, error)

func (f Func) Embed(ctx context.Context, data any) ([]float32, error) { return f(ctx, data) }

// Validate checks vec against the configured dimension, the
// construction-time probe the engine runs once against an embedder
// before trusting its output on the write path.
func Validate(vec []float32, dimension int) error {
	if len(vec) != dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), dimension)
	}
	return nil
}

// Probe calls embedder once with a representative input and validates
// the resulting dimension, surfacing a configuration error at
// construction time rather than on the first real write.
func Probe(ctx context.Context, embedder Embedder, sample any, dimension int) error {
	vec, err := embedder.Embed(ctx, sample)
	if err != nil {
		return fmt.Errorf("embed: probe failed: %w", err)
	}
	return Validate(vec, dimension)
}
