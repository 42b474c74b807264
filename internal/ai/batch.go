package ai

import (
	"context"
	"fmt"

	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

// embedInBatches splits texts into slices of at most size and concatenates the
// results of fn in order. A backend returning a short slice is an error.
func embedInBatches(ctx context.Context, texts []string, size int, fn func(ctx context.Context, part []string) ([][]float32, error)) ([][]float32, error) {
	if size <= 0 || size > len(texts) {
		size = len(texts)
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		part := texts[start:end]
		res, err := fn(ctx, part)
		if err != nil {
			return nil, err
		}
		if len(res) != len(part) {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", appErr.ErrChunkCountMismatch, len(part), len(res))
		}
		out = append(out, res...)
	}
	return out, nil
}
