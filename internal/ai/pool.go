package ai

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// WrapPool bounds the number of in-flight backend calls to workers and applies
// timeout to each call when it is positive.
func WrapPool(e IEmbedder, workers int, timeout time.Duration) IEmbedder {
	if e == nil || workers <= 0 {
		return e
	}
	return &poolEmbedder{
		next:    e,
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
	}
}

type poolEmbedder struct {
	next    IEmbedder
	sem     *semaphore.Weighted
	timeout time.Duration
}

func (p *poolEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.next.Embed(ctx, texts)
}

func (p *poolEmbedder) ModelName() string {
	return p.next.ModelName()
}
