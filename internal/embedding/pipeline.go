package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/embedserver/internal/ai"
	"github.com/xxxsen/embedserver/internal/model"
	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

// Observer receives one record per EmbedDocuments call.
type Observer interface {
	ObserveEmbed(ctx context.Context, modelName string, documents, chunks int, elapsed time.Duration, err error)
}

type Pipeline struct {
	observer Observer
	now      func() time.Time
}

type PipelineOption func(p *Pipeline)

func WithObserver(o Observer) PipelineOption {
	return func(p *Pipeline) {
		p.observer = o
	}
}

func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EmbedDocuments chunks every request, runs a single inference call over all
// chunks and maps the vectors back to the request ids. desc names the model in
// the response; a positive desc.Dimension is enforced on every vector.
func (p *Pipeline) EmbedDocuments(ctx context.Context, embedder ai.IEmbedder, desc model.ModelDescriptor, requests []model.EmbeddingRequestUnit, opts ChunkOptions) (*model.EmbeddingResponse, error) {
	modelName := desc.Name
	if len(requests) == 0 {
		return &model.EmbeddingResponse{
			Model:      modelName,
			Embeddings: []model.EmbeddingResponseUnit{},
		}, nil
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: no active model", appErr.ErrModelNotFound)
	}
	dimension := desc.Dimension
	start := p.now()
	resp, chunks, err := p.run(ctx, embedder, dimension, requests, opts)
	elapsed := p.now().Sub(start)
	if p.observer != nil {
		p.observer.ObserveEmbed(ctx, modelName, len(requests), chunks, elapsed, err)
	}
	if err != nil {
		return nil, err
	}
	resp.Model = modelName
	resp.TotalTimeMs = elapsed.Milliseconds()
	resp.TimePerDocumentMs = resp.TotalTimeMs / int64(resp.NumberOfDocuments)
	logutil.GetLogger(ctx).Debug("embedded documents",
		zap.String("model", modelName),
		zap.Int("documents", resp.NumberOfDocuments),
		zap.Int("chunks", resp.NumberOfChunks),
		zap.Duration("elapsed", elapsed),
	)
	return resp, nil
}

func (p *Pipeline) run(ctx context.Context, embedder ai.IEmbedder, dimension int, requests []model.EmbeddingRequestUnit, opts ChunkOptions) (*model.EmbeddingResponse, int, error) {
	batch, err := BuildBatch(requests, opts)
	if err != nil {
		return nil, 0, err
	}
	var vectors [][]float32
	if len(batch.Texts) > 0 {
		vectors, err = embedder.Embed(ctx, batch.Texts)
		if err != nil {
			if errors.Is(err, appErr.ErrChunkCountMismatch) {
				return nil, len(batch.Texts), err
			}
			return nil, len(batch.Texts), fmt.Errorf("%w: %w", appErr.ErrInference, err)
		}
	}
	if dimension > 0 {
		for i, vec := range vectors {
			if len(vec) != dimension {
				return nil, len(batch.Texts), fmt.Errorf("%w: vector %d has %d values, model declares %d",
					appErr.ErrDimensionMismatch, i, len(vec), dimension)
			}
		}
	}
	units, err := Reassemble(vectors, batch.Groups)
	if err != nil {
		return nil, len(batch.Texts), err
	}
	return &model.EmbeddingResponse{
		NumberOfDocuments:   len(requests),
		NumberOfChunkGroups: len(units),
		NumberOfChunks:      len(vectors),
		Embeddings:          units,
	}, len(batch.Texts), nil
}
