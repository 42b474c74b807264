package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/embedserver/internal/embedding"
	"github.com/xxxsen/embedserver/internal/model"
	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
	"github.com/xxxsen/embedserver/internal/registry"
	"github.com/xxxsen/embedserver/internal/state"
)

// GenerateInput is one embedding request. ChunkSize and ChunkOverlap override
// the configured defaults when set.
type GenerateInput struct {
	Data         []model.EmbeddingRequestUnit
	ChunkSize    *int
	ChunkOverlap *int
}

type EmbedService struct {
	registry *registry.Registry
	slot     *state.Slot
	pipeline *embedding.Pipeline
	chunk    embedding.ChunkOptions
}

func NewEmbedService(reg *registry.Registry, slot *state.Slot, pipeline *embedding.Pipeline, chunk embedding.ChunkOptions) *EmbedService {
	return &EmbedService{
		registry: reg,
		slot:     slot,
		pipeline: pipeline,
		chunk:    chunk,
	}
}

func (s *EmbedService) Generate(ctx context.Context, in GenerateInput) (*model.EmbeddingResponse, error) {
	active, _ := s.slot.Current()
	opts := s.chunk
	if in.ChunkSize != nil {
		opts.Size = *in.ChunkSize
		if in.ChunkOverlap == nil && opts.Overlap >= opts.Size {
			opts.Overlap = 0
		}
	}
	if in.ChunkOverlap != nil {
		opts.Overlap = *in.ChunkOverlap
	}
	resp, err := s.pipeline.EmbedDocuments(ctx, active.Embedder, active.Descriptor, in.Data, opts)
	if err != nil {
		logutil.GetLogger(ctx).Error("embed documents failed",
			zap.String("model", active.Descriptor.Name),
			zap.Int("documents", len(in.Data)),
			zap.Error(err),
		)
		return nil, err
	}
	return resp, nil
}

// ModelInfo describes the active model, or the catalog model called name.
func (s *EmbedService) ModelInfo(name string) (model.ModelDescriptor, error) {
	if name != "" {
		return s.registry.Resolve(name)
	}
	active, ok := s.slot.Current()
	if !ok {
		return model.ModelDescriptor{}, fmt.Errorf("%w: no active model", appErr.ErrModelNotFound)
	}
	return active.Descriptor, nil
}

func (s *EmbedService) AvailableModels() []model.ModelDescriptor {
	return s.registry.List()
}

func (s *EmbedService) SetModel(ctx context.Context, name string) (model.ModelDescriptor, error) {
	if name == "" {
		return model.ModelDescriptor{}, fmt.Errorf("%w: model name is required", appErr.ErrInvalid)
	}
	return s.slot.SetAndReload(ctx, name)
}

func (s *EmbedService) Ready() error {
	if _, ok := s.slot.Current(); !ok {
		return fmt.Errorf("%w: no active model", appErr.ErrModelNotFound)
	}
	return nil
}
