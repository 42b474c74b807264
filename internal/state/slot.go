package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/embedserver/internal/ai"
	"github.com/xxxsen/embedserver/internal/model"
	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
	"github.com/xxxsen/embedserver/internal/registry"
)

// Describer resolves the descriptor of a source.
type Describer interface {
	Describe(src registry.Source) (model.ModelDescriptor, error)
}

// ModelLoader builds a runnable embedder for a source.
type ModelLoader interface {
	Load(ctx context.Context, src registry.Source) (ai.IEmbedder, error)
}

// Active is a consistent view of the active model.
type Active struct {
	Source     registry.Source
	Descriptor model.ModelDescriptor
	Embedder   ai.IEmbedder
}

type ReloadHook func(ctx context.Context, prev, next Active)

// Slot owns the active model. The source, descriptor and embedder are always
// replaced together.
type Slot struct {
	describer Describer
	loader    ModelLoader
	onReload  ReloadHook

	mu     sync.RWMutex
	active Active
	loaded bool
}

type Option func(s *Slot)

func WithReloadHook(h ReloadHook) Option {
	return func(s *Slot) {
		s.onReload = h
	}
}

func NewSlot(describer Describer, loader ModelLoader, opts ...Option) *Slot {
	s := &Slot{describer: describer, loader: loader}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns a snapshot; ok is false until the first successful load.
func (s *Slot) Current() (Active, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.loaded
}

// SetAndReload loads a catalog model by name and makes it active.
func (s *Slot) SetAndReload(ctx context.Context, name string) (model.ModelDescriptor, error) {
	return s.Reload(ctx, registry.CatalogSource{Name: name})
}

// Reload describes and loads src without holding the lock, then swaps it in.
// On any failure the current model stays active. With concurrent reloads the
// last one to finish wins.
func (s *Slot) Reload(ctx context.Context, src registry.Source) (model.ModelDescriptor, error) {
	if src == nil {
		return model.ModelDescriptor{}, fmt.Errorf("%w: model source is required", appErr.ErrInvalid)
	}
	desc, err := s.describer.Describe(src)
	if err != nil {
		return model.ModelDescriptor{}, err
	}
	embedder, err := s.loader.Load(ctx, src)
	if err != nil {
		return model.ModelDescriptor{}, err
	}
	next := Active{Source: src, Descriptor: desc, Embedder: embedder}

	s.mu.Lock()
	prev := s.active
	s.active = next
	s.loaded = true
	s.mu.Unlock()

	logutil.GetLogger(ctx).Info("active model switched",
		zap.String("from", prev.Descriptor.Name),
		zap.String("to", desc.Name),
	)
	if s.onReload != nil {
		s.onReload(ctx, prev, next)
	}
	return desc, nil
}
