package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/embedserver/internal/ai"
	"github.com/xxxsen/embedserver/internal/artifact"
	"github.com/xxxsen/embedserver/internal/config"
	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

const warmupText = "warm up"

type Wrapper func(e ai.IEmbedder) ai.IEmbedder

type LoaderOption func(l *Loader)

func WithBackends(backends map[string]config.BackendConfig) LoaderOption {
	return func(l *Loader) {
		l.backends = backends
	}
}

func WithArtifactStore(s *artifact.Store) LoaderOption {
	return func(l *Loader) {
		l.artifacts = s
	}
}

// WithVerify probes the backend once per load and checks the returned
// dimension against the descriptor.
func WithVerify(v bool) LoaderOption {
	return func(l *Loader) {
		l.verify = v
	}
}

// WithWrapper adds a decorator applied to every loaded embedder. Wrappers run
// in the order they are added, so the last one is outermost.
func WithWrapper(w Wrapper) LoaderOption {
	return func(l *Loader) {
		if w != nil {
			l.wrappers = append(l.wrappers, w)
		}
	}
}

// Loader turns a model source into a runnable embedder.
type Loader struct {
	registry  *Registry
	backends  map[string]config.BackendConfig
	artifacts *artifact.Store
	verify    bool
	wrappers  []Wrapper

	mu        sync.Mutex
	providers map[string]ai.IEmbedProvider
}

func NewLoader(reg *Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		registry:  reg,
		providers: make(map[string]ai.IEmbedProvider),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) Load(ctx context.Context, src Source) (ai.IEmbedder, error) {
	desc, err := l.registry.Describe(src)
	if err != nil {
		return nil, err
	}
	var backend, remote string
	switch s := src.(type) {
	case CatalogSource:
		entry, err := l.registry.Entry(s.Name)
		if err != nil {
			return nil, err
		}
		backend, remote = entry.Backend, entry.remoteModel()
	case CustomSource:
		def := s.Definition
		dir, err := l.fetchArtifacts(ctx, def)
		if err != nil {
			return nil, err
		}
		backend, remote = def.Backend, def.RemoteModel
		if remote == "" {
			remote = dir
		}
		if remote == "" {
			remote = def.Name
		}
	}
	embedder, err := l.buildEmbedder(backend, desc.Name, remote)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", appErr.ErrModelLoad, desc.Name, err)
	}
	if l.verify {
		if err := probe(ctx, embedder, desc.Dimension); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", appErr.ErrModelLoad, desc.Name, err)
		}
	}
	for _, w := range l.wrappers {
		embedder = w(embedder)
	}
	logutil.GetLogger(ctx).Info("model loaded",
		zap.String("model", desc.Name),
		zap.String("backend", backend),
		zap.String("remote_model", remote),
		zap.Int("dimension", desc.Dimension),
	)
	return embedder, nil
}

// fetchArtifacts materialises the custom model files and returns the absolute
// model directory, or "" when there is nothing to fetch. Without an explicit
// remote_model the directory is the model id sent to the backend, so a local
// inference server sharing model_cache_dir loads exactly these files.
func (l *Loader) fetchArtifacts(ctx context.Context, def CustomDefinition) (string, error) {
	if l.artifacts == nil || len(def.Files) == 0 {
		return "", nil
	}
	dir, err := l.artifacts.Ensure(ctx, def.Name, def.Files)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", appErr.ErrModelLoad, def.Name, err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	logutil.GetLogger(ctx).Info("custom model artifacts ready", zap.String("model", def.Name), zap.String("dir", dir))
	return dir, nil
}

// buildEmbedder binds the model to backend and its fallbacks.
func (l *Loader) buildEmbedder(backend, name, remote string) (ai.IEmbedder, error) {
	cfg, ok := l.backends[backend]
	if !ok {
		return nil, fmt.Errorf("inference backend %q is not configured", backend)
	}
	names := append([]string{backend}, cfg.Fallbacks...)
	entries := make([]ai.EmbedderEntry, 0, len(names))
	for _, n := range names {
		p, err := l.provider(n)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ai.EmbedderEntry{Name: n, Embedder: ai.NewEmbedder(p, name, remote)})
	}
	return ai.NewGroupEmbedder(name, entries), nil
}

// provider returns the memoised provider for a backend instance.
func (l *Loader) provider(name string) (ai.IEmbedProvider, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.providers[name]; ok {
		return p, nil
	}
	cfg, ok := l.backends[name]
	if !ok {
		return nil, fmt.Errorf("inference backend %q is not configured", name)
	}
	p, err := ai.NewEmbedProvider(cfg.Type, cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("create inference backend %q: %w", name, err)
	}
	l.providers[name] = p
	return p, nil
}

func probe(ctx context.Context, e ai.IEmbedder, dimension int) error {
	vectors, err := e.Embed(ctx, []string{warmupText})
	if err != nil {
		return fmt.Errorf("warm up: %w", err)
	}
	if len(vectors) != 1 {
		return fmt.Errorf("warm up: expected 1 embedding, got %d", len(vectors))
	}
	if dimension > 0 && len(vectors[0]) != dimension {
		return fmt.Errorf("%w: backend returned %d values, model declares %d", appErr.ErrDimensionMismatch, len(vectors[0]), dimension)
	}
	return nil
}
