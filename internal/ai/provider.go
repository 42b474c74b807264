package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

var ErrUnavailable = errors.New("embedding backend unavailable")

// IEmbedProvider is a backend able to embed texts with any model it hosts.
// Implementations must be safe for concurrent use and must return exactly one
// vector per input text, in input order.
type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// IEmbedder is a provider bound to one model: the inference handle used by the
// embedding pipeline.
type IEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

type embedder struct {
	provider IEmbedProvider
	model    string
	name     string
}

// NewEmbedder binds p to remoteModel. name is the identifier reported by
// ModelName, which is also the cache namespace.
func NewEmbedder(p IEmbedProvider, name string, remoteModel string) IEmbedder {
	if remoteModel == "" {
		remoteModel = name
	}
	return &embedder{provider: p, model: remoteModel, name: name}
}

func (e *embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	res, err := e.provider.Embed(ctx, e.model, texts)
	if err != nil {
		return nil, err
	}
	if len(res) != len(texts) {
		return nil, fmt.Errorf("%w: %s returned %d embeddings for %d texts", appErr.ErrChunkCountMismatch, e.provider.Name(), len(res), len(texts))
	}
	return res, nil
}

func (e *embedder) ModelName() string {
	return e.name
}

type EmbedProviderFactory func(args interface{}) (IEmbedProvider, error)

var (
	registryMu    sync.RWMutex
	embedRegistry = map[string]EmbedProviderFactory{}
)

func RegisterEmbed(name string, factory EmbedProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	embedRegistry[key] = factory
	registryMu.Unlock()
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("inference backend type is required")
	}
	registryMu.RLock()
	factory := embedRegistry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported inference backend: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode inference backend config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode inference backend config: %w", err)
	}
	return nil
}
