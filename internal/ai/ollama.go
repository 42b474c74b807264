package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaServerURL = "http://localhost:11434"

type ollamaConfig struct {
	ServerURL string `json:"server_url"`
	BatchSize int    `json:"batch_size"`
}

// ollamaEmbedProvider keeps one langchaingo embedder per model.
type ollamaEmbedProvider struct {
	serverURL string
	batchSize int

	mu        sync.Mutex
	embedders map[string]embeddings.Embedder
}

func (p *ollamaEmbedProvider) Name() string {
	return "ollama"
}

func (p *ollamaEmbedProvider) embedderFor(model string) (embeddings.Embedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.embedders[model]; ok {
		return e, nil
	}
	llm, err := ollama.New(ollama.WithServerURL(p.serverURL), ollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	e, err := embeddings.NewEmbedder(llm,
		embeddings.WithStripNewLines(false),
		embeddings.WithBatchSize(p.batchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}
	p.embedders[model] = e
	return e, nil
}

func (p *ollamaEmbedProvider) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	e, err := p.embedderFor(model)
	if err != nil {
		return nil, err
	}
	res, err := e.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed documents: %w", err)
	}
	return res, nil
}

func createOllamaEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultOllamaServerURL
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}
	return &ollamaEmbedProvider{
		serverURL: serverURL,
		batchSize: batchSize,
		embedders: make(map[string]embeddings.Embedder),
	}, nil
}

func init() {
	RegisterEmbed("ollama", createOllamaEmbedFactory)
}
