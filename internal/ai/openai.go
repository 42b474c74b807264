package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

const defaultOpenAIMaxBatch = 2048

// openAIConfig also covers OpenAI compatible servers (text-embeddings-inference,
// infinity, vllm) that host HuggingFace models under their repo id.
type openAIConfig struct {
	APIKey       string `json:"api_key"`
	BaseURL      string `json:"base_url"`
	Organization string `json:"organization"`
	Timeout      int    `json:"timeout"`
	MaxBatch     int    `json:"max_batch"`
}

type openAIEmbedProvider struct {
	client   oai.Client
	maxBatch int
}

func (p *openAIEmbedProvider) Name() string {
	return "openai"
}

func (p *openAIEmbedProvider) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	return embedInBatches(ctx, texts, p.maxBatch, func(ctx context.Context, part []string) ([][]float32, error) {
		resp, err := p.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
			Model: model,
			Input: oai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: part,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		if len(resp.Data) != len(part) {
			return nil, fmt.Errorf("%w: openai embeddings: expected %d embeddings, got %d", appErr.ErrChunkCountMismatch, len(part), len(resp.Data))
		}
		result := make([][]float32, len(part))
		for _, item := range resp.Data {
			if item.Index < 0 || int(item.Index) >= len(part) {
				return nil, fmt.Errorf("openai embeddings: unexpected index %d", item.Index)
			}
			result[item.Index] = toFloat32(item.Embedding)
		}
		for i, vec := range result {
			if vec == nil {
				return nil, fmt.Errorf("openai embeddings: missing embedding at index %d", i)
			}
		}
		return result, nil
	})
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func createOpenAIEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	var opts []option.RequestOption
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.Organization != "" {
		opts = append(opts, option.WithOrganization(cfg.Organization))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		}))
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = defaultOpenAIMaxBatch
	}
	return &openAIEmbedProvider{
		client:   oai.NewClient(opts...),
		maxBatch: maxBatch,
	}, nil
}

func init() {
	RegisterEmbed("openai", createOpenAIEmbedFactory)
}
