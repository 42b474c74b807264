package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

// the Gemini embed endpoint accepts at most 100 contents per call.
const geminiMaxBatch = 100

type geminiConfig struct {
	APIKey   string `json:"api_key"`
	TaskType string `json:"task_type"`
}

type geminiEmbedProvider struct {
	taskType string
	client   *genai.Client
}

func (p *geminiEmbedProvider) Name() string {
	return "gemini"
}

func (p *geminiEmbedProvider) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if p.client == nil {
		return nil, ErrUnavailable
	}
	client := p.client
	var config *genai.EmbedContentConfig
	if p.taskType != "" {
		config = &genai.EmbedContentConfig{
			TaskType: p.taskType,
		}
	}
	return embedInBatches(ctx, texts, geminiMaxBatch, func(ctx context.Context, part []string) ([][]float32, error) {
		contents := make([]*genai.Content, 0, len(part))
		for _, text := range part {
			contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
		}
		resp, err := client.Models.EmbedContent(ctx, model, contents, config)
		if err != nil {
			return nil, fmt.Errorf("gemini embed content: %w", err)
		}
		if len(resp.Embeddings) != len(part) {
			return nil, fmt.Errorf("%w: gemini embed content: expected %d embeddings, got %d", appErr.ErrChunkCountMismatch, len(part), len(resp.Embeddings))
		}
		result := make([][]float32, 0, len(part))
		for _, item := range resp.Embeddings {
			if item == nil || len(item.Values) == 0 {
				return nil, fmt.Errorf("no embedding values returned")
			}
			result = append(result, item.Values)
		}
		return result, nil
	})
}

func createGeminiEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	provider := &geminiEmbedProvider{
		taskType: strings.TrimSpace(cfg.TaskType),
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return provider, nil
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	provider.client = client
	return provider, nil
}

func init() {
	RegisterEmbed("gemini", createGeminiEmbedFactory)
}
