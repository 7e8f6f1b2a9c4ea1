package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint, paced by a
// token bucket so index builds do not trip provider rate limits.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

func NewOpenAIEmbedder(cfg model.EmbeddingConfig) *OpenAIEmbedder {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("embed: empty text")
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embed: empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}
