package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/openai"
	"github.com/yungbote/autocrm-backend/internal/platform/rediscache"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type openAIEmbedder struct {
	client openai.Client
}

func NewEmbedder(client openai.Client) Embedder {
	return &openAIEmbedder{client: client}
}

func (e *openAIEmbedder) Model() string { return e.client.EmbedModel() }

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.client.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	return vecs[0], nil
}

func (e *openAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.client.Embed(ctx, texts)
}

type cachedEmbedder struct {
	log   *logger.Logger
	inner Embedder
	cache rediscache.EmbeddingCache
}

// WithCache consults cache before inner. Cache failures are logged and fall through.
func WithCache(log *logger.Logger, inner Embedder, cache rediscache.EmbeddingCache) Embedder {
	if cache == nil {
		return inner
	}
	return &cachedEmbedder{log: log.With("embedder", "cached"), inner: inner, cache: cache}
}

func (e *cachedEmbedder) Model() string { return e.inner.Model() }

func (e *cachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *cachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missText []string
	for i, t := range texts {
		key := strings.TrimSpace(t)
		vec, ok, err := e.cache.Get(ctx, e.Model(), key)
		if err != nil {
			e.log.Warn("Embedding cache read failed", "error", err)
		}
		if ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missText = append(missText, t)
	}
	if len(missText) == 0 {
		return out, nil
	}

	vecs, err := e.inner.EmbedBatch(ctx, missText)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missText) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missText), len(vecs))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		if err := e.cache.Set(ctx, e.Model(), strings.TrimSpace(missText[j]), vecs[j]); err != nil {
			e.log.Warn("Embedding cache write failed", "error", err)
		}
	}
	return out, nil
}
