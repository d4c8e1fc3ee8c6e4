package knowledge

import (
	"context"
	"strings"

	types "github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

const DefaultSimilarityThreshold = 0.7

func SimilarityThresholdFromEnv() float64 {
	return envutil.Float("SIMILARITY_THRESHOLD", DefaultSimilarityThreshold)
}

type Retriever struct {
	log      *logger.Logger
	embedder Embedder
	index    vectorindex.Index
}

func NewRetriever(log *logger.Logger, embedder Embedder, index vectorindex.Index) *Retriever {
	return &Retriever{log: log.With("service", "KnowledgeRetriever"), embedder: embedder, index: index}
}

// FindSimilar returns up to limit articles ordered by descending similarity.
// It never fails: blank text, an empty index and provider errors all yield an empty slice.
func (r *Retriever) FindSimilar(ctx context.Context, text string, limit int) []types.Suggestion {
	out := []types.Suggestion{}
	if strings.TrimSpace(text) == "" || limit <= 0 {
		return out
	}
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		r.log.Warn("Knowledge retrieval embedding failed", "error", err)
		return out
	}
	matches, err := r.index.Query(ctx, vec, limit)
	if err != nil {
		r.log.Warn("Knowledge retrieval query failed", "error", err)
		return out
	}
	for _, m := range matches {
		a, ok := articleFromMatch(m)
		if !ok {
			r.log.Debug("Skipping index match with non-article id", "vector_id", m.ID)
			continue
		}
		out = append(out, types.Suggestion{Article: a, Similarity: m.Score})
		if len(out) == limit {
			break
		}
	}
	return out
}

// FilterByThreshold keeps suggestions whose similarity is at least threshold.
func FilterByThreshold(in []types.Suggestion, threshold float64) []types.Suggestion {
	out := make([]types.Suggestion, 0, len(in))
	for _, s := range in {
		if s.Similarity >= threshold {
			out = append(out, s)
		}
	}
	return out
}
