// Package vectorindex defines the provider-neutral contract for the knowledge
// article index and an in-process implementation.
package vectorindex

import (
	"context"
	"errors"
	"math"
)

// Entry is one stored vector. Upserting an Entry replaces any entry with the same ID.
type Entry struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is a query hit; Score is a similarity where higher is better.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

type Stats struct {
	TotalRecordCount int64
	Dimension        int
}

type Index interface {
	Upsert(ctx context.Context, entries []Entry) error
	// Query returns at most topK matches ordered by descending score, metadata included.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	DeleteIDs(ctx context.Context, ids []string) error
	DeleteAll(ctx context.Context) error
	// ListIDs returns every stored id, or ErrListUnsupported.
	ListIDs(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (Stats, error)
}

var ErrListUnsupported = errors.New("vector index does not support listing ids")

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
