package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process cosine index. It is used for local development and tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	dim     int
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]Entry{}}
}

func (m *Memory) Upsert(ctx context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("entry id required")
		}
		if len(e.Values) == 0 {
			return fmt.Errorf("entry %s: values required", e.ID)
		}
		if m.dim != 0 && len(e.Values) != m.dim {
			return fmt.Errorf("entry %s: dimension %d does not match index dimension %d", e.ID, len(e.Values), m.dim)
		}
	}
	for _, e := range entries {
		if m.dim == 0 {
			m.dim = len(e.Values)
		}
		values := append([]float32(nil), e.Values...)
		m.entries[e.ID] = Entry{ID: e.ID, Values: values, Metadata: copyMetadata(e.Metadata)}
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Match, 0, len(m.entries))
	for id, e := range m.entries {
		out = append(out, Match{ID: id, Score: CosineSimilarity(vector, e.Values), Metadata: copyMetadata(e.Metadata)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (m *Memory) DeleteIDs(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
	}
	m.resetDimIfEmpty()
	return nil
}

func (m *Memory) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]Entry{}
	m.dim = 0
	return nil
}

func (m *Memory) ListIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{TotalRecordCount: int64(len(m.entries)), Dimension: m.dim}, nil
}

func (m *Memory) resetDimIfEmpty() {
	if len(m.entries) == 0 {
		m.dim = 0
	}
}

func copyMetadata(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
