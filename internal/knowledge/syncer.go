package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/httpx"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

type SyncConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

func SyncConfigFromEnv() SyncConfig {
	return SyncConfig{
		BatchSize:  envutil.Int("SYNC_BATCH_SIZE", 5),
		BatchDelay: envutil.Duration("SYNC_BATCH_DELAY", time.Second),
	}
}

type SyncReport struct {
	TotalProcessed int      `json:"totalProcessed"`
	Errors         []string `json:"errors,omitempty"`
	FailedBatches  []int    `json:"failedBatches,omitempty"`
	Deleted        int      `json:"deleted"`
	// FullReplace is set when the index could not list ids and was cleared before inserting.
	FullReplace bool `json:"fullReplace,omitempty"`
}

func (r SyncReport) OK() bool { return len(r.Errors) == 0 }

type Syncer struct {
	log      *logger.Logger
	embedder Embedder
	index    vectorindex.Index
	cfg      SyncConfig
}

func NewSyncer(log *logger.Logger, embedder Embedder, index vectorindex.Index, cfg SyncConfig) *Syncer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	return &Syncer{log: log.With("service", "KnowledgeSyncer"), embedder: embedder, index: index, cfg: cfg}
}

// Sync makes the index hold exactly one vector per article in articles.
// Current articles are upserted first and stale ids removed afterwards, so the
// index is never emptied mid-run. Indexes that cannot list ids are cleared and
// rebuilt instead. A failed batch is reported and the remaining batches still run.
func (s *Syncer) Sync(ctx context.Context, articles []*types.Article) SyncReport {
	var report SyncReport

	existing, listErr := s.index.ListIDs(ctx)
	switch {
	case errors.Is(listErr, vectorindex.ErrListUnsupported):
		s.log.Warn("Vector index cannot list ids, falling back to full replace")
		report.FullReplace = true
		if err := s.index.DeleteAll(ctx); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("delete all: %v", err))
			return report
		}
	case listErr != nil:
		report.Errors = append(report.Errors, fmt.Sprintf("list ids: %v", listErr))
	}

	current := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		if a != nil {
			current[a.ID.String()] = struct{}{}
		}
	}

	batches := chunk(articles, s.cfg.BatchSize)
	for i, batch := range batches {
		if i > 0 && s.cfg.BatchDelay > 0 {
			if err := httpx.Sleep(ctx, s.cfg.BatchDelay); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("sync interrupted: %v", err))
				for j := i; j < len(batches); j++ {
					report.FailedBatches = append(report.FailedBatches, j)
				}
				return report
			}
		}
		if err := s.upsertBatch(ctx, batch); err != nil {
			s.log.Error("Knowledge sync batch failed", "batch", i, "size", len(batch), "error", err)
			report.Errors = append(report.Errors, fmt.Sprintf("batch %d: %v", i, err))
			report.FailedBatches = append(report.FailedBatches, i)
			continue
		}
		report.TotalProcessed += len(batch)
	}

	if listErr == nil && !report.FullReplace {
		var stale []string
		for _, id := range existing {
			if _, keep := current[id]; !keep {
				stale = append(stale, id)
			}
		}
		if len(stale) > 0 {
			if err := s.index.DeleteIDs(ctx, stale); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("delete stale: %v", err))
			} else {
				report.Deleted = len(stale)
			}
		}
	}

	s.log.Info("Knowledge sync finished",
		"articles", len(articles),
		"processed", report.TotalProcessed,
		"deleted", report.Deleted,
		"failed_batches", len(report.FailedBatches),
		"errors", len(report.Errors),
		"full_replace", report.FullReplace,
	)
	return report
}

// IndexArticle embeds and upserts a single article.
func (s *Syncer) IndexArticle(ctx context.Context, a *types.Article) error {
	if a == nil {
		return fmt.Errorf("missing article")
	}
	return s.upsertBatch(ctx, []*types.Article{a})
}

func (s *Syncer) RemoveArticle(ctx context.Context, id uuid.UUID) error {
	return s.index.DeleteIDs(ctx, []string{id.String()})
}

func (s *Syncer) upsertBatch(ctx context.Context, batch []*types.Article) error {
	texts := make([]string, len(batch))
	for i, a := range batch {
		texts[i] = a.EmbeddingText()
	}
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != len(batch) {
		return fmt.Errorf("embed: expected %d vectors, got %d", len(batch), len(vecs))
	}
	entries := make([]vectorindex.Entry, len(batch))
	for i, a := range batch {
		entries[i] = vectorindex.Entry{ID: a.ID.String(), Values: vecs[i], Metadata: articleMetadata(a)}
	}
	if err := s.index.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func chunk(articles []*types.Article, size int) [][]*types.Article {
	var out [][]*types.Article
	var cur []*types.Article
	for _, a := range articles {
		if a == nil {
			continue
		}
		cur = append(cur, a)
		if len(cur) == size {
			out = append(out, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
