// Package pgvector stores knowledge vectors in PostgreSQL next to the relational data.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pgv "github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

const DefaultTable = "knowledge_vector"

type Config struct {
	Table     string
	VectorDim int
}

// row is the table layout; the embedding column's dimension is fixed at bootstrap.
type row struct {
	ID        string         `gorm:"column:id;primaryKey"`
	Embedding pgv.Vector     `gorm:"column:embedding"`
	Metadata  datatypes.JSON `gorm:"column:metadata"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

type scoredRow struct {
	ID       string         `gorm:"column:id"`
	Metadata datatypes.JSON `gorm:"column:metadata"`
	Score    float64        `gorm:"column:score"`
}

type vectorStore struct {
	db    *gorm.DB
	log   *logger.Logger
	table string
	dim   int
}

// NewVectorStore enables the vector extension and creates the table when missing.
func NewVectorStore(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config) (vectorindex.Index, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.VectorDim <= 0 {
		return nil, fmt.Errorf("pgvector: vector dimension must be positive, got %d", cfg.VectorDim)
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = DefaultTable
	}
	if !validIdent(table) {
		return nil, fmt.Errorf("pgvector: invalid table name %q", table)
	}

	s := &vectorStore{db: db, log: log.With("service", "PgvectorVectorStore"), table: table, dim: cfg.VectorDim}
	for _, stmt := range s.bootstrapStatements() {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("pgvector bootstrap: %w", err)
		}
	}
	s.log.Info("pgvector vector store selected", "table", table, "vector_dim", cfg.VectorDim)
	return s, nil
}

func (s *vectorStore) bootstrapStatements() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id text PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			metadata jsonb NOT NULL DEFAULT '{}',
			updated_at timestamptz NOT NULL DEFAULT now()
		)`, s.table, s.dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_hnsw ON %s USING hnsw (embedding vector_cosine_ops)`, s.table, s.table),
	}
}

func (s *vectorStore) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("pgvector upsert: entry id required")
		}
		if len(e.Values) != s.dim {
			return fmt.Errorf("pgvector upsert: entry %s dimension mismatch: expected=%d got=%d", e.ID, s.dim, len(e.Values))
		}
		meta, err := json.Marshal(nonNilMetadata(e.Metadata))
		if err != nil {
			return fmt.Errorf("pgvector upsert: encode metadata for %s: %w", e.ID, err)
		}
		rows = append(rows, row{ID: e.ID, Embedding: pgv.NewVector(e.Values), Metadata: datatypes.JSON(meta), UpdatedAt: now})
	}
	return s.db.WithContext(ctx).Table(s.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "metadata", "updated_at"}),
	}).Create(&rows).Error
}

// Query scores with cosine similarity (1 - cosine distance).
func (s *vectorStore) Query(ctx context.Context, vector []float32, topK int) ([]vectorindex.Match, error) {
	if topK <= 0 {
		return []vectorindex.Match{}, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("pgvector query: dimension mismatch: expected=%d got=%d", s.dim, len(vector))
	}
	q := pgv.NewVector(vector)
	var rows []scoredRow
	err := s.db.WithContext(ctx).Raw(
		fmt.Sprintf(`SELECT id, metadata, 1 - (embedding <=> ?) AS score FROM %s ORDER BY embedding <=> ? LIMIT ?`, s.table),
		q, q, topK,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pgvector query: %w", err)
	}
	out := make([]vectorindex.Match, 0, len(rows))
	for _, r := range rows {
		meta := map[string]any{}
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &meta); err != nil {
				s.log.Warn("pgvector metadata decode failed", "id", r.ID, "error", err)
			}
		}
		out = append(out, vectorindex.Match{ID: r.ID, Score: r.Score, Metadata: meta})
	}
	return out, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Table(s.table).Where("id IN ?", ids).Delete(&row{}).Error
}

func (s *vectorStore) DeleteAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec(fmt.Sprintf(`DELETE FROM %s`, s.table)).Error
}

func (s *vectorStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Table(s.table).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("pgvector list: %w", err)
	}
	return ids, nil
}

func (s *vectorStore) Stats(ctx context.Context) (vectorindex.Stats, error) {
	var n int64
	if err := s.db.WithContext(ctx).Table(s.table).Count(&n).Error; err != nil {
		return vectorindex.Stats{}, fmt.Errorf("pgvector stats: %w", err)
	}
	return vectorindex.Stats{TotalRecordCount: n, Dimension: s.dim}, nil
}

func nonNilMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func validIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
