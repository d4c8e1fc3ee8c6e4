package pinecone

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

type IndexConfig struct {
	IndexName string
	IndexHost string
	// Namespace is qualified as "<NamespacePrefix>:<Namespace>".
	NamespacePrefix string
	Namespace       string
}

func IndexConfigFromEnv() IndexConfig {
	return IndexConfig{
		IndexName:       envutil.String("PINECONE_INDEX_NAME", ""),
		IndexHost:       envutil.String("PINECONE_INDEX_HOST", ""),
		NamespacePrefix: envutil.String("PINECONE_NAMESPACE_PREFIX", "autocrm"),
		Namespace:       envutil.String("PINECONE_NAMESPACE", "knowledge"),
	}
}

type vectorStore struct {
	log       *logger.Logger
	pc        Client
	indexName string
	indexHost string
	namespace string
}

const listPageSize = 100

// NewVectorStore binds an index adapter to one Pinecone index namespace.
func NewVectorStore(ctx context.Context, log *logger.Logger, pc Client, cfg IndexConfig) (vectorindex.Index, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pc == nil {
		return nil, fmt.Errorf("pinecone client required")
	}
	indexName := strings.TrimSpace(cfg.IndexName)
	if indexName == "" {
		return nil, fmt.Errorf("missing PINECONE_INDEX_NAME")
	}

	host := strings.TrimSpace(cfg.IndexHost)
	if host == "" {
		desc, err := pc.DescribeIndex(ctx, indexName)
		if err != nil {
			return nil, fmt.Errorf("pinecone describe_index failed: %w", err)
		}
		host = strings.TrimSpace(desc.Host)
		log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index",
			"index_name", indexName,
			"index_host", host,
		)
	}

	return &vectorStore{
		log:       log.With("service", "PineconeVectorStore"),
		pc:        pc,
		indexName: indexName,
		indexHost: host,
		namespace: qualifyNamespace(cfg.NamespacePrefix, cfg.Namespace),
	}, nil
}

func (s *vectorStore) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	vectors := make([]Vector, 0, len(entries))
	for _, e := range entries {
		vectors = append(vectors, Vector{ID: e.ID, Values: e.Values, Metadata: e.Metadata})
	}
	_, err := s.pc.UpsertVectors(ctx, s.indexHost, UpsertRequest{Namespace: s.namespace, Vectors: vectors})
	return err
}

func (s *vectorStore) Query(ctx context.Context, vector []float32, topK int) ([]vectorindex.Match, error) {
	if topK <= 0 {
		return []vectorindex.Match{}, nil
	}
	resp, err := s.pc.Query(ctx, s.indexHost, QueryRequest{
		Namespace:       s.namespace,
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]vectorindex.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		out = append(out, vectorindex.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.pc.DeleteVectors(ctx, s.indexHost, DeleteRequest{Namespace: s.namespace, IDs: ids})
}

func (s *vectorStore) DeleteAll(ctx context.Context) error {
	return s.pc.DeleteVectors(ctx, s.indexHost, DeleteRequest{Namespace: s.namespace, DeleteAll: true})
}

// ListIDs pages through /vectors/list. Pod-based indexes reject listing with 400,
// which is reported as ErrListUnsupported.
func (s *vectorStore) ListIDs(ctx context.Context) ([]string, error) {
	var (
		ids   []string
		token string
	)
	for {
		resp, err := s.pc.ListVectorIDs(ctx, s.indexHost, ListRequest{
			Namespace:       s.namespace,
			Limit:           listPageSize,
			PaginationToken: token,
		})
		if err != nil {
			if he, ok := err.(*HTTPError); ok && (he.StatusCode == 400 || he.StatusCode == 405 || he.StatusCode == 501) {
				return nil, fmt.Errorf("%w: %v", vectorindex.ErrListUnsupported, err)
			}
			return nil, err
		}
		for _, v := range resp.Vectors {
			if v.ID != "" {
				ids = append(ids, v.ID)
			}
		}
		if resp.Pagination == nil || resp.Pagination.Next == "" || resp.Pagination.Next == token {
			break
		}
		token = resp.Pagination.Next
	}
	return ids, nil
}

func (s *vectorStore) Stats(ctx context.Context) (vectorindex.Stats, error) {
	resp, err := s.pc.DescribeIndexStats(ctx, s.indexHost)
	if err != nil {
		return vectorindex.Stats{}, err
	}
	return vectorindex.Stats{
		TotalRecordCount: resp.Namespaces[s.namespace].VectorCount,
		Dimension:        resp.Dimension,
	}, nil
}

func qualifyNamespace(prefix, ns string) string {
	prefix = strings.TrimSpace(prefix)
	ns = strings.TrimSpace(ns)
	switch {
	case prefix == "":
		return ns
	case ns == "":
		return prefix
	default:
		return prefix + ":" + ns
	}
}
