package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/pgvector"
	"github.com/yungbote/autocrm-backend/internal/platform/pinecone"
	"github.com/yungbote/autocrm-backend/internal/platform/qdrant"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

func TestParseVectorProvider(t *testing.T) {
	cases := map[string]VectorProvider{
		"":         VectorProviderPinecone,
		"pinecone": VectorProviderPinecone,
		" Qdrant ": VectorProviderQdrant,
		"PGVECTOR": VectorProviderPgvector,
		"memory":   VectorProviderMemory,
	}
	for raw, want := range cases {
		got, err := ParseVectorProvider(raw)
		if err != nil {
			t.Fatalf("ParseVectorProvider(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseVectorProvider(%q): want %q got %q", raw, want, got)
		}
	}
	_, err := ParseVectorProvider("weaviate")
	if code := vectorProviderBootstrapErrorCode(err); code != VectorProviderBootstrapErrorInvalidProvider {
		t.Fatalf("unknown provider: want code %q got %q (err=%v)", VectorProviderBootstrapErrorInvalidProvider, code, err)
	}
}

func TestResolveVectorIndexMemory(t *testing.T) {
	idx, err := resolveVectorIndex(context.Background(), logger.Nop(), nil, Config{VectorProvider: VectorProviderMemory})
	if err != nil {
		t.Fatalf("resolveVectorIndex: %v", err)
	}
	if _, ok := idx.(*instrumentedVectorIndex); !ok {
		t.Fatalf("index should be wrapped with tracing, got %T", idx)
	}
}

func TestResolveVectorIndexQdrantSelected(t *testing.T) {
	origResolve, origStore := resolveQdrantConfig, newQdrantVectorStore
	t.Cleanup(func() {
		resolveQdrantConfig, newQdrantVectorStore = origResolve, origStore
	})

	resolveQdrantConfig = func() (qdrant.Config, error) {
		return qdrant.Config{URL: "http://qdrant:6333", Collection: "autocrm", VectorDim: 1536}, nil
	}
	var captured qdrant.Config
	newQdrantVectorStore = func(_ context.Context, _ *logger.Logger, cfg qdrant.Config) (vectorindex.Index, error) {
		captured = cfg
		return vectorindex.NewMemory(), nil
	}

	idx, err := resolveVectorIndex(context.Background(), logger.Nop(), nil, Config{VectorProvider: VectorProviderQdrant})
	if err != nil {
		t.Fatalf("resolveVectorIndex: %v", err)
	}
	if idx == nil {
		t.Fatalf("expected an index")
	}
	if captured.URL != "http://qdrant:6333" || captured.Collection != "autocrm" {
		t.Fatalf("qdrant config not passed through: %+v", captured)
	}
}

func TestResolveVectorIndexQdrantConfigErrorsAreClassified(t *testing.T) {
	origResolve := resolveQdrantConfig
	t.Cleanup(func() { resolveQdrantConfig = origResolve })

	cases := map[qdrant.ConfigErrorCode]VectorProviderBootstrapErrorCode{
		qdrant.ConfigErrorMissingURL:        VectorProviderBootstrapErrorMissingQdrantURL,
		qdrant.ConfigErrorInvalidURL:        VectorProviderBootstrapErrorInvalidQdrantURL,
		qdrant.ConfigErrorMissingCollection: VectorProviderBootstrapErrorMissingQdrantColl,
		qdrant.ConfigErrorMissingVectorDim:  VectorProviderBootstrapErrorMissingQdrantVector,
		qdrant.ConfigErrorInvalidVectorDim:  VectorProviderBootstrapErrorInvalidQdrantVector,
	}
	for qcode, want := range cases {
		qcode := qcode
		resolveQdrantConfig = func() (qdrant.Config, error) {
			return qdrant.Config{}, &qdrant.ConfigError{Code: qcode}
		}
		_, err := resolveVectorIndex(context.Background(), logger.Nop(), nil, Config{VectorProvider: VectorProviderQdrant})
		if got := vectorProviderBootstrapErrorCode(err); got != want {
			t.Fatalf("%s: want %q got %q", qcode, want, got)
		}
		var cfgErr *qdrant.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: cause should stay reachable", qcode)
		}
	}
}

func TestResolveVectorIndexQdrantConnectFailure(t *testing.T) {
	origResolve, origStore := resolveQdrantConfig, newQdrantVectorStore
	t.Cleanup(func() {
		resolveQdrantConfig, newQdrantVectorStore = origResolve, origStore
	})
	resolveQdrantConfig = func() (qdrant.Config, error) {
		return qdrant.Config{URL: "http://qdrant:6333", Collection: "autocrm", VectorDim: 3}, nil
	}
	newQdrantVectorStore = func(context.Context, *logger.Logger, qdrant.Config) (vectorindex.Index, error) {
		return nil, fmt.Errorf("qdrant ready check failed: dial tcp: connection refused")
	}

	_, err := resolveVectorIndex(context.Background(), logger.Nop(), nil, Config{VectorProvider: VectorProviderQdrant})
	if got := vectorProviderBootstrapErrorCode(err); got != VectorProviderBootstrapErrorConnectFailed {
		t.Fatalf("want %q got %q", VectorProviderBootstrapErrorConnectFailed, got)
	}
}

func TestResolveVectorIndexPineconeRequiresAPIKey(t *testing.T) {
	t.Setenv("PINECONE_API_KEY", "")
	origClient := newPineconeClient
	t.Cleanup(func() { newPineconeClient = origClient })
	newPineconeClient = func(*logger.Logger, pinecone.Config) (pinecone.Client, error) {
		t.Fatalf("pinecone client must not be built without an API key")
		return nil, nil
	}

	_, err := resolveVectorIndex(context.Background(), logger.Nop(), nil, Config{VectorProvider: VectorProviderPinecone})
	if got := vectorProviderBootstrapErrorCode(err); got != VectorProviderBootstrapErrorMissingAPIKey {
		t.Fatalf("want %q got %q", VectorProviderBootstrapErrorMissingAPIKey, got)
	}
}

func TestResolveVectorIndexPineconeSelected(t *testing.T) {
	t.Setenv("PINECONE_API_KEY", "pc-key")
	t.Setenv("PINECONE_INDEX_NAME", "kb")
	origClient, origStore := newPineconeClient, newPineconeVectorStore
	t.Cleanup(func() {
		newPineconeClient, newPineconeVectorStore = origClient, origStore
	})

	var gotKey string
	newPineconeClient = func(_ *logger.Logger, cfg pinecone.Config) (pinecone.Client, error) {
		gotKey = cfg.APIKey
		return nil, nil
	}
	var gotIndex pinecone.IndexConfig
	newPineconeVectorStore = func(_ context.Context, _ *logger.Logger, _ pinecone.Client, cfg pinecone.IndexConfig) (vectorindex.Index, error) {
		gotIndex = cfg
		return vectorindex.NewMemory(), nil
	}

	if _, err := resolveVectorIndex(context.Background(), logger.Nop(), nil, Config{VectorProvider: VectorProviderPinecone}); err != nil {
		t.Fatalf("resolveVectorIndex: %v", err)
	}
	if gotKey != "pc-key" {
		t.Fatalf("api key: want %q got %q", "pc-key", gotKey)
	}
	if gotIndex.IndexName != "kb" {
		t.Fatalf("index name: want %q got %q", "kb", gotIndex.IndexName)
	}
}

func TestResolveVectorIndexPgvectorUsesConfiguredDimension(t *testing.T) {
	origStore := newPgvectorStore
	t.Cleanup(func() { newPgvectorStore = origStore })

	var got pgvector.Config
	newPgvectorStore = func(_ context.Context, _ *gorm.DB, _ *logger.Logger, cfg pgvector.Config) (vectorindex.Index, error) {
		got = cfg
		return vectorindex.NewMemory(), nil
	}

	_, err := resolveVectorIndex(context.Background(), logger.Nop(), &gorm.DB{}, Config{
		VectorProvider: VectorProviderPgvector,
		VectorDim:      1536,
		PgvectorTable:  "kb_vectors",
	})
	if err != nil {
		t.Fatalf("resolveVectorIndex: %v", err)
	}
	if got.VectorDim != 1536 || got.Table != "kb_vectors" {
		t.Fatalf("pgvector config not passed through: %+v", got)
	}
}

func TestResolveVectorIndexPgvectorNeedsDB(t *testing.T) {
	_, err := resolveVectorIndex(context.Background(), logger.Nop(), nil, Config{VectorProvider: VectorProviderPgvector, VectorDim: 3})
	if got := vectorProviderBootstrapErrorCode(err); got != VectorProviderBootstrapErrorProviderInitFailed {
		t.Fatalf("want %q got %q", VectorProviderBootstrapErrorProviderInitFailed, got)
	}
}
