package qdrant

import (
	"errors"
	"testing"
)

func TestResolveConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_COLLECTION", "support_articles")
	t.Setenv("QDRANT_NAMESPACE_PREFIX", "")
	t.Setenv("QDRANT_NAMESPACE", "")
	t.Setenv("QDRANT_VECTOR_DIM", "1536")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Collection != "support_articles" || cfg.VectorDim != 1536 {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if cfg.NamespacePrefix != "autocrm" || cfg.Namespace != "knowledge" {
		t.Fatalf("namespace defaults not applied: %#v", cfg)
	}
}

func TestResolveConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name       string
		url        string
		collection string
		dim        string
		want       ConfigErrorCode
	}{
		{"missing url", "", "support_articles", "1536", ConfigErrorMissingURL},
		{"relative url", "qdrant:6333", "support_articles", "1536", ConfigErrorInvalidURL},
		{"missing collection", "http://qdrant:6333", "", "1536", ConfigErrorMissingCollection},
		{"missing dim", "http://qdrant:6333", "support_articles", "", ConfigErrorMissingVectorDim},
		{"bad dim", "http://qdrant:6333", "support_articles", "wide", ConfigErrorInvalidVectorDim},
		{"negative dim", "http://qdrant:6333", "support_articles", "-4", ConfigErrorInvalidVectorDim},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("QDRANT_URL", tc.url)
			t.Setenv("QDRANT_COLLECTION", tc.collection)
			t.Setenv("QDRANT_VECTOR_DIM", tc.dim)

			_, err := ResolveConfigFromEnv()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, cfgErr.Code)
			}
			if cfgErr.Error() == "" {
				t.Fatalf("empty error message")
			}
		})
	}
}
