package rediscache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

func TestVectorEncodingRoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("index %d: got %v want %v", i, out[i], in[i])
		}
	}
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected corrupt payload error")
	}
}

func TestCacheKeyIsStableAndModelScoped(t *testing.T) {
	a := cacheKey("p", "m1", "how do I reset my password")
	b := cacheKey("p", "m1", "how do I reset my password")
	c := cacheKey("p", "m2", "how do I reset my password")
	if a != b {
		t.Fatalf("key not stable")
	}
	if a == c {
		t.Fatalf("key should depend on model")
	}
	if !strings.HasPrefix(a, "p:m1:") {
		t.Fatalf("unexpected key %q", a)
	}
}

func TestEmbeddingCacheAgainstRedis(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	cache, err := NewEmbeddingCache(logger.Nop(), Config{Addr: addr, KeyPrefix: "autocrm:test", TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewEmbeddingCache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	ctx := context.Background()
	text := "cache-test-" + time.Now().Format(time.RFC3339Nano)
	if _, ok, err := cache.Get(ctx, "m", text); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Set(ctx, "m", text, []float32{1, 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	vec, ok, err := cache.Get(ctx, "m", text)
	if err != nil || !ok || len(vec) != 2 || vec[1] != 2 {
		t.Fatalf("unexpected hit %v %v %v", vec, ok, err)
	}
}
