// Package rediscache keeps computed embeddings in Redis so repeated
// retrievals for identical text skip the provider round trip.
package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Addr:      envutil.String("REDIS_ADDR", ""),
		Password:  envutil.String("REDIS_PASSWORD", ""),
		DB:        envutil.Int("REDIS_DB", 0),
		KeyPrefix: envutil.String("EMBEDDING_CACHE_PREFIX", "autocrm:emb"),
		TTL:       envutil.Duration("EMBEDDING_CACHE_TTL", 7*24*time.Hour),
	}
}

type EmbeddingCache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Set(ctx context.Context, model, text string, vec []float32) error
	Close() error
}

type embeddingCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewEmbeddingCache(log *logger.Logger, cfg Config) (EmbeddingCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "autocrm:emb"
	}
	return &embeddingCache{
		log:    log.With("service", "RedisEmbeddingCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (c *embeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(c.prefix, model, text)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := decodeVector(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (c *embeddingCache) Set(ctx context.Context, model, text string, vec []float32) error {
	return c.rdb.Set(ctx, cacheKey(c.prefix, model, text), encodeVector(vec), c.ttl).Err()
}

func (c *embeddingCache) Close() error {
	return c.rdb.Close()
}

func cacheKey(prefix, model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return prefix + ":" + model + ":" + hex.EncodeToString(sum[:])
}

// Vectors are stored as packed little-endian float32.
func encodeVector(vec []float32) []byte {
	out := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached embedding: %d bytes", len(raw))
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}
