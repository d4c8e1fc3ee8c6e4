package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/pgvector"
	"github.com/yungbote/autocrm-backend/internal/platform/pinecone"
	"github.com/yungbote/autocrm-backend/internal/platform/qdrant"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

type VectorProvider string

const (
	VectorProviderPinecone VectorProvider = "pinecone"
	VectorProviderQdrant   VectorProvider = "qdrant"
	VectorProviderPgvector VectorProvider = "pgvector"
	VectorProviderMemory   VectorProvider = "memory"
)

func ParseVectorProvider(raw string) (VectorProvider, error) {
	switch p := VectorProvider(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return VectorProviderPinecone, nil
	case VectorProviderPinecone, VectorProviderQdrant, VectorProviderPgvector, VectorProviderMemory:
		return p, nil
	default:
		return "", &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: string(p),
			Cause:    fmt.Errorf("unsupported VECTOR_PROVIDER %q (want pinecone, qdrant, pgvector or memory)", raw),
		}
	}
}

// Swapped in tests.
var (
	newPineconeClient      = pinecone.New
	newPineconeVectorStore = pinecone.NewVectorStore
	resolveQdrantConfig    = qdrant.ResolveConfigFromEnv
	newQdrantVectorStore   = qdrant.NewVectorStore
	newPgvectorStore       = pgvector.NewVectorStore
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider     VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingAPIKey       VectorProviderBootstrapErrorCode = "missing_api_key"
	VectorProviderBootstrapErrorMissingQdrantURL    VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL    VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl   VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorMissingQdrantVector VectorProviderBootstrapErrorCode = "missing_qdrant_vector_dim"
	VectorProviderBootstrapErrorInvalidQdrantVector VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorQdrantConfigFailed  VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorConnectFailed       VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed  VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorIndex builds the index named by cfg.VectorProvider and wraps it
// with tracing. db is only used by the pgvector provider.
func resolveVectorIndex(ctx context.Context, log *logger.Logger, gdb *gorm.DB, cfg Config) (vectorindex.Index, error) {
	provider := string(cfg.VectorProvider)
	log.Info("Selecting vector index provider", "provider", provider)

	idx, err := openVectorIndex(ctx, log, gdb, cfg)
	if err != nil {
		classified := classifyVectorProviderBootstrapError(provider, err)
		log.Error(
			"Vector index bootstrap failed",
			"provider", provider,
			"error_code", vectorProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return instrumentVectorIndex(provider, idx), nil
}

func openVectorIndex(ctx context.Context, log *logger.Logger, gdb *gorm.DB, cfg Config) (vectorindex.Index, error) {
	switch cfg.VectorProvider {
	case VectorProviderPinecone, "":
		apiKey := envutil.String("PINECONE_API_KEY", "")
		if apiKey == "" {
			return nil, &VectorProviderBootstrapError{
				Code:     VectorProviderBootstrapErrorMissingAPIKey,
				Provider: string(VectorProviderPinecone),
				Cause:    fmt.Errorf("PINECONE_API_KEY is required"),
			}
		}
		pc, err := newPineconeClient(log, pinecone.Config{
			APIKey:     apiKey,
			APIVersion: envutil.String("PINECONE_API_VERSION", ""),
			BaseURL:    envutil.String("PINECONE_BASE_URL", ""),
			Timeout:    envutil.Duration("PINECONE_TIMEOUT", 30*time.Second),
		})
		if err != nil {
			return nil, err
		}
		return newPineconeVectorStore(ctx, log, pc, pinecone.IndexConfigFromEnv())

	case VectorProviderQdrant:
		qcfg, err := resolveQdrantConfig()
		if err != nil {
			return nil, err
		}
		log.Info(
			"Using qdrant vector index",
			"qdrant_url", qcfg.URL,
			"qdrant_collection", qcfg.Collection,
			"qdrant_vector_dim", qcfg.VectorDim,
		)
		return newQdrantVectorStore(ctx, log, qcfg)

	case VectorProviderPgvector:
		if gdb == nil {
			return nil, fmt.Errorf("pgvector provider requires a database")
		}
		return newPgvectorStore(ctx, gdb, log, pgvector.Config{Table: cfg.PgvectorTable, VectorDim: cfg.VectorDim})

	case VectorProviderMemory:
		log.Warn("Using in-process vector index; contents are lost on restart")
		return vectorindex.NewMemory(), nil

	default:
		return nil, &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: string(cfg.VectorProvider),
			Cause:    fmt.Errorf("unsupported vector provider %q", cfg.VectorProvider),
		}
	}
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}
	var already *VectorProviderBootstrapError
	if errors.As(err, &already) {
		return already
	}
	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "ready check failed") || strings.Contains(errLower, "connection refused") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			return wrap(VectorProviderBootstrapErrorMissingQdrantURL)
		case qdrant.ConfigErrorInvalidURL:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantURL)
		case qdrant.ConfigErrorMissingCollection:
			return wrap(VectorProviderBootstrapErrorMissingQdrantColl)
		case qdrant.ConfigErrorMissingVectorDim:
			return wrap(VectorProviderBootstrapErrorMissingQdrantVector)
		case qdrant.ConfigErrorInvalidVectorDim:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantVector)
		default:
			return wrap(VectorProviderBootstrapErrorQdrantConfigFailed)
		}
	}
	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorProviderInitFailed
}
