package qdrant

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
)

type Config struct {
	URL        string
	APIKey     string
	Collection string
	// Points are tagged "<NamespacePrefix>:<Namespace>" so several indexes can share a collection.
	NamespacePrefix string
	Namespace       string
	VectorDim       int
	Timeout         time.Duration
	HTTPClient      *http.Client
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorMissingVectorDim  ConfigErrorCode = "missing_vector_dim"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
)

var configErrorText = map[ConfigErrorCode]string{
	ConfigErrorMissingURL:        "QDRANT_URL is required",
	ConfigErrorInvalidURL:        "QDRANT_URL must be an absolute URL such as http://qdrant:6333",
	ConfigErrorMissingCollection: "QDRANT_COLLECTION is required",
	ConfigErrorMissingVectorDim:  "QDRANT_VECTOR_DIM is required",
	ConfigErrorInvalidVectorDim:  "QDRANT_VECTOR_DIM must be a positive integer",
}

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	msg, ok := configErrorText[e.Code]
	if !ok {
		msg = "invalid qdrant config"
	}
	if e.Value != "" {
		msg = fmt.Sprintf("%s (got %q)", msg, e.Value)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveConfigFromEnv reads QDRANT_* and validates the result.
func ResolveConfigFromEnv() (Config, error) {
	rawDim := envutil.String("QDRANT_VECTOR_DIM", "")
	cfg := Config{
		URL:             envutil.String("QDRANT_URL", ""),
		APIKey:          envutil.String("QDRANT_API_KEY", ""),
		Collection:      envutil.String("QDRANT_COLLECTION", ""),
		NamespacePrefix: envutil.String("QDRANT_NAMESPACE_PREFIX", "autocrm"),
		Namespace:       envutil.String("QDRANT_NAMESPACE", "knowledge"),
		Timeout:         envutil.Duration("QDRANT_TIMEOUT", 30*time.Second),
	}
	if rawDim != "" {
		dim, err := strconv.Atoi(rawDim)
		if err != nil {
			return Config{}, &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: rawDim, Cause: err}
		}
		cfg.VectorDim = dim
	}
	if err := ValidateConfig(cfg, rawDim != ""); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig checks cfg. hasRawVectorDim distinguishes an unset dimension
// from one explicitly set to a non-positive value.
func ValidateConfig(cfg Config, hasRawVectorDim bool) error {
	if cfg.URL == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: cfg.URL, Cause: err}
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	switch {
	case !hasRawVectorDim && cfg.VectorDim == 0:
		return &ConfigError{Code: ConfigErrorMissingVectorDim}
	case cfg.VectorDim <= 0:
		return &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: strconv.Itoa(cfg.VectorDim)}
	}
	return nil
}
