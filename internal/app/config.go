package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/autocrm-backend/internal/assist"
	"github.com/yungbote/autocrm-backend/internal/data/db"
	httpMW "github.com/yungbote/autocrm-backend/internal/http/middleware"
	"github.com/yungbote/autocrm-backend/internal/knowledge"
	"github.com/yungbote/autocrm-backend/internal/llm"
	"github.com/yungbote/autocrm-backend/internal/observability"
	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/resolution"
	"github.com/yungbote/autocrm-backend/internal/services"
)

const serviceName = "autocrm-backend"

type Config struct {
	ServiceName string
	Address     string
	DatabaseURL string
	AutoMigrate bool

	Auth        httpMW.AuthConfig
	CORSOrigins []string

	VectorProvider VectorProvider
	// VectorDim sizes the pgvector column; it must match the embedding model.
	VectorDim     int
	PgvectorTable string

	CompletionMode  llm.Mode
	CompletionModel string

	Policy   resolution.Policy
	Assist   assist.Config
	Sync     knowledge.SyncConfig
	Tickets  services.TicketServiceConfig
	Notifier services.NotifierConfig
	Otel     observability.OtelConfig
}

// LoadConfig reads the environment. Values that would only fail later at
// request time (unknown provider, bad policy) are rejected here.
func LoadConfig() (Config, error) {
	provider, err := ParseVectorProvider(envutil.String("VECTOR_PROVIDER", string(VectorProviderPinecone)))
	if err != nil {
		return Config{}, err
	}
	mode, err := llm.ModeFromEnv()
	if err != nil {
		return Config{}, err
	}
	policy, err := resolution.PolicyFromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		ServiceName: envutil.String("SERVICE_NAME", serviceName),
		Address:     ":" + envutil.String("PORT", "8080"),
		DatabaseURL: db.DSNFromEnv(),
		AutoMigrate: envutil.Bool("AUTO_MIGRATE", true),
		Auth: httpMW.AuthConfig{
			Secret:   envutil.String("JWT_SECRET", ""),
			Issuer:   envutil.String("JWT_ISSUER", ""),
			Audience: envutil.String("JWT_AUDIENCE", ""),
			Leeway:   envutil.Duration("JWT_LEEWAY", 30*time.Second),
		},
		CORSOrigins:     splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		VectorProvider:  provider,
		VectorDim:       envutil.Int("EMBEDDING_DIM", 1536),
		PgvectorTable:   envutil.String("PGVECTOR_TABLE", ""),
		CompletionMode:  mode,
		CompletionModel: envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		Policy:          policy,
		Assist:          assist.ConfigFromEnv(),
		Sync:            knowledge.SyncConfigFromEnv(),
		Tickets: services.TicketServiceConfig{
			HistoryLimit: envutil.Int("TICKET_HISTORY_LIMIT", 20),
			ArticleLimit: envutil.Int("TICKET_ARTICLE_LIMIT", 3),
		},
		Notifier: services.NotifierConfigFromEnv(),
	}
	cfg.Otel = observability.OtelConfigFromEnv(cfg.ServiceName)
	return cfg, nil
}

// validateServer checks what only the HTTP server needs; the CLI runs without it.
func (c Config) validateServer() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
