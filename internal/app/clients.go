package app

import (
	"fmt"

	"github.com/yungbote/autocrm-backend/internal/platform/kafkabus"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/openai"
	"github.com/yungbote/autocrm-backend/internal/platform/rediscache"
	"github.com/yungbote/autocrm-backend/internal/platform/sendgrid"
)

// Clients holds the outbound provider clients. SendGrid, the embedding
// cache and the event bus are optional and stay nil when not configured.
type Clients struct {
	OpenAI         openai.Client
	SendGrid       sendgrid.Client
	EmbeddingCache rediscache.EmbeddingCache
	Events         kafkabus.Publisher
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// OpenAI
	openaiClient, err := openai.New(log, openai.ConfigFromEnv())
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// SendGrid
	var sg sendgrid.Client
	if sgCfg := sendgrid.ConfigFromEnv(); sgCfg.APIKey != "" {
		sg, err = sendgrid.New(log, sgCfg)
		if err != nil {
			return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
		}
	} else {
		log.Warn("SENDGRID_API_KEY not set; ticket notifications are logged only")
	}

	// Redis
	var cache rediscache.EmbeddingCache
	if cacheCfg := rediscache.ConfigFromEnv(); cacheCfg.Addr != "" {
		cache, err = rediscache.NewEmbeddingCache(log, cacheCfg)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis embedding cache: %w", err)
		}
	}

	// Kafka
	var events kafkabus.Publisher
	if busCfg := kafkabus.ConfigFromEnv(); len(busCfg.Brokers) > 0 {
		events, err = kafkabus.New(log, busCfg)
		if err != nil {
			if cache != nil {
				_ = cache.Close()
			}
			return Clients{}, fmt.Errorf("init kafka publisher: %w", err)
		}
	}

	return Clients{
		OpenAI:         openaiClient,
		SendGrid:       sg,
		EmbeddingCache: cache,
		Events:         events,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.EmbeddingCache != nil {
		_ = c.EmbeddingCache.Close()
	}
	if c.Events != nil {
		_ = c.Events.Close()
	}
}
