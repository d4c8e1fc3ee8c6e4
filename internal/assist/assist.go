package assist

import (
	"github.com/yungbote/autocrm-backend/internal/knowledge"
	"github.com/yungbote/autocrm-backend/internal/llm"
	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type Config struct {
	// Model overrides the completer's default model when set.
	Model               string
	Temperature         float64
	ResponseMaxTokens   int
	SimilarityThreshold float64
	ChatArticleLimit    int
}

func ConfigFromEnv() Config {
	return Config{
		Model:               envutil.String("ASSIST_MODEL", ""),
		Temperature:         envutil.Float("ASSIST_TEMPERATURE", 0.3),
		ResponseMaxTokens:   envutil.Int("ASSIST_RESPONSE_MAX_TOKENS", 1000),
		SimilarityThreshold: knowledge.SimilarityThresholdFromEnv(),
		ChatArticleLimit:    envutil.Int("CHAT_ARTICLE_LIMIT", 3),
	}
}

// Service runs every AI-backed support operation. Except GenerateEmbedding, no
// operation returns an error: provider and parse failures produce a documented default.
type Service struct {
	log       *logger.Logger
	completer llm.Completer
	retriever *knowledge.Retriever
	embedder  knowledge.Embedder
	cfg       Config
}

func New(log *logger.Logger, completer llm.Completer, retriever *knowledge.Retriever, embedder knowledge.Embedder, cfg Config) *Service {
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.ResponseMaxTokens <= 0 {
		cfg.ResponseMaxTokens = 1000
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = knowledge.DefaultSimilarityThreshold
	}
	if cfg.ChatArticleLimit <= 0 {
		cfg.ChatArticleLimit = 3
	}
	return &Service{
		log:       log.With("service", "AssistService"),
		completer: completer,
		retriever: retriever,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (s *Service) options(maxTokens int, def string) llm.Options {
	return llm.Options{
		Model:       s.cfg.Model,
		Temperature: llm.Float(s.cfg.Temperature),
		MaxTokens:   maxTokens,
		Default:     def,
	}
}
