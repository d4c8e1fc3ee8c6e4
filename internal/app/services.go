package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/autocrm-backend/internal/assist"
	"github.com/yungbote/autocrm-backend/internal/knowledge"
	"github.com/yungbote/autocrm-backend/internal/llm"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
	"github.com/yungbote/autocrm-backend/internal/services"
)

type Services struct {
	// RAG pipeline
	Embedder  knowledge.Embedder
	Index     vectorindex.Index
	Retriever *knowledge.Retriever
	Syncer    *knowledge.Syncer
	Completer llm.Completer
	Assist    *assist.Service

	// EndpointCompleter backs POST /api/ai/complete. It always calls OpenAI
	// directly since the proxy mode may point back at that endpoint.
	EndpointCompleter llm.Completer

	// Support workflow
	Notifier services.TicketNotifier
	Tickets  services.TicketService
	Articles services.ArticleService
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	embedder := knowledge.NewEmbedder(clients.OpenAI)
	if clients.EmbeddingCache != nil {
		embedder = knowledge.WithCache(log, embedder, clients.EmbeddingCache)
	}

	index, err := resolveVectorIndex(ctx, log, db, cfg)
	if err != nil {
		return Services{}, err
	}

	completer, endpoint, err := wireCompleters(log, cfg, clients)
	if err != nil {
		return Services{}, err
	}

	retriever := knowledge.NewRetriever(log, embedder, index)
	syncer := knowledge.NewSyncer(log, embedder, index, cfg.Sync)
	assistSvc := assist.New(log, completer, retriever, embedder, cfg.Assist)

	var notifier services.TicketNotifier
	if clients.SendGrid != nil {
		notifier = services.NewEmailNotifier(log, clients.SendGrid, cfg.Notifier)
	} else {
		notifier = services.NewLogNotifier(log)
	}
	if clients.Events != nil {
		notifier = services.CombineNotifiers(notifier, services.NewEventNotifier(log, clients.Events))
	}

	tickets := services.NewTicketService(
		db,
		log,
		reposet.Ticket,
		reposet.Message,
		reposet.User,
		assistSvc,
		retriever,
		cfg.Policy,
		notifier,
		cfg.Tickets,
	)
	articles := services.NewArticleService(log, reposet.Article, syncer, retriever, index, assistSvc)

	log.Info("Resolution policy loaded", "policy", cfg.Policy.String())

	return Services{
		Embedder:  embedder,
		Index:     index,
		Retriever: retriever,
		Syncer:    syncer,
		Completer: completer,
		Assist:    assistSvc,
		Notifier:  notifier,
		Tickets:   tickets,
		Articles:  articles,

		EndpointCompleter: endpoint,
	}, nil
}

// wireCompleters returns the pipeline completer, which honours COMPLETION_MODE,
// and the direct completer served by the completion endpoint.
func wireCompleters(log *logger.Logger, cfg Config, clients Clients) (pipeline, endpoint llm.Completer, err error) {
	endpoint = llm.NewDirect(log, clients.OpenAI)
	switch cfg.CompletionMode {
	case llm.ModeProxy:
		pipeline, err = llm.NewProxy(log, llm.ProxyConfigFromEnv())
		if err != nil {
			return nil, nil, fmt.Errorf("init completion proxy: %w", err)
		}
		return pipeline, endpoint, nil
	default:
		return endpoint, endpoint, nil
	}
}
