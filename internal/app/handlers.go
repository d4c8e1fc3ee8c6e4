package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/autocrm-backend/internal/http/handlers"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	AI         *httpH.AIHandler
	Completion *httpH.CompletionHandler
	Chat       *httpH.ChatHandler
	Knowledge  *httpH.KnowledgeHandler
	Article    *httpH.ArticleHandler
	Ticket     *httpH.TicketHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, svc Services) (Handlers, error) {
	log.Info("Wiring handlers...")
	sqlDB, err := db.DB()
	if err != nil {
		return Handlers{}, err
	}
	return Handlers{
		Health: httpH.NewHealthHandler(sqlDB),
		AI: httpH.NewAIHandler(httpH.AIHandlerDeps{
			Log:          log,
			AI:           svc.Assist,
			Finder:       svc.Retriever,
			Tickets:      svc.Tickets,
			ArticleLimit: cfg.Tickets.ArticleLimit,
		}),
		Completion: httpH.NewCompletionHandler(log, svc.EndpointCompleter, cfg.CompletionModel),
		Chat:       httpH.NewChatHandler(svc.Assist),
		Knowledge:  httpH.NewKnowledgeHandler(log, svc.Articles),
		Article:    httpH.NewArticleHandler(log, svc.Articles),
		Ticket:     httpH.NewTicketHandler(log, svc.Tickets),
	}, nil
}
