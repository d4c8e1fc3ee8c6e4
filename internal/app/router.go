package app

import (
	server "github.com/yungbote/autocrm-backend/internal/http"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, h Handlers, mw Middleware) *server.Server {
	log.Info("Wiring router...")
	return server.NewServer(server.RouterConfig{
		Log:               log,
		ServiceName:       cfg.ServiceName,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    mw.Auth,
		HealthHandler:     h.Health,
		AIHandler:         h.AI,
		CompletionHandler: h.Completion,
		ChatHandler:       h.Chat,
		KnowledgeHandler:  h.Knowledge,
		ArticleHandler:    h.Article,
		TicketHandler:     h.Ticket,
	})
}
