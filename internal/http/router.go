package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/autocrm-backend/internal/domain/user"
	httpH "github.com/yungbote/autocrm-backend/internal/http/handlers"
	httpMW "github.com/yungbote/autocrm-backend/internal/http/middleware"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	AIHandler         *httpH.AIHandler
	CompletionHandler *httpH.CompletionHandler
	ChatHandler       *httpH.ChatHandler
	KnowledgeHandler  *httpH.KnowledgeHandler
	ArticleHandler    *httpH.ArticleHandler
	TicketHandler     *httpH.TicketHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	staff := httpMW.RequireRole(user.RoleWorker, user.RoleAdmin)
	admin := httpMW.RequireRole(user.RoleAdmin)

	// AI
	if cfg.AIHandler != nil {
		api.POST("/ai", cfg.AIHandler.Handle)
	}
	if cfg.CompletionHandler != nil {
		api.POST("/ai/complete", staff, cfg.CompletionHandler.Complete)
	}
	if cfg.ChatHandler != nil {
		api.POST("/chat", cfg.ChatHandler.Chat)
	}

	// Knowledge base
	if cfg.KnowledgeHandler != nil {
		api.POST("/knowledge/sync", admin, cfg.KnowledgeHandler.Sync)
		api.GET("/knowledge/stats", staff, cfg.KnowledgeHandler.Stats)
	}
	if cfg.ArticleHandler != nil {
		api.GET("/articles", cfg.ArticleHandler.List)
		api.GET("/articles/search", cfg.ArticleHandler.Search)
		api.GET("/articles/:id", cfg.ArticleHandler.Get)
		api.POST("/articles", staff, cfg.ArticleHandler.Create)
		api.PATCH("/articles/:id", staff, cfg.ArticleHandler.Update)
		api.DELETE("/articles/:id", staff, cfg.ArticleHandler.Delete)
	}

	// Tickets
	if cfg.TicketHandler != nil {
		api.GET("/tickets", cfg.TicketHandler.List)
		api.POST("/tickets", cfg.TicketHandler.Create)
		api.GET("/tickets/:id", cfg.TicketHandler.Get)
		api.POST("/tickets/:id/messages", cfg.TicketHandler.AddMessage)
		api.PATCH("/tickets/:id/status", staff, cfg.TicketHandler.UpdateStatus)
		api.PATCH("/tickets/:id/assign", staff, cfg.TicketHandler.Assign)
		api.POST("/tickets/:id/reopen", cfg.TicketHandler.Reopen)
	}

	return r
}
