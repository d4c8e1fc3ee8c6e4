package app

import (
	httpMW "github.com/yungbote/autocrm-backend/internal/http/middleware"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config, reposet Repos) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, cfg.Auth, reposet.User)}
}
