package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/autocrm-backend/internal/data/repos"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type Repos struct {
	User    repos.UserRepo
	Ticket  repos.TicketRepo
	Message repos.MessageRepo
	Article repos.ArticleRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:    repos.NewUserRepo(db, log),
		Ticket:  repos.NewTicketRepo(db, log),
		Message: repos.NewMessageRepo(db, log),
		Article: repos.NewArticleRepo(db, log),
	}
}
