package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/autocrm-backend/internal/data/repos/knowledge"
	"github.com/yungbote/autocrm-backend/internal/data/repos/support"
	"github.com/yungbote/autocrm-backend/internal/data/repos/user"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type TicketRepo = support.TicketRepo
type TicketFilter = support.TicketFilter
type MessageRepo = support.MessageRepo

type ArticleRepo = knowledge.ArticleRepo
type ArticleFilter = knowledge.ArticleFilter

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewTicketRepo(db *gorm.DB, log *logger.Logger) TicketRepo {
	return support.NewTicketRepo(db, log)
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return support.NewMessageRepo(db, log)
}

func NewArticleRepo(db *gorm.DB, log *logger.Logger) ArticleRepo {
	return knowledge.NewArticleRepo(db, log)
}
