package domain

import (
	"github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/domain/user"
)

type Ticket = support.Ticket
type TicketStatus = support.TicketStatus
type Priority = support.Priority
type Message = support.Message
type Sender = support.Sender
type ResolutionAssessment = support.ResolutionAssessment
type ResolutionStatus = support.ResolutionStatus

type Article = knowledge.Article
type ArticleStatus = knowledge.ArticleStatus
type ArticleSuggestion = knowledge.Suggestion

type User = user.User
type Role = user.Role

// Models lists every persisted model, in migration order.
func Models() []any {
	return []any{
		&user.User{},
		&support.Ticket{},
		&support.Message{},
		&knowledge.Article{},
	}
}
