package support

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/autocrm-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/pkg/dbctx"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, rows ...*types.Message) ([]*types.Message, error)
	// ListByTicket returns messages oldest first.
	ListByTicket(dbc dbctx.Context, ticketID uuid.UUID) ([]*types.Message, error)
	// ListRecent returns the newest limit messages, oldest first.
	ListRecent(dbc dbctx.Context, ticketID uuid.UUID, limit int) ([]*types.Message, error)
	CountByTicket(dbc dbctx.Context, ticketID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, rows ...*types.Message) ([]*types.Message, error) {
	if len(rows) == 0 {
		return []*types.Message{}, nil
	}
	for _, m := range rows {
		if m == nil || m.TicketID == uuid.Nil {
			return nil, fmt.Errorf("message missing ticket_id")
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, repoerr.Map("create messages", err)
	}
	return rows, nil
}

func (r *messageRepo) ListByTicket(dbc dbctx.Context, ticketID uuid.UUID) ([]*types.Message, error) {
	if ticketID == uuid.Nil {
		return nil, fmt.Errorf("missing ticket_id")
	}
	var out []*types.Message
	if err := dbc.DB(r.db).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, repoerr.Map("list messages", err)
	}
	return out, nil
}

func (r *messageRepo) ListRecent(dbc dbctx.Context, ticketID uuid.UUID, limit int) ([]*types.Message, error) {
	if ticketID == uuid.Nil {
		return nil, fmt.Errorf("missing ticket_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	var out []*types.Message
	if err := dbc.DB(r.db).
		Where("ticket_id = ?", ticketID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, repoerr.Map("list recent messages", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *messageRepo) CountByTicket(dbc dbctx.Context, ticketID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Message{}).Where("ticket_id = ?", ticketID).Count(&n).Error; err != nil {
		return 0, repoerr.Map("count messages", err)
	}
	return n, nil
}
