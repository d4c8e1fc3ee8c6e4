package support

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/autocrm-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/pkg/dbctx"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type TicketFilter struct {
	SubmittedBy *uuid.UUID
	AssignedTo  *uuid.UUID
	Status      types.TicketStatus
	Priority    types.Priority
	Limit       int
	Offset      int
}

type TicketRepo interface {
	Create(dbc dbctx.Context, t *types.Ticket) (*types.Ticket, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Ticket, error)
	// GetForUpdate takes a row lock on dialects that support one.
	GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Ticket, error)
	List(dbc dbctx.Context, f TicketFilter) ([]*types.Ticket, error)
	// UpdateFields bumps updated_at alongside the given columns.
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type ticketRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTicketRepo(db *gorm.DB, log *logger.Logger) TicketRepo {
	return &ticketRepo{db: db, log: log.With("repo", "TicketRepo")}
}

func (r *ticketRepo) Create(dbc dbctx.Context, t *types.Ticket) (*types.Ticket, error) {
	if t == nil {
		return nil, fmt.Errorf("missing ticket")
	}
	if t.SubmittedBy == uuid.Nil {
		return nil, fmt.Errorf("missing submitted_by")
	}
	if err := dbc.DB(r.db).Create(t).Error; err != nil {
		return nil, repoerr.Map("create ticket", err)
	}
	return t, nil
}

func (r *ticketRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Ticket, error) {
	var out types.Ticket
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, repoerr.Map("get ticket", err)
	}
	return &out, nil
}

func (r *ticketRepo) GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Ticket, error) {
	txx := dbc.DB(r.db)
	if txx.Dialector != nil && txx.Dialector.Name() == "postgres" {
		txx = txx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out types.Ticket
	if err := txx.Where("id = ?", id).First(&out).Error; err != nil {
		return nil, repoerr.Map("get ticket for update", err)
	}
	return &out, nil
}

func (r *ticketRepo) List(dbc dbctx.Context, f TicketFilter) ([]*types.Ticket, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q := dbc.DB(r.db).Model(&types.Ticket{})
	if f.SubmittedBy != nil {
		q = q.Where("submitted_by = ?", *f.SubmittedBy)
	}
	if f.AssignedTo != nil {
		q = q.Where("assigned_to = ?", *f.AssignedTo)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	var out []*types.Ticket
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, repoerr.Map("list tickets", err)
	}
	return out, nil
}

func (r *ticketRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing ticket id")
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := dbc.DB(r.db).Model(&types.Ticket{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return repoerr.Map("update ticket", res.Error)
	}
	if res.RowsAffected == 0 {
		return repoerr.Map("update ticket", gorm.ErrRecordNotFound)
	}
	return nil
}
