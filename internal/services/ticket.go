package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/autocrm-backend/internal/assist"
	"github.com/yungbote/autocrm-backend/internal/data/repos"
	knowledgetypes "github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/domain/user"
	"github.com/yungbote/autocrm-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
	"github.com/yungbote/autocrm-backend/internal/platform/ctxutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/resolution"
)

// TicketAssistant is the slice of the assist service the ticket workflow needs.
type TicketAssistant interface {
	ClassifyPriority(ctx context.Context, title, description string) assist.PriorityResult
	GenerateInitialResponse(ctx context.Context, title, description string, articles []knowledgetypes.Suggestion) assist.Response
	GenerateFollowUpResponse(ctx context.Context, in assist.FollowUpInput) assist.Response
}

type ArticleFinder interface {
	FindSimilar(ctx context.Context, text string, limit int) []knowledgetypes.Suggestion
}

type TicketDetail struct {
	Ticket   *support.Ticket    `json:"ticket"`
	Messages []*support.Message `json:"messages"`
}

// MessageExchange is the result of a customer message: their message, the
// assistant's reply and the ticket after the resolution policy ran.
type MessageExchange struct {
	Ticket        *support.Ticket  `json:"ticket"`
	Message       *support.Message `json:"message"`
	Reply         *support.Message `json:"reply,omitempty"`
	StatusChanged bool             `json:"status_changed"`
}

type ListTicketsInput struct {
	Status     support.TicketStatus
	Priority   support.Priority
	AssignedTo *uuid.UUID
	Limit      int
	Offset     int
}

type TicketService interface {
	CreateTicket(ctx context.Context, title, description string) (*TicketDetail, error)
	AddCustomerMessage(ctx context.Context, ticketID uuid.UUID, content string) (*MessageExchange, error)
	AddWorkerMessage(ctx context.Context, ticketID uuid.UUID, content string) (*support.Message, error)
	UpdateStatus(ctx context.Context, ticketID uuid.UUID, status support.TicketStatus) (*support.Ticket, error)
	// Assign sets or, with a nil assignee, clears the ticket's worker.
	Assign(ctx context.Context, ticketID uuid.UUID, assignee *uuid.UUID) (*support.Ticket, error)
	Reopen(ctx context.Context, ticketID uuid.UUID) (*support.Ticket, error)
	GetTicket(ctx context.Context, ticketID uuid.UUID) (*TicketDetail, error)
	// ListTickets shows customers their own tickets; staff see everything, filtered.
	ListTickets(ctx context.Context, in ListTicketsInput) ([]*support.Ticket, error)
}

type TicketServiceConfig struct {
	HistoryLimit int
	ArticleLimit int
}

type ticketService struct {
	db          *gorm.DB
	log         *logger.Logger
	ticketRepo  repos.TicketRepo
	messageRepo repos.MessageRepo
	userRepo    repos.UserRepo
	assistant   TicketAssistant
	articles    ArticleFinder
	policy      resolution.Policy
	notifier    TicketNotifier
	cfg         TicketServiceConfig
}

func NewTicketService(
	db *gorm.DB,
	log *logger.Logger,
	ticketRepo repos.TicketRepo,
	messageRepo repos.MessageRepo,
	userRepo repos.UserRepo,
	assistant TicketAssistant,
	articles ArticleFinder,
	policy resolution.Policy,
	notifier TicketNotifier,
	cfg TicketServiceConfig,
) TicketService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	if cfg.ArticleLimit <= 0 {
		cfg.ArticleLimit = 3
	}
	return &ticketService{
		db:          db,
		log:         log.With("service", "TicketService"),
		ticketRepo:  ticketRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		assistant:   assistant,
		articles:    articles,
		policy:      policy,
		notifier:    notifier,
		cfg:         cfg,
	}
}

func (s *ticketService) CreateTicket(ctx context.Context, title, description string) (*TicketDetail, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: title and description are required", apperr.ErrInvalidArgument)
	}

	// Neither branch can fail; AI problems already collapse to defaults.
	var priority assist.PriorityResult
	var reply assist.Response
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		priority = s.assistant.ClassifyPriority(gctx, title, description)
		return nil
	})
	g.Go(func() error {
		related := s.articles.FindSimilar(gctx, title+"\n\n"+description, s.cfg.ArticleLimit)
		reply = s.assistant.GenerateInitialResponse(gctx, title, description, related)
		return nil
	})
	_ = g.Wait()

	ticket := &support.Ticket{
		Title:          title,
		Description:    description,
		Status:         support.StatusOpen,
		Priority:       priority.Priority,
		PriorityReason: priority.Reason,
		SubmittedBy:    id.UserID,
	}
	aiMsg := aiMessage(reply)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.ticketRepo.Create(dbc, ticket); err != nil {
			return err
		}
		aiMsg.TicketID = ticket.ID
		if _, err := s.messageRepo.Create(dbc, aiMsg); err != nil {
			return err
		}
		_, err := s.applyResolution(dbc, ticket, reply.Resolution)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.log.Info("Ticket created",
		"ticket_id", ticket.ID,
		"submitted_by", ticket.SubmittedBy,
		"priority", ticket.Priority,
		"status", ticket.Status,
		"resolution", reply.Resolution.Status,
		"confidence", reply.Resolution.Confidence,
	)
	customer := s.lookupUser(ctx, ticket.SubmittedBy)
	s.notifier.TicketCreated(ctx, customer, ticket, aiMsg)
	return &TicketDetail{Ticket: ticket, Messages: []*support.Message{aiMsg}}, nil
}

func (s *ticketService) AddCustomerMessage(ctx context.Context, ticketID uuid.UUID, content string) (*MessageExchange, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", apperr.ErrInvalidArgument)
	}
	ticket, err := s.ticketRepo.GetByID(dbctx.New(ctx), ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.SubmittedBy != id.UserID {
		return nil, fmt.Errorf("%w: ticket belongs to another customer", apperr.ErrForbidden)
	}
	if ticket.Status == support.StatusClosed {
		return nil, fmt.Errorf("%w: ticket is closed", apperr.ErrInvalidTransition)
	}

	history, err := s.messageRepo.ListRecent(dbctx.New(ctx), ticket.ID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	customerMsg := support.NewMessage(ticket.ID, support.Human(id.UserID), id.Name, content)
	if _, err := s.messageRepo.Create(dbctx.New(ctx), customerMsg); err != nil {
		return nil, err
	}

	related := s.articles.FindSimilar(ctx, content, s.cfg.ArticleLimit)
	reply := s.assistant.GenerateFollowUpResponse(ctx, assist.FollowUpInput{
		TicketID:     ticket.ID,
		Title:        ticket.Title,
		UserMessage:  content,
		History:      history,
		TicketStatus: ticket.Status,
		Articles:     related,
	})

	aiMsg := aiMessage(reply)
	aiMsg.TicketID = ticket.ID
	var from support.TicketStatus
	var changed bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		locked, err := s.ticketRepo.GetForUpdate(dbc, ticket.ID)
		if err != nil {
			return err
		}
		ticket = locked
		from = ticket.Status
		if _, err := s.messageRepo.Create(dbc, aiMsg); err != nil {
			return err
		}
		changed, err = s.applyResolution(dbc, ticket, reply.Resolution)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record assistant reply: %w", err)
	}

	if changed {
		s.log.Info("Ticket status changed by assistant",
			"ticket_id", ticket.ID, "from", from, "to", ticket.Status,
			"confidence", reply.Resolution.Confidence)
		s.notifier.StatusChanged(ctx, s.lookupUser(ctx, ticket.SubmittedBy), ticket, from)
	}
	return &MessageExchange{Ticket: ticket, Message: customerMsg, Reply: aiMsg, StatusChanged: changed}, nil
}

func (s *ticketService) AddWorkerMessage(ctx context.Context, ticketID uuid.UUID, content string) (*support.Message, error) {
	id, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", apperr.ErrInvalidArgument)
	}
	ticket, err := s.ticketRepo.GetByID(dbctx.New(ctx), ticketID)
	if err != nil {
		return nil, err
	}
	msg := support.NewMessage(ticket.ID, support.Human(id.UserID), id.Name, content)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.messageRepo.Create(dbc, msg); err != nil {
			return err
		}
		return s.ticketRepo.UpdateFields(dbc, ticket.ID, map[string]interface{}{"updated_at": time.Now().UTC()})
	})
	if err != nil {
		return nil, fmt.Errorf("add worker message: %w", err)
	}
	s.notifier.TicketReplied(ctx, s.lookupUser(ctx, ticket.SubmittedBy), ticket, msg)
	return msg, nil
}

func (s *ticketService) UpdateStatus(ctx context.Context, ticketID uuid.UUID, status support.TicketStatus) (*support.Ticket, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	var ticket *support.Ticket
	var from support.TicketStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		t, err := s.ticketRepo.GetForUpdate(dbc, ticketID)
		if err != nil {
			return err
		}
		if err := resolution.CheckTransition(t.Status, status); err != nil {
			return err
		}
		if err := s.ticketRepo.UpdateFields(dbc, t.ID, map[string]interface{}{"status": status}); err != nil {
			return err
		}
		from = t.Status
		t.Status = status
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.StatusChanged(ctx, s.lookupUser(ctx, ticket.SubmittedBy), ticket, from)
	return s.ticketRepo.GetByID(dbctx.New(ctx), ticket.ID)
}

func (s *ticketService) Assign(ctx context.Context, ticketID uuid.UUID, assignee *uuid.UUID) (*support.Ticket, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	if assignee != nil {
		worker, err := s.userRepo.GetByID(dbctx.New(ctx), *assignee)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown assignee", apperr.ErrInvalidArgument)
		}
		if !worker.Role.IsStaff() {
			return nil, fmt.Errorf("%w: tickets can only be assigned to workers or admins", apperr.ErrInvalidArgument)
		}
	}
	var assigned interface{}
	if assignee != nil {
		assigned = *assignee
	}
	if err := s.ticketRepo.UpdateFields(dbctx.New(ctx), ticketID, map[string]interface{}{"assigned_to": assigned}); err != nil {
		return nil, err
	}
	s.log.Info("Ticket assigned", "ticket_id", ticketID, "assigned_to", assignee)
	return s.ticketRepo.GetByID(dbctx.New(ctx), ticketID)
}

func (s *ticketService) Reopen(ctx context.Context, ticketID uuid.UUID) (*support.Ticket, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var ticket *support.Ticket
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		t, err := s.ticketRepo.GetForUpdate(dbc, ticketID)
		if err != nil {
			return err
		}
		if t.SubmittedBy != id.UserID {
			return fmt.Errorf("%w: only the customer who opened the ticket can re-open it", apperr.ErrForbidden)
		}
		next, err := resolution.Reopen(t.Status)
		if err != nil {
			return err
		}
		if err := s.ticketRepo.UpdateFields(dbc, t.ID, map[string]interface{}{"status": next}); err != nil {
			return err
		}
		t.Status = next
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Ticket re-opened", "ticket_id", ticket.ID, "customer_id", id.UserID)
	return s.ticketRepo.GetByID(dbctx.New(ctx), ticket.ID)
}

func (s *ticketService) GetTicket(ctx context.Context, ticketID uuid.UUID) (*TicketDetail, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketRepo.GetByID(dbctx.New(ctx), ticketID)
	if err != nil {
		return nil, err
	}
	if !isStaff(id) && ticket.SubmittedBy != id.UserID {
		return nil, fmt.Errorf("%w: ticket belongs to another customer", apperr.ErrForbidden)
	}
	msgs, err := s.messageRepo.ListByTicket(dbctx.New(ctx), ticket.ID)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: ticket, Messages: msgs}, nil
}

func (s *ticketService) ListTickets(ctx context.Context, in ListTicketsInput) ([]*support.Ticket, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	f := repos.TicketFilter{
		Status:   in.Status,
		Priority: in.Priority,
		Limit:    in.Limit,
		Offset:   in.Offset,
	}
	if isStaff(id) {
		f.AssignedTo = in.AssignedTo
	} else {
		owner := id.UserID
		f.SubmittedBy = &owner
	}
	return s.ticketRepo.List(dbctx.New(ctx), f)
}

// applyResolution runs the policy against t and persists a status change.
func (s *ticketService) applyResolution(dbc dbctx.Context, t *support.Ticket, a support.ResolutionAssessment) (bool, error) {
	next, changed := s.policy.Apply(t.Status, a)
	if !changed {
		return false, nil
	}
	if err := s.ticketRepo.UpdateFields(dbc, t.ID, map[string]interface{}{"status": next}); err != nil {
		return false, err
	}
	t.Status = next
	return true, nil
}

func (s *ticketService) lookupUser(ctx context.Context, id uuid.UUID) *user.User {
	u, err := s.userRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		s.log.Warn("Could not load user for notification", "user_id", id, "error", err)
		return nil
	}
	return u
}

func aiMessage(r assist.Response) *support.Message {
	m := support.NewMessage(uuid.Nil, support.AIAssistant(), support.AIAssistantName, r.Message)
	res := r.Resolution
	m.Resolution = &res
	return m
}

func requireIdentity(ctx context.Context) (*ctxutil.Identity, error) {
	id := ctxutil.GetIdentity(ctx)
	if id == nil || id.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	return id, nil
}

func requireStaff(ctx context.Context) (*ctxutil.Identity, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if !isStaff(id) {
		return nil, fmt.Errorf("%w: staff only", apperr.ErrForbidden)
	}
	return id, nil
}

func isStaff(id *ctxutil.Identity) bool {
	role, ok := user.ParseRole(id.Role)
	return ok && role.IsStaff()
}
