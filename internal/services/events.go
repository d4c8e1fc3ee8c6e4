package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/domain/user"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

const (
	EventTicketCreated       = "ticket.created"
	EventTicketReplied       = "ticket.replied"
	EventTicketStatusChanged = "ticket.status_changed"
)

// EventPublisher is satisfied by kafkabus.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, key string, headers map[string]string, value any) error
}

type TicketEvent struct {
	ID             string               `json:"id"`
	Type           string               `json:"type"`
	TicketID       uuid.UUID            `json:"ticketId"`
	CustomerID     uuid.UUID            `json:"customerId"`
	Status         support.TicketStatus `json:"status"`
	PreviousStatus support.TicketStatus `json:"previousStatus,omitempty"`
	Priority       support.Priority     `json:"priority"`
	MessageID      *uuid.UUID           `json:"messageId,omitempty"`
	SenderKind     support.SenderKind   `json:"senderKind,omitempty"`
	OccurredAt     time.Time            `json:"occurredAt"`
}

type eventNotifier struct {
	log *logger.Logger
	pub EventPublisher
}

// NewEventNotifier publishes ticket activity for downstream consumers.
func NewEventNotifier(log *logger.Logger, pub EventPublisher) TicketNotifier {
	return &eventNotifier{log: log.With("notifier", "events"), pub: pub}
}

func (n *eventNotifier) TicketCreated(ctx context.Context, customer *user.User, t *support.Ticket, reply *support.Message) {
	n.publish(ctx, newTicketEvent(EventTicketCreated, t, reply))
}

func (n *eventNotifier) TicketReplied(ctx context.Context, customer *user.User, t *support.Ticket, reply *support.Message) {
	n.publish(ctx, newTicketEvent(EventTicketReplied, t, reply))
}

func (n *eventNotifier) StatusChanged(ctx context.Context, customer *user.User, t *support.Ticket, from support.TicketStatus) {
	ev := newTicketEvent(EventTicketStatusChanged, t, nil)
	ev.PreviousStatus = from
	n.publish(ctx, ev)
}

func (n *eventNotifier) publish(ctx context.Context, ev TicketEvent) {
	headers := map[string]string{"event_type": ev.Type, "event_id": ev.ID}
	if err := n.pub.Publish(ctx, ev.TicketID.String(), headers, ev); err != nil {
		n.log.Warn("Ticket event publish failed", "ticket_id", ev.TicketID, "event_type", ev.Type, "error", err)
	}
}

func newTicketEvent(kind string, t *support.Ticket, msg *support.Message) TicketEvent {
	ev := TicketEvent{
		ID:         ulid.Make().String(),
		Type:       kind,
		TicketID:   t.ID,
		CustomerID: t.SubmittedBy,
		Status:     t.Status,
		Priority:   t.Priority,
		OccurredAt: time.Now().UTC(),
	}
	if msg != nil {
		id := msg.ID
		ev.MessageID = &id
		ev.SenderKind = msg.SenderKind
	}
	return ev
}

type multiNotifier []TicketNotifier

// CombineNotifiers fans every call out to each non-nil notifier in order.
func CombineNotifiers(ns ...TicketNotifier) TicketNotifier {
	var out multiNotifier
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multiNotifier) TicketCreated(ctx context.Context, customer *user.User, t *support.Ticket, reply *support.Message) {
	for _, n := range m {
		n.TicketCreated(ctx, customer, t, reply)
	}
}

func (m multiNotifier) TicketReplied(ctx context.Context, customer *user.User, t *support.Ticket, reply *support.Message) {
	for _, n := range m {
		n.TicketReplied(ctx, customer, t, reply)
	}
}

func (m multiNotifier) StatusChanged(ctx context.Context, customer *user.User, t *support.Ticket, from support.TicketStatus) {
	for _, n := range m {
		n.StatusChanged(ctx, customer, t, from)
	}
}
