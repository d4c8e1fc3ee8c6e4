package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type published struct {
	key     string
	headers map[string]string
	event   TicketEvent
}

type fakePublisher struct {
	out []published
	err error
}

func (p *fakePublisher) Publish(ctx context.Context, key string, headers map[string]string, value any) error {
	if p.err != nil {
		return p.err
	}
	p.out = append(p.out, published{key: key, headers: headers, event: value.(TicketEvent)})
	return nil
}

func TestEventNotifierPublishesTicketEvents(t *testing.T) {
	pub := &fakePublisher{}
	n := NewEventNotifier(logger.Nop(), pub)
	ticket := &support.Ticket{ID: uuid.New(), SubmittedBy: uuid.New(), Status: support.StatusInProgress, Priority: support.PriorityHigh}
	reply := support.NewMessage(ticket.ID, support.AIAssistant(), "", "Try resetting your password.")
	reply.ID = uuid.New()

	n.TicketCreated(context.Background(), nil, ticket, reply)
	n.StatusChanged(context.Background(), nil, ticket, support.StatusOpen)

	if len(pub.out) != 2 {
		t.Fatalf("want 2 events, got %d", len(pub.out))
	}
	created := pub.out[0]
	if created.key != ticket.ID.String() || created.headers["event_type"] != EventTicketCreated {
		t.Fatalf("created envelope: %+v", created)
	}
	if created.event.MessageID == nil || *created.event.MessageID != reply.ID || created.event.SenderKind != support.SenderAIAssistant {
		t.Fatalf("created event: %+v", created.event)
	}
	if created.event.CustomerID != ticket.SubmittedBy || created.event.ID == "" || created.headers["event_id"] != created.event.ID {
		t.Fatalf("created event ids: %+v", created)
	}
	changed := pub.out[1].event
	if changed.Type != EventTicketStatusChanged || changed.PreviousStatus != support.StatusOpen || changed.Status != support.StatusInProgress {
		t.Fatalf("status event: %+v", changed)
	}
	if changed.ID == created.event.ID {
		t.Fatalf("event ids should be unique")
	}
}

func TestEventNotifierSwallowsPublishErrors(t *testing.T) {
	n := NewEventNotifier(logger.Nop(), &fakePublisher{err: errors.New("broker down")})
	n.TicketReplied(context.Background(), nil, &support.Ticket{ID: uuid.New()}, nil)
}

func TestCombineNotifiersFansOut(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	if got := CombineNotifiers(nil, a); got != TicketNotifier(a) {
		t.Fatalf("single notifier should be returned as is")
	}
	n := CombineNotifiers(a, nil, b)
	ticket := &support.Ticket{ID: uuid.New(), Status: support.StatusResolved}

	n.TicketCreated(context.Background(), nil, ticket, nil)
	n.TicketReplied(context.Background(), nil, ticket, nil)
	n.StatusChanged(context.Background(), nil, ticket, support.StatusOpen)

	for _, r := range []*recordingNotifier{a, b} {
		if len(r.created) != 1 || len(r.replied) != 1 || len(r.statuses) != 1 || r.statuses[0] != support.StatusResolved {
			t.Fatalf("notifier missed calls: %+v", r)
		}
	}
}
