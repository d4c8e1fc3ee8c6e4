package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/domain/user"
	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/sendgrid"
)

// TicketNotifier tells customers about activity on their tickets. Implementations
// log delivery failures instead of returning them.
type TicketNotifier interface {
	TicketCreated(ctx context.Context, customer *user.User, t *support.Ticket, reply *support.Message)
	TicketReplied(ctx context.Context, customer *user.User, t *support.Ticket, reply *support.Message)
	StatusChanged(ctx context.Context, customer *user.User, t *support.Ticket, from support.TicketStatus)
}

type NotifierConfig struct {
	// AppURL is used to build ticket links; links are omitted when empty.
	AppURL string
}

func NotifierConfigFromEnv() NotifierConfig {
	return NotifierConfig{AppURL: strings.TrimRight(envutil.String("APP_URL", ""), "/")}
}

// =========================
// Email notifier
// =========================

type emailNotifier struct {
	log *logger.Logger
	sg  sendgrid.Client
	cfg NotifierConfig
}

func NewEmailNotifier(log *logger.Logger, sg sendgrid.Client, cfg NotifierConfig) TicketNotifier {
	return &emailNotifier{log: log.With("notifier", "email"), sg: sg, cfg: cfg}
}

func (n *emailNotifier) TicketCreated(ctx context.Context, customer *user.User, t *support.Ticket, reply *support.Message) {
	body := fmt.Sprintf("Hi %s,\n\nWe received your ticket \"%s\" and gave it %s priority.", displayName(customer), t.Title, t.Priority)
	if reply != nil {
		body += "\n\nOur assistant replied:\n\n" + reply.Content
	}
	n.send(ctx, customer, t, "ticket_created", fmt.Sprintf("[Ticket] %s", t.Title), body)
}

func (n *emailNotifier) TicketReplied(ctx context.Context, customer *user.User, t *support.Ticket, reply *support.Message) {
	if reply == nil {
		return
	}
	body := fmt.Sprintf("Hi %s,\n\n%s replied to your ticket \"%s\":\n\n%s", displayName(customer), reply.SenderName, t.Title, reply.Content)
	n.send(ctx, customer, t, "ticket_replied", fmt.Sprintf("Re: [Ticket] %s", t.Title), body)
}

func (n *emailNotifier) StatusChanged(ctx context.Context, customer *user.User, t *support.Ticket, from support.TicketStatus) {
	body := fmt.Sprintf("Hi %s,\n\nYour ticket \"%s\" moved from %s to %s.", displayName(customer), t.Title, from, t.Status)
	if t.Status == support.StatusResolved {
		body += "\n\nIf this did not solve your problem you can re-open the ticket."
	}
	n.send(ctx, customer, t, "status_changed", fmt.Sprintf("[Ticket %s] %s", t.Status, t.Title), body)
}

func (n *emailNotifier) send(ctx context.Context, customer *user.User, t *support.Ticket, category, subject, body string) {
	if customer == nil || strings.TrimSpace(customer.Email) == "" {
		n.log.Debug("Skipping notification without recipient", "ticket_id", t.ID, "category", category)
		return
	}
	if n.cfg.AppURL != "" {
		body += fmt.Sprintf("\n\nView your ticket: %s/tickets/%s", n.cfg.AppURL, t.ID)
	}
	res, err := n.sg.Send(ctx, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: customer.Email, Name: displayName(customer)}},
		Subject:    subject,
		Text:       body,
		Categories: []string{"autocrm", category},
		CustomArgs: map[string]string{"ticket_id": t.ID.String()},
	})
	if err != nil {
		n.log.Warn("Ticket notification failed", "ticket_id", t.ID, "category", category, "error", err)
		return
	}
	n.log.Debug("Ticket notification sent", "ticket_id", t.ID, "category", category, "message_id", res.MessageID)
}

// =========================
// Log-only notifier
// =========================

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier is used when email delivery is not configured.
func NewLogNotifier(log *logger.Logger) TicketNotifier {
	return &logNotifier{log: log.With("notifier", "log")}
}

func (n *logNotifier) TicketCreated(ctx context.Context, customer *user.User, t *support.Ticket, reply *support.Message) {
	n.log.Info("Ticket created", "ticket_id", t.ID, "customer_id", t.SubmittedBy, "priority", t.Priority)
}

func (n *logNotifier) TicketReplied(ctx context.Context, customer *user.User, t *support.Ticket, reply *support.Message) {
	n.log.Info("Ticket replied", "ticket_id", t.ID, "customer_id", t.SubmittedBy)
}

func (n *logNotifier) StatusChanged(ctx context.Context, customer *user.User, t *support.Ticket, from support.TicketStatus) {
	n.log.Info("Ticket status changed", "ticket_id", t.ID, "from", from, "to", t.Status)
}

func displayName(u *user.User) string {
	if u == nil {
		return "there"
	}
	return u.DisplayName()
}
