package support

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SenderKind string

const (
	SenderHuman       SenderKind = "human"
	SenderAIAssistant SenderKind = "ai_assistant"
)

// Sender is either a human user or the AI assistant.
type Sender struct {
	Kind   SenderKind
	UserID uuid.UUID
}

func Human(userID uuid.UUID) Sender { return Sender{Kind: SenderHuman, UserID: userID} }

func AIAssistant() Sender { return Sender{Kind: SenderAIAssistant} }

func (s Sender) IsAI() bool { return s.Kind == SenderAIAssistant }

const AIAssistantName = "AI Assistant"

type Message struct {
	ID         uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID   uuid.UUID             `gorm:"type:uuid;column:ticket_id;not null;index" json:"ticket_id"`
	SenderKind SenderKind            `gorm:"column:sender_kind;not null" json:"sender_kind"`
	SenderID   *uuid.UUID            `gorm:"type:uuid;column:sender_id;index" json:"sender_id,omitempty"`
	SenderName string                `gorm:"column:sender_name" json:"sender_name"`
	Content    string                `gorm:"column:content;type:text;not null" json:"content"`
	Resolution *ResolutionAssessment `gorm:"column:resolution;type:jsonb" json:"resolution,omitempty"`
	CreatedAt  time.Time             `gorm:"not null;index" json:"created_at"`
}

func (Message) TableName() string { return "ticket_message" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func NewMessage(ticketID uuid.UUID, sender Sender, senderName, content string) *Message {
	m := &Message{TicketID: ticketID, SenderKind: sender.Kind, SenderName: senderName, Content: content}
	if sender.Kind == SenderHuman {
		id := sender.UserID
		m.SenderID = &id
	}
	if sender.IsAI() && senderName == "" {
		m.SenderName = AIAssistantName
	}
	return m
}

func (m *Message) Sender() Sender {
	if m.SenderKind == SenderAIAssistant || m.SenderID == nil {
		return AIAssistant()
	}
	return Human(*m.SenderID)
}
