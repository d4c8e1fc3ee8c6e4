package support

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	StatusOpen       TicketStatus = "Open"
	StatusInProgress TicketStatus = "In Progress"
	StatusResolved   TicketStatus = "Resolved"
	StatusClosed     TicketStatus = "Closed"
	StatusReopened   TicketStatus = "Re-Opened"
)

var AllStatuses = []TicketStatus{StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusReopened}

// ParseTicketStatus accepts the display form ("In Progress") and common
// machine forms ("in_progress", "reopened").
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range AllStatuses {
		if key == strings.NewReplacer("-", "", " ", "").Replace(strings.ToLower(string(s))) {
			return s, true
		}
	}
	return "", false
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func ParsePriority(raw string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	default:
		return "", false
	}
}

type Ticket struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string       `gorm:"column:title;not null" json:"title"`
	Description    string       `gorm:"column:description;type:text;not null" json:"description"`
	Status         TicketStatus `gorm:"column:status;not null;index" json:"status"`
	Priority       Priority     `gorm:"column:priority;not null;index" json:"priority"`
	PriorityReason string       `gorm:"column:priority_reason;type:text" json:"priority_reason,omitempty"`
	SubmittedBy    uuid.UUID    `gorm:"type:uuid;column:submitted_by;not null;index" json:"submitted_by"`
	AssignedTo     *uuid.UUID   `gorm:"type:uuid;column:assigned_to;index" json:"assigned_to,omitempty"`
	CreatedAt      time.Time    `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;index" json:"updated_at"`
}

func (Ticket) TableName() string { return "ticket" }

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
