package assist

import (
	"context"
	"strings"

	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/llm"
)

const DefaultPriorityReason = "Default priority due to analysis error"

type PriorityResult struct {
	Priority support.Priority `json:"priority"`
	Reason   string           `json:"reason"`
}

func DefaultPriority() PriorityResult {
	return PriorityResult{Priority: support.PriorityMedium, Reason: DefaultPriorityReason}
}

// ClassifyPriority always returns Low, Medium or High.
func (s *Service) ClassifyPriority(ctx context.Context, title, description string) PriorityResult {
	raw, err := s.completer.Complete(ctx, prioritySystem,
		"Title: "+title+"\nDescription: "+description, s.options(150, ""))
	if err != nil {
		s.log.Warn("Priority classification failed, using default", "error", err)
		return DefaultPriority()
	}
	var parsed struct {
		Priority string `json:"priority"`
		Reason   string `json:"reason"`
	}
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		s.log.Warn("Priority classification unparseable, using default", "error", err)
		return DefaultPriority()
	}
	p, ok := support.ParsePriority(parsed.Priority)
	if !ok {
		s.log.Warn("Priority classification out of range, using default", "priority", parsed.Priority)
		return DefaultPriority()
	}
	return PriorityResult{Priority: p, Reason: strings.TrimSpace(parsed.Reason)}
}
