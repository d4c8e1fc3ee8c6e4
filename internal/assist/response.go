package assist

import (
	"context"
	"strings"

	"github.com/google/uuid"

	knowledgetypes "github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/llm"
)

const (
	FallbackMessage          = "I apologize, but I'm having trouble processing your request right now. A support agent will review your ticket and respond shortly."
	FallbackResolutionReason = "Error in AI processing"
)

// Response is a reply to the customer plus the model's view of the ticket.
type Response struct {
	Message    string                       `json:"message"`
	Resolution support.ResolutionAssessment `json:"resolution"`
}

func FallbackResponse() Response {
	return Response{
		Message: FallbackMessage,
		Resolution: support.ResolutionAssessment{
			Status:     support.ResolutionEscalate,
			Confidence: 1.0,
			Reason:     FallbackResolutionReason,
		},
	}
}

type FollowUpInput struct {
	TicketID     uuid.UUID
	Title        string
	UserMessage  string
	History      []*support.Message
	TicketStatus support.TicketStatus
	Articles     []knowledgetypes.Suggestion
}

func (s *Service) GenerateInitialResponse(ctx context.Context, title, description string, articles []knowledgetypes.Suggestion) Response {
	return s.respond(ctx, "initial", initialResponseSystem, initialResponsePrompt(title, description, articles))
}

func (s *Service) GenerateFollowUpResponse(ctx context.Context, in FollowUpInput) Response {
	return s.respond(ctx, "follow_up", followUpResponseSystem, followUpPrompt(in))
}

func (s *Service) respond(ctx context.Context, kind, system, user string) Response {
	raw, err := s.completer.Complete(ctx, system, user, s.options(s.cfg.ResponseMaxTokens, ""))
	if err != nil {
		s.log.Warn("Response generation failed, using fallback", "kind", kind, "error", err)
		return FallbackResponse()
	}
	resp, ok := parseResponse(raw)
	if !ok {
		s.log.Warn("Response generation returned unusable output, using fallback", "kind", kind)
		return FallbackResponse()
	}
	return resp
}

type rawResponse struct {
	Message    string `json:"message"`
	Resolution *struct {
		Status     string   `json:"status"`
		Confidence *float64 `json:"confidence"`
		Reason     string   `json:"reason"`
	} `json:"resolution"`
}

func parseResponse(raw string) (Response, bool) {
	var parsed rawResponse
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		return Response{}, false
	}
	msg := strings.TrimSpace(parsed.Message)
	if msg == "" {
		return Response{}, false
	}
	out := Response{
		Message: msg,
		// A reply with no assessment keeps the ticket where it is.
		Resolution: support.ResolutionAssessment{Status: support.ResolutionContinue, Reason: "No resolution assessment provided"},
	}
	if r := parsed.Resolution; r != nil {
		out.Resolution.Status = support.ResolutionStatus(r.Status)
		out.Resolution.Reason = r.Reason
		if r.Confidence != nil {
			out.Resolution.Confidence = *r.Confidence
		}
	}
	out.Resolution = out.Resolution.Normalize()
	return out, true
}
