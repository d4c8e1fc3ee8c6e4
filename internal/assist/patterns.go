package assist

import (
	"context"

	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/llm"
)

type PatternReport struct {
	CommonIssues    []string `json:"commonIssues"`
	Trends          []string `json:"trends"`
	Recommendations []string `json:"recommendations"`
}

func emptyPatterns() PatternReport {
	return PatternReport{CommonIssues: []string{}, Trends: []string{}, Recommendations: []string{}}
}

func (s *Service) AnalyzeTicketPatterns(ctx context.Context, tickets []*support.Ticket) PatternReport {
	if len(tickets) == 0 {
		return emptyPatterns()
	}
	raw, err := s.completer.Complete(ctx, patternsSystem, patternsPrompt(tickets), s.options(800, ""))
	if err != nil {
		s.log.Warn("Ticket pattern analysis failed", "tickets", len(tickets), "error", err)
		return emptyPatterns()
	}
	var parsed PatternReport
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		s.log.Warn("Ticket pattern analysis unparseable", "error", err)
		return emptyPatterns()
	}
	return PatternReport{
		CommonIssues:    nonNil(parsed.CommonIssues),
		Trends:          nonNil(parsed.Trends),
		Recommendations: nonNil(parsed.Recommendations),
	}
}
