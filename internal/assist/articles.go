package assist

import (
	"context"
	"math"
	"strings"

	"github.com/yungbote/autocrm-backend/internal/llm"
)

const QualityFallbackImprovement = "Unable to analyze article quality"

const maxTags = 5

// GenerateTags returns at most five lower-cased, de-duplicated tags, or none on failure.
func (s *Service) GenerateTags(ctx context.Context, title, content string) []string {
	raw, err := s.completer.Complete(ctx, tagsSystem, articlePrompt(title, content), s.options(100, ""))
	if err != nil {
		s.log.Warn("Tag generation failed", "error", err)
		return []string{}
	}
	var parsed struct {
		Tags []string `json:"tags"`
	}
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		s.log.Warn("Tag generation unparseable", "error", err)
		return []string{}
	}
	tags := make([]string, 0, maxTags)
	seen := map[string]struct{}{}
	for _, t := range parsed.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

type QualityReport struct {
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

func fallbackQuality() QualityReport {
	return QualityReport{Score: 0, Strengths: []string{}, Improvements: []string{QualityFallbackImprovement}}
}

func (s *Service) AnalyzeArticleQuality(ctx context.Context, title, content string) QualityReport {
	raw, err := s.completer.Complete(ctx, qualitySystem, articlePrompt(title, content), s.options(500, ""))
	if err != nil {
		s.log.Warn("Article quality analysis failed", "error", err)
		return fallbackQuality()
	}
	var parsed struct {
		Score        *float64 `json:"score"`
		Strengths    []string `json:"strengths"`
		Improvements []string `json:"improvements"`
	}
	if err := llm.DecodeJSON(raw, &parsed); err != nil || parsed.Score == nil {
		s.log.Warn("Article quality analysis unparseable", "error", err)
		return fallbackQuality()
	}
	v := *parsed.Score
	switch {
	case math.IsNaN(v) || v < 0:
		v = 0
	case v > 100:
		v = 100
	}
	return QualityReport{Score: int(math.Round(v)), Strengths: nonNil(parsed.Strengths), Improvements: nonNil(parsed.Improvements)}
}

// GenerateArticleSuggestions returns free-text editing advice, or "" on failure.
func (s *Service) GenerateArticleSuggestions(ctx context.Context, title, content string) string {
	raw, err := s.completer.Complete(ctx, suggestionsSystem, articlePrompt(title, content), s.options(500, ""))
	if err != nil {
		s.log.Warn("Article suggestions failed", "error", err)
		return ""
	}
	return strings.TrimSpace(raw)
}

func nonNil(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
