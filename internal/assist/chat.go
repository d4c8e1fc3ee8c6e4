package assist

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/knowledge"
	"github.com/yungbote/autocrm-backend/internal/llm"
)

const ChatFallbackResponse = "I'm sorry, I couldn't process your question right now. Let me connect you with a live agent who can help."

type UsedArticle struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Similarity float64   `json:"similarity"`
}

type ChatResult struct {
	Response       string        `json:"response"`
	UsedArticles   []UsedArticle `json:"usedArticles"`
	NeedsLiveAgent bool          `json:"needsLiveAgent"`
}

// Chat answers a help-center question from the knowledge base. A live agent is
// requested whenever no article clears the similarity threshold.
func (s *Service) Chat(ctx context.Context, message string) ChatResult {
	relevant := knowledge.FilterByThreshold(
		s.retriever.FindSimilar(ctx, message, s.cfg.ChatArticleLimit),
		s.cfg.SimilarityThreshold,
	)
	used := make([]UsedArticle, 0, len(relevant))
	for _, r := range relevant {
		used = append(used, UsedArticle{ID: r.Article.ID, Title: r.Article.Title, Similarity: r.Similarity})
	}
	fallback := ChatResult{Response: ChatFallbackResponse, UsedArticles: used, NeedsLiveAgent: true}

	user := "Customer question: " + message + "\n\nKnowledge base:\n" + formatArticles(relevant)
	raw, err := s.completer.Complete(ctx, chatSystem, user, s.options(s.cfg.ResponseMaxTokens, ""))
	if err != nil {
		s.log.Warn("Chat completion failed", "error", err)
		return fallback
	}
	var parsed struct {
		Response       string `json:"response"`
		NeedsLiveAgent bool   `json:"needsLiveAgent"`
	}
	if err := llm.DecodeJSON(raw, &parsed); err != nil || strings.TrimSpace(parsed.Response) == "" {
		s.log.Warn("Chat completion unparseable", "error", err)
		return fallback
	}
	return ChatResult{
		Response:       strings.TrimSpace(parsed.Response),
		UsedArticles:   used,
		NeedsLiveAgent: parsed.NeedsLiveAgent || len(relevant) == 0,
	}
}
