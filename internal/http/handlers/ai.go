package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/assist"
	"github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/http/response"
	"github.com/yungbote/autocrm-backend/internal/llm"
	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/services"
)

// Assistant is every AI-backed operation exposed over HTTP.
type Assistant interface {
	ClassifyPriority(ctx context.Context, title, description string) assist.PriorityResult
	GenerateInitialResponse(ctx context.Context, title, description string, articles []knowledge.Suggestion) assist.Response
	GenerateFollowUpResponse(ctx context.Context, in assist.FollowUpInput) assist.Response
	GenerateTags(ctx context.Context, title, content string) []string
	AnalyzeArticleQuality(ctx context.Context, title, content string) assist.QualityReport
	GenerateArticleSuggestions(ctx context.Context, title, content string) string
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	AnalyzeTicketPatterns(ctx context.Context, tickets []*support.Ticket) assist.PatternReport
	Chat(ctx context.Context, message string) assist.ChatResult
}

const (
	opAnalyzePriority            = "analyzePriority"
	opGenerateInitialResponse    = "generateInitialResponse"
	opGenerateFollowUpResponse   = "generateFollowUpResponse"
	opGenerateTags               = "generateTags"
	opAnalyzeArticleQuality      = "analyzeArticleQuality"
	opGenerateEmbedding          = "generateEmbedding"
	opGenerateArticleSuggestions = "generateArticleSuggestions"
	opAnalyzeTicketPatterns      = "analyzeTicketPatterns"
)

// staffOps are the knowledge-base and reporting operations.
var staffOps = map[string]bool{
	opGenerateTags:               true,
	opAnalyzeArticleQuality:      true,
	opGenerateArticleSuggestions: true,
	opAnalyzeTicketPatterns:      true,
}

type historyEntry struct {
	// Role is "assistant" for AI turns; anything else is a human turn.
	Role    string `json:"role"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type patternTicket struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

type aiRequest struct {
	Operation           string          `json:"operation"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Content             string          `json:"content"`
	Text                string          `json:"text"`
	TicketID            string          `json:"ticketId"`
	UserMessage         string          `json:"userMessage"`
	TicketStatus        string          `json:"ticketStatus"`
	ConversationHistory []historyEntry  `json:"conversationHistory"`
	Tickets             []patternTicket `json:"tickets"`
}

type AIHandler struct {
	log          *logger.Logger
	ai           Assistant
	finder       services.ArticleFinder
	tickets      services.TicketService
	articleLimit int
}

type AIHandlerDeps struct {
	Log          *logger.Logger
	AI           Assistant
	Finder       services.ArticleFinder
	Tickets      services.TicketService
	ArticleLimit int
}

func NewAIHandler(deps AIHandlerDeps) *AIHandler {
	limit := deps.ArticleLimit
	if limit <= 0 {
		limit = 3
	}
	return &AIHandler{
		log:          deps.Log.With("handler", "AIHandler"),
		ai:           deps.AI,
		finder:       deps.Finder,
		tickets:      deps.Tickets,
		articleLimit: limit,
	}
}

// POST /api/ai
func (h *AIHandler) Handle(c *gin.Context) {
	var req aiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondFlatError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if staffOps[req.Operation] && !callerIsStaff(c) {
		response.RespondFlatError(c, http.StatusForbidden, "Operation requires a worker or admin")
		return
	}
	ctx := c.Request.Context()

	switch req.Operation {
	case opAnalyzePriority:
		if !requireFields(c, req.Title, req.Description) {
			return
		}
		response.RespondOK(c, h.ai.ClassifyPriority(ctx, req.Title, req.Description))

	case opGenerateInitialResponse:
		if !requireFields(c, req.Title, req.Description) {
			return
		}
		related := h.finder.FindSimilar(ctx, req.Title+"\n\n"+req.Description, h.articleLimit)
		response.RespondOK(c, h.ai.GenerateInitialResponse(ctx, req.Title, req.Description, related))

	case opGenerateFollowUpResponse:
		if !requireFields(c, req.UserMessage) {
			return
		}
		in, err := h.followUpInput(ctx, req)
		if err != nil {
			h.respondError(c, err)
			return
		}
		in.Articles = h.finder.FindSimilar(ctx, req.UserMessage, h.articleLimit)
		response.RespondOK(c, h.ai.GenerateFollowUpResponse(ctx, in))

	case opGenerateTags:
		if !requireFields(c, req.Title, req.Content) {
			return
		}
		response.RespondOK(c, gin.H{"tags": h.ai.GenerateTags(ctx, req.Title, req.Content)})

	case opAnalyzeArticleQuality:
		if !requireFields(c, req.Title, req.Content) {
			return
		}
		response.RespondOK(c, h.ai.AnalyzeArticleQuality(ctx, req.Title, req.Content))

	case opGenerateEmbedding:
		vec, err := h.ai.GenerateEmbedding(ctx, req.Text)
		if err != nil {
			h.respondError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"embedding": vec})

	case opGenerateArticleSuggestions:
		if !requireFields(c, req.Title, req.Content) {
			return
		}
		response.RespondOK(c, gin.H{"suggestions": h.ai.GenerateArticleSuggestions(ctx, req.Title, req.Content)})

	case opAnalyzeTicketPatterns:
		tickets, err := h.patternTickets(ctx, req.Tickets)
		if err != nil {
			h.respondError(c, err)
			return
		}
		response.RespondOK(c, h.ai.AnalyzeTicketPatterns(ctx, tickets))

	default:
		response.RespondFlatError(c, http.StatusBadRequest, "Invalid operation")
	}
}

// followUpInput uses the supplied history, or the stored conversation when
// only a ticket id is given.
func (h *AIHandler) followUpInput(ctx context.Context, req aiRequest) (assist.FollowUpInput, error) {
	in := assist.FollowUpInput{Title: req.Title, UserMessage: req.UserMessage}
	if st, ok := support.ParseTicketStatus(req.TicketStatus); ok {
		in.TicketStatus = st
	}
	if req.TicketID != "" {
		id, err := uuid.Parse(req.TicketID)
		if err != nil {
			return in, fmt.Errorf("%w: invalid ticketId", apperr.ErrInvalidArgument)
		}
		in.TicketID = id
	}
	for _, e := range req.ConversationHistory {
		if strings.TrimSpace(e.Content) == "" {
			continue
		}
		sender := support.Human(uuid.Nil)
		if isAssistantRole(e.Role) || e.Sender == support.AIAssistantName {
			sender = support.AIAssistant()
		}
		in.History = append(in.History, support.NewMessage(in.TicketID, sender, e.Sender, e.Content))
	}
	if len(in.History) == 0 && in.TicketID != uuid.Nil && h.tickets != nil {
		detail, err := h.tickets.GetTicket(ctx, in.TicketID)
		if err != nil {
			return in, err
		}
		msgs := detail.Messages
		if len(msgs) > 20 {
			msgs = msgs[len(msgs)-20:]
		}
		in.History = msgs
		if in.Title == "" {
			in.Title = detail.Ticket.Title
		}
		if in.TicketStatus == "" {
			in.TicketStatus = detail.Ticket.Status
		}
	}
	return in, nil
}

func (h *AIHandler) patternTickets(ctx context.Context, supplied []patternTicket) ([]*support.Ticket, error) {
	if len(supplied) == 0 {
		if h.tickets == nil {
			return nil, nil
		}
		return h.tickets.ListTickets(ctx, services.ListTicketsInput{Limit: 100})
	}
	out := make([]*support.Ticket, 0, len(supplied))
	for _, t := range supplied {
		st, _ := support.ParseTicketStatus(t.Status)
		pr, _ := support.ParsePriority(t.Priority)
		out = append(out, &support.Ticket{Title: t.Title, Description: t.Description, Status: st, Priority: pr})
	}
	return out, nil
}

func (h *AIHandler) respondError(c *gin.Context, err error) {
	e := response.Classify(err)
	if e.Status >= http.StatusInternalServerError {
		h.log.Error("AI operation failed", "error", err)
		response.RespondFlatError(c, e.Status, "Internal server error")
		return
	}
	response.RespondFlatError(c, e.Status, err.Error())
}

func requireFields(c *gin.Context, values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			response.RespondFlatError(c, http.StatusBadRequest, "Missing required fields")
			return false
		}
	}
	return true
}

func isAssistantRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "assistant", "ai", "ai_assistant":
		return true
	}
	return false
}

// =========================
// Completion endpoint
// =========================

// CompletionHandler lets browser clients complete through the server's key.
type CompletionHandler struct {
	log       *logger.Logger
	completer llm.Completer
	model     string
}

func NewCompletionHandler(log *logger.Logger, completer llm.Completer, defaultModel string) *CompletionHandler {
	return &CompletionHandler{log: log.With("handler", "CompletionHandler"), completer: completer, model: defaultModel}
}

// POST /api/ai/complete
func (h *CompletionHandler) Complete(c *gin.Context) {
	var req llm.ProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondFlatError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !requireFields(c, req.SystemPrompt, req.UserPrompt) {
		return
	}
	model := req.Model
	if model == "" {
		model = h.model
	}
	out, err := h.completer.Complete(c.Request.Context(), req.SystemPrompt, req.UserPrompt, llm.Options{
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		h.log.Warn("Completion failed", "model", model, "error", err)
		response.RespondFlatError(c, http.StatusBadGateway, "Completion failed")
		return
	}
	response.RespondOK(c, llm.ProxyResponse{Content: out})
}

// =========================
// Help-center chat
// =========================

type ChatHandler struct {
	ai Assistant
}

func NewChatHandler(ai Assistant) *ChatHandler { return &ChatHandler{ai: ai} }

type chatReq struct {
	Message string `json:"message"`
}

// POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		response.RespondFlatError(c, http.StatusBadRequest, "Message is required")
		return
	}
	response.RespondOK(c, h.ai.Chat(c.Request.Context(), strings.TrimSpace(req.Message)))
}
