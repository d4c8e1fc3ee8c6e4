package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/assist"
	"github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/domain/support"
	kb "github.com/yungbote/autocrm-backend/internal/knowledge"
	"github.com/yungbote/autocrm-backend/internal/llm"
	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
	"github.com/yungbote/autocrm-backend/internal/platform/ctxutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/services"
)

// =========================
// Fakes
// =========================

type fakeAssistant struct {
	followUp assist.FollowUpInput
	patterns []*support.Ticket
}

func (f *fakeAssistant) ClassifyPriority(ctx context.Context, title, description string) assist.PriorityResult {
	return assist.PriorityResult{Priority: support.PriorityHigh, Reason: "urgent"}
}

func (f *fakeAssistant) GenerateInitialResponse(ctx context.Context, title, description string, articles []knowledge.Suggestion) assist.Response {
	return assist.FallbackResponse()
}

func (f *fakeAssistant) GenerateFollowUpResponse(ctx context.Context, in assist.FollowUpInput) assist.Response {
	f.followUp = in
	return assist.Response{Message: "ok", Resolution: support.ResolutionAssessment{Status: support.ResolutionContinue, Confidence: 0.5}}
}

func (f *fakeAssistant) GenerateTags(ctx context.Context, title, content string) []string {
	return []string{"billing"}
}

func (f *fakeAssistant) AnalyzeArticleQuality(ctx context.Context, title, content string) assist.QualityReport {
	return assist.QualityReport{Score: 80, Strengths: []string{}, Improvements: []string{}}
}

func (f *fakeAssistant) GenerateArticleSuggestions(ctx context.Context, title, content string) string {
	return "add screenshots"
}

func (f *fakeAssistant) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", apperr.ErrInvalidArgument)
	}
	return []float32{0.1, 0.2}, nil
}

func (f *fakeAssistant) AnalyzeTicketPatterns(ctx context.Context, tickets []*support.Ticket) assist.PatternReport {
	f.patterns = tickets
	return assist.PatternReport{CommonIssues: []string{"login"}, Trends: []string{}, Recommendations: []string{}}
}

func (f *fakeAssistant) Chat(ctx context.Context, message string) assist.ChatResult {
	return assist.ChatResult{Response: "hi", UsedArticles: []assist.UsedArticle{}, NeedsLiveAgent: true}
}

type noFinder struct{}

func (noFinder) FindSimilar(ctx context.Context, text string, limit int) []knowledge.Suggestion {
	return []knowledge.Suggestion{}
}

type fakeTickets struct {
	services.TicketService
	detail    *services.TicketDetail
	err       error
	workerMsg bool
}

func (f *fakeTickets) GetTicket(ctx context.Context, id uuid.UUID) (*services.TicketDetail, error) {
	return f.detail, f.err
}

func (f *fakeTickets) ListTickets(ctx context.Context, in services.ListTicketsInput) ([]*support.Ticket, error) {
	if f.detail == nil {
		return nil, f.err
	}
	return []*support.Ticket{f.detail.Ticket}, f.err
}

func (f *fakeTickets) CreateTicket(ctx context.Context, title, description string) (*services.TicketDetail, error) {
	return f.detail, f.err
}

func (f *fakeTickets) AddCustomerMessage(ctx context.Context, id uuid.UUID, content string) (*services.MessageExchange, error) {
	return &services.MessageExchange{Ticket: f.detail.Ticket}, f.err
}

func (f *fakeTickets) AddWorkerMessage(ctx context.Context, id uuid.UUID, content string) (*support.Message, error) {
	f.workerMsg = true
	return &support.Message{Content: content}, f.err
}

type fakeArticles struct {
	services.ArticleService
	report kb.SyncReport
	err    error
}

func (f *fakeArticles) Sync(ctx context.Context) (kb.SyncReport, error) { return f.report, f.err }

func (f *fakeArticles) Get(ctx context.Context, id uuid.UUID) (*knowledge.Article, error) {
	return nil, fmt.Errorf("get article: %w", apperr.ErrNotFound)
}

type echoCompleter struct{ err error }

func (e echoCompleter) Complete(ctx context.Context, system, user string, opts llm.Options) (string, error) {
	return opts.Model + ":" + user, e.err
}

// =========================
// Harness
// =========================

func asRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxutil.WithIdentity(c.Request.Context(), &ctxutil.Identity{UserID: uuid.New(), Role: role}))
		c.Next()
	}
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func aiRouter(role string, ai *fakeAssistant, tickets services.TicketService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAIHandler(AIHandlerDeps{Log: logger.Nop(), AI: ai, Finder: noFinder{}, Tickets: tickets})
	r := gin.New()
	r.POST("/api/ai", asRole(role), h.Handle)
	r.POST("/api/chat", asRole(role), NewChatHandler(ai).Chat)
	r.POST("/api/ai/complete", asRole(role), NewCompletionHandler(logger.Nop(), echoCompleter{}, "gpt-test").Complete)
	return r
}

// =========================
// /api/ai
// =========================

func TestAIOperations(t *testing.T) {
	r := aiRouter("worker", &fakeAssistant{}, nil)
	cases := []struct {
		body map[string]any
		key  string
	}{
		{map[string]any{"operation": "analyzePriority", "title": "t", "description": "d"}, "priority"},
		{map[string]any{"operation": "generateInitialResponse", "title": "t", "description": "d"}, "resolution"},
		{map[string]any{"operation": "generateFollowUpResponse", "userMessage": "hi"}, "message"},
		{map[string]any{"operation": "generateTags", "title": "t", "content": "c"}, "tags"},
		{map[string]any{"operation": "analyzeArticleQuality", "title": "t", "content": "c"}, "score"},
		{map[string]any{"operation": "generateEmbedding", "text": "x"}, "embedding"},
		{map[string]any{"operation": "generateArticleSuggestions", "title": "t", "content": "c"}, "suggestions"},
		{map[string]any{"operation": "analyzeTicketPatterns", "tickets": []map[string]any{{"title": "a"}}}, "commonIssues"},
	}
	for _, tc := range cases {
		rec, out := do(t, r, http.MethodPost, "/api/ai", tc.body)
		if rec.Code != http.StatusOK {
			t.Errorf("%v: status %d body %s", tc.body["operation"], rec.Code, rec.Body.String())
			continue
		}
		if _, ok := out[tc.key]; !ok {
			t.Errorf("%v: missing %q in %v", tc.body["operation"], tc.key, out)
		}
	}
}

func TestAIErrorsUseFlatBody(t *testing.T) {
	r := aiRouter("customer", &fakeAssistant{}, nil)
	cases := []struct {
		body   map[string]any
		status int
	}{
		{map[string]any{"operation": "nope"}, http.StatusBadRequest},
		{map[string]any{"operation": "analyzePriority", "title": "t"}, http.StatusBadRequest},
		{map[string]any{"operation": "generateEmbedding", "text": ""}, http.StatusBadRequest},
		{map[string]any{"operation": "generateTags", "title": "t", "content": "c"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec, out := do(t, r, http.MethodPost, "/api/ai", tc.body)
		if rec.Code != tc.status {
			t.Errorf("%v: status %d, want %d", tc.body, rec.Code, tc.status)
		}
		if _, ok := out["error"].(string); !ok {
			t.Errorf("%v: expected flat error string, got %v", tc.body, out)
		}
	}
}

func TestFollowUpLoadsStoredHistory(t *testing.T) {
	ai := &fakeAssistant{}
	id := uuid.New()
	stored := []*support.Message{support.NewMessage(id, support.AIAssistant(), "", "earlier")}
	tickets := &fakeTickets{detail: &services.TicketDetail{
		Ticket:   &support.Ticket{ID: id, Title: "Login", Status: support.StatusInProgress},
		Messages: stored,
	}}
	r := aiRouter("customer", ai, tickets)
	rec, _ := do(t, r, http.MethodPost, "/api/ai", map[string]any{
		"operation": "generateFollowUpResponse", "ticketId": id.String(), "userMessage": "still broken",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if len(ai.followUp.History) != 1 || ai.followUp.Title != "Login" || ai.followUp.TicketStatus != support.StatusInProgress {
		t.Fatalf("stored context not used: %#v", ai.followUp)
	}

	rec, _ = do(t, r, http.MethodPost, "/api/ai", map[string]any{
		"operation": "generateFollowUpResponse", "userMessage": "x",
		"conversationHistory": []map[string]any{{"role": "assistant", "content": "a"}, {"sender": "Sam", "content": "b"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	h := ai.followUp.History
	if len(h) != 2 || !h[0].Sender().IsAI() || h[1].SenderName != "Sam" {
		t.Fatalf("supplied history not converted: %#v", h)
	}
}

func TestChatAndComplete(t *testing.T) {
	r := aiRouter("worker", &fakeAssistant{}, nil)
	rec, out := do(t, r, http.MethodPost, "/api/chat", map[string]any{"message": "help"})
	if rec.Code != http.StatusOK || out["needsLiveAgent"] != true {
		t.Fatalf("chat: %d %v", rec.Code, out)
	}
	rec, out = do(t, r, http.MethodPost, "/api/chat", map[string]any{"message": " "})
	if rec.Code != http.StatusBadRequest || out["error"] == nil {
		t.Fatalf("blank chat: %d %v", rec.Code, out)
	}
	rec, out = do(t, r, http.MethodPost, "/api/ai/complete", map[string]any{"system_prompt": "s", "user_prompt": "u"})
	if rec.Code != http.StatusOK || out["content"] != "gpt-test:u" {
		t.Fatalf("complete: %d %v", rec.Code, out)
	}
}

// =========================
// REST routes
// =========================

func TestTicketMessageRoutesByRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tickets := &fakeTickets{detail: &services.TicketDetail{Ticket: &support.Ticket{ID: uuid.New()}}}
	h := NewTicketHandler(logger.Nop(), tickets)
	id := uuid.NewString()

	r := gin.New()
	r.POST("/tickets/:id/messages", asRole("worker"), h.AddMessage)
	if rec, _ := do(t, r, http.MethodPost, "/tickets/"+id+"/messages", map[string]any{"content": "on it"}); rec.Code != http.StatusCreated || !tickets.workerMsg {
		t.Fatalf("worker message: %d", rec.Code)
	}

	r = gin.New()
	r.POST("/tickets/:id/messages", asRole("customer"), h.AddMessage)
	tickets.workerMsg = false
	if rec, _ := do(t, r, http.MethodPost, "/tickets/"+id+"/messages", map[string]any{"content": "hi"}); rec.Code != http.StatusCreated || tickets.workerMsg {
		t.Fatalf("customer message: %d", rec.Code)
	}
	if rec, _ := do(t, r, http.MethodPost, "/tickets/not-a-uuid/messages", map[string]any{"content": "hi"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", rec.Code)
	}
}

func TestTicketServiceErrorsMapToStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tickets := &fakeTickets{err: fmt.Errorf("%w: not yours", apperr.ErrForbidden)}
	r := gin.New()
	r.GET("/tickets/:id", asRole("customer"), NewTicketHandler(logger.Nop(), tickets).Get)
	r.GET("/tickets", asRole("customer"), NewTicketHandler(logger.Nop(), tickets).List)

	rec, out := do(t, r, http.MethodGet, "/tickets/"+uuid.NewString(), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d", rec.Code)
	}
	env, _ := out["error"].(map[string]any)
	if env["code"] != "forbidden" {
		t.Fatalf("expected error envelope, got %v", out)
	}
	if rec, _ := do(t, r, http.MethodGet, "/tickets?status=bogus", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter: %d", rec.Code)
	}
	tickets.err = errors.New("db down")
	if rec, _ := do(t, r, http.MethodGet, "/tickets/"+uuid.NewString(), nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("internal: %d", rec.Code)
	}
}

func TestKnowledgeSyncResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	articles := &fakeArticles{report: kb.SyncReport{TotalProcessed: 4, Errors: []string{"batch 2: rate limited"}, FailedBatches: []int{2}}}
	h := NewKnowledgeHandler(logger.Nop(), articles)
	r := gin.New()
	r.POST("/knowledge/sync", h.Sync)

	rec, out := do(t, r, http.MethodPost, "/knowledge/sync", nil)
	if rec.Code != http.StatusOK || out["success"] != false || out["totalProcessed"] != float64(4) {
		t.Fatalf("partial sync: %d %v", rec.Code, out)
	}
	articles.err = errors.New("db down")
	rec, out = do(t, r, http.MethodPost, "/knowledge/sync", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("failed sync: %d", rec.Code)
	}
	if _, ok := out["error"].(string); !ok {
		t.Fatalf("expected flat error, got %v", out)
	}
}

func TestArticleNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/articles/:id", asRole("customer"), NewArticleHandler(logger.Nop(), &fakeArticles{}).Get)
	if rec, _ := do(t, r, http.MethodGet, "/articles/"+uuid.NewString(), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ok", NewHealthHandler(nil).HealthCheck)
	r.GET("/down", NewHealthHandler(pingerFunc(func(context.Context) error { return errors.New("refused") })).HealthCheck)
	if rec, _ := do(t, r, http.MethodGet, "/ok", nil); rec.Code != http.StatusOK {
		t.Fatalf("ok: %d", rec.Code)
	}
	if rec, _ := do(t, r, http.MethodGet, "/down", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("down: %d", rec.Code)
	}
}
