package assist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	knowledgetypes "github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/knowledge"
	"github.com/yungbote/autocrm-backend/internal/llm"
	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

type scriptedCompleter struct {
	out     string
	err     error
	systems []string
	users   []string
	opts    []llm.Options
}

func (c *scriptedCompleter) Complete(ctx context.Context, system, user string, opts llm.Options) (string, error) {
	c.systems = append(c.systems, system)
	c.users = append(c.users, user)
	c.opts = append(c.opts, opts)
	return c.out, c.err
}

// keywordEmbedder puts each known keyword on its own axis.
type keywordEmbedder struct{ err error }

var keywords = []string{"password", "billing", "shipping", "refund"}

func (e keywordEmbedder) Model() string { return "keywords" }

func (e keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, len(keywords)+1)
		vec[len(keywords)] = 0.05
		for k, w := range keywords {
			if strings.Contains(strings.ToLower(t), w) {
				vec[k] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

func newService(t *testing.T, c llm.Completer, articles ...*knowledgetypes.Article) *Service {
	t.Helper()
	idx := vectorindex.NewMemory()
	emb := keywordEmbedder{}
	if len(articles) > 0 {
		report := knowledge.NewSyncer(logger.Nop(), emb, idx, knowledge.SyncConfig{BatchSize: 5}).Sync(context.Background(), articles)
		if !report.OK() {
			t.Fatalf("seed index: %#v", report)
		}
	}
	retriever := knowledge.NewRetriever(logger.Nop(), emb, idx)
	return New(logger.Nop(), c, retriever, emb, Config{})
}

func passwordArticle() *knowledgetypes.Article {
	return &knowledgetypes.Article{
		ID:        uuid.New(),
		Title:     "Password help",
		Content:   "Use the forgot password link on the sign-in page.",
		Status:    knowledgetypes.ArticlePublished,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func assertValidResponse(t *testing.T, r Response) {
	t.Helper()
	if strings.TrimSpace(r.Message) == "" {
		t.Fatalf("empty message")
	}
	if _, ok := support.ParseResolutionStatus(string(r.Resolution.Status)); !ok {
		t.Fatalf("invalid resolution status %q", r.Resolution.Status)
	}
	if r.Resolution.Confidence < 0 || r.Resolution.Confidence > 1 {
		t.Fatalf("confidence out of range: %f", r.Resolution.Confidence)
	}
}

func TestGenerateInitialResponseFallsBackOnAnyFailure(t *testing.T) {
	cases := []struct {
		name string
		c    *scriptedCompleter
	}{
		{"provider error", &scriptedCompleter{err: errors.New("timeout")}},
		{"not json", &scriptedCompleter{out: "Sure, I can help with that!"}},
		{"empty message", &scriptedCompleter{out: `{"message":"  ","resolution":{"status":"continue","confidence":0.4}}`}},
		{"empty completion", &scriptedCompleter{out: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := newService(t, tc.c).GenerateInitialResponse(context.Background(), "Login broken", "Cannot sign in", nil)
			assertValidResponse(t, got)
			if got != FallbackResponse() {
				t.Fatalf("expected fallback, got %#v", got)
			}
			if got.Resolution.Status != support.ResolutionEscalate || got.Resolution.Confidence != 1.0 || got.Resolution.Reason != FallbackResolutionReason {
				t.Fatalf("fallback resolution mismatch: %#v", got.Resolution)
			}
		})
	}
}

func TestGenerateInitialResponseParsesFencedJSON(t *testing.T) {
	c := &scriptedCompleter{out: "```json\n{\"message\":\"Use the forgot password link.\",\"resolution\":{\"status\":\"potential_resolution\",\"confidence\":0.92,\"reason\":\"KB answers it\"}}\n```"}
	s := newService(t, c)
	articles := []knowledgetypes.Suggestion{{Article: *passwordArticle(), Similarity: 0.9}}

	got := s.GenerateInitialResponse(context.Background(), "Forgot password", "I can't log in", articles)
	assertValidResponse(t, got)
	if got.Message != "Use the forgot password link." || got.Resolution.Status != support.ResolutionPotentialResolution || got.Resolution.Confidence != 0.92 {
		t.Fatalf("unexpected response %#v", got)
	}
	if !strings.Contains(c.users[0], "Password help") || !strings.Contains(c.users[0], "Forgot password") {
		t.Fatalf("prompt missing ticket or article context: %q", c.users[0])
	}
	if !strings.Contains(c.systems[0], `"potential_resolution"`) {
		t.Fatalf("system prompt missing response format")
	}
	if c.opts[0].Temperature == nil || *c.opts[0].Temperature != 0.3 {
		t.Fatalf("expected temperature 0.3, got %#v", c.opts[0].Temperature)
	}
}

func TestResponseResolutionIsNormalized(t *testing.T) {
	c := &scriptedCompleter{out: `Here: {"message":"ok","resolution":{"status":"maybe","confidence":1.7,"reason":"x"}}`}
	got := newService(t, c).GenerateInitialResponse(context.Background(), "t", "d", nil)
	assertValidResponse(t, got)
	if got.Resolution.Status != support.ResolutionEscalate || got.Resolution.Confidence != 1 {
		t.Fatalf("expected clamp to escalate/1.0, got %#v", got.Resolution)
	}

	c = &scriptedCompleter{out: `{"message":"need more info"}`}
	got = newService(t, c).GenerateInitialResponse(context.Background(), "t", "d", nil)
	assertValidResponse(t, got)
	if got.Resolution.Status != support.ResolutionContinue || got.Resolution.Confidence != 0 {
		t.Fatalf("missing resolution should not move the ticket: %#v", got.Resolution)
	}
}

func TestGenerateFollowUpResponseIncludesHistory(t *testing.T) {
	c := &scriptedCompleter{out: `{"message":"Glad that worked!","resolution":{"status":"potential_resolution","confidence":0.85,"reason":"customer confirmed"}}`}
	s := newService(t, c)
	ticketID := uuid.New()
	customer := uuid.New()
	history := []*support.Message{
		support.NewMessage(ticketID, support.Human(customer), "Dana", "My invoice is wrong"),
		support.NewMessage(ticketID, support.AIAssistant(), "", "Which invoice number?"),
	}
	got := s.GenerateFollowUpResponse(context.Background(), FollowUpInput{
		TicketID:     ticketID,
		Title:        "Invoice issue",
		UserMessage:  "INV-42, thanks it is fixed now",
		History:      history,
		TicketStatus: support.StatusOpen,
	})
	assertValidResponse(t, got)
	prompt := c.users[0]
	for _, want := range []string{"Dana: My invoice is wrong", "AI Assistant: Which invoice number?", "INV-42", "status: Open"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestClassifyPriority(t *testing.T) {
	cases := []struct {
		name string
		c    *scriptedCompleter
		want support.Priority
	}{
		{"valid", &scriptedCompleter{out: `{"priority":"high","reason":"outage"}`}, support.PriorityHigh},
		{"out of range", &scriptedCompleter{out: `{"priority":"Urgent","reason":"!!"}`}, support.PriorityMedium},
		{"garbage", &scriptedCompleter{out: `High`}, support.PriorityMedium},
		{"error", &scriptedCompleter{err: errors.New("429")}, support.PriorityMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := newService(t, tc.c).ClassifyPriority(context.Background(), "Site down", "Nothing loads")
			if got.Priority != tc.want {
				t.Fatalf("priority = %q, want %q", got.Priority, tc.want)
			}
			if _, ok := support.ParsePriority(string(got.Priority)); !ok {
				t.Fatalf("priority outside the allowed set: %q", got.Priority)
			}
			if tc.want == support.PriorityMedium && got.Reason != DefaultPriorityReason {
				t.Fatalf("expected default reason, got %q", got.Reason)
			}
		})
	}
}

func TestGenerateTags(t *testing.T) {
	c := &scriptedCompleter{out: `{"tags":["Billing"," billing ","Invoices","refunds","payments","tax","extra"]}`}
	got := newService(t, c).GenerateTags(context.Background(), "Billing FAQ", "...")
	want := []string{"billing", "invoices", "refunds", "payments", "tax"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("tags = %v, want %v", got, want)
	}

	got = newService(t, &scriptedCompleter{err: errors.New("down")}).GenerateTags(context.Background(), "t", "c")
	if got == nil || len(got) != 0 {
		t.Fatalf("fallback should be an empty list, got %#v", got)
	}
}

func TestAnalyzeArticleQuality(t *testing.T) {
	c := &scriptedCompleter{out: `{"score":140,"strengths":["clear"],"improvements":[]}`}
	got := newService(t, c).AnalyzeArticleQuality(context.Background(), "t", "c")
	if got.Score != 100 || len(got.Strengths) != 1 || got.Improvements == nil {
		t.Fatalf("unexpected report %#v", got)
	}

	got = newService(t, &scriptedCompleter{out: "not json"}).AnalyzeArticleQuality(context.Background(), "t", "c")
	if got.Score != 0 || len(got.Improvements) != 1 || got.Improvements[0] != QualityFallbackImprovement {
		t.Fatalf("unexpected fallback %#v", got)
	}
}

func TestAnalyzeArticleQualityClampsOutOfRangeScores(t *testing.T) {
	for raw, want := range map[string]int{
		`{"score":1e30}`:  100,
		`{"score":-1e30}`: 0,
		`{"score":72.5}`:  73,
		`{"score":-3}`:    0,
	} {
		got := newService(t, &scriptedCompleter{out: raw}).AnalyzeArticleQuality(context.Background(), "t", "c")
		if got.Score != want {
			t.Fatalf("%s: score %d, want %d", raw, got.Score, want)
		}
	}
}

func TestGenerateArticleSuggestionsAndPatternsFallbacks(t *testing.T) {
	s := newService(t, &scriptedCompleter{err: errors.New("down")})
	if got := s.GenerateArticleSuggestions(context.Background(), "t", "c"); got != "" {
		t.Fatalf("expected empty suggestions, got %q", got)
	}
	report := s.AnalyzeTicketPatterns(context.Background(), []*support.Ticket{{Title: "x", Description: "y"}})
	if report.CommonIssues == nil || len(report.CommonIssues) != 0 || len(report.Trends) != 0 || len(report.Recommendations) != 0 {
		t.Fatalf("expected empty report, got %#v", report)
	}

	s = newService(t, &scriptedCompleter{out: `{"commonIssues":["login"],"trends":["rising"],"recommendations":["add SSO doc"]}`})
	report = s.AnalyzeTicketPatterns(context.Background(), []*support.Ticket{{Title: "x", Description: "y"}})
	if len(report.CommonIssues) != 1 || report.Recommendations[0] != "add SSO doc" {
		t.Fatalf("unexpected report %#v", report)
	}
}

func TestChatNeedsLiveAgentWithoutRelevantArticles(t *testing.T) {
	c := &scriptedCompleter{out: `{"response":"I think you should try again.","needsLiveAgent":false}`}
	got := newService(t, c, passwordArticle()).Chat(context.Background(), "Where is my shipping label?")
	if !got.NeedsLiveAgent || len(got.UsedArticles) != 0 {
		t.Fatalf("no article above threshold must request an agent: %#v", got)
	}
}

func TestChatUsesRelevantArticles(t *testing.T) {
	a := passwordArticle()
	c := &scriptedCompleter{out: `{"response":"Use the forgot password link.","needsLiveAgent":false}`}
	got := newService(t, c, a).Chat(context.Background(), "I forgot my password")
	if got.NeedsLiveAgent || len(got.UsedArticles) != 1 || got.UsedArticles[0].ID != a.ID {
		t.Fatalf("unexpected chat result %#v", got)
	}
	if !strings.Contains(c.users[0], "Password help") {
		t.Fatalf("article missing from prompt")
	}

	got = newService(t, &scriptedCompleter{err: errors.New("down")}, a).Chat(context.Background(), "I forgot my password")
	if got.Response != ChatFallbackResponse || !got.NeedsLiveAgent {
		t.Fatalf("unexpected fallback %#v", got)
	}
}

func TestGenerateEmbedding(t *testing.T) {
	s := newService(t, &scriptedCompleter{})
	vec, err := s.GenerateEmbedding(context.Background(), "refund please")
	if err != nil || len(vec) != len(keywords)+1 {
		t.Fatalf("GenerateEmbedding = %v, %v", vec, err)
	}
	if _, err := s.GenerateEmbedding(context.Background(), "  "); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("blank text should be invalid, got %v", err)
	}

	boom := errors.New("provider down")
	s = New(logger.Nop(), &scriptedCompleter{}, nil, keywordEmbedder{err: boom}, Config{})
	if _, err := s.GenerateEmbedding(context.Background(), "text"); !errors.Is(err, boom) {
		t.Fatalf("provider error should propagate, got %v", err)
	}
}
