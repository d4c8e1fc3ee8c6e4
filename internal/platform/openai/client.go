package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/httpx"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

// Client is the subset of the OpenAI API the support backend relies on.
type Client interface {
	// Embed returns one vector per input, in input order.
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	// Chat runs a single system+user chat completion and returns the first choice's content.
	Chat(ctx context.Context, req ChatRequest) (string, error)
	EmbedModel() string
}

type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature *float64
	MaxTokens   int
}

type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	EmbedModel   string
	Temperature  float64
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	HTTPClient   *http.Client
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:       envutil.String("OPENAI_API_KEY", ""),
		BaseURL:      envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:        envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		EmbedModel:   envutil.String("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		Temperature:  envutil.Float("OPENAI_TEMPERATURE", 0.3),
		Timeout:      time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxRetries:   envutil.Int("OPENAI_MAX_RETRIES", 2),
		RetryBackoff: time.Second,
	}
}

type client struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	embedModel  string
	temperature float64
	maxRetries  int
	backoff     time.Duration
	httpClient  *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	embed := strings.TrimSpace(cfg.EmbedModel)
	if embed == "" {
		embed = "text-embedding-3-small"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &client{
		log:         log.With("client", "OpenAIClient"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		embedModel:  embed,
		temperature: cfg.Temperature,
		maxRetries:  maxRetries,
		backoff:     backoff,
		httpClient:  hc,
	}, nil
}

func (c *client) EmbedModel() string { return c.embedModel }

// HTTPError is a non-2xx answer from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// EmbeddingError wraps any failure to produce embeddings.
type EmbeddingError struct {
	Model string
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding (%s): %v", e.Model, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// HTTPStatusCode exposes the upstream status when the failure came from the API.
func (e *EmbeddingError) HTTPStatusCode() int {
	var he *HTTPError
	if errors.As(e.Err, &he) {
		return he.StatusCode
	}
	return 0
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := c.backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

// -------------------- Embeddings --------------------

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	var resp embeddingsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/embeddings", embeddingsRequest{Model: c.embedModel, Input: clean}, &resp); err != nil {
		return nil, &EmbeddingError{Model: c.embedModel, Err: err}
	}

	out := make([][]float32, len(clean))
	for pos, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			idx = pos
		}
		if idx >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[idx] = vec
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, &EmbeddingError{
				Model: c.embedModel,
				Err:   fmt.Errorf("response missing embedding %d of %d", i, len(clean)),
			}
		}
	}
	return out, nil
}

// -------------------- Chat completions --------------------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat returns "" without error when the API answers with no content.
func (c *client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	temp := req.Temperature
	if temp == nil {
		t := c.temperature
		temp = &t
	}
	msgs := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.User})

	var resp chatCompletionResponse
	err := c.do(ctx, http.MethodPost, "/v1/chat/completions", chatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: temp,
		MaxTokens:   req.MaxTokens,
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", nil
	}
	return *resp.Choices[0].Message.Content, nil
}
