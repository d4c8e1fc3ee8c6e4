package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/httpx"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

// ProxyRequest is the body accepted by the internal completion endpoint.
type ProxyRequest struct {
	SystemPrompt string   `json:"system_prompt"`
	UserPrompt   string   `json:"user_prompt"`
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
}

type ProxyResponse struct {
	Content string `json:"content"`
}

type ProxyConfig struct {
	URL          string
	Token        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	HTTPClient   *http.Client
}

func ProxyConfigFromEnv() ProxyConfig {
	return ProxyConfig{
		URL:          envutil.String("COMPLETION_PROXY_URL", ""),
		Token:        envutil.String("COMPLETION_PROXY_TOKEN", ""),
		Timeout:      envutil.Duration("COMPLETION_PROXY_TIMEOUT", 60*time.Second),
		MaxRetries:   envutil.Int("COMPLETION_PROXY_MAX_RETRIES", 2),
		RetryBackoff: time.Second,
	}
}

// ProxyError is a non-2xx answer from the completion endpoint.
type ProxyError struct {
	StatusCode int
	Body       string
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("completion proxy http %d: %s", e.StatusCode, e.Body)
}

func (e *ProxyError) HTTPStatusCode() int { return e.StatusCode }

type proxyCompleter struct {
	log        *logger.Logger
	url        string
	token      string
	maxRetries int
	backoff    time.Duration
	http       *http.Client
}

// NewProxy completes by POSTing to another service that holds the provider credentials.
func NewProxy(log *logger.Logger, cfg ProxyConfig) (Completer, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("missing COMPLETION_PROXY_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &proxyCompleter{
		log:        log.With("completer", "proxy"),
		url:        url,
		token:      strings.TrimSpace(cfg.Token),
		maxRetries: maxRetries,
		backoff:    backoff,
		http:       hc,
	}, nil
}

func (c *proxyCompleter) Complete(ctx context.Context, system, user string, opts Options) (string, error) {
	raw, err := json.Marshal(ProxyRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		Model:        opts.Model,
		Temperature:  opts.Temperature,
		MaxTokens:    opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	backoff := c.backoff
	var out ProxyResponse
	for attempt := 0; ; attempt++ {
		resp, err := c.post(ctx, raw, &out)
		if err == nil {
			break
		}
		if !httpx.IsRetryableError(err) || attempt >= c.maxRetries {
			return "", err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("Completion proxy retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return "", err
		}
		backoff *= 2
	}

	if strings.TrimSpace(out.Content) == "" {
		c.log.Debug("Proxy returned no content, using default")
		return opts.Default, nil
	}
	return out.Content, nil
}

// post makes one attempt. The response is returned on HTTP errors so callers can honour Retry-After.
func (c *proxyCompleter) post(ctx context.Context, raw []byte, out *ProxyResponse) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion proxy: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp, fmt.Errorf("completion proxy read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &ProxyError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp, fmt.Errorf("completion proxy decode: %w", err)
	}
	return resp, nil
}
