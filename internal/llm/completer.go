package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/autocrm-backend/internal/platform/envutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/openai"
)

type Options struct {
	Model       string
	Temperature *float64
	MaxTokens   int
	// Default is returned, with no error, when the provider answers without content.
	Default string
}

// Completer turns one system+user prompt pair into text.
type Completer interface {
	Complete(ctx context.Context, system, user string, opts Options) (string, error)
}

type Mode string

const (
	ModeDirect Mode = "direct"
	ModeProxy  Mode = "proxy"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeDirect:
		return ModeDirect, nil
	case ModeProxy:
		return ModeProxy, nil
	default:
		return "", fmt.Errorf("unknown COMPLETION_MODE %q (want direct or proxy)", raw)
	}
}

func ModeFromEnv() (Mode, error) {
	return ParseMode(envutil.String("COMPLETION_MODE", string(ModeDirect)))
}

type directCompleter struct {
	log    *logger.Logger
	client openai.Client
}

// NewDirect completes against the chat completions API.
func NewDirect(log *logger.Logger, client openai.Client) Completer {
	return &directCompleter{log: log.With("completer", "direct"), client: client}
}

func (c *directCompleter) Complete(ctx context.Context, system, user string, opts Options) (string, error) {
	out, err := c.client.Chat(ctx, openai.ChatRequest{
		Model:       opts.Model,
		System:      system,
		User:        user,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		c.log.Debug("Completion returned no content, using default")
		return opts.Default, nil
	}
	return out, nil
}

// Float is a convenience for Options.Temperature.
func Float(v float64) *float64 { return &v }
