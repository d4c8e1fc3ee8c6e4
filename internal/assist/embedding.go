package assist

import (
	"context"
	"fmt"
	"strings"

	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
)

// GenerateEmbedding has no safe default vector, so unlike the other operations it reports failures.
func (s *Service) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", apperr.ErrInvalidArgument)
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("generate embedding: %w", err)
	}
	return vec, nil
}
