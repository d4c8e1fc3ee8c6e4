package knowledge

import (
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

const (
	metaTitle     = "title"
	metaContent   = "content"
	metaTags      = "tags"
	metaStatus    = "status"
	metaCreatedAt = "created_at"
	metaUpdatedAt = "updated_at"
)

// articleMetadata is what the index stores alongside each vector so a query can
// be answered without a database round trip.
func articleMetadata(a *types.Article) map[string]any {
	tags := make([]string, 0, len(a.Tags))
	tags = append(tags, a.Tags...)
	return map[string]any{
		metaTitle:     a.Title,
		metaContent:   a.Content,
		metaTags:      tags,
		metaStatus:    string(a.Status),
		metaCreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		metaUpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func articleFromMatch(m vectorindex.Match) (types.Article, bool) {
	id, err := uuid.Parse(strings.TrimSpace(m.ID))
	if err != nil {
		return types.Article{}, false
	}
	a := types.Article{
		ID:      id,
		Title:   metaString(m.Metadata, metaTitle),
		Content: metaString(m.Metadata, metaContent),
		Tags:    metaStrings(m.Metadata, metaTags),
		Status:  types.ArticleStatus(metaString(m.Metadata, metaStatus)),
	}
	a.CreatedAt = metaTime(m.Metadata, metaCreatedAt)
	a.UpdatedAt = metaTime(m.Metadata, metaUpdatedAt)
	return a, true
}

func metaString(md map[string]any, key string) string {
	if s, ok := md[key].(string); ok {
		return s
	}
	return ""
}

func metaStrings(md map[string]any, key string) []string {
	switch v := md[key].(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func metaTime(md map[string]any, key string) time.Time {
	t, err := time.Parse(time.RFC3339, metaString(md, key))
	if err != nil {
		return time.Time{}
	}
	return t
}
