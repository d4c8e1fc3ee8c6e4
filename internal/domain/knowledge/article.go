package knowledge

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticlePublished ArticleStatus = "published"
	ArticleArchived  ArticleStatus = "archived"
)

func ParseArticleStatus(raw string) (ArticleStatus, bool) {
	switch ArticleStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case ArticleDraft:
		return ArticleDraft, true
	case ArticlePublished:
		return ArticlePublished, true
	case ArticleArchived:
		return ArticleArchived, true
	default:
		return "", false
	}
}

type Article struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string                      `gorm:"column:title;not null" json:"title"`
	Content   string                      `gorm:"column:content;type:text;not null" json:"content"`
	Tags      datatypes.JSONSlice[string] `gorm:"column:tags;type:jsonb" json:"tags"`
	Status    ArticleStatus               `gorm:"column:status;not null;index" json:"status"`
	AuthorID  *uuid.UUID                  `gorm:"type:uuid;column:author_id;index" json:"author_id,omitempty"`
	CreatedAt time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                   `gorm:"not null;index" json:"updated_at"`
}

func (Article) TableName() string { return "knowledge_article" }

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// EmbeddingText is the text that represents the article in the vector index.
func (a *Article) EmbeddingText() string {
	return a.Title + "\n\n" + a.Content
}

// NormalizeTags trims, lower-cases and de-duplicates tags, returning them sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Suggestion pairs an article with its similarity to a query. Never persisted.
type Suggestion struct {
	Article    Article `json:"article"`
	Similarity float64 `json:"similarity"`
}
