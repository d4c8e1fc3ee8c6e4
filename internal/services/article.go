package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/data/repos"
	"github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	kb "github.com/yungbote/autocrm-backend/internal/knowledge"
	"github.com/yungbote/autocrm-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

// ArticleIndexer keeps the vector index in line with published articles.
type ArticleIndexer interface {
	Sync(ctx context.Context, articles []*knowledge.Article) kb.SyncReport
	IndexArticle(ctx context.Context, a *knowledge.Article) error
	RemoveArticle(ctx context.Context, id uuid.UUID) error
}

type TagGenerator interface {
	GenerateTags(ctx context.Context, title, content string) []string
}

type CreateArticleInput struct {
	Title   string
	Content string
	Tags    []string
	Status  knowledge.ArticleStatus
	// AutoTag asks the assistant for tags when none were supplied.
	AutoTag bool
}

// UpdateArticleInput is a patch; nil fields are left alone.
type UpdateArticleInput struct {
	Title   *string
	Content *string
	Tags    *[]string
	Status  *knowledge.ArticleStatus
}

type ListArticlesInput struct {
	Status knowledge.ArticleStatus
	Limit  int
	Offset int
}

type KnowledgeStats struct {
	IndexedRecords int64                             `json:"indexedRecords"`
	Dimension      int                               `json:"dimension"`
	Articles       map[knowledge.ArticleStatus]int64 `json:"articles"`
}

type ArticleService interface {
	Create(ctx context.Context, in CreateArticleInput) (*knowledge.Article, error)
	Get(ctx context.Context, id uuid.UUID) (*knowledge.Article, error)
	List(ctx context.Context, in ListArticlesInput) ([]*knowledge.Article, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateArticleInput) (*knowledge.Article, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, limit int) ([]knowledge.Suggestion, error)
	// Sync rebuilds the index from every published article.
	Sync(ctx context.Context) (kb.SyncReport, error)
	Stats(ctx context.Context) (*KnowledgeStats, error)
}

type articleService struct {
	log         *logger.Logger
	articleRepo repos.ArticleRepo
	indexer     ArticleIndexer
	finder      ArticleFinder
	index       vectorindex.Index
	tags        TagGenerator
}

func NewArticleService(
	log *logger.Logger,
	articleRepo repos.ArticleRepo,
	indexer ArticleIndexer,
	finder ArticleFinder,
	index vectorindex.Index,
	tags TagGenerator,
) ArticleService {
	return &articleService{
		log:         log.With("service", "ArticleService"),
		articleRepo: articleRepo,
		indexer:     indexer,
		finder:      finder,
		index:       index,
		tags:        tags,
	}
}

func (s *articleService) Create(ctx context.Context, in CreateArticleInput) (*knowledge.Article, error) {
	id, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", apperr.ErrInvalidArgument)
	}
	status := in.Status
	if status == "" {
		status = knowledge.ArticleDraft
	}
	if _, ok := knowledge.ParseArticleStatus(string(status)); !ok {
		return nil, fmt.Errorf("%w: unknown article status %q", apperr.ErrInvalidArgument, status)
	}
	tags := knowledge.NormalizeTags(in.Tags)
	if len(tags) == 0 && in.AutoTag && s.tags != nil {
		tags = knowledge.NormalizeTags(s.tags.GenerateTags(ctx, title, content))
	}
	author := id.UserID
	a := &knowledge.Article{
		Title:    title,
		Content:  content,
		Tags:     tags,
		Status:   status,
		AuthorID: &author,
	}
	if _, err := s.articleRepo.Create(dbctx.New(ctx), a); err != nil {
		return nil, err
	}
	s.log.Info("Article created", "article_id", a.ID, "status", a.Status, "tags", len(a.Tags))
	if a.Status == knowledge.ArticlePublished {
		s.reindex(ctx, a)
	}
	return a, nil
}

func (s *articleService) Get(ctx context.Context, id uuid.UUID) (*knowledge.Article, error) {
	caller, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.articleRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	// Customers only ever see published articles; anything else reads as missing.
	if !isStaff(caller) && a.Status != knowledge.ArticlePublished {
		return nil, apperr.ErrNotFound
	}
	return a, nil
}

func (s *articleService) List(ctx context.Context, in ListArticlesInput) ([]*knowledge.Article, error) {
	caller, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	f := repos.ArticleFilter{Status: in.Status, Limit: in.Limit, Offset: in.Offset}
	if !isStaff(caller) {
		f.Status = knowledge.ArticlePublished
	}
	return s.articleRepo.List(dbctx.New(ctx), f)
}

func (s *articleService) Update(ctx context.Context, id uuid.UUID, in UpdateArticleInput) (*knowledge.Article, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	a, err := s.articleRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	wasPublished := a.Status == knowledge.ArticlePublished
	contentChanged := false

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", apperr.ErrInvalidArgument)
		}
		contentChanged = contentChanged || t != a.Title
		a.Title = t
	}
	if in.Content != nil {
		c := strings.TrimSpace(*in.Content)
		if c == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", apperr.ErrInvalidArgument)
		}
		contentChanged = contentChanged || c != a.Content
		a.Content = c
	}
	if in.Tags != nil {
		tags := knowledge.NormalizeTags(*in.Tags)
		contentChanged = contentChanged || !sameTags(tags, a.Tags)
		a.Tags = tags
	}
	if in.Status != nil {
		st, ok := knowledge.ParseArticleStatus(string(*in.Status))
		if !ok {
			return nil, fmt.Errorf("%w: unknown article status %q", apperr.ErrInvalidArgument, *in.Status)
		}
		a.Status = st
	}
	if err := s.articleRepo.Save(dbctx.New(ctx), a); err != nil {
		return nil, err
	}

	isPublished := a.Status == knowledge.ArticlePublished
	switch {
	case isPublished && (!wasPublished || contentChanged):
		s.reindex(ctx, a)
	case wasPublished && !isPublished:
		s.unindex(ctx, a.ID)
	}
	s.log.Info("Article updated", "article_id", a.ID, "status", a.Status, "reindexed", isPublished && (!wasPublished || contentChanged))
	return a, nil
}

func (s *articleService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireStaff(ctx); err != nil {
		return err
	}
	if err := s.articleRepo.Delete(dbctx.New(ctx), id); err != nil {
		return err
	}
	s.unindex(ctx, id)
	s.log.Info("Article deleted", "article_id", id)
	return nil
}

func (s *articleService) Search(ctx context.Context, query string, limit int) ([]knowledge.Suggestion, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", apperr.ErrInvalidArgument)
	}
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	return s.finder.FindSimilar(ctx, query, limit), nil
}

func (s *articleService) Sync(ctx context.Context) (kb.SyncReport, error) {
	articles, err := s.articleRepo.ListAllByStatus(dbctx.New(ctx), knowledge.ArticlePublished)
	if err != nil {
		return kb.SyncReport{}, fmt.Errorf("load published articles: %w", err)
	}
	return s.indexer.Sync(ctx, articles), nil
}

func (s *articleService) Stats(ctx context.Context) (*KnowledgeStats, error) {
	counts, err := s.articleRepo.CountByStatus(dbctx.New(ctx))
	if err != nil {
		return nil, err
	}
	st, err := s.index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector index stats: %w", err)
	}
	return &KnowledgeStats{IndexedRecords: st.TotalRecordCount, Dimension: st.Dimension, Articles: counts}, nil
}

// reindex and unindex log failures; the next sync repairs the index.
func (s *articleService) reindex(ctx context.Context, a *knowledge.Article) {
	if err := s.indexer.IndexArticle(ctx, a); err != nil {
		s.log.Warn("Article index failed", "article_id", a.ID, "error", err)
	}
}

func (s *articleService) unindex(ctx context.Context, id uuid.UUID) {
	if err := s.indexer.RemoveArticle(ctx, id); err != nil {
		s.log.Warn("Article unindex failed", "article_id", id, "error", err)
	}
}

func sameTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
