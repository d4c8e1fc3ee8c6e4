package knowledge

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/autocrm-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/pkg/dbctx"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type ArticleFilter struct {
	Status types.ArticleStatus
	Limit  int
	Offset int
}

type ArticleRepo interface {
	Create(dbc dbctx.Context, a *types.Article) (*types.Article, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Article, error)
	// GetByIDs skips ids that no longer exist.
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Article, error)
	List(dbc dbctx.Context, f ArticleFilter) ([]*types.Article, error)
	// ListAllByStatus is unpaginated; used by the knowledge sync.
	ListAllByStatus(dbc dbctx.Context, status types.ArticleStatus) ([]*types.Article, error)
	CountByStatus(dbc dbctx.Context) (map[types.ArticleStatus]int64, error)
	Save(dbc dbctx.Context, a *types.Article) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type articleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArticleRepo(db *gorm.DB, log *logger.Logger) ArticleRepo {
	return &articleRepo{db: db, log: log.With("repo", "ArticleRepo")}
}

func (r *articleRepo) Create(dbc dbctx.Context, a *types.Article) (*types.Article, error) {
	if a == nil {
		return nil, fmt.Errorf("missing article")
	}
	if a.Status == "" {
		a.Status = types.ArticleDraft
	}
	if err := dbc.DB(r.db).Create(a).Error; err != nil {
		return nil, repoerr.Map("create article", err)
	}
	return a, nil
}

func (r *articleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Article, error) {
	var out types.Article
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, repoerr.Map("get article", err)
	}
	return &out, nil
}

func (r *articleRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Article, error) {
	if len(ids) == 0 {
		return []*types.Article{}, nil
	}
	var out []*types.Article
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, repoerr.Map("get articles", err)
	}
	return out, nil
}

func (r *articleRepo) List(dbc dbctx.Context, f ArticleFilter) ([]*types.Article, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q := dbc.DB(r.db).Model(&types.Article{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []*types.Article
	if err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, repoerr.Map("list articles", err)
	}
	return out, nil
}

func (r *articleRepo) ListAllByStatus(dbc dbctx.Context, status types.ArticleStatus) ([]*types.Article, error) {
	var out []*types.Article
	if err := dbc.DB(r.db).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, repoerr.Map("list articles by status", err)
	}
	return out, nil
}

func (r *articleRepo) CountByStatus(dbc dbctx.Context) (map[types.ArticleStatus]int64, error) {
	var rows []struct {
		Status types.ArticleStatus
		N      int64
	}
	if err := dbc.DB(r.db).
		Model(&types.Article{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, repoerr.Map("count articles", err)
	}
	out := make(map[types.ArticleStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *articleRepo) Save(dbc dbctx.Context, a *types.Article) error {
	if a == nil || a.ID == uuid.Nil {
		return fmt.Errorf("missing article id")
	}
	a.UpdatedAt = time.Now().UTC()
	res := dbc.DB(r.db).Model(&types.Article{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
		"title":      a.Title,
		"content":    a.Content,
		"tags":       a.Tags,
		"status":     a.Status,
		"updated_at": a.UpdatedAt,
	})
	if res.Error != nil {
		return repoerr.Map("save article", res.Error)
	}
	if res.RowsAffected == 0 {
		return repoerr.Map("save article", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *articleRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Article{})
	if res.Error != nil {
		return repoerr.Map("delete article", res.Error)
	}
	if res.RowsAffected == 0 {
		return repoerr.Map("delete article", gorm.ErrRecordNotFound)
	}
	return nil
}
