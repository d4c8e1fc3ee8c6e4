package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/autocrm-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/autocrm-backend/internal/domain/user"
	"github.com/yungbote/autocrm-backend/internal/pkg/dbctx"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type UserRepo interface {
	// Upsert records the identity carried by a token, refreshing email, name and role.
	Upsert(dbc dbctx.Context, u *types.User) (*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Upsert(dbc dbctx.Context, u *types.User) (*types.User, error) {
	if u == nil || u.ID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	err := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "role", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return nil, repoerr.Map("upsert user", err)
	}
	return u, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	var out types.User
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, repoerr.Map("get user", err)
	}
	return &out, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	if len(ids) == 0 {
		return []*types.User{}, nil
	}
	var out []*types.User
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, repoerr.Map("get users", err)
	}
	return out, nil
}
