package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/data/repos/testutil"
	types "github.com/yungbote/autocrm-backend/internal/domain/user"
	"github.com/yungbote/autocrm-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
)

func TestUserRepoUpsertRefreshesIdentity(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))
	id := uuid.New()

	if _, err := repo.Upsert(dbctx.New(ctx), &types.User{ID: id, Email: "old@example.com", Name: "Old", Role: types.RoleCustomer}); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	if _, err := repo.Upsert(dbctx.New(ctx), &types.User{ID: id, Email: "new@example.com", Name: "New", Role: types.RoleWorker}); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := repo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "new@example.com" || got.Role != types.RoleWorker || got.Name != "New" {
		t.Fatalf("identity not refreshed: %#v", got)
	}

	var n int64
	db.Model(&types.User{}).Count(&n)
	if n != 1 {
		t.Fatalf("upsert should not duplicate rows, got %d", n)
	}
}

func TestUserRepoGetMissing(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	if _, err := repo.GetByID(dbctx.New(context.Background()), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Upsert(dbctx.New(context.Background()), &types.User{}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}
