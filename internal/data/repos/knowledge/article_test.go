package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/data/repos/testutil"
	types "github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
)

func TestArticleRepoCreateDefaultsToDraft(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewArticleRepo(db, testutil.Logger(t))

	a, err := repo.Create(dbctx.New(ctx), &types.Article{
		Title:   "Resetting your password",
		Content: "Use the forgot password link.",
		Tags:    []string{"account", "password"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByID(dbctx.New(ctx), a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.ArticleDraft {
		t.Fatalf("expected draft, got %q", got.Status)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "account" {
		t.Fatalf("tags not persisted: %#v", got.Tags)
	}
}

func TestArticleRepoSaveAndDelete(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewArticleRepo(db, testutil.Logger(t))
	a := testutil.SeedArticle(t, ctx, db, "Billing", "Invoices are monthly.", types.ArticleDraft)

	a.Status = types.ArticlePublished
	a.Content = "Invoices are sent on the first of the month."
	if err := repo.Save(dbctx.New(ctx), a); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.GetByID(dbctx.New(ctx), a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.ArticlePublished || got.Content != a.Content {
		t.Fatalf("save not applied: %#v", got)
	}

	if err := repo.Delete(dbctx.New(ctx), a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(dbctx.New(ctx), a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestArticleRepoListingAndCounts(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewArticleRepo(db, testutil.Logger(t))
	p1 := testutil.SeedArticle(t, ctx, db, "One", "one", types.ArticlePublished)
	p2 := testutil.SeedArticle(t, ctx, db, "Two", "two", types.ArticlePublished)
	testutil.SeedArticle(t, ctx, db, "Draft", "draft", types.ArticleDraft)
	testutil.SeedArticle(t, ctx, db, "Old", "old", types.ArticleArchived)

	published, err := repo.ListAllByStatus(dbctx.New(ctx), types.ArticlePublished)
	if err != nil {
		t.Fatalf("ListAllByStatus: %v", err)
	}
	if len(published) != 2 {
		t.Fatalf("expected 2 published, got %d", len(published))
	}

	page, err := repo.List(dbctx.New(ctx), ArticleFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(page))
	}

	counts, err := repo.CountByStatus(dbctx.New(ctx))
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[types.ArticlePublished] != 2 || counts[types.ArticleDraft] != 1 || counts[types.ArticleArchived] != 1 {
		t.Fatalf("unexpected counts %#v", counts)
	}

	byIDs, err := repo.GetByIDs(dbctx.New(ctx), []uuid.UUID{p1.ID, uuid.New(), p2.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(byIDs) != 2 {
		t.Fatalf("missing ids should be skipped, got %d rows", len(byIDs))
	}
}
