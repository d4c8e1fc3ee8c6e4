package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/autocrm-backend/internal/domain/knowledge"
	"github.com/yungbote/autocrm-backend/internal/domain/support"
	"github.com/yungbote/autocrm-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, role user.Role) *user.User {
	tb.Helper()
	u := &user.User{
		ID:    uuid.New(),
		Email: email,
		Name:  "Test " + string(role),
		Role:  role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedTicket(tb testing.TB, ctx context.Context, tx *gorm.DB, submittedBy uuid.UUID, title string) *support.Ticket {
	tb.Helper()
	t := &support.Ticket{
		Title:       title,
		Description: "description for " + title,
		Status:      support.StatusOpen,
		Priority:    support.PriorityMedium,
		SubmittedBy: submittedBy,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed ticket: %v", err)
	}
	return t
}

func SeedArticle(tb testing.TB, ctx context.Context, tx *gorm.DB, title, content string, status knowledge.ArticleStatus) *knowledge.Article {
	tb.Helper()
	a := &knowledge.Article{
		Title:   title,
		Content: content,
		Status:  status,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed article: %v", err)
	}
	return a
}
