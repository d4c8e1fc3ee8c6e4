// Package cli implements the kbadmin operator commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/autocrm-backend/internal/app"
	"github.com/yungbote/autocrm-backend/internal/domain/user"
	"github.com/yungbote/autocrm-backend/internal/platform/ctxutil"
	"github.com/yungbote/autocrm-backend/internal/services"
)

// operatorID is the stable identity kbadmin acts as.
var operatorID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("autocrm-kbadmin"))

// openArticles builds the knowledge base service and a release func. Swapped in tests.
var openArticles = func(ctx context.Context) (services.ArticleService, func(), error) {
	a, err := app.NewCore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return a.Services.Articles, a.Close, nil
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kbadmin",
		Short:         "Knowledge base maintenance for the AutoCRM backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSyncCmd(), newStatsCmd(), newSearchCmd(), newTokenCmd())
	return root
}

func operatorContext(ctx context.Context) context.Context {
	return ctxutil.WithIdentity(ctx, &ctxutil.Identity{
		UserID: operatorID,
		Name:   "kbadmin",
		Role:   string(user.RoleAdmin),
	})
}

func withArticles(cmd *cobra.Command, fn func(ctx context.Context, articles services.ArticleService) error) error {
	ctx := operatorContext(cmd.Context())
	articles, release, err := openArticles(ctx)
	if err != nil {
		return fmt.Errorf("open app: %w", err)
	}
	defer release()
	return fn(ctx, articles)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
