package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/autocrm-backend/internal/services"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the vector index from every published article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArticles(cmd, func(ctx context.Context, articles services.ArticleService) error {
				report, err := articles.Sync(ctx)
				if err != nil {
					return fmt.Errorf("sync: %w", err)
				}
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				if !report.OK() {
					return fmt.Errorf("sync finished with %d error(s)", len(report.Errors))
				}
				return nil
			})
		},
	}
}
