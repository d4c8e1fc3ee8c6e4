package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/autocrm-backend/internal/services"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show article counts and vector index size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArticles(cmd, func(ctx context.Context, articles services.ArticleService) error {
				stats, err := articles.Stats(ctx)
				if err != nil {
					return fmt.Errorf("stats: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}
