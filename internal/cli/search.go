package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/autocrm-backend/internal/knowledge"
	"github.com/yungbote/autocrm-backend/internal/services"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a similarity search against the knowledge base",
		Args:  cobra.MinimumNArgs(1),
	}
	limit := cmd.Flags().IntP("limit", "l", 5, "Max results")
	threshold := cmd.Flags().Float64("threshold", 0, "Drop results below this similarity")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withArticles(cmd, func(ctx context.Context, articles services.ArticleService) error {
			results, err := articles.Search(ctx, query, *limit)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			if *threshold > 0 {
				results = knowledge.FilterByThreshold(results, *threshold)
			}
			return printJSON(cmd.OutOrStdout(), results)
		})
	}
	return cmd
}
