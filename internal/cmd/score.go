package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ignite/engagement-analytics/internal/analytics"
)

func newScoreCmd() *cobra.Command {
	var (
		positive, total int
		signals         analytics.HeuristicSignals
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score ratings and optional marketplace signals",
		Long: `Score combines the Wilson lower bound of positive/total with a
heuristic score built from marketplace signals. The heuristic is only used
when at least one signal flag is given.`,
		Example: `  engagectl score --positive 40 --total 50
  engagectl score --positive 3 --total 4 --thumbnail --tags 5 --downloads 20 --views 150`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if positive < 0 || total < 0 {
				return fmt.Errorf("positive and total must be non-negative")
			}
			var s *analytics.HeuristicSignals
			for _, name := range []string{"thumbnail", "description-length", "tags", "category", "downloads", "views", "favorites"} {
				if cmd.Flags().Changed(name) {
					s = &signals
					break
				}
			}
			return printJSON(cmd.OutOrStdout(), analytics.QualityScoreOf(positive, total, s))
		},
	}
	cmd.Flags().IntVar(&positive, "positive", 0, "positive ratings")
	cmd.Flags().IntVar(&total, "total", 0, "total ratings")
	cmd.Flags().BoolVar(&signals.HasThumbnail, "thumbnail", false, "item has a thumbnail")
	cmd.Flags().IntVar(&signals.DescriptionLength, "description-length", 0, "description length in characters")
	cmd.Flags().IntVar(&signals.TagCount, "tags", 0, "number of tags")
	cmd.Flags().BoolVar(&signals.HasCategory, "category", false, "item has a category")
	cmd.Flags().IntVar(&signals.Downloads, "downloads", 0, "download count")
	cmd.Flags().IntVar(&signals.Views, "views", 0, "view count")
	cmd.Flags().IntVar(&signals.Favorites, "favorites", 0, "favorite count")
	return cmd
}
