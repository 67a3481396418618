package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mholecy/photo-triage/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print analysis cache statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	stats, err := app.cache.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("could not load statistics: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Analyzed photos\t%d\n", stats.Total)
	for _, category := range store.AllCategories {
		fmt.Fprintf(w, "  %s\t%d\n", category, stats.ByCategory[category])
	}

	if people := app.people(); people != nil {
		count, err := people.AlbumAssetCount(cmd.Context())
		if err != nil {
			app.logger.Warn("could not count people album", "error", err)
		} else {
			fmt.Fprintf(w, "People album\t%d\n", count)
		}
	}

	return w.Flush()
}
