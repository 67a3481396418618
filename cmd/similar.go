package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mholecy/photo-triage/internal/store"
)

var similarCmd = &cobra.Command{
	Use:   "similar <photo-id>",
	Short: "Find photos similar to a given photo",
	Long: `Find photos visually similar to the given photo using cached
feature prints. The photo must have been scanned first.

Example:
  photo-triage similar 2024/IMG_0042.jpg --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().Int("limit", 0, "Maximum number of matches (0 = default)")
	similarCmd.Flags().Float64("max-distance", 0, "Maximum cosine distance (0 = default)")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	searcher := store.NewSearcher(app.cache)
	matches, err := searcher.Similar(cmd.Context(), args[0], mustGetInt(cmd, "limit"), mustGetFloat64(cmd, "max-distance"))
	if err != nil {
		return err
	}
	if matches == nil {
		return fmt.Errorf("photo %s has no cached feature print, run a scan first", args[0])
	}
	if len(matches) == 0 {
		fmt.Println("No similar photos found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDISTANCE")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%.4f\n", m.PhotoID, m.Distance)
	}
	return w.Flush()
}
