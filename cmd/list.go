package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mholecy/photo-triage/internal/categories"
	"github.com/mholecy/photo-triage/internal/logging"
	"github.com/mholecy/photo-triage/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list <category>",
	Short: "List photos in a smart category",
	Long: fmt.Sprintf(`List the photos of a smart category, resolved against the live library.

Categories: %s

Example:
  photo-triage list blurry
  photo-triage list scenery --limit 20 --sort oldest`, strings.Join(categoryNames(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Int("limit", 0, "Maximum number of photos (0 = all)")
	listCmd.Flags().String("sort", "newest", "Sort order: newest, oldest or random")
	listCmd.Flags().StringSlice("exclude", nil, "Photo IDs to exclude")
}

func categoryNames() []string {
	names := make([]string, len(store.AllCategories))
	for i, c := range store.AllCategories {
		names[i] = string(c)
	}
	return names
}

func runList(cmd *cobra.Command, args []string) error {
	category, ok := store.ParseCategory(args[0])
	if !ok {
		return fmt.Errorf("unknown category %q, expected one of: %s", args[0], strings.Join(categoryNames(), ", "))
	}

	sortBy, err := categories.ParseSortOption(mustGetString(cmd, "sort"))
	if err != nil {
		return err
	}

	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	index := categories.NewIndex(app.cache, app.source, logging.WithComponent(app.logger, "categories"))
	refs, err := index.Fetch(cmd.Context(), category, mustGetInt(cmd, "limit"), mustGetStringSlice(cmd, "exclude"), sortBy)
	if err != nil {
		return err
	}

	if len(refs) == 0 {
		fmt.Printf("No photos in category %s\n", category)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED")
	for _, ref := range refs {
		fmt.Fprintf(w, "%s\t%s\n", ref.ID, ref.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
