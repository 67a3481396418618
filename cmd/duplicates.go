package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Recompute and print duplicate groups",
	Long: `Recompute near-duplicate groups from cached feature prints and
retag the Duplicate category.

Photos must have been scanned first; photos without a cached feature print
are not considered.

Example:
  photo-triage duplicates`,
	RunE: runDuplicates,
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	groups, err := app.clusterer.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("duplicate detection failed: %w", err)
	}

	if len(groups) == 0 {
		fmt.Println("No duplicate groups found")
		return nil
	}

	fmt.Printf("Found %d duplicate groups:\n\n", len(groups))
	for i, group := range groups {
		fmt.Printf("Group %d (%d photos):\n", i+1, len(group))
		for _, id := range group {
			fmt.Printf("  %s\n", id)
		}
		fmt.Println()
	}
	return nil
}
