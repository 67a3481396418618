package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached analysis results",
	Long: `Delete every cached analysis result.

All results are derived from source pixels and will be recomputed by the
next scan; no photo is touched.

Example:
  photo-triage clear --yes`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func confirmAction(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func runClear(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	stats, err := app.cache.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("could not load statistics: %w", err)
	}
	if stats.Total == 0 {
		fmt.Println("Cache is already empty")
		return nil
	}

	if !mustGetBool(cmd, "yes") {
		if !confirmAction(fmt.Sprintf("Delete %d cached results? [y/N] ", stats.Total)) {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := app.cache.ClearAll(cmd.Context()); err != nil {
		return fmt.Errorf("could not clear cache: %w", err)
	}
	fmt.Printf("Deleted %d cached results\n", stats.Total)
	return nil
}
