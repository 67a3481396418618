package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mholecy/photo-triage/internal/photos"
	"github.com/mholecy/photo-triage/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyze the photo library",
	Long: `Run a foreground analysis scan over the photo library.

Photos that already have a fresh cache entry are skipped; the rest go
through the full analysis pipeline (blur, brightness, QR detection, scene
classification, feature print) and are categorized. The scan pauses while
the device is warm and resumes automatically.

Example:
  photo-triage scan
  photo-triage scan --exclude trash/IMG_0001.jpg`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringSlice("exclude", nil, "Photo IDs to skip")
	scanCmd.Flags().Bool("duplicates", true, "Recompute duplicate groups after the scan")
}

func runScan(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	var bar *progressbar.ProgressBar
	onProgress := func(p scan.Progress) {
		switch {
		case p.TotalPhotos == 0:
			return
		case bar == nil:
			bar = newScanBar(p.TotalPhotos)
		}
		_ = bar.Set(p.AnalyzedPhotos)
		if p.Phase == scan.PhasePaused {
			bar.Describe("Paused (device is warm)")
		} else {
			bar.Describe("Analyzing photos")
		}
	}

	filter := photos.Filter{ExcludeIDs: mustGetStringSlice(cmd, "exclude")}
	if err := app.orchestrator.Run(cmd.Context(), filter, onProgress); err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	if mustGetBool(cmd, "duplicates") {
		groups, err := app.clusterer.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("duplicate detection failed: %w", err)
		}
		fmt.Printf("Found %d duplicate groups\n", len(groups))
	}

	return nil
}

func newScanBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Analyzing photos"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
