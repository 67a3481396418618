package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "photo-triage",
	Short: "On-device photo analysis and smart categorization",
	Long: `Photo Triage analyzes a local photo library entirely on-device and
sorts photos into smart categories: scenery, blurry shots, screenshots of
QR codes, near-duplicate groups and photos you probably don't want to keep.

All analysis runs locally. No photo ever leaves the device.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
