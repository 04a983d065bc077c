package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stockgen/internal/config"
)

func NewRootCmd() *cobra.Command {
	var settingsPath string

	cmd := &cobra.Command{
		Use:   "stockgen",
		Short: "AI metadata generation for stock media",
		Long: `Stockgen generates marketplace-ready metadata (title, description,
keywords, categories) for folders of stock photos and videos using a
vision-capable AI model, with an optional quality gate that filters out
files a marketplace would reject.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&settingsPath, "settings", config.DefaultPath(), "path to the settings file")

	cmd.AddCommand(newGenerateCmd(&settingsPath))
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newCheckCmd(&settingsPath))

	return cmd
}
