package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"stockgen/internal/aiclient"
	"stockgen/internal/config"
	"stockgen/internal/gemini"
)

func newCheckCmd(settingsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the configured AI credentials",
		Long: `Sends a minimal request with the configured credentials so key or
connectivity problems surface before a batch run. Gemini keys in
direct mode are verified through the official SDK; everything else
goes through the same call path a batch run uses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*settingsPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.ConnectionMode == config.ModeDirect && strings.Contains(strings.ToLower(cfg.Provider), "gemini") {
				if err := gemini.Verify(cmd.Context(), cfg.APIKey, cfg.Model); err != nil {
					return fmt.Errorf("credential check failed: %w", err)
				}
				slog.Info("Credentials verified", "provider", cfg.Provider, "model", cfg.Model)
				return nil
			}

			client := aiclient.New(cfg)
			res, err := client.Call(cmd.Context(), cfg.Model, "Reply with the single word: ok", nil)
			if err != nil {
				return fmt.Errorf("credential check failed: %w", err)
			}
			slog.Info("Credentials verified", "provider", res.Provider, "model", cfg.Model)
			return nil
		},
	}
}
