package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"stockgen/internal/aiclient"
	"stockgen/internal/batch"
	"stockgen/internal/config"
	"stockgen/internal/metawrite"
	"stockgen/internal/models"
	"stockgen/internal/prep"
	"stockgen/internal/reject"
	"stockgen/internal/report"
	"stockgen/internal/scan"
	"stockgen/internal/video"
)

func newGenerateCmd(settingsPath *string) *cobra.Command {
	var (
		output  string
		model   string
		threads int
		noEmbed bool
	)

	cmd := &cobra.Command{
		Use:   "generate <folder>",
		Short: "Generate metadata for every media file in a folder",
		Long: `Scans the folder for supported images and videos, generates metadata
for each with the configured AI model, writes marketplace CSVs and a
Parquet archive of the run, and (unless disabled) embeds the metadata
into the accepted files. Files the quality gate rejects are moved to a
rejected subfolder under the output location.`,
		Example: `  # Generate with settings-file defaults
  stockgen generate ~/stock/batch01

  # Override the model and write reports elsewhere
  stockgen generate ~/stock/batch01 --model gpt-4o --output ~/stock/out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*settingsPath)
			if err != nil {
				return err
			}
			cfg.InputFolder = args[0]
			if output != "" {
				cfg.OutputFolder = output
			}
			if cfg.OutputFolder == "" {
				cfg.OutputFolder = cfg.InputFolder
			}
			if model != "" {
				cfg.Model = model
			}
			if threads > 0 {
				cfg.MaxThreads = threads
			}
			if noEmbed {
				cfg.AutoEmbed = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			files, err := scan.Folder(cfg.InputFolder)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				slog.Info("No supported media files found", "folder", cfg.InputFolder)
				return nil
			}
			slog.Info("Starting batch", "files", len(files), "model", cfg.Model, "threads", cfg.Threads())

			writer := metawrite.New()
			runner := batch.New(cfg,
				aiclient.New(cfg),
				prep.New(&video.FFmpegExtractor{}),
				reject.New(cfg.OutputFolder, writer),
			)
			results := runner.Run(cmd.Context(), files)

			if cfg.AutoEmbed {
				embedResults(writer, results)
			}

			paths, err := report.WriteCSVs(cfg.InputFolder, cfg.OutputFolder, results)
			if err != nil {
				return err
			}
			archive := filepath.Join(cfg.OutputFolder, report.ExportName(cfg.InputFolder)+"_Results.parquet")
			if err := report.WriteParquet(archive, results); err != nil {
				return err
			}
			paths = append(paths, archive)

			logSummary(results, paths)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "folder for reports and rejected files (default: the input folder)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "override the configured model")
	cmd.Flags().IntVarP(&threads, "threads", "t", 0, "override the configured concurrency")
	cmd.Flags().BoolVar(&noEmbed, "no-embed", false, "skip embedding metadata into the media files")

	return cmd
}

func embedResults(writer *metawrite.Writer, results []models.Generated) {
	for _, g := range results {
		if g.IsError() {
			continue
		}
		err := writer.Embed(g.FilePath, metawrite.Fields{
			Title:       g.Title,
			Description: g.Description,
			Keywords:    g.Keywords,
			Category:    g.Category,
		})
		if err != nil {
			slog.Warn("Unable to embed metadata", "path", g.FilePath, "err", err)
		}
	}
}

func logSummary(results []models.Generated, paths []string) {
	var accepted, failed int
	var inTokens, outTokens uint32
	var cost float64
	for _, g := range results {
		if g.IsError() {
			failed++
		} else {
			accepted++
		}
		inTokens += g.InputTokens
		outTokens += g.OutputTokens
		cost += g.Cost
	}

	slog.Info("Batch complete",
		"accepted", accepted,
		"failed", failed,
		"input_tokens", inTokens,
		"output_tokens", outTokens,
		"cost", fmt.Sprintf("$%.6f", cost),
	)
	for _, p := range paths {
		slog.Info("Report written", "path", p)
	}
}
