package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockgen/internal/scan"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <folder>",
		Short: "List the media files a generate run would process",
		Long: `Lists the supported images and videos in the folder in the order a
generate run would process them (natural sort, hidden and temporary
files skipped).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := scan.Folder(args[0])
			if err != nil {
				return err
			}
			for _, f := range files {
				kind := "image"
				if scan.IsVideo(f) {
					kind = "video"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", kind, f)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d files\n", len(files))
			return nil
		},
	}
}
