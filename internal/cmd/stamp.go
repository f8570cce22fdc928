package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/sus/internal/builder"
)

func newStampCmd() *cobra.Command {
	var updateURL, version string

	cmd := &cobra.Command{
		Use:   "stamp <file>",
		Short: "Change the version or update URL of an existing wrapper",
		Long: `Stamp rewrites the metadata embedded in a wrapper in place. The payload and
the file permissions are kept. Only the fields given as flags change; pass
--update-url "" to remove the update URL.

Examples:
  sus stamp ./build/tool.sh --update-version 1.3.0
  sus stamp /usr/local/bin/tool --update-url https://example.com/tool.sh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := builder.StampOptions{Path: args[0]}
			if cmd.Flags().Changed("update-url") {
				opts.UpdateURL = &updateURL
			}
			if cmd.Flags().Changed("update-version") {
				opts.Version = &version
			}
			if opts.UpdateURL == nil && opts.Version == nil {
				return fmt.Errorf("nothing to change; pass --update-url or --update-version")
			}

			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			res, err := builder.Stamp(opts)
			if err != nil {
				return err
			}
			if w.Structured() {
				return w.Write(res)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrapper has been updated: %s (version %s)\n", res.OutPath, res.Metadata.Version)
			return err
		},
	}

	cmd.Flags().StringVar(&updateURL, "update-url", "", "New update URL")
	cmd.Flags().StringVar(&version, "update-version", "", "New embedded version")

	return cmd
}
