package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adamancini/sus/internal/builder"
	"github.com/adamancini/sus/internal/layout"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the metadata embedded in a wrapper",
		Long: `Inspect prints the version and update URL embedded in a wrapper, together
with the size and sha256 of its payload.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			info, err := builder.Inspect(args[0])
			if err != nil {
				return err
			}
			return w.Write(info)
		},
	}
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the script embedded in a wrapper",
		Long:  `Extract writes the embedded payload of a wrapper to stdout, byte for byte.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := layout.ReadFile(args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(f.Payload)
			return err
		},
	}
}
