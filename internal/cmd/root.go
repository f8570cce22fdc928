package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/adamancini/sus/internal/config"
	"github.com/adamancini/sus/internal/logging"
	"github.com/adamancini/sus/internal/output"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	verbose      bool
	quiet        bool
	noColor      bool

	// settings is loaded before any subcommand runs.
	settings = &config.Settings{}
)

// Execute runs the builder CLI.
func Execute(ctx context.Context, version, commit, date string) error {
	buildInfo = versionInfo{Version: version, Commit: commit, Date: date}
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sus",
		Short: "Build self-updating script wrappers",
		Long: `sus embeds a script into a wrapper executable that can replace itself with
a newer version downloaded from an update URL.

The produced file runs the embedded script with all of its arguments. When
the first argument is 'sus-update' it updates itself instead: download,
validate, back up, replace, validate again, and roll back on failure.`,
		Version:       buildInfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l := logging.NewLogger(cmd.ErrOrStderr())
			logging.Configure(l, logging.Flags{
				Verbose: verbose,
				Quiet:   quiet,
				NoColor: noColor || os.Getenv("NO_COLOR") != "",
			})
			cmd.SetContext(logging.WithLogger(cmd.Context(), l))

			loaded, path, err := config.FindAndLoad(configPath)
			if err != nil {
				return err
			}
			if path != "" {
				l.Debug("loaded settings", "path", path)
			}
			settings = loaded
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to settings file (default: $SUS_CONFIG or $XDG_CONFIG_HOME/sus/config.*)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")

	// Add subcommands
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newStampCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return output.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}

// newOutputWriter returns a writer for the --output flag.
func newOutputWriter(cmd *cobra.Command) (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(cmd.OutOrStdout(), format), nil
}
