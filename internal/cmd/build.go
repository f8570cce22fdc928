package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/sus/internal/builder"
	"github.com/adamancini/sus/internal/logging"
)

func newBuildCmd() *cobra.Command {
	var opts builder.Options

	cmd := &cobra.Command{
		Use:   "build <path>",
		Short: "Embed a script into a self-updating wrapper",
		Long: `Build takes the script at <path> and embeds it into a copy of sus. The new
file behaves like the original script; invoked as '<file> sus-update' it
updates itself from the embedded update URL.

Output goes to --out when it names an existing directory (the script name is
appended) or a file whose directory exists. Otherwise the wrapper is written
to ./build/<script name>.

Defaults for --update-url, --update-version and the build directory can be
set in the build section of the settings file.

Examples:
  sus build tool.sh --update-url https://example.com/tool.sh --update-version 1.2.0
  sus build tool.sh --out /usr/local/bin/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.PayloadPath = args[0]
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.UpdateURL, "update-url", "", "URL the wrapper downloads its next version from")
	cmd.Flags().StringVar(&opts.Version, "update-version", "", "Version embedded into the wrapper (default 0.0.0)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output directory or file path")
	cmd.Flags().StringVar(&opts.TemplatePath, "template", "", "sus executable to embed into (default: this one)")

	return cmd
}

func runBuild(cmd *cobra.Command, opts builder.Options) error {
	log := logging.FromContext(cmd.Context())

	if !cmd.Flags().Changed("update-url") {
		opts.UpdateURL = settings.Build.UpdateURL
	}
	if !cmd.Flags().Changed("update-version") {
		opts.Version = settings.Build.UpdateVersion
	}
	opts.BuildDir = settings.Build.OutDir

	w, err := newOutputWriter(cmd)
	if err != nil {
		return err
	}

	res, err := builder.Build(opts)
	if err != nil {
		return err
	}
	log.Debug("wrapper written", "path", res.OutPath, "size", res.Size, "version", res.Metadata.Version)

	if res.Metadata.UpdateURL == "" {
		log.Warn("no update url embedded; the wrapper can only update with --update-url", "path", res.OutPath)
	}

	if w.Structured() {
		return w.Write(res)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrapper has been created: %s\n", res.OutPath)
	return err
}
