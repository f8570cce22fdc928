package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

func (v versionInfo) String() string {
	return fmt.Sprintf("sus version %s (commit %s, built %s)", v.Version, v.Commit, v.Date)
}

// buildInfo is set by Execute.
var buildInfo = versionInfo{Version: "dev", Commit: "none", Date: "unknown"}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			return w.Write(buildInfo)
		},
	}
}
