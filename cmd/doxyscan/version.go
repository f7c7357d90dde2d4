package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"doxyscan/internal/decl"
	"doxyscan/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := OutputFormat(formatFlag)
		if format == "" {
			format = FormatHuman
		}
		s, err := FormatResponse(&VersionResponse{
			Version:    version.Version,
			Commit:     version.Commit,
			BuildDate:  version.BuildDate,
			GoVersion:  runtime.Version(),
			TreeSitter: decl.IsAvailable(),
		}, format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write([]byte(s + "\n"))
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// VersionResponse is the response format for version
type VersionResponse struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	TreeSitter bool   `json:"treeSitter"`
}

func formatVersionHuman(v *VersionResponse) string {
	s := version.Full() + "\nGo: " + v.GoVersion
	if v.TreeSitter {
		s += "\nDeclaration backends: heuristic, treesitter"
	} else {
		s += "\nDeclaration backends: heuristic"
	}
	return s
}
