// Package versioncmder prints the build information stamped into studyrag
// at link time.
package versioncmder

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/utils"
)

// BuildInfo is the JSON shape of "studyrag version --json".
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuiltAt   string `json:"built_at"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func currentBuild() BuildInfo {
	return BuildInfo{
		Version:   utils.Version,
		Commit:    utils.Sha,
		BuiltAt:   utils.Buildtime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func NewVersionCmd() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the studyrag version",
		Long: `Print the studyrag version, commit and build time.

Use --short in scripts that only need the version string, or --json to
attach the full build information to a bug report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd.OutOrStdout(), currentBuild(), short, asJSON)
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	cmd.MarkFlagsMutuallyExclusive("short", "json")

	return cmd
}

func printVersion(w io.Writer, info BuildInfo, short, asJSON bool) error {
	switch {
	case short:
		_, err := fmt.Fprintln(w, info.Version)
		return err
	case asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(w, "\n  %s %s\n\n", cliui.HeaderStyle.Render("studyrag"), cliui.AccentStyle.Render(info.Version))
	for _, row := range [][2]string{
		{"commit", info.Commit},
		{"built", info.BuiltAt},
		{"go", info.GoVersion},
		{"platform", info.Platform},
	} {
		fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-9s", row[0])), cliui.ValueStyle.Render(row[1]))
	}
	fmt.Fprintln(w)
	return nil
}
