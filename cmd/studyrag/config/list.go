package configcmder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays every configuration key with its current value from the config.toml
file stored in the .studyrag/ directory. Values that differ from the defaults
are marked with *. Secrets are masked.

Examples:
  studyrag config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(os.Stdout, configDir)
		},
	}

	return cmd
}

func runList(w io.Writer, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return err
	}

	printTarget(w, cfger)

	defaults := config.NewDefaultConfig()
	keys := config.ValidConfigKeys()

	maxLen := 0
	for _, k := range keys {
		maxLen = max(maxLen, len(k))
	}

	section := ""
	for _, key := range keys {
		if s, _, _ := strings.Cut(key, "."); s != section {
			if section != "" {
				fmt.Fprintln(w)
			}
			section = s
		}

		value, err := config.ValueOf(cfg, key)
		if err != nil {
			return err
		}
		def, _ := config.ValueOf(defaults, key)

		marker := " "
		if value != def {
			marker = cliui.AccentStyle.Render("*")
		}

		padded := fmt.Sprintf("%-*s", maxLen, key)
		fmt.Fprintf(w, "  %s %s  %s\n", marker, cliui.KeyStyle.Render(padded), renderValue(key, value, false))
	}
	fmt.Fprintln(w)

	return nil
}
