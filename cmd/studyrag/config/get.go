package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/config"
)

const getLongDesc string = `Print one or more configuration values.

Each key is resolved against .studyrag/config.toml with the built-in defaults
filled in, so "get" shows what ingest, ask and serve will actually use.
Secrets such as vector_store.api_key are masked unless --reveal is given.

Examples:
  studyrag config get llm.provider
  studyrag config get embedding.provider embedding.model embedding.dimensions
  studyrag config get vector_store.api_key --reveal`

const getShortDesc string = "Print configuration values"

func newGetCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "get <key> [key...]",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runGet(cmd.OutOrStdout(), configDir, args, reveal)
		},
		ValidArgsFunction: completeKeys,
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secret values in full")
	return cmd
}

func runGet(w io.Writer, configDir string, keys []string, reveal bool) error {
	for _, key := range keys {
		if err := checkKey(key); err != nil {
			return err
		}
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return err
	}

	printTarget(w, cfger)

	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	for _, key := range keys {
		value, err := config.ValueOf(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-*s", width, key)), renderValue(key, value, reveal))
	}
	fmt.Fprintln(w)
	return nil
}
