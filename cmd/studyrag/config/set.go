package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/config"
)

const setLongDesc string = `Store a configuration value in .studyrag/config.toml.

The file is created on first use. Numeric keys such as ingest.chunk_size and
embedding.dimensions must be whole numbers. The previous value is printed so
a change of embedding model or collection is easy to spot: chunks already
stored under the old settings are not re-embedded.

Examples:
  studyrag config set llm.provider anthropic
  studyrag config set embedding.model nomic-embed-text
  studyrag config set vector_store.provider qdrant
  studyrag config set ingest.chunk_size 800`

const setShortDesc string = "Store a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), configDir, args[0], args[1])
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}

func runSet(w io.Writer, configDir, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	previous, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	printTarget(w, cfger)

	if previous == value {
		fmt.Fprintf(w, "  %s %s already %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render(key), renderValue(key, value, false))
		return nil
	}

	from := cliui.DimStyle.Render("<not set>")
	if previous != "" {
		from = renderValue(key, previous, false)
	}
	fmt.Fprintf(w, "  %s %s  %s %s %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		from,
		cliui.DimStyle.Render("→"),
		renderValue(key, value, false),
	)
	return nil
}
