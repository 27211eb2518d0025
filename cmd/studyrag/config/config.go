// Package configcmder provides the config command for managing persistent
// studyrag configuration stored in the .studyrag/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/config"
)

const configLongDesc string = `Manage persistent studyrag configuration.

Configuration is stored as config.toml in the .studyrag/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.model, embedding.dimensions,
  llm.provider, llm.model, llm.quiz_model,
  ingest.chunk_size, ingest.chunk_overlap, ingest.workers,
  quiz_store.provider, quiz_store.dsn, events.provider, ...

Run "studyrag config list" for every key.

Use subcommands to get, set, or list configuration values:
  studyrag config set <key> <value>    Store a configuration value
  studyrag config get <key> [key...]   Print configuration values
  studyrag config list                 List all configuration values

Examples:
  studyrag config set llm.provider groq
  studyrag config set embedding.model nomic-embed-text
  studyrag config get llm.provider
  studyrag config list`

const configShortDesc string = "Manage persistent studyrag configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// secretKeys hold credentials and are never printed in full unless asked.
var secretKeys = map[string]bool{
	"vector_store.api_key":  true,
	"embedding.redis_cache": true,
	"quiz_store.dsn":        true,
}

func checkKey(key string) error {
	if config.IsValidConfigKey(key) {
		return nil
	}
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func completeKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
}

// printTarget names the config.toml in use, or says the defaults apply.
func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(target))
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No .studyrag directory found. Using defaults."))
}

func renderValue(key, value string, reveal bool) string {
	switch {
	case value == "":
		return cliui.DimStyle.Render("<not set>")
	case secretKeys[key] && !reveal:
		return cliui.DimStyle.Render(mask(value))
	default:
		return cliui.ValueStyle.Render(value)
	}
}

// mask keeps the first four characters of a secret.
func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", 8)
}
