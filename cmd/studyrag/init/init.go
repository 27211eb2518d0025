// Package initcmder provides the init command for initializing a local
// .studyrag directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/config"
)

const (
	dirName = ".studyrag"
)

const initLongDesc string = `Initialize a new .studyrag/ directory in the current working directory.

Creates a local .studyrag/ directory that takes precedence over the default
~/.studyrag/ directory for configuration, the SQLite databases and uploads.

With --preset, a config.toml is written for one of the provider presets:
  ollama   local Ollama embeddings and chat
  openai   OpenAI embeddings and chat (needs OPENAI_API_KEY)
  gemini   Gemini embeddings with a Groq chat model (needs GEMINI_API_KEY and GROQ_API_KEY)

Examples:
  studyrag init
  studyrag init --preset gemini`

const initShortDesc string = "Initialize a local .studyrag/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Write a config.toml for a provider preset ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		fmt.Printf("Already initialized: %s\n", dir)
	case err == nil:
		return fmt.Errorf("%s exists and is not a directory", dir)
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("checking %s: %w", dir, err)
	default:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .studyrag directory: %w", err)
		}
		fmt.Printf("Initialized .studyrag directory: %s\n", dir)
	}

	if preset == "" {
		return nil
	}

	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("  %s Wrote %s preset to %s\n", cliui.SuccessMark, cliui.KeyStyle.Render(preset), cliui.DimStyle.Render(cfger.GetTarget()))
	return nil
}
