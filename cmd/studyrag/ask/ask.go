// Package askcmder provides the ask command for questions answered from the
// owner's ingested documents.
package askcmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/config"
	"github.com/papercomputeco/studyrag/pkg/rag"
	"github.com/papercomputeco/studyrag/pkg/stack"
	"github.com/papercomputeco/studyrag/pkg/utils"
)

type askCommander struct {
	question  string
	ownerID   string
	raw       bool
	configDir string
	debug     bool

	cfg *config.Config
}

const askLongDesc string = `Ask a question about your documents.

The question is answered only from the owner's most relevant chunks. When the
documents do not contain the answer, the reply says so instead of guessing.

Examples:
  studyrag ask "What do mitochondria produce?"
  studyrag ask "Summarize chapter 2" --owner alice --raw`

const askShortDesc string = "Ask a question about your documents"

// previewLength caps the source excerpt shown under an answer.
const previewLength = 160

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = config.ResolveForCommand(cmd, config.ProviderFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.question = strings.Join(args, " ")
			return cmder.run(cmd.Context())
		},
	}

	config.AddRegisteredFlags(cmd, config.Flags, config.ProviderFlags)
	cmd.Flags().StringVarP(&cmder.ownerID, "owner", "o", "local", "Owner whose documents are searched")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print plain markdown instead of rendering it")

	return cmd
}

func (c *askCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := stack.Build(ctx, c.cfg, stack.Options{
		ConfigDir:        c.configDir,
		WithoutQuizStore: true,
		Logger:           cliui.Logger(c.debug),
	})
	if err != nil {
		return err
	}
	defer s.Close()

	answer, err := s.Answerer.Ask(ctx, c.question, c.ownerID, "")
	if err != nil {
		return err
	}

	md := FormatAnswer(answer)
	if c.raw {
		fmt.Println(md)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(md)
	if err != nil {
		fmt.Println(md)
		return nil
	}
	fmt.Print(rendered)
	return nil
}

// FormatAnswer lays out an answer and its sources as markdown.
func FormatAnswer(a *rag.Answer) string {
	var b strings.Builder
	b.WriteString(a.Answer)
	b.WriteString("\n")

	if len(a.Sources) == 0 {
		return b.String()
	}

	b.WriteString("\n### Sources\n\n")
	for i, src := range a.Sources {
		excerpt := strings.Join(strings.Fields(src.PageContent), " ")
		fmt.Fprintf(&b, "%d. **%s** %s\n", i+1, src.Source, utils.Truncate(excerpt, previewLength))
	}
	return b.String()
}
