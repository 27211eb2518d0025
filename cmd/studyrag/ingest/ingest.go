// Package ingestcmder provides the ingest command for indexing a document
// without the API server.
package ingestcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/config"
	"github.com/papercomputeco/studyrag/pkg/ingest"
	"github.com/papercomputeco/studyrag/pkg/stack"
)

type ingestCommander struct {
	path       string
	documentID string
	ownerID    string
	configDir  string
	debug      bool

	cfg *config.Config
}

const ingestLongDesc string = `Ingest a document into the vector store.

The file is loaded, split into overlapping chunks, embedded and stored under
the given owner. Re-ingesting a document id replaces its previous chunks.

Supported formats: .pdf, .txt, .md

Examples:
  studyrag ingest lecture-03.pdf --owner alice
  studyrag ingest notes.txt --document-id bio-notes --chunk-size 500`

const ingestShortDesc string = "Ingest a document"

var ingestFlags = append([]string{
	config.FlagChunkSize,
	config.FlagChunkOverlap,
}, config.ProviderFlags...)

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = config.ResolveForCommand(cmd, ingestFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.path = args[0]
			return cmder.run(cmd.Context())
		},
	}

	config.AddRegisteredFlags(cmd, config.Flags, ingestFlags)
	cmd.Flags().StringVar(&cmder.documentID, "document-id", "", "Document id (default: a new UUID)")
	cmd.Flags().StringVarP(&cmder.ownerID, "owner", "o", "local", "Owner the document belongs to")

	return cmd
}

func (c *ingestCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := filepath.Abs(c.path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", c.path)
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

	if err := s.Pipeline.Loader().CheckSupported(path); err != nil {
		return err
	}

	if c.documentID == "" {
		c.documentID = uuid.NewString()
	}

	fmt.Println()
	var (
		chunks     int
		cleanupErr error
	)
	err = cliui.Step(os.Stdout, "Ingesting "+filepath.Base(path), func() error {
		var ierr error
		chunks, ierr = s.Pipeline.Ingest(ctx, ingest.Request{
			FilePath:   path,
			DocumentID: c.documentID,
			OwnerID:    c.ownerID,
		})
		if errors.Is(ierr, ingest.ErrCleanupFailed) {
			cleanupErr = ierr
			return nil
		}
		return ierr
	})
	if err != nil {
		return err
	}
	if cleanupErr != nil {
		fmt.Printf("  %s %s\n", cliui.DimStyle.Render("warning:"), cleanupErr)
	}

	fmt.Printf("\n  %s %s\n  %s %s\n  %s %d\n\n",
		cliui.KeyStyle.Render("Document:"), cliui.ValueStyle.Render(c.documentID),
		cliui.KeyStyle.Render("Owner:   "), cliui.ValueStyle.Render(c.ownerID),
		cliui.KeyStyle.Render("Chunks:  "), chunks,
	)
	return nil
}
