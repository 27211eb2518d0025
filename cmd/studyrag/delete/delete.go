// Package deletecmder provides the delete command that removes a document's
// chunks from the vector store.
package deletecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/cliui"
	"github.com/papercomputeco/studyrag/pkg/config"
	"github.com/papercomputeco/studyrag/pkg/ingest"
	"github.com/papercomputeco/studyrag/pkg/stack"
)

type deleteCommander struct {
	documentID string
	filePath   string
	ownerID    string
	configDir  string
	debug      bool

	cfg *config.Config
}

const deleteLongDesc string = `Delete a document's chunks from the vector store.

Removes every chunk stored for the document id under the owner. Pass
--file-path as well to also remove chunks stored before document ids were
recorded.

Examples:
  studyrag delete bio-notes --owner alice
  studyrag delete 7 --file-path uploads/1_notes.pdf`

const deleteShortDesc string = "Delete a document's chunks"

func NewDeleteCmd() *cobra.Command {
	cmder := &deleteCommander{}

	cmd := &cobra.Command{
		Use:   "delete <document-id>",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
		Args:  cobra.ExactArgs(1),
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
			cmder.documentID = args[0]
			return cmder.run(cmd.Context())
		},
	}

	config.AddRegisteredFlags(cmd, config.Flags, config.ProviderFlags)
	cmd.Flags().StringVar(&cmder.filePath, "file-path", "", "Path the document was ingested from")
	cmd.Flags().StringVarP(&cmder.ownerID, "owner", "o", "local", "Owner the document belongs to")

	return cmd
}

func (c *deleteCommander) run(ctx context.Context) error {
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

	err = s.Pipeline.DeleteDocumentChunks(ctx, ingest.DeleteRequest{
		DocumentID: c.documentID,
		OwnerID:    c.ownerID,
		FilePath:   c.filePath,
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Deleted chunks of %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render(c.documentID))
	return nil
}
