// Package studyragcmder
package studyragcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/studyrag/cmd/studyrag/ask"
	configcmder "github.com/papercomputeco/studyrag/cmd/studyrag/config"
	deletecmder "github.com/papercomputeco/studyrag/cmd/studyrag/delete"
	ingestcmder "github.com/papercomputeco/studyrag/cmd/studyrag/ingest"
	initcmder "github.com/papercomputeco/studyrag/cmd/studyrag/init"
	quizcmder "github.com/papercomputeco/studyrag/cmd/studyrag/quiz"
	servecmder "github.com/papercomputeco/studyrag/cmd/studyrag/serve"
	watchcmder "github.com/papercomputeco/studyrag/cmd/studyrag/watch"
	versioncmder "github.com/papercomputeco/studyrag/cmd/version"
)

const studyragLongDesc string = `studyrag is a study assistant for your own documents.

Upload notes and PDFs, ask questions answered only from them, and generate
multiple choice quizzes on any topic they cover.

Run services using:
  studyrag serve              Run the API server (with the MCP endpoint)
  studyrag ingest <file>      Ingest a document from the command line
  studyrag ask <question>     Ask a question about your documents
  studyrag quiz <topic>       Generate a quiz
  studyrag watch <dir>        Ingest files as they appear in a directory`

const studyragShortDesc string = "studyrag - document study assistant"

func NewStudyragCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "studyrag",
		Short:         studyragShortDesc,
		Long:          studyragLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .studyrag/ directory holding config.toml")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(deletecmder.NewDeleteCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(quizcmder.NewQuizCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
