// Package watchcmder provides the watch command that ingests documents as
// they appear in a directory.
package watchcmder

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/pkg/config"
	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/stack"
	"github.com/papercomputeco/studyrag/pkg/watch"
	"github.com/papercomputeco/studyrag/pkg/worker"
)

type watchCommander struct {
	dir       string
	ownerID   string
	scan      bool
	configDir string
	debug     bool

	cfg *config.Config
}

const watchLongDesc string = `Watch a directory and ingest documents as they change.

New and modified .pdf, .txt and .md files are queued for ingestion under the
owner; each file keeps a stable document id derived from its path, so saving a
file again replaces its chunks. Deleting a file removes its chunks.

Examples:
  studyrag watch ~/notes --owner alice
  studyrag watch ./lectures --scan`

const watchShortDesc string = "Ingest files as they appear in a directory"

var watchFlags = append([]string{
	config.FlagChunkSize,
	config.FlagChunkOverlap,
}, config.ProviderFlags...)

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = config.ResolveForCommand(cmd, watchFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.dir = args[0]
			return cmder.run(cmd.Context())
		},
	}

	config.AddRegisteredFlags(cmd, config.Flags, watchFlags)
	cmd.Flags().StringVarP(&cmder.ownerID, "owner", "o", "local", "Owner the documents belong to")
	cmd.Flags().BoolVar(&cmder.scan, "scan", false, "Also ingest the files already in the directory")

	return cmd
}

func (c *watchCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(logger.FormatPretty),
		logger.WithComponent("watcher"),
	)

	s, err := stack.Build(ctx, c.cfg, stack.Options{
		ConfigDir:        c.configDir,
		WithoutQuizStore: true,
		Logger:           log,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	pool, err := worker.NewPool(&worker.Config{
		Ingester:   s.Pipeline,
		NumWorkers: c.cfg.Ingest.Workers,
		QueueSize:  c.cfg.Ingest.QueueSize,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	w, err := watch.New(watch.Config{
		Dir:     c.dir,
		OwnerID: c.ownerID,
		Queue:   pool,
		Deleter: s.Pipeline,
		Loader:  s.Pipeline.Loader(),
		Scan:    c.scan,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	return w.Run(ctx)
}
