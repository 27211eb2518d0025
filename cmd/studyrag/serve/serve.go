// Package servecmder provides the serve command that runs the API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyrag/api"
	"github.com/papercomputeco/studyrag/api/mcp"
	"github.com/papercomputeco/studyrag/pkg/config"
	"github.com/papercomputeco/studyrag/pkg/dotdir"
	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/stack"
	"github.com/papercomputeco/studyrag/pkg/worker"
)

type ServeCommander struct {
	configDir string
	debug     bool
	pretty    bool
	noMCP     bool
	logFile   string

	cfg    *config.Config
	logger *slog.Logger
}

const serveLongDesc string = `Run the studyrag API server.

The server accepts document uploads, queues them for ingestion on a pool of
background workers, answers questions from the ingested chunks and generates
quizzes. Every /v1 request must carry the X-Owner-ID header.

The MCP endpoint is mounted at /mcp unless --no-mcp is given.

Examples:
  studyrag serve
  studyrag serve --listen :9000 --llm-provider groq --llm-model llama-3.1-8b-instant
  studyrag serve --vector-store-provider qdrant --vector-store-target localhost:6334`

const serveShortDesc string = "Run the API server"

var serveFlags = append([]string{
	config.FlagAPIListen,
	config.FlagChunkSize,
	config.FlagChunkOverlap,
	config.FlagQuizStoreDSN,
}, config.ProviderFlags...)

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = config.ResolveForCommand(cmd, serveFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddRegisteredFlags(cmd, config.Flags, serveFlags)

	cmd.Flags().BoolVar(&cmder.pretty, "pretty", false, "Log with the human readable console format instead of JSON")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP endpoint at /mcp")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format := logger.FormatJSON
	if c.pretty {
		format = logger.FormatPretty
	}
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(format),
		logger.WithSource(c.debug),
		logger.WithComponent("api"),
	)
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()

		c.logger = logger.Multi(c.logger, logger.New(
			logger.WithDebug(c.debug),
			logger.WithFormat(logger.FormatJSON),
			logger.WithOutput(f),
			logger.WithComponent("api"),
		))
	}

	s, err := stack.Build(ctx, c.cfg, stack.Options{
		ConfigDir: c.configDir,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	pool, err := worker.NewPool(&worker.Config{
		Ingester:   s.Pipeline,
		NumWorkers: c.cfg.Ingest.Workers,
		QueueSize:  c.cfg.Ingest.QueueSize,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	var mcpServer *mcp.Server
	if !c.noMCP {
		mcpServer, err = mcp.NewServer(mcp.Config{
			Answerer:  s.Answerer,
			Quizzes:   s.Quizzes,
			QuizStore: s.QuizStore,
			Logger:    c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
	}

	uploads := dotdir.NewManager()
	uploadDir, err := uploads.Target(c.configDir)
	if err != nil {
		return err
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		Pipeline:   s.Pipeline,
		Pool:       pool,
		Answerer:   s.Answerer,
		Quizzes:    s.Quizzes,
		QuizStore:  s.QuizStore,
		Uploads:    uploads,
		UploadDir:  uploadDir,
		Collection: c.cfg.VectorStore.Collection,
		MCP:        mcpServer,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("starting studyrag",
		"api_addr", c.cfg.API.Listen,
		"vector_store", c.cfg.VectorStore.Provider,
		"embedding_provider", c.cfg.Embedding.Provider,
		"embedding_model", c.cfg.Embedding.Model,
		"llm_provider", c.cfg.LLM.Provider,
		"llm_model", c.cfg.LLM.Model,
		"quiz_store", c.cfg.QuizStore.Provider,
		"mcp", mcpServer != nil,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	if err := apiServer.Shutdown(); err != nil {
		c.logger.Warn("API server shutdown failed", "error", err)
	}
	return nil
}
