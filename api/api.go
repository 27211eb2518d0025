package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/studyrag/pkg/logger"
)

const defaultBodyLimit = 32 << 20

// Server is the API server for the study assistant.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The pipeline, pool, answerer, quiz
// generator and quiz store are shared with the CLI and the MCP server.
func NewServer(config Config, log *slog.Logger) (*Server, error) {
	switch {
	case config.Pipeline == nil:
		return nil, errors.New("ingest pipeline is required")
	case config.Pool == nil:
		return nil, errors.New("worker pool is required")
	case config.Answerer == nil:
		return nil, errors.New("answerer is required")
	case config.Quizzes == nil:
		return nil, errors.New("quiz generator is required")
	case config.QuizStore == nil:
		return nil, errors.New("quiz store is required")
	}

	if log == nil {
		log = logger.Nop()
	}
	if config.BodyLimit == 0 {
		config.BodyLimit = defaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimit,
	})
	app.Use(recover.New())

	s := &Server{
		config: config,
		logger: log,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP.Handler()))
	}

	v1 := app.Group("/v1", s.requireOwner)

	v1.Post("/documents", s.handleUploadDocument)
	v1.Get("/documents/:id/status", s.handleDocumentStatus)
	v1.Delete("/documents/:id", s.handleDeleteDocument)

	v1.Post("/chat", s.handleChat)

	v1.Post("/quizzes/generate", s.handleGenerateQuiz)
	v1.Post("/quizzes/attempts", s.handleSubmitAttempt)
	v1.Get("/quizzes/attempts", s.handleListAttempts)
	v1.Get("/quizzes", s.handleListQuizzes)
	v1.Get("/quizzes/:id", s.handleGetQuiz)

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}
