// Package mcp provides an MCP (Model Context Protocol) server that lets
// assistants ask questions of an owner's documents and generate quizzes.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/studyrag/pkg/quiz"
	"github.com/papercomputeco/studyrag/pkg/quizstore"
	"github.com/papercomputeco/studyrag/pkg/rag"
	"github.com/papercomputeco/studyrag/pkg/utils"
)

type Config struct {
	// Answerer answers questions for the ask_documents tool
	Answerer *rag.Answerer

	// Quizzes generates quizzes for the generate_quiz tool
	Quizzes *quiz.Generator

	// QuizStore persists generated quizzes (optional)
	QuizStore quizstore.Driver

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the ask and quiz tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "studyrag",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Answerer == nil {
			return nil, errors.New("answerer is required")
		}
		if c.Quizzes == nil {
			return nil, errors.New("quiz generator is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        askToolName,
			Description: askDescription,
		}, s.handleAsk)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        quizToolName,
			Description: quizDescription,
		}, s.handleGenerateQuiz)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying MCP server, e.g. to connect it to a
// transport other than streamable HTTP.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}
