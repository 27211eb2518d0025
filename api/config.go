// Package api provides the HTTP API server for uploading documents, asking
// questions about them and generating quizzes.
package api

import (
	"github.com/papercomputeco/studyrag/api/mcp"
	"github.com/papercomputeco/studyrag/pkg/dotdir"
	"github.com/papercomputeco/studyrag/pkg/ingest"
	"github.com/papercomputeco/studyrag/pkg/quiz"
	"github.com/papercomputeco/studyrag/pkg/quizstore"
	"github.com/papercomputeco/studyrag/pkg/rag"
	"github.com/papercomputeco/studyrag/pkg/worker"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Pipeline deletes document chunks and validates uploads.
	Pipeline *ingest.Pipeline

	// Pool runs ingestion jobs in the background.
	Pool *worker.Pool

	Answerer *rag.Answerer
	Quizzes  *quiz.Generator

	// QuizStore persists generated quizzes and attempts.
	QuizStore quizstore.Driver

	// Uploads stores multipart uploads under UploadDir's uploads/ folder.
	Uploads   *dotdir.Manager
	UploadDir string

	// Collection is the vector collection requests default to.
	Collection string

	// MCP, when set, is mounted at /mcp.
	MCP *mcp.Server

	// BodyLimit caps request bodies in bytes (defaults to 32 MiB).
	BodyLimit int
}
