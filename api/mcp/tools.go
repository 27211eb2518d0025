package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/studyrag/pkg/quiz"
	"github.com/papercomputeco/studyrag/pkg/quizstore"
	"github.com/papercomputeco/studyrag/pkg/rag"
)

var (
	askToolName    = "ask_documents"
	askDescription = "Answer a question using only the owner's uploaded study documents. Returns the answer and the document passages it was grounded in. Replies \"I don't have enough information.\" when the documents do not cover the question."

	quizToolName    = "generate_quiz"
	quizDescription = "Generate a multiple choice quiz about a topic, optionally grounded in one of the owner's documents. Each question has four options and one correct answer."
)

// AskInput represents the input arguments for the ask_documents tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the documents"`
	OwnerID    string `json:"owner_id" jsonschema:"the id of the user whose documents are searched"`
	Collection string `json:"collection,omitempty" jsonschema:"vector collection to search (default: user_docs)"`
}

// QuizInput represents the input arguments for the generate_quiz tool.
type QuizInput struct {
	Topic        string `json:"topic" jsonschema:"the quiz topic"`
	OwnerID      string `json:"owner_id" jsonschema:"the id of the user the quiz is for"`
	NumQuestions int    `json:"num_questions,omitempty" jsonschema:"number of questions between 1 and 20 (default: 5)"`
	DocumentID   string `json:"document_id,omitempty" jsonschema:"ground the quiz in this document"`
}

// QuizOutput represents the structured output of the generate_quiz tool.
type QuizOutput struct {
	ID        string          `json:"id,omitempty"`
	Topic     string          `json:"topic"`
	Questions []quiz.Question `json:"questions"`
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, rag.Answer, error) {
	logger := s.config.Logger

	if input.Question == "" || input.OwnerID == "" {
		return toolError("question and owner_id are required"), rag.Answer{}, nil
	}

	logger.Debug("MCP ask request", "owner_id", input.OwnerID)

	answer, err := s.config.Answerer.Ask(ctx, input.Question, input.OwnerID, input.Collection)
	if err != nil {
		logger.Error("failed to answer question", "error", err)
		return toolError(fmt.Sprintf("Failed to answer question: %v", err)), rag.Answer{}, nil
	}

	return structured(*answer)
}

func (s *Server) handleGenerateQuiz(ctx context.Context, _ *mcp.CallToolRequest, input QuizInput) (*mcp.CallToolResult, QuizOutput, error) {
	logger := s.config.Logger

	if input.Topic == "" || input.OwnerID == "" {
		return toolError("topic and owner_id are required"), QuizOutput{}, nil
	}

	n := input.NumQuestions
	if n == 0 {
		n = quiz.DefaultQuestions
	}

	questions, err := s.config.Quizzes.Generate(ctx, quiz.Request{
		Topic:        input.Topic,
		NumQuestions: n,
		DocumentID:   input.DocumentID,
		OwnerID:      input.OwnerID,
	})
	if err != nil {
		logger.Error("failed to generate quiz", "error", err)
		return toolError(fmt.Sprintf("Failed to generate quiz: %v", err)), QuizOutput{}, nil
	}

	output := QuizOutput{Topic: input.Topic, Questions: questions}

	if s.config.QuizStore != nil {
		saved, err := s.config.QuizStore.Save(ctx, &quizstore.Quiz{
			OwnerID:    input.OwnerID,
			Topic:      input.Topic,
			DocumentID: input.DocumentID,
			Questions:  questions,
		})
		if err != nil {
			// The quiz is still useful to the caller without an id.
			logger.Warn("failed to store quiz", "error", err)
		} else {
			output.ID = saved.ID
		}
	}

	return structured(output)
}

// structured returns output both as structured content and, for clients
// that only read text, serialized into a TextContent block.
func structured[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
