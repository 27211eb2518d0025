package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/studyrag/pkg/quiz"
	"github.com/papercomputeco/studyrag/pkg/quizstore"
)

// GenerateQuizRequest is the body of POST /v1/quizzes/generate.
type GenerateQuizRequest struct {
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
	DocumentID   string `json:"document_id,omitempty"`
}

// SubmitAttemptRequest is the body of POST /v1/quizzes/attempts.
type SubmitAttemptRequest struct {
	QuizID         string  `json:"quiz_id"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"total_questions"`
}

// handleGenerateQuiz generates, stores and returns a quiz.
func (s *Server) handleGenerateQuiz(c *fiber.Ctx) error {
	owner := ownerOf(c)

	var req GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.NumQuestions == 0 {
		req.NumQuestions = quiz.DefaultQuestions
	}

	questions, err := s.config.Quizzes.Generate(c.UserContext(), quiz.Request{
		Topic:        req.Topic,
		NumQuestions: req.NumQuestions,
		DocumentID:   req.DocumentID,
		OwnerID:      owner,
		Collection:   s.config.Collection,
	})
	if err != nil {
		if errors.Is(err, quiz.ErrInvalidRequest) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		s.logger.Error("quiz generation failed", "owner_id", owner, "topic", req.Topic, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate quiz")
	}

	saved, err := s.config.QuizStore.Save(c.UserContext(), &quizstore.Quiz{
		OwnerID:    owner,
		Topic:      req.Topic,
		DocumentID: req.DocumentID,
		Questions:  questions,
	})
	if err != nil {
		s.logger.Error("saving quiz failed", "owner_id", owner, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "failed to save quiz")
	}

	return c.JSON(saved)
}

// handleListQuizzes returns the owner's quizzes, newest first.
// Query parameters:
//   - limit (optional, default 100)
//   - offset (optional, default 0)
func (s *Server) handleListQuizzes(c *fiber.Ctx) error {
	quizzes, err := s.config.QuizStore.ListByOwner(c.UserContext(), ownerOf(c), c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		s.logger.Error("listing quizzes failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "failed to list quizzes")
	}

	return c.JSON(map[string]any{
		"count":   len(quizzes),
		"quizzes": quizzes,
	})
}

// handleGetQuiz returns one of the owner's quizzes.
func (s *Server) handleGetQuiz(c *fiber.Ctx) error {
	q, err := s.config.QuizStore.Get(c.UserContext(), ownerOf(c), c.Params("id"))
	if err != nil {
		var nf quizstore.NotFoundError
		if errors.As(err, &nf) {
			return errorJSON(c, fiber.StatusNotFound, "quiz not found")
		}
		s.logger.Error("getting quiz failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "failed to get quiz")
	}

	return c.JSON(q)
}

// handleSubmitAttempt records a scored attempt at one of the owner's quizzes.
func (s *Server) handleSubmitAttempt(c *fiber.Ctx) error {
	var req SubmitAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	attempt, err := s.config.QuizStore.SaveAttempt(c.UserContext(), &quizstore.Attempt{
		QuizID:         req.QuizID,
		OwnerID:        ownerOf(c),
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
	})
	if err != nil {
		var nf quizstore.NotFoundError
		switch {
		case errors.Is(err, quizstore.ErrInvalid):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		case errors.As(err, &nf):
			return errorJSON(c, fiber.StatusNotFound, "quiz not found")
		}
		s.logger.Error("saving quiz attempt failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "failed to save attempt")
	}

	return c.JSON(attempt)
}

// handleListAttempts returns the owner's quiz attempts, newest first.
func (s *Server) handleListAttempts(c *fiber.Ctx) error {
	attempts, err := s.config.QuizStore.ListAttempts(c.UserContext(), ownerOf(c), c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		s.logger.Error("listing quiz attempts failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "failed to list attempts")
	}

	return c.JSON(map[string]any{
		"count":    len(attempts),
		"attempts": attempts,
	})
}
