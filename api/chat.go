package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Question   string `json:"question"`
	Collection string `json:"collection,omitempty"`
}

// handleChat answers a question from the owner's documents.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "question is required")
	}

	collection := req.Collection
	if collection == "" {
		collection = s.config.Collection
	}

	answer, err := s.config.Answerer.Ask(c.UserContext(), req.Question, ownerOf(c), collection)
	if err != nil {
		s.logger.Error("chat failed", "owner_id", ownerOf(c), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(answer)
}
