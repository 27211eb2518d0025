// Package quizstore persists generated quizzes and the owner's attempts at
// them. Only quizzes whose questions pass validation are stored.
package quizstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/papercomputeco/studyrag/pkg/quiz"
)

// DefaultListLimit is used when a list call passes a non-positive limit.
const DefaultListLimit = 100

// Quiz is a stored quiz.
type Quiz struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	Topic      string          `json:"topic"`
	DocumentID string          `json:"document_id,omitempty"`
	Questions  []quiz.Question `json:"questions"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Attempt is an owner's scored attempt at a quiz.
type Attempt struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quiz_id"`
	OwnerID        string    `json:"owner_id"`
	Score          float64   `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Driver defines the interface for persisting quizzes and attempts.
// Every read is scoped to an owner.
type Driver interface {
	// Save stores q, assigning its ID and CreatedAt, and returns it.
	Save(ctx context.Context, q *Quiz) (*Quiz, error)

	// Get returns the owner's quiz by id or a NotFoundError.
	Get(ctx context.Context, ownerID, id string) (*Quiz, error)

	// ListByOwner returns the owner's quizzes, newest first.
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Quiz, error)

	// SaveAttempt stores an attempt at one of the owner's quizzes.
	SaveAttempt(ctx context.Context, a *Attempt) (*Attempt, error)

	// ListAttempts returns the owner's attempts, newest first.
	ListAttempts(ctx context.Context, ownerID string, limit, offset int) ([]*Attempt, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ErrInvalid is returned when a quiz or attempt fails validation.
var ErrInvalid = errors.New("invalid quiz record")

// ValidateQuiz checks the fields Save requires and every question.
func ValidateQuiz(q *Quiz) error {
	if q == nil {
		return fmt.Errorf("%w: nil quiz", ErrInvalid)
	}
	if q.OwnerID == "" || q.Topic == "" {
		return fmt.Errorf("%w: owner id and topic are required", ErrInvalid)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz has no questions", ErrInvalid)
	}
	for i := range q.Questions {
		if err := q.Questions[i].Validate(); err != nil {
			return fmt.Errorf("%w: question %d: %w", ErrInvalid, i+1, err)
		}
	}
	return nil
}

// ValidateAttempt checks that a scores within 0..TotalQuestions.
func ValidateAttempt(a *Attempt) error {
	if a == nil {
		return fmt.Errorf("%w: nil attempt", ErrInvalid)
	}
	if a.OwnerID == "" || a.QuizID == "" {
		return fmt.Errorf("%w: owner id and quiz id are required", ErrInvalid)
	}
	if a.TotalQuestions <= 0 {
		return fmt.Errorf("%w: total_questions must be positive", ErrInvalid)
	}
	if a.Score < 0 || a.Score > float64(a.TotalQuestions) {
		return fmt.Errorf("%w: score must be between 0 and %d", ErrInvalid, a.TotalQuestions)
	}
	return nil
}

// Page normalizes list paging arguments.
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
