// Package quiz generates multiple choice quizzes, optionally grounded in one
// of the owner's documents.
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/studyrag/pkg/llm"
	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/rag"
)

const (
	// MaxQuestions is the largest quiz that can be requested.
	MaxQuestions = 20

	// DefaultQuestions is used by callers when no count is given.
	DefaultQuestions = 5

	// NumOptions is the number of choices per question.
	NumOptions = 4

	// contextK is how many chunks ground a document quiz.
	contextK = 6
)

// Temperature is the sampling temperature quiz callers should use.
const Temperature = 0.7

// Question is one multiple choice question.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Request describes a quiz to generate.
type Request struct {
	Topic        string
	NumQuestions int

	// DocumentID grounds the quiz in one document. OwnerID is required with it.
	DocumentID string
	OwnerID    string
	Collection string
}

// Generator builds quizzes with a language model.
type Generator struct {
	call        llm.CallFunc
	retriever   *rag.Retriever
	logger      *slog.Logger
	objectReply bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithObjectReply asks the model for {"questions": [...]} instead of a bare
// list. Use it when the caller runs the model in JSON mode.
func WithObjectReply(object bool) Option {
	return func(g *Generator) {
		g.objectReply = object
	}
}

// NewGenerator returns a Generator. retriever may be nil, in which case every
// quiz is generated from the topic alone.
func NewGenerator(call llm.CallFunc, retriever *rag.Retriever, log *slog.Logger, opts ...Option) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	g := &Generator{call: call, retriever: retriever, logger: log}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate asks the model for req.NumQuestions questions and validates the
// reply. Any structural problem yields ErrInvalidQuiz and no questions.
func (g *Generator) Generate(ctx context.Context, req Request) ([]Question, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if req.NumQuestions < 1 || req.NumQuestions > MaxQuestions {
		return nil, fmt.Errorf("%w: num_questions must be between 1 and %d", ErrInvalidRequest, MaxQuestions)
	}

	log := g.logger.With("topic", req.Topic, "document_id", req.DocumentID)

	var material string
	if req.DocumentID != "" && g.retriever != nil {
		results, err := g.retriever.Retrieve(ctx, rag.Query{
			Text:       req.Topic,
			OwnerID:    req.OwnerID,
			Collection: req.Collection,
			K:          contextK,
			DocumentID: req.DocumentID,
		})
		if err != nil {
			return nil, fmt.Errorf("retrieving quiz context: %w", err)
		}

		texts := make([]string, len(results))
		for i, r := range results {
			texts[i] = r.Text
		}
		material = strings.Join(texts, "\n\n")

		if material == "" {
			log.Warn("no document context found, generating from topic alone")
		}
	}

	reply, err := g.call(ctx, BuildPrompt(req.Topic, req.NumQuestions, material, g.objectReply))
	if err != nil {
		return nil, fmt.Errorf("calling model: %w", err)
	}

	questions, err := Parse(reply, req.NumQuestions)
	if err != nil {
		log.Warn("discarding invalid quiz", "error", err)
		return nil, err
	}

	log.Info("quiz generated", "questions", len(questions), "grounded", material != "")
	return questions, nil
}

// Parse extracts and validates exactly n questions from a model reply. The
// reply may be a JSON array or an object wrapping one, optionally fenced or
// surrounded by prose.
func Parse(reply string, n int) ([]Question, error) {
	raw := llm.ExtractJSON(reply)

	var questions []Question
	if strings.HasPrefix(raw, "{") {
		var err error
		if questions, err = unwrap([]byte(raw)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidQuiz, err)
		}
	} else if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuiz, err)
	}

	if len(questions) != n {
		return nil, fmt.Errorf("%w: expected %d questions, got %d", ErrInvalidQuiz, n, len(questions))
	}

	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: question %d: %w", ErrInvalidQuiz, i+1, err)
		}
	}

	return questions, nil
}

// unwrap reads the questions out of an object reply. JSON mode models pick
// their own wrapper key, so "questions" is preferred and otherwise the only
// list valued key is used. A lone question object is a one item quiz.
func unwrap(raw []byte) ([]Question, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	if _, ok := fields["question"]; ok {
		var q Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, err
		}
		return []Question{q}, nil
	}

	if list, ok := fields["questions"]; ok {
		var questions []Question
		if err := json.Unmarshal(list, &questions); err != nil {
			return nil, err
		}
		return questions, nil
	}

	var lists []json.RawMessage
	for _, v := range fields {
		if trimmed := strings.TrimSpace(string(v)); strings.HasPrefix(trimmed, "[") {
			lists = append(lists, v)
		}
	}
	if len(lists) != 1 {
		return nil, fmt.Errorf("expected one list of questions in object, found %d", len(lists))
	}

	var questions []Question
	if err := json.Unmarshal(lists[0], &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Validate checks that q has text, four distinct non-empty options and a
// correct answer among them. Surrounding whitespace is trimmed in place.
func (q *Question) Validate() error {
	q.Question = strings.TrimSpace(q.Question)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)

	if q.Question == "" {
		return errors.New("empty question")
	}
	if len(q.Options) != NumOptions {
		return fmt.Errorf("expected %d options, got %d", NumOptions, len(q.Options))
	}

	seen := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return errors.New("empty option")
		}
		if seen[o] {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = true
		q.Options[i] = o
	}

	if !seen[q.CorrectAnswer] {
		return fmt.Errorf("correct answer %q is not one of the options", q.CorrectAnswer)
	}
	return nil
}
