package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/studyrag/pkg/llm"
	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/vector"
)

// InsufficientInformation is the reply the model is told to give when the
// context does not contain the answer.
const InsufficientInformation = "I don't have enough information."

// UnknownSource labels chunks stored without a source.
const UnknownSource = "Unknown"

const answerPrompt = `Answer the following question based only on the provided context.
If you cannot answer from context, say "%s"

Context: %s

Question: %s

Answer:`

// Source is a retrieved chunk cited by an answer.
type Source struct {
	PageContent string `json:"page_content"`
	Source      string `json:"source"`
}

// Answer is a grounded reply with the chunks it was given.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Answerer answers questions from an owner's documents.
type Answerer struct {
	retriever *Retriever
	call      llm.CallFunc
	logger    *slog.Logger
}

// NewAnswerer returns an Answerer. call should be configured with temperature 0.
func NewAnswerer(retriever *Retriever, call llm.CallFunc, log *slog.Logger) *Answerer {
	if log == nil {
		log = logger.Nop()
	}
	return &Answerer{retriever: retriever, call: call, logger: log}
}

// Ask retrieves the owner's top chunks for question and asks the model to
// answer from them alone. With no chunks the model still runs and is expected
// to reply InsufficientInformation.
func (a *Answerer) Ask(ctx context.Context, question, ownerID, collection string) (*Answer, error) {
	start := time.Now()

	results, err := a.retriever.Retrieve(ctx, Query{
		Text:       question,
		OwnerID:    ownerID,
		Collection: collection,
		K:          DefaultK,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnswering, err)
	}

	reply, err := a.call(ctx, BuildPrompt(question, results))
	if err != nil {
		return nil, fmt.Errorf("%w: calling model: %w", ErrAnswering, err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("%w: %w", ErrAnswering, ErrEmptyAnswer)
	}

	a.logger.Info("question answered",
		"owner_id", ownerID,
		"chunks", len(results),
		"duration", time.Since(start),
	)

	return &Answer{
		Answer:  reply,
		Sources: SourcesOf(results),
	}, nil
}

// BuildPrompt joins the retrieved texts in rank order and embeds them with
// the question in the answering template.
func BuildPrompt(question string, results []vector.QueryResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return fmt.Sprintf(answerPrompt, InsufficientInformation, strings.Join(texts, "\n\n"), question)
}

// SourcesOf converts results to citations in retrieval order.
func SourcesOf(results []vector.QueryResult) []Source {
	sources := make([]Source, len(results))
	for i, r := range results {
		src := r.Metadata[vector.MetaSource]
		if src == "" {
			src = UnknownSource
		}
		sources[i] = Source{PageContent: r.Text, Source: src}
	}
	return sources
}
