// Package ingest turns uploaded documents into owner-scoped chunks in the
// vector index, and removes them again when a document is deleted.
//
// Ingestion never writes until loading, chunking and embedding have all
// succeeded. New chunks are stored under a fresh ingest_id and only then are
// chunks from earlier runs of the same document removed, so a failed run
// leaves the previous index content in place.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/studyrag/pkg/chunker"
	"github.com/papercomputeco/studyrag/pkg/embeddings"
	"github.com/papercomputeco/studyrag/pkg/eventstream"
	"github.com/papercomputeco/studyrag/pkg/eventstream/nop"
	"github.com/papercomputeco/studyrag/pkg/loader"
	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/vector"
)

// Request identifies a document to ingest.
type Request struct {
	FilePath   string
	DocumentID string
	OwnerID    string

	// Collection defaults to the pipeline's collection.
	Collection string
}

// DeleteRequest identifies a document whose chunks should be removed.
// FilePath is optional and catches chunks stored without a document_id.
type DeleteRequest struct {
	DocumentID string
	OwnerID    string
	FilePath   string
	Collection string
}

// Config holds the collaborators of a Pipeline. Loader, Splitter, Publisher,
// Collection and Logger have defaults.
type Config struct {
	Loader     *loader.Registry
	Splitter   *chunker.Splitter
	Embedder   embeddings.Embedder
	Driver     vector.Driver
	Publisher  eventstream.Publisher
	Collection string
	Logger     *slog.Logger
}

// Pipeline ingests and deletes documents.
type Pipeline struct {
	loader     *loader.Registry
	splitter   *chunker.Splitter
	embedder   embeddings.Embedder
	driver     vector.Driver
	publisher  eventstream.Publisher
	collection string
	logger     *slog.Logger
}

// NewPipeline returns a Pipeline. Embedder and Driver are required.
func NewPipeline(c Config) (*Pipeline, error) {
	if c.Embedder == nil {
		return nil, errors.New("ingest pipeline requires an embedder")
	}
	if c.Driver == nil {
		return nil, errors.New("ingest pipeline requires a vector driver")
	}

	p := &Pipeline{
		loader:     c.Loader,
		splitter:   c.Splitter,
		embedder:   c.Embedder,
		driver:     c.Driver,
		publisher:  c.Publisher,
		collection: c.Collection,
		logger:     c.Logger,
	}
	if p.loader == nil {
		p.loader = loader.New()
	}
	if p.splitter == nil {
		p.splitter = chunker.New()
	}
	if p.publisher == nil {
		p.publisher = nop.NewPublisher()
	}
	if p.collection == "" {
		p.collection = vector.DefaultCollection
	}
	if p.logger == nil {
		p.logger = logger.Nop()
	}
	return p, nil
}

// Loader exposes the registry so callers can reject unsupported files before
// queueing them.
func (p *Pipeline) Loader() *loader.Registry {
	return p.loader
}

// Ingest loads, chunks, embeds and stores the document and returns the number
// of chunks stored. Empty documents store nothing and are not an error.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (int, error) {
	if req.FilePath == "" || req.DocumentID == "" || req.OwnerID == "" {
		return 0, fmt.Errorf("%w: file path, document id and owner id are required", ErrInvalidRequest)
	}
	collection := p.collectionFor(req.Collection)
	start := time.Now()

	log := p.logger.With(
		"document_id", req.DocumentID,
		"owner_id", req.OwnerID,
		"collection", collection,
	)

	doc, err := p.loader.Load(ctx, req.FilePath)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", req.FilePath, err)
	}

	ingestID := uuid.NewString()
	chunks := p.chunk(doc, req, ingestID)
	if len(chunks) == 0 {
		log.Warn("document has no text, nothing to ingest", "path", req.FilePath)
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vecs, err := p.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("%w: embedding chunks: %w", vector.ErrEmbedding, err)
	}
	if len(vecs) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d embeddings for %d chunks", vector.ErrEmbedding, len(vecs), len(chunks))
	}

	stored := chunks[:0]
	for i, c := range chunks {
		if len(vecs[i]) == 0 {
			continue
		}
		c.Embedding = vecs[i]
		stored = append(stored, c)
	}
	failed := len(chunks) - len(stored)
	if failed > 0 {
		log.Warn("skipping chunks that failed to embed", "failed", failed, "total", len(chunks))
	}
	if len(stored) == 0 {
		return 0, fmt.Errorf("%w: all %d chunks failed to embed", vector.ErrEmbedding, len(chunks))
	}

	if err := p.driver.Upsert(ctx, collection, stored); err != nil {
		// Remove whatever part of this run made it in. Prior chunks are untouched.
		staged := documentFilter(req.DocumentID, req.OwnerID).And(vector.MetaIngestID, ingestID)
		if derr := p.driver.Delete(context.WithoutCancel(ctx), collection, staged); derr != nil {
			log.Error("compensating delete failed", "ingest_id", ingestID, "error", derr)
		}
		return 0, fmt.Errorf("storing chunks: %w", err)
	}

	var cleanupErr error
	stale := documentFilter(req.DocumentID, req.OwnerID).Not(vector.MetaIngestID, ingestID)
	if err := p.driver.Delete(ctx, collection, stale); err != nil {
		log.Error("removing chunks from earlier ingestion failed", "error", err)
		cleanupErr = fmt.Errorf("%w: removing stale chunks: %w", ErrCleanupFailed, err)
	}

	event := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentIngested, req.DocumentID, req.OwnerID, collection)
	event.Source = req.FilePath
	event.IngestID = ingestID
	event.Chunks = len(stored)
	event.FailedChunks = failed
	p.publish(ctx, event)

	log.Info("document ingested",
		"chunks", len(stored),
		"failed", failed,
		"pages", len(doc.Pages),
		"ingest_id", ingestID,
		"duration", time.Since(start),
	)

	return len(stored), cleanupErr
}

// DeleteDocumentChunks removes every chunk of a document, first by
// document_id and then by each separator variant of its file path. When
// OwnerID is set only that owner's chunks are touched. Failures are logged
// and returned wrapped in ErrCleanupFailed.
func (p *Pipeline) DeleteDocumentChunks(ctx context.Context, req DeleteRequest) error {
	if req.DocumentID == "" && req.FilePath == "" {
		return fmt.Errorf("%w: document id or file path is required", ErrInvalidRequest)
	}
	collection := p.collectionFor(req.Collection)

	log := p.logger.With("document_id", req.DocumentID, "owner_id", req.OwnerID, "collection", collection)

	var errs []error
	if req.DocumentID != "" {
		if err := p.driver.Delete(ctx, collection, documentFilter(req.DocumentID, req.OwnerID)); err != nil {
			errs = append(errs, fmt.Errorf("by document id: %w", err))
		}
	}
	for _, path := range PathVariants(req.FilePath) {
		if err := p.driver.Delete(ctx, collection, ownerScoped(vector.Where(vector.MetaSource, path), req.OwnerID)); err != nil {
			errs = append(errs, fmt.Errorf("by source %q: %w", path, err))
		}
	}

	event := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentDeleted, req.DocumentID, req.OwnerID, collection)
	event.Source = req.FilePath

	if len(errs) > 0 {
		err := errors.Join(errs...)
		log.Error("deleting document chunks failed", "error", err)

		event.CleanupFailed = true
		p.publish(ctx, event)
		return fmt.Errorf("%w: %w", ErrCleanupFailed, err)
	}

	p.publish(ctx, event)
	log.Info("document chunks deleted")
	return nil
}

// documentFilter matches the chunks of one document, limited to ownerID
// when it is set. Document ids are chosen by clients and may repeat across
// owners.
func documentFilter(documentID, ownerID string) vector.Filter {
	return ownerScoped(vector.Where(vector.MetaDocumentID, documentID), ownerID)
}

func ownerScoped(f vector.Filter, ownerID string) vector.Filter {
	if ownerID == "" {
		return f
	}
	return f.And(vector.MetaOwnerID, ownerID)
}

// PathVariants returns path as given, with forward slashes and with back
// slashes, without duplicates. An empty path has no variants.
func PathVariants(path string) []string {
	if path == "" {
		return nil
	}

	variants := []string{
		path,
		strings.ReplaceAll(path, `\`, "/"),
		strings.ReplaceAll(path, "/", `\`),
	}

	out := variants[:0]
	seen := map[string]bool{}
	for _, v := range variants {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (p *Pipeline) chunk(doc *loader.Document, req Request, ingestID string) []vector.Document {
	var out []vector.Document
	for _, page := range doc.Pages {
		for _, text := range p.splitter.Split(page.Text) {
			seq := len(out)
			meta := map[string]string{
				vector.MetaDocumentID:    req.DocumentID,
				vector.MetaOwnerID:       req.OwnerID,
				vector.MetaSource:        req.FilePath,
				vector.MetaSequenceIndex: strconv.Itoa(seq),
				vector.MetaIngestID:      ingestID,
			}
			if page.Number > 0 {
				meta[vector.MetaPage] = strconv.Itoa(page.Number)
			}

			out = append(out, vector.Document{
				ID:       fmt.Sprintf("%s_%s_%d", req.DocumentID, ingestID, seq),
				Text:     text,
				Metadata: meta,
			})
		}
	}
	return out
}

func (p *Pipeline) collectionFor(c string) string {
	if c == "" {
		return p.collection
	}
	return c
}

func (p *Pipeline) publish(ctx context.Context, event *eventstream.DocumentEvent) {
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("publishing document event failed",
			"event_type", event.EventType,
			"document_id", event.DocumentID,
			"error", err,
		)
	}
}
