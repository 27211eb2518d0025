// Package watch ingests documents dropped into a directory. New or changed
// files are queued on the worker pool and removed files have their chunks
// deleted from the index.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/papercomputeco/studyrag/pkg/ingest"
	"github.com/papercomputeco/studyrag/pkg/loader"
	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/worker"
)

const defaultDebounce = 500 * time.Millisecond

// Enqueuer accepts ingestion jobs. *worker.Pool satisfies it.
type Enqueuer interface {
	Enqueue(job worker.Job) bool
}

// Deleter removes a document's chunks. *ingest.Pipeline satisfies it.
type Deleter interface {
	DeleteDocumentChunks(ctx context.Context, req ingest.DeleteRequest) error
}

type Config struct {
	Dir        string
	OwnerID    string
	Collection string

	Queue   Enqueuer
	Deleter Deleter
	Loader  *loader.Registry

	// Debounce collapses bursts of writes to the same file into one job.
	Debounce time.Duration

	// Scan queues the files already in Dir when the watcher starts.
	Scan bool

	Logger *slog.Logger
}

// Watcher turns filesystem events in one directory into ingestion jobs.
type Watcher struct {
	config  Config
	fsw     *fsnotify.Watcher
	logger  *slog.Logger
	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New starts watching c.Dir. Events are only handled once Run is called.
func New(c Config) (*Watcher, error) {
	if c.Queue == nil || c.Deleter == nil {
		return nil, errors.New("watcher requires a queue and a deleter")
	}
	if c.OwnerID == "" {
		return nil, errors.New("watcher requires an owner id")
	}
	if c.Loader == nil {
		c.Loader = loader.New()
	}
	if c.Debounce == 0 {
		c.Debounce = defaultDebounce
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	dir, err := filepath.Abs(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving watch directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", dir)
	}
	c.Dir = dir

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &Watcher{
		config:  c,
		fsw:     fsw,
		logger:  c.Logger,
		pending: map[string]*time.Timer{},
	}, nil
}

// DocumentID derives a stable document id from a file path so rewriting a
// file replaces its chunks instead of duplicating them.
func DocumentID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String()
}

// Run handles events until ctx is done, then stops the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	w.logger.Info("watching directory", "dir", w.config.Dir, "owner_id", w.config.OwnerID)

	if w.config.Scan {
		if err := w.scan(); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) scan() error {
	entries, err := os.ReadDir(w.config.Dir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", w.config.Dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(w.config.Dir, e.Name())
		if w.watched(path) {
			w.schedule(path)
		}
	}
	return nil
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !w.watched(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancel(event.Name)
		w.remove(ctx, event.Name)

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return
		}
		w.schedule(event.Name)
	}
}

// watched reports whether path is a supported, non-hidden file.
func (w *Watcher) watched(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return w.config.Loader.CheckSupported(path) == nil
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.config.Debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.enqueue(path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) enqueue(path string) {
	docID := DocumentID(path)
	ok := w.config.Queue.Enqueue(worker.Job{
		Request: ingest.Request{
			FilePath:   path,
			DocumentID: docID,
			OwnerID:    w.config.OwnerID,
			Collection: w.config.Collection,
		},
		OnDone: func(s worker.Status) {
			if s.State == worker.StateFailed {
				w.logger.Error("ingesting watched file failed", "path", path, "error", s.Error)
				return
			}
			w.logger.Info("ingested watched file", "path", path, "chunks", s.Chunks)
		},
	})
	if !ok {
		w.logger.Warn("ingestion queue is full, retrying", "path", path)
		w.schedule(path)
		return
	}
	w.logger.Debug("queued watched file", "path", path, "document_id", docID)
}

func (w *Watcher) remove(ctx context.Context, path string) {
	err := w.config.Deleter.DeleteDocumentChunks(ctx, ingest.DeleteRequest{
		DocumentID: DocumentID(path),
		OwnerID:    w.config.OwnerID,
		FilePath:   path,
		Collection: w.config.Collection,
	})
	if err != nil {
		w.logger.Warn("removing chunks of deleted file failed", "path", path, "error", err)
		return
	}
	w.logger.Info("removed chunks of deleted file", "path", path)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.fsw.Close()
}
