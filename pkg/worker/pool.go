// Package worker provides an asynchronous worker pool that runs document
// ingestion jobs off the HTTP request path.
//
// Jobs are buffered in a bounded queue. When the queue is full the job is
// rejected rather than blocking the caller, which the API reports as 503.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/studyrag/pkg/ingest"
	"github.com/papercomputeco/studyrag/pkg/logger"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 64
	defaultJobTimeout        = 10 * time.Minute
	defaultStatusTTL         = time.Hour
)

// Ingester is the part of ingest.Pipeline the pool needs.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (int, error)
}

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	ingest.Request

	// OnDone, when set, is called after the job finishes with its outcome.
	OnDone func(Status)
}

// State is the lifecycle stage of a job.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Finished reports whether the job has reached a final state.
func (s State) Finished() bool {
	return s == StateDone || s == StateFailed
}

// Status is the last known outcome of the most recent job for a document.
type Status struct {
	DocumentID string    `json:"document_id"`
	OwnerID    string    `json:"owner_id"`
	State      State     `json:"state"`
	Chunks     int       `json:"chunks"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Ingester processes each job.
	Ingester Ingester

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// JobTimeout bounds a single ingestion (defaults to 10 minutes).
	JobTimeout time.Duration

	// StatusTTL is how long a finished job's status stays queryable
	// (defaults to 1 hour).
	StatusTTL time.Duration

	Logger *slog.Logger
}

// Pool processes ingestion jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu       sync.RWMutex
	statuses map[string]Status
	now      func() time.Time

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Ingester == nil {
		return nil, errors.New("worker pool requires an ingester")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout == 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.StatusTTL == 0 {
		c.StatusTTL = defaultStatusTTL
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config:   c,
		queue:    make(chan Job, c.QueueSize),
		logger:   c.Logger,
		statuses: make(map[string]Status),
		now:      time.Now,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	// Marked queued before the send so a fast worker's update is not overwritten.
	prev, hadPrev := p.Status(job.OwnerID, job.DocumentID)
	p.setStatus(Status{
		DocumentID: job.DocumentID,
		OwnerID:    job.OwnerID,
		State:      StateQueued,
	})

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"document_id", job.DocumentID,
			"owner_id", job.OwnerID,
		)
		return true
	default:
		p.mu.Lock()
		if hadPrev {
			p.statuses[statusKey(job.OwnerID, job.DocumentID)] = prev
		} else {
			delete(p.statuses, statusKey(job.OwnerID, job.DocumentID))
		}
		p.mu.Unlock()

		p.logger.Error("job not queued, queue full, job dropped",
			"document_id", job.DocumentID,
			"owner_id", job.OwnerID,
		)
		return false
	}
}

// Status returns the status of the latest job for the owner's document.
func (p *Pool) Status(ownerID, documentID string) (Status, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.statuses[statusKey(ownerID, documentID)]
	return s, ok
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("ingest worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	p.setStatus(Status{
		DocumentID: job.DocumentID,
		OwnerID:    job.OwnerID,
		State:      StateProcessing,
	})

	n, err := p.config.Ingester.Ingest(ctx, job.Request)

	status := Status{
		DocumentID: job.DocumentID,
		OwnerID:    job.OwnerID,
		State:      StateDone,
		Chunks:     n,
	}

	switch {
	case err == nil:
		p.logger.Info("ingest job finished",
			"document_id", job.DocumentID,
			"chunks", n,
		)

	case errors.Is(err, ingest.ErrCleanupFailed):
		// New chunks are stored, only the removal of older ones failed.
		status.Error = err.Error()
		p.logger.Warn("ingest job finished with cleanup failure",
			"document_id", job.DocumentID,
			"chunks", n,
			"error", err,
		)

	default:
		status.State = StateFailed
		status.Error = err.Error()
		p.logger.Error("ingest job failed",
			"document_id", job.DocumentID,
			"path", job.FilePath,
			"error", err,
		)
	}

	p.setStatus(status)

	if job.OnDone != nil {
		job.OnDone(status)
	}
}

func (p *Pool) setStatus(s Status) {
	s.UpdatedAt = p.now()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[statusKey(s.OwnerID, s.DocumentID)] = s

	if s.State.Finished() {
		p.evictLocked(s.UpdatedAt)
	}
}

// evictLocked drops finished statuses older than StatusTTL. Queued and
// processing jobs are always kept.
func (p *Pool) evictLocked(now time.Time) {
	for k, st := range p.statuses {
		if st.State.Finished() && now.Sub(st.UpdatedAt) > p.config.StatusTTL {
			delete(p.statuses, k)
		}
	}
}

func statusKey(ownerID, documentID string) string {
	return ownerID + "/" + documentID
}
