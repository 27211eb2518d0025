package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/studyrag/pkg/quizstore"
)

// Driver implements quizstore.Driver using in-memory maps.
type Driver struct {
	mu       sync.RWMutex
	quizzes  map[string]*quizstore.Quiz
	attempts []*quizstore.Attempt
}

// NewDriver creates a new in-memory quiz store.
func NewDriver() *Driver {
	return &Driver{
		quizzes: make(map[string]*quizstore.Quiz),
	}
}

func (d *Driver) Save(_ context.Context, q *quizstore.Quiz) (*quizstore.Quiz, error) {
	if err := quizstore.ValidateQuiz(q); err != nil {
		return nil, err
	}

	stored := *q
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	stored.Questions = slices.Clone(q.Questions)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.quizzes[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (d *Driver) Get(_ context.Context, ownerID, id string) (*quizstore.Quiz, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	q, ok := d.quizzes[id]
	if !ok || q.OwnerID != ownerID {
		return nil, quizstore.NotFoundError{ID: id}
	}

	out := *q
	return &out, nil
}

func (d *Driver) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]*quizstore.Quiz, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var owned []*quizstore.Quiz
	for _, q := range d.quizzes {
		if q.OwnerID == ownerID {
			out := *q
			owned = append(owned, &out)
		}
	}
	slices.SortFunc(owned, func(a, b *quizstore.Quiz) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return page(owned, limit, offset), nil
}

func (d *Driver) SaveAttempt(ctx context.Context, a *quizstore.Attempt) (*quizstore.Attempt, error) {
	if err := quizstore.ValidateAttempt(a); err != nil {
		return nil, err
	}
	if _, err := d.Get(ctx, a.OwnerID, a.QuizID); err != nil {
		return nil, err
	}

	stored := *a
	stored.ID = uuid.NewString()
	stored.CompletedAt = time.Now().UTC()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts = append(d.attempts, &stored)

	out := stored
	return &out, nil
}

func (d *Driver) ListAttempts(_ context.Context, ownerID string, limit, offset int) ([]*quizstore.Attempt, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var owned []*quizstore.Attempt
	for i := len(d.attempts) - 1; i >= 0; i-- {
		if a := d.attempts[i]; a.OwnerID == ownerID {
			out := *a
			owned = append(owned, &out)
		}
	}

	return page(owned, limit, offset), nil
}

func (d *Driver) Close() error {
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	limit, offset = quizstore.Page(limit, offset)
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
