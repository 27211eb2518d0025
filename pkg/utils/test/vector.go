package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/studyrag/pkg/logger"
	"github.com/papercomputeco/studyrag/pkg/vector"
	"github.com/papercomputeco/studyrag/pkg/vector/inmemory"
)

// MockVectorDriver is an in-memory vector driver that records calls and can
// be told to fail.
type MockVectorDriver struct {
	*inmemory.Driver

	mu sync.Mutex

	// Deletes records every filter passed to Delete, in order.
	Deletes []vector.Filter

	// Upserts counts Upsert calls.
	Upserts int

	// Queries records every filter passed to Query.
	Queries []vector.Filter

	UpsertErr error
	QueryErr  error
	DeleteErr error
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Driver: inmemory.NewDriver(logger.Nop()),
	}
}

func (m *MockVectorDriver) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	m.mu.Lock()
	m.Upserts++
	err := m.UpsertErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.Driver.Upsert(ctx, collection, docs)
}

func (m *MockVectorDriver) Query(ctx context.Context, collection string, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, filter)
	err := m.QueryErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.Driver.Query(ctx, collection, embedding, topK, filter)
}

func (m *MockVectorDriver) Delete(ctx context.Context, collection string, filter vector.Filter) error {
	m.mu.Lock()
	m.Deletes = append(m.Deletes, filter)
	err := m.DeleteErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.Driver.Delete(ctx, collection, filter)
}
