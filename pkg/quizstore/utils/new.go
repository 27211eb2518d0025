// Package utils builds the configured quiz store.
package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/studyrag/pkg/quizstore"
	"github.com/papercomputeco/studyrag/pkg/quizstore/inmemory"
	"github.com/papercomputeco/studyrag/pkg/quizstore/postgres"
	"github.com/papercomputeco/studyrag/pkg/quizstore/sqlite"
)

type NewQuizStoreOpts struct {
	// ProviderType is "memory", "sqlite" or "postgres".
	ProviderType string

	// DSN is the SQLite path or the PostgreSQL connection string.
	DSN string
}

func NewQuizStore(ctx context.Context, opts *NewQuizStoreOpts) (quizstore.Driver, error) {
	switch strings.ToLower(opts.ProviderType) {
	case "", "memory", "inmemory":
		return inmemory.NewDriver(), nil

	case "sqlite":
		if opts.DSN == "" {
			return nil, errors.New("sqlite quiz store requires a database path")
		}
		return sqlite.NewDriver(ctx, opts.DSN)

	case "postgres", "postgresql":
		if opts.DSN == "" {
			return nil, errors.New("postgres quiz store requires a connection string")
		}
		return postgres.NewDriver(ctx, opts.DSN)

	default:
		return nil, fmt.Errorf("unknown quiz store provider: %q", opts.ProviderType)
	}
}
