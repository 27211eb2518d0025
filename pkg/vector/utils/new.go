// Package vectorutils builds vector drivers from configuration.
package vectorutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/studyrag/pkg/vector"
	"github.com/papercomputeco/studyrag/pkg/vector/chroma"
	"github.com/papercomputeco/studyrag/pkg/vector/inmemory"
	"github.com/papercomputeco/studyrag/pkg/vector/qdrant"
	"github.com/papercomputeco/studyrag/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	TargetURL    string
	APIKey       string
	SQLitePath   string
	Dimensions   uint
	Logger       *slog.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "memory", "inmemory":
		return inmemory.NewDriver(o.Logger), nil
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL: o.TargetURL,
		}, o.Logger)
	case "sqlite", "sqlitevec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.SQLitePath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewDriver(qdrant.Config{
			Target: o.TargetURL,
			APIKey: o.APIKey,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
