// Package vectorutils builds the configured vector driver.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/cake/pkg/vector"
	"github.com/papercomputeco/cake/pkg/vector/chroma"
	"github.com/papercomputeco/cake/pkg/vector/flat"
	"github.com/papercomputeco/cake/pkg/vector/qdrant"
	"github.com/papercomputeco/cake/pkg/vector/sqlitevec"
)

// Vector store provider names.
const (
	ProviderFlat   = "flat"
	ProviderSQLite = "sqlite"
	ProviderChroma = "chroma"
	ProviderQdrant = "qdrant"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// TargetURL is the server address for chroma and qdrant, or the database
	// file for sqlite. Unused by flat.
	TargetURL string

	// IndexPath is the flat snapshot file.
	IndexPath string

	Dimensions uint
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderFlat, "":
		return flat.NewDriver(flat.Config{Path: o.IndexPath}, o.Logger)
	case ProviderSQLite:
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.TargetURL,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderChroma:
		return chroma.NewDriver(chroma.Config{URL: o.TargetURL}, o.Logger)
	case ProviderQdrant:
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:     strings.TrimPrefix(strings.TrimPrefix(o.TargetURL, "http://"), "https://"),
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
