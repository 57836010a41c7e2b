package graphstore

import (
	"context"
	"errors"

	"github.com/orgatlas/orgatlas/internal/orgchart"
)

// ErrNotFound is returned when a queried entity ref has no node in the store.
var ErrNotFound = errors.New("entity not found in graph store")

// Repository provides persistent storage for org chart graphs.
type Repository interface {
	// StoreGraph persists the entire org chart, replacing prior contents.
	StoreGraph(ctx context.Context, graph *orgchart.Graph) error
	// LoadGraph retrieves the stored org chart.
	LoadGraph(ctx context.Context) (*orgchart.Graph, error)
	// QueryChildren returns the refs of entities directly below the given ref.
	QueryChildren(ctx context.Context, ref string) ([]string, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
