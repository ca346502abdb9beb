// Package pgrepo is the one concrete graph-backed repository implementation:
// entities are stored as nodes with labeled edges. It wires internal/repo's
// typed facades to internal/graphstore/pgstore, a pgx-backed [postgres.Store],
// rather than introducing a second SQL layer: pgstore already is the durable
// node/edge backend this storage model needs, including the JSONB attribute
// columns.
package pgrepo

import (
	"context"
	"fmt"

	pgstore "github.com/duskward/loomkeeper/internal/graphstore/pgstore"
	"github.com/duskward/loomkeeper/internal/repo"
)

// Open connects to the Postgres database at dsn, runs migrations, and
// returns a *repo.Repo backed by it.
func Open(ctx context.Context, dsn string) (*repo.Repo, *pgstore.Store, error) {
	store, err := pgstore.NewStore(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgrepo: open: %w", err)
	}
	return repo.New(store), store, nil
}
