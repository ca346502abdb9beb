package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duskward/loomkeeper/internal/graphstore"
)

// Compile-time interface checks.
//
// L1 (SessionStore) and L2 (KnowledgeGraph) have no conflicting method
// names, but SessionStore is exposed as a sub-type via [Store.L1] since its
// Search signature differs from the one a future transcript layer might add.
var (
	_ graphstore.SessionStore   = (*SessionStoreImpl)(nil)
	_ graphstore.KnowledgeGraph = (*Store)(nil)
)

// Store is the central PostgreSQL-backed graph store. It holds a single
// [pgxpool.Pool] and exposes the two-layer storage architecture:
//
//   - [Store.L1] returns a [SessionStoreImpl] implementing [graphstore.SessionStore]
//   - Store itself implements [graphstore.KnowledgeGraph]
//
// All operations are safe for concurrent use.
type Store struct {
	pool     *pgxpool.Pool
	sessions *SessionStoreImpl
}

// NewStore creates a new Store, establishes a connection pool to the
// PostgreSQL database at dsn, and runs [Migrate] to ensure all required
// tables exist.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{
		pool:     pool,
		sessions: &SessionStoreImpl{pool: pool},
	}, nil
}

// L1 returns the L1 session log implementation which satisfies [graphstore.SessionStore].
func (s *Store) L1() *SessionStoreImpl { return s.sessions }

// Close releases all connections held by the underlying connection pool.
// It should be called when the Store is no longer needed, typically via defer.
func (s *Store) Close() {
	s.pool.Close()
}
