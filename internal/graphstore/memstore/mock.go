// Package mock provides in-memory test doubles for the graphstore interfaces.
//
// Each mock records every method call for assertion in tests and exposes
// exported fields that control what the mock returns. All mocks are safe for
// concurrent use via an internal [sync.Mutex].
//
// Typical usage:
//
//	store := &mock.SessionStore{}
//	store.GetRecentResult = []graphstore.NarrativeEntry{{Text: "hello"}}
//
//	// inject store into the system under test …
//
//	if got := store.CallCount("GetRecent"); got != 1 {
//	    t.Errorf("expected 1 GetRecent call, got %d", got)
//	}
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/duskward/loomkeeper/internal/graphstore"
)

// Call records the name and arguments of a single method invocation.
type Call struct {
	// Method is the name of the interface method that was called.
	Method string

	// Args holds the non-context arguments passed to the method, in order.
	Args []any
}

// ─────────────────────────────────────────────────────────────────────────────
// SessionStore mock (L1)
// ─────────────────────────────────────────────────────────────────────────────

// SessionStore is a configurable test double for [graphstore.SessionStore].
// All exported *Err fields default to nil (success); all exported *Result
// fields default to nil (empty slice returned).
type SessionStore struct {
	mu sync.Mutex

	// calls records every method invocation in order.
	calls []Call

	// WriteEntryErr is returned by [SessionStore.WriteEntry] when non-nil.
	WriteEntryErr error

	// GetRecentResult is returned by [SessionStore.GetRecent].
	// When nil, GetRecent returns an empty non-nil slice.
	GetRecentResult []graphstore.NarrativeEntry

	// GetRecentErr is returned by [SessionStore.GetRecent] when non-nil.
	GetRecentErr error

	// SearchResult is returned by [SessionStore.Search].
	// When nil, Search returns an empty non-nil slice.
	SearchResult []graphstore.NarrativeEntry

	// SearchErr is returned by [SessionStore.Search] when non-nil.
	SearchErr error
}

// Calls returns a copy of all recorded method invocations.
func (m *SessionStore) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (m *SessionStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears all recorded calls without altering response configuration.
func (m *SessionStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WriteEntry implements [graphstore.SessionStore].
func (m *SessionStore) WriteEntry(_ context.Context, sessionID string, entry graphstore.NarrativeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "WriteEntry", Args: []any{sessionID, entry}})
	return m.WriteEntryErr
}

// GetRecent implements [graphstore.SessionStore].
func (m *SessionStore) GetRecent(_ context.Context, sessionID string, duration time.Duration) ([]graphstore.NarrativeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "GetRecent", Args: []any{sessionID, duration}})
	if m.GetRecentResult == nil {
		return []graphstore.NarrativeEntry{}, m.GetRecentErr
	}
	out := make([]graphstore.NarrativeEntry, len(m.GetRecentResult))
	copy(out, m.GetRecentResult)
	return out, m.GetRecentErr
}

// Search implements [graphstore.SessionStore].
func (m *SessionStore) Search(_ context.Context, query string, opts graphstore.SearchOpts) ([]graphstore.NarrativeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Search", Args: []any{query, opts}})
	if m.SearchResult == nil {
		return []graphstore.NarrativeEntry{}, m.SearchErr
	}
	out := make([]graphstore.NarrativeEntry, len(m.SearchResult))
	copy(out, m.SearchResult)
	return out, m.SearchErr
}

// Ensure SessionStore satisfies the interface at compile time.
var _ graphstore.SessionStore = (*SessionStore)(nil)

// ─────────────────────────────────────────────────────────────────────────────
// KnowledgeGraph mock (L2)
// ─────────────────────────────────────────────────────────────────────────────

// KnowledgeGraph is a configurable test double for [graphstore.KnowledgeGraph].
// Each method has a corresponding *Err field (returned on non-nil) and a
// corresponding *Result field (returned on success).
type KnowledgeGraph struct {
	mu sync.Mutex

	calls []Call

	// ──── AddEntity ────────────────────────────────────────────────────────
	AddEntityErr error

	// ──── GetEntity ────────────────────────────────────────────────────────
	GetEntityResult *graphstore.Entity
	GetEntityErr    error

	// ──── UpdateEntity ─────────────────────────────────────────────────────
	UpdateEntityErr error

	// ──── DeleteEntity ─────────────────────────────────────────────────────
	DeleteEntityErr error

	// ──── DeleteByWorld ────────────────────────────────────────────────────
	DeleteByWorldErr error

	// ──── FindEntities ─────────────────────────────────────────────────────
	FindEntitiesResult []graphstore.Entity
	FindEntitiesErr    error

	// ──── AddRelationship ──────────────────────────────────────────────────
	AddRelationshipErr error

	// ──── GetRelationships ─────────────────────────────────────────────────
	GetRelationshipsResult []graphstore.Relationship
	GetRelationshipsErr    error

	// ──── DeleteRelationship ───────────────────────────────────────────────
	DeleteRelationshipErr error

	// ──── Neighbors ────────────────────────────────────────────────────────
	NeighborsResult []graphstore.Entity
	NeighborsErr    error

	// ──── FindPath ─────────────────────────────────────────────────────────
	FindPathResult []graphstore.Entity
	FindPathErr    error

	// ──── VisibleSubgraph ──────────────────────────────────────────────────
	VisibleSubgraphEntities      []graphstore.Entity
	VisibleSubgraphRelationships []graphstore.Relationship
	VisibleSubgraphErr           error

	// ──── IdentitySnapshot ─────────────────────────────────────────────────
	IdentitySnapshotResult *graphstore.EntityIdentity
	IdentitySnapshotErr    error
}

// Calls returns a copy of all recorded method invocations.
func (m *KnowledgeGraph) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (m *KnowledgeGraph) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears all recorded calls without altering response configuration.
func (m *KnowledgeGraph) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// AddEntity implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) AddEntity(_ context.Context, entity graphstore.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "AddEntity", Args: []any{entity}})
	return m.AddEntityErr
}

// GetEntity implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) GetEntity(_ context.Context, id string) (*graphstore.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "GetEntity", Args: []any{id}})
	return m.GetEntityResult, m.GetEntityErr
}

// UpdateEntity implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) UpdateEntity(_ context.Context, id string, attrs map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "UpdateEntity", Args: []any{id, attrs}})
	return m.UpdateEntityErr
}

// DeleteEntity implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) DeleteEntity(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "DeleteEntity", Args: []any{id}})
	return m.DeleteEntityErr
}

// DeleteByWorld implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) DeleteByWorld(_ context.Context, worldID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "DeleteByWorld", Args: []any{worldID}})
	return m.DeleteByWorldErr
}

// FindEntities implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) FindEntities(_ context.Context, filter graphstore.EntityFilter) ([]graphstore.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "FindEntities", Args: []any{filter}})
	if m.FindEntitiesResult == nil {
		return []graphstore.Entity{}, m.FindEntitiesErr
	}
	out := make([]graphstore.Entity, len(m.FindEntitiesResult))
	copy(out, m.FindEntitiesResult)
	return out, m.FindEntitiesErr
}

// AddRelationship implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) AddRelationship(_ context.Context, rel graphstore.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "AddRelationship", Args: []any{rel}})
	return m.AddRelationshipErr
}

// GetRelationships implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) GetRelationships(_ context.Context, entityID string, opts ...graphstore.RelQueryOpt) ([]graphstore.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "GetRelationships", Args: []any{entityID, opts}})
	if m.GetRelationshipsResult == nil {
		return []graphstore.Relationship{}, m.GetRelationshipsErr
	}
	out := make([]graphstore.Relationship, len(m.GetRelationshipsResult))
	copy(out, m.GetRelationshipsResult)
	return out, m.GetRelationshipsErr
}

// DeleteRelationship implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) DeleteRelationship(_ context.Context, sourceID, targetID, relType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "DeleteRelationship", Args: []any{sourceID, targetID, relType}})
	return m.DeleteRelationshipErr
}

// Neighbors implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) Neighbors(_ context.Context, entityID string, depth int, opts ...graphstore.TraversalOpt) ([]graphstore.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Neighbors", Args: []any{entityID, depth, opts}})
	if m.NeighborsResult == nil {
		return []graphstore.Entity{}, m.NeighborsErr
	}
	out := make([]graphstore.Entity, len(m.NeighborsResult))
	copy(out, m.NeighborsResult)
	return out, m.NeighborsErr
}

// FindPath implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) FindPath(_ context.Context, fromID, toID string, maxDepth int) ([]graphstore.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "FindPath", Args: []any{fromID, toID, maxDepth}})
	if m.FindPathResult == nil {
		return []graphstore.Entity{}, m.FindPathErr
	}
	out := make([]graphstore.Entity, len(m.FindPathResult))
	copy(out, m.FindPathResult)
	return out, m.FindPathErr
}

// VisibleSubgraph implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) VisibleSubgraph(_ context.Context, npcID string) ([]graphstore.Entity, []graphstore.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "VisibleSubgraph", Args: []any{npcID}})

	entities := m.VisibleSubgraphEntities
	if entities == nil {
		entities = []graphstore.Entity{}
	} else {
		out := make([]graphstore.Entity, len(entities))
		copy(out, entities)
		entities = out
	}

	rels := m.VisibleSubgraphRelationships
	if rels == nil {
		rels = []graphstore.Relationship{}
	} else {
		out := make([]graphstore.Relationship, len(rels))
		copy(out, rels)
		rels = out
	}

	return entities, rels, m.VisibleSubgraphErr
}

// IdentitySnapshot implements [graphstore.KnowledgeGraph].
func (m *KnowledgeGraph) IdentitySnapshot(_ context.Context, npcID string) (*graphstore.EntityIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "IdentitySnapshot", Args: []any{npcID}})
	return m.IdentitySnapshotResult, m.IdentitySnapshotErr
}

// Ensure KnowledgeGraph satisfies the interface at compile time.
var _ graphstore.KnowledgeGraph = (*KnowledgeGraph)(nil)
