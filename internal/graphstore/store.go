// Package graphstore defines the two-layer storage architecture that backs
// every world's persisted state.
//
//   - L1 – Session Store ([SessionStore]): hot, time-ordered narrative log of
//     everything said and done during active play. Allows fast writes and
//     recency-window or keyword retrieval of recent dialogue and narration.
//   - L2 – Knowledge Graph ([KnowledgeGraph]): a graph of named entities and
//     typed relationships. Every typed repository in internal/repo (worlds,
//     locations, characters, items, lore, staging, ...) is a thin facade over
//     this graph, scoped by world.
//
// All interfaces are public so that external packages can supply alternative
// storage backends (Postgres, Redis, Neo4j, in-memory, …) without depending
// on the concrete backend.
//
// Every implementation must be safe for concurrent use.
package graphstore

import (
	"context"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// L1 supporting types
// ─────────────────────────────────────────────────────────────────────────────

// SearchOpts configures a keyword / full-text search over session entries (L1).
// All non-zero fields are applied as AND conditions.
type SearchOpts struct {
	// SessionID restricts the search to a single session.
	// An empty string searches across all sessions.
	SessionID string

	// After filters entries recorded after this instant (exclusive).
	// A zero Time disables the lower bound.
	After time.Time

	// Before filters entries recorded before this instant (exclusive).
	// A zero Time disables the upper bound.
	Before time.Time

	// SpeakerID restricts results to a specific speaker.
	// An empty string matches all speakers.
	SpeakerID string

	// Limit caps the number of results returned.
	// A value of 0 means the implementation may apply its own default.
	Limit int
}

// ─────────────────────────────────────────────────────────────────────────────
// L2 supporting types
// ─────────────────────────────────────────────────────────────────────────────

// Entity represents a named object in the knowledge graph (L2).
// Entities are typed nodes; their dynamic attributes are stored in a
// free-form map to accommodate the diversity of tabletop RPG settings.
type Entity struct {
	// ID is the unique, stable identifier for this entity (e.g., a UUID).
	ID string

	// WorldID scopes this entity to a single world. All typed repositories
	// filter and cascade-delete by this field.
	WorldID string

	// Type classifies the entity.
	// Recommended values: npc, player, location, region, item, faction,
	// event, quest, staging, scene, challenge, concept. Custom values are
	// allowed.
	Type string

	// Name is the canonical display name (e.g., "Eldrinax the Undying").
	Name string

	// Attributes holds arbitrary key/value metadata specific to this entity
	// (e.g., alignment, health, occupation, description).
	Attributes map[string]any

	// CreatedAt is when the entity was first added to the graph.
	CreatedAt time.Time

	// UpdatedAt is when the entity was last modified.
	UpdatedAt time.Time
}

// Provenance records the origin of a fact asserted in the knowledge graph.
// It is embedded in [Relationship] to allow downstream reasoning about reliability.
type Provenance struct {
	// SessionID is the game session during which this fact was established.
	SessionID string

	// Timestamp is when the fact was established.
	Timestamp time.Time

	// Confidence is the model's confidence in this fact (0.0–1.0).
	Confidence float64

	// Source describes how the fact was derived.
	// Well-known values: "stated" (directly spoken), "inferred" (model reasoning).
	Source string

	// DMConfirmed indicates a human Dungeon Master has validated this fact.
	DMConfirmed bool
}

// Relationship is a directed, typed edge between two entities in the knowledge
// graph (L2).
type Relationship struct {
	// SourceID is the ID of the originating entity.
	SourceID string

	// TargetID is the ID of the destination entity.
	TargetID string

	// RelType is the semantic label of the relationship
	// (e.g., "knows", "hates", "owns", "member_of").
	RelType string

	// Attributes holds additional edge metadata
	// (e.g., since, strength, public, description).
	Attributes map[string]any

	// Provenance records the evidence trail for this relationship.
	Provenance Provenance

	// CreatedAt is when this relationship was first added.
	CreatedAt time.Time
}

// EntityFilter specifies predicates for entity lookup queries.
// All non-zero fields are applied as AND conditions.
type EntityFilter struct {
	// WorldID restricts results to entities belonging to a single world.
	// Empty matches all worlds — callers outside world-scoped code should
	// always set this.
	WorldID string

	// Type restricts results to entities of this type. Empty matches all types.
	Type string

	// Name restricts results to entities whose name contains this substring
	// (case-insensitive). Empty matches all names.
	Name string

	// AttributeQuery is a map of attribute keys to required values.
	// An entity matches if every key/value pair in AttributeQuery is present
	// in its Attributes map.
	AttributeQuery map[string]any
}

// relQueryOptions accumulates options for [KnowledgeGraph.GetRelationships].
// Unexported — callers configure it via [RelQueryOpt] functional options.
type relQueryOptions struct {
	relTypes     []string
	directionIn  bool
	directionOut bool
	limit        int
}

// RelQueryOpt is a functional option for [KnowledgeGraph.GetRelationships].
type RelQueryOpt func(*relQueryOptions)

// WithRelTypes restricts the returned relationships to those whose RelType is
// in the provided list. An empty list (the default) returns all types.
func WithRelTypes(relTypes ...string) RelQueryOpt {
	return func(o *relQueryOptions) {
		o.relTypes = append(o.relTypes, relTypes...)
	}
}

// WithIncoming includes relationships where the queried entity is the target
// (i.e., inbound edges). By default only outgoing relationships are returned.
func WithIncoming() RelQueryOpt {
	return func(o *relQueryOptions) { o.directionIn = true }
}

// WithOutgoing includes relationships where the queried entity is the source
// (i.e., outbound edges). This is the default behaviour; calling it explicitly
// is a no-op but improves readability when combined with [WithIncoming].
func WithOutgoing() RelQueryOpt {
	return func(o *relQueryOptions) { o.directionOut = true }
}

// WithRelLimit caps the number of relationships returned.
// A value of 0 means the implementation may apply its own default.
func WithRelLimit(n int) RelQueryOpt {
	return func(o *relQueryOptions) { o.limit = n }
}

// traversalOptions accumulates options for [KnowledgeGraph.Neighbors].
// Unexported — callers configure it via [TraversalOpt] functional options.
type traversalOptions struct {
	relTypes  []string
	nodeTypes []string
	maxNodes  int
}

// TraversalOpt is a functional option for [KnowledgeGraph.Neighbors] graph
// traversals.
type TraversalOpt func(*traversalOptions)

// TraverseRelTypes restricts traversal to edges whose RelType is in the
// provided list. An empty list (the default) follows all edge types.
func TraverseRelTypes(relTypes ...string) TraversalOpt {
	return func(o *traversalOptions) {
		o.relTypes = append(o.relTypes, relTypes...)
	}
}

// TraverseNodeTypes restricts traversal to entity nodes whose Type is in the
// provided list. An empty list (the default) visits all node types.
func TraverseNodeTypes(nodeTypes ...string) TraversalOpt {
	return func(o *traversalOptions) {
		o.nodeTypes = append(o.nodeTypes, nodeTypes...)
	}
}

// TraverseMaxNodes caps the number of entities returned during a traversal.
// A value of 0 means the implementation may apply its own default.
func TraverseMaxNodes(n int) TraversalOpt {
	return func(o *traversalOptions) { o.maxNodes = n }
}

// EntityIdentity is a compact snapshot of an entity's knowledge-graph
// identity, suitable for injection into a system prompt or context window.
// Used for NPC persona assembly as well as player-character sheets.
type EntityIdentity struct {
	// Entity is the subject's own node in the knowledge graph.
	Entity Entity

	// Relationships are all direct edges from/to this entity.
	Relationships []Relationship

	// RelatedEntities are the entities connected to this one by Relationships.
	RelatedEntities []Entity
}

// ─────────────────────────────────────────────────────────────────────────────
// L1 – Session Store interface
// ─────────────────────────────────────────────────────────────────────────────

// SessionStore is the L1 memory layer: a time-ordered, append-only log of
// [NarrativeEntry] records for one or more game sessions.
//
// Entries must be returned in chronological order unless otherwise specified.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// WriteEntry appends a NarrativeEntry to the store for the given session.
	// sessionID must be non-empty.
	// Returns an error only on persistent storage failure.
	WriteEntry(ctx context.Context, sessionID string, entry NarrativeEntry) error

	// GetRecent returns all entries for the given session whose Timestamp is
	// no earlier than time.Now()-duration.
	// Returns an empty (non-nil) slice when no matching entries exist.
	GetRecent(ctx context.Context, sessionID string, duration time.Duration) ([]NarrativeEntry, error)

	// Search performs keyword / full-text search over stored entries.
	// The query string is matched against the Text field.
	// opts refines the result set by time range, speaker, or session scope.
	// Returns an empty (non-nil) slice when no entries match.
	Search(ctx context.Context, query string, opts SearchOpts) ([]NarrativeEntry, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// L2 – Knowledge Graph interface
// ─────────────────────────────────────────────────────────────────────────────

// KnowledgeGraph is the L2 memory layer: a graph of named [Entity] nodes
// connected by typed [Relationship] edges.
//
// It supports full CRUD on nodes and edges, multi-hop neighbourhood traversal,
// shortest-path queries, and NPC-specific projection methods.
//
// Mutating operations that act on a primary key (AddEntity, AddRelationship)
// must behave as upserts rather than returning an error on duplicates.
// Deletions of non-existent records are not errors.
//
// Implementations must be safe for concurrent use.
type KnowledgeGraph interface {
	// AddEntity upserts an entity into the graph.
	// If an entity with the same ID already exists it is completely replaced.
	AddEntity(ctx context.Context, entity Entity) error

	// GetEntity retrieves an entity by its unique ID.
	// Returns (nil, nil) when the entity does not exist.
	GetEntity(ctx context.Context, id string) (*Entity, error)

	// UpdateEntity merges attrs into the Attributes map of the specified entity
	// and refreshes its UpdatedAt timestamp. Keys present in attrs overwrite
	// existing values; absent keys are left unchanged.
	// Returns an error when the entity does not exist.
	UpdateEntity(ctx context.Context, id string, attrs map[string]any) error

	// DeleteEntity removes the entity and all its associated relationships from
	// the graph. Deleting a non-existent entity is not an error.
	DeleteEntity(ctx context.Context, id string) error

	// DeleteByWorld removes every entity (and their relationships) whose
	// WorldID equals worldID. Used by world deletion to guarantee no entity
	// with that WorldID remains in any repository afterward. Deleting a
	// world with no entities is not an error.
	DeleteByWorld(ctx context.Context, worldID string) error

	// FindEntities returns all entities matching filter.
	// Returns an empty (non-nil) slice when no entities match.
	FindEntities(ctx context.Context, filter EntityFilter) ([]Entity, error)

	// AddRelationship upserts a directed edge between two entities.
	// If a relationship with the same (SourceID, TargetID, RelType) already
	// exists it is completely replaced.
	AddRelationship(ctx context.Context, rel Relationship) error

	// GetRelationships returns relationships associated with entityID.
	// By default only outgoing edges are returned; use [WithIncoming] to include
	// inbound edges, and [WithRelTypes] to filter by edge type.
	// Returns an empty (non-nil) slice when no relationships match.
	GetRelationships(ctx context.Context, entityID string, opts ...RelQueryOpt) ([]Relationship, error)

	// DeleteRelationship removes the directed edge identified by (sourceID,
	// targetID, relType). Deleting a non-existent edge is not an error.
	DeleteRelationship(ctx context.Context, sourceID, targetID, relType string) error

	// Neighbors performs a breadth-first traversal from entityID up to depth
	// hops and returns all reachable entities (the start entity is excluded).
	// [TraversalOpt] options can restrict which edge or node types are followed.
	// Returns an empty (non-nil) slice when no neighbours are reachable.
	Neighbors(ctx context.Context, entityID string, depth int, opts ...TraversalOpt) ([]Entity, error)

	// FindPath returns the shortest sequence of entities connecting fromID to
	// toID inclusive, following directed edges up to maxDepth hops.
	// Returns an empty (non-nil) slice when no path exists within maxDepth.
	FindPath(ctx context.Context, fromID, toID string, maxDepth int) ([]Entity, error)

	// VisibleSubgraph returns the subset of the graph visible from the
	// perspective of npcID: the NPC node itself, all entities it has direct
	// relationships with, and those relationships.
	// Implementations may apply visibility rules (e.g., only publicly known facts).
	VisibleSubgraph(ctx context.Context, npcID string) ([]Entity, []Relationship, error)

	// IdentitySnapshot assembles a compact [EntityIdentity] for npcID, suitable for
	// injecting into a system prompt or context window.
	IdentitySnapshot(ctx context.Context, npcID string) (*EntityIdentity, error)
}
