package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/duskward/loomkeeper/internal/graphstore"
)

// ─────────────────────────────────────────────────────────────────────────────
// L2 — KnowledgeGraph
// ─────────────────────────────────────────────────────────────────────────────

// AddEntity implements [graphstore.KnowledgeGraph]. It upserts an entity into the
// entities table. If an entity with the same ID already exists it is completely
// replaced and its updated_at timestamp is refreshed.
func (s *Store) AddEntity(ctx context.Context, entity graphstore.Entity) error {
	attrsJSON, err := json.Marshal(entity.Attributes)
	if err != nil {
		return fmt.Errorf("knowledge graph: marshal attributes: %w", err)
	}

	const q = `
		INSERT INTO entities (id, world_id, type, name, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (id) DO UPDATE SET
		    world_id    = EXCLUDED.world_id,
		    type        = EXCLUDED.type,
		    name        = EXCLUDED.name,
		    attributes  = EXCLUDED.attributes,
		    updated_at  = now()`

	_, err = s.pool.Exec(ctx, q,
		entity.ID,
		entity.WorldID,
		entity.Type,
		entity.Name,
		attrsJSON,
	)
	if err != nil {
		return fmt.Errorf("knowledge graph: add entity: %w", err)
	}
	return nil
}

// GetEntity implements [graphstore.KnowledgeGraph]. It retrieves an entity by ID.
// Returns (nil, nil) when the entity does not exist.
func (s *Store) GetEntity(ctx context.Context, id string) (*graphstore.Entity, error) {
	const q = `
		SELECT id, world_id, type, name, attributes, created_at, updated_at
		FROM   entities
		WHERE  id = $1`

	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: get entity: %w", err)
	}
	entities, err := collectEntities(rows)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: get entity: %w", err)
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return &entities[0], nil
}

// UpdateEntity implements [graphstore.KnowledgeGraph]. It merges attrs into the
// entity's Attributes map using PostgreSQL's jsonb || operator and refreshes
// updated_at. Returns an error when the entity does not exist.
func (s *Store) UpdateEntity(ctx context.Context, id string, attrs map[string]any) error {
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("knowledge graph: marshal update attrs: %w", err)
	}

	const q = `
		UPDATE entities
		SET    attributes = attributes || $2::jsonb,
		       updated_at = now()
		WHERE  id = $1`

	tag, err := s.pool.Exec(ctx, q, id, attrsJSON)
	if err != nil {
		return fmt.Errorf("knowledge graph: update entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("knowledge graph: update entity: entity %q not found", id)
	}
	return nil
}

// DeleteEntity implements [graphstore.KnowledgeGraph]. It removes the entity and
// all its associated relationships (via ON DELETE CASCADE). Deleting a
// non-existent entity is not an error.
func (s *Store) DeleteEntity(ctx context.Context, id string) error {
	const q = `DELETE FROM entities WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("knowledge graph: delete entity: %w", err)
	}
	return nil
}

// DeleteByWorld implements [graphstore.KnowledgeGraph]. It removes every entity
// whose world_id equals worldID; relationships referencing those entities are
// removed transitively via ON DELETE CASCADE. Deleting a world with no
// entities is not an error.
func (s *Store) DeleteByWorld(ctx context.Context, worldID string) error {
	const q = `DELETE FROM entities WHERE world_id = $1`
	if _, err := s.pool.Exec(ctx, q, worldID); err != nil {
		return fmt.Errorf("knowledge graph: delete by world: %w", err)
	}
	return nil
}

// FindEntities implements [graphstore.KnowledgeGraph]. It returns all entities
// matching filter. All non-zero filter fields are applied as AND conditions.
func (s *Store) FindEntities(ctx context.Context, filter graphstore.EntityFilter) ([]graphstore.Entity, error) {
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var conditions []string
	if filter.WorldID != "" {
		conditions = append(conditions, "world_id = "+next(filter.WorldID))
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = "+next(filter.Type))
	}
	if filter.Name != "" {
		conditions = append(conditions, "name ILIKE "+next("%"+filter.Name+"%"))
	}
	if len(filter.AttributeQuery) > 0 {
		attrJSON, err := json.Marshal(filter.AttributeQuery)
		if err != nil {
			return nil, fmt.Errorf("knowledge graph: marshal attribute query: %w", err)
		}
		conditions = append(conditions, "attributes @> "+next(string(attrJSON))+"::jsonb")
	}

	q := "SELECT id, world_id, type, name, attributes, created_at, updated_at\nFROM   entities"
	if len(conditions) > 0 {
		q += "\nWHERE " + strings.Join(conditions, "\n  AND ")
	}
	q += "\nORDER BY name"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: find entities: %w", err)
	}
	result, err := collectEntities(rows)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: find entities: %w", err)
	}
	return result, nil
}

// AddRelationship implements [graphstore.KnowledgeGraph]. It upserts a directed
// edge between two entities. If the edge (SourceID, TargetID, RelType) already
// exists it is completely replaced.
func (s *Store) AddRelationship(ctx context.Context, rel graphstore.Relationship) error {
	attrsJSON, err := json.Marshal(rel.Attributes)
	if err != nil {
		return fmt.Errorf("knowledge graph: marshal relationship attributes: %w", err)
	}
	provJSON, err := json.Marshal(rel.Provenance)
	if err != nil {
		return fmt.Errorf("knowledge graph: marshal relationship provenance: %w", err)
	}

	const q = `
		INSERT INTO relationships
		    (source_id, target_id, rel_type, attributes, provenance, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (source_id, target_id, rel_type) DO UPDATE SET
		    attributes = EXCLUDED.attributes,
		    provenance = EXCLUDED.provenance`

	_, err = s.pool.Exec(ctx, q,
		rel.SourceID,
		rel.TargetID,
		rel.RelType,
		attrsJSON,
		provJSON,
	)
	if err != nil {
		return fmt.Errorf("knowledge graph: add relationship: %w", err)
	}
	return nil
}

// GetRelationships implements [graphstore.KnowledgeGraph]. It returns relationships
// associated with entityID. By default only outgoing edges are returned; use
// [graphstore.WithIncoming] to include inbound edges and [graphstore.WithRelTypes] to
// filter by edge type.
func (s *Store) GetRelationships(ctx context.Context, entityID string, opts ...graphstore.RelQueryOpt) ([]graphstore.Relationship, error) {
	relTypes, dirIn, dirOut, limit := graphstore.ApplyRelQueryOpts(opts)

	// Default: outgoing only when neither direction is explicitly set.
	if !dirIn && !dirOut {
		dirOut = true
	}

	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	// Build direction filter.
	var dirParts []string
	if dirOut {
		dirParts = append(dirParts, "source_id = "+next(entityID))
	}
	if dirIn {
		dirParts = append(dirParts, "target_id = "+next(entityID))
	}
	conditions := []string{"(" + strings.Join(dirParts, " OR ") + ")"}

	if len(relTypes) > 0 {
		conditions = append(conditions, "rel_type = ANY("+next(relTypes)+"::text[])")
	}

	q := "SELECT source_id, target_id, rel_type, attributes, provenance, created_at\n" +
		"FROM   relationships\n" +
		"WHERE  " + strings.Join(conditions, "\n  AND ") + "\n" +
		"ORDER  BY created_at"

	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf("\nLIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: get relationships: %w", err)
	}
	result, err := collectRelationships(rows)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: get relationships: %w", err)
	}
	return result, nil
}

// DeleteRelationship implements [graphstore.KnowledgeGraph]. It removes the
// directed edge identified by (sourceID, targetID, relType). Deleting a
// non-existent edge is not an error.
func (s *Store) DeleteRelationship(ctx context.Context, sourceID, targetID, relType string) error {
	const q = `
		DELETE FROM relationships
		WHERE source_id = $1 AND target_id = $2 AND rel_type = $3`

	if _, err := s.pool.Exec(ctx, q, sourceID, targetID, relType); err != nil {
		return fmt.Errorf("knowledge graph: delete relationship: %w", err)
	}
	return nil
}

// Neighbors implements [graphstore.KnowledgeGraph]. It performs a breadth-first
// traversal from entityID up to depth hops using a PostgreSQL recursive CTE
// and returns all reachable entities (the start entity is excluded).
//
// Cycles are prevented by tracking visited node IDs in a PostgreSQL text array.
// [graphstore.TraversalOpt] options can restrict which edge or node types are followed
// and cap the result set size.
func (s *Store) Neighbors(ctx context.Context, entityID string, depth int, opts ...graphstore.TraversalOpt) ([]graphstore.Entity, error) {
	relTypes, nodeTypes, maxNodes := graphstore.ApplyTraversalOpts(opts)

	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	startArg := next(entityID) // $1
	depthArg := next(depth)    // $2

	relTypeFilter := ""
	if len(relTypes) > 0 {
		relTypeFilter = "\n           AND rel.rel_type = ANY(" + next(relTypes) + "::text[])"
	}

	nodeTypeFilter := ""
	if len(nodeTypes) > 0 {
		nodeTypeFilter = "\n           AND e.type = ANY(" + next(nodeTypes) + "::text[])"
	}

	q := fmt.Sprintf(`
		WITH RECURSIVE reachable AS (
		    SELECT id,
		           ARRAY[id] AS visited,
		           0          AS depth
		    FROM   entities
		    WHERE  id = %s

		    UNION ALL

		    SELECT e.id,
		           r.visited || e.id,
		           r.depth + 1
		    FROM   reachable r
		    JOIN   relationships rel ON rel.source_id = r.id
		    JOIN   entities      e   ON e.id = rel.target_id
		    WHERE  r.depth < %s
		      AND  NOT (e.id = ANY(r.visited))%s%s
		)
		SELECT DISTINCT ON (e.id)
		       e.id, e.world_id, e.type, e.name, e.attributes, e.created_at, e.updated_at
		FROM   reachable rc
		JOIN   entities  e  ON e.id = rc.id
		WHERE  rc.id != %s
		ORDER  BY e.id`, startArg, depthArg, relTypeFilter, nodeTypeFilter, startArg)

	if maxNodes > 0 {
		args = append(args, maxNodes)
		q += fmt.Sprintf("\nLIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: neighbors: %w", err)
	}
	result, err := collectEntities(rows)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: neighbors: %w", err)
	}
	return result, nil
}

// FindPath implements [graphstore.KnowledgeGraph]. It returns the shortest sequence
// of entities (including fromID and toID) connecting fromID to toID following
// directed edges, up to maxDepth hops.
//
// Returns an empty (non-nil) slice when no path exists within maxDepth.
func (s *Store) FindPath(ctx context.Context, fromID, toID string, maxDepth int) ([]graphstore.Entity, error) {
	// The CTE tracks each candidate path as a TEXT[] array.
	const q = `
		WITH RECURSIVE path_search AS (
		    SELECT id,
		           ARRAY[id] AS path,
		           0          AS depth
		    FROM   entities
		    WHERE  id = $1

		    UNION ALL

		    SELECT e.id,
		           ps.path || e.id,
		           ps.depth + 1
		    FROM   path_search ps
		    JOIN   relationships rel ON rel.source_id = ps.id
		    JOIN   entities      e   ON e.id = rel.target_id
		    WHERE  ps.depth < $3
		      AND  NOT (e.id = ANY(ps.path))
		)
		SELECT path
		FROM   path_search
		WHERE  id = $2
		ORDER  BY depth
		LIMIT  1`

	row := s.pool.QueryRow(ctx, q, fromID, toID, maxDepth)

	var path []string
	if err := row.Scan(&path); err != nil {
		if isNoRows(err) {
			return []graphstore.Entity{}, nil
		}
		return nil, fmt.Errorf("knowledge graph: find path: %w", err)
	}

	return s.fetchEntitiesOrdered(ctx, path)
}

// VisibleSubgraph implements [graphstore.KnowledgeGraph]. It returns the NPC
// entity itself, all entities it has direct relationships with, and those
// relationships (both outgoing and incoming edges).
func (s *Store) VisibleSubgraph(ctx context.Context, npcID string) ([]graphstore.Entity, []graphstore.Relationship, error) {
	const qRels = `
		SELECT source_id, target_id, rel_type, attributes, provenance, created_at
		FROM   relationships
		WHERE  source_id = $1 OR target_id = $1
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, qRels, npcID)
	if err != nil {
		return nil, nil, fmt.Errorf("knowledge graph: visible subgraph: query rels: %w", err)
	}
	rels, err := collectRelationships(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("knowledge graph: visible subgraph: %w", err)
	}

	// Collect unique entity IDs (the NPC + all directly related entities).
	seen := map[string]struct{}{npcID: {}}
	ids := []string{npcID}
	for _, r := range rels {
		for _, rid := range []string{r.SourceID, r.TargetID} {
			if _, ok := seen[rid]; !ok {
				seen[rid] = struct{}{}
				ids = append(ids, rid)
			}
		}
	}

	entities, err := s.fetchEntitiesIn(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("knowledge graph: visible subgraph: %w", err)
	}
	return entities, rels, nil
}

// IdentitySnapshot implements [graphstore.KnowledgeGraph]. It assembles a compact
// [graphstore.EntityIdentity] for npcID containing the NPC's entity record, all its
// direct relationships, and the entities those relationships reference.
func (s *Store) IdentitySnapshot(ctx context.Context, npcID string) (*graphstore.EntityIdentity, error) {
	entity, err := s.GetEntity(ctx, npcID)
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: identity snapshot: %w", err)
	}
	if entity == nil {
		return nil, fmt.Errorf("knowledge graph: identity snapshot: entity %q not found", npcID)
	}

	rels, err := s.GetRelationships(ctx, npcID, graphstore.WithOutgoing(), graphstore.WithIncoming())
	if err != nil {
		return nil, fmt.Errorf("knowledge graph: identity snapshot: %w", err)
	}

	// Collect all related entity IDs (exclude the NPC itself).
	seen := map[string]struct{}{npcID: {}}
	var relatedIDs []string
	for _, r := range rels {
		for _, rid := range []string{r.SourceID, r.TargetID} {
			if _, ok := seen[rid]; !ok {
				seen[rid] = struct{}{}
				relatedIDs = append(relatedIDs, rid)
			}
		}
	}

	var related []graphstore.Entity
	if len(relatedIDs) > 0 {
		related, err = s.fetchEntitiesIn(ctx, relatedIDs)
		if err != nil {
			return nil, fmt.Errorf("knowledge graph: identity snapshot: %w", err)
		}
	}
	if related == nil {
		related = []graphstore.Entity{}
	}

	return &graphstore.EntityIdentity{
		Entity:          *entity,
		Relationships:   rels,
		RelatedEntities: related,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Private scan helpers
// ─────────────────────────────────────────────────────────────────────────────

// collectEntities scans pgx rows into a slice of Entity values.
func collectEntities(rows pgx.Rows) ([]graphstore.Entity, error) {
	entities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (graphstore.Entity, error) {
		var (
			e         graphstore.Entity
			attrsJSON []byte
		)
		if err := row.Scan(
			&e.ID,
			&e.WorldID,
			&e.Type,
			&e.Name,
			&attrsJSON,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return graphstore.Entity{}, err
		}
		if len(attrsJSON) > 0 {
			if err := json.Unmarshal(attrsJSON, &e.Attributes); err != nil {
				return graphstore.Entity{}, fmt.Errorf("unmarshal entity attributes: %w", err)
			}
		}
		if e.Attributes == nil {
			e.Attributes = map[string]any{}
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if entities == nil {
		entities = []graphstore.Entity{}
	}
	return entities, nil
}

// collectRelationships scans pgx rows into a slice of Relationship values.
func collectRelationships(rows pgx.Rows) ([]graphstore.Relationship, error) {
	rels, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (graphstore.Relationship, error) {
		var (
			r         graphstore.Relationship
			attrsJSON []byte
			provJSON  []byte
		)
		if err := row.Scan(
			&r.SourceID,
			&r.TargetID,
			&r.RelType,
			&attrsJSON,
			&provJSON,
			&r.CreatedAt,
		); err != nil {
			return graphstore.Relationship{}, err
		}
		if len(attrsJSON) > 0 {
			if err := json.Unmarshal(attrsJSON, &r.Attributes); err != nil {
				return graphstore.Relationship{}, fmt.Errorf("unmarshal rel attributes: %w", err)
			}
		}
		if r.Attributes == nil {
			r.Attributes = map[string]any{}
		}
		if len(provJSON) > 0 {
			if err := json.Unmarshal(provJSON, &r.Provenance); err != nil {
				return graphstore.Relationship{}, fmt.Errorf("unmarshal rel provenance: %w", err)
			}
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	if rels == nil {
		rels = []graphstore.Relationship{}
	}
	return rels, nil
}

// fetchEntitiesIn returns entities whose IDs are in the provided list.
func (s *Store) fetchEntitiesIn(ctx context.Context, ids []string) ([]graphstore.Entity, error) {
	if len(ids) == 0 {
		return []graphstore.Entity{}, nil
	}
	const q = `
		SELECT id, world_id, type, name, attributes, created_at, updated_at
		FROM   entities
		WHERE  id = ANY($1::text[])`

	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch entities in: %w", err)
	}
	return collectEntities(rows)
}

// fetchEntitiesOrdered returns entities in the same order as the provided ids
// slice, fetching them in a single query and re-ordering in Go.
func (s *Store) fetchEntitiesOrdered(ctx context.Context, ids []string) ([]graphstore.Entity, error) {
	if len(ids) == 0 {
		return []graphstore.Entity{}, nil
	}
	entities, err := s.fetchEntitiesIn(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]graphstore.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}

	ordered := make([]graphstore.Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
		}
	}
	return ordered, nil
}

// isNoRows reports whether err is the pgx "no rows" sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
