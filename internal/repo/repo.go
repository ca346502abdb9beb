// Package repo exposes per-entity repository facades over the generic
// three-layer graph substrate in internal/graphstore. Each facade method
// maps a typed internal/domain struct to/from a graphstore.Entity, keeping
// the domain layer free of any storage-specific import. Every facade is a
// thin wrapper: CRUD + query, nothing more.
//
// Entities are stored as a graph node of the corresponding Type string (see
// the entityType* constants) whose Attributes map holds the JSON encoding of
// the domain struct under the "data" key. This keeps the mapping mechanical
// and uniform across a dozen entity kinds without hand-rolled field-by-field
// marshalling for each one.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	graphstore "github.com/duskward/loomkeeper/internal/graphstore"
	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

const (
	entityTypeWorld          = "world"
	entityTypeLocation       = "location"
	entityTypeRegion         = "region"
	entityTypeCharacter      = "character"
	entityTypePC             = "pc"
	entityTypeItem           = "item"
	entityTypeLore           = "lore"
	entityTypeFlag           = "flag"
	entityTypeStaging        = "staging"
	entityTypeScene          = "scene"
	entityTypeChallenge      = "challenge"
	entityTypeLocationState  = "location_state"
	entityTypeRegionState    = "region_state"
	entityTypeNarrativeEvent = "narrative_event"
	entityTypeEventChain     = "event_chain"
	entityTypeStoryEvent     = "story_event"
	entityTypeObservation    = "observation"
	entityTypeConversation   = "conversation"
	entityTypeAsset          = "asset"
)

// ErrNotFound is returned when a lookup by ID finds no matching entity.
var ErrNotFound = fmt.Errorf("repo: not found")

// Repo is the aggregate repository facade, backed by a graphstore.KnowledgeGraph.
// One Repo serves every entity kind; callers use its per-kind methods
// (e.g. Repo.GetWorld, Repo.ListCharacters) directly, matching "thin facade"
// style.
type Repo struct {
	graph graphstore.KnowledgeGraph
}

// New wraps an existing graphstore.KnowledgeGraph (typically a
// *pgstore.Store) with typed repository facades.
func New(graph graphstore.KnowledgeGraph) *Repo {
	return &Repo{graph: graph}
}

func encodeAttrs(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("repo: marshal: %w", err)
	}
	return map[string]any{"data": string(b)}, nil
}

func decodeAttrs[T any](e *graphstore.Entity) (T, error) {
	var out T
	if e == nil {
		return out, ErrNotFound
	}
	raw, _ := e.Attributes["data"].(string)
	if raw == "" {
		return out, fmt.Errorf("repo: entity %s has no data payload", e.ID)
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("repo: unmarshal %s: %w", e.ID, err)
	}
	return out, nil
}

func (r *Repo) put(ctx context.Context, worldID ids.WorldID, id, typ, name string, v any) error {
	attrs, err := encodeAttrs(v)
	if err != nil {
		return err
	}
	now := time.Now()
	return r.graph.AddEntity(ctx, graphstore.Entity{
		ID:         id,
		WorldID:    worldID.String(),
		Type:       typ,
		Name:       name,
		Attributes: attrs,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (r *Repo) get(ctx context.Context, id string) (*graphstore.Entity, error) {
	e, err := r.graph.GetEntity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repo: get %s: %w", id, err)
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

func (r *Repo) list(ctx context.Context, worldID ids.WorldID, typ string) ([]graphstore.Entity, error) {
	return r.graph.FindEntities(ctx, graphstore.EntityFilter{WorldID: worldID.String(), Type: typ})
}

func (r *Repo) delete(ctx context.Context, id string) error {
	return r.graph.DeleteEntity(ctx, id)
}

// DeleteWorld cascades deletion across every entity owned by worldID.
func (r *Repo) DeleteWorld(ctx context.Context, worldID ids.WorldID) error {
	return r.graph.DeleteByWorld(ctx, worldID.String())
}
