package repo

import (
	"context"
	"sort"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// SaveNarrativeEvent upserts e.
func (r *Repo) SaveNarrativeEvent(ctx context.Context, e domain.NarrativeEvent) error {
	return r.put(ctx, e.WorldID, e.ID.String(), entityTypeNarrativeEvent, e.Name, e)
}

// GetNarrativeEvent retrieves a NarrativeEvent by ID.
func (r *Repo) GetNarrativeEvent(ctx context.Context, id ids.NarrativeEventID) (domain.NarrativeEvent, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.NarrativeEvent{}, err
	}
	return decodeAttrs[domain.NarrativeEvent](e)
}

// SaveEventChain upserts c.
func (r *Repo) SaveEventChain(ctx context.Context, c domain.EventChain) error {
	return r.put(ctx, c.WorldID, c.ID.String(), entityTypeEventChain, c.Name, c)
}

// GetEventChain retrieves an EventChain by ID.
func (r *Repo) GetEventChain(ctx context.Context, id ids.EventChainID) (domain.EventChain, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.EventChain{}, err
	}
	return decodeAttrs[domain.EventChain](e)
}

// SaveStoryEvent records an immutable StoryEvent. StoryEvents are
// append-only: callers must not attempt to mutate a previously-saved one.
func (r *Repo) SaveStoryEvent(ctx context.Context, ev domain.StoryEvent) error {
	return r.put(ctx, ev.WorldID, ev.ID.String(), entityTypeStoryEvent, ev.Summary, ev)
}

// ListStoryEventsByCharacter returns every StoryEvent involving characterID,
// most recent first, capped at limit (0 means no cap).
func (r *Repo) ListStoryEventsByCharacter(ctx context.Context, worldID ids.WorldID, characterID ids.CharacterID, limit int) ([]domain.StoryEvent, error) {
	entities, err := r.list(ctx, worldID, entityTypeStoryEvent)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StoryEvent, 0)
	for i := range entities {
		ev, err := decodeAttrs[domain.StoryEvent](&entities[i])
		if err != nil {
			return nil, err
		}
		for _, cid := range ev.CharacterIDs {
			if cid == characterID {
				out = append(out, ev)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveObservation upserts an Observation. The most recent observation for
// a (PC, NPC) pair wins, so callers should look up any existing observation
// via GetObservation first and reuse its ID when updating.
func (r *Repo) SaveObservation(ctx context.Context, o domain.Observation) error {
	return r.put(ctx, o.WorldID, o.ID.String(), entityTypeObservation, "observation", o)
}

// GetObservation returns the current observation of characterID by pcID, or
// (nil, nil) if the PC has never observed this NPC.
func (r *Repo) GetObservation(ctx context.Context, worldID ids.WorldID, pcID ids.PCID, characterID ids.CharacterID) (*domain.Observation, error) {
	entities, err := r.list(ctx, worldID, entityTypeObservation)
	if err != nil {
		return nil, err
	}
	var latest *domain.Observation
	for i := range entities {
		o, err := decodeAttrs[domain.Observation](&entities[i])
		if err != nil {
			return nil, err
		}
		if o.PCID != pcID || o.CharacterID != characterID {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			oCopy := o
			latest = &oCopy
		}
	}
	return latest, nil
}
