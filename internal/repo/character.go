package repo

import (
	"context"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// SaveCharacter upserts c.
func (r *Repo) SaveCharacter(ctx context.Context, c domain.Character) error {
	return r.put(ctx, c.WorldID, c.ID.String(), entityTypeCharacter, c.Name, c)
}

// GetCharacter retrieves a Character by ID.
func (r *Repo) GetCharacter(ctx context.Context, id ids.CharacterID) (domain.Character, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Character{}, err
	}
	return decodeAttrs[domain.Character](e)
}

// ListCharacters returns every Character belonging to worldID.
func (r *Repo) ListCharacters(ctx context.Context, worldID ids.WorldID) ([]domain.Character, error) {
	entities, err := r.list(ctx, worldID, entityTypeCharacter)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Character, 0, len(entities))
	for i := range entities {
		c, err := decodeAttrs[domain.Character](&entities[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// DeleteCharacter removes a Character by ID.
func (r *Repo) DeleteCharacter(ctx context.Context, id ids.CharacterID) error {
	return r.delete(ctx, id.String())
}

// SavePC upserts pc.
func (r *Repo) SavePC(ctx context.Context, pc domain.PlayerCharacter) error {
	if pc.CurrentRegionID != nil {
		region, err := r.GetRegion(ctx, *pc.CurrentRegionID)
		if err != nil {
			return err
		}
		if region.LocationID != pc.CurrentLocationID {
			return domain.ErrInvalidPCLocation
		}
	}
	return r.put(ctx, pc.WorldID, pc.ID.String(), entityTypePC, pc.Name, pc)
}

// GetPC retrieves a PlayerCharacter by ID.
func (r *Repo) GetPC(ctx context.Context, id ids.PCID) (domain.PlayerCharacter, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.PlayerCharacter{}, err
	}
	return decodeAttrs[domain.PlayerCharacter](e)
}

// ListPCsByUser returns every PlayerCharacter owned by userID in worldID.
func (r *Repo) ListPCsByUser(ctx context.Context, worldID ids.WorldID, userID ids.UserID) ([]domain.PlayerCharacter, error) {
	entities, err := r.list(ctx, worldID, entityTypePC)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PlayerCharacter, 0)
	for i := range entities {
		pc, err := decodeAttrs[domain.PlayerCharacter](&entities[i])
		if err != nil {
			return nil, err
		}
		if pc.UserID == userID {
			out = append(out, pc)
		}
	}
	return out, nil
}

// DeletePC removes a PlayerCharacter by ID.
func (r *Repo) DeletePC(ctx context.Context, id ids.PCID) error {
	return r.delete(ctx, id.String())
}

// SaveRegionRelationship records an NPC's region relationship (home, work,
// frequents) as a graph edge, read by the staging subsystem's rule-based
// proposal half.
func (r *Repo) SaveRegionRelationship(ctx context.Context, rel domain.RegionRelationship) error {
	return r.graph.AddRelationship(ctx, graphRelFromRegionRel(rel))
}

// RegionRelationshipsFor returns every region relationship for characterID.
func (r *Repo) RegionRelationshipsFor(ctx context.Context, characterID ids.CharacterID) ([]domain.RegionRelationship, error) {
	rels, err := r.graph.GetRelationships(ctx, characterID.String())
	if err != nil {
		return nil, err
	}
	out := make([]domain.RegionRelationship, 0, len(rels))
	for _, rel := range rels {
		if rel.RelType != "home" && rel.RelType != "work" && rel.RelType != "frequents" {
			continue
		}
		regionID, err := ids.ParseRegionID(rel.TargetID)
		if err != nil {
			continue
		}
		out = append(out, domain.RegionRelationship{
			CharacterID: characterID,
			RegionID:    regionID,
			Frequency:   domain.RegionFrequency(rel.RelType),
		})
	}
	return out, nil
}
