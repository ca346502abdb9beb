package repo

import (
	"context"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// SaveItem upserts it.
func (r *Repo) SaveItem(ctx context.Context, it domain.Item) error {
	return r.put(ctx, it.WorldID, it.ID.String(), entityTypeItem, it.Name, it)
}

// GetItem retrieves an Item by ID.
func (r *Repo) GetItem(ctx context.Context, id ids.ItemID) (domain.Item, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Item{}, err
	}
	return decodeAttrs[domain.Item](e)
}

// ListItemsByRegion returns every Item currently resting in regionID.
func (r *Repo) ListItemsByRegion(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) ([]domain.Item, error) {
	entities, err := r.list(ctx, worldID, entityTypeItem)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Item, 0)
	for i := range entities {
		it, err := decodeAttrs[domain.Item](&entities[i])
		if err != nil {
			return nil, err
		}
		if it.RegionID != nil && *it.RegionID == regionID {
			out = append(out, it)
		}
	}
	return out, nil
}

// DeleteItem removes an Item by ID.
func (r *Repo) DeleteItem(ctx context.Context, id ids.ItemID) error {
	return r.delete(ctx, id.String())
}

// SaveLore upserts l.
func (r *Repo) SaveLore(ctx context.Context, l domain.Lore) error {
	return r.put(ctx, l.WorldID, l.ID.String(), entityTypeLore, l.Name, l)
}

// GetLore retrieves a Lore entry by ID.
func (r *Repo) GetLore(ctx context.Context, id ids.LoreID) (domain.Lore, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Lore{}, err
	}
	return decodeAttrs[domain.Lore](e)
}

// ListLore returns every Lore entry belonging to worldID.
func (r *Repo) ListLore(ctx context.Context, worldID ids.WorldID) ([]domain.Lore, error) {
	entities, err := r.list(ctx, worldID, entityTypeLore)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Lore, 0, len(entities))
	for i := range entities {
		l, err := decodeAttrs[domain.Lore](&entities[i])
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// DeleteLore removes a Lore entry by ID.
func (r *Repo) DeleteLore(ctx context.Context, id ids.LoreID) error {
	return r.delete(ctx, id.String())
}

// SaveFlag upserts f.
func (r *Repo) SaveFlag(ctx context.Context, f domain.Flag) error {
	return r.put(ctx, f.WorldID, f.ID.String(), entityTypeFlag, f.Name, f)
}

// GetFlag retrieves a Flag by ID.
func (r *Repo) GetFlag(ctx context.Context, id ids.FlagID) (domain.Flag, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Flag{}, err
	}
	return decodeAttrs[domain.Flag](e)
}

// ListFlags returns every Flag belonging to worldID, optionally scoped to a
// single PC (pass nil for world-scoped flags only).
func (r *Repo) ListFlags(ctx context.Context, worldID ids.WorldID, pcID *ids.PCID) ([]domain.Flag, error) {
	entities, err := r.list(ctx, worldID, entityTypeFlag)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Flag, 0)
	for i := range entities {
		f, err := decodeAttrs[domain.Flag](&entities[i])
		if err != nil {
			return nil, err
		}
		switch {
		case pcID == nil && f.PCID == nil:
			out = append(out, f)
		case pcID != nil && f.PCID != nil && *f.PCID == *pcID:
			out = append(out, f)
		}
	}
	return out, nil
}

// DeleteFlag removes a Flag by ID.
func (r *Repo) DeleteFlag(ctx context.Context, id ids.FlagID) error {
	return r.delete(ctx, id.String())
}
