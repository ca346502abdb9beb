package repo

import (
	"context"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// SaveWorld upserts w.
func (r *Repo) SaveWorld(ctx context.Context, w domain.World) error {
	return r.put(ctx, w.ID, w.ID.String(), entityTypeWorld, w.Name, w)
}

// GetWorld retrieves a World by ID.
func (r *Repo) GetWorld(ctx context.Context, id ids.WorldID) (domain.World, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.World{}, err
	}
	return decodeAttrs[domain.World](e)
}

// DeleteLocation removes a Location by ID.

// SaveLocation upserts l.
func (r *Repo) SaveLocation(ctx context.Context, l domain.Location) error {
	return r.put(ctx, l.WorldID, l.ID.String(), entityTypeLocation, l.Name, l)
}

// GetLocation retrieves a Location by ID.
func (r *Repo) GetLocation(ctx context.Context, id ids.LocationID) (domain.Location, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Location{}, err
	}
	return decodeAttrs[domain.Location](e)
}

// ListLocations returns every Location belonging to worldID.
func (r *Repo) ListLocations(ctx context.Context, worldID ids.WorldID) ([]domain.Location, error) {
	entities, err := r.list(ctx, worldID, entityTypeLocation)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Location, 0, len(entities))
	for i := range entities {
		loc, err := decodeAttrs[domain.Location](&entities[i])
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, nil
}

// DeleteLocation removes a Location by ID.
func (r *Repo) DeleteLocation(ctx context.Context, id ids.LocationID) error {
	return r.delete(ctx, id.String())
}

// SaveRegion upserts rg.
func (r *Repo) SaveRegion(ctx context.Context, rg domain.Region) error {
	return r.put(ctx, rg.WorldID, rg.ID.String(), entityTypeRegion, rg.Name, rg)
}

// GetRegion retrieves a Region by ID.
func (r *Repo) GetRegion(ctx context.Context, id ids.RegionID) (domain.Region, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Region{}, err
	}
	return decodeAttrs[domain.Region](e)
}

// ListRegionsByLocation returns every Region belonging to locationID.
func (r *Repo) ListRegionsByLocation(ctx context.Context, worldID ids.WorldID, locationID ids.LocationID) ([]domain.Region, error) {
	entities, err := r.list(ctx, worldID, entityTypeRegion)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Region, 0)
	for i := range entities {
		rg, err := decodeAttrs[domain.Region](&entities[i])
		if err != nil {
			return nil, err
		}
		if rg.LocationID == locationID {
			out = append(out, rg)
		}
	}
	return out, nil
}

// DeleteRegion removes a Region by ID.
func (r *Repo) DeleteRegion(ctx context.Context, id ids.RegionID) error {
	return r.delete(ctx, id.String())
}
