package repo

import (
	"context"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// SaveLocationState upserts ls.
func (r *Repo) SaveLocationState(ctx context.Context, worldID ids.WorldID, ls domain.LocationState) error {
	return r.put(ctx, worldID, ls.ID.String(), entityTypeLocationState, ls.Name, ls)
}

// ListLocationStates returns every LocationState for locationID.
func (r *Repo) ListLocationStates(ctx context.Context, worldID ids.WorldID, locationID ids.LocationID) ([]domain.LocationState, error) {
	entities, err := r.list(ctx, worldID, entityTypeLocationState)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LocationState, 0)
	for i := range entities {
		ls, err := decodeAttrs[domain.LocationState](&entities[i])
		if err != nil {
			return nil, err
		}
		if ls.LocationID == locationID {
			out = append(out, ls)
		}
	}
	return out, nil
}

// SaveRegionState upserts rs.
func (r *Repo) SaveRegionState(ctx context.Context, worldID ids.WorldID, rs domain.RegionState) error {
	return r.put(ctx, worldID, rs.ID.String(), entityTypeRegionState, rs.Name, rs)
}

// ListRegionStates returns every RegionState for regionID.
func (r *Repo) ListRegionStates(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) ([]domain.RegionState, error) {
	entities, err := r.list(ctx, worldID, entityTypeRegionState)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RegionState, 0)
	for i := range entities {
		rs, err := decodeAttrs[domain.RegionState](&entities[i])
		if err != nil {
			return nil, err
		}
		if rs.RegionID == regionID {
			out = append(out, rs)
		}
	}
	return out, nil
}
