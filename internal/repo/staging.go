package repo

import (
	"context"
	"time"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// SaveStaging upserts s. If s.IsActive is true, any other active staging
// for the same region is demoted first: at most one staging record per
// region is ever active at a time.
func (r *Repo) SaveStaging(ctx context.Context, s domain.Staging) error {
	if s.IsActive {
		existing, err := r.list(ctx, s.WorldID, entityTypeStaging)
		if err != nil {
			return err
		}
		for i := range existing {
			other, err := decodeAttrs[domain.Staging](&existing[i])
			if err != nil {
				return err
			}
			if other.RegionID == s.RegionID && other.ID != s.ID && other.IsActive {
				other.IsActive = false
				if err := r.put(ctx, other.WorldID, other.ID.String(), entityTypeStaging, "staging", other); err != nil {
					return err
				}
			}
		}
	}
	return r.put(ctx, s.WorldID, s.ID.String(), entityTypeStaging, "staging", s)
}

// GetStaging retrieves a Staging record by ID.
func (r *Repo) GetStaging(ctx context.Context, id ids.StagingID) (domain.Staging, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Staging{}, err
	}
	return decodeAttrs[domain.Staging](e)
}

// GetActiveStaging returns the active, unexpired staging for regionID, or
// (nil, nil) if none exists.
func (r *Repo) GetActiveStaging(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID, now time.Time) (*domain.Staging, error) {
	entities, err := r.list(ctx, worldID, entityTypeStaging)
	if err != nil {
		return nil, err
	}
	for i := range entities {
		s, err := decodeAttrs[domain.Staging](&entities[i])
		if err != nil {
			return nil, err
		}
		if s.RegionID == regionID && s.IsValid(now) {
			return &s, nil
		}
	}
	return nil, nil
}

// GetLastStaging returns the most recently approved staging for regionID
// regardless of expiry, or (nil, nil) if none has ever been recorded.
func (r *Repo) GetLastStaging(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) (*domain.Staging, error) {
	entities, err := r.list(ctx, worldID, entityTypeStaging)
	if err != nil {
		return nil, err
	}
	var latest *domain.Staging
	for i := range entities {
		s, err := decodeAttrs[domain.Staging](&entities[i])
		if err != nil {
			return nil, err
		}
		if s.RegionID != regionID {
			continue
		}
		if latest == nil || s.ApprovedAt.After(latest.ApprovedAt) {
			sCopy := s
			latest = &sCopy
		}
	}
	return latest, nil
}
