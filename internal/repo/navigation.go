package repo

import (
	"context"
	"time"

	"github.com/duskward/loomkeeper/internal/domain"
	graphstore "github.com/duskward/loomkeeper/internal/graphstore"
	"github.com/duskward/loomkeeper/internal/ids"
)

const (
	relTypeConnection = "region_connection"
	relTypeExit       = "region_exit"
)

// SaveRegionConnection records a navigable edge between two regions of the
// same location as a graph relationship.
func (r *Repo) SaveRegionConnection(ctx context.Context, c domain.RegionConnection) error {
	return r.graph.AddRelationship(ctx, graphstore.Relationship{
		SourceID: c.RegionID.String(),
		TargetID: c.ToRegionID.String(),
		RelType:  relTypeConnection,
		Attributes: map[string]any{
			"is_locked":     c.IsLocked,
			"lock_desc":     c.LockDesc,
			"bidirectional": c.Bidirectional,
		},
		CreatedAt: time.Now(),
	})
}

// ConnectionsFrom returns every RegionConnection originating at regionID.
func (r *Repo) ConnectionsFrom(ctx context.Context, regionID ids.RegionID) ([]domain.RegionConnection, error) {
	rels, err := r.graph.GetRelationships(ctx, regionID.String())
	if err != nil {
		return nil, err
	}
	out := make([]domain.RegionConnection, 0, len(rels))
	for _, rel := range rels {
		if rel.RelType != relTypeConnection || rel.SourceID != regionID.String() {
			continue
		}
		toRegion, err := ids.ParseRegionID(rel.TargetID)
		if err != nil {
			continue
		}
		out = append(out, domain.RegionConnection{
			RegionID:      regionID,
			ToRegionID:    toRegion,
			IsLocked:      boolAttr(rel.Attributes, "is_locked"),
			LockDesc:      stringAttr(rel.Attributes, "lock_desc"),
			Bidirectional: boolAttr(rel.Attributes, "bidirectional"),
		})
	}
	return out, nil
}

// SaveRegionExit records a navigable edge from a region to a different
// location as a graph relationship.
func (r *Repo) SaveRegionExit(ctx context.Context, e domain.RegionExit) error {
	return r.graph.AddRelationship(ctx, graphstore.Relationship{
		SourceID: e.RegionID.String(),
		TargetID: e.ToLocationID.String(),
		RelType:  relTypeExit,
		Attributes: map[string]any{
			"arrival_region_id": e.ArrivalRegionID.String(),
			"description":       e.Description,
		},
		CreatedAt: time.Now(),
	})
}

// ExitsFrom returns every RegionExit originating at regionID.
func (r *Repo) ExitsFrom(ctx context.Context, regionID ids.RegionID) ([]domain.RegionExit, error) {
	rels, err := r.graph.GetRelationships(ctx, regionID.String())
	if err != nil {
		return nil, err
	}
	out := make([]domain.RegionExit, 0, len(rels))
	for _, rel := range rels {
		if rel.RelType != relTypeExit || rel.SourceID != regionID.String() {
			continue
		}
		toLocation, err := ids.ParseLocationID(rel.TargetID)
		if err != nil {
			continue
		}
		arrival, err := ids.ParseRegionID(stringAttr(rel.Attributes, "arrival_region_id"))
		if err != nil {
			continue
		}
		out = append(out, domain.RegionExit{
			RegionID:        regionID,
			ToLocationID:    toLocation,
			ArrivalRegionID: arrival,
			Description:     stringAttr(rel.Attributes, "description"),
		})
	}
	return out, nil
}

func boolAttr(attrs map[string]any, key string) bool {
	v, _ := attrs[key].(bool)
	return v
}

func stringAttr(attrs map[string]any, key string) string {
	v, _ := attrs[key].(string)
	return v
}
