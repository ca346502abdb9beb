package repo

import (
	"context"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// SaveScene upserts sc.
func (r *Repo) SaveScene(ctx context.Context, sc domain.Scene) error {
	return r.put(ctx, sc.WorldID, sc.ID.String(), entityTypeScene, sc.Name, sc)
}

// GetScene retrieves a Scene by ID.
func (r *Repo) GetScene(ctx context.Context, id ids.SceneID) (domain.Scene, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Scene{}, err
	}
	return decodeAttrs[domain.Scene](e)
}

// ListScenesByRegion returns every Scene hosted in regionID.
func (r *Repo) ListScenesByRegion(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) ([]domain.Scene, error) {
	entities, err := r.list(ctx, worldID, entityTypeScene)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Scene, 0)
	for i := range entities {
		sc, err := decodeAttrs[domain.Scene](&entities[i])
		if err != nil {
			return nil, err
		}
		if sc.RegionID == regionID {
			out = append(out, sc)
		}
	}
	return out, nil
}

// DeleteScene removes a Scene by ID.
func (r *Repo) DeleteScene(ctx context.Context, id ids.SceneID) error {
	return r.delete(ctx, id.String())
}

// SaveChallenge upserts c.
func (r *Repo) SaveChallenge(ctx context.Context, c domain.Challenge) error {
	return r.put(ctx, c.WorldID, c.ID.String(), entityTypeChallenge, c.Name, c)
}

// GetChallenge retrieves a Challenge by ID.
func (r *Repo) GetChallenge(ctx context.Context, id ids.ChallengeID) (domain.Challenge, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Challenge{}, err
	}
	return decodeAttrs[domain.Challenge](e)
}

// DeleteChallenge removes a Challenge by ID.
func (r *Repo) DeleteChallenge(ctx context.Context, id ids.ChallengeID) error {
	return r.delete(ctx, id.String())
}
