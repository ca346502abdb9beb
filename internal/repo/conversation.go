package repo

import (
	"context"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// SaveConversation upserts c.
func (r *Repo) SaveConversation(ctx context.Context, c domain.Conversation) error {
	return r.put(ctx, c.WorldID, c.ID.String(), entityTypeConversation, "conversation", c)
}

// GetConversation retrieves a Conversation by ID.
func (r *Repo) GetConversation(ctx context.Context, id ids.ConversationID) (domain.Conversation, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Conversation{}, err
	}
	return decodeAttrs[domain.Conversation](e)
}

// SaveAsset upserts a.
func (r *Repo) SaveAsset(ctx context.Context, a domain.Asset) error {
	return r.put(ctx, a.WorldID, a.ID.String(), entityTypeAsset, a.EntityID, a)
}

// GetAsset retrieves an Asset by ID.
func (r *Repo) GetAsset(ctx context.Context, id ids.AssetID) (domain.Asset, error) {
	e, err := r.get(ctx, id.String())
	if err != nil {
		return domain.Asset{}, err
	}
	return decodeAttrs[domain.Asset](e)
}

// ListAssetsByEntity returns every Asset generated for entityID.
func (r *Repo) ListAssetsByEntity(ctx context.Context, worldID ids.WorldID, entityID string) ([]domain.Asset, error) {
	entities, err := r.list(ctx, worldID, entityTypeAsset)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Asset, 0)
	for i := range entities {
		a, err := decodeAttrs[domain.Asset](&entities[i])
		if err != nil {
			return nil, err
		}
		if a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}
