package domain

import (
	"time"

	"github.com/duskward/loomkeeper/internal/ids"
)

// Conversation binds a conversation_id to the PC/NPC pair it threads
// dialogue between, so ContinueConversation can scope history fetches
// without the caller re-supplying both IDs.
type Conversation struct {
	ID           ids.ConversationID
	WorldID      ids.WorldID
	PCID         ids.PCID
	CharacterID  ids.CharacterID
	StartedAt    time.Time
	LastActiveAt time.Time
}

// AssetKind discriminates a generated Asset's purpose.
type AssetKind string

const (
	AssetSprite   AssetKind = "sprite"
	AssetPortrait AssetKind = "portrait"
	AssetBackdrop AssetKind = "backdrop"
)

// Asset is a generated image persisted after an asset-generation queue item
// completes successfully.
type Asset struct {
	ID         ids.AssetID
	WorldID    ids.WorldID
	EntityID   string // the character/region/location ID this asset belongs to
	Kind       AssetKind
	URL        string
	Prompt     string
	Workflow   string
	CreatedAt  time.Time
}
