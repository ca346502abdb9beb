// Package ids defines strongly-typed identifiers for every entity kind in
// the session coordinator. Each type wraps a [uuid.UUID]; the Go compiler
// rejects mixing, say, a CharacterID where a PCID is expected, which pays
// for itself the moment a use case takes four different kinds of ID.
package ids

import "github.com/google/uuid"

// WorldID identifies a World.
type WorldID uuid.UUID

// LocationID identifies a Location.
type LocationID uuid.UUID

// RegionID identifies a Region.
type RegionID uuid.UUID

// CharacterID identifies an NPC (Character).
type CharacterID uuid.UUID

// PCID identifies a PlayerCharacter.
type PCID uuid.UUID

// ItemID identifies an Item.
type ItemID uuid.UUID

// SceneID identifies a Scene.
type SceneID uuid.UUID

// ActID identifies an Act.
type ActID uuid.UUID

// ChallengeID identifies a Challenge.
type ChallengeID uuid.UUID

// LoreID identifies a Lore entry.
type LoreID uuid.UUID

// FlagID identifies a Flag.
type FlagID uuid.UUID

// StagingID identifies a Staging record.
type StagingID uuid.UUID

// LocationStateID identifies a LocationState.
type LocationStateID uuid.UUID

// RegionStateID identifies a RegionState.
type RegionStateID uuid.UUID

// NarrativeEventID identifies a NarrativeEvent.
type NarrativeEventID uuid.UUID

// EventChainID identifies an EventChain.
type EventChainID uuid.UUID

// StoryEventID identifies a StoryEvent.
type StoryEventID uuid.UUID

// ObservationID identifies an Observation edge.
type ObservationID uuid.UUID

// QueueItemID identifies a queue item.
type QueueItemID uuid.UUID

// ConnectionID identifies a live WebSocket connection.
type ConnectionID uuid.UUID

// UserID identifies an authenticated user (owned by the external auth layer).
type UserID uuid.UUID

// SuggestionID identifies a pending time suggestion.
type SuggestionID uuid.UUID

// AssetID identifies a generated asset.
type AssetID uuid.UUID

// ConversationID identifies one player/NPC conversation thread.
type ConversationID uuid.UUID

func newID[T ~[16]byte]() T { return T(uuid.New()) }

// NewWorldID generates a fresh WorldID.
func NewWorldID() WorldID { return newID[WorldID]() }

// NewLocationID generates a fresh LocationID.
func NewLocationID() LocationID { return newID[LocationID]() }

// NewRegionID generates a fresh RegionID.
func NewRegionID() RegionID { return newID[RegionID]() }

// NewCharacterID generates a fresh CharacterID.
func NewCharacterID() CharacterID { return newID[CharacterID]() }

// NewPCID generates a fresh PCID.
func NewPCID() PCID { return newID[PCID]() }

// NewItemID generates a fresh ItemID.
func NewItemID() ItemID { return newID[ItemID]() }

// NewSceneID generates a fresh SceneID.
func NewSceneID() SceneID { return newID[SceneID]() }

// NewActID generates a fresh ActID.
func NewActID() ActID { return newID[ActID]() }

// NewChallengeID generates a fresh ChallengeID.
func NewChallengeID() ChallengeID { return newID[ChallengeID]() }

// NewLoreID generates a fresh LoreID.
func NewLoreID() LoreID { return newID[LoreID]() }

// NewFlagID generates a fresh FlagID.
func NewFlagID() FlagID { return newID[FlagID]() }

// NewStagingID generates a fresh StagingID.
func NewStagingID() StagingID { return newID[StagingID]() }

// NewLocationStateID generates a fresh LocationStateID.
func NewLocationStateID() LocationStateID { return newID[LocationStateID]() }

// NewRegionStateID generates a fresh RegionStateID.
func NewRegionStateID() RegionStateID { return newID[RegionStateID]() }

// NewNarrativeEventID generates a fresh NarrativeEventID.
func NewNarrativeEventID() NarrativeEventID { return newID[NarrativeEventID]() }

// NewEventChainID generates a fresh EventChainID.
func NewEventChainID() EventChainID { return newID[EventChainID]() }

// NewStoryEventID generates a fresh StoryEventID.
func NewStoryEventID() StoryEventID { return newID[StoryEventID]() }

// NewObservationID generates a fresh ObservationID.
func NewObservationID() ObservationID { return newID[ObservationID]() }

// NewQueueItemID generates a fresh QueueItemID.
func NewQueueItemID() QueueItemID { return newID[QueueItemID]() }

// NewConnectionID generates a fresh ConnectionID.
func NewConnectionID() ConnectionID { return newID[ConnectionID]() }

// NewSuggestionID generates a fresh SuggestionID.
func NewSuggestionID() SuggestionID { return newID[SuggestionID]() }

// NewAssetID generates a fresh AssetID.
func NewAssetID() AssetID { return newID[AssetID]() }

// NewConversationID generates a fresh ConversationID.
func NewConversationID() ConversationID { return newID[ConversationID]() }

// String methods — every typed ID renders as its canonical UUID string.

func (id WorldID) String() string           { return uuid.UUID(id).String() }
func (id LocationID) String() string        { return uuid.UUID(id).String() }
func (id RegionID) String() string          { return uuid.UUID(id).String() }
func (id CharacterID) String() string       { return uuid.UUID(id).String() }
func (id PCID) String() string              { return uuid.UUID(id).String() }
func (id ItemID) String() string            { return uuid.UUID(id).String() }
func (id SceneID) String() string           { return uuid.UUID(id).String() }
func (id ActID) String() string             { return uuid.UUID(id).String() }
func (id ChallengeID) String() string       { return uuid.UUID(id).String() }
func (id LoreID) String() string            { return uuid.UUID(id).String() }
func (id FlagID) String() string            { return uuid.UUID(id).String() }
func (id StagingID) String() string         { return uuid.UUID(id).String() }
func (id LocationStateID) String() string   { return uuid.UUID(id).String() }
func (id RegionStateID) String() string     { return uuid.UUID(id).String() }
func (id NarrativeEventID) String() string  { return uuid.UUID(id).String() }
func (id EventChainID) String() string      { return uuid.UUID(id).String() }
func (id StoryEventID) String() string      { return uuid.UUID(id).String() }
func (id ObservationID) String() string     { return uuid.UUID(id).String() }
func (id QueueItemID) String() string       { return uuid.UUID(id).String() }
func (id ConnectionID) String() string      { return uuid.UUID(id).String() }
func (id UserID) String() string            { return uuid.UUID(id).String() }
func (id SuggestionID) String() string      { return uuid.UUID(id).String() }
func (id AssetID) String() string           { return uuid.UUID(id).String() }
func (id ConversationID) String() string    { return uuid.UUID(id).String() }

// ParseWorldID parses s as a WorldID.
func ParseWorldID(s string) (WorldID, error) {
	u, err := uuid.Parse(s)
	return WorldID(u), err
}

// ParseLocationID parses s as a LocationID.
func ParseLocationID(s string) (LocationID, error) {
	u, err := uuid.Parse(s)
	return LocationID(u), err
}

// ParseRegionID parses s as a RegionID.
func ParseRegionID(s string) (RegionID, error) {
	u, err := uuid.Parse(s)
	return RegionID(u), err
}

// ParseCharacterID parses s as a CharacterID.
func ParseCharacterID(s string) (CharacterID, error) {
	u, err := uuid.Parse(s)
	return CharacterID(u), err
}

// ParsePCID parses s as a PCID.
func ParsePCID(s string) (PCID, error) {
	u, err := uuid.Parse(s)
	return PCID(u), err
}

// ParseUserID parses s as a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	return UserID(u), err
}

// ParseChallengeID parses s as a ChallengeID.
func ParseChallengeID(s string) (ChallengeID, error) {
	u, err := uuid.Parse(s)
	return ChallengeID(u), err
}

// ParseItemID parses s as an ItemID.
func ParseItemID(s string) (ItemID, error) {
	u, err := uuid.Parse(s)
	return ItemID(u), err
}

// ParseConversationID parses s as a ConversationID.
func ParseConversationID(s string) (ConversationID, error) {
	u, err := uuid.Parse(s)
	return ConversationID(u), err
}

// ParseSuggestionID parses s as a SuggestionID.
func ParseSuggestionID(s string) (SuggestionID, error) {
	u, err := uuid.Parse(s)
	return SuggestionID(u), err
}
