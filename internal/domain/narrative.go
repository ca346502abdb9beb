package domain

import (
	"time"

	"github.com/duskward/loomkeeper/internal/ids"
)

// NarrativeEvent is a DM-authored trigger tied to a region, NPC, or flags.
type NarrativeEvent struct {
	ID          ids.NarrativeEventID
	WorldID     ids.WorldID
	Name        string
	Description string
	RegionID    *ids.RegionID
	CharacterID *ids.CharacterID
	Flags       []string
	IsActive    bool
}

// EventChain sequences NarrativeEvents with progress tracking.
type EventChain struct {
	ID        ids.EventChainID
	WorldID   ids.WorldID
	Name      string
	EventIDs  []ids.NarrativeEventID
	Completed map[ids.NarrativeEventID]bool
}

// Progress returns the number of completed events out of the total.
func (c EventChain) Progress() (done, total int) {
	total = len(c.EventIDs)
	for _, id := range c.EventIDs {
		if c.Completed[id] {
			done++
		}
	}
	return done, total
}

// StoryEvent is an immutable historical record of something that happened,
// linked to the location, scene, involved characters, originating
// narrative event, and recorded challenge.
type StoryEvent struct {
	ID               ids.StoryEventID
	WorldID          ids.WorldID
	Summary          string
	LocationID       ids.LocationID
	SceneID          *ids.SceneID
	CharacterIDs     []ids.CharacterID
	NarrativeEventID *ids.NarrativeEventID
	ChallengeID      *ids.ChallengeID
	OccurredAt       time.Time
}

// ObservationType classifies how a PC came to know about an NPC.
type ObservationType string

const (
	ObservationDirect     ObservationType = "direct"
	ObservationHeardAbout ObservationType = "heard_about"
	ObservationDeduced    ObservationType = "deduced"
)

// Observation is a (PlayerCharacter)-OBSERVED_NPC->(Character) edge. Upsert
// semantics apply: the most recent observation for a given (PC, NPC) pair
// wins.
type Observation struct {
	ID               ids.ObservationID
	WorldID          ids.WorldID
	PCID             ids.PCID
	CharacterID      ids.CharacterID
	LocationID       ids.LocationID
	RegionID         ids.RegionID
	GameTime         GameTime
	Type             ObservationType
	IsRevealedToPlayer bool
	Notes            string
	CreatedAt        time.Time
}

// ConnectionRole is a participant's role within a world connection.
type ConnectionRole string

const (
	RoleDM        ConnectionRole = "dm"
	RolePlayer    ConnectionRole = "player"
	RoleSpectator ConnectionRole = "spectator"
)

// Connection is a live participant binding, held only in memory by the
// connection manager — there is no persisted session, just the WebSocket.
type Connection struct {
	ID            ids.ConnectionID
	UserID        ids.UserID
	WorldID       ids.WorldID
	Role          ConnectionRole
	PCID          *ids.PCID
	SpectatePCID  *ids.PCID
	JoinedAt      time.Time
}
