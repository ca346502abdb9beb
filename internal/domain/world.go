// Package domain defines the core aggregate types of the session
// coordinator: worlds, locations and regions, characters and player
// characters, staging, visual state, scenes, challenges, narrative and story
// events, observations, and the game-time model. These are plain data types;
// invariants are enforced by the services in internal/staging,
// internal/scene, internal/visualstate, and internal/timeservice, not by the
// types themselves.
package domain

import (
	"time"

	"github.com/duskward/loomkeeper/internal/ids"
)

// World is the root aggregate. Every other entity belongs to exactly one
// world; deleting a world cascades across every entity that carries its
// WorldID.
type World struct {
	ID          ids.WorldID
	Name        string
	Description string
	RuleSystem  string
	GameTime    GameTime
	TimeConfig  TimeConfig
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Location is a named place (a city, a dungeon) containing one or more
// Regions.
type Location struct {
	ID              ids.LocationID
	WorldID         ids.WorldID
	Name            string
	Description     string
	DefaultRegionID ids.RegionID // the spawn-point region
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Region is a sub-area ("screen") inside a Location.
type Region struct {
	ID          ids.RegionID
	LocationID  ids.LocationID
	WorldID     ids.WorldID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RegionConnection is a bidirectional navigation edge between two regions of
// the same location.
type RegionConnection struct {
	RegionID     ids.RegionID
	ToRegionID   ids.RegionID
	IsLocked     bool
	LockDesc     string
	Bidirectional bool
}

// RegionExit is a navigation edge from a region to a different location,
// carrying the region the PC arrives in on the far side.
type RegionExit struct {
	RegionID         ids.RegionID
	ToLocationID     ids.LocationID
	ArrivalRegionID  ids.RegionID
	Description      string
}

// Item is a physical object or artifact, ownable by a PC or placed in a
// region.
type Item struct {
	ID          ids.ItemID
	WorldID     ids.WorldID
	Name        string
	Description string
	RegionID    *ids.RegionID // non-nil when resting in a region rather than carried
	Quantity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Lore is a lore, historical, or journal entry.
type Lore struct {
	ID          ids.LoreID
	WorldID     ids.WorldID
	Name        string
	Content     string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Flag is a world-scoped or PC-scoped named boolean used by condition
// evaluation.
type Flag struct {
	ID      ids.FlagID
	WorldID ids.WorldID
	PCID    *ids.PCID // nil for a world-scoped flag
	Name    string
	Value   bool
}
