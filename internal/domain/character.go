package domain

import (
	"time"

	"github.com/duskward/loomkeeper/internal/ids"
)

// RegionFrequency classifies how strongly an NPC is tied to a region for the
// rule-based half of staging proposal generation.
type RegionFrequency string

const (
	// FrequencyHome marks the NPC's primary residence.
	FrequencyHome RegionFrequency = "home"
	// FrequencyWork marks where the NPC is found during working hours.
	FrequencyWork RegionFrequency = "work"
	// FrequencyFrequents marks a region the NPC visits often but does not own.
	FrequencyFrequents RegionFrequency = "frequents"
)

// RegionRelationship ties a Character to a Region with a frequency
// classification, read by the staging subsystem's rule-based proposal half.
type RegionRelationship struct {
	CharacterID ids.CharacterID
	RegionID    ids.RegionID
	Frequency   RegionFrequency
}

// Character is an NPC belonging to a world.
type Character struct {
	ID              ids.CharacterID
	WorldID         ids.WorldID
	Name            string
	Archetype       string
	Stats           map[string]int
	DefaultMood     string
	SpriteAsset     string
	PortraitAsset   string
	IsAlive         bool
	IsActive        bool
	RelationshipPts map[ids.PCID]int // disposition, source of truth (see DESIGN.md)
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DispositionLevel returns the categorical disposition label for pcID,
// derived from RelationshipPts via thresholds. Thresholds must be supplied
// sorted ascending by MinPoints; the highest threshold whose MinPoints the
// character's points meet or exceed wins. Returns the empty string if
// thresholds is empty.
func (c Character) DispositionLevel(pcID ids.PCID, thresholds []DispositionThreshold) string {
	if len(thresholds) == 0 {
		return ""
	}
	pts := c.RelationshipPts[pcID]
	level := thresholds[0].Level
	for _, th := range thresholds {
		if pts >= th.MinPoints {
			level = th.Level
		}
	}
	return level
}

// DispositionThreshold maps a minimum point value to a categorical level
// label (e.g. -100 → "hostile", 0 → "neutral", 50 → "friendly").
type DispositionThreshold struct {
	MinPoints int
	Level     string
}

// PlayerCharacter is a user-bound character.
type PlayerCharacter struct {
	ID                ids.PCID
	UserID            ids.UserID
	WorldID           ids.WorldID
	Name              string
	CurrentLocationID ids.LocationID
	CurrentRegionID   *ids.RegionID
	Inventory         []ids.ItemID
	SheetData         map[string]any
	IsAlive           bool
	IsActive          bool
	LastActiveAt      time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ErrInvalidPCLocation is returned when a PC's CurrentRegionID does not
// belong to CurrentLocationID.
var ErrInvalidPCLocation = pcLocationError("current region does not belong to current location")

type pcLocationError string

func (e pcLocationError) Error() string { return string(e) }
