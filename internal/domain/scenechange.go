package domain

import "github.com/duskward/loomkeeper/internal/ids"

// NpcPresence is one NPC's visible-to-players summary within a SceneChanged
// event.
type NpcPresence struct {
	CharacterID ids.CharacterID
	Name        string
	Sprite      string
	Portrait    string
}

// ConnectedRegionSummary describes one outgoing RegionConnection for
// navigation display.
type ConnectedRegionSummary struct {
	RegionID ids.RegionID
	Name     string
	IsLocked bool
	LockDesc string
}

// ExitSummary describes one outgoing RegionExit for navigation display.
type ExitSummary struct {
	LocationID      ids.LocationID
	LocationName    string
	ArrivalRegionID ids.RegionID
	Description     string
}

// RegionItemSummary describes an Item resting in a region.
type RegionItemSummary struct {
	ItemID      ids.ItemID
	Name        string
	Description string
	Quantity    int
}

// RegionSummary is the region half of a SceneChanged event. Backdrop
// resolves region override → location override → location default.
type RegionSummary struct {
	ID           ids.RegionID
	Name         string
	LocationID   ids.LocationID
	LocationName string
	Backdrop     string
	Atmosphere   string
	MapAsset     string
}

// Navigation bundles a region's outgoing RegionConnections and RegionExits
// for display in a SceneChanged event.
type Navigation struct {
	ConnectedRegions []ConnectedRegionSummary
	Exits            []ExitSummary
}

// SceneChanged is the pure-assembly output of.3.2, broadcast to
// every connection in the world when a PC's region resolves.
type SceneChanged struct {
	PCID         ids.PCID
	Region       RegionSummary
	NPCsPresent  []NpcPresence
	Navigation   Navigation
	RegionItems  []RegionItemSummary
	Scene        *Scene // the resolved directorial scene, if any
}
