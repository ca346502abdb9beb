package wsapi

import (
	"context"
)

// handleEquipItem and handleUnequipItem implement EquipItem/UnequipItem.
// PlayerCharacter carries only a flat Inventory []ItemID with no
// equipped-slot concept (see DESIGN.md), so these validate ownership and
// rebroadcast the client's intent for display purposes; they do not mutate
// any repo state.
func (s *Server) handleEquipItem(ctx context.Context, c *Connection, data []byte, equip bool) {
	if !s.requireWorld(c) {
		return
	}
	m, ok := unmarshalOrErr[equipItemMsg](s, c, data)
	if !ok {
		return
	}
	pcID, err := parsePCID(m.PCID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid pc_id")
		return
	}
	itemID, err := parseItemID(m.ItemID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid item_id")
		return
	}
	pc, err := s.UC.Repo.GetPC(ctx, pcID)
	if err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	owned := false
	for _, id := range pc.Inventory {
		if id == itemID {
			owned = true
			break
		}
	}
	if !owned {
		s.Manager.sendError(c, ErrInvalidTarget, "pc does not carry that item")
		return
	}
	evt := evtItemUnequipped
	if equip {
		evt = evtItemEquipped
	}
	s.Manager.broadcastPC(c.WorldID, pcID, evt, struct {
		PCID   string `json:"pc_id"`
		ItemID string `json:"item_id"`
	}{m.PCID, m.ItemID})
}

// handleDropItem implements DropItem: moves an item from a PC's inventory
// to rest in the PC's current region.
func (s *Server) handleDropItem(ctx context.Context, c *Connection, data []byte) {
	if !s.requireWorld(c) {
		return
	}
	m, ok := unmarshalOrErr[dropItemMsg](s, c, data)
	if !ok {
		return
	}
	pcID, err := parsePCID(m.PCID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid pc_id")
		return
	}
	itemID, err := parseItemID(m.ItemID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid item_id")
		return
	}
	pc, err := s.UC.Repo.GetPC(ctx, pcID)
	if err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	if pc.CurrentRegionID == nil {
		s.Manager.sendError(c, ErrInvalidTarget, "pc is not in a region")
		return
	}
	idx := -1
	for i, id := range pc.Inventory {
		if id == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.Manager.sendError(c, ErrInvalidTarget, "pc does not carry that item")
		return
	}
	item, err := s.UC.Repo.GetItem(ctx, itemID)
	if err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	pc.Inventory = append(pc.Inventory[:idx], pc.Inventory[idx+1:]...)
	item.RegionID = pc.CurrentRegionID
	if err := s.UC.Repo.SavePC(ctx, pc); err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	if err := s.UC.Repo.SaveItem(ctx, item); err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	s.Manager.broadcastWorld(c.WorldID, evtItemDropped, struct {
		PCID     string `json:"pc_id"`
		ItemID   string `json:"item_id"`
		RegionID string `json:"region_id"`
	}{m.PCID, m.ItemID, pc.CurrentRegionID.String()})
}

// handlePickupItem implements PickupItem: the inverse of DropItem, moving
// an item from a region into a PC's inventory.
func (s *Server) handlePickupItem(ctx context.Context, c *Connection, data []byte) {
	if !s.requireWorld(c) {
		return
	}
	m, ok := unmarshalOrErr[pickupItemMsg](s, c, data)
	if !ok {
		return
	}
	pcID, err := parsePCID(m.PCID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid pc_id")
		return
	}
	itemID, err := parseItemID(m.ItemID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid item_id")
		return
	}
	pc, err := s.UC.Repo.GetPC(ctx, pcID)
	if err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	item, err := s.UC.Repo.GetItem(ctx, itemID)
	if err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	if item.RegionID == nil || pc.CurrentRegionID == nil || *item.RegionID != *pc.CurrentRegionID {
		s.Manager.sendError(c, ErrInvalidTarget, "item is not in pc's current region")
		return
	}
	item.RegionID = nil
	pc.Inventory = append(pc.Inventory, itemID)
	if err := s.UC.Repo.SaveItem(ctx, item); err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	if err := s.UC.Repo.SavePC(ctx, pc); err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	s.Manager.broadcastWorld(c.WorldID, evtItemPickedUp, struct {
		PCID   string `json:"pc_id"`
		ItemID string `json:"item_id"`
	}{m.PCID, m.ItemID})
}
