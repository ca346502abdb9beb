package wsapi

import (
	"context"

	"github.com/duskward/loomkeeper/internal/ids"
)

// handleMoveToRegion implements MoveToRegion. The resulting SceneChanged
// (or StagingPending) broadcast is delivered by the eventbus subscriber in
// events.go, published from inside EnterRegion itself; this handler only
// reports a failure back to the sender.
func (s *Server) handleMoveToRegion(ctx context.Context, c *Connection, data []byte) {
	if !s.requireWorld(c) {
		return
	}
	m, ok := unmarshalOrErr[moveToRegionMsg](s, c, data)
	if !ok {
		return
	}
	pcID, err := parsePCID(m.PCID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid pc_id")
		return
	}
	regionID, err := parseRegionID(m.RegionID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid region_id")
		return
	}
	if _, err := s.UC.EnterRegion(ctx, c.WorldID, pcID, regionID); err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	s.maybeSuggestTime(ctx, c.WorldID, pcID, "move", regionID.String())
}

// handleExitToLocation implements ExitToLocation.
func (s *Server) handleExitToLocation(ctx context.Context, c *Connection, data []byte) {
	if !s.requireWorld(c) {
		return
	}
	m, ok := unmarshalOrErr[exitToLocationMsg](s, c, data)
	if !ok {
		return
	}
	pcID, err := parsePCID(m.PCID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid pc_id")
		return
	}
	locationID, err := parseLocationID(m.LocationID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid location_id")
		return
	}
	var arrival *ids.RegionID
	if m.ArrivalRegionID != nil {
		id, err := parseRegionID(*m.ArrivalRegionID)
		if err != nil {
			s.Manager.sendError(c, ErrInvalidID, "invalid arrival_region_id")
			return
		}
		arrival = &id
	}
	if _, err := s.UC.ExitLocation(ctx, c.WorldID, pcID, locationID, arrival); err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	s.maybeSuggestTime(ctx, c.WorldID, pcID, "exit", locationID.String())
}

// handlePerformInteraction implements PerformInteraction: a lightweight
// "interact" action enqueued on the player-action queue without a
// conversation thread. No narration is generated for it.
func (s *Server) handlePerformInteraction(ctx context.Context, c *Connection, data []byte) {
	if !s.requireWorld(c) {
		return
	}
	m, ok := unmarshalOrErr[performInteractionMsg](s, c, data)
	if !ok {
		return
	}
	if c.PCID == nil {
		s.Manager.sendError(c, ErrNoPC, "connection has no bound pc")
		return
	}
	if err := s.UC.PerformInteraction(ctx, c.WorldID, *c.PCID, m.InteractionID); err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
	}
}
