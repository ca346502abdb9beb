package wsapi

import (
	"context"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/eventbus"
	"github.com/duskward/loomkeeper/internal/usecase"
)

// handlePreStageRegion implements PreStageRegion. The resulting staging is
// broadcast to the world by the eventbus.StagingApproved subscriber in
// events.go, since PreStage internally reuses Approve.
func (s *Server) handlePreStageRegion(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[preStageRegionMsg](s, c, data)
	if !ok {
		return
	}
	regionID, err := parseRegionID(m.RegionID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid region_id")
		return
	}
	locationID, err := parseLocationID(m.LocationID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid location_id")
		return
	}
	if _, err := s.UC.PreStageRegion(ctx, c.WorldID, regionID, locationID, c.UserID, "", m.NPCs, m.TTLHours); err != nil {
		s.Manager.sendError(c, ErrStaging, err.Error())
	}
}

// handleStagingApprovalResponse implements StagingApprovalResponse: the
// DM's decision on a pending proposal's merged NPC set.
func (s *Server) handleStagingApprovalResponse(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[stagingApprovalResponseMsg](s, c, data)
	if !ok {
		return
	}
	s.pendingMu.Lock()
	req, found := s.pendingStaging[m.RequestID]
	if found {
		delete(s.pendingStaging, m.RequestID)
	}
	s.pendingMu.Unlock()
	if !found {
		s.Manager.sendError(c, ErrNotFound, "unknown request_id")
		return
	}

	source := domain.StagingSource(m.Source)
	switch source {
	case domain.StagingRuleBased, domain.StagingLLMBased, domain.StagingDMManual:
	default:
		source = domain.StagingDMManual
	}

	if _, err := s.UC.ApproveStaging(ctx, req.WorldID, req.RegionID, req.LocationID, c.UserID, source, m.DMGuidance, m.ApprovedNPCs, m.TTLHours); err != nil {
		s.Manager.sendError(c, ErrStaging, err.Error())
	}
}

// handleStagingRegenerate implements StagingRegenerateRequest: re-runs the
// LLM half with fresh guidance and re-announces the proposal under a new
// request_id.
func (s *Server) handleStagingRegenerate(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[stagingRegenerateMsg](s, c, data)
	if !ok {
		return
	}
	s.pendingMu.Lock()
	req, found := s.pendingStaging[m.RequestID]
	s.pendingMu.Unlock()
	if !found {
		s.Manager.sendError(c, ErrNotFound, "unknown request_id")
		return
	}
	region, err := s.UC.Repo.GetRegion(ctx, req.RegionID)
	if err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	location, err := s.UC.Repo.GetLocation(ctx, req.LocationID)
	if err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	proposal, err := s.UC.Staging.Regenerate(ctx, req.WorldID, req.RegionID, region.Name, location.Name, m.Guidance)
	if err != nil {
		s.Manager.sendError(c, ErrStaging, err.Error())
		return
	}
	s.UC.Bus.Publish(ctx, eventbus.StagingApprovalRequired, usecase.StagingApprovalRequiredEvent{WorldID: req.WorldID, Proposal: proposal})
}
