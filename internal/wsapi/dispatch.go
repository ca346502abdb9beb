package wsapi

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/eventbus"
	"github.com/duskward/loomkeeper/internal/ids"
	"github.com/duskward/loomkeeper/internal/timeservice"
	"github.com/duskward/loomkeeper/internal/usecase"
)

// dispatch decodes env.Data into the payload matching env.Type and calls the
// appropriate handler. Unknown message types and malformed payloads are
// reported back to the sender as an "error" envelope rather than dropped
// silently.
func (s *Server) dispatch(ctx context.Context, c *Connection, env envelope) {
	switch env.Type {
	case msgJoinWorld:
		s.handleJoinWorld(c, env.Data)
	case msgLeaveWorld:
		s.handleLeaveWorld(c)
	case msgMoveToRegion:
		s.handleMoveToRegion(ctx, c, env.Data)
	case msgExitToLocation:
		s.handleExitToLocation(ctx, c, env.Data)
	case msgStartConversation:
		s.handleStartConversation(ctx, c, env.Data)
	case msgContinueConversation:
		s.handleContinueConversation(ctx, c, env.Data)
	case msgPerformInteraction:
		s.handlePerformInteraction(ctx, c, env.Data)
	case msgApprovalDecision:
		s.handleApprovalDecision(ctx, c, env.Data)
	case msgDirectorialUpdate:
		s.handleDirectorialUpdate(c, env.Data)
	case msgPreStageRegion:
		s.handlePreStageRegion(ctx, c, env.Data)
	case msgStagingApprovalResponse:
		s.handleStagingApprovalResponse(ctx, c, env.Data)
	case msgStagingRegenerate:
		s.handleStagingRegenerate(ctx, c, env.Data)
	case msgSetGameTime:
		s.handleSetGameTime(ctx, c, env.Data)
	case msgSkipToPeriod:
		s.handleSkipToPeriod(ctx, c, env.Data)
	case msgPauseGameTime:
		s.handlePauseGameTime(ctx, c, env.Data)
	case msgSetTimeMode:
		s.handleSetTimeMode(ctx, c, env.Data)
	case msgSetTimeCosts:
		s.handleSetTimeCosts(ctx, c, env.Data)
	case msgRespondToTimeSuggestion:
		s.handleRespondToTimeSuggestion(ctx, c, env.Data)
	case msgTriggerChallenge:
		s.handleTriggerChallenge(ctx, c, env.Data)
	case msgChallengeRoll:
		s.handleChallengeRoll(ctx, c, env.Data)
	case msgChallengeOutcome:
		s.handleChallengeOutcome(ctx, c, env.Data)
	case msgEquipItem:
		s.handleEquipItem(ctx, c, env.Data, true)
	case msgUnequipItem:
		s.handleEquipItem(ctx, c, env.Data, false)
	case msgDropItem:
		s.handleDropItem(ctx, c, env.Data)
	case msgPickupItem:
		s.handlePickupItem(ctx, c, env.Data)
	case msgRequest:
		s.handleRequest(ctx, c, env.Data)
	default:
		s.Manager.sendError(c, ErrInvalidTarget, "unknown message type: "+env.Type)
	}
}

// requireWorld reports whether c has joined a world, emitting NOT_IN_WORLD
// otherwise.
func (s *Server) requireWorld(c *Connection) bool {
	if c.WorldID == (ids.WorldID{}) {
		s.Manager.sendError(c, ErrNotInWorld, "connection has not joined a world")
		return false
	}
	return true
}

// requireDM reports whether c is a DM in its joined world, emitting
// NOT_AUTHORIZED otherwise.
func (s *Server) requireDM(c *Connection) bool {
	if !s.requireWorld(c) {
		return false
	}
	if c.Role != domain.RoleDM {
		s.Manager.sendError(c, ErrNotAuthorized, "dm role required")
		return false
	}
	return true
}

// classifyErr maps a use-case error to the wire error code clients branch on.
func classifyErr(err error) string {
	var unknownOp errUnknownOp
	switch {
	case errors.Is(err, usecase.ErrConversationEnded):
		return ErrConvEnded
	case errors.Is(err, timeservice.ErrSuggestionNotFound), errors.Is(err, timeservice.ErrNotPaused):
		return ErrTime
	case errors.As(err, &unknownOp):
		return ErrInvalidTarget
	default:
		return ErrRepo
	}
}

func unmarshalOrErr[T any](s *Server, c *Connection, data json.RawMessage) (T, bool) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.Manager.sendError(c, ErrInvalidID, "malformed payload: "+err.Error())
		return v, false
	}
	return v, true
}

// maybeSuggestTime builds and publishes a TimeSuggestion when worldID is in
// action_cost mode and actionType carries a configured cost. The suggestion
// itself is broadcast to DMs by the eventbus subscriber wired in events.go,
// not from here.
func (s *Server) maybeSuggestTime(ctx context.Context, worldID ids.WorldID, pcID ids.PCID, actionType, destination string) {
	world, err := s.UC.Repo.GetWorld(ctx, worldID)
	if err != nil || world.TimeConfig.Mode != domain.TimeModeActionCost {
		return
	}
	cost, err := s.UC.Time.ActionCost(ctx, worldID, actionType)
	if err != nil || cost <= 0 {
		return
	}
	pc, err := s.UC.Repo.GetPC(ctx, pcID)
	if err != nil {
		return
	}
	sugg := s.UC.Time.SuggestTime(worldID, pcID, pc.Name, actionType, destination, cost)
	s.UC.Bus.Publish(ctx, eventbus.TimeSuggested, sugg)
}
