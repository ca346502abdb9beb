package wsapi

import (
	"context"

	"github.com/duskward/loomkeeper/internal/domain"
)

// handleTriggerChallenge implements TriggerChallenge: the DM announces a
// challenge is live and awaiting a roll.
func (s *Server) handleTriggerChallenge(_ context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[triggerChallengeMsg](s, c, data)
	if !ok {
		return
	}
	s.Manager.broadcastWorld(c.WorldID, evtChallengeTriggered, struct {
		ChallengeID string `json:"challenge_id"`
		PCID        string `json:"pc_id"`
	}{m.ChallengeID, m.PCID})
}

// handleChallengeRoll implements ChallengeRoll: classifies the roll into an
// outcome tier and reports it back without resolving.
func (s *Server) handleChallengeRoll(ctx context.Context, c *Connection, data []byte) {
	if !s.requireWorld(c) {
		return
	}
	m, ok := unmarshalOrErr[challengeRollMsg](s, c, data)
	if !ok {
		return
	}
	challengeID, err := parseChallengeID(m.ChallengeID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid challenge_id")
		return
	}
	outcome, err := s.UC.RollChallenge(ctx, challengeID, m.Roll)
	if err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	s.Manager.broadcastWorld(c.WorldID, evtChallengeRolled, struct {
		ChallengeID string `json:"challenge_id"`
		PCID        string `json:"pc_id"`
		Roll        int    `json:"roll"`
		Outcome     string `json:"outcome"`
	}{m.ChallengeID, m.PCID, m.Roll, string(outcome)})
}

// handleChallengeOutcome implements ChallengeOutcomeDecision: the DM confirms
// (or overrides) the rolled outcome tier, applying its triggers and
// resolving the challenge.
func (s *Server) handleChallengeOutcome(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[challengeOutcomeMsg](s, c, data)
	if !ok {
		return
	}
	challengeID, err := parseChallengeID(m.ChallengeID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid challenge_id")
		return
	}
	pcID, err := parsePCID(m.PCID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid pc_id")
		return
	}
	outcome := domain.OutcomeType(m.Outcome)
	triggers, err := s.UC.ResolveOutcome(ctx, c.WorldID, challengeID, outcome, pcID)
	if err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	s.Manager.broadcastWorld(c.WorldID, evtChallengeResolved, struct {
		ChallengeID string                  `json:"challenge_id"`
		PCID        string                  `json:"pc_id"`
		Outcome     string                  `json:"outcome"`
		Triggers    []domain.OutcomeTrigger `json:"triggers"`
	}{m.ChallengeID, m.PCID, m.Outcome, triggers})
}
