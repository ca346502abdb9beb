// Package usecase orchestrates the named operations of the game world:
// entering and exiting regions, rolling and resolving challenges,
// conversations, staging approval, and time advancement. Each method wires
// together internal/repo, internal/staging, internal/scene,
// internal/visualstate, internal/timeservice, internal/queue, and
// internal/eventbus.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/duskward/loomkeeper/internal/clockrand"
	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/eventbus"
	"github.com/duskward/loomkeeper/internal/ids"
	"github.com/duskward/loomkeeper/internal/queue"
	"github.com/duskward/loomkeeper/internal/repo"
	"github.com/duskward/loomkeeper/internal/scene"
	"github.com/duskward/loomkeeper/internal/staging"
	"github.com/duskward/loomkeeper/internal/timeservice"
	"github.com/duskward/loomkeeper/internal/visualstate"
)

// UseCases bundles every service the use-case layer orchestrates.
type UseCases struct {
	Repo       *repo.Repo
	Staging    *staging.Service
	Scene      *scene.Resolver
	Visual     *visualstate.Resolver
	Time       *timeservice.Service
	Pipeline   *queue.Pipeline
	Bus        *eventbus.Bus
	Clock      clockrand.Clock
}

// New constructs a UseCases bundle.
func New(r *repo.Repo, st *staging.Service, sc *scene.Resolver, vs *visualstate.Resolver, ts *timeservice.Service, pl *queue.Pipeline, bus *eventbus.Bus, clock clockrand.Clock) *UseCases {
	return &UseCases{Repo: r, Staging: st, Scene: sc, Visual: vs, Time: ts, Pipeline: pl, Bus: bus, Clock: clock}
}

// StagingPendingEvent is published on eventbus.StagingPending when a PC
// arrives at a region that has no active staging record yet.
type StagingPendingEvent struct {
	WorldID  ids.WorldID
	PCID     ids.PCID
	RegionID ids.RegionID
}

// StagingApprovalRequiredEvent is published on
// eventbus.StagingApprovalRequired once a staging proposal has been built
// and is waiting on a DM's review.
type StagingApprovalRequiredEvent struct {
	WorldID  ids.WorldID
	Proposal domain.StagingProposal
}

// MoveResult is the outcome of EnterRegion/ExitLocation.
type MoveResult struct {
	SceneChanged   *domain.SceneChanged // nil when staging is pending
	StagingPending bool
	Proposal       *domain.StagingProposal // set when StagingPending and no record exists yet
}

// EnterRegion implements the MoveToRegion client operation.
func (u *UseCases) EnterRegion(ctx context.Context, worldID ids.WorldID, pcID ids.PCID, regionID ids.RegionID) (MoveResult, error) {
	pc, err := u.Repo.GetPC(ctx, pcID)
	if err != nil {
		return MoveResult{}, err
	}
	if pc.CurrentRegionID != nil {
		if err := u.Scene.ValidateRegionMove(ctx, *pc.CurrentRegionID, regionID); err != nil {
			return MoveResult{}, err
		}
	}
	region, err := u.Repo.GetRegion(ctx, regionID)
	if err != nil {
		return MoveResult{}, err
	}
	return u.resolveArrival(ctx, worldID, pc, region)
}

// ExitLocation implements the ExitToLocation client operation.
func (u *UseCases) ExitLocation(ctx context.Context, worldID ids.WorldID, pcID ids.PCID, locationID ids.LocationID, arrivalRegionID *ids.RegionID) (MoveResult, error) {
	pc, err := u.Repo.GetPC(ctx, pcID)
	if err != nil {
		return MoveResult{}, err
	}
	if pc.CurrentRegionID == nil {
		return MoveResult{}, fmt.Errorf("usecase: pc has no current region to exit from")
	}
	arrival, err := u.Scene.ValidateLocationExit(ctx, *pc.CurrentRegionID, locationID)
	if err != nil {
		return MoveResult{}, err
	}
	if arrivalRegionID != nil {
		arrival = *arrivalRegionID
	}
	region, err := u.Repo.GetRegion(ctx, arrival)
	if err != nil {
		return MoveResult{}, err
	}
	return u.resolveArrival(ctx, worldID, pc, region)
}

func (u *UseCases) resolveArrival(ctx context.Context, worldID ids.WorldID, pc domain.PlayerCharacter, region domain.Region) (MoveResult, error) {
	pc.CurrentRegionID = &region.ID
	pc.CurrentLocationID = region.LocationID
	pc.LastActiveAt = u.Clock.Now()
	if err := u.Repo.SavePC(ctx, pc); err != nil {
		return MoveResult{}, err
	}

	status, err := u.Staging.Resolve(ctx, worldID, region.ID)
	if err != nil {
		return MoveResult{}, err
	}
	if status.Pending {
		location, err := u.Repo.GetLocation(ctx, region.LocationID)
		if err != nil {
			return MoveResult{}, err
		}
		proposal, err := u.Staging.BuildProposal(ctx, worldID, region.ID, region.Name, location.Name, "")
		if err != nil {
			return MoveResult{}, err
		}
		u.Bus.Publish(ctx, eventbus.StagingPending, StagingPendingEvent{WorldID: worldID, PCID: pc.ID, RegionID: region.ID})
		u.Bus.Publish(ctx, eventbus.StagingApprovalRequired, StagingApprovalRequiredEvent{WorldID: worldID, Proposal: proposal})
		return MoveResult{StagingPending: true, Proposal: &proposal}, nil
	}

	location, err := u.Repo.GetLocation(ctx, region.LocationID)
	if err != nil {
		return MoveResult{}, err
	}

	locStates, err := u.Repo.ListLocationStates(ctx, worldID, location.ID)
	if err != nil {
		return MoveResult{}, err
	}
	regStates, err := u.Repo.ListRegionStates(ctx, worldID, region.ID)
	if err != nil {
		return MoveResult{}, err
	}
	world, err := u.Repo.GetWorld(ctx, worldID)
	if err != nil {
		return MoveResult{}, err
	}
	resolution, err := u.Visual.Resolve(ctx, "", locStates, regStates, visualstate.EvalContext{GameTime: world.GameTime})
	if err != nil {
		return MoveResult{}, err
	}

	evalCtx, err := u.buildSceneEvalContext(ctx, worldID, pc, world.GameTime.TimeOfDay())
	if err != nil {
		return MoveResult{}, err
	}
	resolvedScene, err := u.Scene.ResolveScene(ctx, "", worldID, region.ID, evalCtx)
	if err != nil {
		return MoveResult{}, err
	}

	conns, err := u.Repo.ConnectionsFrom(ctx, region.ID)
	if err != nil {
		return MoveResult{}, err
	}
	exits, err := u.Repo.ExitsFrom(ctx, region.ID)
	if err != nil {
		return MoveResult{}, err
	}
	connectedNames := map[ids.RegionID]string{}
	for _, c := range conns {
		if r, err := u.Repo.GetRegion(ctx, c.ToRegionID); err == nil {
			connectedNames[c.ToRegionID] = r.Name
		}
	}
	exitLocationNames := map[ids.LocationID]string{}
	for _, e := range exits {
		if l, err := u.Repo.GetLocation(ctx, e.ToLocationID); err == nil {
			exitLocationNames[e.ToLocationID] = l.Name
		}
	}
	items, err := u.Repo.ListItemsByRegion(ctx, worldID, region.ID)
	if err != nil {
		return MoveResult{}, err
	}

	var visibleNPCs []domain.StagedNpc
	if status.Staging != nil {
		visibleNPCs = status.Staging.VisibleNPCs()
	}

	changed := scene.BuildSceneChanged(scene.BuildSceneChangeInput{
		PCID:                    pc.ID,
		Region:                  region,
		Location:                location,
		VisibleNPCs:             visibleNPCs,
		Connections:             conns,
		ConnectedNames:          connectedNames,
		Exits:                   exits,
		ExitLocationNames:       exitLocationNames,
		Items:                   items,
		Resolution:              resolution,
		LocationDefaultBackdrop: "",
		Scene:                   resolvedScene,
	})
	u.Bus.Publish(ctx, eventbus.SceneChanged, changed)

	return MoveResult{SceneChanged: &changed}, nil
}

func (u *UseCases) buildSceneEvalContext(ctx context.Context, worldID ids.WorldID, pc domain.PlayerCharacter, tod domain.TimeOfDay) (domain.SceneEvalContext, error) {
	flags, err := u.Repo.ListFlags(ctx, worldID, nil)
	if err != nil {
		return domain.SceneEvalContext{}, err
	}
	pcFlags, err := u.Repo.ListFlags(ctx, worldID, &pc.ID)
	if err != nil {
		return domain.SceneEvalContext{}, err
	}
	worldFlags := map[string]bool{}
	for _, f := range flags {
		worldFlags[f.Name] = f.Value
	}
	pcFlagSet := map[string]bool{}
	for _, f := range pcFlags {
		pcFlagSet[f.Name] = f.Value
	}
	inventory := map[ids.ItemID]bool{}
	for _, it := range pc.Inventory {
		inventory[it] = true
	}
	return domain.SceneEvalContext{
		InventoryItems: inventory,
		WorldFlags:     worldFlags,
		PCFlags:        pcFlagSet,
		TimeOfDay:      tod,
	}, nil
}

// ConversationResult is returned to the caller immediately; the NPC's
// actual reply arrives later via the pipeline.
type ConversationResult struct {
	ConversationID  ids.ConversationID
	NPCName         string
	NPCDisposition  string
}

// StartConversation implements the StartConversation client operation.
func (u *UseCases) StartConversation(ctx context.Context, worldID ids.WorldID, pcID ids.PCID, npcID ids.CharacterID, message string, thresholds []domain.DispositionThreshold) (ConversationResult, error) {
	pc, err := u.Repo.GetPC(ctx, pcID)
	if err != nil {
		return ConversationResult{}, err
	}
	npc, err := u.Repo.GetCharacter(ctx, npcID)
	if err != nil {
		return ConversationResult{}, err
	}
	if pc.CurrentRegionID == nil {
		return ConversationResult{}, ErrConversationEnded
	}
	status, err := u.Staging.Resolve(ctx, worldID, *pc.CurrentRegionID)
	if err != nil {
		return ConversationResult{}, err
	}
	if !status.Ready || !npcPresent(status.Staging, npcID) {
		return ConversationResult{}, ErrConversationEnded
	}

	conv := domain.Conversation{
		ID:           ids.NewConversationID(),
		WorldID:      worldID,
		PCID:         pcID,
		CharacterID:  npcID,
		StartedAt:    u.Clock.Now(),
		LastActiveAt: u.Clock.Now(),
	}
	if err := u.Repo.SaveConversation(ctx, conv); err != nil {
		return ConversationResult{}, err
	}

	if err := u.enqueuePlayerAction(ctx, worldID, pcID, "talk", npcID.String(), message, conv.ID); err != nil {
		return ConversationResult{}, err
	}

	disposition := npc.DispositionLevel(pcID, thresholds)
	return ConversationResult{ConversationID: conv.ID, NPCName: npc.Name, NPCDisposition: disposition}, nil
}

// ErrConversationEnded is returned when the NPC addressed by a conversation
// has left the region.
var ErrConversationEnded = fmt.Errorf("usecase: conversation ended, npc is no longer present")

func npcPresent(s *domain.Staging, npcID ids.CharacterID) bool {
	if s == nil {
		return false
	}
	for _, n := range s.VisibleNPCs() {
		if n.CharacterID == npcID {
			return true
		}
	}
	return false
}

// ContinueConversation implements the ContinueConversation client operation.
func (u *UseCases) ContinueConversation(ctx context.Context, worldID ids.WorldID, pcID ids.PCID, npcID ids.CharacterID, message string, conversationID ids.ConversationID) error {
	pc, err := u.Repo.GetPC(ctx, pcID)
	if err != nil {
		return err
	}
	if pc.CurrentRegionID == nil {
		return ErrConversationEnded
	}
	status, err := u.Staging.Resolve(ctx, worldID, *pc.CurrentRegionID)
	if err != nil {
		return err
	}
	if !status.Ready || !npcPresent(status.Staging, npcID) {
		return ErrConversationEnded
	}
	return u.enqueuePlayerAction(ctx, worldID, pcID, "talk", npcID.String(), message, conversationID)
}

func (u *UseCases) enqueuePlayerAction(ctx context.Context, worldID ids.WorldID, pcID ids.PCID, actionType, target, dialogue string, conversationID ids.ConversationID) error {
	payload := queue.PlayerActionPayload{
		WorldID:        worldID,
		PCID:           pcID,
		ActionType:     actionType,
		Target:         target,
		Dialogue:       dialogue,
		ConversationID: conversationID,
		SourceActionID: ids.NewQueueItemID().String(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := u.Pipeline.PlayerAction.Enqueue(ctx, "player_action", b); err != nil {
		return err
	}
	u.Bus.Publish(ctx, eventbus.ActionQueued, payload)
	return nil
}

// PerformInteraction enqueues an "interact" player action against
// interactionID on the player-action queue, independent of any
// conversation thread. The player-action worker builds an LLM turn only
// for "talk" actions, so this item is completed without narration.
func (u *UseCases) PerformInteraction(ctx context.Context, worldID ids.WorldID, pcID ids.PCID, interactionID string) error {
	return u.enqueuePlayerAction(ctx, worldID, pcID, "interact", interactionID, "", ids.ConversationID{})
}

// RequestStagingApproval builds a fresh proposal for regionID and notifies
// DMs.
func (u *UseCases) RequestStagingApproval(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID, dmGuidance string) (domain.StagingProposal, error) {
	region, err := u.Repo.GetRegion(ctx, regionID)
	if err != nil {
		return domain.StagingProposal{}, err
	}
	location, err := u.Repo.GetLocation(ctx, region.LocationID)
	if err != nil {
		return domain.StagingProposal{}, err
	}
	proposal, err := u.Staging.BuildProposal(ctx, worldID, regionID, region.Name, location.Name, dmGuidance)
	if err != nil {
		return domain.StagingProposal{}, err
	}
	u.Bus.Publish(ctx, eventbus.StagingApprovalRequired, StagingApprovalRequiredEvent{WorldID: worldID, Proposal: proposal})
	return proposal, nil
}

// ApproveStaging implements the approve_staging DM decision.
func (u *UseCases) ApproveStaging(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID, locationID ids.LocationID, approvedBy ids.UserID, source domain.StagingSource, dmGuidance string, npcs []domain.StagedNpc, ttlHours float64) (domain.Staging, error) {
	return u.Staging.Approve(ctx, worldID, regionID, locationID, approvedBy, source, dmGuidance, npcs, ttlHours)
}

// PreStageRegion implements DM-initiated pre-staging.
func (u *UseCases) PreStageRegion(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID, locationID ids.LocationID, approvedBy ids.UserID, dmGuidance string, npcs []domain.StagedNpc, ttlHours float64) (domain.Staging, error) {
	return u.Staging.PreStage(ctx, worldID, regionID, locationID, approvedBy, dmGuidance, npcs, ttlHours)
}

// RollChallenge resolves challengeID's outcome tier from roll against its
// configured Difficulty.
func (u *UseCases) RollChallenge(ctx context.Context, challengeID ids.ChallengeID, roll int) (domain.OutcomeType, error) {
	ch, err := u.Repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return "", err
	}
	return classifyRoll(ch.Difficulty, roll), nil
}

func classifyRoll(d domain.Difficulty, roll int) domain.OutcomeType {
	switch d.Kind {
	case domain.DifficultyPercentage:
		switch {
		case roll <= d.Percentage/5:
			return domain.OutcomeCriticalSuccess
		case roll <= d.Percentage:
			return domain.OutcomeSuccess
		case roll <= d.Percentage+20:
			return domain.OutcomePartial
		case roll >= 96:
			return domain.OutcomeCriticalFailure
		default:
			return domain.OutcomeFailure
		}
	default: // DC / opposed / custom all compare against DC
		switch {
		case roll >= d.DC+10:
			return domain.OutcomeCriticalSuccess
		case roll >= d.DC:
			return domain.OutcomeSuccess
		case roll >= d.DC-5:
			return domain.OutcomePartial
		case roll <= 1:
			return domain.OutcomeCriticalFailure
		default:
			return domain.OutcomeFailure
		}
	}
}

// ResolveOutcome applies challengeID's triggers for outcome and marks the
// challenge resolved.
func (u *UseCases) ResolveOutcome(ctx context.Context, worldID ids.WorldID, challengeID ids.ChallengeID, outcome domain.OutcomeType, pcID ids.PCID) ([]domain.OutcomeTrigger, error) {
	ch, err := u.Repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	result, ok := ch.Outcomes[outcome]
	if !ok {
		ch.IsResolved = true
		return nil, u.Repo.SaveChallenge(ctx, ch)
	}
	for _, trig := range result.Triggers {
		if err := u.applyTrigger(ctx, worldID, pcID, trig); err != nil {
			return nil, err
		}
	}
	ch.IsResolved = true
	if err := u.Repo.SaveChallenge(ctx, ch); err != nil {
		return nil, err
	}
	return result.Triggers, nil
}

func (u *UseCases) applyTrigger(ctx context.Context, worldID ids.WorldID, pcID ids.PCID, trig domain.OutcomeTrigger) error {
	switch trig.Kind {
	case domain.TriggerGiveItem:
		pc, err := u.Repo.GetPC(ctx, pcID)
		if err != nil {
			return err
		}
		pc.Inventory = append(pc.Inventory, trig.ItemID)
		return u.Repo.SavePC(ctx, pc)
	case domain.TriggerEnableChallenge, domain.TriggerDisableChallenge:
		ch, err := u.Repo.GetChallenge(ctx, trig.ChallengeID)
		if err != nil {
			return err
		}
		ch.IsResolved = trig.Kind == domain.TriggerDisableChallenge
		return u.Repo.SaveChallenge(ctx, ch)
	default:
		// TriggerRevealInfo, TriggerTriggerScene, TriggerModifyStat, and
		// TriggerCustom have no repo-level state of their own to mutate here;
		// the narrative/broadcast layer interprets them directly.
		return nil
	}
}

// AdvanceTime implements the DM-initiated time advance.
func (u *UseCases) AdvanceTime(ctx context.Context, worldID ids.WorldID, deltaSeconds int64) (domain.GameTime, error) {
	return u.Time.AdvanceBySeconds(ctx, worldID, deltaSeconds)
}

// RespondToTimeSuggestion implements the DM response to a pending
// TimeSuggestion.
func (u *UseCases) RespondToTimeSuggestion(ctx context.Context, suggestionID ids.SuggestionID, decision domain.TimeSuggestionDecision, modifiedSeconds int64) (domain.GameTime, error) {
	return u.Time.Resolve(ctx, suggestionID, decision, modifiedSeconds)
}
