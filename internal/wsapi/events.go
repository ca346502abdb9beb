package wsapi

import (
	"context"

	"github.com/google/uuid"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/eventbus"
	"github.com/duskward/loomkeeper/internal/queue"
	"github.com/duskward/loomkeeper/internal/timeservice"
	"github.com/duskward/loomkeeper/internal/usecase"
	"github.com/duskward/loomkeeper/internal/worker"
)

// subscribeEvents wires every eventbus topic a connected client needs to
// hear about to the matching wire broadcast. These are the only places a
// domain event becomes a ServerMessage; use-case methods themselves never
// talk to the Manager directly.
func (s *Server) subscribeEvents() {
	bus := s.UC.Bus

	bus.Subscribe(eventbus.SceneChanged, func(ctx context.Context, payload any) {
		changed, ok := payload.(domain.SceneChanged)
		if !ok {
			return
		}
		pc, err := s.UC.Repo.GetPC(ctx, changed.PCID)
		if err != nil {
			return
		}
		s.Manager.broadcastPC(pc.WorldID, changed.PCID, evtSceneChanged, sceneChangedMsg{
			PCID:        changed.PCID.String(),
			Region:      changed.Region,
			NPCsPresent: changed.NPCsPresent,
			Navigation:  changed.Navigation,
			RegionItems: changed.RegionItems,
			Scene:       changed.Scene,
		})
	})

	bus.Subscribe(eventbus.StagingPending, func(_ context.Context, payload any) {
		evt, ok := payload.(usecase.StagingPendingEvent)
		if !ok {
			return
		}
		s.Manager.broadcastPC(evt.WorldID, evt.PCID, evtStagingPending, stagingPendingMsg{
			RegionID: evt.RegionID.String(),
		})
	})

	bus.Subscribe(eventbus.StagingApprovalRequired, func(ctx context.Context, payload any) {
		evt, ok := payload.(usecase.StagingApprovalRequiredEvent)
		if !ok {
			return
		}
		region, err := s.UC.Repo.GetRegion(ctx, evt.Proposal.RegionID)
		if err != nil {
			return
		}
		requestID := uuid.New().String()
		s.pendingMu.Lock()
		s.pendingStaging[requestID] = stagingRequest{WorldID: evt.WorldID, RegionID: region.ID, LocationID: region.LocationID}
		s.pendingMu.Unlock()

		s.Manager.broadcastDMs(evt.WorldID, evtStagingApprovalRequired, stagingApprovalRequiredMsg{
			RequestID:  requestID,
			RegionID:   evt.Proposal.RegionID.String(),
			RuleBased:  evt.Proposal.RuleBased,
			LLMBased:   evt.Proposal.LLMBased,
			DefaultTTL: evt.Proposal.DefaultTTL,
		})
	})

	bus.Subscribe(eventbus.TimeAdvanced, func(_ context.Context, payload any) {
		evt, ok := payload.(timeservice.GameTimeAdvancedEvent)
		if !ok {
			return
		}
		s.Manager.broadcastWorld(evt.WorldID, evtGameTimeAdvanced, gameTimeAdvancedMsg{
			Day:             evt.GameTime.Day(),
			Hour:            evt.GameTime.Hour(),
			Minute:          evt.GameTime.Minute(),
			TimeOfDay:       string(evt.GameTime.TimeOfDay()),
			MinutesAdvanced: evt.MinutesAdvanced,
		})
	})

	bus.Subscribe(eventbus.ActionQueued, func(_ context.Context, payload any) {
		evt, ok := payload.(queue.PlayerActionPayload)
		if !ok {
			return
		}
		s.Manager.broadcastDMs(evt.WorldID, evtActionQueued, actionQueuedMsg{
			ActionType: evt.ActionType,
			PCID:       evt.PCID.String(),
		})
	})

	bus.Subscribe(eventbus.GenerationCompleted, func(_ context.Context, payload any) {
		evt, ok := payload.(worker.ApprovalRequiredEvent)
		if !ok {
			return
		}
		requestID := evt.QueueItemID.String()
		s.pendingMu.Lock()
		s.pendingApprovals[requestID] = evt.Approval
		s.pendingMu.Unlock()

		s.Manager.broadcastDMs(evt.Approval.WorldID, evtApprovalRequired, approvalRequiredMsg{
			RequestID:      requestID,
			ConversationID: evt.Approval.ConversationID.String(),
			CharacterID:    evt.Approval.CharacterID.String(),
			CharacterName:  evt.Approval.CharacterName,
			ProposedText:   evt.Approval.ProposedText,
		})
	})

	bus.Subscribe(eventbus.NpcDialogueApproved, func(_ context.Context, payload any) {
		evt, ok := payload.(worker.DialogueApprovedEvent)
		if !ok {
			return
		}
		s.Manager.broadcastWorld(evt.WorldID, evtNpcDialogue, npcDialogueMsg{
			ConversationID: evt.ConversationID.String(),
			CharacterID:    evt.CharacterID.String(),
			CharacterName:  evt.CharacterName,
			Text:           evt.Text,
		})
	})

	bus.Subscribe(eventbus.StagingApproved, func(_ context.Context, payload any) {
		staging, ok := payload.(domain.Staging)
		if !ok {
			return
		}
		s.Manager.broadcastWorld(staging.WorldID, evtStagingResolved, struct {
			RegionID string `json:"region_id"`
			Source   string `json:"source"`
		}{staging.RegionID.String(), string(staging.Source)})
	})

	bus.Subscribe(eventbus.TimeSuggested, func(_ context.Context, payload any) {
		sugg, ok := payload.(domain.TimeSuggestion)
		if !ok {
			return
		}
		s.Manager.broadcastDMs(sugg.WorldID, evtTimeSuggested, timeSuggestedMsg{
			SuggestionID: sugg.ID.String(),
			PCName:       sugg.PCName,
			ActionType:   sugg.ActionType,
			Destination:  sugg.Destination,
			Seconds:      sugg.SuggestedSeconds,
		})
	})
}
