// Package worker implements the long-lived pipeline consumers: one
// goroutine per named queue, each following the generic loop — claim the
// next eligible item, process it, complete or fail it, and wait on the
// queue's notifier when nothing is eligible — plus a time-driven cleanup
// loop that purges old terminal items from every queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/duskward/loomkeeper/internal/clockrand"
	"github.com/duskward/loomkeeper/internal/config"
	"github.com/duskward/loomkeeper/internal/conversation"
	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/eventbus"
	"github.com/duskward/loomkeeper/internal/graphstore"
	"github.com/duskward/loomkeeper/internal/ids"
	"github.com/duskward/loomkeeper/internal/imagegen"
	llm "github.com/duskward/loomkeeper/internal/llmprovider"
	"github.com/duskward/loomkeeper/internal/llmtypes"
	"github.com/duskward/loomkeeper/internal/mcp"
	"github.com/duskward/loomkeeper/internal/queue"
	"github.com/duskward/loomkeeper/internal/repo"
	"github.com/duskward/loomkeeper/internal/scene"
	"github.com/duskward/loomkeeper/internal/visualstate"
)

// ApprovalRequiredEvent is published on eventbus.GenerationCompleted once an
// LLM reply has cleared the pipeline and is waiting on a DM's
// approve/reject/edit decision.
type ApprovalRequiredEvent struct {
	QueueItemID ids.QueueItemID
	Approval    queue.DMApprovalPayload
}

// DialogueApprovedEvent is published on eventbus.NpcDialogueApproved once a
// DM has approved or edited an NPC's reply, carrying the final text ready
// for broadcast to players.
type DialogueApprovedEvent struct {
	WorldID        ids.WorldID
	ConversationID ids.ConversationID
	CharacterID    ids.CharacterID
	CharacterName  string
	Text           string
	SourceActionID string
}

// Supervisor owns every pipeline worker and runs them for the lifetime of
// the process.
type Supervisor struct {
	Pipeline  *queue.Pipeline
	QueueCfg  config.QueuesConfig
	Repo      *repo.Repo
	Scene     *scene.Resolver
	Visual    *visualstate.Resolver
	Assembler *conversation.Assembler
	Session   graphstore.SessionStore // may be nil; recent-dialogue lookup is skipped if so
	LLM       llm.Provider
	ImageGen  imagegen.Provider // may be nil; asset-generation items fail permanently if so
	MCP       mcp.Host          // may be nil; no tools are offered or executed if so
	Bus       *eventbus.Bus
	Clock     clockrand.Clock
	Worlds    map[ids.WorldID]config.WorldConfig
}

// Run starts all six workers and blocks until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Go(func() { s.loop(ctx, s.Pipeline.PlayerAction, s.processPlayerAction) })
	wg.Go(func() { s.loop(ctx, s.Pipeline.LLM, s.processLLM) })
	wg.Go(func() { s.loop(ctx, s.Pipeline.DMApproval, s.processApprovalNotify) })
	wg.Go(func() { s.loop(ctx, s.Pipeline.DMAction, s.processDMAction) })
	wg.Go(func() { s.loop(ctx, s.Pipeline.AssetGeneration, s.processAsset) })
	wg.Go(func() { s.runCleanup(ctx) })

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// leaseDuration falls back to a sane default when unconfigured, so a
// Supervisor built against a zero-value QueuesConfig (as in tests) still
// makes progress instead of leasing items for 0s.
func (s *Supervisor) leaseDuration() time.Duration {
	if s.QueueCfg.LeaseDuration > 0 {
		return time.Duration(s.QueueCfg.LeaseDuration)
	}
	return 30 * time.Second
}

func (s *Supervisor) maxAttempts() int {
	if s.QueueCfg.MaxAttempts > 0 {
		return s.QueueCfg.MaxAttempts
	}
	return 3
}

// loop implements the generic worker loop of.1: claim, process,
// complete or fail, else wait for the notifier.
func (s *Supervisor) loop(ctx context.Context, q *queue.Queue, process func(context.Context, *queue.Item) error) {
	log := slog.With("queue", q.Name)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := q.Store().NextForProcessing(ctx, s.leaseDuration())
		if err != nil {
			log.Error("claim failed", "error", err)
			q.Wait(ctx, s.leaseDuration())
			continue
		}
		if item == nil {
			q.Wait(ctx, s.leaseDuration())
			continue
		}

		if err := process(ctx, item); err != nil {
			terminal, ferr := q.Store().Fail(ctx, item.ID, s.maxAttempts(), err)
			if ferr != nil {
				log.Error("failed to record item failure", "item", item.ID, "error", ferr)
				continue
			}
			if terminal {
				log.Warn("item failed permanently", "item", item.ID, "cause", err)
			} else {
				log.Info("item returned to queue for retry", "item", item.ID, "cause", err)
			}
			continue
		}
		if err := q.Store().Complete(ctx, item.ID); err != nil {
			log.Error("failed to mark item complete", "item", item.ID, "error", err)
		}
	}
}

// runCleanup periodically purges terminal items older than QueueCfg.CleanupAge
// from every pipeline queue.
func (s *Supervisor) runCleanup(ctx context.Context) {
	interval := time.Duration(s.QueueCfg.CleanupInterval)
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.cleanupOnce(ctx)
		}
	}
}

func (s *Supervisor) cleanupOnce(ctx context.Context) {
	retention := time.Duration(s.QueueCfg.CleanupAge)
	for _, q := range s.Pipeline.All() {
		n, err := q.Store().Cleanup(ctx, retention)
		if err != nil {
			slog.Error("cleanup failed", "queue", q.Name, "error", err)
			continue
		}
		if n > 0 {
			slog.Info("cleanup removed terminal items", "queue", q.Name, "count", n)
		}
	}
}

// worldConfigFor returns the configured world settings for worldID, or a
// zero-value WorldConfig when none is registered (unbounded token budget,
// no disposition thresholds).
func (s *Supervisor) worldConfigFor(worldID ids.WorldID) config.WorldConfig {
	return s.Worlds[worldID]
}

// processPlayerAction builds the dialogue prompt for a queued player action
// and enqueues it on the llm queue.
func (s *Supervisor) processPlayerAction(ctx context.Context, item *queue.Item) error {
	var payload queue.PlayerActionPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("worker: decode player action: %w", err)
	}
	if payload.ActionType != "talk" {
		// Only dialogue needs an LLM turn; other action types (such as the
		// "interact" actions PerformInteraction enqueues) are completed here
		// with no further processing.
		return nil
	}

	npcID, err := ids.ParseCharacterID(payload.Target)
	if err != nil {
		return fmt.Errorf("worker: player action target: %w", err)
	}
	npc, err := s.Repo.GetCharacter(ctx, npcID)
	if err != nil {
		return err
	}
	pc, err := s.Repo.GetPC(ctx, payload.PCID)
	if err != nil {
		return err
	}
	world, err := s.Repo.GetWorld(ctx, payload.WorldID)
	if err != nil {
		return err
	}
	wc := s.worldConfigFor(payload.WorldID)

	in := conversation.Input{
		World:          world,
		NPC:            npc,
		NPCDisposition: npc.DispositionLevel(pc.ID, wc.DispositionThresholds),
		PC:             pc,
		PCSheetSummary: summarizeSheet(pc.SheetData),
		PlayerMessage:  payload.Dialogue,
		ResponseFormat: wc.DialogueResponseFormat,
		TokenBudget:    wc.PromptTokenBudget,
	}

	if rels, err := s.Repo.RegionRelationshipsFor(ctx, npcID); err == nil {
		in.NPCRegionRelations = rels
	}
	if events, err := s.Repo.ListStoryEventsByCharacter(ctx, payload.WorldID, npcID, 5); err == nil {
		in.RecentStoryEvents = events
	}
	if s.Session != nil {
		if recent, err := conversation.FetchRecentDialogue(ctx, s.Session, payload.ConversationID, 10*time.Minute); err == nil {
			in.RecentDialogue = recent
		}
	}
	if pc.CurrentRegionID != nil {
		evalCtx, err := s.buildSceneEvalContext(ctx, payload.WorldID, pc, world.GameTime.TimeOfDay())
		if err == nil {
			if sc, err := s.Scene.ResolveScene(ctx, "", payload.WorldID, *pc.CurrentRegionID, evalCtx); err == nil {
				in.ActiveScene = sc
			}
		}
	}

	req, err := s.Assembler.Assemble(ctx, in)
	if err != nil {
		return fmt.Errorf("worker: assemble prompt: %w", err)
	}

	prompt := append([]llmtypes.Message{{Role: "system", Content: req.SystemPrompt}}, req.Messages...)
	var tools []llmtypes.ToolDefinition
	if s.MCP != nil {
		tools = s.MCP.AvailableTools(mcp.BudgetStandard)
	}

	llmPayload := queue.LLMPayload{
		Prompt:         prompt,
		Tools:          tools,
		ConversationID: payload.ConversationID,
		SourceActionID: payload.SourceActionID,
		WorldID:        payload.WorldID,
	}
	b, err := json.Marshal(llmPayload)
	if err != nil {
		return err
	}
	_, err = s.Pipeline.LLM.Enqueue(ctx, "llm_completion", b)
	return err
}

func (s *Supervisor) buildSceneEvalContext(ctx context.Context, worldID ids.WorldID, pc domain.PlayerCharacter, tod domain.TimeOfDay) (domain.SceneEvalContext, error) {
	flags, err := s.Repo.ListFlags(ctx, worldID, nil)
	if err != nil {
		return domain.SceneEvalContext{}, err
	}
	pcFlags, err := s.Repo.ListFlags(ctx, worldID, &pc.ID)
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

// summarizeSheet renders a PC's free-form sheet data as a flat key/value
// listing for prompt inclusion.
func summarizeSheet(sheet map[string]any) string {
	if len(sheet) == 0 {
		return ""
	}
	b, err := json.Marshal(sheet)
	if err != nil {
		return ""
	}
	return string(b)
}

// processLLM calls the configured LLM provider and forwards its output to
// the dm-approval queue for human review.
func (s *Supervisor) processLLM(ctx context.Context, item *queue.Item) error {
	var payload queue.LLMPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("worker: decode llm payload: %w", err)
	}
	if s.LLM == nil {
		return errors.New("worker: no llm provider configured")
	}

	var system string
	messages := payload.Prompt
	if len(messages) > 0 && messages[0].Role == "system" {
		system = messages[0].Content
		messages = messages[1:]
	}

	resp, err := s.LLM.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     messages,
		Tools:        payload.Tools,
	})
	if err != nil {
		return err
	}

	conv, err := s.Repo.GetConversation(ctx, payload.ConversationID)
	if err != nil {
		return err
	}
	npc, err := s.Repo.GetCharacter(ctx, conv.CharacterID)
	if err != nil {
		return err
	}

	approval := queue.DMApprovalPayload{
		WorldID:        payload.WorldID,
		ConversationID: payload.ConversationID,
		CharacterID:    conv.CharacterID,
		CharacterName:  npc.Name,
		ProposedText:   resp.Content,
		ToolCalls:      resp.ToolCalls,
		SourceActionID: payload.SourceActionID,
	}
	b, err := json.Marshal(approval)
	if err != nil {
		return err
	}
	_, err = s.Pipeline.DMApproval.Enqueue(ctx, "dm_approval", b)
	return err
}

// processApprovalNotify surfaces a newly-queued approval request to the
// world's DMs. The approval item's data already travelled in the published
// event; the wsapi layer holds the live decision state keyed by
// SourceActionID, so this stage is complete once the DMs have been notified.
func (s *Supervisor) processApprovalNotify(ctx context.Context, item *queue.Item) error {
	var payload queue.DMApprovalPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("worker: decode approval payload: %w", err)
	}
	s.Bus.Publish(ctx, eventbus.GenerationCompleted, ApprovalRequiredEvent{QueueItemID: item.ID, Approval: payload})
	return nil
}

// processDMAction applies a DM's approve/reject/edit decision — the gate
// that keeps AI-generated narrative from reaching players unreviewed.
func (s *Supervisor) processDMAction(ctx context.Context, item *queue.Item) error {
	var payload queue.DMActionPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("worker: decode dm action payload: %w", err)
	}

	switch payload.Decision {
	case queue.DMReject:
		// No broadcast: the proposed narrative never reaches players.
		return nil
	case queue.DMApprove, queue.DMEdit:
		text := payload.Approval.ProposedText
		toolCalls := payload.Approval.ToolCalls
		if payload.Decision == queue.DMEdit {
			text = payload.EditedContent
			toolCalls = payload.EditedTools
		}
		if err := s.executeTools(ctx, toolCalls); err != nil {
			return err
		}
		s.Bus.Publish(ctx, eventbus.NpcDialogueApproved, DialogueApprovedEvent{
			WorldID:        payload.WorldID,
			ConversationID: payload.Approval.ConversationID,
			CharacterID:    payload.Approval.CharacterID,
			CharacterName:  payload.Approval.CharacterName,
			Text:           text,
			SourceActionID: payload.SourceActionID,
		})
		return nil
	default:
		return fmt.Errorf("worker: unknown dm decision %q", payload.Decision)
	}
}

func (s *Supervisor) executeTools(ctx context.Context, calls []llmtypes.ToolCall) error {
	if s.MCP == nil || len(calls) == 0 {
		return nil
	}
	for _, c := range calls {
		if _, err := s.MCP.ExecuteTool(ctx, c.Name, c.Arguments); err != nil {
			return fmt.Errorf("worker: execute tool %s: %w", c.Name, err)
		}
	}
	return nil
}

// processAsset submits a queued image-generation request and persists the
// result
// box behind internal/imagegen; this stage only wires the request/response.
func (s *Supervisor) processAsset(ctx context.Context, item *queue.Item) error {
	var payload queue.AssetGenerationPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("worker: decode asset payload: %w", err)
	}
	if s.ImageGen == nil {
		return errors.New("worker: no image generation provider configured")
	}

	result, err := s.ImageGen.Generate(ctx, imagegen.Request{Prompt: payload.Prompt})
	if err != nil {
		return err
	}

	kind := domain.AssetKind(payload.AssetType)
	asset := domain.Asset{
		ID:        ids.NewAssetID(),
		WorldID:   payload.WorldID,
		EntityID:  payload.EntityID,
		Kind:      kind,
		URL:       result.URL,
		Prompt:    payload.Prompt,
		Workflow:  payload.Workflow,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Repo.SaveAsset(ctx, asset); err != nil {
		return err
	}
	s.Bus.Publish(ctx, eventbus.GenerationCompleted, asset)
	return nil
}
