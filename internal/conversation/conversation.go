// Package conversation assembles the LLM prompt for an NPC dialogue turn:
// world rule-system, active scene, NPC persona, PC sheet summary, recent
// story events, recent dialogue, and a per-world response format system
// prompt, trimmed proportionally to a token budget.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/duskward/loomkeeper/internal/domain"
	graphstore "github.com/duskward/loomkeeper/internal/graphstore"
	"github.com/duskward/loomkeeper/internal/ids"
	llm "github.com/duskward/loomkeeper/internal/llmprovider"
	"github.com/duskward/loomkeeper/internal/llmtypes"
)

// Section names a prompt section for trimming/diagnostics. Order matches
// assembly order.
type Section string

const (
	SectionRuleSystem    Section = "rule_system"
	SectionScene         Section = "scene"
	SectionNpcPersona    Section = "npc_persona"
	SectionPcSheet       Section = "pc_sheet"
	SectionStoryEvents   Section = "story_events"
	SectionRecentDialogue Section = "recent_dialogue"
)

// mandatorySections are never trimmed or dropped by the trimmer.
var mandatorySections = map[Section]bool{
	SectionRuleSystem: true,
	SectionNpcPersona: true,
}

// Input bundles everything the assembler needs to build one dialogue turn's
// prompt. Callers (PlayerActionWorker) gather this from internal/repo,
// internal/scene, and the session store before calling Assemble.
type Input struct {
	World              domain.World
	ActiveScene        *domain.Scene
	NPC                domain.Character
	NPCDisposition     string
	NPCRegionRelations []domain.RegionRelationship
	PC                 domain.PlayerCharacter
	PCSheetSummary     string
	RecentStoryEvents  []domain.StoryEvent
	RecentDialogue     []graphstore.NarrativeEntry
	PlayerMessage      string
	ResponseFormat     string // world's dialogue.response_format template
	TokenBudget        int    // 0 means unbounded
}

// Assembler builds prompts and optionally enforces a token budget via an
// llm.Provider's CountTokens.
type Assembler struct {
	provider llm.Provider // may be nil; token budget is then not enforced
}

// New constructs an Assembler. provider may be nil, in which case Assemble
// never trims for budget.
func New(provider llm.Provider) *Assembler {
	return &Assembler{provider: provider}
}

// Assemble builds the system prompt and user message for one dialogue turn,
// trimming content sections proportionally until the request fits within
// in.TokenBudget.
func (a *Assembler) Assemble(ctx context.Context, in Input) (llm.CompletionRequest, error) {
	sections := a.buildSections(in)
	system := joinSections(sections)

	req := llm.CompletionRequest{
		SystemPrompt: system,
		Messages: []llmtypes.Message{
			{Role: "user", Content: in.PlayerMessage},
		},
	}

	if in.TokenBudget <= 0 || a.provider == nil {
		return req, nil
	}

	for i := 0; i < 8; i++ {
		msgs := append([]llmtypes.Message{{Role: "system", Content: req.SystemPrompt}}, req.Messages...)
		n, err := a.provider.CountTokens(msgs)
		if err != nil || n <= in.TokenBudget {
			break
		}
		if !trimLargestOptional(sections) {
			break
		}
		req.SystemPrompt = joinSections(sections)
	}
	return req, nil
}

type sectionContent struct {
	name Section
	text string
}

func (a *Assembler) buildSections(in Input) []sectionContent {
	sections := []sectionContent{
		{SectionRuleSystem, fmt.Sprintf("Rule system: %s\n%s", in.World.RuleSystem, in.ResponseFormat)},
	}
	if in.ActiveScene != nil {
		sections = append(sections, sectionContent{SectionScene, fmt.Sprintf(
			"Active scene: %s\n%s", in.ActiveScene.Name, in.ActiveScene.DirectorialNotes)})
	}
	sections = append(sections, sectionContent{SectionNpcPersona, buildPersona(in.NPC, in.NPCDisposition, in.NPCRegionRelations)})
	sections = append(sections, sectionContent{SectionPcSheet, fmt.Sprintf(
		"Player character %s:\n%s", in.PC.Name, in.PCSheetSummary)})
	if len(in.RecentStoryEvents) > 0 {
		sections = append(sections, sectionContent{SectionStoryEvents, buildStoryEvents(in.RecentStoryEvents)})
	}
	if len(in.RecentDialogue) > 0 {
		sections = append(sections, sectionContent{SectionRecentDialogue, buildDialogueHistory(in.RecentDialogue)})
	}
	return sections
}

func buildPersona(npc domain.Character, disposition string, relations []domain.RegionRelationship) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NPC %s (%s), mood: %s, disposition toward this PC: %s\n", npc.Name, npc.Archetype, npc.DefaultMood, disposition)
	for stat, val := range npc.Stats {
		fmt.Fprintf(&b, "  %s: %d\n", stat, val)
	}
	for _, rel := range relations {
		fmt.Fprintf(&b, "  region relation: %s -> %s\n", rel.Frequency, rel.RegionID)
	}
	return b.String()
}

func buildStoryEvents(events []domain.StoryEvent) string {
	var b strings.Builder
	b.WriteString("Recent story events involving this NPC:\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "  - %s\n", ev.Summary)
	}
	return b.String()
}

func buildDialogueHistory(entries []graphstore.NarrativeEntry) string {
	var b strings.Builder
	b.WriteString("Recent dialogue:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  %s: %s\n", e.SpeakerName, e.Text)
	}
	return b.String()
}

func joinSections(sections []sectionContent) string {
	var b strings.Builder
	for _, s := range sections {
		if s.text == "" {
			continue
		}
		b.WriteString(string(s.name))
		b.WriteString(":\n")
		b.WriteString(s.text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// trimLargestOptional halves the content of the largest non-mandatory,
// non-empty section, or drops it entirely once it is too small to halve
// usefully. Reports whether any trimming happened.
func trimLargestOptional(sections []sectionContent) bool {
	largest := -1
	for i, s := range sections {
		if mandatorySections[s.name] || s.text == "" {
			continue
		}
		if largest == -1 || len(s.text) > len(sections[largest].text) {
			largest = i
		}
	}
	if largest == -1 {
		return false
	}
	if len(sections[largest].text) < 80 {
		sections[largest].text = ""
		return true
	}
	sections[largest].text = sections[largest].text[:len(sections[largest].text)/2] + "...(trimmed)"
	return true
}

// FetchRecentDialogue retrieves the last window of dialogue for
// conversationID from the session store.
func FetchRecentDialogue(ctx context.Context, session graphstore.SessionStore, conversationID ids.ConversationID, window time.Duration) ([]graphstore.NarrativeEntry, error) {
	return session.GetRecent(ctx, conversationID.String(), window)
}
