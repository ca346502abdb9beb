package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

func TestAssemble_IncludesMandatorySections(t *testing.T) {
	a := New(nil)
	in := Input{
		World:          domain.World{RuleSystem: "Forged in the Dark"},
		NPC:            domain.Character{ID: ids.NewCharacterID(), Name: "Mira", Archetype: "merchant"},
		NPCDisposition: "friendly",
		PC:             domain.PlayerCharacter{Name: "Aria"},
		PCSheetSummary: "Level 3 rogue",
		PlayerMessage:  "Hello!",
	}

	req, err := a.Assemble(context.Background(), in)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.Contains(req.SystemPrompt, "Mira") {
		t.Error("expected NPC persona to be present in system prompt")
	}
	if !strings.Contains(req.SystemPrompt, "Forged in the Dark") {
		t.Error("expected rule system to be present in system prompt")
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "Hello!" {
		t.Errorf("expected player message as the sole user message, got %+v", req.Messages)
	}
}

func TestAssemble_OmitsOptionalSectionsWhenEmpty(t *testing.T) {
	a := New(nil)
	in := Input{
		NPC: domain.Character{Name: "Mira"},
		PC:  domain.PlayerCharacter{Name: "Aria"},
	}
	req, err := a.Assemble(context.Background(), in)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if strings.Contains(req.SystemPrompt, string(SectionScene)) {
		t.Error("expected scene section to be omitted when ActiveScene is nil")
	}
}

func TestTrimLargestOptional_PrefersLargestNonMandatory(t *testing.T) {
	sections := []sectionContent{
		{SectionRuleSystem, strings.Repeat("x", 1000)},
		{SectionStoryEvents, strings.Repeat("y", 500)},
		{SectionRecentDialogue, strings.Repeat("z", 200)},
	}
	if !trimLargestOptional(sections) {
		t.Fatal("expected a trim to occur")
	}
	if len(sections[1].text) >= 500 {
		t.Errorf("expected the largest optional section to shrink, got len %d", len(sections[1].text))
	}
	if len(sections[0].text) != 1000 {
		t.Error("mandatory section must never be trimmed")
	}
}
