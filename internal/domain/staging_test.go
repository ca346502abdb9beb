package domain

import (
	"testing"
	"time"

	"github.com/duskward/loomkeeper/internal/ids"
)

func TestStaging_IsValid(t *testing.T) {
	now := time.Now()
	s := Staging{
		IsActive:   true,
		ApprovedAt: now.Add(-1 * time.Hour),
		TTLHours:   4,
	}
	if !s.IsValid(now) {
		t.Error("expected staging to be valid within TTL")
	}

	expired := s
	expired.ApprovedAt = now.Add(-5 * time.Hour)
	if expired.IsValid(now) {
		t.Error("expected staging to be expired past TTL")
	}

	inactive := s
	inactive.IsActive = false
	if inactive.IsValid(now) {
		t.Error("expected inactive staging to be invalid regardless of TTL")
	}
}

func TestStaging_VisibleNPCs(t *testing.T) {
	s := Staging{
		NPCs: []StagedNpc{
			{Name: "Alice", IsPresent: true, IsHiddenFromPlayers: false},
			{Name: "Hidden Bob", IsPresent: true, IsHiddenFromPlayers: true},
			{Name: "Absent Carol", IsPresent: false},
		},
	}
	visible := s.VisibleNPCs()
	if len(visible) != 1 || visible[0].Name != "Alice" {
		t.Errorf("VisibleNPCs() = %+v, want only Alice", visible)
	}
}

func TestCharacter_DispositionLevel(t *testing.T) {
	thresholds := []DispositionThreshold{
		{MinPoints: -100, Level: "hostile"},
		{MinPoints: 0, Level: "neutral"},
		{MinPoints: 50, Level: "friendly"},
	}
	pc := ids.NewPCID()
	c := Character{RelationshipPts: map[ids.PCID]int{pc: 60}}
	if got := c.DispositionLevel(pc, thresholds); got != "friendly" {
		t.Errorf("DispositionLevel() = %q, want friendly", got)
	}

	c.RelationshipPts[pc] = -10
	if got := c.DispositionLevel(pc, thresholds); got != "hostile" {
		t.Errorf("DispositionLevel() = %q, want hostile", got)
	}

	unknown := ids.NewPCID()
	if got := c.DispositionLevel(unknown, thresholds); got != "neutral" {
		t.Errorf("DispositionLevel() for unknown pc = %q, want neutral (0 points)", got)
	}
}
