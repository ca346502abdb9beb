package domain

import (
	"time"

	"github.com/duskward/loomkeeper/internal/ids"
)

// StagingSource records how a Staging record was produced.
type StagingSource string

const (
	// StagingRuleBased was produced entirely from region-relationship data.
	StagingRuleBased StagingSource = "rule_based"
	// StagingLLMBased was produced (at least in part) by the LLM proposal half.
	StagingLLMBased StagingSource = "llm_based"
	// StagingDMManual was authored directly by the DM (pre-staging or manual edit).
	StagingDMManual StagingSource = "dm_manual"
)

// StagedNpc is one NPC's presence entry within a Staging record.
type StagedNpc struct {
	CharacterID        ids.CharacterID
	Name               string
	Sprite             string
	Portrait           string
	IsPresent          bool
	IsHiddenFromPlayers bool
	Reasoning          string
	Mood               string
}

// Staging is a region-scoped snapshot of "who is present right now."
type Staging struct {
	ID          ids.StagingID
	RegionID    ids.RegionID
	LocationID  ids.LocationID
	WorldID     ids.WorldID
	ApprovedAt  time.Time
	TTLHours    float64
	ApprovedBy  ids.UserID
	Source      StagingSource
	IsActive    bool
	DMGuidance  string
	NPCs        []StagedNpc
}

// IsValid reports whether the staging is active and has not yet expired as
// of now.
func (s Staging) IsValid(now time.Time) bool {
	return s.IsActive && now.Before(s.ApprovedAt.Add(time.Duration(s.TTLHours*float64(time.Hour))))
}

// VisibleNPCs returns the subset of NPCs visible to players: present and not
// hidden.
func (s Staging) VisibleNPCs() []StagedNpc {
	out := make([]StagedNpc, 0, len(s.NPCs))
	for _, n := range s.NPCs {
		if n.IsPresent && !n.IsHiddenFromPlayers {
			out = append(out, n)
		}
	}
	return out
}

// StagingStatus is the outcome of resolving staging for a region: either a
// valid active record, or a pending state carrying the (possibly expired)
// previous record for DM context.
type StagingStatus struct {
	Ready    bool
	Pending  bool
	Staging  *Staging // set when Ready
	Previous *Staging // set when Pending and a prior record exists
}

// StagingProposal is the two-halved proposal built when a PC enters a region
// lacking active staging. The rule-based and LLM-based halves are presented
// to the DM separately; the DM approves a merged subset.
type StagingProposal struct {
	RegionID     ids.RegionID
	RuleBased    []StagedNpc
	LLMBased     []StagedNpc
	DefaultTTL   float64
}
