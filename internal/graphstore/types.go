package graphstore

import "time"

// NarrativeEntry is a single recorded line of dialogue or narration written to
// the session log (L1). It covers player actions, DM-approved narration, and
// NPC dialogue alike — the source is distinguished by IsAI and ActorID.
type NarrativeEntry struct {
	// SpeakerID identifies who produced this entry (a player character ID,
	// NPC entity ID, or "dm" for direct Dungeon Master narration).
	SpeakerID string

	// SpeakerName is the human-readable speaker name.
	SpeakerName string

	// Text is the entry content as broadcast to participants.
	Text string

	// RawText is the unedited source text before any DM edit during approval.
	// Equal to Text when the entry was never edited.
	RawText string

	// IsAI indicates this entry was produced by the LLM pipeline (NPC
	// dialogue or generated narration) rather than typed directly by a human.
	IsAI bool

	// ActorID identifies the NPC or other entity this entry is attributed to
	// when IsAI is true. Empty for player or direct DM entries.
	ActorID string

	// Timestamp is when this entry was recorded.
	Timestamp time.Time

	// Duration is retained for parity with spoken-aloud table sessions where
	// an entry corresponds to a timed narration; zero for typed entries.
	Duration time.Duration
}
