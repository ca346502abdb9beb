package domain

import "github.com/duskward/loomkeeper/internal/ids"

// TimeContextKind discriminates a Scene's required time window.
type TimeContextKind string

const (
	TimeContextUnspecified TimeContextKind = "unspecified"
	TimeContextTimeOfDay   TimeContextKind = "time_of_day"
	TimeContextDuring      TimeContextKind = "during"
	TimeContextCustom      TimeContextKind = "custom"
)

// TimeContext is a scene's required time window.
type TimeContext struct {
	Kind       TimeContextKind
	TimeOfDay  TimeOfDay // set when Kind == TimeContextTimeOfDay
	EventName  string    // set when Kind == TimeContextDuring
	CustomDesc string    // set when Kind == TimeContextCustom
}

// Matches reports whether the time context is satisfied for now. During and
// Custom match optimistically: an event-tracking layer to verify them does
// not yet exist.
func (tc TimeContext) Matches(now TimeOfDay) bool {
	switch tc.Kind {
	case TimeContextTimeOfDay:
		return tc.TimeOfDay == now
	case TimeContextDuring, TimeContextCustom:
		return true
	default: // Unspecified
		return true
	}
}

// SceneConditionKind discriminates a SceneCondition's predicate shape.
type SceneConditionKind string

const (
	ConditionCompletedScene  SceneConditionKind = "completed_scene"
	ConditionHasItem         SceneConditionKind = "has_item"
	ConditionKnowsCharacter  SceneConditionKind = "knows_character"
	ConditionFlagSet         SceneConditionKind = "flag_set"
	ConditionCustom          SceneConditionKind = "custom"
)

// SceneCondition gates entry into a Scene.
type SceneCondition struct {
	Kind        SceneConditionKind
	SceneID     ids.SceneID     // set when Kind == ConditionCompletedScene
	ItemID      ids.ItemID      // set when Kind == ConditionHasItem
	CharacterID ids.CharacterID // set when Kind == ConditionKnowsCharacter
	FlagName    string          // set when Kind == ConditionFlagSet
	CustomDesc  string          // set when Kind == ConditionCustom
}

// Scene is a directorial unit hosted at a region (via its host location),
// belonging to an Act.
type Scene struct {
	ID                ids.SceneID
	WorldID           ids.WorldID
	ActID             ids.ActID
	LocationID        ids.LocationID
	RegionID          ids.RegionID
	Name              string
	TimeContext       TimeContext
	BackdropOverride  string
	Conditions        []SceneCondition
	FeaturedCharacters []ids.CharacterID
	DirectorialNotes  string
	Order             int
}

// SceneEvalContext is the evaluation context assembled for scene resolution:
// what the PC has completed, carries, knows, and the world/PC flags and
// current time of day.
type SceneEvalContext struct {
	CompletedScenes  map[ids.SceneID]bool
	InventoryItems   map[ids.ItemID]bool
	KnownCharacters  map[ids.CharacterID]bool
	WorldFlags       map[string]bool
	PCFlags          map[string]bool
	TimeOfDay        TimeOfDay
	CustomResults    map[string]bool // keyed by custom description, populated by the condition evaluator
}

// OutcomeType is a challenge resolution outcome tier.
type OutcomeType string

const (
	OutcomeCriticalSuccess OutcomeType = "critical_success"
	OutcomeSuccess         OutcomeType = "success"
	OutcomePartial         OutcomeType = "partial"
	OutcomeFailure         OutcomeType = "failure"
	OutcomeCriticalFailure OutcomeType = "critical_failure"
)

// DifficultyKind discriminates a Challenge's difficulty shape.
type DifficultyKind string

const (
	DifficultyDC        DifficultyKind = "dc"
	DifficultyPercentage DifficultyKind = "percentage"
	DifficultyOpposed   DifficultyKind = "opposed"
	DifficultyCustom    DifficultyKind = "custom"
)

// Difficulty describes how a Challenge is resolved against a roll.
type Difficulty struct {
	Kind       DifficultyKind
	DC         int
	Percentage int
	CustomDesc string
}

// TriggerKind discriminates an OutcomeTrigger's effect.
type TriggerKind string

const (
	TriggerRevealInfo    TriggerKind = "reveal_information"
	TriggerGiveItem      TriggerKind = "give_item"
	TriggerTriggerScene  TriggerKind = "trigger_scene"
	TriggerEnableChallenge TriggerKind = "enable_challenge"
	TriggerDisableChallenge TriggerKind = "disable_challenge"
	TriggerModifyStat    TriggerKind = "modify_stat"
	TriggerCustom        TriggerKind = "custom"
)

// OutcomeTrigger is a side effect applied when a Challenge outcome fires.
type OutcomeTrigger struct {
	Kind        TriggerKind
	ItemID      ids.ItemID
	SceneID     ids.SceneID
	ChallengeID ids.ChallengeID
	StatName    string
	StatDelta   int
	CustomDesc  string
}

// ChallengeOutcome binds an OutcomeType to its narrative text and triggers.
type ChallengeOutcome struct {
	Type        OutcomeType
	Description string
	Triggers    []OutcomeTrigger
}

// Challenge is a skill check definition, resolved once.
type Challenge struct {
	ID         ids.ChallengeID
	WorldID    ids.WorldID
	Name       string
	Skill      string
	Difficulty Difficulty
	Outcomes   map[OutcomeType]ChallengeOutcome
	IsResolved bool
}
