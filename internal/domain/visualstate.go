package domain

import "github.com/duskward/loomkeeper/internal/ids"

// ActivationLogic combines a visual state's ActivationRules.
type ActivationLogic struct {
	// Mode is one of "all", "any", or "at_least".
	Mode string
	// N is the threshold used when Mode is "at_least".
	N int
}

// Satisfied reports whether results (one bool per rule, true = matched)
// satisfy the logic.
func (l ActivationLogic) Satisfied(results []bool) bool {
	matched := 0
	for _, r := range results {
		if r {
			matched++
		}
	}
	switch l.Mode {
	case "any":
		return matched > 0
	case "at_least":
		return matched >= l.N
	default: // "all"
		return len(results) == 0 || matched == len(results)
	}
}

// ActivationRuleKind discriminates an ActivationRule's predicate shape.
type ActivationRuleKind string

const (
	RuleAlways      ActivationRuleKind = "always"
	RuleTimeOfDay   ActivationRuleKind = "time_of_day"
	RuleFlagSet     ActivationRuleKind = "flag_set"
	RuleEventActive ActivationRuleKind = "event_active"
	RuleCustom      ActivationRuleKind = "custom" // soft rule, LLM-judged
)

// ActivationRule is a single predicate gating a LocationState/RegionState.
type ActivationRule struct {
	Kind        ActivationRuleKind
	TimeOfDay   TimeOfDay        // set when Kind == RuleTimeOfDay
	FlagName    string           // set when Kind == RuleFlagSet
	EventID     ids.NarrativeEventID // set when Kind == RuleEventActive
	CustomDesc  string           // set when Kind == RuleCustom
}

// LocationState is an optional visual override bundle for a Location.
type LocationState struct {
	ID                ids.LocationStateID
	LocationID        ids.LocationID
	Name              string
	BackdropOverride  string
	AtmosphereOverride string
	AmbientSound      string
	MapOverlay        string
	Priority          int
	IsDefault         bool
	Rules             []ActivationRule
	Logic             ActivationLogic
}

// RegionState is an optional visual override bundle for a Region.
type RegionState struct {
	ID                ids.RegionStateID
	RegionID          ids.RegionID
	Name              string
	BackdropOverride  string
	AtmosphereOverride string
	AmbientSound      string
	Priority          int
	IsDefault         bool
	Rules             []ActivationRule
	Logic             ActivationLogic
}

// RuleTrace records, for DM diagnostics, which visual states were evaluated
// and why they did or did not match.
type RuleTrace struct {
	StateName string
	Active    bool
	RuleHits  []bool
}

// VisualResolution is the result of resolving both axes (location +
// region) of visual state for a context.
type VisualResolution struct {
	LocationState *LocationState
	RegionState   *RegionState
	Incomplete    bool // true if either axis lacks both an active and default state
	Trace         []RuleTrace
}
