// Package visualstate implements the visual-state resolver: picking the
// highest-priority LocationState and RegionState whose activation rules
// match the current time/flags/events, falling back to each axis's default
// state.
package visualstate

import (
	"context"

	"github.com/duskward/loomkeeper/internal/condition"
	"github.com/duskward/loomkeeper/internal/domain"
)

// EvalContext carries everything an ActivationRule might test against.
type EvalContext struct {
	GameTime     domain.GameTime
	WorldFlags   map[string]bool
	PCFlags      map[string]bool
	ActiveEvents map[string]bool // keyed by NarrativeEventID.String()
}

// Resolver resolves visual state, batching any Custom rule evaluation
// through a condition.Evaluator.
type Resolver struct {
	evaluator *condition.Evaluator
}

// New constructs a Resolver. evaluator may be nil; Custom rules then always
// evaluate unmet.
func New(evaluator *condition.Evaluator) *Resolver {
	return &Resolver{evaluator: evaluator}
}

// Resolve evaluates locationStates and regionStates against ctx and returns
// the winning state on each axis: among active states, highest Priority
// wins; if none are active, the IsDefault one is used.
func (r *Resolver) Resolve(ctx context.Context, gameCtx string, locationStates []domain.LocationState, regionStates []domain.RegionState, ec EvalContext) (domain.VisualResolution, error) {
	customDescs := collectCustomDescs(locationStates, regionStates)
	var customResults map[string]condition.Result
	if len(customDescs) > 0 && r.evaluator != nil {
		var err error
		customResults, err = r.evaluator.Evaluate(ctx, gameCtx, customDescs)
		if err != nil {
			customResults = map[string]condition.Result{}
		}
	}

	locWinner, locTrace := pickLocationState(locationStates, ec, customResults)
	regWinner, regTrace := pickRegionState(regionStates, ec, customResults)

	res := domain.VisualResolution{
		LocationState: locWinner,
		RegionState:   regWinner,
		Trace:         append(locTrace, regTrace...),
	}
	res.Incomplete = (len(locationStates) > 0 && locWinner == nil) || (len(regionStates) > 0 && regWinner == nil)
	return res, nil
}

func collectCustomDescs(locStates []domain.LocationState, regStates []domain.RegionState) []string {
	seen := map[string]bool{}
	var out []string
	add := func(rules []domain.ActivationRule) {
		for _, rule := range rules {
			if rule.Kind == domain.RuleCustom && !seen[rule.CustomDesc] {
				seen[rule.CustomDesc] = true
				out = append(out, rule.CustomDesc)
			}
		}
	}
	for _, s := range locStates {
		add(s.Rules)
	}
	for _, s := range regStates {
		add(s.Rules)
	}
	return out
}

func evalRule(rule domain.ActivationRule, ec EvalContext, customResults map[string]condition.Result) bool {
	switch rule.Kind {
	case domain.RuleAlways:
		return true
	case domain.RuleTimeOfDay:
		return ec.GameTime.TimeOfDay() == rule.TimeOfDay
	case domain.RuleFlagSet:
		return ec.WorldFlags[rule.FlagName] || ec.PCFlags[rule.FlagName]
	case domain.RuleEventActive:
		return ec.ActiveEvents[rule.EventID.String()]
	case domain.RuleCustom:
		return customResults[rule.CustomDesc].IsMet
	default:
		return false
	}
}

func pickLocationState(states []domain.LocationState, ec EvalContext, customResults map[string]condition.Result) (*domain.LocationState, []domain.RuleTrace) {
	var trace []domain.RuleTrace
	var best *domain.LocationState
	var fallback *domain.LocationState
	for i := range states {
		s := &states[i]
		results := make([]bool, len(s.Rules))
		for j, rule := range s.Rules {
			results[j] = evalRule(rule, ec, customResults)
		}
		active := s.Logic.Satisfied(results)
		trace = append(trace, domain.RuleTrace{StateName: s.Name, Active: active, RuleHits: results})
		if s.IsDefault {
			fallback = s
		}
		if active && (best == nil || s.Priority > best.Priority) {
			best = s
		}
	}
	if best != nil {
		return best, trace
	}
	return fallback, trace
}

func pickRegionState(states []domain.RegionState, ec EvalContext, customResults map[string]condition.Result) (*domain.RegionState, []domain.RuleTrace) {
	var trace []domain.RuleTrace
	var best *domain.RegionState
	var fallback *domain.RegionState
	for i := range states {
		s := &states[i]
		results := make([]bool, len(s.Rules))
		for j, rule := range s.Rules {
			results[j] = evalRule(rule, ec, customResults)
		}
		active := s.Logic.Satisfied(results)
		trace = append(trace, domain.RuleTrace{StateName: s.Name, Active: active, RuleHits: results})
		if s.IsDefault {
			fallback = s
		}
		if active && (best == nil || s.Priority > best.Priority) {
			best = s
		}
	}
	if best != nil {
		return best, trace
	}
	return fallback, trace
}
