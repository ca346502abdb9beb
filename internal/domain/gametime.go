package domain

import (
	"time"

	"github.com/duskward/loomkeeper/internal/ids"
)

// TimeOfDay partitions the 24-hour game day into four periods.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// timeOfDayFromHour buckets an hour-of-day (0-23) into a TimeOfDay.
// Morning 06-11, Afternoon 12-17, Evening 18-21, Night 22-05.
func timeOfDayFromHour(hour int) TimeOfDay {
	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 18:
		return Afternoon
	case hour >= 18 && hour < 22:
		return Evening
	default:
		return Night
	}
}

// GameTime is an integer of minutes-since-epoch plus a paused flag.
type GameTime struct {
	TotalMinutes int64
	IsPaused     bool
}

// Day returns the day number (0-based).
func (g GameTime) Day() int64 { return g.TotalMinutes / 1440 }

// Hour returns the hour of the day (0-23).
func (g GameTime) Hour() int {
	return int((g.TotalMinutes % 1440) / 60)
}

// Minute returns the minute of the hour (0-59).
func (g GameTime) Minute() int {
	return int(g.TotalMinutes % 60)
}

// TimeOfDay returns the current period of the day.
func (g GameTime) TimeOfDay() TimeOfDay {
	return timeOfDayFromHour(g.Hour())
}

// Advance returns the GameTime after advancing by delta seconds, discarding
// any sub-minute remainder. Advancing a paused clock is a no-op (identity).
func (g GameTime) Advance(deltaSeconds int64) GameTime {
	if g.IsPaused || deltaSeconds == 0 {
		return g
	}
	g.TotalMinutes += deltaSeconds / 60
	return g
}

// Set returns the GameTime with TotalMinutes pinned to day*1440 + hour*60 +
// minute, preserving IsPaused.
func (g GameTime) Set(day int64, hour, minute int) GameTime {
	g.TotalMinutes = day*1440 + int64(hour)*60 + int64(minute)
	return g
}

// TimeMode selects how a world's game time advances.
type TimeMode string

const (
	TimeModeManual     TimeMode = "manual"
	TimeModeActionCost TimeMode = "action_cost"
	TimeModeRealTime   TimeMode = "real_time"
)

// TimeConfig carries the DM-chosen mode and per-action-type cost table
// (in seconds), plus the wall-clock scale factor used in RealTime mode.
type TimeConfig struct {
	Mode          TimeMode
	ActionCosts   map[string]int64 // action_type -> seconds
	RealTimeScale float64          // game-seconds per wall-clock second
}

// TimeSuggestionDecision is the DM's response to a TimeSuggestion.
type TimeSuggestionDecision string

const (
	DecisionApprove TimeSuggestionDecision = "approve"
	DecisionModify  TimeSuggestionDecision = "modify"
	DecisionSkip    TimeSuggestionDecision = "skip"
)

// TimeSuggestion is an ephemeral, DM-reviewable proposal to advance
// in-world time, held in the process-wide pending-suggestions store.
type TimeSuggestion struct {
	ID              ids.SuggestionID
	WorldID         ids.WorldID
	PCID            ids.PCID
	PCName          string
	ActionType      string
	Destination     string
	SuggestedSeconds int64
	CreatedAt       time.Time
}
