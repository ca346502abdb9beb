package wsapi

import (
	"context"

	"github.com/duskward/loomkeeper/internal/domain"
)

// periodStartHour maps a TimeOfDay period name to its first hour, used by
// SkipToPeriod.
var periodStartHour = map[string]int{
	"morning":   6,
	"afternoon": 12,
	"evening":   18,
	"night":     22,
}

// handleSetGameTime implements SetGameTime, the Manual-mode DM action that
// pins the clock to an explicit day/hour/minute.
func (s *Server) handleSetGameTime(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[setGameTimeMsg](s, c, data)
	if !ok {
		return
	}
	if _, err := s.UC.Time.SetGameTime(ctx, c.WorldID, m.Day, m.Hour, m.Minute); err != nil {
		s.Manager.sendError(c, ErrTime, err.Error())
	}
}

// handleSkipToPeriod implements SkipToPeriod, advancing the clock to the
// first hour of the named period on the current day (or the next day, if
// that hour has already passed today).
func (s *Server) handleSkipToPeriod(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[skipToPeriodMsg](s, c, data)
	if !ok {
		return
	}
	hour, known := periodStartHour[m.Period]
	if !known {
		s.Manager.sendError(c, ErrInvalidTarget, "unknown period: "+m.Period)
		return
	}
	world, err := s.UC.Repo.GetWorld(ctx, c.WorldID)
	if err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	day := world.GameTime.Day()
	if hour <= world.GameTime.Hour() {
		day++
	}
	if _, err := s.UC.Time.SetGameTime(ctx, c.WorldID, day, hour, 0); err != nil {
		s.Manager.sendError(c, ErrTime, err.Error())
	}
}

// handlePauseGameTime implements PauseGameTime.
func (s *Server) handlePauseGameTime(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[pauseGameTimeMsg](s, c, data)
	if !ok {
		return
	}
	if err := s.UC.Time.Pause(ctx, c.WorldID, m.Paused); err != nil {
		s.Manager.sendError(c, ErrTime, err.Error())
		return
	}
	s.Manager.broadcastWorld(c.WorldID, evtGameTimePaused, struct {
		Paused bool `json:"paused"`
	}{m.Paused})
}

// handleSetTimeMode implements SetTimeMode. There is no dedicated service
// method for this: TimeConfig is a plain field on World, so this is a
// direct repo read-modify-write.
func (s *Server) handleSetTimeMode(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[setTimeModeMsg](s, c, data)
	if !ok {
		return
	}
	mode := domain.TimeMode(m.Mode)
	switch mode {
	case domain.TimeModeManual, domain.TimeModeActionCost, domain.TimeModeRealTime:
	default:
		s.Manager.sendError(c, ErrInvalidTarget, "unknown time mode: "+m.Mode)
		return
	}
	world, err := s.UC.Repo.GetWorld(ctx, c.WorldID)
	if err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	world.TimeConfig.Mode = mode
	if err := s.UC.Repo.SaveWorld(ctx, world); err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	s.Manager.broadcastWorld(c.WorldID, evtTimeModeChanged, struct {
		Mode string `json:"mode"`
	}{string(mode)})
}

// handleSetTimeCosts implements SetTimeCosts, another direct repo
// read-modify-write for the same reason as handleSetTimeMode.
func (s *Server) handleSetTimeCosts(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[setTimeCostsMsg](s, c, data)
	if !ok {
		return
	}
	world, err := s.UC.Repo.GetWorld(ctx, c.WorldID)
	if err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	world.TimeConfig.ActionCosts = m.ActionCosts
	if m.RealTimeScale > 0 {
		world.TimeConfig.RealTimeScale = m.RealTimeScale
	}
	if err := s.UC.Repo.SaveWorld(ctx, world); err != nil {
		s.Manager.sendError(c, ErrRepo, err.Error())
		return
	}
	s.Manager.broadcastWorld(c.WorldID, evtTimeConfigUpdated, struct {
		ActionCosts   map[string]int64 `json:"action_costs"`
		RealTimeScale float64          `json:"real_time_scale"`
	}{world.TimeConfig.ActionCosts, world.TimeConfig.RealTimeScale})
}

// handleRespondToTimeSuggestion implements RespondToTimeSuggestion: the DM
// approves, modifies, or skips a pending action-cost time suggestion.
func (s *Server) handleRespondToTimeSuggestion(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[respondToTimeSuggestionMsg](s, c, data)
	if !ok {
		return
	}
	suggestionID, err := parseSuggestionID(m.SuggestionID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid suggestion_id")
		return
	}
	var decision domain.TimeSuggestionDecision
	switch m.Decision {
	case "approve":
		decision = domain.DecisionApprove
	case "modify":
		decision = domain.DecisionModify
	case "skip":
		decision = domain.DecisionSkip
	default:
		s.Manager.sendError(c, ErrInvalidTarget, "unknown decision: "+m.Decision)
		return
	}
	if _, err := s.UC.RespondToTimeSuggestion(ctx, suggestionID, decision, m.Seconds); err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
	}
}
