// Package timeservice normalizes game-time arithmetic, computes
// action-cost time suggestions, and holds the process-wide pending
// suggestions store.
package timeservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/duskward/loomkeeper/internal/clockrand"
	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/eventbus"
	"github.com/duskward/loomkeeper/internal/ids"
)

// ErrNotPaused reports a pause request for a world whose time is already
// paused. Pause does not return it: Pause sets the flag to the requested value
// whatever its previous value.
var ErrNotPaused = fmt.Errorf("timeservice: already paused")

// ErrSuggestionNotFound is returned when resolving an unknown suggestion ID.
var ErrSuggestionNotFound = fmt.Errorf("timeservice: suggestion not found")

// WorldTimeStore is the minimal persistence contract the service needs:
// read/write a world's GameTime and TimeConfig. internal/repo.Repo
// satisfies this via GetWorld/SaveWorld.
type WorldTimeStore interface {
	GetWorld(ctx context.Context, id ids.WorldID) (domain.World, error)
	SaveWorld(ctx context.Context, w domain.World) error
}

// Service implements the game-time model.
type Service struct {
	store WorldTimeStore
	clock clockrand.Clock
	bus   *eventbus.Bus

	mu           sync.Mutex
	suggestions  map[ids.SuggestionID]domain.TimeSuggestion
}

// New constructs a Service.
func New(store WorldTimeStore, clock clockrand.Clock, bus *eventbus.Bus) *Service {
	return &Service{
		store:       store,
		clock:       clock,
		bus:         bus,
		suggestions: make(map[ids.SuggestionID]domain.TimeSuggestion),
	}
}

// GameTimeAdvancedEvent is published on eventbus.TimeAdvanced.
type GameTimeAdvancedEvent struct {
	WorldID        ids.WorldID
	GameTime       domain.GameTime
	MinutesAdvanced int64
}

// SetGameTime pins the world's clock to an explicit day/hour/minute (Manual
// mode DM action).
func (s *Service) SetGameTime(ctx context.Context, worldID ids.WorldID, day int64, hour, minute int) (domain.GameTime, error) {
	w, err := s.store.GetWorld(ctx, worldID)
	if err != nil {
		return domain.GameTime{}, err
	}
	before := w.GameTime
	w.GameTime = w.GameTime.Set(day, hour, minute)
	if err := s.store.SaveWorld(ctx, w); err != nil {
		return domain.GameTime{}, err
	}
	s.bus.Publish(ctx, eventbus.TimeAdvanced, GameTimeAdvancedEvent{
		WorldID:         worldID,
		GameTime:        w.GameTime,
		MinutesAdvanced: w.GameTime.TotalMinutes - before.TotalMinutes,
	})
	return w.GameTime, nil
}

// Pause toggles the world's paused flag.
func (s *Service) Pause(ctx context.Context, worldID ids.WorldID, paused bool) error {
	w, err := s.store.GetWorld(ctx, worldID)
	if err != nil {
		return err
	}
	w.GameTime.IsPaused = paused
	return s.store.SaveWorld(ctx, w)
}

// AdvanceBySeconds advances the world's clock by deltaSeconds (identity if
// paused or delta is zero) and publishes GameTimeAdvancedEvent.
func (s *Service) AdvanceBySeconds(ctx context.Context, worldID ids.WorldID, deltaSeconds int64) (domain.GameTime, error) {
	w, err := s.store.GetWorld(ctx, worldID)
	if err != nil {
		return domain.GameTime{}, err
	}
	before := w.GameTime
	w.GameTime = w.GameTime.Advance(deltaSeconds)
	if w.GameTime == before {
		return w.GameTime, nil
	}
	if err := s.store.SaveWorld(ctx, w); err != nil {
		return domain.GameTime{}, err
	}
	s.bus.Publish(ctx, eventbus.TimeAdvanced, GameTimeAdvancedEvent{
		WorldID:         worldID,
		GameTime:        w.GameTime,
		MinutesAdvanced: w.GameTime.TotalMinutes - before.TotalMinutes,
	})
	return w.GameTime, nil
}

// ActionCost looks up the configured cost (seconds) for actionType in
// worldID's TimeConfig, returning 0 if unconfigured.
func (s *Service) ActionCost(ctx context.Context, worldID ids.WorldID, actionType string) (int64, error) {
	w, err := s.store.GetWorld(ctx, worldID)
	if err != nil {
		return 0, err
	}
	return w.TimeConfig.ActionCosts[actionType], nil
}

// SuggestTime builds a TimeSuggestion for a PC action and stores it in the
// process-wide pending store. It does not advance time; the DM must respond
// via Resolve.
func (s *Service) SuggestTime(worldID ids.WorldID, pcID ids.PCID, pcName, actionType, destination string, suggestedSeconds int64) domain.TimeSuggestion {
	sugg := domain.TimeSuggestion{
		ID:               ids.NewSuggestionID(),
		WorldID:          worldID,
		PCID:             pcID,
		PCName:           pcName,
		ActionType:       actionType,
		Destination:      destination,
		SuggestedSeconds: suggestedSeconds,
		CreatedAt:        s.clock.Now(),
	}
	s.mu.Lock()
	s.suggestions[sugg.ID] = sugg
	s.mu.Unlock()
	return sugg
}

// Resolve applies the DM's decision on a pending suggestion. Approve
// advances by the original suggested seconds; Modify advances by
// modifiedSeconds; Skip advances by nothing. The suggestion is removed from
// the pending store in every case.
func (s *Service) Resolve(ctx context.Context, suggestionID ids.SuggestionID, decision domain.TimeSuggestionDecision, modifiedSeconds int64) (domain.GameTime, error) {
	s.mu.Lock()
	sugg, ok := s.suggestions[suggestionID]
	if ok {
		delete(s.suggestions, suggestionID)
	}
	s.mu.Unlock()
	if !ok {
		return domain.GameTime{}, ErrSuggestionNotFound
	}

	switch decision {
	case domain.DecisionApprove:
		return s.AdvanceBySeconds(ctx, sugg.WorldID, sugg.SuggestedSeconds)
	case domain.DecisionModify:
		return s.AdvanceBySeconds(ctx, sugg.WorldID, modifiedSeconds)
	default: // Skip
		w, err := s.store.GetWorld(ctx, sugg.WorldID)
		if err != nil {
			return domain.GameTime{}, err
		}
		return w.GameTime, nil
	}
}

// DropPending discards every pending suggestion for worldID. Called on
// world unload: unresolved suggestions do not carry over.
func (s *Service) DropPending(worldID ids.WorldID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sugg := range s.suggestions {
		if sugg.WorldID == worldID {
			delete(s.suggestions, id)
		}
	}
}

// runRealTime advances worldID's clock by wall-clock delta scaled by
// TimeConfig.RealTimeScale, once per tick, until ctx is done. It does
// nothing while the world is paused.
func (s *Service) runRealTime(ctx context.Context, worldID ids.WorldID, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w, err := s.store.GetWorld(ctx, worldID)
			if err != nil || w.TimeConfig.Mode != domain.TimeModeRealTime || w.GameTime.IsPaused {
				continue
			}
			scale := w.TimeConfig.RealTimeScale
			if scale <= 0 {
				scale = 1
			}
			delta := int64(tick.Seconds() * scale)
			_, _ = s.AdvanceBySeconds(ctx, worldID, delta)
		}
	}
}

// RunRealTime starts the RealTime background ticker for worldID and blocks
// until ctx is cancelled. Callers run it in its own goroutine (or under an
// errgroup).
func (s *Service) RunRealTime(ctx context.Context, worldID ids.WorldID, tick time.Duration) {
	s.runRealTime(ctx, worldID, tick)
}
