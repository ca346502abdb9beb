package timeservice

import (
	"context"
	"testing"
	"time"

	"github.com/duskward/loomkeeper/internal/clockrand"
	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/eventbus"
	"github.com/duskward/loomkeeper/internal/ids"
)

type fakeStore struct {
	worlds map[ids.WorldID]domain.World
}

func newFakeStore(w domain.World) *fakeStore {
	return &fakeStore{worlds: map[ids.WorldID]domain.World{w.ID: w}}
}

func (f *fakeStore) GetWorld(ctx context.Context, id ids.WorldID) (domain.World, error) {
	return f.worlds[id], nil
}

func (f *fakeStore) SaveWorld(ctx context.Context, w domain.World) error {
	f.worlds[w.ID] = w
	return nil
}

func TestService_AdvanceBySeconds_PublishesEvent(t *testing.T) {
	worldID := ids.NewWorldID()
	store := newFakeStore(domain.World{ID: worldID})
	bus := eventbus.New()
	var got *GameTimeAdvancedEvent
	bus.Subscribe(eventbus.TimeAdvanced, func(ctx context.Context, payload any) {
		ev := payload.(GameTimeAdvancedEvent)
		got = &ev
	})

	svc := New(store, clockrand.SystemClock{}, bus)
	gt, err := svc.AdvanceBySeconds(context.Background(), worldID, 3600)
	if err != nil {
		t.Fatalf("AdvanceBySeconds: %v", err)
	}
	if gt.Hour() != 1 {
		t.Errorf("expected hour 1, got %d", gt.Hour())
	}
	if got == nil {
		t.Fatal("expected TimeAdvanced event to be published")
	}
	if got.MinutesAdvanced != 60 {
		t.Errorf("expected 60 minutes advanced, got %d", got.MinutesAdvanced)
	}
}

func TestService_AdvanceBySeconds_PausedIsNoopAndNoEvent(t *testing.T) {
	worldID := ids.NewWorldID()
	store := newFakeStore(domain.World{ID: worldID, GameTime: domain.GameTime{IsPaused: true}})
	bus := eventbus.New()
	fired := false
	bus.Subscribe(eventbus.TimeAdvanced, func(ctx context.Context, payload any) { fired = true })

	svc := New(store, clockrand.SystemClock{}, bus)
	gt, err := svc.AdvanceBySeconds(context.Background(), worldID, 3600)
	if err != nil {
		t.Fatalf("AdvanceBySeconds: %v", err)
	}
	if gt.TotalMinutes != 0 {
		t.Errorf("paused clock must not advance, got %d", gt.TotalMinutes)
	}
	if fired {
		t.Error("paused no-op advance must not publish an event")
	}
}

func TestService_SuggestAndResolve_Approve(t *testing.T) {
	worldID := ids.NewWorldID()
	store := newFakeStore(domain.World{ID: worldID})
	svc := New(store, clockrand.NewFixedClock(time.Unix(0, 0)), eventbus.New())

	sugg := svc.SuggestTime(worldID, ids.NewPCID(), "Aria", "travel", "the market", 1800)
	gt, err := svc.Resolve(context.Background(), sugg.ID, domain.DecisionApprove, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gt.TotalMinutes != 30 {
		t.Errorf("expected 30 minutes advanced, got %d", gt.TotalMinutes)
	}
	if _, err := svc.Resolve(context.Background(), sugg.ID, domain.DecisionApprove, 0); err != ErrSuggestionNotFound {
		t.Errorf("resolving twice should return ErrSuggestionNotFound, got %v", err)
	}
}

func TestService_SuggestAndResolve_Skip(t *testing.T) {
	worldID := ids.NewWorldID()
	store := newFakeStore(domain.World{ID: worldID, GameTime: domain.GameTime{TotalMinutes: 120}})
	svc := New(store, clockrand.NewFixedClock(time.Unix(0, 0)), eventbus.New())

	sugg := svc.SuggestTime(worldID, ids.NewPCID(), "Aria", "travel", "the market", 1800)
	gt, err := svc.Resolve(context.Background(), sugg.ID, domain.DecisionSkip, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gt.TotalMinutes != 120 {
		t.Errorf("skip must not advance time, got %d", gt.TotalMinutes)
	}
}

func TestService_DropPending(t *testing.T) {
	worldA := ids.NewWorldID()
	worldB := ids.NewWorldID()
	store := newFakeStore(domain.World{ID: worldA})
	svc := New(store, clockrand.NewFixedClock(time.Unix(0, 0)), eventbus.New())

	suggA := svc.SuggestTime(worldA, ids.NewPCID(), "Aria", "travel", "x", 60)
	suggB := svc.SuggestTime(worldB, ids.NewPCID(), "Bram", "travel", "y", 60)
	svc.DropPending(worldA)

	if _, err := svc.Resolve(context.Background(), suggA.ID, domain.DecisionApprove, 0); err != ErrSuggestionNotFound {
		t.Error("expected world A's suggestion to have been dropped")
	}
	if _, err := svc.Resolve(context.Background(), suggB.ID, domain.DecisionSkip, 0); err != nil {
		t.Errorf("world B's suggestion should be unaffected: %v", err)
	}
}
