package scene

import (
	"context"
	"testing"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

type fakeStore struct {
	conns  map[ids.RegionID][]domain.RegionConnection
	exits  map[ids.RegionID][]domain.RegionExit
	scenes map[ids.RegionID][]domain.Scene
	items  map[ids.RegionID][]domain.Item
}

func (f *fakeStore) GetRegion(ctx context.Context, id ids.RegionID) (domain.Region, error) {
	return domain.Region{ID: id}, nil
}
func (f *fakeStore) GetLocation(ctx context.Context, id ids.LocationID) (domain.Location, error) {
	return domain.Location{ID: id}, nil
}
func (f *fakeStore) ConnectionsFrom(ctx context.Context, regionID ids.RegionID) ([]domain.RegionConnection, error) {
	return f.conns[regionID], nil
}
func (f *fakeStore) ExitsFrom(ctx context.Context, regionID ids.RegionID) ([]domain.RegionExit, error) {
	return f.exits[regionID], nil
}
func (f *fakeStore) ListScenesByRegion(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) ([]domain.Scene, error) {
	return f.scenes[regionID], nil
}
func (f *fakeStore) ListItemsByRegion(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) ([]domain.Item, error) {
	return f.items[regionID], nil
}

func TestValidateRegionMove(t *testing.T) {
	from := ids.NewRegionID()
	to := ids.NewRegionID()
	locked := ids.NewRegionID()
	store := &fakeStore{conns: map[ids.RegionID][]domain.RegionConnection{
		from: {
			{RegionID: from, ToRegionID: to, IsLocked: false},
			{RegionID: from, ToRegionID: locked, IsLocked: true},
		},
	}}
	r := New(store, nil)

	if err := r.ValidateRegionMove(context.Background(), from, to); err != nil {
		t.Errorf("expected unlocked connection to be reachable, got %v", err)
	}
	if err := r.ValidateRegionMove(context.Background(), from, locked); err != ErrUnreachable {
		t.Errorf("expected locked connection to be unreachable, got %v", err)
	}
	if err := r.ValidateRegionMove(context.Background(), from, ids.NewRegionID()); err != ErrUnreachable {
		t.Errorf("expected unconnected region to be unreachable, got %v", err)
	}
}

func TestResolveScene_HighestOrderAmongMatches(t *testing.T) {
	regionID := ids.NewRegionID()
	worldID := ids.NewWorldID()
	store := &fakeStore{scenes: map[ids.RegionID][]domain.Scene{
		regionID: {
			{Name: "low", Order: 1, TimeContext: domain.TimeContext{Kind: domain.TimeContextUnspecified}},
			{Name: "high", Order: 5, TimeContext: domain.TimeContext{Kind: domain.TimeContextUnspecified}},
			{Name: "wrong-time", Order: 10, TimeContext: domain.TimeContext{Kind: domain.TimeContextTimeOfDay, TimeOfDay: domain.Night}},
		},
	}}
	r := New(store, nil)

	got, err := r.ResolveScene(context.Background(), "", worldID, regionID, domain.SceneEvalContext{TimeOfDay: domain.Morning})
	if err != nil {
		t.Fatalf("ResolveScene: %v", err)
	}
	if got == nil || got.Name != "high" {
		t.Fatalf("expected 'high' scene to win, got %+v", got)
	}
}

func TestResolveScene_UnmetConditionExcludesScene(t *testing.T) {
	regionID := ids.NewRegionID()
	worldID := ids.NewWorldID()
	store := &fakeStore{scenes: map[ids.RegionID][]domain.Scene{
		regionID: {
			{Name: "needs-item", Order: 1, Conditions: []domain.SceneCondition{{Kind: domain.ConditionHasItem, ItemID: ids.NewItemID()}}},
		},
	}}
	r := New(store, nil)

	got, err := r.ResolveScene(context.Background(), "", worldID, regionID, domain.SceneEvalContext{InventoryItems: map[ids.ItemID]bool{}})
	if err != nil {
		t.Fatalf("ResolveScene: %v", err)
	}
	if got != nil {
		t.Errorf("expected no scene to match, got %+v", got)
	}
}

func TestResolveScene_NoScenesReturnsNil(t *testing.T) {
	store := &fakeStore{}
	r := New(store, nil)
	got, err := r.ResolveScene(context.Background(), "", ids.NewWorldID(), ids.NewRegionID(), domain.SceneEvalContext{})
	if err != nil {
		t.Fatalf("ResolveScene: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil scene when region hosts none, got %+v", got)
	}
}

func TestBuildSceneChanged_SkipsMissingConnectedRegion(t *testing.T) {
	region := domain.Region{ID: ids.NewRegionID(), Name: "Square"}
	location := domain.Location{ID: ids.NewLocationID(), Name: "Millbrook"}
	deletedTarget := ids.NewRegionID()

	out := BuildSceneChanged(BuildSceneChangeInput{
		Region:         region,
		Location:       location,
		Connections:    []domain.RegionConnection{{RegionID: region.ID, ToRegionID: deletedTarget}},
		ConnectedNames: map[ids.RegionID]string{}, // deletedTarget absent
	})
	if len(out.Navigation.ConnectedRegions) != 0 {
		t.Errorf("expected deleted connected region to be skipped, got %+v", out.Navigation.ConnectedRegions)
	}
}

func TestBuildSceneChanged_BackdropPrecedence(t *testing.T) {
	region := domain.Region{ID: ids.NewRegionID(), Name: "Square"}
	location := domain.Location{ID: ids.NewLocationID(), Name: "Millbrook"}

	out := BuildSceneChanged(BuildSceneChangeInput{
		Region:                  region,
		Location:                location,
		LocationDefaultBackdrop: "default.png",
		Resolution: domain.VisualResolution{
			LocationState: &domain.LocationState{BackdropOverride: "location-override.png"},
			RegionState:   &domain.RegionState{BackdropOverride: "region-override.png"},
		},
	})
	if out.Region.Backdrop != "region-override.png" {
		t.Errorf("expected region override to win, got %q", out.Region.Backdrop)
	}
}
