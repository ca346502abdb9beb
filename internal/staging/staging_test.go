package staging

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
	stagings []domain.Staging
	rels     map[ids.CharacterID][]domain.RegionRelationship
	chars    []domain.Character
}

func (f *fakeStore) GetActiveStaging(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID, now time.Time) (*domain.Staging, error) {
	for i := len(f.stagings) - 1; i >= 0; i-- {
		s := f.stagings[i]
		if s.RegionID == regionID && s.IsValid(now) {
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetLastStaging(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) (*domain.Staging, error) {
	var latest *domain.Staging
	for i := range f.stagings {
		s := f.stagings[i]
		if s.RegionID != regionID {
			continue
		}
		if latest == nil || s.ApprovedAt.After(latest.ApprovedAt) {
			latest = &s
		}
	}
	return latest, nil
}

func (f *fakeStore) SaveStaging(ctx context.Context, s domain.Staging) error {
	if s.IsActive {
		for i := range f.stagings {
			if f.stagings[i].RegionID == s.RegionID && f.stagings[i].ID != s.ID {
				f.stagings[i].IsActive = false
			}
		}
	}
	f.stagings = append(f.stagings, s)
	return nil
}

func (f *fakeStore) RegionRelationshipsFor(ctx context.Context, characterID ids.CharacterID) ([]domain.RegionRelationship, error) {
	return f.rels[characterID], nil
}

func (f *fakeStore) ListCharacters(ctx context.Context, worldID ids.WorldID) ([]domain.Character, error) {
	return f.chars, nil
}

func TestService_Resolve_PendingWhenNoActiveStaging(t *testing.T) {
	regionID := ids.NewRegionID()
	store := &fakeStore{}
	svc := New(store, nil, clockrand.NewFixedClock(time.Now()), eventbus.New())

	status, err := svc.Resolve(context.Background(), ids.NewWorldID(), regionID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !status.Pending || status.Ready {
		t.Errorf("expected Pending status, got %+v", status)
	}
}

func TestService_ApproveThenResolve_Ready(t *testing.T) {
	worldID := ids.NewWorldID()
	regionID := ids.NewRegionID()
	locationID := ids.NewLocationID()
	clock := clockrand.NewFixedClock(time.Now())
	store := &fakeStore{}
	svc := New(store, nil, clock, eventbus.New())

	npc := domain.StagedNpc{CharacterID: ids.NewCharacterID(), Name: "Mira", IsPresent: true}
	_, err := svc.Approve(context.Background(), worldID, regionID, locationID, ids.NewUserID(), domain.StagingRuleBased, "", []domain.StagedNpc{npc}, 2)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	status, err := svc.Resolve(context.Background(), worldID, regionID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !status.Ready {
		t.Fatalf("expected Ready status after approval, got %+v", status)
	}
	if len(status.Staging.VisibleNPCs()) != 1 {
		t.Errorf("expected 1 visible NPC, got %d", len(status.Staging.VisibleNPCs()))
	}
}

func TestService_Approve_DemotesPrevious(t *testing.T) {
	worldID := ids.NewWorldID()
	regionID := ids.NewRegionID()
	locationID := ids.NewLocationID()
	clock := clockrand.NewFixedClock(time.Now())
	store := &fakeStore{}
	svc := New(store, nil, clock, eventbus.New())

	first, err := svc.Approve(context.Background(), worldID, regionID, locationID, ids.NewUserID(), domain.StagingDMManual, "", nil, 2)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	_, err = svc.Approve(context.Background(), worldID, regionID, locationID, ids.NewUserID(), domain.StagingDMManual, "", nil, 2)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	for _, s := range store.stagings {
		if s.ID == first.ID && s.IsActive {
			t.Error("expected the first staging to be demoted after a second approval")
		}
	}
}

func TestService_BuildProposal_RuleBasedFromRelationships(t *testing.T) {
	worldID := ids.NewWorldID()
	regionID := ids.NewRegionID()
	npcID := ids.NewCharacterID()
	store := &fakeStore{
		chars: []domain.Character{{ID: npcID, WorldID: worldID, Name: "Bram"}},
		rels: map[ids.CharacterID][]domain.RegionRelationship{
			npcID: {{CharacterID: npcID, RegionID: regionID, Frequency: domain.FrequencyHome}},
		},
	}
	svc := New(store, nil, clockrand.NewFixedClock(time.Now()), eventbus.New())

	proposal, err := svc.BuildProposal(context.Background(), worldID, regionID, "The Hearth", "Millbrook", "")
	if err != nil {
		t.Fatalf("BuildProposal: %v", err)
	}
	if len(proposal.RuleBased) != 1 || proposal.RuleBased[0].CharacterID != npcID {
		t.Errorf("expected rule-based half to surface Bram, got %+v", proposal.RuleBased)
	}
	if proposal.LLMBased != nil {
		t.Error("expected nil LLM half when no provider is configured")
	}
}
