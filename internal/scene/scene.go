// Package scene implements the movement and scene-resolution subsystem:
// reachability validation, scene resolution, and the pure SceneChanged
// assembly step.
package scene

import (
	"context"
	"fmt"

	"github.com/duskward/loomkeeper/internal/condition"
	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// ErrUnreachable is returned when a target region or location is not
// reachable from the origin region.
var ErrUnreachable = fmt.Errorf("scene: target is not reachable")

// Store is the persistence contract the scene subsystem needs from
// internal/repo.Repo.
type Store interface {
	GetRegion(ctx context.Context, id ids.RegionID) (domain.Region, error)
	GetLocation(ctx context.Context, id ids.LocationID) (domain.Location, error)
	ConnectionsFrom(ctx context.Context, regionID ids.RegionID) ([]domain.RegionConnection, error)
	ExitsFrom(ctx context.Context, regionID ids.RegionID) ([]domain.RegionExit, error)
	ListScenesByRegion(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) ([]domain.Scene, error)
	ListItemsByRegion(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) ([]domain.Item, error)
}

// Resolver implements reachability validation and scene resolution.
type Resolver struct {
	store     Store
	evaluator *condition.Evaluator // may be nil
}

// New constructs a Resolver. evaluator may be nil, in which case custom
// scene conditions are always treated as unmet.
func New(store Store, evaluator *condition.Evaluator) *Resolver {
	return &Resolver{store: store, evaluator: evaluator}
}

// ValidateRegionMove reports whether toRegion is reachable from fromRegion
// via an unlocked RegionConnection.3 step 1.
func (r *Resolver) ValidateRegionMove(ctx context.Context, fromRegion, toRegion ids.RegionID) error {
	conns, err := r.store.ConnectionsFrom(ctx, fromRegion)
	if err != nil {
		return err
	}
	for _, c := range conns {
		if c.ToRegionID == toRegion && !c.IsLocked {
			return nil
		}
	}
	return ErrUnreachable
}

// ValidateLocationExit reports whether an exit from fromRegion to
// toLocation exists, and returns the region the PC would arrive in.
func (r *Resolver) ValidateLocationExit(ctx context.Context, fromRegion ids.RegionID, toLocation ids.LocationID) (ids.RegionID, error) {
	exits, err := r.store.ExitsFrom(ctx, fromRegion)
	if err != nil {
		return ids.RegionID{}, err
	}
	for _, e := range exits {
		if e.ToLocationID == toLocation {
			return e.ArrivalRegionID, nil
		}
	}
	return ids.RegionID{}, ErrUnreachable
}

// ResolveScene resolves the highest-order Scene hosted in regionID whose
// TimeContext matches and whose conditions are all met. Returns (nil, nil)
// if no scene is hosted or none match.
func (r *Resolver) ResolveScene(ctx context.Context, gameContext string, worldID ids.WorldID, regionID ids.RegionID, evalCtx domain.SceneEvalContext) (*domain.Scene, error) {
	candidates, err := r.store.ListScenesByRegion(ctx, worldID, regionID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if evalCtx.CustomResults == nil {
		evalCtx.CustomResults = map[string]bool{}
	}
	if r.evaluator != nil {
		descs := collectCustomConditionDescs(candidates)
		if len(descs) > 0 {
			results, err := r.evaluator.Evaluate(ctx, gameContext, descs)
			if err == nil {
				for desc, res := range results {
					evalCtx.CustomResults[desc] = res.IsMet
				}
			}
		}
	}

	var best *domain.Scene
	for i := range candidates {
		sc := &candidates[i]
		if !sc.TimeContext.Matches(evalCtx.TimeOfDay) {
			continue
		}
		if !allConditionsMet(sc.Conditions, evalCtx) {
			continue
		}
		if best == nil || sc.Order > best.Order {
			best = sc
		}
	}
	return best, nil
}

func collectCustomConditionDescs(scenes []domain.Scene) []string {
	seen := map[string]bool{}
	var out []string
	for _, sc := range scenes {
		for _, cond := range sc.Conditions {
			if cond.Kind == domain.ConditionCustom && !seen[cond.CustomDesc] {
				seen[cond.CustomDesc] = true
				out = append(out, cond.CustomDesc)
			}
		}
	}
	return out
}

func allConditionsMet(conditions []domain.SceneCondition, evalCtx domain.SceneEvalContext) bool {
	for _, cond := range conditions {
		switch cond.Kind {
		case domain.ConditionCompletedScene:
			if !evalCtx.CompletedScenes[cond.SceneID] {
				return false
			}
		case domain.ConditionHasItem:
			if !evalCtx.InventoryItems[cond.ItemID] {
				return false
			}
		case domain.ConditionKnowsCharacter:
			if !evalCtx.KnownCharacters[cond.CharacterID] {
				return false
			}
		case domain.ConditionFlagSet:
			if !evalCtx.WorldFlags[cond.FlagName] && !evalCtx.PCFlags[cond.FlagName] {
				return false
			}
		case domain.ConditionCustom:
			if !evalCtx.CustomResults[cond.CustomDesc] {
				return false
			}
		}
	}
	return true
}

// BuildSceneChangeInput carries every resolved entity the pure
// BuildSceneChanged assembly step needs.
type BuildSceneChangeInput struct {
	PCID           ids.PCID
	Region         domain.Region
	Location       domain.Location
	VisibleNPCs    []domain.StagedNpc
	Connections    []domain.RegionConnection
	ConnectedNames map[ids.RegionID]string // region_id -> name, for connections whose target still exists
	Exits          []domain.RegionExit
	ExitLocationNames map[ids.LocationID]string
	Items          []domain.Item
	Resolution     domain.VisualResolution
	LocationDefaultBackdrop string
	Scene          *domain.Scene
}

// BuildSceneChanged assembles a SceneChanged event. It is a pure function:
// missing related entities (absent from ConnectedNames or ExitLocationNames)
// are skipped rather than erroring.
func BuildSceneChanged(in BuildSceneChangeInput) domain.SceneChanged {
	backdrop := in.LocationDefaultBackdrop
	atmosphere := ""
	mapAsset := ""
	if in.Resolution.LocationState != nil {
		if in.Resolution.LocationState.BackdropOverride != "" {
			backdrop = in.Resolution.LocationState.BackdropOverride
		}
		atmosphere = in.Resolution.LocationState.AtmosphereOverride
		mapAsset = in.Resolution.LocationState.MapOverlay
	}
	if in.Resolution.RegionState != nil {
		if in.Resolution.RegionState.BackdropOverride != "" {
			backdrop = in.Resolution.RegionState.BackdropOverride
		}
		if in.Resolution.RegionState.AtmosphereOverride != "" {
			atmosphere = in.Resolution.RegionState.AtmosphereOverride
		}
	}

	npcs := make([]domain.NpcPresence, 0, len(in.VisibleNPCs))
	for _, n := range in.VisibleNPCs {
		npcs = append(npcs, domain.NpcPresence{
			CharacterID: n.CharacterID,
			Name:        n.Name,
			Sprite:      n.Sprite,
			Portrait:    n.Portrait,
		})
	}

	connected := make([]domain.ConnectedRegionSummary, 0, len(in.Connections))
	for _, c := range in.Connections {
		name, ok := in.ConnectedNames[c.ToRegionID]
		if !ok {
			continue // target region no longer exists; skip, don't error
		}
		connected = append(connected, domain.ConnectedRegionSummary{
			RegionID: c.ToRegionID,
			Name:     name,
			IsLocked: c.IsLocked,
			LockDesc: c.LockDesc,
		})
	}

	exits := make([]domain.ExitSummary, 0, len(in.Exits))
	for _, e := range in.Exits {
		name, ok := in.ExitLocationNames[e.ToLocationID]
		if !ok {
			continue
		}
		exits = append(exits, domain.ExitSummary{
			LocationID:      e.ToLocationID,
			LocationName:    name,
			ArrivalRegionID: e.ArrivalRegionID,
			Description:     e.Description,
		})
	}

	items := make([]domain.RegionItemSummary, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, domain.RegionItemSummary{
			ItemID:      it.ID,
			Name:        it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
		})
	}

	return domain.SceneChanged{
		PCID: in.PCID,
		Region: domain.RegionSummary{
			ID:           in.Region.ID,
			Name:         in.Region.Name,
			LocationID:   in.Location.ID,
			LocationName: in.Location.Name,
			Backdrop:     backdrop,
			Atmosphere:   atmosphere,
			MapAsset:     mapAsset,
		},
		NPCsPresent: npcs,
		Navigation: domain.Navigation{
			ConnectedRegions: connected,
			Exits:            exits,
		},
		RegionItems: items,
		Scene:       in.Scene,
	}
}
