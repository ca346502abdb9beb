// Package staging implements the staging subsystem: resolving "who is here
// right now" for a region, building two-halved DM approval proposals,
// approving/pre-staging, and deduped regeneration of the LLM half.
package staging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/duskward/loomkeeper/internal/clockrand"
	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/eventbus"
	"github.com/duskward/loomkeeper/internal/ids"
	llm "github.com/duskward/loomkeeper/internal/llmprovider"
	"github.com/duskward/loomkeeper/internal/llmtypes"
)

// Store is the persistence contract staging needs from internal/repo.Repo.
type Store interface {
	GetActiveStaging(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID, now time.Time) (*domain.Staging, error)
	GetLastStaging(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) (*domain.Staging, error)
	SaveStaging(ctx context.Context, s domain.Staging) error
	RegionRelationshipsFor(ctx context.Context, characterID ids.CharacterID) ([]domain.RegionRelationship, error)
	ListCharacters(ctx context.Context, worldID ids.WorldID) ([]domain.Character, error)
}

// DefaultTTLHours is used when a staging is approved without an explicit TTL.
const DefaultTTLHours = 4.0

// Service implements the staging subsystem.
type Service struct {
	store Store
	llm   llm.Provider // may be nil; the LLM half is then simply empty
	clock clockrand.Clock
	bus   *eventbus.Bus

	sf singleflight.Group
}

// New constructs a Service. llmProvider may be nil.
func New(store Store, llmProvider llm.Provider, clock clockrand.Clock, bus *eventbus.Bus) *Service {
	return &Service{store: store, llm: llmProvider, clock: clock, bus: bus}
}

// Resolve answers "who is here right now" for a region.
func (s *Service) Resolve(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID) (domain.StagingStatus, error) {
	active, err := s.store.GetActiveStaging(ctx, worldID, regionID, s.clock.Now())
	if err != nil {
		return domain.StagingStatus{}, err
	}
	if active != nil {
		return domain.StagingStatus{Ready: true, Staging: active}, nil
	}
	previous, err := s.store.GetLastStaging(ctx, worldID, regionID)
	if err != nil {
		return domain.StagingStatus{}, err
	}
	return domain.StagingStatus{Pending: true, Previous: previous}, nil
}

// BuildProposal assembles the two-halved DM approval proposal for regionID
// when it lacks an active staging. locationName and dmGuidance are passed
// through to the LLM half's prompt.
func (s *Service) BuildProposal(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID, regionName, locationName, dmGuidance string) (domain.StagingProposal, error) {
	characters, err := s.store.ListCharacters(ctx, worldID)
	if err != nil {
		return domain.StagingProposal{}, err
	}

	ruleBased, err := s.ruleBasedHalf(ctx, regionID, characters)
	if err != nil {
		return domain.StagingProposal{}, err
	}

	llmBased := s.llmBasedHalf(ctx, regionName, locationName, dmGuidance, characters)

	return domain.StagingProposal{
		RegionID:   regionID,
		RuleBased:  ruleBased,
		LLMBased:   llmBased,
		DefaultTTL: DefaultTTLHours,
	}, nil
}

// ruleBasedHalf yields a StagedNpc for every character with a region
// relationship (home/work/frequents) to regionID.
func (s *Service) ruleBasedHalf(ctx context.Context, regionID ids.RegionID, characters []domain.Character) ([]domain.StagedNpc, error) {
	var out []domain.StagedNpc
	for _, c := range characters {
		rels, err := s.store.RegionRelationshipsFor(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, rel := range rels {
			if rel.RegionID != regionID {
				continue
			}
			out = append(out, domain.StagedNpc{
				CharacterID: c.ID,
				Name:        c.Name,
				Sprite:      c.SpriteAsset,
				Portrait:    c.PortraitAsset,
				IsPresent:   true,
				Mood:        c.DefaultMood,
				Reasoning:   ruleReasoning(c.Name, rel.Frequency),
			})
		}
	}
	return out, nil
}

func ruleReasoning(name string, freq domain.RegionFrequency) string {
	switch freq {
	case domain.FrequencyHome:
		return fmt.Sprintf("%s lives here", name)
	case domain.FrequencyWork:
		return fmt.Sprintf("%s works here", name)
	default:
		return fmt.Sprintf("%s frequents this area", name)
	}
}

type llmStagingRow struct {
	CharacterID string `json:"character_id"`
	IsPresent   bool   `json:"is_present"`
	Reasoning   string `json:"reasoning"`
}

// llmBasedHalf prompts the LLM with the candidate NPC list and parses its
// proposed presences. Bad JSON or unknown character IDs are dropped
// silently; a nil provider yields an empty half.
func (s *Service) llmBasedHalf(ctx context.Context, regionName, locationName, dmGuidance string, characters []domain.Character) []domain.StagedNpc {
	if s.llm == nil || len(characters) == 0 {
		return nil
	}

	prompt := buildStagingPrompt(regionName, locationName, dmGuidance, characters)
	resp, err := s.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: stagingSystemPrompt,
		Messages: []llmtypes.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil
	}

	var rows []llmStagingRow
	if err := json.Unmarshal([]byte(resp.Content), &rows); err != nil {
		return nil
	}

	byID := make(map[ids.CharacterID]domain.Character, len(characters))
	for _, c := range characters {
		byID[c.ID] = c
	}

	var out []domain.StagedNpc
	for _, row := range rows {
		cid, err := ids.ParseCharacterID(row.CharacterID)
		if err != nil {
			continue
		}
		c, ok := byID[cid]
		if !ok {
			continue
		}
		out = append(out, domain.StagedNpc{
			CharacterID: cid,
			Name:        c.Name,
			Sprite:      c.SpriteAsset,
			Portrait:    c.PortraitAsset,
			IsPresent:   row.IsPresent,
			Mood:        c.DefaultMood,
			Reasoning:   row.Reasoning,
		})
	}
	return out
}

const stagingSystemPrompt = `You decide which NPCs are plausibly present in a
location right now. Respond with a JSON array of
{"character_id","is_present","reasoning"}, one per candidate NPC. Never invent
character IDs not given to you.`

func buildStagingPrompt(regionName, locationName, dmGuidance string, characters []domain.Character) string {
	names := make([]map[string]string, 0, len(characters))
	for _, c := range characters {
		names = append(names, map[string]string{"character_id": c.ID.String(), "name": c.Name, "archetype": c.Archetype})
	}
	b, _ := json.Marshal(names)
	return fmt.Sprintf("Region: %s\nLocation: %s\nDM guidance: %s\nCandidate NPCs:\n%s",
		regionName, locationName, dmGuidance, string(b))
}

// Approve writes a new active Staging for regionID, demoting any existing
// active staging for the same region. ttlHours of zero or below uses
// DefaultTTLHours.
func (s *Service) Approve(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID, locationID ids.LocationID, approvedBy ids.UserID, source domain.StagingSource, dmGuidance string, npcs []domain.StagedNpc, ttlHours float64) (domain.Staging, error) {
	if ttlHours <= 0 {
		ttlHours = DefaultTTLHours
	}
	staging := domain.Staging{
		ID:         ids.NewStagingID(),
		RegionID:   regionID,
		LocationID: locationID,
		WorldID:    worldID,
		ApprovedAt: s.clock.Now(),
		TTLHours:   ttlHours,
		ApprovedBy: approvedBy,
		Source:     source,
		IsActive:   true,
		DMGuidance: dmGuidance,
		NPCs:       npcs,
	}
	if err := s.store.SaveStaging(ctx, staging); err != nil {
		return domain.Staging{}, err
	}
	s.bus.Publish(ctx, eventbus.StagingApproved, staging)
	return staging, nil
}

// PreStage is the same operation as Approve, initiated by the DM ahead of any
// PC arrival; kept as a distinct entry point for callers/use cases to name
// explicitly.
func (s *Service) PreStage(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID, locationID ids.LocationID, approvedBy ids.UserID, dmGuidance string, npcs []domain.StagedNpc, ttlHours float64) (domain.Staging, error) {
	return s.Approve(ctx, worldID, regionID, locationID, approvedBy, domain.StagingDMManual, dmGuidance, npcs, ttlHours)
}

// Regenerate re-runs the LLM half with explicit guidance and returns a fresh
// proposal; it never writes staging. Concurrent regeneration calls for the
// same region are deduplicated via singleflight.
func (s *Service) Regenerate(ctx context.Context, worldID ids.WorldID, regionID ids.RegionID, regionName, locationName, dmGuidance string) (domain.StagingProposal, error) {
	key := regionID.String()
	v, err, _ := s.sf.Do(key, func() (any, error) {
		characters, err := s.store.ListCharacters(ctx, worldID)
		if err != nil {
			return domain.StagingProposal{}, err
		}
		llmBased := s.llmBasedHalf(ctx, regionName, locationName, dmGuidance, characters)
		return domain.StagingProposal{
			RegionID:   regionID,
			LLMBased:   llmBased,
			DefaultTTL: DefaultTTLHours,
		}, nil
	})
	if err != nil {
		return domain.StagingProposal{}, err
	}
	return v.(domain.StagingProposal), nil
}
