package postgres_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duskward/loomkeeper/internal/graphstore"
	pgstore "github.com/duskward/loomkeeper/internal/graphstore/pgstore"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if LOOMKEEPER_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("LOOMKEEPER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LOOMKEEPER_TEST_POSTGRES_DSN not set — skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore creates a fresh [pgstore.Store] with a clean schema.
// It calls t.Cleanup to close the store when the test finishes.
func newTestStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	// Use a bare pool to drop and recreate the schema.
	cleanPool := mustPool(t, ctx, dsn)
	t.Cleanup(cleanPool.Close)
	dropSchema(t, ctx, cleanPool)

	store, err := pgstore.NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func mustPool(t *testing.T, ctx context.Context, dsn string) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	return pool
}

// dropSchema removes all tables created by Migrate in reverse dependency order.
func dropSchema(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS relationships CASCADE",
		"DROP TABLE IF EXISTS entities CASCADE",
		"DROP TABLE IF EXISTS session_entries CASCADE",
	} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("dropSchema %q: %v", stmt, err)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// L1 — SessionStore
// ─────────────────────────────────────────────────────────────────────────────

func TestL1_WriteAndGetRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	l1 := store.L1()

	sessionID := "session-1"
	now := time.Now()
	entries := []graphstore.NarrativeEntry{
		{
			SpeakerID:   "player-1",
			SpeakerName: "Alice",
			Text:        "I approach the blacksmith cautiously.",
			RawText:     "I approach the blacksmith cautiously.",
			IsAI:       false,
			Timestamp:   now.Add(-10 * time.Minute),
			Duration:    2 * time.Second,
		},
		{
			SpeakerID:   "npc-grimjaw",
			SpeakerName: "Grimjaw",
			Text:        "What do ye want? I am busy forging.",
			IsAI:       true,
			ActorID:        "npc-grimjaw",
			Timestamp:   now.Add(-9 * time.Minute),
			Duration:    3 * time.Second,
		},
		{
			SpeakerID:   "player-1",
			SpeakerName: "Alice",
			Text:        "We need weapons for the upcoming battle.",
			Timestamp:   now.Add(-1 * time.Minute),
			Duration:    2500 * time.Millisecond,
		},
	}

	for _, e := range entries {
		if err := l1.WriteEntry(ctx, sessionID, e); err != nil {
			t.Fatalf("WriteEntry: %v", err)
		}
	}

	// GetRecent with a wide window should return all 3.
	recent, err := l1.GetRecent(ctx, sessionID, 30*time.Minute)
	if err != nil {
		t.Fatalf("GetRecent(30m): %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("GetRecent(30m): want 3, got %d", len(recent))
	}

	// GetRecent with a narrow window should return only the last entry.
	narrow, err := l1.GetRecent(ctx, sessionID, 5*time.Minute)
	if err != nil {
		t.Fatalf("GetRecent(5m): %v", err)
	}
	if len(narrow) != 1 {
		t.Errorf("GetRecent(5m): want 1, got %d", len(narrow))
	}
	if len(narrow) > 0 && narrow[0].Text != entries[2].Text {
		t.Errorf("GetRecent(5m): want %q, got %q", entries[2].Text, narrow[0].Text)
	}

	// GetRecent for a different session returns nothing.
	other, err := l1.GetRecent(ctx, "other-session", 30*time.Minute)
	if err != nil {
		t.Fatalf("GetRecent other: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("GetRecent other: want 0, got %d", len(other))
	}

	// Duration is round-tripped correctly.
	if len(recent) > 0 && recent[0].Duration != entries[0].Duration {
		t.Errorf("Duration: want %v, got %v", entries[0].Duration, recent[0].Duration)
	}
}

func TestL1_Search(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	l1 := store.L1()

	sessionID := "search-session"
	writeL1Entries(t, ctx, l1, sessionID, []graphstore.NarrativeEntry{
		{SpeakerID: "p1", Text: "The dragon hoards treasure in the mountain.", Timestamp: time.Now().Add(-5 * time.Minute)},
		{SpeakerID: "p2", Text: "We should negotiate with the goblin tribe.", Timestamp: time.Now().Add(-4 * time.Minute)},
		{SpeakerID: "npc1", IsAI: true, ActorID: "npc1", Text: "The prophecy speaks of a chosen hero.", Timestamp: time.Now().Add(-3 * time.Minute)},
	})

	tests := []struct {
		name      string
		query     string
		opts      graphstore.SearchOpts
		wantCount int
		wantText  string
	}{
		{
			name:      "dragon treasure",
			query:     "dragon treasure",
			opts:      graphstore.SearchOpts{SessionID: sessionID},
			wantCount: 1,
			wantText:  "dragon",
		},
		{
			name:      "goblin",
			query:     "goblin",
			opts:      graphstore.SearchOpts{SessionID: sessionID},
			wantCount: 1,
			wantText:  "goblin",
		},
		{
			name:      "npc speaker filter",
			query:     "prophecy",
			opts:      graphstore.SearchOpts{SessionID: sessionID, SpeakerID: "npc1"},
			wantCount: 1,
		},
		{
			name:      "no match",
			query:     "wizard tower",
			opts:      graphstore.SearchOpts{SessionID: sessionID},
			wantCount: 0,
		},
		{
			name:      "limit",
			query:     "the",
			opts:      graphstore.SearchOpts{SessionID: sessionID, Limit: 1},
			wantCount: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			results, err := l1.Search(ctx, tc.query, tc.opts)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(results) != tc.wantCount {
				t.Errorf("want %d results, got %d", tc.wantCount, len(results))
			}
			if tc.wantText != "" && len(results) > 0 {
				if !strings.Contains(strings.ToLower(results[0].Text), strings.ToLower(tc.wantText)) {
					t.Errorf("want %q in first result text, got %q", tc.wantText, results[0].Text)
				}
			}
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// L2 — Entity CRUD
// ─────────────────────────────────────────────────────────────────────────────

func TestL2_EntityCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entity := graphstore.Entity{
		ID:   "ent-grimjaw",
		Type: "npc",
		Name: "Grimjaw",
		Attributes: map[string]any{
			"occupation": "blacksmith",
			"alignment":  "neutral",
		},
	}

	// Add.
	if err := store.AddEntity(ctx, entity); err != nil {
		t.Fatalf("AddEntity: %v", err)
	}

	// Get.
	got, err := store.GetEntity(ctx, entity.ID)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if got == nil {
		t.Fatal("GetEntity: expected entity, got nil")
	}
	if got.Name != entity.Name {
		t.Errorf("Name: want %q, got %q", entity.Name, got.Name)
	}
	if got.Attributes["occupation"] != "blacksmith" {
		t.Errorf("Attributes: expected occupation=blacksmith, got %v", got.Attributes)
	}

	// Update merges new key while preserving existing.
	if err := store.UpdateEntity(ctx, entity.ID, map[string]any{"mood": "grumpy"}); err != nil {
		t.Fatalf("UpdateEntity: %v", err)
	}
	updated, _ := store.GetEntity(ctx, entity.ID)
	if updated.Attributes["mood"] != "grumpy" {
		t.Errorf("UpdateEntity: want mood=grumpy, got %v", updated.Attributes)
	}
	if updated.Attributes["occupation"] != "blacksmith" {
		t.Errorf("UpdateEntity: occupation should not be removed, got %v", updated.Attributes)
	}

	// UpdateEntity on missing ID returns error.
	if err := store.UpdateEntity(ctx, "does-not-exist", map[string]any{}); err == nil {
		t.Error("UpdateEntity missing: expected error, got nil")
	}

	// GetEntity for missing ID returns (nil, nil).
	missing, err := store.GetEntity(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("GetEntity missing: unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("GetEntity missing: want nil, got %+v", missing)
	}

	// Delete.
	if err := store.DeleteEntity(ctx, entity.ID); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}
	afterDelete, _ := store.GetEntity(ctx, entity.ID)
	if afterDelete != nil {
		t.Error("DeleteEntity: entity still present after delete")
	}

	// Delete non-existent is not an error.
	if err := store.DeleteEntity(ctx, "never-existed"); err != nil {
		t.Errorf("DeleteEntity non-existent: unexpected error: %v", err)
	}
}

func TestL2_FindEntities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, e := range []graphstore.Entity{
		{ID: "loc-tavern", Type: "location", Name: "The Rusty Tankard", Attributes: map[string]any{"atmosphere": "lively"}},
		{ID: "npc-elara", Type: "npc", Name: "Elara the Mage", Attributes: map[string]any{"class": "wizard"}},
		{ID: "npc-thorin", Type: "npc", Name: "Thorin", Attributes: map[string]any{"class": "fighter"}},
		{ID: "item-sword", Type: "item", Name: "Sword of Dawn", Attributes: map[string]any{"magical": true}},
	} {
		mustAddEntity(t, ctx, store, e)
	}

	tests := []struct {
		name      string
		filter    graphstore.EntityFilter
		wantIDs   []string
		wantCount int
	}{
		{"by type npc", graphstore.EntityFilter{Type: "npc"}, nil, 2},
		{"by name substring", graphstore.EntityFilter{Name: "Elara"}, []string{"npc-elara"}, 1},
		{"by attribute", graphstore.EntityFilter{AttributeQuery: map[string]any{"magical": true}}, []string{"item-sword"}, 1},
		{"no match", graphstore.EntityFilter{Type: "faction"}, nil, 0},
		{"empty filter", graphstore.EntityFilter{}, nil, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			results, err := store.FindEntities(ctx, tc.filter)
			if err != nil {
				t.Fatalf("FindEntities: %v", err)
			}
			if tc.wantCount > 0 && len(results) != tc.wantCount {
				t.Errorf("want %d, got %d", tc.wantCount, len(results))
			}
			for _, wid := range tc.wantIDs {
				if !containsEntity(results, wid) {
					t.Errorf("expected entity %q not found in results %v", wid, entityIDs(results))
				}
			}
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// L2 — Relationship CRUD
// ─────────────────────────────────────────────────────────────────────────────

func TestL2_RelationshipCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	grimjaw := graphstore.Entity{ID: "rel-grimjaw", Type: "npc", Name: "Grimjaw"}
	tavern := graphstore.Entity{ID: "rel-tavern", Type: "location", Name: "The Rusty Tankard"}
	guild := graphstore.Entity{ID: "rel-guild", Type: "faction", Name: "Blacksmiths Guild"}
	for _, e := range []graphstore.Entity{grimjaw, tavern, guild} {
		mustAddEntity(t, ctx, store, e)
	}

	rels := []graphstore.Relationship{
		{
			SourceID: grimjaw.ID, TargetID: tavern.ID, RelType: "LOCATED_AT",
			Attributes: map[string]any{"since": "year 1200"},
			Provenance: graphstore.Provenance{SessionID: "s1", Confidence: 0.9, Source: "stated"},
		},
		{
			SourceID: grimjaw.ID, TargetID: guild.ID, RelType: "MEMBER_OF",
			Attributes: map[string]any{},
			Provenance: graphstore.Provenance{Confidence: 0.8, Source: "inferred"},
		},
	}
	for _, r := range rels {
		if err := store.AddRelationship(ctx, r); err != nil {
			t.Fatalf("AddRelationship: %v", err)
		}
	}

	// GetRelationships: outgoing from grimjaw (default).
	out, err := store.GetRelationships(ctx, grimjaw.ID)
	if err != nil {
		t.Fatalf("GetRelationships: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("outgoing: want 2, got %d", len(out))
	}

	// Filter by rel type.
	locRels, err := store.GetRelationships(ctx, grimjaw.ID, graphstore.WithRelTypes("LOCATED_AT"))
	if err != nil {
		t.Fatalf("WithRelTypes: %v", err)
	}
	if len(locRels) != 1 {
		t.Errorf("WithRelTypes: want 1, got %d", len(locRels))
	}

	// Incoming: tavern should see the edge from grimjaw.
	inc, err := store.GetRelationships(ctx, tavern.ID, graphstore.WithIncoming())
	if err != nil {
		t.Fatalf("incoming: %v", err)
	}
	if len(inc) != 1 {
		t.Errorf("incoming: want 1, got %d", len(inc))
	}

	// Provenance round-trip.
	if len(locRels) > 0 && locRels[0].Provenance.Confidence != 0.9 {
		t.Errorf("Provenance.Confidence: want 0.9, got %v", locRels[0].Provenance.Confidence)
	}
	if len(locRels) > 0 && locRels[0].Attributes["since"] != "year 1200" {
		t.Errorf("Attributes[since]: want year 1200, got %v", locRels[0].Attributes)
	}

	// Upsert: replace with new attribute value.
	updated := rels[0]
	updated.Attributes = map[string]any{"since": "year 1205"}
	if err := store.AddRelationship(ctx, updated); err != nil {
		t.Fatalf("AddRelationship upsert: %v", err)
	}
	got, _ := store.GetRelationships(ctx, grimjaw.ID, graphstore.WithRelTypes("LOCATED_AT"))
	if len(got) > 0 && got[0].Attributes["since"] != "year 1205" {
		t.Errorf("upsert: want year 1205, got %v", got[0].Attributes)
	}

	// Delete.
	if err := store.DeleteRelationship(ctx, grimjaw.ID, guild.ID, "MEMBER_OF"); err != nil {
		t.Fatalf("DeleteRelationship: %v", err)
	}
	after, _ := store.GetRelationships(ctx, grimjaw.ID)
	if len(after) != 1 {
		t.Errorf("after delete: want 1, got %d", len(after))
	}

	// Delete non-existent is not an error.
	if err := store.DeleteRelationship(ctx, "x", "y", "KNOWS"); err != nil {
		t.Errorf("DeleteRelationship non-existent: unexpected error: %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// L2 — Graph traversal
// ─────────────────────────────────────────────────────────────────────────────

// buildTestGraph creates a 5-node directed graph:
//
//	grimjaw → (KNOWS)      → elara
//	grimjaw → (MEMBER_OF)  → guild
//	elara   → (LOCATED_AT) → tower
//	guild   → (ALLIED_WITH)→ mages
func buildTestGraph(t *testing.T, ctx context.Context, store *pgstore.Store) (grimjaw, elara, guild, tower, mages graphstore.Entity) {
	t.Helper()
	grimjaw = graphstore.Entity{ID: "g-grimjaw", Type: "npc", Name: "Grimjaw"}
	elara = graphstore.Entity{ID: "g-elara", Type: "npc", Name: "Elara"}
	guild = graphstore.Entity{ID: "g-guild", Type: "faction", Name: "Blacksmiths Guild"}
	tower = graphstore.Entity{ID: "g-tower", Type: "location", Name: "Elara's Tower"}
	mages = graphstore.Entity{ID: "g-mages", Type: "faction", Name: "Mages Council"}
	for _, e := range []graphstore.Entity{grimjaw, elara, guild, tower, mages} {
		mustAddEntity(t, ctx, store, e)
	}
	for _, r := range []graphstore.Relationship{
		{SourceID: grimjaw.ID, TargetID: elara.ID, RelType: "KNOWS", Attributes: map[string]any{}},
		{SourceID: grimjaw.ID, TargetID: guild.ID, RelType: "MEMBER_OF", Attributes: map[string]any{}},
		{SourceID: elara.ID, TargetID: tower.ID, RelType: "LOCATED_AT", Attributes: map[string]any{}},
		{SourceID: guild.ID, TargetID: mages.ID, RelType: "ALLIED_WITH", Attributes: map[string]any{}},
	} {
		if err := store.AddRelationship(ctx, r); err != nil {
			t.Fatalf("AddRelationship: %v", err)
		}
	}
	return
}

func TestL2_Neighbors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	grimjaw, _, _, _, _ := buildTestGraph(t, ctx, store)

	// Depth 1: directly connected elara + guild.
	n1, err := store.Neighbors(ctx, grimjaw.ID, 1)
	if err != nil {
		t.Fatalf("Neighbors(1): %v", err)
	}
	if len(n1) != 2 {
		t.Errorf("Neighbors(1): want 2, got %d %v", len(n1), entityIDs(n1))
	}

	// Depth 2: adds tower + mages.
	n2, err := store.Neighbors(ctx, grimjaw.ID, 2)
	if err != nil {
		t.Fatalf("Neighbors(2): %v", err)
	}
	if len(n2) != 4 {
		t.Errorf("Neighbors(2): want 4, got %d %v", len(n2), entityIDs(n2))
	}

	// Depth 3: same as depth 2 (no additional reachable nodes).
	n3, err := store.Neighbors(ctx, grimjaw.ID, 3)
	if err != nil {
		t.Fatalf("Neighbors(3): %v", err)
	}
	if len(n3) != 4 {
		t.Errorf("Neighbors(3): want 4, got %d %v", len(n3), entityIDs(n3))
	}

	// RelType filter: only KNOWS → should find elara (and at depth 2: tower).
	nKnows, err := store.Neighbors(ctx, grimjaw.ID, 2, graphstore.TraverseRelTypes("KNOWS", "LOCATED_AT"))
	if err != nil {
		t.Fatalf("Neighbors KNOWS: %v", err)
	}
	ids := entityIDs(nKnows)
	if !containsStr(ids, "g-elara") {
		t.Errorf("KNOWS filter: expected g-elara in %v", ids)
	}
	if containsStr(ids, "g-guild") {
		t.Errorf("KNOWS filter: g-guild should not be in %v", ids)
	}

	// NodeType filter: only faction nodes.
	nFaction, err := store.Neighbors(ctx, grimjaw.ID, 3, graphstore.TraverseNodeTypes("faction"))
	if err != nil {
		t.Fatalf("Neighbors faction: %v", err)
	}
	if len(nFaction) == 0 {
		t.Error("faction node filter: expected at least 1 result")
	}
	for _, e := range nFaction {
		if e.Type != "faction" {
			t.Errorf("faction filter: got entity with type %q", e.Type)
		}
	}

	// MaxNodes cap.
	nCapped, err := store.Neighbors(ctx, grimjaw.ID, 3, graphstore.TraverseMaxNodes(2))
	if err != nil {
		t.Fatalf("Neighbors max nodes: %v", err)
	}
	if len(nCapped) > 2 {
		t.Errorf("MaxNodes(2): want ≤2, got %d", len(nCapped))
	}
}

func TestL2_FindPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	grimjaw, _, _, tower, _ := buildTestGraph(t, ctx, store)

	// grimjaw → elara → tower requires 2 hops.
	path, err := store.FindPath(ctx, grimjaw.ID, tower.ID, 5)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if len(path) != 3 {
		t.Errorf("FindPath: want length 3, got %d %v", len(path), entityIDs(path))
	}
	if len(path) > 0 && path[0].ID != grimjaw.ID {
		t.Errorf("FindPath: want start %s, got %s", grimjaw.ID, path[0].ID)
	}
	if len(path) > 0 && path[len(path)-1].ID != tower.ID {
		t.Errorf("FindPath: want end %s, got %s", tower.ID, path[len(path)-1].ID)
	}

	// maxDepth=1 is not enough to reach tower — expect empty.
	short, err := store.FindPath(ctx, grimjaw.ID, tower.ID, 1)
	if err != nil {
		t.Fatalf("FindPath short: %v", err)
	}
	if len(short) != 0 {
		t.Errorf("FindPath short: want empty, got %v", entityIDs(short))
	}

	// Disconnected node — expect empty.
	isolated := graphstore.Entity{ID: "g-isolated", Type: "npc", Name: "Nobody"}
	mustAddEntity(t, ctx, store, isolated)
	none, err := store.FindPath(ctx, grimjaw.ID, isolated.ID, 5)
	if err != nil {
		t.Fatalf("FindPath none: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("FindPath none: want empty, got %v", entityIDs(none))
	}
}

func TestL2_VisibleSubgraph(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	grimjaw, elara, guild, _, _ := buildTestGraph(t, ctx, store)

	entities, rels, err := store.VisibleSubgraph(ctx, grimjaw.ID)
	if err != nil {
		t.Fatalf("VisibleSubgraph: %v", err)
	}

	ids := entityIDs(entities)
	for _, want := range []string{grimjaw.ID, elara.ID, guild.ID} {
		if !containsStr(ids, want) {
			t.Errorf("VisibleSubgraph: missing %s in %v", want, ids)
		}
	}
	if len(rels) != 2 {
		t.Errorf("VisibleSubgraph rels: want 2, got %d", len(rels))
	}
}

func TestL2_IdentitySnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	grimjaw, elara, guild, _, _ := buildTestGraph(t, ctx, store)

	snap, err := store.IdentitySnapshot(ctx, grimjaw.ID)
	if err != nil {
		t.Fatalf("IdentitySnapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("IdentitySnapshot: expected non-nil")
	}
	if snap.Entity.ID != grimjaw.ID {
		t.Errorf("Entity.ID: want %s, got %s", grimjaw.ID, snap.Entity.ID)
	}
	if len(snap.Relationships) != 2 {
		t.Errorf("Relationships: want 2, got %d", len(snap.Relationships))
	}
	relatedIDs := entityIDs(snap.RelatedEntities)
	for _, want := range []string{elara.ID, guild.ID} {
		if !containsStr(relatedIDs, want) {
			t.Errorf("RelatedEntities: missing %s in %v", want, relatedIDs)
		}
	}

	// IdentitySnapshot for missing entity returns error.
	_, err = store.IdentitySnapshot(ctx, "does-not-exist")
	if err == nil {
		t.Error("IdentitySnapshot missing: expected error, got nil")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func writeL1Entries(t *testing.T, ctx context.Context, l1 *pgstore.SessionStoreImpl, sessionID string, entries []graphstore.NarrativeEntry) {
	t.Helper()
	for i := range entries {
		if entries[i].Timestamp.IsZero() {
			entries[i].Timestamp = time.Now()
		}
		if err := l1.WriteEntry(ctx, sessionID, entries[i]); err != nil {
			t.Fatalf("WriteEntry[%d]: %v", i, err)
		}
	}
}

func mustAddEntity(t *testing.T, ctx context.Context, store *pgstore.Store, e graphstore.Entity) {
	t.Helper()
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}
	if err := store.AddEntity(ctx, e); err != nil {
		t.Fatalf("mustAddEntity %s: %v", e.ID, err)
	}
}

func entityIDs(entities []graphstore.Entity) []string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	return ids
}

func containsEntity(entities []graphstore.Entity, id string) bool {
	for _, e := range entities {
		if e.ID == id {
			return true
		}
	}
	return false
}

func containsStr(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
