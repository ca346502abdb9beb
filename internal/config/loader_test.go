package config_test

import (
	"strings"
	"testing"

	"github.com/duskward/loomkeeper/internal/config"
)

func TestValidate_DuplicateWorldIDsAcrossMany(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  postgres_dsn: "postgres://localhost/test"
worlds:
  - id: ashfall
    name: First
  - id: ashfall
    name: Second
  - id: driftmoor
    name: Third
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for duplicate world ids, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
}

func TestValidate_NegativeStagingTTL(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  postgres_dsn: "postgres://localhost/test"
worlds:
  - id: ashfall
    staging_ttl: -5m
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative staging_ttl, got nil")
	}
	if !strings.Contains(err.Error(), "staging_ttl") {
		t.Errorf("error should mention staging_ttl, got: %v", err)
	}
}

func TestValidate_NegativePromptTokenBudget(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  postgres_dsn: "postgres://localhost/test"
worlds:
  - id: ashfall
    prompt_token_budget: -100
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative prompt_token_budget, got nil")
	}
}

func TestValidate_WorldWithCompleteConfigIsValid(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
storage:
  postgres_dsn: "postgres://localhost/test"
worlds:
  - id: ashfall
    name: Ashfall
    staging_ttl: 15m
    prompt_token_budget: 4000
    time:
      mode: action_cost
      action_cost_minutes:
        move: 10
    disposition_thresholds:
      - min_points: -50
        level: hostile
      - min_points: 0
        level: neutral
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_QueueNegativeDurationsAreRejected(t *testing.T) {
	t.Parallel()
	yaml := `
queues:
  lease_duration: -30s
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative lease_duration, got nil")
	}
	if !strings.Contains(err.Error(), "lease_duration") {
		t.Errorf("error should mention lease_duration, got: %v", err)
	}
}

func TestValidate_MultipleErrorsAreJoined(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  postgres_dsn: "postgres://localhost/test"
worlds:
  - id: ashfall
    name: First
  - id: ashfall
    name: Second
queues:
  max_attempts: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
	if !strings.Contains(errStr, "max_attempts") {
		t.Errorf("error should mention max_attempts, got: %v", err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	// Sanity-check that the map is populated.
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	llmNames := config.ValidProviderNames["llm"]
	if len(llmNames) == 0 {
		t.Fatal("ValidProviderNames[\"llm\"] should not be empty")
	}
	// Check that "openai" is in the LLM list.
	found := false
	for _, n := range llmNames {
		if n == "openai" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidProviderNames[\"llm\"] should contain \"openai\"")
	}
}
