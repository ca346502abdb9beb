// Package condition implements the custom-condition evaluator:
// LLM-judged boolean predicates used by scene entry and visual-state
// activation. Evaluation is batched — one LLM call per region
// traversal, never one per predicate per scene — and results are cached in
// the caller's evaluation context so a repeated predicate within the same
// traversal costs nothing extra.
package condition

import (
	"context"
	"encoding/json"
	"fmt"

	llm "github.com/duskward/loomkeeper/internal/llmprovider"
	"github.com/duskward/loomkeeper/internal/llmtypes"
)

// Result is a single predicate's evaluation outcome.
type Result struct {
	IsMet      bool
	Confidence float64
	Reasoning  string
}

// Evaluator batches custom-condition checks against an LLM provider. When
// unavailable (nil Evaluator, or the LLM call fails) callers must treat the
// predicate as unmet — never optimistically true.
type Evaluator struct {
	provider llm.Provider
}

// New constructs an Evaluator over provider. provider may be nil; all
// Evaluate calls then return unmet results without error, so callers
// needn't special-case a missing evaluator.
func New(provider llm.Provider) *Evaluator {
	return &Evaluator{provider: provider}
}

type predictionRow struct {
	Description string  `json:"description"`
	IsMet       bool    `json:"is_met"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// Evaluate issues a single batched LLM call judging every description in
// descriptions against context, returning one Result per input description
// (same order). If the evaluator has no provider, or the LLM call or its
// JSON response is malformed, every result is unmet (never optimistically
// true).
func (e *Evaluator) Evaluate(ctx context.Context, gameContext string, descriptions []string) (map[string]Result, error) {
	out := make(map[string]Result, len(descriptions))
	unmet := func() map[string]Result {
		for _, d := range descriptions {
			out[d] = Result{IsMet: false}
		}
		return out
	}

	if e.provider == nil || len(descriptions) == 0 {
		return unmet(), nil
	}

	prompt := buildPrompt(gameContext, descriptions)
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: conditionSystemPrompt,
		Messages: []llmtypes.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return unmet(), fmt.Errorf("condition: llm call failed, treating all as unmet: %w", err)
	}

	var rows []predictionRow
	if err := json.Unmarshal([]byte(resp.Content), &rows); err != nil {
		return unmet(), fmt.Errorf("condition: malformed json response, treating all as unmet: %w", err)
	}

	byDesc := make(map[string]predictionRow, len(rows))
	for _, row := range rows {
		byDesc[row.Description] = row
	}
	for _, d := range descriptions {
		if row, ok := byDesc[d]; ok {
			out[d] = Result{IsMet: row.IsMet, Confidence: row.Confidence, Reasoning: row.Reasoning}
		} else {
			out[d] = Result{IsMet: false}
		}
	}
	return out, nil
}

const conditionSystemPrompt = `You judge whether narrative predicates currently hold true given the
supplied game state. Respond with a JSON array of objects, one per
predicate, each shaped {"description","is_met","confidence","reasoning"}.
Never include predicates not in the input list.`

func buildPrompt(gameContext string, descriptions []string) string {
	b, _ := json.Marshal(descriptions)
	return fmt.Sprintf("Game state:\n%s\n\nPredicates to judge:\n%s", gameContext, string(b))
}
