package queue

// The five named queues of.1's pipeline table.
const (
	PlayerAction   = "player-action"
	LLM            = "llm"
	DMApproval     = "dm-approval"
	DMAction       = "dm-action"
	AssetGeneration = "asset-generation"
)

// Pipeline bundles the five named queues that together implement the
// player-action → LLM → DM-approval → broadcast pipeline.
type Pipeline struct {
	PlayerAction    *Queue
	LLM             *Queue
	DMApproval      *Queue
	DMAction        *Queue
	AssetGeneration *Queue
}

// NewPipeline constructs a Pipeline with one MemStore-backed Queue per
// stage.
func NewPipeline() *Pipeline {
	return &Pipeline{
		PlayerAction:    New(PlayerAction, NewMemStore()),
		LLM:             New(LLM, NewMemStore()),
		DMApproval:      New(DMApproval, NewMemStore()),
		DMAction:        New(DMAction, NewMemStore()),
		AssetGeneration: New(AssetGeneration, NewMemStore()),
	}
}

// All returns the five queues in table order, for generic iteration (e.g.
// the cleanup worker).
func (p *Pipeline) All() []*Queue {
	return []*Queue{p.PlayerAction, p.LLM, p.DMApproval, p.DMAction, p.AssetGeneration}
}
