package queue

import (
	"github.com/duskward/loomkeeper/internal/ids"
	"github.com/duskward/loomkeeper/internal/llmtypes"
)

// PlayerActionPayload is the player-action queue's payload shape.
type PlayerActionPayload struct {
	WorldID        ids.WorldID
	PCID           ids.PCID
	ActionType     string // e.g. "talk", "move", "interact"
	Target         string
	Dialogue       string
	ConversationID ids.ConversationID
	SourceActionID string
}

// LLMPayload is the llm queue's payload shape.
type LLMPayload struct {
	Prompt         []llmtypes.Message
	Tools          []llmtypes.ToolDefinition
	ConversationID ids.ConversationID
	SourceActionID string
	WorldID        ids.WorldID
}

// DMApprovalPayload is the dm-approval queue's payload shape.
type DMApprovalPayload struct {
	WorldID        ids.WorldID
	ConversationID ids.ConversationID
	CharacterID    ids.CharacterID
	CharacterName  string
	ProposedText   string
	ToolCalls      []llmtypes.ToolCall
	SourceActionID string
}

// DMDecisionKind discriminates a DM's approval decision.
type DMDecisionKind string

const (
	DMApprove DMDecisionKind = "approve"
	DMReject  DMDecisionKind = "reject"
	DMEdit    DMDecisionKind = "edit"
)

// DMActionPayload is the dm-action queue's payload shape.
type DMActionPayload struct {
	WorldID        ids.WorldID
	DMUserID       ids.UserID
	Decision       DMDecisionKind
	EditedContent  string // set when Decision == DMEdit
	EditedTools    []llmtypes.ToolCall
	SourceActionID string
	Approval       DMApprovalPayload
}

// AssetGenerationPayload is the asset-generation queue's payload shape.
type AssetGenerationPayload struct {
	WorldID    ids.WorldID
	EntityID   string
	AssetType  string
	Workflow   string
	Prompt     string
	Count      int
}
