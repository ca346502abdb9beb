// Package wsapi is the WebSocket session layer: it upgrades HTTP
// connections, tracks per-world/per-role connection membership, dispatches
// incoming client messages into internal/usecase, and fans eventbus
// notifications back out to the connections that should see them.
package wsapi

import (
	"encoding/json"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
	"github.com/duskward/loomkeeper/internal/llmtypes"
)

// envelope is the wire shape every client and server message travels in:
// a discriminator and a nested, type-specific payload.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client message type discriminators.
const (
	msgJoinWorld               = "join_world"
	msgLeaveWorld              = "leave_world"
	msgMoveToRegion            = "move_to_region"
	msgExitToLocation          = "exit_to_location"
	msgStartConversation       = "start_conversation"
	msgContinueConversation    = "continue_conversation"
	msgPerformInteraction      = "perform_interaction"
	msgApprovalDecision        = "approval_decision"
	msgDirectorialUpdate       = "directorial_update"
	msgPreStageRegion          = "pre_stage_region"
	msgStagingApprovalResponse = "staging_approval_response"
	msgStagingRegenerate       = "staging_regenerate_request"
	msgSetGameTime             = "set_game_time"
	msgSkipToPeriod            = "skip_to_period"
	msgPauseGameTime           = "pause_game_time"
	msgSetTimeMode             = "set_time_mode"
	msgSetTimeCosts            = "set_time_costs"
	msgRespondToTimeSuggestion = "respond_to_time_suggestion"
	msgTriggerChallenge        = "trigger_challenge"
	msgChallengeRoll           = "challenge_roll"
	msgChallengeOutcome        = "challenge_outcome_decision"
	msgEquipItem               = "equip_item"
	msgUnequipItem             = "unequip_item"
	msgDropItem                = "drop_item"
	msgPickupItem              = "pickup_item"
	msgRequest                 = "request"
)

// Server message type discriminators.
const (
	evtWorldJoined             = "world_joined"
	evtUserJoined              = "user_joined"
	evtUserLeft                = "user_left"
	evtSceneChanged            = "scene_changed"
	evtSceneUpdate             = "scene_update"
	evtStagingPending          = "staging_pending"
	evtStagingApprovalRequired = "staging_approval_required"
	evtApprovalRequired        = "approval_required"
	evtActionQueued            = "action_queued"
	evtActionReceived          = "action_received"
	evtConversationStarted     = "conversation_started"
	evtGameTimeAdvanced        = "game_time_advanced"
	evtGameTimePaused          = "game_time_paused"
	evtTimeModeChanged         = "time_mode_changed"
	evtTimeConfigUpdated       = "time_config_updated"
	evtTimeSuggested           = "time_suggested"
	evtStagingResolved         = "staging_resolved"
	evtNpcDialogue             = "npc_dialogue"
	evtChallengeTriggered      = "challenge_triggered"
	evtChallengeRolled         = "challenge_rolled"
	evtChallengeResolved       = "challenge_resolved"
	evtItemEquipped            = "item_equipped"
	evtItemUnequipped          = "item_unequipped"
	evtItemDropped             = "item_dropped"
	evtItemPickedUp            = "item_picked_up"
	evtResponse                = "response"
	evtError                   = "error"
)

// Error codes.
const (
	ErrNotConnected  = "NOT_CONNECTED"
	ErrNotInWorld    = "NOT_IN_WORLD"
	ErrNoPC          = "NO_PC"
	ErrNotAuthorized = "NOT_AUTHORIZED"
	ErrInvalidID     = "INVALID_ID"
	ErrNotFound      = "NOT_FOUND"
	ErrInvalidTarget = "INVALID_TARGET"
	ErrConvEnded     = "CONVERSATION_ENDED"
	ErrQueue         = "QUEUE_ERROR"
	ErrRepo          = "REPO_ERROR"
	ErrStaging       = "STAGING_ERROR"
	ErrTime          = "TIME_ERROR"
)

// wsError is the payload of an "error"/"response" error result.
type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- client message payloads ---

type joinWorldMsg struct {
	WorldID      string  `json:"world_id"`
	Role         string  `json:"role"` // "dm" | "player" | "spectator"
	UserID       string  `json:"user_id"`
	PCID         *string `json:"pc_id,omitempty"`
	SpectatePCID *string `json:"spectate_pc_id,omitempty"`
}

type moveToRegionMsg struct {
	PCID     string `json:"pc_id"`
	RegionID string `json:"region_id"`
}

type exitToLocationMsg struct {
	PCID            string  `json:"pc_id"`
	LocationID      string  `json:"location_id"`
	ArrivalRegionID *string `json:"arrival_region_id,omitempty"`
}

type startConversationMsg struct {
	PCID    string `json:"pc_id"`
	NpcID   string `json:"npc_id"`
	Message string `json:"message"`
}

type continueConversationMsg struct {
	PCID           string  `json:"pc_id"`
	NpcID          string  `json:"npc_id"`
	Message        string  `json:"message"`
	ConversationID *string `json:"conversation_id,omitempty"`
}

type performInteractionMsg struct {
	InteractionID string `json:"interaction_id"`
}

type approvalDecisionMsg struct {
	RequestID string              `json:"request_id"`
	Decision  string              `json:"decision"` // "approve" | "reject" | "edit"
	Content   string              `json:"content,omitempty"`
	Tools     []llmtypes.ToolCall `json:"tools,omitempty"`
}

type directorialUpdateMsg struct {
	Context string `json:"context"`
}

type preStageRegionMsg struct {
	RegionID        string             `json:"region_id"`
	LocationID      string             `json:"location_id"`
	NPCs            []domain.StagedNpc `json:"npcs"`
	TTLHours        float64            `json:"ttl_hours"`
	LocationStateID string             `json:"location_state_id,omitempty"`
	RegionStateID   string             `json:"region_state_id,omitempty"`
}

type stagingApprovalResponseMsg struct {
	RequestID     string             `json:"request_id"`
	RegionID      string             `json:"region_id"`
	LocationID    string             `json:"location_id"`
	ApprovedNPCs  []domain.StagedNpc `json:"approved_npcs"`
	TTLHours      float64            `json:"ttl_hours"`
	Source        string             `json:"source"` // "rule_based" | "llm_based" | "dm_manual"
	DMGuidance    string             `json:"dm_guidance,omitempty"`
}

type stagingRegenerateMsg struct {
	RequestID  string `json:"request_id"`
	RegionID   string `json:"region_id"`
	LocationID string `json:"location_id"`
	Guidance   string `json:"guidance"`
}

type setGameTimeMsg struct {
	Day           int64 `json:"day"`
	Hour          int   `json:"hour"`
	Minute        int   `json:"minute"`
	NotifyPlayers bool  `json:"notify_players"`
}

type skipToPeriodMsg struct {
	Period        string `json:"period"` // morning|afternoon|evening|night
	NotifyPlayers bool   `json:"notify_players"`
}

type pauseGameTimeMsg struct {
	Paused bool `json:"paused"`
}

type setTimeModeMsg struct {
	Mode string `json:"mode"` // manual|action_cost|real_time
}

type setTimeCostsMsg struct {
	ActionCosts   map[string]int64 `json:"action_costs"`
	RealTimeScale float64          `json:"real_time_scale"`
}

type respondToTimeSuggestionMsg struct {
	SuggestionID string `json:"suggestion_id"`
	Decision     string `json:"decision"` // approve|modify|skip
	Seconds      int64  `json:"seconds,omitempty"`
}

type triggerChallengeMsg struct {
	ChallengeID string `json:"challenge_id"`
	PCID        string `json:"pc_id"`
}

type challengeRollMsg struct {
	ChallengeID string `json:"challenge_id"`
	PCID        string `json:"pc_id"`
	Roll        int    `json:"roll"`
}

type challengeOutcomeMsg struct {
	ChallengeID string `json:"challenge_id"`
	PCID        string `json:"pc_id"`
	Outcome     string `json:"outcome"`
}

type equipItemMsg struct {
	PCID   string `json:"pc_id"`
	ItemID string `json:"item_id"`
}

type unequipItemMsg struct {
	PCID   string `json:"pc_id"`
	ItemID string `json:"item_id"`
}

type dropItemMsg struct {
	PCID   string `json:"pc_id"`
	ItemID string `json:"item_id"`
}

type pickupItemMsg struct {
	PCID   string `json:"pc_id"`
	ItemID string `json:"item_id"`
}

// requestMsg is the generic RPC envelope. The admin surface it could
// otherwise carry (arbitrary world/entity CRUD) is deliberately out of
// scope; Op is restricted to the small set of read operations in
// dispatchRequest.
type requestMsg struct {
	RequestID string          `json:"request_id"`
	Op        string          `json:"op"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// --- server message payloads ---

type worldJoinedMsg struct {
	ConnectionID string `json:"connection_id"`
	WorldID      string `json:"world_id"`
	Role         string `json:"role"`
}

type userJoinedMsg struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type userLeftMsg struct {
	UserID string `json:"user_id"`
}

type sceneChangedMsg struct {
	PCID        string                    `json:"pc_id"`
	Region      domain.RegionSummary      `json:"region"`
	NPCsPresent []domain.NpcPresence      `json:"npcs_present"`
	Navigation  domain.Navigation         `json:"navigation"`
	RegionItems []domain.RegionItemSummary `json:"region_items"`
	Scene       *domain.Scene             `json:"scene,omitempty"`
}

type stagingPendingMsg struct {
	RegionID       string `json:"region_id"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type stagingApprovalRequiredMsg struct {
	RequestID  string                `json:"request_id"`
	RegionID   string                `json:"region_id"`
	RuleBased  []domain.StagedNpc    `json:"rule_based_npcs"`
	LLMBased   []domain.StagedNpc    `json:"llm_based_npcs"`
	DefaultTTL float64               `json:"default_ttl_hours"`
}

type approvalRequiredMsg struct {
	RequestID      string `json:"request_id"`
	ConversationID string `json:"conversation_id"`
	CharacterID    string `json:"character_id"`
	CharacterName  string `json:"character_name"`
	ProposedText   string `json:"proposed_text"`
}

type actionQueuedMsg struct {
	ActionType string `json:"action_type"`
	PCID       string `json:"pc_id"`
}

type conversationStartedMsg struct {
	ConversationID string `json:"conversation_id"`
	NPCID          string `json:"npc_id"`
	NPCName        string `json:"npc_name"`
	NPCDisposition string `json:"npc_disposition"`
}

type gameTimeAdvancedMsg struct {
	Day             int64  `json:"day"`
	Hour            int    `json:"hour"`
	Minute          int    `json:"minute"`
	TimeOfDay       string `json:"time_of_day"`
	MinutesAdvanced int64  `json:"minutes_advanced"`
}

type timeSuggestedMsg struct {
	SuggestionID string `json:"suggestion_id"`
	PCName       string `json:"pc_name"`
	ActionType   string `json:"action_type"`
	Destination  string `json:"destination,omitempty"`
	Seconds      int64  `json:"seconds"`
}

type npcDialogueMsg struct {
	ConversationID string `json:"conversation_id"`
	CharacterID    string `json:"character_id"`
	CharacterName  string `json:"character_name"`
	Text           string `json:"text"`
}

type responseMsg struct {
	RequestID string   `json:"request_id"`
	Result    any      `json:"result,omitempty"`
	Error     *wsError `json:"error,omitempty"`
}

func encode(typ string, v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		data = nil
	}
	b, _ := json.Marshal(envelope{Type: typ, Data: data})
	return b
}

func parseWorldID(s string) (ids.WorldID, error)           { return ids.ParseWorldID(s) }
func parsePCID(s string) (ids.PCID, error)                 { return ids.ParsePCID(s) }
func parseRegionID(s string) (ids.RegionID, error)         { return ids.ParseRegionID(s) }
func parseLocationID(s string) (ids.LocationID, error)     { return ids.ParseLocationID(s) }
func parseCharacterID(s string) (ids.CharacterID, error)   { return ids.ParseCharacterID(s) }
func parseItemID(s string) (ids.ItemID, error)             { return ids.ParseItemID(s) }
func parseChallengeID(s string) (ids.ChallengeID, error)   { return ids.ParseChallengeID(s) }
func parseUserID(s string) (ids.UserID, error)             { return ids.ParseUserID(s) }
func parseConversationID(s string) (ids.ConversationID, error) {
	return ids.ParseConversationID(s)
}
func parseSuggestionID(s string) (ids.SuggestionID, error) { return ids.ParseSuggestionID(s) }
