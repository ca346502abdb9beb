package wsapi

import (
	"context"
	"encoding/json"

	"github.com/duskward/loomkeeper/internal/queue"
)

// handleApprovalDecision implements ApprovalDecision: a DM's
// approve/reject/edit verdict on an LLM reply waiting in the dm-approval
// queue, routed on to the dm-action queue for the worker pipeline to finish.
func (s *Server) handleApprovalDecision(ctx context.Context, c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[approvalDecisionMsg](s, c, data)
	if !ok {
		return
	}

	s.pendingMu.Lock()
	approval, found := s.pendingApprovals[m.RequestID]
	if found {
		delete(s.pendingApprovals, m.RequestID)
	}
	s.pendingMu.Unlock()
	if !found {
		s.Manager.sendError(c, ErrNotFound, "unknown request_id")
		return
	}

	var decision queue.DMDecisionKind
	switch m.Decision {
	case "approve":
		decision = queue.DMApprove
	case "reject":
		decision = queue.DMReject
	case "edit":
		decision = queue.DMEdit
	default:
		s.Manager.sendError(c, ErrInvalidTarget, "unknown decision: "+m.Decision)
		return
	}

	payload := queue.DMActionPayload{
		WorldID:        approval.WorldID,
		DMUserID:       c.UserID,
		Decision:       decision,
		EditedContent:  m.Content,
		EditedTools:    m.Tools,
		SourceActionID: approval.SourceActionID,
		Approval:       approval,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		s.Manager.sendError(c, ErrQueue, err.Error())
		return
	}
	if _, err := s.UC.Pipeline.DMAction.Enqueue(ctx, "dm_action", b); err != nil {
		s.Manager.sendError(c, ErrQueue, err.Error())
	}
}

// handleDirectorialUpdate implements DirectorialUpdate: the
// DM injects narrative context that the next scene resolution should take
// into account. Scene resolution itself has no input hook for ad hoc DM
// text; this relays the context to every connection in the
// world for client-side display.
func (s *Server) handleDirectorialUpdate(c *Connection, data []byte) {
	if !s.requireDM(c) {
		return
	}
	m, ok := unmarshalOrErr[directorialUpdateMsg](s, c, data)
	if !ok {
		return
	}
	s.Manager.broadcastWorld(c.WorldID, evtSceneUpdate, struct {
		Context string `json:"context"`
	}{m.Context})
}
