package wsapi

import "context"

// handleStartConversation implements StartConversation.
func (s *Server) handleStartConversation(ctx context.Context, c *Connection, data []byte) {
	if !s.requireWorld(c) {
		return
	}
	m, ok := unmarshalOrErr[startConversationMsg](s, c, data)
	if !ok {
		return
	}
	pcID, err := parsePCID(m.PCID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid pc_id")
		return
	}
	npcID, err := parseCharacterID(m.NpcID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid npc_id")
		return
	}
	result, err := s.UC.StartConversation(ctx, c.WorldID, pcID, npcID, m.Message, s.Thresholds[c.WorldID])
	if err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	s.Manager.send(c, evtConversationStarted, conversationStartedMsg{
		ConversationID: result.ConversationID.String(),
		NPCID:          npcID.String(),
		NPCName:        result.NPCName,
		NPCDisposition: result.NPCDisposition,
	})
	s.maybeSuggestTime(ctx, c.WorldID, pcID, "talk", npcID.String())
}

// handleContinueConversation implements ContinueConversation.
func (s *Server) handleContinueConversation(ctx context.Context, c *Connection, data []byte) {
	if !s.requireWorld(c) {
		return
	}
	m, ok := unmarshalOrErr[continueConversationMsg](s, c, data)
	if !ok {
		return
	}
	pcID, err := parsePCID(m.PCID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid pc_id")
		return
	}
	npcID, err := parseCharacterID(m.NpcID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid npc_id")
		return
	}
	if m.ConversationID == nil {
		s.Manager.sendError(c, ErrInvalidID, "conversation_id is required")
		return
	}
	conversationID, err := parseConversationID(*m.ConversationID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid conversation_id")
		return
	}
	if err := s.UC.ContinueConversation(ctx, c.WorldID, pcID, npcID, m.Message, conversationID); err != nil {
		s.Manager.sendError(c, classifyErr(err), err.Error())
		return
	}
	s.maybeSuggestTime(ctx, c.WorldID, pcID, "talk", npcID.String())
}
