package wsapi

import (
	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// handleJoinWorld implements JoinWorld: binds this connection to a world
// and role before any other message type becomes valid on it.
func (s *Server) handleJoinWorld(c *Connection, data []byte) {
	m, ok := unmarshalOrErr[joinWorldMsg](s, c, data)
	if !ok {
		return
	}
	worldID, err := parseWorldID(m.WorldID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid world_id")
		return
	}
	userID, err := parseUserID(m.UserID)
	if err != nil {
		s.Manager.sendError(c, ErrInvalidID, "invalid user_id")
		return
	}
	role := domain.ConnectionRole(m.Role)
	switch role {
	case domain.RoleDM, domain.RolePlayer, domain.RoleSpectator:
	default:
		s.Manager.sendError(c, ErrInvalidTarget, "unknown role: "+m.Role)
		return
	}

	var pcID, spectatePCID *ids.PCID
	if m.PCID != nil {
		id, err := parsePCID(*m.PCID)
		if err != nil {
			s.Manager.sendError(c, ErrInvalidID, "invalid pc_id")
			return
		}
		pcID = &id
	}
	if m.SpectatePCID != nil {
		id, err := parsePCID(*m.SpectatePCID)
		if err != nil {
			s.Manager.sendError(c, ErrInvalidID, "invalid spectate_pc_id")
			return
		}
		spectatePCID = &id
	}

	s.Manager.joinWorld(c, worldID, role, userID, pcID, spectatePCID)
	s.Manager.send(c, evtWorldJoined, worldJoinedMsg{
		ConnectionID: c.ID.String(),
		WorldID:      worldID.String(),
		Role:         string(role),
	})
	s.Manager.broadcastWorld(worldID, evtUserJoined, userJoinedMsg{
		UserID: userID.String(),
		Role:   string(role),
	})
}

// handleLeaveWorld implements LeaveWorld.
func (s *Server) handleLeaveWorld(c *Connection) {
	if !s.requireWorld(c) {
		return
	}
	worldID, userID := c.WorldID, c.UserID
	s.Manager.leaveWorld(c)
	s.Manager.broadcastWorld(worldID, evtUserLeft, userLeftMsg{UserID: userID.String()})
}
