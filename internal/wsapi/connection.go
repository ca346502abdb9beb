package wsapi

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
)

// Connection pairs a live *websocket.Conn with the domain.Connection it
// represents. Fields other than the embedded domain.Connection are owned by
// the single goroutine running handleConnection's read loop for this
// connection; they are never
// mutated from another goroutine.
type Connection struct {
	domain.Connection
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

// Manager tracks every live Connection, indexed by world and by role, so
// broadcasts can target "everyone in world W" or "every DM in world W"
// without scanning the full connection set. One Manager instance serves the
// whole process.
type Manager struct {
	mu          sync.RWMutex
	connections map[ids.ConnectionID]*Connection
	byWorld     map[ids.WorldID]map[ids.ConnectionID]bool
	dmsByWorld  map[ids.WorldID]map[ids.ConnectionID]bool

	writeTimeout time.Duration
}

// NewManager constructs an empty Manager. writeTimeout bounds how long a
// single connection's write may block before it is considered dead.
func NewManager(writeTimeout time.Duration) *Manager {
	return &Manager{
		connections:  make(map[ids.ConnectionID]*Connection),
		byWorld:      make(map[ids.WorldID]map[ids.ConnectionID]bool),
		dmsByWorld:   make(map[ids.WorldID]map[ids.ConnectionID]bool),
		writeTimeout: writeTimeout,
	}
}

// newConnection registers conn under a fresh ConnectionID, not yet bound to
// any world or user — those are filled in by joinWorld once the client's
// join_world message arrives.
func (m *Manager) newConnection(parentCtx context.Context, conn *websocket.Conn) *Connection {
	ctx, cancel := context.WithCancel(parentCtx)
	c := &Connection{
		Connection: domain.Connection{
			ID:       ids.NewConnectionID(),
			JoinedAt: time.Now(),
		},
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
	}
	m.mu.Lock()
	m.connections[c.ID] = c
	m.mu.Unlock()
	return c
}

// joinWorld binds c to worldID/role/userID/pcID, replacing any prior world
// membership (a connection belongs to at most one world at a time).
func (m *Manager) joinWorld(c *Connection, worldID ids.WorldID, role domain.ConnectionRole, userID ids.UserID, pcID, spectatePCID *ids.PCID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeFromWorldLocked(c)

	c.WorldID = worldID
	c.Role = role
	c.UserID = userID
	c.PCID = pcID
	c.SpectatePCID = spectatePCID

	if m.byWorld[worldID] == nil {
		m.byWorld[worldID] = make(map[ids.ConnectionID]bool)
	}
	m.byWorld[worldID][c.ID] = true

	if role == domain.RoleDM {
		if m.dmsByWorld[worldID] == nil {
			m.dmsByWorld[worldID] = make(map[ids.ConnectionID]bool)
		}
		m.dmsByWorld[worldID][c.ID] = true
	}
}

// leaveWorld clears c's world membership without unregistering the
// connection itself.
func (m *Manager) leaveWorld(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeFromWorldLocked(c)
	c.WorldID = ids.WorldID{}
	c.Role = ""
	c.PCID = nil
	c.SpectatePCID = nil
}

// removeFromWorldLocked must be called with m.mu held.
func (m *Manager) removeFromWorldLocked(c *Connection) {
	if c.WorldID == (ids.WorldID{}) {
		return
	}
	if set := m.byWorld[c.WorldID]; set != nil {
		delete(set, c.ID)
		if len(set) == 0 {
			delete(m.byWorld, c.WorldID)
		}
	}
	if set := m.dmsByWorld[c.WorldID]; set != nil {
		delete(set, c.ID)
		if len(set) == 0 {
			delete(m.dmsByWorld, c.WorldID)
		}
	}
}

// unregister removes c entirely. The underlying websocket is not closed
// here — a deferred close in Server.handleConnection owns that.
func (m *Manager) unregister(c *Connection) {
	m.mu.Lock()
	m.removeFromWorldLocked(c)
	delete(m.connections, c.ID)
	m.mu.Unlock()
	c.cancel()
}

// get returns the connection, used to translate a request_id back to a
// sender when a later decision arrives on a different connection (unused
// today but kept for symmetry with registerConnection/unregisterConnection
// in the pattern this manager follows).
func (m *Manager) get(id ids.ConnectionID) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.connections[id]
	return c, ok
}

// snapshotWorld returns every connection currently bound to worldID.
func (m *Manager) snapshotWorld(worldID ids.WorldID) []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.byWorld[worldID]
	out := make([]*Connection, 0, len(set))
	for id := range set {
		if c, ok := m.connections[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// snapshotDMs returns every DM connection currently bound to worldID.
func (m *Manager) snapshotDMs(worldID ids.WorldID) []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.dmsByWorld[worldID]
	out := make([]*Connection, 0, len(set))
	for id := range set {
		if c, ok := m.connections[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// send writes a single envelope to one connection's socket.
func (m *Manager) send(c *Connection, typ string, payload any) {
	data := encode(typ, payload)
	writeCtx, cancel := context.WithTimeout(c.ctx, m.writeTimeout)
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		slog.Warn("wsapi: write failed, tearing down connection", "connection_id", c.ID, "error", err)
		m.unregister(c)
	}
}

// sendError writes an "error" envelope to one connection.
func (m *Manager) sendError(c *Connection, code, message string) {
	m.send(c, evtError, wsError{Code: code, Message: message})
}

// broadcastWorld sends typ/payload to every connection in worldID.
func (m *Manager) broadcastWorld(worldID ids.WorldID, typ string, payload any) {
	for _, c := range m.snapshotWorld(worldID) {
		m.send(c, typ, payload)
	}
}

// broadcastDMs sends typ/payload to every DM connection in worldID.
func (m *Manager) broadcastDMs(worldID ids.WorldID, typ string, payload any) {
	for _, c := range m.snapshotDMs(worldID) {
		m.send(c, typ, payload)
	}
}

// broadcastPC sends typ/payload to every connection in worldID whose bound
// PCID (player) or SpectatePCID (spectator) matches pcID, and to every DM
// connection in worldID.
func (m *Manager) broadcastPC(worldID ids.WorldID, pcID ids.PCID, typ string, payload any) {
	for _, c := range m.snapshotWorld(worldID) {
		if (c.PCID != nil && *c.PCID == pcID) || (c.SpectatePCID != nil && *c.SpectatePCID == pcID) || c.Role == domain.RoleDM {
			m.send(c, typ, payload)
		}
	}
}
