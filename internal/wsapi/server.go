package wsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/duskward/loomkeeper/internal/domain"
	"github.com/duskward/loomkeeper/internal/ids"
	"github.com/duskward/loomkeeper/internal/queue"
	"github.com/duskward/loomkeeper/internal/usecase"
)

// defaultWriteTimeout bounds how long a single frame write may block before
// the connection is considered dead and torn down.
const defaultWriteTimeout = 5 * time.Second

// stagingRequest records what a generated staging request_id refers back to,
// so a later StagingApprovalResponse/StagingRegenerateRequest can resolve it.
type stagingRequest struct {
	WorldID    ids.WorldID
	RegionID   ids.RegionID
	LocationID ids.LocationID
}

// Server wires the connection manager to the use-case layer. One Server
// instance serves every world the process hosts.
type Server struct {
	UC      *usecase.UseCases
	Manager *Manager

	// Thresholds supplies each world's disposition-level thresholds, read
	// by StartConversation to report an NPC's categorical disposition.
	Thresholds map[ids.WorldID][]domain.DispositionThreshold

	// pendingMu guards pendingApprovals and pendingStaging, the two
	// process-wide stores correlating a wire request_id back to the data
	// needed to act on a DM's eventual decision.
	pendingMu        sync.Mutex
	pendingApprovals map[string]queue.DMApprovalPayload
	pendingStaging   map[string]stagingRequest
}

// NewServer constructs a Server with a fresh connection manager.
func NewServer(uc *usecase.UseCases, thresholds map[ids.WorldID][]domain.DispositionThreshold) *Server {
	s := &Server{
		UC:               uc,
		Thresholds:       thresholds,
		pendingApprovals: make(map[string]queue.DMApprovalPayload),
		pendingStaging:   make(map[string]stagingRequest),
	}
	s.Manager = NewManager(defaultWriteTimeout)
	s.subscribeEvents()
	return s
}

// HandleWS upgrades the HTTP request to a WebSocket and blocks for the
// connection's lifetime. Wire this at the server's /ws route.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin validation is the embedding server's responsibility
		// (reverse proxy / CORS layer); the session coordinator itself
		// has no auth layer.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	s.handleConnection(r.Context(), conn)
}

// handleConnection registers the connection, runs its read loop until the
// socket closes or the context is cancelled, and always unregisters on
// exit. Disconnecting cancels this connection's own context but never
// cancels in-flight queue work triggered by earlier messages; that work
// completes and its eventual broadcast finds no connection to deliver to.
func (s *Server) handleConnection(parentCtx context.Context, conn *websocket.Conn) {
	c := s.Manager.newConnection(parentCtx, conn)
	defer s.Manager.unregister(c)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.Manager.sendError(c, ErrInvalidID, "malformed message envelope")
			continue
		}
		s.dispatch(c.ctx, c, env)
	}
}
