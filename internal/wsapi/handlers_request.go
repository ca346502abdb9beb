package wsapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/duskward/loomkeeper/internal/ids"
)

// errUnknownOp is returned by dispatchRequest for an Op not in the scoped
// set; handleRequest reports it the same way as any other request error.
type errUnknownOp string

func (e errUnknownOp) Error() string { return fmt.Sprintf("unknown op: %q", string(e)) }

// Generic request operations, per the scope requestMsg's doc comment
// commits to: read-only world/PC/location lookups a client can poll for
// instead of needing a dedicated message type each.
const (
	reqGetWorld      = "get_world"
	reqListLocations = "list_locations"
	reqGetPC         = "get_pc"
	reqListFlags     = "list_flags"
)

type getPCRequest struct {
	PCID string `json:"pc_id"`
}

type listFlagsRequest struct {
	PCID *string `json:"pc_id,omitempty"`
}

// handleRequest implements the generic Request/Response RPC envelope,
// dispatching on Op to a small set of read-only lookups.
func (s *Server) handleRequest(ctx context.Context, c *Connection, data []byte) {
	if !s.requireWorld(c) {
		return
	}
	m, ok := unmarshalOrErr[requestMsg](s, c, data)
	if !ok {
		return
	}

	result, err := s.dispatchRequest(ctx, c, m)
	resp := responseMsg{RequestID: m.RequestID}
	if err != nil {
		resp.Error = &wsError{Code: classifyErr(err), Message: err.Error()}
	} else {
		resp.Result = result
	}
	s.Manager.send(c, evtResponse, resp)
}

func (s *Server) dispatchRequest(ctx context.Context, c *Connection, m requestMsg) (any, error) {
	switch m.Op {
	case reqGetWorld:
		return s.UC.Repo.GetWorld(ctx, c.WorldID)
	case reqListLocations:
		return s.UC.Repo.ListLocations(ctx, c.WorldID)
	case reqGetPC:
		var req getPCRequest
		if err := json.Unmarshal(m.Payload, &req); err != nil {
			return nil, err
		}
		pcID, err := parsePCID(req.PCID)
		if err != nil {
			return nil, err
		}
		return s.UC.Repo.GetPC(ctx, pcID)
	case reqListFlags:
		var req listFlagsRequest
		if err := json.Unmarshal(m.Payload, &req); err != nil {
			return nil, err
		}
		var pcID *ids.PCID
		if req.PCID != nil {
			id, err := parsePCID(*req.PCID)
			if err != nil {
				return nil, err
			}
			pcID = &id
		}
		return s.UC.Repo.ListFlags(ctx, c.WorldID, pcID)
	default:
		return nil, errUnknownOp(m.Op)
	}
}
