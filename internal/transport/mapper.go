// Package transport holds the pieces shared by the stream transports:
// mapping between wire envelopes and session requests, and connection
// release against the session.
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/ratchat-server/internal/core"
	"github.com/vovakirdan/ratchat-server/internal/proto"
)

// RequestToInput maps a wire request onto a session request. An
// unknown type or an undecodable payload is a protocol error and must
// be treated as fatal to the owning connection.
func RequestToInput(req proto.Request) (core.Request, error) {
	switch req.Type {
	case proto.RequestTypeGetUser:
		name, err := decodeName(req.Data)
		if err != nil {
			return core.Request{}, err
		}
		return core.Request{Kind: core.RequestGetUser, Name: name}, nil
	case proto.RequestTypeGetRoom:
		name, err := decodeName(req.Data)
		if err != nil {
			return core.Request{}, err
		}
		return core.Request{Kind: core.RequestGetRoom, Name: name}, nil
	case proto.RequestTypeConnect:
		name, err := decodeName(req.Data)
		if err != nil {
			return core.Request{}, err
		}
		return core.Request{Kind: core.RequestConnect, Name: name}, nil
	case proto.RequestTypeCreateRoom:
		name, err := decodeName(req.Data)
		if err != nil {
			return core.Request{}, err
		}
		return core.Request{Kind: core.RequestCreateRoom, Name: name}, nil
	case proto.RequestTypeEvent:
		var ev proto.Event
		if err := json.Unmarshal(req.Data, &ev); err != nil {
			return core.Request{}, fmt.Errorf("decode event payload: %w", err)
		}
		return core.Request{Kind: core.RequestEvent, Event: &ev}, nil
	case proto.RequestTypeDisconnect:
		return core.Request{Kind: core.RequestDisconnect}, nil
	case proto.RequestTypeShutdown:
		return core.Request{Kind: core.RequestShutdown}, nil
	default:
		return core.Request{}, fmt.Errorf("unknown request type %q", req.Type)
	}
}

func decodeName(data json.RawMessage) (string, error) {
	var payload proto.NameData
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode name payload: %w", err)
	}
	return payload.Name, nil
}

// OutputToResponse maps a session output onto a wire response.
func OutputToResponse(out *core.Output) (proto.Response, error) {
	switch out.Kind {
	case core.OutputAccepted:
		return proto.NewResponse(proto.ResponseTypeAccepted, proto.AcceptedData{ClientID: out.ClientID})
	case core.OutputUser:
		return proto.NewResponse(proto.ResponseTypeUser, proto.UserData{User: out.User})
	case core.OutputRoom:
		return proto.NewResponse(proto.ResponseTypeRoom, proto.RoomData{Room: out.Room})
	case core.OutputConnected:
		return proto.NewResponse(proto.ResponseTypeConnected, proto.ConnectedData{User: *out.User})
	case core.OutputCreatedRoom:
		return proto.NewResponse(proto.ResponseTypeCreatedRoom, proto.CreatedRoomData{Room: *out.Room})
	case core.OutputEvent:
		return proto.NewResponse(proto.ResponseTypeEvent, out.Event)
	case core.OutputDisconnected:
		return proto.NewResponse(proto.ResponseTypeDisconnected, nil)
	case core.OutputError:
		return proto.ErrorResponse(out.Err.Code, out.Err.Message), nil
	default:
		return proto.Response{}, fmt.Errorf("unknown output kind %d", out.Kind)
	}
}

// Release cleans a connection up after its loops have stopped. The
// outbound queue keeps draining until the session closes it, so the
// session never blocks on a dead connection while the shutdown request
// waits in the mailbox.
func Release(session *core.Session, client *core.Client) {
	go func() {
		for {
			select {
			case _, ok := <-client.Outbound:
				if !ok {
					return
				}
			case <-session.Done():
				return
			}
		}
	}()

	_ = session.Submit(context.Background(), client.ID, core.Request{Kind: core.RequestShutdown})
}
