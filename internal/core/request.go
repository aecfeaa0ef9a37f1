package core

import "github.com/vovakirdan/ratchat-server/internal/proto"

// RequestKind describes what a connection asks the session to do.
type RequestKind int

const (
	// RequestGetUser looks up a world-present user by name.
	RequestGetUser RequestKind = iota
	// RequestGetRoom looks up a room by name.
	RequestGetRoom
	// RequestConnect binds a user with the given name to the connection.
	RequestConnect
	// RequestCreateRoom creates a room with a unique name.
	RequestCreateRoom
	// RequestEvent posts an enter/leave/post event to a channel.
	RequestEvent
	// RequestDisconnect confirms and then tears down the connection.
	RequestDisconnect
	// RequestShutdown tears down the connection without a reply.
	RequestShutdown
)

// Request is one operation submitted to the session mailbox on behalf
// of a connection.
type Request struct {
	Kind  RequestKind
	Name  string       // get_user, get_room, connect, create_room
	Event *proto.Event // event
}
