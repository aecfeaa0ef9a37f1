package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeAlreadyConnected = "already_connected"
	ErrCodeNotConnected     = "not_connected"
	ErrCodeAlreadyInWorld   = "already_in_world"
	ErrCodeNotInWorld       = "not_in_world"
	ErrCodeRoomExists       = "room_exists"
	ErrCodeRoomNotFound     = "room_not_found"
	ErrCodeNotInRoom        = "not_in_room"
	ErrCodeUserNotFound     = "user_not_found"
	ErrCodeBadRequest       = "bad_request"
)

// ErrSessionClosed reports a mailbox that is no longer drained because
// the session loop has exited.
var ErrSessionClosed = errors.New("session closed")

// Error is a precondition violation reported back to the requester as
// an error response. It never affects other connections.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func stateError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}
