package proto

import "encoding/json"

// Request is the envelope for messages coming from the client.
type Request struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response is the envelope for messages sent to the client.
type Response struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

const (
	RequestTypeGetUser    = "get_user"
	RequestTypeGetRoom    = "get_room"
	RequestTypeConnect    = "connect"
	RequestTypeCreateRoom = "create_room"
	RequestTypeEvent      = "event"
	RequestTypeDisconnect = "disconnect"
	RequestTypeShutdown   = "shutdown"

	ResponseTypeAccepted     = "accepted"
	ResponseTypeUser         = "user"
	ResponseTypeRoom         = "room"
	ResponseTypeConnected    = "connected"
	ResponseTypeCreatedRoom  = "created_room"
	ResponseTypeEvent        = "event"
	ResponseTypeDisconnected = "disconnected"
	ResponseTypeError        = "error"
)

// User is the wire representation of a connected user.
type User struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

// Room is the wire representation of a room.
type Room struct {
	ID   RoomID `json:"id"`
	Name string `json:"name"`
}

// Message is a chat message body.
type Message struct {
	Body string `json:"body"`
}

// ChannelKind addresses an event at the world, a room or a single user.
type ChannelKind string

const (
	ChannelWorld   ChannelKind = "world"
	ChannelRoom    ChannelKind = "room"
	ChannelPrivate ChannelKind = "private"
)

// Channel is the addressing target of an Event.
type Channel struct {
	Kind ChannelKind `json:"kind"`
	Room RoomID      `json:"room,omitzero"`
	User UserID      `json:"user,omitzero"`
}

// World addresses the implicit global channel.
func World() Channel { return Channel{Kind: ChannelWorld} }

// InRoom addresses a specific room.
func InRoom(id RoomID) Channel { return Channel{Kind: ChannelRoom, Room: id} }

// Private addresses a single user directly.
func Private(id UserID) Channel { return Channel{Kind: ChannelPrivate, User: id} }

// EventType is what happened on a channel.
type EventType string

const (
	EventEnter EventType = "enter"
	EventLeave EventType = "leave"
	EventPost  EventType = "post"
)

// Event notifies a channel audience about an enter, a leave or a post.
// Message is set for post events only. User is the acting user; the
// server stamps it and never trusts the value sent by the client.
type Event struct {
	Channel Channel   `json:"channel"`
	User    UserID    `json:"user"`
	Type    EventType `json:"type"`
	Message *Message  `json:"message,omitempty"`
}

// NameData carries the single name argument of get_user, get_room,
// connect and create_room requests.
type NameData struct {
	Name string `json:"name"`
}

// AcceptedData acknowledges an accepted connection.
type AcceptedData struct {
	ClientID ClientID `json:"client_id"`
}

// UserData answers a get_user lookup; User is nil when no match exists.
type UserData struct {
	User *User `json:"user"`
}

// RoomData answers a get_room lookup; Room is nil when no match exists.
type RoomData struct {
	Room *Room `json:"room"`
}

// ConnectedData confirms a connect request.
type ConnectedData struct {
	User User `json:"user"`
}

// CreatedRoomData confirms a create_room request.
type CreatedRoomData struct {
	Room Room `json:"room"`
}

// Error describes a request rejected by the server.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// NewRequest builds a request envelope around a marshaled payload.
func NewRequest(reqType string, payload any) (Request, error) {
	if payload == nil {
		return Request{Type: reqType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Request{}, err
	}
	return Request{Type: reqType, Data: data}, nil
}

// NewResponse builds a response envelope around a marshaled payload.
func NewResponse(respType string, payload any) (Response, error) {
	if payload == nil {
		return Response{Type: respType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}
	return Response{Type: respType, Data: data}, nil
}

// ErrorResponse builds an error response envelope.
func ErrorResponse(code, msg string) Response {
	return Response{Type: ResponseTypeError, Error: &Error{Code: code, Msg: msg}}
}
