package core

import "github.com/vovakirdan/ratchat-server/internal/proto"

// User is the session-side record of a user. The record is created
// when a client connects; world presence is tracked separately by the
// session's users map, and the rooms set always mirrors the member
// sets of the rooms it names.
type User struct {
	proto.User

	clientID proto.ClientID
	rooms    map[proto.RoomID]struct{}
}

func newUser(clientID proto.ClientID, name string) *User {
	return &User{
		User:     proto.User{ID: proto.NewUserID(), Name: name},
		clientID: clientID,
		rooms:    make(map[proto.RoomID]struct{}),
	}
}

// Room groups the users subscribed to one named channel. Rooms are
// never deleted once created.
type Room struct {
	proto.Room

	members map[proto.UserID]struct{}
}

func newRoom(name string) *Room {
	return &Room{
		Room:    proto.Room{ID: proto.NewRoomID(), Name: name},
		members: make(map[proto.UserID]struct{}),
	}
}
