package proto

import "github.com/google/uuid"

// Identifiers are random v4 UUIDs minted locally with no central
// coordination and no collision check. The wrapper types keep client,
// user and room ids from being mixed up at compile time.

// ClientID identifies one accepted connection.
type ClientID struct{ uuid.UUID }

// UserID identifies a connected user.
type UserID struct{ uuid.UUID }

// RoomID identifies a room.
type RoomID struct{ uuid.UUID }

// NewClientID mints a fresh ClientID.
func NewClientID() ClientID { return ClientID{uuid.New()} }

// NewUserID mints a fresh UserID.
func NewUserID() UserID { return UserID{uuid.New()} }

// NewRoomID mints a fresh RoomID.
func NewRoomID() RoomID { return RoomID{uuid.New()} }
