package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/ratchat-server/internal/proto"
)

// These tests exercise audience resolution and dispatch directly on an
// idle session; nothing else touches the state maps.

func testState() (*Session, *Client, *Client) {
	s := NewSession(4, nil)

	a := newClient(4)
	a.ID = proto.NewClientID()
	a.user = newUser(a.ID, "alice")
	s.clients[a.ID] = a
	s.users[a.user.ID] = a.user

	b := newClient(4)
	b.ID = proto.NewClientID()
	b.user = newUser(b.ID, "bob")
	s.clients[b.ID] = b
	s.users[b.user.ID] = b.user

	return s, a, b
}

func TestAudienceWorldCoversPresentUsers(t *testing.T) {
	s, a, b := testState()

	ev := &proto.Event{Channel: proto.World(), User: a.user.ID, Type: proto.EventPost}
	assert.ElementsMatch(t, []*Client{a, b}, s.audience(ev))

	// A user without world presence is out of the audience.
	delete(s.users, b.user.ID)
	assert.ElementsMatch(t, []*Client{a}, s.audience(ev))
}

func TestAudienceUnknownRoomIsEmpty(t *testing.T) {
	s, a, _ := testState()

	ev := &proto.Event{Channel: proto.InRoom(proto.NewRoomID()), User: a.user.ID, Type: proto.EventPost}
	assert.Empty(t, s.audience(ev))
}

func TestAudienceRoomCoversMembersOnly(t *testing.T) {
	s, a, b := testState()

	room := newRoom("general")
	s.rooms[room.ID] = room
	room.members[a.user.ID] = struct{}{}
	a.user.rooms[room.ID] = struct{}{}

	ev := &proto.Event{Channel: proto.InRoom(room.ID), User: a.user.ID, Type: proto.EventPost}
	assert.ElementsMatch(t, []*Client{a}, s.audience(ev))

	room.members[b.user.ID] = struct{}{}
	b.user.rooms[room.ID] = struct{}{}
	assert.ElementsMatch(t, []*Client{a, b}, s.audience(ev))
}

func TestAudiencePrivateIsSenderAndTarget(t *testing.T) {
	s, a, b := testState()

	ev := &proto.Event{Channel: proto.Private(b.user.ID), User: a.user.ID, Type: proto.EventPost}
	assert.ElementsMatch(t, []*Client{a, b}, s.audience(ev))
}

func TestBroadcastSkipsTornDownRecipient(t *testing.T) {
	s, a, b := testState()
	close(b.done)

	ev := &proto.Event{Channel: proto.World(), User: a.user.ID, Type: proto.EventPost, Message: &proto.Message{Body: "hi"}}
	s.broadcast([]*Client{a, b}, ev)

	// Delivery to the live recipient was attempted and succeeded.
	require.Len(t, a.Outbound, 1)
	out := <-a.Outbound
	assert.Equal(t, OutputEvent, out.Kind)
	assert.Equal(t, "hi", out.Event.Message.Body)
	assert.Empty(t, b.Outbound)
}

func TestBroadcastSlowRecipientDoesNotBlockOthers(t *testing.T) {
	s, a, b := testState()

	// Fill b's queue so the dispatch to b stays parked.
	ev := &proto.Event{Channel: proto.World(), User: a.user.ID, Type: proto.EventPost}
	for range cap(b.Outbound) {
		b.Outbound <- &Output{Kind: OutputEvent, Event: ev}
	}

	delivered := make(chan struct{})
	go func() {
		s.broadcast([]*Client{a, b}, ev)
		close(delivered)
	}()

	// a receives regardless of b being full.
	out := <-a.Outbound
	assert.Equal(t, OutputEvent, out.Kind)

	// Unblock b so the batch completes.
	<-b.Outbound
	<-delivered
}
