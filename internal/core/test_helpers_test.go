package core

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/ratchat-server/internal/proto"
)

const waitFor = 2 * time.Second

func newTestSession(t *testing.T) *Session {
	t.Helper()

	s := NewSession(8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
	return s
}

func acceptClient(t *testing.T, s *Session) *Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	c, err := s.Accept(ctx)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return c
}

func submit(t *testing.T, s *Session, c *Client, req Request) {
	t.Helper()

	if err := s.Submit(context.Background(), c.ID, req); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

// nextOutput returns the next queued output, failing on timeout or a
// closed queue.
func nextOutput(t *testing.T, c *Client) *Output {
	t.Helper()

	select {
	case out, ok := <-c.Outbound:
		if !ok {
			t.Fatal("outbound queue closed")
		}
		return out
	case <-time.After(waitFor):
		t.Fatal("no output received")
	}
	return nil
}

// awaitOutput drains the queue until an output of the wanted kind
// arrives.
func awaitOutput(t *testing.T, c *Client, kind OutputKind) *Output {
	t.Helper()

	deadline := time.Now().Add(waitFor)
	for time.Now().Before(deadline) {
		select {
		case out, ok := <-c.Outbound:
			if !ok {
				t.Fatalf("outbound queue closed before output kind %d", kind)
			}
			if out.Kind == kind {
				return out
			}
		case <-time.After(50 * time.Millisecond):
		}
	}
	t.Fatalf("expected output kind %d not received", kind)
	return nil
}

// connectUser binds a user and returns its wire identity.
func connectUser(t *testing.T, s *Session, c *Client, name string) proto.User {
	t.Helper()

	submit(t, s, c, Request{Kind: RequestConnect, Name: name})
	out := awaitOutput(t, c, OutputConnected)
	if out.User == nil || out.User.Name != name {
		t.Fatalf("unexpected connected output: %+v", out)
	}
	return *out.User
}

// enterWorld makes the user world-present and consumes its own enter
// broadcast.
func enterWorld(t *testing.T, s *Session, c *Client) {
	t.Helper()

	submit(t, s, c, Request{Kind: RequestEvent, Event: &proto.Event{Channel: proto.World(), Type: proto.EventEnter}})
	out := awaitOutput(t, c, OutputEvent)
	if out.Event.Type != proto.EventEnter || out.Event.Channel.Kind != proto.ChannelWorld {
		t.Fatalf("unexpected enter broadcast: %+v", out.Event)
	}
}

// createRoom creates a room via the client and returns it.
func createRoom(t *testing.T, s *Session, c *Client, name string) proto.Room {
	t.Helper()

	submit(t, s, c, Request{Kind: RequestCreateRoom, Name: name})
	out := awaitOutput(t, c, OutputCreatedRoom)
	if out.Room == nil || out.Room.Name != name {
		t.Fatalf("unexpected created room output: %+v", out)
	}
	return *out.Room
}

// drainQuiet collects everything already queued and asserts nothing
// more arrives within a short grace period.
func drainQuiet(t *testing.T, c *Client) []*Output {
	t.Helper()

	var outs []*Output
	for {
		select {
		case out, ok := <-c.Outbound:
			if !ok {
				return outs
			}
			outs = append(outs, out)
		case <-time.After(100 * time.Millisecond):
			return outs
		}
	}
}
