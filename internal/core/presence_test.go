package core

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/vovakirdan/ratchat-server/internal/proto"
)

// World presence must equal the parity of accepted enters and leaves,
// with exactly one broadcast per accepted transition and one error per
// rejected one.
func TestWorldPresenceParity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewSession(8, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go s.Run(ctx)

		acceptCtx := context.Background()
		c, err := s.Accept(acceptCtx)
		if err != nil {
			t.Fatalf("accept: %v", err)
		}
		if err := s.Submit(acceptCtx, c.ID, Request{Kind: RequestConnect, Name: "alice"}); err != nil {
			t.Fatalf("connect: %v", err)
		}
		if out := <-c.Outbound; out.Kind != OutputConnected {
			t.Fatalf("expected connected, got kind %d", out.Kind)
		}

		present := false
		ops := rapid.SliceOfN(rapid.SampledFrom([]proto.EventType{proto.EventEnter, proto.EventLeave}), 1, 40).Draw(t, "ops")

		for _, op := range ops {
			if err := s.Submit(acceptCtx, c.ID, Request{Kind: RequestEvent, Event: &proto.Event{
				Channel: proto.World(),
				Type:    op,
			}}); err != nil {
				t.Fatalf("submit: %v", err)
			}

			accepted := (op == proto.EventEnter) != present
			out := <-c.Outbound
			if accepted {
				if out.Kind != OutputEvent || out.Event.Type != op {
					t.Fatalf("expected %s broadcast, got %+v", op, out)
				}
				present = !present
			} else if out.Kind != OutputError {
				t.Fatalf("expected error for rejected %s, got %+v", op, out)
			}
		}

		// Posting succeeds exactly when the parity says present.
		if err := s.Submit(acceptCtx, c.ID, Request{Kind: RequestEvent, Event: &proto.Event{
			Channel: proto.World(),
			Type:    proto.EventPost,
			Message: &proto.Message{Body: "ping"},
		}}); err != nil {
			t.Fatalf("submit post: %v", err)
		}
		out := <-c.Outbound
		if present && (out.Kind != OutputEvent || out.Event.Type != proto.EventPost) {
			t.Fatalf("expected post broadcast, got %+v", out)
		}
		if !present && out.Kind != OutputError {
			t.Fatalf("expected error post while absent, got %+v", out)
		}
	})
}
