package core

import (
	"sync"

	"github.com/vovakirdan/ratchat-server/internal/proto"
)

// audience resolves the set of connections that must receive an event.
// World covers every world-present user, a room covers its current
// members and a private channel covers the acting user and the target.
// An unknown room resolves to an empty audience rather than an error.
func (s *Session) audience(ev *proto.Event) []*Client {
	switch ev.Channel.Kind {
	case proto.ChannelWorld:
		recipients := make([]*Client, 0, len(s.users))
		for _, u := range s.users {
			if c, ok := s.clients[u.clientID]; ok {
				recipients = append(recipients, c)
			}
		}
		return recipients
	case proto.ChannelRoom:
		room, ok := s.rooms[ev.Channel.Room]
		if !ok {
			return nil
		}
		recipients := make([]*Client, 0, len(room.members))
		for id := range room.members {
			u, ok := s.users[id]
			if !ok {
				continue
			}
			if c, ok := s.clients[u.clientID]; ok {
				recipients = append(recipients, c)
			}
		}
		return recipients
	case proto.ChannelPrivate:
		recipients := make([]*Client, 0, 2)
		for _, id := range [2]proto.UserID{ev.User, ev.Channel.User} {
			u, ok := s.users[id]
			if !ok {
				continue
			}
			if c, ok := s.clients[u.clientID]; ok {
				recipients = append(recipients, c)
			}
		}
		return recipients
	}
	return nil
}

// broadcast dispatches ev to every recipient queue concurrently and
// returns once delivery has been attempted everywhere. A recipient
// that is already torn down is skipped silently; a slow recipient
// delays only its own delivery, not the others'. The session waits for
// the whole batch before draining its next mailbox message.
func (s *Session) broadcast(recipients []*Client, ev *proto.Event) {
	out := &Output{Kind: OutputEvent, Event: ev}

	var wg sync.WaitGroup
	for _, c := range recipients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case c.Outbound <- out:
			case <-c.done:
			}
		}()
	}
	wg.Wait()
}
