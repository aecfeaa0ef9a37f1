package core

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ratchat-server/internal/proto"
)

const (
	// mailboxSize bounds how many requests can be queued ahead of the
	// session loop. Requests from one connection are still processed
	// in submission order.
	mailboxSize = 32

	// DefaultQueueSize is the outbound queue capacity used when the
	// configured value is not positive.
	DefaultQueueSize = 32
)

// Session is the single authoritative owner of connections, users and
// rooms. Every mutation happens on the goroutine draining the mailbox
// in Run; transports talk to it exclusively through Accept and Submit,
// so no locks guard the state maps.
type Session struct {
	mailbox   chan inbound
	done      chan struct{}
	queueSize int
	log       *zerolog.Logger

	clients map[proto.ClientID]*Client
	users   map[proto.UserID]*User
	rooms   map[proto.RoomID]*Room
}

type inbound struct {
	accept *Client // set for handshakes, nil otherwise
	id     proto.ClientID
	req    Request
}

// NewSession builds a session with empty state. queueSize is the
// capacity of each per-connection outbound queue.
func NewSession(queueSize int, logger *zerolog.Logger) *Session {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Session{
		mailbox:   make(chan inbound, mailboxSize),
		done:      make(chan struct{}),
		queueSize: queueSize,
		log:       logger,
		clients:   make(map[proto.ClientID]*Client),
		users:     make(map[proto.UserID]*User),
		rooms:     make(map[proto.RoomID]*Room),
	}
}

// Run drains the mailbox until ctx is cancelled, processing exactly
// one message at a time.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case msg := <-s.mailbox:
			s.dispatch(msg)
		case <-ctx.Done():
			return
		}
	}
}

// Done is closed when the session loop has exited; submissions after
// that fail with ErrSessionClosed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Accept registers a new connection and blocks until the session has
// minted its id. The returned client carries the outbound queue the
// transport must keep draining until it is closed.
func (s *Session) Accept(ctx context.Context) (*Client, error) {
	if s.closed() {
		return nil, ErrSessionClosed
	}

	c := newClient(s.queueSize)
	select {
	case s.mailbox <- inbound{accept: c}:
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// The accept was enqueued, so the session will reply unless it is
	// shutting down.
	select {
	case <-c.Outbound:
		return c, nil
	case <-s.done:
		return nil, ErrSessionClosed
	}
}

// Submit forwards a request to the mailbox tagged with the client id.
func (s *Session) Submit(ctx context.Context, id proto.ClientID, req Request) error {
	// The mailbox is buffered, so a send could still succeed after the
	// loop has exited and would never be drained. Check done first so
	// submissions fail instead of vanishing.
	if s.closed() {
		return ErrSessionClosed
	}

	select {
	case s.mailbox <- inbound{id: id, req: req}:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) dispatch(msg inbound) {
	if msg.accept != nil {
		s.handleAccept(msg.accept)
		return
	}

	c, ok := s.clients[msg.id]
	if !ok {
		// Normal after a disconnect already tore the client down.
		if msg.req.Kind != RequestShutdown {
			s.log.Warn().Stringer("client_id", msg.id).Msg("request from unknown client")
		}
		return
	}

	switch msg.req.Kind {
	case RequestGetUser:
		s.handleGetUser(c, msg.req.Name)
	case RequestGetRoom:
		s.handleGetRoom(c, msg.req.Name)
	case RequestConnect:
		s.handleConnect(c, msg.req.Name)
	case RequestCreateRoom:
		s.handleCreateRoom(c, msg.req.Name)
	case RequestEvent:
		s.handleEvent(c, msg.req.Event)
	case RequestDisconnect:
		s.push(c, &Output{Kind: OutputDisconnected})
		s.shutdown(c)
	case RequestShutdown:
		s.shutdown(c)
	}
}

func (s *Session) handleAccept(c *Client) {
	c.ID = proto.NewClientID()
	s.clients[c.ID] = c
	s.push(c, &Output{Kind: OutputAccepted, ClientID: c.ID})
	s.log.Debug().Stringer("client_id", c.ID).Msg("connection accepted")
}

func (s *Session) handleGetUser(c *Client, name string) {
	for _, u := range s.users {
		if u.Name == name {
			user := u.User
			s.push(c, &Output{Kind: OutputUser, User: &user})
			return
		}
	}
	s.push(c, &Output{Kind: OutputUser})
}

func (s *Session) handleGetRoom(c *Client, name string) {
	for _, r := range s.rooms {
		if r.Name == name {
			room := r.Room
			s.push(c, &Output{Kind: OutputRoom, Room: &room})
			return
		}
	}
	s.push(c, &Output{Kind: OutputRoom})
}

func (s *Session) handleConnect(c *Client, name string) {
	if c.user != nil {
		s.fail(c, ErrCodeAlreadyConnected, "client already has a user")
		return
	}

	// Duplicate display names across users are allowed.
	c.user = newUser(c.ID, name)
	user := c.user.User
	s.push(c, &Output{Kind: OutputConnected, User: &user})
	s.log.Info().Stringer("client_id", c.ID).Str("user", name).Msg("user connected")
}

func (s *Session) handleCreateRoom(c *Client, name string) {
	for _, r := range s.rooms {
		if r.Name == name {
			s.fail(c, ErrCodeRoomExists, "room name already taken")
			return
		}
	}

	room := newRoom(name)
	s.rooms[room.ID] = room
	created := room.Room
	s.push(c, &Output{Kind: OutputCreatedRoom, Room: &created})
	s.log.Info().Stringer("room_id", room.ID).Str("room", name).Msg("room created")
}

func (s *Session) handleEvent(c *Client, ev *proto.Event) {
	if ev == nil {
		s.fail(c, ErrCodeBadRequest, "event payload missing")
		return
	}
	if c.user == nil {
		s.fail(c, ErrCodeNotConnected, "connect before sending events")
		return
	}

	e := *ev
	e.User = c.user.ID

	switch e.Channel.Kind {
	case proto.ChannelWorld:
		s.handleWorldEvent(c, &e)
	case proto.ChannelRoom:
		s.handleRoomEvent(c, &e)
	case proto.ChannelPrivate:
		s.handlePrivateEvent(c, &e)
	default:
		s.fail(c, ErrCodeBadRequest, "unknown channel kind")
	}
}

func (s *Session) handleWorldEvent(c *Client, e *proto.Event) {
	u := c.user
	_, present := s.users[u.ID]

	switch e.Type {
	case proto.EventEnter:
		if present {
			s.fail(c, ErrCodeAlreadyInWorld, "already present in world")
			return
		}
		s.users[u.ID] = u
		s.broadcast(s.audience(e), e)
	case proto.EventLeave:
		if !present {
			s.fail(c, ErrCodeNotInWorld, "not present in world")
			return
		}
		s.leaveWorld(u)
	case proto.EventPost:
		if !present {
			s.fail(c, ErrCodeNotInWorld, "enter world before posting")
			return
		}
		if e.Message == nil {
			s.fail(c, ErrCodeBadRequest, "post without a message")
			return
		}
		s.broadcast(s.audience(e), e)
	default:
		s.fail(c, ErrCodeBadRequest, "unknown event type")
	}
}

func (s *Session) handleRoomEvent(c *Client, e *proto.Event) {
	u := c.user
	if _, present := s.users[u.ID]; !present {
		s.fail(c, ErrCodeNotInWorld, "enter world before using rooms")
		return
	}
	room, ok := s.rooms[e.Channel.Room]
	if !ok {
		s.fail(c, ErrCodeRoomNotFound, "no such room")
		return
	}
	_, member := room.members[u.ID]

	switch e.Type {
	case proto.EventEnter:
		// Membership is a set, so re-entering does not duplicate it,
		// but the enter is still re-broadcast on every call.
		room.members[u.ID] = struct{}{}
		u.rooms[room.ID] = struct{}{}
		s.broadcast(s.audience(e), e)
	case proto.EventLeave:
		if !member {
			s.fail(c, ErrCodeNotInRoom, "not a member of this room")
			return
		}
		s.leaveRoom(u, room)
	case proto.EventPost:
		if !member {
			s.fail(c, ErrCodeNotInRoom, "join the room before posting")
			return
		}
		if e.Message == nil {
			s.fail(c, ErrCodeBadRequest, "post without a message")
			return
		}
		s.broadcast(s.audience(e), e)
	default:
		s.fail(c, ErrCodeBadRequest, "unknown event type")
	}
}

// handlePrivateEvent delivers a post to exactly the sender and one
// target user. Private channels have no membership, so enter and
// leave are rejected.
func (s *Session) handlePrivateEvent(c *Client, e *proto.Event) {
	u := c.user
	if _, present := s.users[u.ID]; !present {
		s.fail(c, ErrCodeNotInWorld, "enter world before messaging")
		return
	}
	if e.Type != proto.EventPost {
		s.fail(c, ErrCodeBadRequest, "private channels only carry posts")
		return
	}
	if e.Message == nil {
		s.fail(c, ErrCodeBadRequest, "post without a message")
		return
	}
	if _, ok := s.users[e.Channel.User]; !ok {
		s.fail(c, ErrCodeUserNotFound, "no such user")
		return
	}
	s.broadcast(s.audience(e), e)
}

// leaveWorld leaves every joined room first, then removes world
// presence. Each audience is computed before the removal it announces,
// so the leaver still receives its own leave confirmations.
func (s *Session) leaveWorld(u *User) {
	for _, room := range s.joinedRooms(u) {
		s.leaveRoom(u, room)
	}

	ev := &proto.Event{Channel: proto.World(), User: u.ID, Type: proto.EventLeave}
	recipients := s.audience(ev)
	delete(s.users, u.ID)
	s.broadcast(recipients, ev)
	s.log.Info().Stringer("user_id", u.ID).Str("user", u.Name).Msg("user left world")
}

// joinedRooms returns the user's rooms sorted by name so cascaded
// leaves happen in a deterministic order.
func (s *Session) joinedRooms(u *User) []*Room {
	rooms := make([]*Room, 0, len(u.rooms))
	for id := range u.rooms {
		if room, ok := s.rooms[id]; ok {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms
}

// leaveRoom removes membership on both sides after snapshotting the
// audience, keeping the leaver in its own leave broadcast.
func (s *Session) leaveRoom(u *User, room *Room) {
	ev := &proto.Event{Channel: proto.InRoom(room.ID), User: u.ID, Type: proto.EventLeave}
	recipients := s.audience(ev)
	delete(room.members, u.ID)
	delete(u.rooms, room.ID)
	s.broadcast(recipients, ev)
}

// shutdown deregisters the connection, cascading a world leave when a
// user is bound and present. Closing the outbound queue is safe here:
// the session is the only sender and all broadcast sends of the
// previous batch have completed.
func (s *Session) shutdown(c *Client) {
	if c.user != nil {
		if _, present := s.users[c.user.ID]; present {
			s.leaveWorld(c.user)
		}
	}
	delete(s.clients, c.ID)
	close(c.done)
	close(c.Outbound)
	s.log.Debug().Stringer("client_id", c.ID).Msg("connection closed")
}

// push delivers a direct reply, giving up only if the connection is
// already torn down.
func (s *Session) push(c *Client, out *Output) {
	select {
	case c.Outbound <- out:
	case <-c.done:
	}
}

func (s *Session) fail(c *Client, code, msg string) {
	s.push(c, &Output{Kind: OutputError, Err: stateError(code, msg)})
}
