package core

import "github.com/vovakirdan/ratchat-server/internal/proto"

// Client is the session-side record of one live connection and the
// handle its transport holds. The session owns the user binding and
// the queue lifecycle; transports only receive from Outbound and
// submit requests through the mailbox.
type Client struct {
	ID proto.ClientID

	// Outbound is the per-connection queue the session pushes replies
	// and broadcast events onto. Closed by the session on shutdown.
	Outbound chan *Output

	// done is closed by the session when the connection is
	// deregistered, releasing any in-flight broadcast send.
	done chan struct{}

	// user is bound at most once and only ever touched by the
	// session loop.
	user *User
}

func newClient(queueSize int) *Client {
	return &Client{
		Outbound: make(chan *Output, queueSize),
		done:     make(chan struct{}),
	}
}

// Done is closed once the session has deregistered the connection.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// OutputKind describes what the session is telling a connection.
type OutputKind int

const (
	// OutputAccepted acknowledges a freshly registered connection.
	OutputAccepted OutputKind = iota
	// OutputUser answers a user lookup; User is nil when no match exists.
	OutputUser
	// OutputRoom answers a room lookup; Room is nil when no match exists.
	OutputRoom
	// OutputConnected confirms that a user was bound to the connection.
	OutputConnected
	// OutputCreatedRoom confirms room creation.
	OutputCreatedRoom
	// OutputEvent delivers a broadcast event.
	OutputEvent
	// OutputDisconnected confirms a disconnect request.
	OutputDisconnected
	// OutputError reports a rejected request.
	OutputError
)

// Output is a message pushed by the session onto a connection's
// outbound queue.
type Output struct {
	Kind     OutputKind
	ClientID proto.ClientID
	User     *proto.User
	Room     *proto.Room
	Event    *proto.Event
	Err      *Error
}
