package tcp

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ratchat-server/internal/core"
	"github.com/vovakirdan/ratchat-server/internal/proto"
	"github.com/vovakirdan/ratchat-server/internal/transport"
)

// connTask bridges one socket to the session: decoded requests flow
// into the mailbox tagged with the client id, outputs pushed by the
// session flow back onto the socket.
type connTask struct {
	session *core.Session
	client  *core.Client
	conn    net.Conn
	enc     *proto.Encoder
	dec     *proto.Decoder
	log     *zerolog.Logger
}

func newConnTask(session *core.Session, client *core.Client, conn net.Conn, logger *zerolog.Logger) *connTask {
	return &connTask{
		session: session,
		client:  client,
		conn:    conn,
		enc:     proto.NewEncoder(conn),
		dec:     proto.NewDecoder(conn),
		log:     logger,
	}
}

func (t *connTask) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Membership is cleaned up even when the socket drops without a
	// disconnect request.
	defer transport.Release(t.session, t.client)

	resp, err := transport.OutputToResponse(&core.Output{Kind: core.OutputAccepted, ClientID: t.client.ID})
	if err == nil {
		err = t.enc.Encode(resp)
	}
	if err != nil {
		t.log.Warn().Err(err).Msg("send accepted")
		return
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- t.readLoop(ctx)
	}()
	go func() {
		errCh <- t.writeLoop(ctx)
	}()

	err = <-errCh
	cancel()
	t.conn.Close() // unblock the socket read
	<-errCh

	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) && !errors.Is(err, net.ErrClosed) {
		t.log.Warn().Err(err).Stringer("client_id", t.client.ID).Msg("connection closed with error")
	}
}

func (t *connTask) readLoop(ctx context.Context) error {
	for {
		var req proto.Request
		if err := t.dec.Decode(&req); err != nil {
			return err
		}

		in, err := transport.RequestToInput(req)
		if err != nil {
			// Protocol error, fatal to this connection only.
			return err
		}
		if err := t.session.Submit(ctx, t.client.ID, in); err != nil {
			return err
		}
	}
}

func (t *connTask) writeLoop(ctx context.Context) error {
	for {
		select {
		case out, ok := <-t.client.Outbound:
			if !ok {
				// The session deregistered this connection.
				return nil
			}
			resp, err := transport.OutputToResponse(out)
			if err != nil {
				return err
			}
			if err := t.enc.Encode(resp); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
