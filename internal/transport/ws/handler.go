package ws

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ratchat-server/internal/core"
	"github.com/vovakirdan/ratchat-server/internal/proto"
	"github.com/vovakirdan/ratchat-server/internal/transport"
)

// Handler upgrades HTTP connections and bridges them to the session.
// The frames carry the same request/response envelopes as the TCP
// transport, one JSON message per WebSocket message.
type Handler struct {
	session *core.Session
	log     *zerolog.Logger
}

// NewHandler builds a new WebSocket handler.
func NewHandler(session *core.Session, logger *zerolog.Logger) stdhttp.Handler {
	return &Handler{session: session, log: logger}
}

func (h *Handler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client, err := h.session.Accept(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws handshake failed")
		return
	}
	defer transport.Release(h.session, client)

	resp, err := transport.OutputToResponse(&core.Output{Kind: core.OutputAccepted, ClientID: client.ID})
	if err == nil {
		err = wsjson.Write(ctx, conn, resp)
	}
	if err != nil {
		h.log.Warn().Err(err).Msg("ws send accepted")
		return
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel()
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		} else {
			status = websocket.StatusInternalError
			reason = "internal error"
			h.log.Warn().Err(err).Stringer("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		var req proto.Request
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			return err
		}

		in, err := transport.RequestToInput(req)
		if err != nil {
			// Protocol error, fatal to this connection only.
			return err
		}
		if err := h.session.Submit(ctx, client.ID, in); err != nil {
			return err
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case out, ok := <-client.Outbound:
			if !ok {
				return nil
			}
			resp, err := transport.OutputToResponse(out)
			if err != nil {
				return err
			}
			if err := wsjson.Write(ctx, conn, resp); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
