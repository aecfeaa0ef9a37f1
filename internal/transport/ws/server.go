// Package ws is the optional WebSocket gateway: the same session and
// message schema as the TCP transport, reachable from browsers.
package ws

import (
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ratchat-server/internal/core"
)

// NewServer builds the gateway HTTP server with the /ws endpoint and a
// health check.
func NewServer(addr string, session *core.Session, readHeaderTimeout time.Duration, logger *zerolog.Logger) *stdhttp.Server {
	mux := stdhttp.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/ws", NewHandler(session, logger))

	return &stdhttp.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func healthHandler(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
	_, _ = fmt.Fprint(w, "ok")
}
