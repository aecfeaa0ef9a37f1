// Package tcp is the primary transport: a plain TCP listener speaking
// newline-delimited JSON frames, one connection task per socket.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ratchat-server/internal/core"
)

// Server accepts TCP connections and bridges each one to the session.
type Server struct {
	addr    string
	session *core.Session
	log     *zerolog.Logger

	listener net.Listener
	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
}

// NewServer builds a TCP server bound to the given session.
func NewServer(addr string, session *core.Session, logger *zerolog.Logger) *Server {
	return &Server{
		addr:    addr,
		session: session,
		log:     logger,
		quit:    make(chan struct{}),
	}
}

// ListenAndServe accepts connections until Stop is called or ctx is
// cancelled. It blocks for the lifetime of the listener.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	// Stop may have run before the listener existed; it closed quit
	// but had nothing to close yet.
	select {
	case <-s.quit:
		listener.Close()
		return nil
	default:
	}

	s.log.Info().Str("addr", listener.Addr().String()).Msg("tcp server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error().Err(err).Msg("accept connection")
			continue
		}

		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, raw net.Conn) {
	defer s.wg.Done()
	defer raw.Close()

	logger := s.log.With().Str("remote_addr", raw.RemoteAddr().String()).Logger()
	logger.Info().Msg("client connected")

	client, err := s.session.Accept(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("handshake failed")
		return
	}

	task := newConnTask(s.session, client, raw, &logger)
	task.run(ctx)

	logger.Info().Stringer("client_id", client.ID).Msg("client disconnected")
}

// Addr returns the actual listening address, or empty string if the
// server is not listening yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Stop closes the listener and waits for active connection tasks to
// finish.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })

	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info().Msg("tcp server stopped")
}
