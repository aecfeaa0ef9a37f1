package app

import (
	"context"
	stdhttp "net/http"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ratchat-server/internal/config"
	"github.com/vovakirdan/ratchat-server/internal/core"
	"github.com/vovakirdan/ratchat-server/internal/transport/tcp"
	"github.com/vovakirdan/ratchat-server/internal/transport/ws"
)

// App wires together the session and the transports.
type App struct {
	cfg     config.Config
	session *core.Session
	tcp     *tcp.Server
	ws      *stdhttp.Server
	log     *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	session := core.NewSession(cfg.OutboundQueueSize, logger)

	a := &App{
		cfg:     cfg,
		session: session,
		tcp:     tcp.NewServer(cfg.TCPAddr, session, logger),
		log:     logger,
	}
	if cfg.WSAddr != "" {
		a.ws = ws.NewServer(cfg.WSAddr, session, cfg.ReadHeaderTimeout, logger)
	}
	return a
}

// Run starts the session loop and the transports, blocking until
// context cancellation or a fatal listener error.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.session.Run(ctx)

	serverErr := make(chan error, 2)
	go func() {
		serverErr <- a.tcp.ListenAndServe(ctx)
	}()

	if a.ws != nil {
		a.log.Info().Str("addr", a.ws.Addr).Msg("websocket gateway listening")
		go func() {
			if err := a.ws.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
	}

	select {
	case err := <-serverErr:
		cancel()
		a.stop()
		return err
	case <-ctx.Done():
		a.stop()
		return nil
	}
}

func (a *App) stop() {
	a.tcp.Stop()

	if a.ws != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down websocket gateway")
		_ = a.ws.Shutdown(shutdownCtx)
	}
}
