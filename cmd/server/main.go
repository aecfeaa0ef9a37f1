package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/ratchat-server/internal/app"
	"github.com/vovakirdan/ratchat-server/internal/config"
	"github.com/vovakirdan/ratchat-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:          "ratchat-server",
		Short:        "Multi-room chat server over a stream transport",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, cfgPath)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to config file")
	cmd.Flags().String("tcp-addr", "", "TCP listen address")
	cmd.Flags().String("ws-addr", "", "WebSocket gateway address (empty disables the gateway)")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")

	return cmd
}

func run(cmd *cobra.Command, cfgPath string) error {
	bootstrapLog := log.New("info")

	cfg, path, err := config.Load(bootstrapLog, cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if v, _ := cmd.Flags().GetString("tcp-addr"); v != "" {
		cfg.TCPAddr = v
	}
	if f := cmd.Flags().Lookup("ws-addr"); f != nil && f.Changed {
		cfg.WSAddr = f.Value.String()
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().
		Str("config", path).
		Str("tcp_addr", cfg.TCPAddr).
		Msg("starting ratchat server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, logger).Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}
