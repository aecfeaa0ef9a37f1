package config

import "time"

// Config holds server configuration values.
type Config struct {
	// TCPAddr is the listen address of the primary stream transport.
	TCPAddr string `mapstructure:"tcp_addr" yaml:"tcp_addr"`
	// WSAddr is the listen address of the WebSocket gateway; empty
	// disables the gateway.
	WSAddr string `mapstructure:"ws_addr" yaml:"ws_addr"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// OutboundQueueSize is the capacity of each per-connection
	// outbound queue.
	OutboundQueueSize int `mapstructure:"outbound_queue_size" yaml:"outbound_queue_size"`

	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		TCPAddr:           ":34254",
		WSAddr:            "",
		LogLevel:          "info",
		OutboundQueueSize: 32,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}
