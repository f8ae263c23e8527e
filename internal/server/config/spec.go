package config

import "time"

// ServerConfig is the root configuration for minikv-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// MaxFrameSize bounds the bytes buffered for one incomplete request.
	MaxFrameSize int `koanf:"max_frame_size"`

	// RateLimit is requests per second per client IP; 0 disables it.
	RateLimit float64 `koanf:"rate_limit"`

	// ExtendedCommands adds SET with EX/PX and DEL. Off by default.
	ExtendedCommands bool `koanf:"extended_commands"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
