package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalid is wrapped by every error returned from Verify.
var ErrInvalid = errors.New("invalid configuration")

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyRedis(&cfg.Server.Redis); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Server.Metrics); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyRedis(cfg *RedisConfig) error {
	if err := verifyAddr("server.redis.addr", cfg.Addr); err != nil {
		return err
	}
	if cfg.ReadTimeout < 0 {
		return fmt.Errorf("%w: server.redis.read_timeout must not be negative", ErrInvalid)
	}
	if cfg.WriteTimeout < 0 {
		return fmt.Errorf("%w: server.redis.write_timeout must not be negative", ErrInvalid)
	}
	if cfg.IdleTimeout < 0 {
		return fmt.Errorf("%w: server.redis.idle_timeout must not be negative", ErrInvalid)
	}
	if cfg.MaxFrameSize < MinMaxFrameSize {
		return fmt.Errorf("%w: server.redis.max_frame_size must be at least %d", ErrInvalid, MinMaxFrameSize)
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("%w: server.redis.rate_limit must not be negative", ErrInvalid)
	}
	return nil
}

func verifyMetrics(cfg *MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}
	return verifyAddr("server.metrics.addr", cfg.Addr)
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level %q is not one of debug, info, warn, error", ErrInvalid, cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("%w: log.format %q is not one of json, text", ErrInvalid, cfg.Format)
	}
	return nil
}

func verifyAddr(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, field, err)
	}
	return nil
}
