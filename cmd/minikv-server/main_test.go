package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/client"
	"github.com/yndnr/minikv/internal/server/config"
	"github.com/yndnr/minikv/internal/server/redisserver"
	"github.com/yndnr/minikv/internal/telemetry/logger"
)

// ============================================================================
// Configuration
// ============================================================================

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("", nil)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.Redis.Addr != config.DefaultRedisAddr {
		t.Errorf("addr = %q, want %q", cfg.Server.Redis.Addr, config.DefaultRedisAddr)
	}
	if cfg.Server.Metrics.Enabled {
		t.Error("metrics should be disabled by default")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		want      string
	}{
		{"port only", map[string]any{"server.redis.port": 7000}, "127.0.0.1:7000"},
		{"addr only", map[string]any{"server.redis.addr": "0.0.0.0:6390"}, "0.0.0.0:6390"},
		{"addr and port", map[string]any{"server.redis.addr": "[::1]:1", "server.redis.port": 6381}, "[::1]:6381"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig("", tt.overrides)
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			if cfg.Server.Redis.Addr != tt.want {
				t.Errorf("addr = %q, want %q", cfg.Server.Redis.Addr, tt.want)
			}
		})
	}
}

func TestLoadConfig_FileEnvFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minikv.yaml")
	data := `
server:
  redis:
    addr: 127.0.0.1:7001
    read_timeout: 3s
log:
  level: warn
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MINIKV_SERVER_REDIS_IDLE_TIMEOUT", "42s")

	cfg, err := loadConfig(path, map[string]any{"log.level": "debug"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.Redis.Addr != "127.0.0.1:7001" {
		t.Errorf("addr = %q", cfg.Server.Redis.Addr)
	}
	if cfg.Server.Redis.ReadTimeout != 3*time.Second {
		t.Errorf("read_timeout = %v, want 3s", cfg.Server.Redis.ReadTimeout)
	}
	if cfg.Server.Redis.IdleTimeout != 42*time.Second {
		t.Errorf("idle_timeout = %v, want 42s", cfg.Server.Redis.IdleTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want flag value debug", cfg.Log.Level)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := loadConfig("", map[string]any{"log.level": "loud"}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("missing config file should fail")
	}
	if _, err := loadConfig("", map[string]any{"server.redis.addr": "nocolon", "server.redis.port": 1}); err == nil {
		t.Error("--port with an address lacking a port should fail")
	}
}

func TestFlagOverrides(t *testing.T) {
	app := newApp()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(set); err != nil {
			t.Fatal(err)
		}
	}
	if err := set.Parse([]string{"--port", "6390", "--metrics-addr", "127.0.0.1:0", "--log-level", "error"}); err != nil {
		t.Fatal(err)
	}

	got, err := flagOverrides(cli.NewContext(app, set, nil))
	if err != nil {
		t.Fatalf("flagOverrides() error = %v", err)
	}
	if got["server.redis.port"] != 6390 {
		t.Errorf("port = %v, want 6390", got["server.redis.port"])
	}
	if got["server.metrics.enabled"] != true || got["server.metrics.addr"] != "127.0.0.1:0" {
		t.Errorf("metrics overrides = %v", got)
	}
	if _, ok := got["server.redis.addr"]; ok {
		t.Error("addr should not be set when --addr is absent")
	}
	if _, ok := got["server.redis.extended_commands"]; ok {
		t.Error("extended_commands should not be set when --extended-commands is absent")
	}

	if err := set.Parse([]string{"--extended-commands"}); err != nil {
		t.Fatal(err)
	}
	got, err = flagOverrides(cli.NewContext(app, set, nil))
	if err != nil {
		t.Fatalf("flagOverrides() error = %v", err)
	}
	if got["server.redis.extended_commands"] != true {
		t.Errorf("extended_commands = %v, want true", got["server.redis.extended_commands"])
	}

	if err := set.Parse([]string{"--port", "70000"}); err != nil {
		t.Fatal(err)
	}
	if _, err := flagOverrides(cli.NewContext(app, set, nil)); err == nil {
		t.Error("out of range port should fail")
	}
}

// ============================================================================
// Serve
// ============================================================================

func startServe(t *testing.T, configFile string, overrides map[string]any) (*redisserver.Server, context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan *redisserver.Server, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx, configFile, overrides, ready) }()

	select {
	case srv := <-ready:
		return srv, cancel, errCh
	case err := <-errCh:
		cancel()
		t.Fatalf("serve() returned early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}
	return nil, cancel, errCh
}

func TestServe_Lifecycle(t *testing.T) {
	srv, cancel, errCh := startServe(t, "", map[string]any{
		"server.redis.addr":      "127.0.0.1:0",
		"server.metrics.enabled": true,
		"server.metrics.addr":    "127.0.0.1:0",
		"log.level":              "error",
	})

	c, err := client.Dial(context.Background(), srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, err := c.Get(ctx, "k"); err != nil || got != "v" {
		t.Errorf("Get() = %q, %v", got, err)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve() did not return after cancel")
	}
}

func TestServe_ExtendedCommands(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		wantDel int64
		unknown bool
	}{
		{"disabled by default", false, 0, true},
		{"enabled", true, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overrides := map[string]any{
				"server.redis.addr": "127.0.0.1:0",
				"log.level":         "error",
			}
			if tt.enabled {
				overrides["server.redis.extended_commands"] = true
			}
			srv, cancel, errCh := startServe(t, "", overrides)
			defer func() {
				cancel()
				<-errCh
			}()

			c, err := client.Dial(context.Background(), srv.Addr().String())
			if err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			defer c.Close()

			ctx := context.Background()
			if err := c.Set(ctx, "k", "v"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			n, err := c.Del(ctx, "k")
			var serr *client.ServerError
			if tt.unknown {
				if !errors.As(err, &serr) || serr.Message != "unknown command" {
					t.Fatalf("Del() error = %v, want unknown command", err)
				}
				if got, err := c.Get(ctx, "k"); err != nil || got != "v" {
					t.Errorf("Get() = %q, %v, want v", got, err)
				}
				err = c.SetEX(ctx, "k", "w", time.Minute)
				if !errors.As(err, &serr) || serr.Message != "unknown command" {
					t.Errorf("SetEX() error = %v, want unknown command", err)
				}
				return
			}
			if err != nil || n != tt.wantDel {
				t.Fatalf("Del() = %d, %v, want %d", n, err, tt.wantDel)
			}
			if err := c.SetEX(ctx, "k", "w", time.Minute); err != nil {
				t.Errorf("SetEX() error = %v", err)
			}
		})
	}
}

func TestServe_BadConfig(t *testing.T) {
	err := serve(context.Background(), "", map[string]any{"log.format": "xml"}, nil)
	if err == nil {
		t.Error("serve() with invalid config should fail")
	}
}

func TestServe_ReloadsLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minikv.yaml")
	write := func(level string) {
		data := "server:\n  redis:\n    addr: 127.0.0.1:0\nlog:\n  level: " + level + "\n"
		if err := os.WriteFile(path, []byte(data), 0600); err != nil {
			t.Fatal(err)
		}
	}
	write("error")

	_, cancel, errCh := startServe(t, path, nil)
	defer func() {
		cancel()
		<-errCh
	}()

	if got := logger.GetLevel(); got != "error" {
		t.Fatalf("level = %q, want error", got)
	}

	write("debug")
	deadline := time.Now().Add(5 * time.Second)
	for logger.GetLevel() != "debug" {
		if time.Now().After(deadline) {
			t.Fatalf("level = %q after reload, want debug", logger.GetLevel())
		}
		time.Sleep(20 * time.Millisecond)
	}
}
