package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/command"
	"github.com/yndnr/minikv/internal/infra/buildinfo"
	"github.com/yndnr/minikv/internal/infra/confloader"
	"github.com/yndnr/minikv/internal/infra/shutdown"
	"github.com/yndnr/minikv/internal/server/config"
	"github.com/yndnr/minikv/internal/server/metricsserver"
	"github.com/yndnr/minikv/internal/server/redisserver"
	"github.com/yndnr/minikv/internal/storage"
	"github.com/yndnr/minikv/internal/telemetry/logger"
	"github.com/yndnr/minikv/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "minikv-server",
		Usage:   "In-memory key-value server speaking RESP2",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"MINIKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "RESP listen address (host:port)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "RESP listen port, replacing the port of --addr",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: json, text",
			},
			&cli.BoolFlag{
				Name:  "extended-commands",
				Usage: "Also serve SET with EX/PX and DEL",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve /metrics and /health on this address",
			},
		},
		Action: func(c *cli.Context) error {
			overrides, err := flagOverrides(c)
			if err != nil {
				return err
			}
			return serve(c.Context, c.String("config"), overrides, nil)
		},
	}
}

// flagOverrides turns the flags that were set into dotted config keys.
func flagOverrides(c *cli.Context) (map[string]any, error) {
	overrides := make(map[string]any)

	if c.IsSet("addr") {
		overrides["server.redis.addr"] = c.String("addr")
	}
	if c.IsSet("port") {
		port := c.Int("port")
		if port < 0 || port > 65535 {
			return nil, fmt.Errorf("invalid port %d", port)
		}
		overrides["server.redis.port"] = port
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		overrides["log.format"] = c.String("log-format")
	}
	if c.IsSet("extended-commands") {
		overrides["server.redis.extended_commands"] = c.Bool("extended-commands")
	}
	if c.IsSet("metrics-addr") {
		overrides["server.metrics.enabled"] = true
		overrides["server.metrics.addr"] = c.String("metrics-addr")
	}
	return overrides, nil
}

// loadConfig loads configuration from file, environment and overrides.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if len(overrides) > 0 {
		flat := make(map[string]any, len(overrides))
		for k, v := range overrides {
			flat[k] = v
		}
		// The port is not a config key; fold it into the address.
		if port, ok := flat["server.redis.port"]; ok {
			delete(flat, "server.redis.port")
			addr := cfg.Server.Redis.Addr
			if a, ok := flat["server.redis.addr"].(string); ok {
				addr = a
			}
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, fmt.Errorf("apply --port to %q: %w", addr, err)
			}
			flat["server.redis.addr"] = net.JoinHostPort(host, strconv.Itoa(port.(int)))
		}

		if err := loader.LoadMap(flat); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// serve runs the server until a signal arrives or ctx is cancelled. ready,
// if non-nil, receives the RESP server once it is listening.
func serve(ctx context.Context, configFile string, overrides map[string]any, ready chan<- *redisserver.Server) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	ctx = logger.WithLogger(ctx, log)
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting minikv-server",
		"version", info.Version,
		"commit", info.Commit,
		"go_version", info.GoVersion,
		"config", configFile)

	store := storage.New()
	registry := metric.NewRegistry()

	dispatcher := command.NewDefault()
	if cfg.Server.Redis.ExtendedCommands {
		dispatcher = command.NewExtended()
	}

	redisServer := redisserver.New(&redisserver.Config{
		Address:      cfg.Server.Redis.Addr,
		ReadTimeout:  cfg.Server.Redis.ReadTimeout,
		WriteTimeout: cfg.Server.Redis.WriteTimeout,
		IdleTimeout:  cfg.Server.Redis.IdleTimeout,
		MaxFrameSize: cfg.Server.Redis.MaxFrameSize,
		RateLimit:    cfg.Server.Redis.RateLimit,
	}, store, dispatcher, slogLogger, registry)

	shutdownHandler := shutdown.NewHandler(shutdownTimeout)

	// Hooks run in reverse order of registration.
	if err := redisServer.Start(ctx); err != nil {
		return fmt.Errorf("start redis server: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down redis server")
		return redisServer.Shutdown(ctx)
	})

	if cfg.Server.Metrics.Enabled {
		metricsServer := metricsserver.New(cfg.Server.Metrics.Addr, registry, slogLogger)
		if err := metricsServer.Start(); err != nil {
			_ = shutdownHandler.Shutdown()
			return fmt.Errorf("start metrics server: %w", err)
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return metricsServer.Shutdown(ctx)
		})
	}

	if configFile != "" {
		watcher, err := watchConfig(ctx, configFile, overrides)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	if ready != nil {
		ready <- redisServer
	}

	log.Info("server started, press Ctrl+C to stop", "address", redisServer.Addr().String())
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// watchConfig re-reads configFile when it changes and applies the new log
// level. Other settings need a restart.
func watchConfig(ctx context.Context, configFile string, overrides map[string]any) (*confloader.Watcher, error) {
	log := logger.FromContext(ctx)

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg, err := loadConfig(path, overrides)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	watcher.StartAsync()
	return watcher, nil
}
