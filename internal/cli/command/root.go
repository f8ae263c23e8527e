package command

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/cli/config"
	"github.com/yndnr/minikv/internal/cli/output"
	"github.com/yndnr/minikv/internal/cli/repl"
	"github.com/yndnr/minikv/internal/client"
	"github.com/yndnr/minikv/internal/infra/buildinfo"
)

const (
	metaConfig = "config"
	metaClient = "client"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "minikv-cli",
		Usage:    "minikv command-line client",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			PingCommand(),
			EchoCommand(),
			GetCommand(),
			SetCommand(),
			DelCommand(),
			ExecCommand(),
			ConfigCommand(),
		},
		Before: loadSettings,
		Action: runREPL,
		After:  closeClient,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	defaults := config.Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "minikv server address",
			EnvVars: []string{"MINIKV_SERVER"},
			Value:   defaults.Server,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: raw, json, yaml",
			Value:   defaults.Output,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Dial and request timeout",
			Value: defaults.Timeout,
		},
	}
}

// loadSettings merges the config file, environment and explicitly set
// flags into one CLIConfig.
func loadSettings(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load cli config: %w", err)
	}

	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	if _, err := output.ParseFormat(cfg.Output); err != nil {
		return err
	}

	c.App.Metadata[metaConfig] = cfg
	return nil
}

// Settings returns the effective configuration.
func Settings(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// EnsureConnected returns the shared client, dialing on first use.
func EnsureConnected(c *cli.Context) (*client.Client, error) {
	if cl, ok := c.App.Metadata[metaClient].(*client.Client); ok {
		return cl, nil
	}

	cfg := Settings(c)
	cl, err := client.Dial(cmdContext(c), cfg.Server, client.WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	c.App.Metadata[metaClient] = cl
	return cl, nil
}

func closeClient(c *cli.Context) error {
	if cl, ok := c.App.Metadata[metaClient].(*client.Client); ok {
		delete(c.App.Metadata, metaClient)
		return cl.Close()
	}
	return nil
}

// formatter returns the formatter selected by --output.
func formatter(c *cli.Context) output.Formatter {
	return output.NewFormatter(output.Format(Settings(c).Output))
}

func runREPL(c *cli.Context) error {
	if c.Args().Present() {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}

	cl, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	in := c.App.Reader
	if in == nil {
		in = os.Stdin
	}
	r := repl.New(cl.Addr(), cl.Do, formatter(c), repl.WithIO(in, c.App.Writer))
	return r.Run(cmdContext(c))
}

func cmdContext(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
