package command

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/resp"
	"github.com/urfave/cli/v2"
)

// ErrErrorReply is returned after an error reply has been printed, so the
// process can exit non-zero without printing it twice.
var ErrErrorReply = errors.New("server returned an error reply")

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check that the server answers",
		Action: func(c *cli.Context) error {
			if c.NArg() != 0 {
				return usageError(c, "ping takes no arguments")
			}
			return run(c, "PING")
		},
	}
}

// EchoCommand returns the echo command.
func EchoCommand() *cli.Command {
	return &cli.Command{
		Name:      "echo",
		Usage:     "Echo a message",
		ArgsUsage: "<message>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return usageError(c, "echo takes exactly one argument")
			}
			return run(c, "ECHO", c.Args().First())
		},
	}
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return usageError(c, "get takes exactly one key")
			}
			return run(c, "GET", c.Args().First())
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set a key, optionally with an expiry",
		ArgsUsage: "<key> <value>",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "ex",
				Usage: "Expire after this many seconds (server needs extended commands)",
			},
			&cli.Int64Flag{
				Name:  "px",
				Usage: "Expire after this many milliseconds (server needs extended commands)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return usageError(c, "set takes a key and a value")
			}
			args := []string{"SET", c.Args().Get(0), c.Args().Get(1)}

			switch {
			case c.IsSet("ex") && c.IsSet("px"):
				return usageError(c, "--ex and --px are mutually exclusive")
			case c.IsSet("ex"):
				args = append(args, "EX", strconv.FormatInt(c.Int64("ex"), 10))
			case c.IsSet("px"):
				args = append(args, "PX", strconv.FormatInt(c.Int64("px"), 10))
			}
			return run(c, args...)
		},
	}
}

// DelCommand returns the del command.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete one or more keys (server needs extended commands)",
		ArgsUsage: "<key> [key ...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return usageError(c, "del needs at least one key")
			}
			return run(c, append([]string{"DEL"}, c.Args().Slice()...)...)
		},
	}
}

// ExecCommand returns the exec command, which sends its arguments as one
// raw command.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Send a raw command",
		ArgsUsage: "<command> [arg ...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return usageError(c, "exec needs a command")
			}
			return run(c, c.Args().Slice()...)
		},
	}
}

// run sends args and prints the reply.
func run(c *cli.Context, args ...string) error {
	cl, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	v, err := cl.Do(cmdContext(c), args...)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if err := formatter(c).Format(c.App.Writer, v); err != nil {
		return err
	}
	if v.Type() == resp.Error {
		return ErrErrorReply
	}
	return nil
}

func usageError(c *cli.Context, msg string) error {
	return fmt.Errorf("%s (usage: %s %s)", msg, c.Command.Name, c.Command.ArgsUsage)
}
