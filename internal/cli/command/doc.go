// Package command defines the minikv-cli commands using urfave/cli/v2.
//
//   - root.go: application, global flags, connection setup
//   - kv.go: ping, echo, get, set, del and exec
//   - config.go: config show, config save
//
// Running minikv-cli without a subcommand starts the interactive REPL.
package command
