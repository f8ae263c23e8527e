// Package main provides the entry point for minikv-server.
//
// minikv-server is an in-memory key-value store that speaks RESP2, so
// redis-cli and Redis client libraries can talk to it. It supports PING,
// ECHO, GET and SET. With --extended-commands it also accepts SET with
// EX/PX and DEL.
//
// Usage:
//
//	minikv-server [flags]
//	minikv-server --config /path/to/config.yaml
//	minikv-server --port 6380 --log-level debug
//	minikv-server --extended-commands
//
// Configuration is layered: defaults, the YAML file, MINIKV_* environment
// variables, then flags. Changes to log.level in the file are applied
// without a restart.
package main
