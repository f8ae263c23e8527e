// Package config holds the minikv-cli settings.
//
// Settings come from ~/.minikv/cli.yaml, then MINIKV_CLI_* environment
// variables, then command-line flags:
//
//	server: 127.0.0.1:6379
//	output: raw
//	timeout: 5s
package config
