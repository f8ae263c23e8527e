// Package main provides the entry point for minikv-cli.
//
// minikv-cli sends single commands to a minikv server, or starts an
// interactive prompt when no command is given.
//
// Usage:
//
//	minikv-cli -s 127.0.0.1:6379 set --ex 60 greeting hello
//	minikv-cli get greeting
//	minikv-cli
package main
