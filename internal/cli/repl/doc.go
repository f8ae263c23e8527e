// Package repl provides the interactive mode of minikv-cli.
//
// Each input line is split into arguments (double and single quotes
// group words; \n, \r, \t, \" and \\ are recognized inside double
// quotes), sent to the server as one command, and the reply is printed.
//
// Builtins: help [prefix], exit, quit. History is kept in
// ~/.minikv_history.
package repl
