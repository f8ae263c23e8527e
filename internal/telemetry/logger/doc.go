// Package logger provides structured logging for minikv.
//
//   - logger.go: slog-backed Logger, output format, dynamic level
//   - context.go: context propagation of the logger and connection IDs
//   - redact.go: sensitive attribute redaction
//
// The level is process-wide: SetLevel affects every logger created by
// New, which is how configuration reloads change verbosity at runtime.
package logger
