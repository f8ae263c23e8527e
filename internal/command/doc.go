// Package command maps decoded requests to store operations.
//
// A Dispatcher holds an ordered list of Handlers. Each handler either
// recognizes the request shape and returns a response, or defers. When
// every handler defers the response is the error "unknown command".
// Malformed requests never panic; they simply match no handler.
//
// Supported commands:
//   - PING
//   - ECHO <message>
//   - GET <key>
//   - SET <key> <value> [EX seconds | PX milliseconds]
//   - DEL <key> [key ...]
package command
