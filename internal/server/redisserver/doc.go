// Package redisserver serves the minikv command set over TCP using RESP2.
//
// Each client connection is handled by its own goroutine. Bytes are
// buffered until a complete frame decodes, the frame is dispatched
// against the shared store, and the reply is written back before the
// next frame is looked at. Pipelined frames are answered in order and
// flushed together.
//
// Malformed input is answered with "-parse error" and the buffered bytes
// are dropped; the connection stays open. Only I/O errors, timeouts and
// oversized frames close a connection.
package redisserver
