// Package client is a small RESP client for minikv.
//
// A Client owns one TCP connection and sends one request at a time.
// Requests are written as arrays of bulk strings; replies are read with
// github.com/tidwall/resp. Error replies are returned as *ServerError.
package client
