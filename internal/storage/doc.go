// Package storage provides the in-memory key-value store for minikv.
//
// One Store is created per server and shared by every connection. Keys
// may carry an absolute expiry; expired keys are hidden from readers on
// access and are never swept in the background.
package storage
