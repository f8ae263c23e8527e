// Package output renders server replies for minikv-cli.
//
//   - raw: redis-cli style text, e.g. "bar", (nil), (integer) 2
//   - json: the reply as a JSON value
//   - yaml: the reply as a YAML document
//
// Error replies render as {"error": "..."} in the structured formats.
package output
