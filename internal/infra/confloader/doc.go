// Package confloader provides configuration loading mechanism.
//
// Configuration is read with koanf from a YAML file and MINIKV_ prefixed
// environment variables, then unmarshaled into a struct already holding
// the defaults. Flag overrides are applied last through LoadMap.
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Default values
//
// Watcher reports writes to a configuration file using fsnotify so that
// settings such as the log level can be reloaded at runtime.
package confloader
