package config

import "time"

// CLIConfig is the configuration for minikv-cli.
type CLIConfig struct {
	Server  string        `koanf:"server" yaml:"server"`
	Output  string        `koanf:"output" yaml:"output"` // raw, json, yaml
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "127.0.0.1:6379",
		Output:  "raw",
		Timeout: 5 * time.Second,
	}
}
