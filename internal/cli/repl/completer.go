package repl

import "strings"

// Completer matches command usages by prefix. It backs the help builtin.
type Completer struct {
	commands []string
}

// NewCompleter creates a new Completer.
func NewCompleter() *Completer {
	return &Completer{
		commands: []string{
			"del key [key ...]",
			"echo message",
			"exit",
			"get key",
			"help [prefix]",
			"ping",
			"quit",
			"set key value [ex seconds | px milliseconds]",
		},
	}
}

// Complete returns the usages starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
