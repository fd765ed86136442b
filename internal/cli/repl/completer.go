package repl

import (
	"sort"
	"strings"
)

// Shell commands handled without the server.
var builtins = []string{"exit", "help", "history", "quit"}

// Completer suggests entry names and shell commands.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over entries and the shell commands.
func NewCompleter(entries ...string) *Completer {
	commands := append(append([]string(nil), entries...), builtins...)
	sort.Strings(commands)
	return &Completer{commands: commands}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
