package process

import (
	"fmt"
	"strings"
)

// Command describes how to launch a script.
type Command struct {
	Path string
	Args []string
	// Dir is the working directory; empty means the supervisor's own.
	Dir string
	// Env entries are appended to the supervisor's environment.
	Env []string
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, p := range append([]string{c.Path}, c.Args...) {
		if p == "" || strings.ContainsAny(p, " \t\n\"'") {
			p = fmt.Sprintf("%q", p)
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// ParseCommand splits a command string into arguments.
// Handles single and double quotes and backslash escapes.
func ParseCommand(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)
	hasArg := false

	runes := []rune(strings.TrimSpace(command))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				quoteChar = r
				hasArg = true
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case (r == ' ' || r == '\t') && !inQuote:
			if hasArg {
				args = append(args, current.String())
				current.Reset()
				hasArg = false
			}
		case r == '\\' && i+1 < len(runes):
			i++
			current.WriteRune(runes[i])
			hasArg = true
		default:
			current.WriteRune(r)
			hasArg = true
		}
	}

	if inQuote {
		return nil, fmt.Errorf("unclosed quote in command")
	}
	if hasArg {
		args = append(args, current.String())
	}

	return args, nil
}
