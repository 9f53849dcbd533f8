package menu

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// =============================================================================
// Console Prompter
// =============================================================================

// ConsolePrompter asks yes/no questions on the console. With AutoYes set
// every confirmation is answered yes without reading input, which makes
// the destructive flows scriptable.
type ConsolePrompter struct {
	in      *bufio.Reader
	out     io.Writer
	autoYes bool
}

// NewConsolePrompter creates a prompter reading answers from in.
func NewConsolePrompter(in io.Reader, out io.Writer, autoYes bool) *ConsolePrompter {
	return &ConsolePrompter{
		in:      bufio.NewReader(in),
		out:     out,
		autoYes: autoYes,
	}
}

// Confirm asks the question and reads a yes/no answer. An empty answer
// takes the default; unrecognized input is asked again.
func (p *ConsolePrompter) Confirm(prompt string, defaultYes bool) (bool, error) {
	if p.autoYes {
		fmt.Fprintf(p.out, "%s [auto-yes]\n", prompt)
		return true, nil
	}

	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	for {
		fmt.Fprintf(p.out, "%s %s: ", prompt, hint)
		line, err := p.in.ReadString('\n')
		if err != nil && line == "" {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(p.out, "Please answer y or n.")
		}
	}
}
