package sigintshield

import (
	"fmt"
	"os"
)

// flushREPL implements spec §4.5 step 7: flush REPL output, and work around
// xonsh eating the prompt string on signal delivery (Open Question 3,
// resolved in SPEC_FULL.md — gated on XONSH_LOGIN so non-xonsh shells, and
// non-Unix builds, pay nothing).
func (sh *Shield) flushREPL() {
	os.Stdout.Sync()
	if os.Getenv("XONSH_LOGIN") != "" {
		reemitXonshPrompt()
	}
}

// reemitXonshPrompt re-draws the prompt xonsh would otherwise have
// swallowed. It is deliberately minimal: xonsh redraws its own prompt from
// whatever is last written to the control terminal, so a bare newline is
// enough to give it a line to redraw onto.
func reemitXonshPrompt() {
	fmt.Fprint(os.Stdout, "\n")
}
