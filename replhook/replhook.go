// Package replhook implements the Post-mortem & Quit Hooks component,
// spec.md §4.7: the local REPL's `continue`/`quit` commands are augmented
// to invoke the lock release path in a finally clause.
//
// The embedded REPL is referenced, not reimplemented, per spec.md §1's own
// framing ("library... coordinates exclusive terminal access", the REPL
// itself is an external collaborator). This package types its own
// Executor/ExitChecker against go-prompt's exported aliases
// (prompt.Executor, prompt.ExitChecker) so a real go-prompt-backed REPL can
// be substituted directly; the REPL loop driving those hooks here is a
// minimal line reader, since go-prompt's own constructor/options surface
// is not part of this module's vendored copy (see DESIGN.md).
package replhook

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	prompt "github.com/joeycumines/go-prompt"

	"github.com/joeycumines/go-actorlock/actorlog"
)

// Releaser is the lock-release operation a REPL's quit/continue hooks call
// in their finally clause (spec §4.2 / §4.7). It is satisfied by
// [*lockstate.State.Release] on the root and
// [*lockstate.State.ReleaseLocal] on a child, so this package never needs
// to know which.
type Releaser func() error

// REPL is the synchronous, event-loop-blocking debugger surface spec §4.1
// step 3 describes ("enter debug_func synchronously ... runs to completion
// on this thread"). A line that IsExit accepts ("continue"/"quit" and the
// like) ends the session; any other line is passed to Execute and the loop
// continues.
type REPL struct {
	Owner   string
	In      io.Reader
	Out     io.Writer
	Execute prompt.Executor
	IsExit  prompt.ExitChecker
	Release Releaser
	Log     actorlog.Logger
}

// Run reads lines from In until IsExit reports true or In is exhausted,
// invoking Execute for each line, then calls Release exactly once on every
// exit path (spec §4.2: idempotent, so a second call from an overlapping
// hook is harmless).
func (r *REPL) Run() (err error) {
	log := r.Log
	if log == nil {
		log = actorlog.Nop
	}

	defer func() {
		if releaseErr := r.Release(); releaseErr != nil {
			log.Error("replhook: release failed", releaseErr, actorlog.F("owner", r.Owner))
			if err == nil {
				err = releaseErr
			}
		}
	}()

	scanner := bufio.NewScanner(r.In)
	for scanner.Scan() {
		line := scanner.Text()
		if r.IsExit != nil && r.IsExit(line, true) {
			if r.Execute != nil {
				r.Execute(line)
			}
			return nil
		}
		if r.Execute != nil {
			r.Execute(line)
		}
	}
	return scanner.Err()
}

// DefaultExitChecker treats "quit", "exit", and "continue", plus the short
// forms "q" and "c" (case insensitive, spec §4.7), as terminal commands.
func DefaultExitChecker(in string, breakline bool) bool {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "quit", "exit", "continue", "c", "q":
		return true
	default:
		return false
	}
}

// PrintExecutor writes each executed line to out, standing in for a real
// debugger command dispatcher until one is wired by the caller.
func PrintExecutor(out io.Writer) prompt.Executor {
	return func(in string) {
		fmt.Fprintf(out, "(debug) %s\n", in)
	}
}
