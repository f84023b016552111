// Package actorid defines the identity type shared by every actor in the
// tree, plus the small set types built from it (the debug-lock blocklist,
// peer registries).
package actorid

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// ID uniquely names one process in the actor tree. It is created once at
// spawn and never mutated; it is comparable, so it can key maps directly.
type ID struct {
	Name     string
	Instance uint64
}

// String renders the identity the way log lines and diagnostics expect it.
func (id ID) String() string {
	return fmt.Sprintf("%s[%d]", id.Name, id.Instance)
}

// IsZero reports whether id is the zero value, i.e. "no identity".
func (id ID) IsZero() bool {
	return id == ID{}
}

// wireSep separates Name from Instance in Encode's output. It is the ASCII
// unit separator, chosen because it cannot occur in a process name typed
// at a shell, so Encode/ParseID round-trip any Name losslessly.
const wireSep = "\x1f"

// Encode renders id as a string that [ParseID] can recover exactly,
// including Instance — unlike String, which is for display only. Used to
// carry an ID whole across a wire protocol limited to string payloads
// (spec.md §6, "lock_tty_for_child(subactor_uid)").
func (id ID) Encode() string {
	return id.Name + wireSep + strconv.FormatUint(id.Instance, 10)
}

// ParseID reverses Encode. It returns an error if s was not produced by
// Encode.
func ParseID(s string) (ID, error) {
	i := strings.LastIndex(s, wireSep)
	if i < 0 {
		return ID{}, fmt.Errorf("actorid: malformed wire identity %q", s)
	}
	instance, err := strconv.ParseUint(s[i+len(wireSep):], 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("actorid: malformed wire identity %q: %w", s, err)
	}
	return ID{Name: s[:i], Instance: instance}, nil
}

var instanceCounter atomic.Uint64

// NewInstance allocates a fresh, process-unique instance id for name. Actors
// spawned in the same OS process (as in tests and the in-process demo
// transport) still get distinct [ID] values.
func NewInstance(name string) ID {
	return ID{Name: name, Instance: instanceCounter.Add(1)}
}

// Set is a simple unordered collection of [ID], used for the operator
// escape-hatch blocklist (spec: Lock State.blocklist).
type Set map[ID]struct{}

// NewSet builds a [Set] from the given identities.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is a member of the set. A nil Set contains
// nothing.
func (s Set) Contains(id ID) bool {
	if s == nil {
		return false
	}
	_, ok := s[id]
	return ok
}

// Add inserts id into the set, allocating it if necessary, and returns the
// (possibly new) set.
func (s Set) Add(id ID) Set {
	if s == nil {
		s = make(Set, 1)
	}
	s[id] = struct{}{}
	return s
}

// Remove deletes id from the set, if present.
func (s Set) Remove(id ID) {
	delete(s, id)
}
