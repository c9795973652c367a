// Package dfa implements the DFA compiler (C5): the follow-position
// algorithm converts a regex AST (package regexast) into a deterministic
// transition table with per-state accept metadata, by direct subset
// construction over sets of AST leaf ids (McNaughton-Yamada-style
// follow-position, not Thompson-NFA powerset construction).
package dfa

import "github.com/coregx/lrtoolkit/intern"

// StateID identifies a state within a compiled Table. State 0 is
// always the start state.
type StateID uint32

// InvalidState is never a valid state id in a compiled Table.
const InvalidState StateID = 0xFFFFFFFF

// Ctx is the capability interface a State's Action is invoked with: the
// token bytes matched so far, and the ability to rewrite them, rename
// the token, or discard it and keep scanning (mirrors
// original_source/src/lex.rs's do_lex_action closures get/set/set_name/
// set_name_from_hash/pass, reused unchanged for DFA-driven matching).
type Ctx interface {
	Get() []byte
	Set([]byte)
	SetName(string)
	SetNameFromHash(intern.Name)
	Pass()
}

// Action is a semantic action attached to an accepting DFA state.
type Action func(ctx Ctx)

// State is one accepting state's metadata: the terminal name the state
// accepts as and an optional action to run over the matched bytes.
type State struct {
	Accept intern.Name
	Action Action
}

// Table is a compiled DFA: a dense accept-state table plus a dense
// byte-transition table, both built once by Compile and safe for
// concurrent read-only use thereafter.
type Table struct {
	states []*State
	trans  *transTable
}

// State returns the accept metadata for id, if id is an accepting
// state.
func (t *Table) State(id StateID) (*State, bool) {
	if int(id) >= len(t.states) {
		return nil, false
	}
	s := t.states[id]
	return s, s != nil
}

// Step returns the state reached from id on byte code, if any.
func (t *Table) Step(id StateID, code byte) (StateID, bool) {
	return t.trans.get(id, code)
}

// HasTransitions reports whether id has at least one outgoing
// transition on any byte; this is the "does this state have anywhere
// left to go" check the streaming lexer uses to decide whether it must
// keep preread bytes around (original_source/src/stream_lex.rs's
// goto_exists).
func (t *Table) HasTransitions(id StateID) bool {
	return t.trans.rowExists(id)
}

// NumStates returns the number of states in the table (including
// non-accepting ones), for tests and diagnostics.
func (t *Table) NumStates() int {
	return len(t.states)
}
