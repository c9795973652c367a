// Package table implements the LR table builder (C8): BuildLR1 and
// BuildLALR1 turn a grammar.Grammar into ACTION/GOTO tables a parser
// can drive directly, sharing one conflict-detecting ACTION-table
// construction between both builders (grounded on
// original_source/src/lalr.rs's StatesBuilder trait default).
package table

import (
	"fmt"

	"github.com/coregx/lrtoolkit/grammar"
	"github.com/coregx/lrtoolkit/internal/densetab"
	"github.com/coregx/lrtoolkit/intern"
)

// StateID identifies a state within a built Tables (dense, 0-based,
// matching the row index of the underlying canonical collection).
type StateID uint32

// Kind distinguishes which algorithm produced a Tables.
type Kind uint8

const (
	LALR1 Kind = iota
	LR1
)

func (k Kind) String() string {
	if k == LALR1 {
		return "LALR1"
	}
	return "LR1"
}

// ActionKind distinguishes the three things an ACTION table entry can
// tell the parser driver to do.
type ActionKind uint8

const (
	ActionShift ActionKind = iota
	ActionReduce
	ActionAccept
)

func (k ActionKind) String() string {
	switch k {
	case ActionShift:
		return "shift"
	case ActionReduce:
		return "reduce"
	case ActionAccept:
		return "accept"
	default:
		return "unknown"
	}
}

// ActionState is one ACTION table entry. For ActionShift, Goto is the
// destination state and Production is -1. For ActionReduce and
// ActionAccept, Production is the production index to reduce by (or,
// for ActionAccept, the augmented start production) and Goto is
// unused.
type ActionState struct {
	Kind       ActionKind
	Goto       StateID
	Production int
}

// ConflictKind distinguishes the three ways two ACTION table entries
// can collide on the same (state, symbol) cell.
type ConflictKind uint8

const (
	ConflictShiftShift ConflictKind = iota
	ConflictShiftReduce
	ConflictReduceReduce
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictShiftShift:
		return "shift/shift"
	case ConflictShiftReduce:
		return "shift/reduce"
	case ConflictReduceReduce:
		return "reduce/reduce"
	default:
		return "unknown"
	}
}

// Conflict records one ACTION table collision. Production1 is the
// production index already occupying the cell (-1 if that entry was a
// shift), Production2 is the production index of the item that would
// have overwritten it (for a shift, the production of the item whose
// dot precedes the symbol; Production2 is never -1).
type Conflict struct {
	Kind        ConflictKind
	State       int
	Symbol      intern.Name
	Production1 int
	Production2 int
}

// ConflictError is returned by BuildLR1/BuildLALR1 when the grammar is
// not LR(1)/LALR(1): Conflicts lists every ACTION table collision
// found, deduplicated. Unwrap returns ErrNotLR1 or ErrNotLALR1
// depending on which builder produced it.
type ConflictError struct {
	Kind      Kind
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("table: grammar is not %s: %d conflict(s)", e.Kind, len(e.Conflicts))
}

func (e *ConflictError) Unwrap() error {
	if e.Kind == LALR1 {
		return ErrNotLALR1
	}
	return ErrNotLR1
}

// Sentinels returned (wrapped in a *ConflictError) by BuildLALR1 and
// BuildLR1 when the grammar has ACTION table conflicts.
var (
	ErrNotLALR1 = fmt.Errorf("table: grammar is not LALR(1)")
	ErrNotLR1   = fmt.Errorf("table: grammar is not LR(1)")
)

// Tables holds the ACTION/GOTO tables for one built grammar: Action is
// keyed by (state, terminal) and Goto by (state, symbol) — the same
// dense table holds shift destinations (terminal symbols, frozen from
// the same goto maps ACTION construction reads) and post-reduce GOTO destinations
// (nonterminal symbols, consulted by the parser driver), mirroring the
// reference's single shared goto_states table.
type Tables struct {
	Grammar *grammar.Grammar
	Kind    Kind
	goto_   *densetab.Table[StateID]
	action  *densetab.Table[ActionState]
}

// Action returns the ACTION table entry for (state, sym), if any.
func (t *Tables) Action(state StateID, sym intern.Name) (ActionState, bool) {
	return t.action.Get(uint32(state), uint32(sym))
}

// Goto returns the state reached from state on sym, if any. Used by
// the parser driver after a reduce (sym is the reduced production's
// LHS nonterminal); table construction does not call it.
func (t *Tables) Goto(state StateID, sym intern.Name) (StateID, bool) {
	return t.goto_.Get(uint32(state), uint32(sym))
}

// NumStates returns the number of states in the built collection.
func (t *Tables) NumStates() int {
	n := t.goto_.RowLen()
	if a := t.action.RowLen(); a > n {
		n = a
	}
	return n
}
