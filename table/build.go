package table

import (
	"github.com/coregx/lrtoolkit/grammar"
	"github.com/coregx/lrtoolkit/internal/densetab"
	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/lr"
)

// BuildLR1 builds the canonical LR(1) ACTION/GOTO tables for g. If the
// grammar is not LR(1) it returns a *ConflictError wrapping ErrNotLR1.
func BuildLR1(g *grammar.Grammar) (*Tables, error) {
	coll := lr.Canonical1(g)
	actionTab, conflicts := buildActionStates(g, coll.Goto, coll.States)
	if len(conflicts) > 0 {
		return nil, &ConflictError{Kind: LR1, Conflicts: conflicts}
	}
	return &Tables{
		Grammar: g,
		Kind:    LR1,
		goto_:   freezeGoto(coll.Goto),
		action:  actionTab,
	}, nil
}

// BuildLALR1 builds LALR(1) ACTION/GOTO tables for g: the GOTO table
// and item sets are those of the LR(0) canonical collection, but each
// LR(0) kernel is annotated with lookaheads computed by the
// spontaneous/propagated fixpoint in lalr.go before closing it under
// LR(1) closure for ACTION table construction. If the grammar is not
// LALR(1) it returns a *ConflictError wrapping ErrNotLALR1.
func BuildLALR1(g *grammar.Grammar) (*Tables, error) {
	states, gotoMaps := buildLALRCollection(g)
	actionTab, conflicts := buildActionStates(g, gotoMaps, states)
	if len(conflicts) > 0 {
		return nil, &ConflictError{Kind: LALR1, Conflicts: conflicts}
	}
	return &Tables{
		Grammar: g,
		Kind:    LALR1,
		goto_:   freezeGoto(gotoMaps),
		action:  actionTab,
	}, nil
}

// freezeGoto converts the per-state Symbol->state maps built during
// canonical-collection construction into the dense table Tables.Goto
// serves lookups from.
func freezeGoto(gotoMaps []map[grammar.SymbolKey]int) *densetab.Table[StateID] {
	b := densetab.NewBuilder[StateID]()
	for i, m := range gotoMaps {
		for key, j := range m {
			b.Set(uint32(i), uint32(key.Name), StateID(j))
		}
	}
	return b.Freeze()
}

// buildActionStates builds the ACTION table shared by both builders
// (original_source/src/lalr.rs's StatesBuilder::build_action_states):
// for every item in every state, a dot before a terminal records a
// shift (using gotoMaps for the destination), a completed item records
// a reduce on its own lookahead (or an accept, if it completes the
// augmented start production with lookahead $). Every collision
// between two entries for the same (state, symbol) cell is recorded as
// a deduplicated Conflict; the caller decides whether any conflict
// fails the build.
func buildActionStates(g *grammar.Grammar, gotoMaps []map[grammar.SymbolKey]int, states [][]lr.Item) (*densetab.Table[ActionState], []Conflict) {
	ab := densetab.NewBuilder[ActionState]()
	var conflicts []Conflict

	addConflict := func(c Conflict) {
		for _, existing := range conflicts {
			if existing == c {
				return
			}
		}
		conflicts = append(conflicts, c)
	}

	for i, items := range states {
		for _, it := range items {
			if sym, ok := it.NextSymbol(g); ok {
				if sym.Kind != grammar.Terminal {
					continue
				}
				j, ok := gotoMaps[i][sym.Key()]
				if !ok {
					continue
				}
				if existing, has := ab.Get(uint32(i), uint32(sym.Name)); has {
					switch {
					case existing.Kind != ActionShift:
						addConflict(Conflict{Kind: ConflictShiftReduce, State: i, Symbol: sym.Name, Production1: existing.Production, Production2: it.Prod})
					case existing.Goto != StateID(j):
						addConflict(Conflict{Kind: ConflictShiftShift, State: i, Symbol: sym.Name, Production1: existing.Production, Production2: it.Prod})
					}
				}
				ab.Set(uint32(i), uint32(sym.Name), ActionState{Kind: ActionShift, Goto: StateID(j), Production: -1})
				continue
			}

			// Dot at end: reduce (any production but the augmented
			// start) or accept (the augmented start with lookahead $).
			if it.Prod != 0 {
				setReduceOrAccept(ab, addConflict, i, it.Lookahead, it.Prod, ActionReduce)
			} else if it.Lookahead == intern.EndOfInput {
				setReduceOrAccept(ab, addConflict, i, it.Lookahead, it.Prod, ActionAccept)
			}
		}
	}
	return ab.Freeze(), conflicts
}

func setReduceOrAccept(ab *densetab.Builder[ActionState], addConflict func(Conflict), state int, term intern.Name, prod int, kind ActionKind) {
	if existing, has := ab.Get(uint32(state), uint32(term)); has {
		switch {
		case existing.Kind == ActionShift:
			addConflict(Conflict{Kind: ConflictShiftReduce, State: state, Symbol: term, Production1: existing.Production, Production2: prod})
		case existing.Production != prod:
			addConflict(Conflict{Kind: ConflictReduceReduce, State: state, Symbol: term, Production1: existing.Production, Production2: prod})
		}
	}
	ab.Set(uint32(state), uint32(term), ActionState{Kind: kind, Goto: InvalidState, Production: prod})
}

// InvalidState is never a valid state id in a built Tables.
const InvalidState StateID = 0xFFFFFFFF
