// Package lr implements the LR(0) and LR(1) item-set engines (C7):
// closure, goto, and canonical collection construction. Package table
// (C8) builds ACTION/GOTO tables on top of these collections; LALR(1)
// additionally reuses the LR(0) kernels computed here together with its
// own spontaneous/propagated lookahead fixpoint.
package lr

import (
	"sort"

	"github.com/coregx/lrtoolkit/grammar"
	"github.com/coregx/lrtoolkit/intern"
)

// Item is one LR item: the dot position Pos within production index
// Prod's RHS (0 <= Pos <= len(RHS)), plus an LR(1) Lookahead terminal.
// LR(0) item sets simply ignore Lookahead (always intern.NoName).
type Item struct {
	Prod      int
	Pos       int
	Lookahead intern.Name
}

func (it Item) less(o Item) bool {
	if it.Prod != o.Prod {
		return it.Prod < o.Prod
	}
	if it.Pos != o.Pos {
		return it.Pos < o.Pos
	}
	return it.Lookahead < o.Lookahead
}

// AtEnd reports whether the dot has reached the end of the production's
// RHS (a candidate for reduction).
func (it Item) AtEnd(g *grammar.Grammar) bool {
	return it.Pos >= len(g.Productions[it.Prod].RHS)
}

// NextSymbol returns the symbol immediately after the dot, if any.
func (it Item) NextSymbol(g *grammar.Grammar) (grammar.Symbol, bool) {
	rhs := g.Productions[it.Prod].RHS
	if it.Pos >= len(rhs) {
		return grammar.Symbol{}, false
	}
	return rhs[it.Pos], true
}

// Advance returns the item with the dot moved one position to the
// right.
func (it Item) Advance() Item {
	return Item{Prod: it.Prod, Pos: it.Pos + 1, Lookahead: it.Lookahead}
}

func sortedUnique(items []Item) []Item {
	sort.Slice(items, func(i, j int) bool { return items[i].less(items[j]) })
	out := items[:0:0]
	var prev Item
	havePrev := false
	for _, it := range items {
		if havePrev && it == prev {
			continue
		}
		out = append(out, it)
		prev = it
		havePrev = true
	}
	return out
}

// Kernel returns the kernel items of a set: every item with Pos > 0,
// plus any item of production 0 (the augmented start production) at
// Pos == 0, which is conventionally also treated as a kernel item
// since it has no other item set deriving it.
func Kernel(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Pos > 0 || it.Prod == 0 {
			out = append(out, it)
		}
	}
	return out
}

// itemSetKey builds a comparable key for a sorted, deduplicated item
// slice so canonical collections can dedup states by item-set equality.
type itemSetKey string

func keyOf(items []Item) itemSetKey {
	b := make([]byte, 0, len(items)*12)
	for _, it := range items {
		b = append(b,
			byte(it.Prod), byte(it.Prod>>8), byte(it.Prod>>16), byte(it.Prod>>24),
			byte(it.Pos), byte(it.Pos>>8), byte(it.Pos>>16), byte(it.Pos>>24),
			byte(it.Lookahead), byte(it.Lookahead>>8), byte(it.Lookahead>>16), byte(it.Lookahead>>24),
		)
	}
	return itemSetKey(b)
}

// Collection is a canonical LR collection: States[i] is the sorted,
// deduplicated item set for state i, and Goto[i][sym.Key()] (when
// present) is the state reached from state i on symbol sym.
type Collection struct {
	States []([]Item)
	Goto   []map[grammar.SymbolKey]int
}
