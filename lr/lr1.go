package lr

import (
	"github.com/coregx/lrtoolkit/grammar"
	"github.com/coregx/lrtoolkit/intern"
)

var epsilonName = intern.Epsilon

// Closure1 computes the LR(1) closure of items: for every item
// `A -> α . B β, a`, adds `B -> .γ, b` for every production of B and
// every b in FIRST(βa), where FIRST(βa) is computed over the sequence
// of RHS symbols after the dot followed by the item's own lookahead
// (an empty βa falls back to FIRST of just the lookahead).
func Closure1(g *grammar.Grammar, items []Item) []Item {
	result := append([]Item(nil), items...)
	added := map[int]map[intern.Name]bool{}

	for {
		var added1 []Item
		for _, it := range result {
			sym, ok := it.NextSymbol(g)
			if !ok || sym.Kind != grammar.NonTerminal {
				continue
			}
			rhs := g.Productions[it.Prod].RHS
			rest := append([]grammar.Symbol(nil), rhs[it.Pos+1:]...)
			rest = append(rest, grammar.TermName(it.Lookahead))
			first := g.First(rest)

			for pi, p := range g.Productions {
				if p.LHS != sym.Name {
					continue
				}
				if added[pi] == nil {
					added[pi] = map[intern.Name]bool{}
				}
				for la := range first {
					if la == epsilonName {
						continue
					}
					if !added[pi][la] {
						added1 = append(added1, Item{Prod: pi, Pos: 0, Lookahead: la})
						added[pi][la] = true
					}
				}
			}
		}
		if len(added1) == 0 {
			break
		}
		result = append(result, added1...)
	}
	return sortedUnique(result)
}

// Goto1 computes the LR(1) goto of items on sym, preserving each moved
// item's lookahead, then closing the result.
func Goto1(g *grammar.Grammar, items []Item, sym grammar.Symbol) []Item {
	var moved []Item
	for _, it := range items {
		next, ok := it.NextSymbol(g)
		if ok && next.Equal(sym) {
			moved = append(moved, it.Advance())
		}
	}
	if len(moved) == 0 {
		return nil
	}
	return Closure1(g, moved)
}

// Canonical1 builds the canonical collection of LR(1) item sets,
// starting from the closure of `$start' -> .S, $` and extending with
// Goto1 over every grammar symbol until a fixpoint. State identity
// (for dedup and for recognizing an already-built goto target) is the
// full LR(1) item set including lookaheads, so two LR(0)-identical
// cores with different lookahead sets are kept as distinct states.
func Canonical1(g *grammar.Grammar) *Collection {
	symbols := g.Symbols()
	start := Closure1(g, []Item{{Prod: 0, Pos: 0, Lookahead: grammar.EndOfInputSymbol().Name}})

	coll := &Collection{}
	index := map[itemSetKey]int{}

	addState := func(items []Item) int {
		k := keyOf(items)
		if i, ok := index[k]; ok {
			return i
		}
		i := len(coll.States)
		coll.States = append(coll.States, items)
		coll.Goto = append(coll.Goto, map[grammar.SymbolKey]int{})
		index[k] = i
		return i
	}
	addState(start)

	for i := 0; i < len(coll.States); i++ {
		for _, sym := range symbols {
			g1 := Goto1(g, coll.States[i], sym)
			if len(g1) == 0 {
				continue
			}
			j := addState(g1)
			coll.Goto[i][sym.Key()] = j
		}
	}
	return coll
}
