package lr

import "github.com/coregx/lrtoolkit/grammar"

// Closure0 computes the LR(0) closure of items: repeatedly, for every
// item with the dot immediately before a nonterminal B, adds `B -> .γ`
// for every production of B not already present (tracked by production
// index, since an LR(0) item's only other coordinate is dot position 0
// at closure time).
func Closure0(g *grammar.Grammar, items []Item) []Item {
	result := append([]Item(nil), items...)
	added := map[int]bool{}

	for {
		var added1 []Item
		for _, it := range result {
			sym, ok := it.NextSymbol(g)
			if !ok || sym.Kind != grammar.NonTerminal {
				continue
			}
			for pi, p := range g.Productions {
				if p.LHS == sym.Name && !added[pi] {
					added1 = append(added1, Item{Prod: pi, Pos: 0})
					added[pi] = true
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

// Goto0 computes the LR(0) goto of items on sym: every item whose dot
// sits immediately before sym is advanced, then the result is closed.
func Goto0(g *grammar.Grammar, items []Item, sym grammar.Symbol) []Item {
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
	return Closure0(g, moved)
}

// Canonical0 builds the canonical collection of LR(0) item sets,
// starting from the closure of the single item `$start' -> .S` (LR(0)
// ignores Lookahead entirely) and repeatedly extending with every new
// state reachable by Goto0 over every grammar symbol, until a fixpoint.
func Canonical0(g *grammar.Grammar) *Collection {
	symbols := g.Symbols()
	start := Closure0(g, []Item{{Prod: 0, Pos: 0}})

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
			g1 := Goto0(g, coll.States[i], sym)
			if len(g1) == 0 {
				continue
			}
			j := addState(g1)
			coll.Goto[i][sym.Key()] = j
		}
	}
	return coll
}
