package lr

import (
	"sort"
	"testing"

	"github.com/coregx/lrtoolkit/grammar"
)

// buildExprGrammar builds the classic expression grammar:
//
//	E' -> E
//	E  -> E + T | T
//	T  -> T * F | F
//	F  -> ( E ) | id | number
func buildExprGrammar() *grammar.Grammar {
	E := grammar.NonTerm("E")
	T := grammar.NonTerm("T")
	F := grammar.NonTerm("F")
	plus := grammar.Term("+")
	star := grammar.Term("*")
	lparen := grammar.Term("(")
	rparen := grammar.Term(")")
	id := grammar.Term("id")
	number := grammar.Term("number")

	productions := []*grammar.Production{
		grammar.Augment(E),
		grammar.NewProduction(E.Name, []grammar.Symbol{E, plus, T}, nil),
		grammar.NewProduction(E.Name, []grammar.Symbol{T}, nil),
		grammar.NewProduction(T.Name, []grammar.Symbol{T, star, F}, nil),
		grammar.NewProduction(T.Name, []grammar.Symbol{F}, nil),
		grammar.NewProduction(F.Name, []grammar.Symbol{lparen, E, rparen}, nil),
		grammar.NewProduction(F.Name, []grammar.Symbol{id}, nil),
		grammar.NewProduction(F.Name, []grammar.Symbol{number}, nil),
	}
	return grammar.New(productions)
}

// buildCCGrammar builds the textbook LR(1)-but-not-SLR(1) grammar:
//
//	S' -> S
//	S  -> C C
//	C  -> c C | d
func buildCCGrammar() *grammar.Grammar {
	S := grammar.NonTerm("S")
	C := grammar.NonTerm("C")
	c := grammar.Term("c")
	d := grammar.Term("d")

	productions := []*grammar.Production{
		grammar.Augment(S),
		grammar.NewProduction(S.Name, []grammar.Symbol{C, C}, nil),
		grammar.NewProduction(C.Name, []grammar.Symbol{c, C}, nil),
		grammar.NewProduction(C.Name, []grammar.Symbol{d}, nil),
	}
	return grammar.New(productions)
}

func itemCounts(coll *Collection) []int {
	out := make([]int, len(coll.States))
	for i, s := range coll.States {
		out[i] = len(s)
	}
	return out
}

// TestCanonical0_ExpressionGrammar checks the reference expression
// grammar's LR(0) canonical collection size and per-state item counts.
func TestCanonical0_ExpressionGrammar(t *testing.T) {
	g := buildExprGrammar()
	coll := Canonical0(g)

	if len(coll.States) != 12 {
		t.Fatalf("got %d LR(0) states, want 12", len(coll.States))
	}

	got := append([]int(nil), itemCounts(coll)...)
	sort.Ints(got)
	want := []int{1, 1, 1, 1, 2, 2, 2, 2, 3, 5, 7, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted item counts = %v, want %v", got, want)
		}
	}
}

// TestCanonical1_CCGrammar checks the reference C-grammar's LR(1)
// canonical collection size and per-state item counts.
func TestCanonical1_CCGrammar(t *testing.T) {
	g := buildCCGrammar()
	coll := Canonical1(g)

	if len(coll.States) != 10 {
		t.Fatalf("got %d LR(1) states, want 10", len(coll.States))
	}

	got := append([]int(nil), itemCounts(coll)...)
	sort.Ints(got)
	want := []int{1, 1, 1, 1, 2, 2, 3, 3, 6, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted item counts = %v, want %v", got, want)
		}
	}
}

func TestClosure0_AddsAllProductionsOfNextSymbol(t *testing.T) {
	g := buildExprGrammar()
	start := Closure0(g, []Item{{Prod: 0, Pos: 0}})

	// The closure of `$start' -> .E` must pull in every production
	// reachable through E, T, and F: 1 (augment) + 2 (E) + 2 (T) + 3 (F) = 8...
	// but E/T/F each appear with Pos=0 once per production, and the
	// augment item itself is already present, giving 8 total items
	// before dedup against itself; assert at least one item per
	// production is present instead of a brittle raw count.
	seenProd := map[int]bool{}
	for _, it := range start {
		seenProd[it.Prod] = true
	}
	for pi := range g.Productions {
		if !seenProd[pi] {
			t.Errorf("closure of start item missing production %d", pi)
		}
	}
}

func TestGoto0_EmptyWhenSymbolNotNext(t *testing.T) {
	g := buildCCGrammar()
	start := Closure0(g, []Item{{Prod: 0, Pos: 0}})
	d := grammar.Term("d")

	// In state 0 of the C-grammar, "d" is reachable (C -> .d is in the
	// closure), so Goto0 on d must be non-empty...
	if len(Goto0(g, start, d)) == 0 {
		t.Fatal("expected Goto0(start, d) to be non-empty")
	}
	// ...but Goto0 on a terminal that never appears next to a dot in
	// this state must be empty.
	bogus := grammar.Term("not-in-grammar")
	if len(Goto0(g, start, bogus)) != 0 {
		t.Fatal("expected Goto0 on an unrelated terminal to be empty")
	}
}

func TestKernel_KeepsAugmentedStartAtPosZero(t *testing.T) {
	items := []Item{
		{Prod: 0, Pos: 0},
		{Prod: 1, Pos: 0},
		{Prod: 1, Pos: 1},
	}
	kernel := Kernel(items)
	if len(kernel) != 2 {
		t.Fatalf("got %d kernel items, want 2 (prod 0 pos 0, prod 1 pos 1)", len(kernel))
	}
	foundAugment, foundAdvanced := false, false
	for _, it := range kernel {
		if it.Prod == 0 && it.Pos == 0 {
			foundAugment = true
		}
		if it.Prod == 1 && it.Pos == 1 {
			foundAdvanced = true
		}
	}
	if !foundAugment || !foundAdvanced {
		t.Fatalf("kernel = %v, missing expected items", kernel)
	}
}

func TestClosure1_PropagatesLookaheadsOverNesting(t *testing.T) {
	g := buildCCGrammar()
	start := Closure1(g, []Item{{Prod: 0, Pos: 0, Lookahead: grammar.EndOfInputSymbol().Name}})

	// C -> .c C and C -> .d must appear with lookahead "c" in state 0,
	// since S -> C C puts the second C's FIRST set (c, d) behind the
	// first C.
	c := grammar.Term("c").Name
	sawC := false
	for _, it := range start {
		if it.Lookahead == c {
			sawC = true
			break
		}
	}
	if !sawC {
		t.Fatal("expected at least one closure item with lookahead \"c\"")
	}
}
