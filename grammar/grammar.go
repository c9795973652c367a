// Package grammar implements the grammar and symbol model (C6):
// productions, terminals/nonterminals, FIRST-set computation, and the
// grammar-text external format's parser.
package grammar

import (
	"github.com/coregx/lrtoolkit/attrs"
	"github.com/coregx/lrtoolkit/intern"
)

// SymbolKind distinguishes terminal and nonterminal grammar symbols.
type SymbolKind uint8

const (
	Terminal SymbolKind = iota
	NonTerminal
)

func (k SymbolKind) String() string {
	if k == Terminal {
		return "terminal"
	}
	return "nonterminal"
}

// Symbol is a grammar symbol. Equality for table construction compares
// Name and Kind only; Value (carried on the parser's stack at run
// time) is ignored.
type Symbol struct {
	Name  intern.Name
	Value []byte
	Kind  SymbolKind
}

// Equal reports whether two symbols are the same grammar symbol
// (ignoring Value).
func (s Symbol) Equal(o Symbol) bool {
	return s.Name == o.Name && s.Kind == o.Kind
}

// SymbolKey is the comparable (Name, Kind) identity of a Symbol, with
// Value dropped. Symbol itself carries a []byte field and so cannot be
// used as a map key directly; callers that need a Symbol-keyed map
// (goto tables, action tables) key on SymbolKey instead.
type SymbolKey struct {
	Name intern.Name
	Kind SymbolKind
}

// Key returns s's comparable identity, ignoring Value.
func (s Symbol) Key() SymbolKey { return SymbolKey{Name: s.Name, Kind: s.Kind} }

// Term returns the terminal symbol interned from name.
func Term(name string) Symbol { return Symbol{Name: intern.Hash(name), Kind: Terminal} }

// NonTerm returns the nonterminal symbol interned from name.
func NonTerm(name string) Symbol { return Symbol{Name: intern.Hash(name), Kind: NonTerminal} }

// TermName returns the terminal symbol for an already-interned name.
func TermName(n intern.Name) Symbol { return Symbol{Name: n, Kind: Terminal} }

// NonTermName returns the nonterminal symbol for an already-interned name.
func NonTermName(n intern.Name) Symbol { return Symbol{Name: n, Kind: NonTerminal} }

// EpsilonSymbol is the reserved empty terminal (ε).
func EpsilonSymbol() Symbol { return Symbol{Name: intern.Epsilon, Kind: Terminal} }

// EndOfInputSymbol is the reserved end-of-input terminal ($).
func EndOfInputSymbol() Symbol { return Symbol{Name: intern.EndOfInput, Kind: Terminal} }

// LookaheadPlaceholderSymbol is the reserved LALR propagation
// placeholder terminal (#).
func LookaheadPlaceholderSymbol() Symbol {
	return Symbol{Name: intern.LookaheadPlaceholder, Kind: Terminal}
}

// WaitSymbol is the reserved "need more input" terminal (w).
func WaitSymbol() Symbol { return Symbol{Name: intern.Wait, Kind: Terminal} }

var errorName = intern.Hash("error")

// AttrAction keys a production's host-callback reduction action when
// attached directly as a Go closure rather than parsed from grammar
// text (see SPEC_FULL.md's bootstrap grammar, which is built from Go
// literals per DESIGN.md D1). The stored value's concrete type is
// owned by package parser (func(parser.ReduceCtx)), not by this
// package, to avoid a grammar->parser import cycle.
var AttrAction = intern.Hash("$action")

// Production is one grammar rule: `LHS -> RHS`, with optional
// attributes carrying a semantic action (a structured "set" index list
// or a host callback — see package parser).
type Production struct {
	LHS   intern.Name
	RHS   []Symbol
	Attrs *attrs.Bag
}

// Equal reports structural equality of two productions, ignoring Attrs
// (mirrors the reference GrammarProduction's PartialEq, which also
// ignores attrs).
func (p *Production) Equal(o *Production) bool {
	if p.LHS != o.LHS || len(p.RHS) != len(o.RHS) {
		return false
	}
	for i := range p.RHS {
		if !p.RHS[i].Equal(o.RHS[i]) {
			return false
		}
	}
	return true
}

// Find returns the positions within RHS where sym appears (comparing
// Name and Kind only).
func (p *Production) Find(sym Symbol) []int {
	var out []int
	for i, s := range p.RHS {
		if s.Equal(sym) {
			out = append(out, i)
		}
	}
	return out
}

// NewProduction builds a production, applying the fixed invariant that
// an empty RHS is replaced by a single epsilon terminal and a
// lone-`error` RHS is padded with an epsilon terminal.
func NewProduction(lhs intern.Name, rhs []Symbol, bag *attrs.Bag) *Production {
	switch {
	case len(rhs) == 0:
		rhs = []Symbol{EpsilonSymbol()}
	case len(rhs) == 1 && rhs[0].Kind == Terminal && rhs[0].Name == errorName:
		rhs = append(append([]Symbol{}, rhs...), EpsilonSymbol())
	}
	return &Production{LHS: lhs, RHS: rhs, Attrs: bag}
}

// Grammar is an ordered list of productions. Production 0 must be the
// augmented start production `S' -> S`.
type Grammar struct {
	Productions []*Production
}

// New wraps productions (with productions[0] expected to already be
// the augmented start production) into a Grammar.
func New(productions []*Production) *Grammar {
	return &Grammar{Productions: productions}
}

// Augment returns the augmented start production `S' -> start` for the
// fresh reserved nonterminal name "$start'".
func Augment(start Symbol) *Production {
	return &Production{LHS: intern.Hash("$start'"), RHS: []Symbol{start}}
}

// StartLHS returns production 0's LHS, the augmented start symbol's
// name.
func (g *Grammar) StartLHS() intern.Name {
	return g.Productions[0].LHS
}

// Symbols returns every distinct symbol appearing in the grammar, in
// first-seen order: for each production in order, its LHS (if not
// already seen) followed by each not-yet-seen RHS symbol.
func (g *Grammar) Symbols() []Symbol {
	seen := map[intern.Name]bool{}
	var out []Symbol
	for _, p := range g.Productions {
		if !seen[p.LHS] {
			seen[p.LHS] = true
			out = append(out, NonTermName(p.LHS))
		}
		for _, s := range p.RHS {
			if !seen[s.Name] {
				seen[s.Name] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// First1 computes FIRST(sym) for a single grammar symbol: the singleton
// {sym.Name} if sym is a terminal, otherwise the union of FIRST over
// every production of sym, stopping a production's scan at the first
// RHS symbol whose own FIRST set does not contain epsilon (guarding
// against infinite recursion on left-recursive grammars via a
// shared, production-index-keyed visited set).
func (g *Grammar) First1(sym Symbol) map[intern.Name]bool {
	if sym.Kind == Terminal {
		return map[intern.Name]bool{sym.Name: true}
	}
	return g.first1(sym.Name, map[int]bool{})
}

func (g *Grammar) first1(name intern.Name, visited map[int]bool) map[intern.Name]bool {
	result := map[intern.Name]bool{}
	for i, p := range g.Productions {
		if p.LHS != name || visited[i] {
			continue
		}
		visited[i] = true
		for _, s := range p.RHS {
			var sub map[intern.Name]bool
			if s.Kind == Terminal {
				sub = map[intern.Name]bool{s.Name: true}
			} else {
				sub = g.first1(s.Name, visited)
			}
			for k := range sub {
				result[k] = true
			}
			if !sub[intern.Epsilon] {
				break
			}
		}
	}
	return result
}

// First computes FIRST(seq) for a symbol sequence: scans left to right,
// unions FIRST1 of each symbol, and stops at the first symbol whose
// FIRST1 does not contain epsilon; if every symbol in seq is nullable,
// epsilon is added to the result. An empty seq's FIRST is {epsilon}.
func (g *Grammar) First(seq []Symbol) map[intern.Name]bool {
	if len(seq) == 0 {
		return map[intern.Name]bool{intern.Epsilon: true}
	}
	if len(seq) == 1 {
		return g.First1(seq[0])
	}
	result := map[intern.Name]bool{}
	allNullable := true
	for _, s := range seq {
		sub := g.First1(s)
		for k := range sub {
			if k != intern.Epsilon {
				result[k] = true
			}
		}
		if !sub[intern.Epsilon] {
			allNullable = false
			break
		}
	}
	if allNullable {
		result[intern.Epsilon] = true
	}
	return result
}
