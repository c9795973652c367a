package lex

import (
	"errors"

	"github.com/coregx/lrtoolkit/internal/hostre"
	"github.com/coregx/lrtoolkit/intern"
)

// ErrNoMatch is the fatal scanner failure shared by both lexers: Lex
// returns it when no rule matches at the current position before the
// resident text is exhausted, and StreamLex returns it when the DFA
// rejects a byte with no accepting state recorded.
var ErrNoMatch = errors.New("lex: no rule matches at current position")

// Rule is one compiled non-streaming lexer rule: an interned name, a
// host-regex pattern anchored at the scan position, and an optional
// action. Rules are tried in slice order (NewLex expects that to be
// Position order) and the longest match wins; on a tie the rule earlier
// in the slice wins — see SPEC_FULL.md §12 for why this must be a strict
// greater-than comparison.
type Rule struct {
	Name     intern.Name
	Pattern  *hostre.Regexp
	Action   Action
	Position int
}

// Lex is the non-streaming lexer (C9): it scans a resident string
// against a fixed set of Rules using a host-provided regex matcher.
// In this module it scans only the grammar-text format (C6, see
// grammar.ParseGrammarText); the bootstrap regex language (C4) has its
// own scanner in package bootstrap. It is never used for arbitrary
// user-facing tokenizing, which goes through the
// streaming DFA lexer (C10, StreamLex) instead.
type Lex struct {
	text  string
	pos   int
	rules []Rule
}

// NewLex returns a Lex over text, ready to scan from position 0. Rules
// should already be sorted by Position (ascending); NewLex does not
// sort them, so the caller does this at build time.
func NewLex(text string, rules []Rule) *Lex {
	return &Lex{text: text, rules: rules}
}

// SetText resets the scan position and replaces the resident text.
func (l *Lex) SetText(text string) {
	l.text = text
	l.pos = 0
}

// Pos returns the current scan offset into the resident text.
func (l *Lex) Pos() int { return l.pos }

// GetToken scans the next token starting at the current position. It
// returns (nil, nil) at end of input, (tok, nil) on a successful match
// (after running and honoring the matched rule's action, including any
// number of chained `pass`-discarded tokens), and (nil, ErrNoMatch) if
// no rule matches before end of input is reached.
func (l *Lex) GetToken() (*Token, error) {
	for {
		if l.pos >= len(l.text) {
			return nil, nil
		}

		cur := l.text[l.pos:]
		bestLen := -1
		bestRule := -1
		for i, r := range l.rules {
			n, ok := r.Pattern.FindPrefix(cur)
			if !ok {
				continue
			}
			// Strict greater-than: an equal-length later rule never
			// displaces an earlier one (rule priority on ties).
			if n > bestLen {
				bestLen = n
				bestRule = i
			}
		}

		if bestRule < 0 {
			return nil, ErrNoMatch
		}

		rule := l.rules[bestRule]
		value := []byte(cur[:bestLen])
		l.pos += bestLen

		name := rule.Name
		if rule.Action != nil {
			ctx := &ctxImpl{value: value, name: name}
			rule.Action(ctx)
			value = ctx.value
			if ctx.nameChanged {
				name = ctx.name
			}
			if ctx.pass {
				continue
			}
		}

		return &Token{Name: name, Bytes: value}, nil
	}
}
