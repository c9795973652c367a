// Package hostre wraps the coregex engine (github.com/coregx/coregex)
// as the non-streaming lexer's host regex matcher. The non-streaming
// lexer tokenizes the grammar-text format, so reading a grammar never
// goes through this module's own regex-AST/DFA pipeline (the bootstrap
// regex syntax is scanned separately, by package bootstrap's own
// hand-rolled scanner, and does not use this package). coregex
// fills the same role original_source/src/lex.rs resolves by calling
// out to an external `regex` crate.
//
// Matching is PCRE-style leftmost-first (coregex's default), the same
// semantics as the Rust `regex` crate the reference delegates to: a
// pattern's own alternation prefers the first-written alternative, and
// quantifiers are greedy. Rule-vs-rule longest-match priority is
// layered on top of this by lex.Lex, which compares match lengths
// across rules itself.
package hostre

import "github.com/coregx/coregex"

// Regexp is a compiled pattern, matched at the start of the input only
// (FindPrefix reports a match beginning at offset 0 or not at all).
type Regexp struct {
	re *coregex.Regex
}

// Compile compiles pattern (Perl-compatible syntax, same as coregex).
func Compile(pattern string) (*Regexp, error) {
	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Regexp{re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Regexp {
	re, err := Compile(pattern)
	if err != nil {
		panic("hostre: Compile(" + pattern + "): " + err.Error())
	}
	return re
}

// FindPrefix returns the length in bytes of the leftmost-first match
// starting at offset 0 of text, and true if the pattern matches there.
// A leftmost match beginning past offset 0 does not count: the lexers
// built on this package only ever consume from the scan position.
func (r *Regexp) FindPrefix(text string) (int, bool) {
	loc := r.re.FindStringIndex(text)
	if loc == nil || loc[0] != 0 {
		return 0, false
	}
	return loc[1], true
}
