// Package bootstrap implements the bootstrap regex parser: a
// hard-coded scanner and a fixed, Go-literal LALR(1) grammar that turn
// the system's own regex language into a regexast tree, without
// depending on the DFA/table machinery that regex compiles into (that
// would be circular).
//
// Grounded on original_source/src/dfa_grammar.rs (reg_exp/grammar) and
// original_source/src/dfa_grammar.rs's ExecContext helpers.
package bootstrap

import (
	"fmt"
	"unicode/utf8"

	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/lex"
)

// Reserved terminal names for the hard-coded token grammar. Every
// meta-character is its own one-byte terminal named after itself;
// literal bytes (plain chars, and every escape form once decoded) are
// reclassified to "code" (single byte) or "codes" (two or more bytes,
// e.g. a multi-byte UTF-8 rune) — mirroring dfa_grammar.rs's
// to_codes('utf8') convention, which the token actions apply uniformly
// regardless of which token rule actually matched.
var (
	nameCode  = intern.Hash("code")
	nameCodes = intern.Hash("codes")
)

// scanLexer is the hard-coded regex-language scanner: a single switch
// over the current byte classifies it as one of the fixed meta
// characters, or else falls through to a literal-byte/escape decode.
// It is not a general regex engine: every token here is fixed-length
// or fixed-prefix, so building a whole DFA to recognize "one byte that
// isn't special" would be circular and pointless.
type scanLexer struct {
	data []byte
	pos  int
}

func newScanLexer(pattern string) *scanLexer {
	return &scanLexer{data: []byte(pattern)}
}

// ErrDanglingEscape is returned when a pattern ends with a bare `\`.
var ErrDanglingEscape = fmt.Errorf("bootstrap: dangling escape at end of pattern")

// ErrUnicodeEscapeTooShort is returned when `\uHHHH` decodes to a
// single-byte UTF-8 sequence (codepoints below U+0080): the grammar's
// 'codes' terminal always carries two or more bytes (see
// regexast.Builder.BuildCodes), a limitation carried unchanged from
// original_source/src/dfa_grammar.rs's to_codes('unicode') path, which
// unconditionally labels a unicode escape's result "codes" regardless
// of its actual byte length.
var ErrUnicodeEscapeTooShort = fmt.Errorf("bootstrap: \\u escape must encode to at least 2 UTF-8 bytes")

func isMeta(b byte) bool {
	switch b {
	case '+', '-', '*', '|', '?', ',', '^', '(', ')', '[', ']', '{', '}':
		return true
	}
	return false
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	default:
		return int(b-'A') + 10
	}
}

// GetToken implements parser.Lexer.
func (s *scanLexer) GetToken() (*lex.Token, error) {
	if s.pos >= len(s.data) {
		return nil, nil
	}
	b := s.data[s.pos]
	if isMeta(b) {
		s.pos++
		return &lex.Token{Name: intern.Hash(string(b)), Bytes: []byte{b}}, nil
	}
	if b == '\\' {
		return s.scanEscape()
	}
	return s.scanChar(s.pos)
}

// scanChar reads one UTF-8 rune at from and classifies it as "code"
// (a single ASCII byte) or "codes" (anything else).
func (s *scanLexer) scanChar(from int) (*lex.Token, error) {
	r, size := utf8.DecodeRune(s.data[from:])
	if r == utf8.RuneError && size <= 1 {
		size = 1
	}
	buf := make([]byte, size)
	if r < utf8.RuneSelf {
		buf[0] = byte(r)
	} else {
		utf8.EncodeRune(buf, r)
	}
	s.pos = from + size
	if len(buf) == 1 {
		return &lex.Token{Name: nameCode, Bytes: buf}, nil
	}
	return &lex.Token{Name: nameCodes, Bytes: buf}, nil
}

// scanEscape decodes one of `\xHH`, `\uHHHH`, or a plain `\<char>`
// literal, starting at the backslash (s.pos).
func (s *scanLexer) scanEscape() (*lex.Token, error) {
	if s.pos+1 >= len(s.data) {
		return nil, ErrDanglingEscape
	}
	next := s.data[s.pos+1]

	if next == 'x' && s.pos+4 <= len(s.data) && isHex(s.data[s.pos+2]) && isHex(s.data[s.pos+3]) {
		v := byte(hexVal(s.data[s.pos+2])<<4 | hexVal(s.data[s.pos+3]))
		s.pos += 4
		return &lex.Token{Name: nameCode, Bytes: []byte{v}}, nil
	}

	if next == 'u' && s.pos+6 <= len(s.data) &&
		isHex(s.data[s.pos+2]) && isHex(s.data[s.pos+3]) && isHex(s.data[s.pos+4]) && isHex(s.data[s.pos+5]) {
		cp := rune(hexVal(s.data[s.pos+2]))<<12 | rune(hexVal(s.data[s.pos+3]))<<8 |
			rune(hexVal(s.data[s.pos+4]))<<4 | rune(hexVal(s.data[s.pos+5]))
		buf := make([]byte, utf8.RuneLen(cp))
		utf8.EncodeRune(buf, cp)
		s.pos += 6
		if len(buf) < 2 {
			return nil, ErrUnicodeEscapeTooShort
		}
		return &lex.Token{Name: nameCodes, Bytes: buf}, nil
	}

	return s.scanChar(s.pos + 1)
}
