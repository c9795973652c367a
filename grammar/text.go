package grammar

import (
	"errors"
	"fmt"

	"github.com/coregx/lrtoolkit/internal/hostre"
	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/lex"
)

// ErrBadGrammarText is returned by ParseGrammarText for any malformed
// input: an unexpected token, a missing terminator, or an unterminated
// action body.
var ErrBadGrammarText = errors.New("grammar: malformed grammar text")

// AttrSetAction and AttrHostAction key the two kinds of semantic
// action a production's Attrs bag may carry: AttrSetAction holds a
// []int of up to five stack-relative indices (the structured "set"
// action, driver-internal — see package parser); AttrHostAction holds
// a string, the opaque action body text to be compiled by a
// caller-supplied action compiler.
var (
	AttrSetAction  = intern.Hash("$setaction")
	AttrHostAction = intern.Hash("$hostaction")
)

const (
	tokIdent = iota
	tokTerm
	tokColon
	tokVert
	tokSemi
	tokSetAction
	tokHostAction
)

var grammarTextRules = []lex.Rule{
	{Name: intern.Hash("$space"), Pattern: hostre.MustCompile(`[ \t\r\n]+`), Position: 0, Action: func(ctx lex.Ctx) { ctx.Pass() }},
	{Name: intern.Hash("$ident"), Pattern: hostre.MustCompile(`(?:_|[A-Za-z])(?:_|[A-Za-z]|[0-9])*`), Position: 1},
	{Name: intern.Hash("$term"), Pattern: hostre.MustCompile(`'[^'\s]+'`), Position: 2,
		Action: func(ctx lex.Ctx) { v := ctx.Get(); ctx.Set(v[1 : len(v)-1]) }},
	{Name: intern.Hash("$colon"), Pattern: hostre.MustCompile(`:`), Position: 3},
	{Name: intern.Hash("$vert"), Pattern: hostre.MustCompile(`\|`), Position: 4},
	{Name: intern.Hash("$semi"), Pattern: hostre.MustCompile(`;`), Position: 5},
	{Name: intern.Hash("$setaction"), Pattern: hostre.MustCompile(`\[[^\[\]]*\]`), Position: 6,
		Action: func(ctx lex.Ctx) { v := ctx.Get(); ctx.Set(v[1 : len(v)-1]) }},
	{Name: intern.Hash("$hostaction"), Pattern: hostre.MustCompile(`\{[^{}]*\}`), Position: 7,
		Action: func(ctx lex.Ctx) { v := ctx.Get(); ctx.Set(v[1 : len(v)-1]) }},
}

var (
	nameIdent      = intern.Hash("$ident")
	nameTerm       = intern.Hash("$term")
	nameColon      = intern.Hash("$colon")
	nameVert       = intern.Hash("$vert")
	nameSemi       = intern.Hash("$semi")
	nameSetAction  = intern.Hash("$setaction")
	nameHostAction = intern.Hash("$hostaction")
	errorText      = "error"
)

// ParseGrammarText parses the grammar-text external format into a
// Grammar, prepending the augmented start production `S' -> S` where
// S is the LHS of the first declared production.
//
// Tokenizing grammar text is itself one of the two jobs the
// non-streaming lexer exists for (its "grammar scanner" role);
// ParseGrammarText drives a fixed lex.Lex built from
// grammarTextRules above, then runs a small hand-written
// recursive-descent parser over the resulting token stream — the
// grammar-text format's own grammar is never run through the table
// builder, only through this direct parser (see DESIGN.md D1).
func ParseGrammarText(text string) (*Grammar, error) {
	l := lex.NewLex(text, grammarTextRules)
	p := &textParser{lex: l}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var productions []*Production
	var firstLHS intern.Name
	haveFirst := false

	for p.tok != nil {
		lhsTok, err := p.expect(nameIdent)
		if err != nil {
			return nil, err
		}
		lhsName := intern.Hash(string(lhsTok.Bytes))
		if !haveFirst {
			firstLHS = lhsName
			haveFirst = true
		}
		if _, err := p.expect(nameColon); err != nil {
			return nil, err
		}

		var pending []int
		for {
			var rhs []Symbol
			for p.tok != nil && (p.tok.Name == nameIdent || p.tok.Name == nameTerm) {
				if p.tok.Name == nameTerm {
					rhs = append(rhs, TermName(intern.Hash(string(p.tok.Bytes))))
				} else if string(p.tok.Bytes) == errorText {
					rhs = append(rhs, Term(errorText))
				} else {
					rhs = append(rhs, NonTermName(intern.Hash(string(p.tok.Bytes))))
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
			}

			var bag *attrsBag
			if p.tok != nil && p.tok.Name == nameSetAction {
				body := string(p.tok.Bytes)
				indices, err := ParseSetAction(body)
				if err != nil {
					return nil, fmt.Errorf("%w: bad set action %q: %v", ErrBadGrammarText, body, err)
				}
				bag = newAttrsBag()
				bag.setSetAction(indices)
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			if p.tok != nil && p.tok.Name == nameHostAction {
				if bag == nil {
					bag = newAttrsBag()
				}
				bag.setHostAction(string(p.tok.Bytes))
				if err := p.advance(); err != nil {
					return nil, err
				}
			}

			prod := NewProduction(lhsName, rhs, bag.bag())
			productions = append(productions, prod)
			pending = append(pending, len(productions)-1)

			if bag != nil {
				for _, idx := range pending {
					productions[idx].Attrs = bag.bag()
				}
				pending = nil
			}

			if p.tok != nil && p.tok.Name == nameVert {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}

		if _, err := p.expect(nameSemi); err != nil {
			return nil, err
		}
	}

	if !haveFirst {
		return nil, fmt.Errorf("%w: empty grammar text", ErrBadGrammarText)
	}

	all := make([]*Production, 0, len(productions)+1)
	all = append(all, Augment(NonTermName(firstLHS)))
	all = append(all, productions...)
	return New(all), nil
}

type textParser struct {
	lex *lex.Lex
	tok *lex.Token
}

func (p *textParser) advance() error {
	tok, err := p.lex.GetToken()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadGrammarText, err)
	}
	p.tok = tok
	return nil
}

func (p *textParser) expect(name intern.Name) (*lex.Token, error) {
	if p.tok == nil || p.tok.Name != name {
		return nil, fmt.Errorf("%w: unexpected token %v", ErrBadGrammarText, p.tok)
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}
	return tok, nil
}
