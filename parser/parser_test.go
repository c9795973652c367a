package parser

import (
	"testing"

	"github.com/coregx/lrtoolkit/grammar"
	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/lex"
	"github.com/coregx/lrtoolkit/table"
)

// sliceLexer feeds a fixed sequence of tokens, then end-of-input
// forever; it satisfies Lexer but not SizedLexer, mirroring a
// resident-text lexer that never sees a framed read.
type sliceLexer struct {
	toks []lex.Token
	pos  int
}

func (s *sliceLexer) GetToken() (*lex.Token, error) {
	if s.pos >= len(s.toks) {
		return nil, nil
	}
	t := s.toks[s.pos]
	s.pos++
	return &t, nil
}

func tok(name string, val string) lex.Token {
	return lex.Token{Name: intern.Hash(name), Bytes: []byte(val)}
}

func buildExprTables(t *testing.T) *table.Tables {
	t.Helper()
	g, err := grammar.ParseGrammarText(`
expr : expr '+' term | term ;
term : term '*' factor | factor ;
factor : '(' expr ')' | 'id' ;
`)
	if err != nil {
		t.Fatalf("ParseGrammarText: %v", err)
	}
	tabs, err := table.BuildLALR1(g)
	if err != nil {
		t.Fatalf("BuildLALR1: %v", err)
	}
	return tabs
}

func TestParser_AcceptsSimpleSum(t *testing.T) {
	tabs := buildExprTables(t)
	lx := &sliceLexer{toks: []lex.Token{
		tok("id", "a"),
		tok("+", "+"),
		tok("id", "b"),
	}}
	p := New(lx, tabs)

	res, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res != ParseSuccess {
		t.Fatalf("Parse result = %v, want ParseSuccess", res)
	}
}

func TestParser_RejectsMalformedInput(t *testing.T) {
	tabs := buildExprTables(t)
	lx := &sliceLexer{toks: []lex.Token{
		tok("+", "+"),
	}}
	p := New(lx, tabs)

	if _, err := p.Parse(); err == nil {
		t.Fatal("expected a parse error for input starting with '+'")
	}
}

func TestParser_ResetsAfterSuccess(t *testing.T) {
	tabs := buildExprTables(t)
	lx := &sliceLexer{toks: []lex.Token{tok("id", "a")}}
	p := New(lx, tabs)

	if res, err := p.Parse(); err != nil || res != ParseSuccess {
		t.Fatalf("first Parse: res=%v err=%v", res, err)
	}
	if len(p.stack) != 0 {
		t.Fatalf("stack not reset after success: %v", p.stack)
	}

	lx2 := &sliceLexer{toks: []lex.Token{tok("id", "b")}}
	p.lex = lx2
	if res, err := p.Parse(); err != nil || res != ParseSuccess {
		t.Fatalf("second Parse: res=%v err=%v", res, err)
	}
}

// waitOnceLexer returns a "wait" token once, then the real tokens —
// exercising Parse's suspend/resume path.
type waitOnceLexer struct {
	waited bool
	inner  *sliceLexer
}

func (w *waitOnceLexer) GetToken() (*lex.Token, error) {
	if !w.waited {
		w.waited = true
		return &lex.Token{Name: intern.Wait}, nil
	}
	return w.inner.GetToken()
}

func TestParser_SuspendsOnWaitAndResumes(t *testing.T) {
	tabs := buildExprTables(t)
	lx := &waitOnceLexer{inner: &sliceLexer{toks: []lex.Token{tok("id", "a")}}}
	p := New(lx, tabs)

	res, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res != ParseWait {
		t.Fatalf("Parse result = %v, want ParseWait", res)
	}

	res, err = p.Parse()
	if err != nil {
		t.Fatalf("resumed Parse: %v", err)
	}
	if res != ParseSuccess {
		t.Fatalf("resumed Parse result = %v, want ParseSuccess", res)
	}
}

func TestReduceCtx_PushAfterRejectsMultipleParams(t *testing.T) {
	ctx := &reduceCtx{}
	err := ctx.PushAfter("x", NextParams{InsertValue: []byte("a"), HasSize: true, Size: 4})
	if err == nil {
		t.Fatal("expected an error for multiple NextParams fields set")
	}
}

func TestApplySetAction_ConcatenatesInOrder(t *testing.T) {
	sym1 := grammar.Symbol{Name: intern.Hash("a"), Value: []byte("A")}
	sym2 := grammar.Symbol{Name: intern.Hash("b"), Value: []byte("B")}
	stack := []stackItem{
		{state: 0},
		{state: 1, symbol: &sym1},
		{state: 2, symbol: &sym2},
	}
	var out grammar.Symbol
	applySetAction(stack, []int{1, 0}, &out)
	if string(out.Value) != "AB" {
		t.Fatalf("Value = %q, want %q", out.Value, "AB")
	}
}
