package lex

import (
	"testing"

	"github.com/coregx/lrtoolkit/internal/hostre"
	"github.com/coregx/lrtoolkit/intern"
)

func TestLexLongestMatchAndRulePriority(t *testing.T) {
	rules := []Rule{
		{Name: intern.Hash("if"), Pattern: hostre.MustCompile(`if`), Position: 0},
		{Name: intern.Hash("id"), Pattern: hostre.MustCompile(`[A-Za-z]+`), Position: 1},
	}

	l := NewLex("if", rules)
	tok, err := l.GetToken()
	if err != nil || tok == nil || tok.Name != intern.Hash("if") {
		t.Fatalf("GetToken(%q) = (%v, %v), want name 'if'", "if", tok, err)
	}

	l2 := NewLex("iffy", rules)
	tok2, err := l2.GetToken()
	if err != nil || tok2 == nil || tok2.Name != intern.Hash("id") || string(tok2.Bytes) != "iffy" {
		t.Fatalf("GetToken(%q) = (%v, %v), want name 'id' value 'iffy'", "iffy", tok2, err)
	}
}

func TestLexPassSkipsWhitespace(t *testing.T) {
	rules := []Rule{
		{Name: intern.Hash("space"), Pattern: hostre.MustCompile(`\s+`), Position: 0, Action: func(ctx Ctx) { ctx.Pass() }},
		{Name: intern.Hash("id"), Pattern: hostre.MustCompile(`[A-Za-z]+`), Position: 1},
	}
	l := NewLex("  abc", rules)
	tok, err := l.GetToken()
	if err != nil || tok == nil || string(tok.Bytes) != "abc" {
		t.Fatalf("GetToken skipped-whitespace result = (%v, %v), want 'abc'", tok, err)
	}
}

func TestLexNoMatchError(t *testing.T) {
	rules := []Rule{
		{Name: intern.Hash("digit"), Pattern: hostre.MustCompile(`[0-9]+`), Position: 0},
	}
	l := NewLex("abc", rules)
	tok, err := l.GetToken()
	if err != ErrNoMatch || tok != nil {
		t.Fatalf("GetToken(%q) = (%v, %v), want (nil, ErrNoMatch)", "abc", tok, err)
	}
}

func TestLexEndOfInput(t *testing.T) {
	rules := []Rule{{Name: intern.Hash("id"), Pattern: hostre.MustCompile(`[A-Za-z]+`), Position: 0}}
	l := NewLex("abc", rules)
	if _, err := l.GetToken(); err != nil {
		t.Fatalf("first GetToken errored: %v", err)
	}
	tok, err := l.GetToken()
	if tok != nil || err != nil {
		t.Fatalf("GetToken at end of input = (%v, %v), want (nil, nil)", tok, err)
	}
}

func TestLexActionOverridesNameAndValue(t *testing.T) {
	rules := []Rule{
		{
			Name:    intern.Hash("raw"),
			Pattern: hostre.MustCompile(`'[^']*'`),
			Action: func(ctx Ctx) {
				v := ctx.Get()
				ctx.Set(v[1 : len(v)-1])
				ctx.SetName("literal")
			},
			Position: 0,
		},
	}
	l := NewLex(`'hi'`, rules)
	tok, err := l.GetToken()
	if err != nil || tok == nil || tok.Name != intern.Hash("literal") || string(tok.Bytes) != "hi" {
		t.Fatalf("GetToken = (%v, %v), want name 'literal' value 'hi'", tok, err)
	}
}
