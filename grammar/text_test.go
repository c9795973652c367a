package grammar

import "testing"

func TestParseGrammarTextSimple(t *testing.T) {
	text := `
expr : expr '+' term
     | term
     ;
term : 'id'
     ;
`
	g, err := ParseGrammarText(text)
	if err != nil {
		t.Fatalf("ParseGrammarText: %v", err)
	}
	// production 0 is the augmented start `$start' -> expr`, plus 3
	// declared alternatives (expr->expr+term, expr->term, term->id).
	if len(g.Productions) != 4 {
		t.Fatalf("len(Productions) = %d, want 4: %+v", len(g.Productions), g.Productions)
	}
	if g.Productions[0].RHS[0].Name != NonTerm("expr").Name {
		t.Fatalf("augmented start does not point at expr: %+v", g.Productions[0])
	}
	if len(g.Productions[1].RHS) != 3 {
		t.Fatalf("expr -> expr '+' term has %d RHS symbols, want 3", len(g.Productions[1].RHS))
	}
}

func TestParseGrammarTextSetAction(t *testing.T) {
	text := `
start : 'a' 'b' [set(1,2)]
      | 'a' [set(1)]
      ;
`
	g, err := ParseGrammarText(text)
	if err != nil {
		t.Fatalf("ParseGrammarText: %v", err)
	}
	p := g.Productions[1]
	if p.Attrs == nil {
		t.Fatalf("production missing Attrs after set action")
	}
	v, ok := p.Attrs.Get(AttrSetAction)
	if !ok {
		t.Fatalf("production missing AttrSetAction")
	}
	indices, ok := v.([]int)
	if !ok || len(indices) != 2 || indices[0] != 1 || indices[1] != 2 {
		t.Fatalf("AttrSetAction = %v, want [1 2]", v)
	}
}

func TestParseGrammarTextActionAttachesToAllAlternativesSinceLast(t *testing.T) {
	text := `
start : 'a'
      | 'b'
      | 'c' [set(1)]
      ;
`
	g, err := ParseGrammarText(text)
	if err != nil {
		t.Fatalf("ParseGrammarText: %v", err)
	}
	// Productions 1,2,3 are 'a', 'b', 'c'; the action on 'c' should
	// retroactively attach to 'a' and 'b' too, since no earlier
	// alternative in this group had its own action.
	for i := 1; i <= 3; i++ {
		if g.Productions[i].Attrs == nil {
			t.Fatalf("production %d missing retroactively attached action", i)
		}
	}
}

func TestParseGrammarTextErrorProduction(t *testing.T) {
	text := `
start : error
      ;
`
	g, err := ParseGrammarText(text)
	if err != nil {
		t.Fatalf("ParseGrammarText: %v", err)
	}
	p := g.Productions[1]
	if len(p.RHS) != 2 || p.RHS[0].Kind != Terminal || p.RHS[1].Name != EpsilonSymbol().Name {
		t.Fatalf("lone-error production = %+v, want [error, epsilon]", p.RHS)
	}
}

func TestParseGrammarTextMalformed(t *testing.T) {
	if _, err := ParseGrammarText("start :\n"); err == nil {
		t.Fatalf("expected an error for a production with no RHS terminator")
	}
}
