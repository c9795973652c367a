package lrtoolkit

import (
	"strings"
	"testing"

	"github.com/coregx/lrtoolkit/dfa"
	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/parser"
	"github.com/coregx/lrtoolkit/table"
)

// arithDefs lexes a tiny arithmetic language: identifiers, decimal
// numbers, the four bracket/operator literals, and a trailing ';'
// marker the grammar uses to know where the top-level expression ends
// (see arithGrammar). No whitespace rule: regexdef's expression field
// cannot itself contain a literal space byte, so the sample inputs
// below are written with no spaces to scan.
const arithDefs = `'+' \+
'*' \*
'(' \(
')' \)
';' ;
id [A-Za-z_][A-Za-z0-9_]*
number [0-9][0-9]*
`

// arithGrammar builds a "(a+2)*b3;" style input into a single
// left-associative value via structured set() actions, except for one
// production (Body : E) whose reduction only ever happens under
// lookahead ';' — Body's sole use is "Start : Body ';'", so
// FOLLOW(Body) = {';'} — which is exactly the hook a streaming driver
// needs to tell it the message is complete.
const arithGrammar = `
Start : Body ';' ;
Body : E {end} ;
E : E '+' T [set(2,1,0)] | T ;
T : T '*' F [set(2,1,0)] | F ;
F : '(' E ')' [set(1)] | 'id' [set(0)] | 'number' [set(0)] ;
`

// nextEndOfInputCompiler resolves the grammar's one host action body
// ("end") into a reduction that unconditionally queues a Next which
// fires, unconditionally, the very next time the driver asks for a
// lookahead — synthesizing end-of-input in place of a real token, once
// the ';' marker has been recognized as the current lookahead. It has
// no lexer-rule actions to compile.
type nextEndOfInputCompiler struct{}

func (nextEndOfInputCompiler) CompileLexAction(ruleName, body string) (dfa.Action, error) {
	return nil, nil
}

func (nextEndOfInputCompiler) CompileReduceAction(lhs intern.Name, body string) (parser.Action, error) {
	return func(ctx parser.ReduceCtx) {
		ctx.Set(0)
		if err := ctx.PushAfter("", parser.NextParams{}); err != nil {
			ctx.Fail(err)
		}
	}, nil
}

func buildArithExecutor(t *testing.T) *Executor {
	t.Helper()
	exe, err := Build(arithDefs, arithGrammar, table.LALR1, nextEndOfInputCompiler{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return exe
}

func TestBuild_ExpressionGrammarAccepts(t *testing.T) {
	exe := buildArithExecutor(t)
	exe.ParseInit()

	accepted := false
	err := exe.ParseData([]byte("(a+2)*b3;"), Hooks{
		OnAfterParse: func(env any) bool {
			accepted = true
			return true
		},
	})
	if err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if !accepted {
		t.Fatal("expected OnAfterParse to run")
	}
}

func TestBuild_ExpressionGrammarAcceptsByteAtATime(t *testing.T) {
	exe := buildArithExecutor(t)
	exe.ParseInit()

	input := "(a+2)*b3;"
	accepted := false
	for i := 0; i < len(input); i++ {
		if err := exe.ParseData([]byte{input[i]}, Hooks{
			OnAfterParse: func(env any) bool {
				accepted = true
				return true
			},
		}); err != nil {
			t.Fatalf("ParseData at byte %d (%q): %v", i, input[i:i+1], err)
		}
	}
	if !accepted {
		t.Fatal("expected OnAfterParse to run once every byte had been fed")
	}
	if exe.HasData() {
		t.Fatalf("expected no residual bytes, got %q", exe.Data())
	}
}

func TestBuild_MissingActionCompilerErrors(t *testing.T) {
	if _, err := Build(arithDefs, arithGrammar, table.LALR1, nil); err == nil {
		t.Fatal("expected an error building a grammar with a host action and no ActionCompiler")
	}
}

func TestBuild_NoLexRulesErrors(t *testing.T) {
	_, err := Build("", "S : 'x' ;", table.LALR1, nil)
	if err == nil || !strings.Contains(err.Error(), ErrNoLexRules.Error()) {
		t.Fatalf("Build error = %v, want wrapping ErrNoLexRules", err)
	}
}

func TestBuild_UnknownTableKindErrors(t *testing.T) {
	defs := "x x\n"
	gram := "S : 'x' ;\n"
	_, err := Build(defs, gram, table.Kind(99), nil)
	if err == nil || !strings.Contains(err.Error(), ErrUnknownTableKind.Error()) {
		t.Fatalf("Build error = %v, want wrapping ErrUnknownTableKind", err)
	}
}

func TestExecutor_ParseDataSuspendsOnPartialInput(t *testing.T) {
	exe := buildArithExecutor(t)
	exe.ParseInit()

	accepted := false
	// "(a+2)*b3" with no trailing ';' yet: the driver must suspend
	// rather than error, and must not have run OnAfterParse.
	if err := exe.ParseData([]byte("(a+2)*b3"), Hooks{
		OnAfterParse: func(env any) bool {
			accepted = true
			return true
		},
	}); err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if accepted {
		t.Fatal("OnAfterParse ran before the stream's ';' marker arrived")
	}

	if err := exe.ParseData([]byte(";"), Hooks{
		OnAfterParse: func(env any) bool {
			accepted = true
			return true
		},
	}); err != nil {
		t.Fatalf("resumed ParseData: %v", err)
	}
	if !accepted {
		t.Fatal("expected OnAfterParse to run once the ';' marker completed the stream")
	}
}
