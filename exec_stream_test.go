package lrtoolkit

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/coregx/lrtoolkit/dfa"
	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/lex"
	"github.com/coregx/lrtoolkit/parser"
	"github.com/coregx/lrtoolkit/table"
)

// calcDefs is arithDefs plus a whitespace rule whose action discards
// the match and keeps scanning, so the sample inputs may carry spaces
// between tokens. The regular-definition expression field cannot hold
// a literal space byte, hence the \x20 hex escape.
const calcDefs = `'+' \+
'*' \*
'(' \(
')' \)
';' ;
id [A-Za-z_][A-Za-z0-9_]*
number [0-9][0-9]*
ws \x20+ {skip}
`

const calcGrammar = `
Start : Body ';' ;
Body : E {end} ;
E : E '+' T [set(2,1,0)] | T ;
T : T '*' F [set(2,1,0)] | F ;
F : '(' E ')' [set(1)] | 'id' [set(0)] | 'number' [set(0)] ;
`

// calcCompiler resolves the two action bodies calcDefs/calcGrammar
// carry: "skip" (whitespace rule; discard the token) and "end" (the
// Body reduction that synthesizes end-of-input once the ';' marker is
// the current lookahead).
type calcCompiler struct{}

func (calcCompiler) CompileLexAction(ruleName, body string) (dfa.Action, error) {
	if body != "skip" {
		return nil, fmt.Errorf("unknown lex action body %q on rule %q", body, ruleName)
	}
	return func(ctx dfa.Ctx) { ctx.Pass() }, nil
}

func (calcCompiler) CompileReduceAction(lhs intern.Name, body string) (parser.Action, error) {
	if body != "end" {
		return nil, fmt.Errorf("unknown reduce action body %q", body)
	}
	return func(ctx parser.ReduceCtx) {
		ctx.Set(0)
		if err := ctx.PushAfter("", parser.NextParams{}); err != nil {
			ctx.Fail(err)
		}
	}, nil
}

func buildCalcExecutor(t *testing.T) *Executor {
	t.Helper()
	exe, err := Build(calcDefs, calcGrammar, table.LALR1, calcCompiler{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return exe
}

func TestExecutor_ParsesParenthesizedExpression(t *testing.T) {
	exe := buildCalcExecutor(t)
	exe.ParseInit()

	accepted := false
	if err := exe.ParseData([]byte("(1+2*a14);"), Hooks{
		OnAfterParse: func(env any) bool {
			accepted = true
			return true
		},
	}); err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if !accepted {
		t.Fatal("expected OnAfterParse to run")
	}
}

func TestExecutor_WhitespaceBetweenTokensIsPassed(t *testing.T) {
	exe := buildCalcExecutor(t)
	exe.ParseInit()

	accepted := false
	if err := exe.ParseData([]byte("( 1 + 2 * a14 );"), Hooks{
		OnAfterParse: func(env any) bool {
			accepted = true
			return true
		},
	}); err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if !accepted {
		t.Fatal("expected OnAfterParse to run with interleaved whitespace")
	}
	if exe.HasData() {
		t.Fatalf("expected no residual bytes, got %q", exe.Data())
	}
}

// TestExecutor_EverySplitPointAcceptsOnce feeds the same input split
// into two chunks at every possible position: every split must yield
// exactly one accept, identical to the unsplit parse.
func TestExecutor_EverySplitPointAcceptsOnce(t *testing.T) {
	exe := buildCalcExecutor(t)
	input := []byte("(1+2*a14);")

	for i := 0; i <= len(input); i++ {
		exe.ParseInit()
		accepts := 0
		hooks := Hooks{
			OnAfterParse: func(env any) bool {
				accepts++
				return true
			},
		}
		if err := exe.ParseData(input[:i], hooks); err != nil {
			t.Fatalf("split %d, first chunk: %v", i, err)
		}
		if err := exe.ParseData(input[i:], hooks); err != nil {
			t.Fatalf("split %d, second chunk: %v", i, err)
		}
		if accepts != 1 {
			t.Fatalf("split %d: got %d accepts, want 1", i, accepts)
		}
		if exe.HasData() {
			t.Fatalf("split %d: residual bytes %q", i, exe.Data())
		}
	}
}

func TestExecutor_UnmatchedByteAbortsParse(t *testing.T) {
	exe := buildCalcExecutor(t)
	exe.ParseInit()

	// '%' matches no lexer rule: the parse must abort with a scanner
	// error, not synthesize end-of-input or wait forever.
	err := exe.ParseData([]byte("(1%"), Hooks{
		OnAfterParse: func(env any) bool {
			t.Fatal("OnAfterParse ran on a lexically invalid stream")
			return true
		},
	})
	if !errors.Is(err, lex.ErrNoMatch) {
		t.Fatalf("ParseData err = %v, want wrapping lex.ErrNoMatch", err)
	}
}

// msgDefs/msgGrammar model a framed message: a one-byte command, a
// one-byte separator, a header-end marker, then a fixed-size opaque
// body, then a ';' trailer. The Hdr reduction queues a framed read that
// fires once the 'hend' marker token has been consumed, so the five
// body bytes bypass the DFA entirely — embedded ';' bytes included.
const msgDefs = `'cmd' C
'sep' X
'hend' !
';' ;
`

const msgGrammar = `
Start : Msg ';' ;
Msg : Hdr 'sep' 'hend' 'body' {end} ;
Hdr : 'cmd' {frame} ;
`

type msgCompiler struct{}

func (msgCompiler) CompileLexAction(ruleName, body string) (dfa.Action, error) {
	return nil, fmt.Errorf("unexpected lex action body %q on rule %q", body, ruleName)
}

func (msgCompiler) CompileReduceAction(lhs intern.Name, body string) (parser.Action, error) {
	switch body {
	case "frame":
		return func(ctx parser.ReduceCtx) {
			err := ctx.PushAfter("hend", parser.NextParams{
				InsertName: "body",
				HasInsert:  true,
				Size:       5,
				HasSize:    true,
			})
			if err != nil {
				ctx.Fail(err)
			}
		}, nil
	case "end":
		return func(ctx parser.ReduceCtx) {
			if err := ctx.PushAfter("", parser.NextParams{}); err != nil {
				ctx.Fail(err)
			}
		}, nil
	}
	return nil, fmt.Errorf("unknown reduce action body %q", body)
}

func buildMsgExecutor(t *testing.T) *Executor {
	t.Helper()
	exe, err := Build(msgDefs, msgGrammar, table.LALR1, msgCompiler{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return exe
}

func TestExecutor_FramedReadConsumesExactBytes(t *testing.T) {
	exe := buildMsgExecutor(t)
	exe.ParseInit()

	var payload []byte
	finals := 0
	accepted := false
	// The 5-byte body "AB;DE" embeds the grammar's own ';' trailer byte;
	// the framed read must consume it as payload, not as a token.
	if err := exe.ParseData([]byte("CX!AB;DE;"), Hooks{
		OnTknData: func(name intern.Name, data []byte, end bool) {
			payload = append(payload, data...)
			if end {
				finals++
			}
		},
		OnAfterParse: func(env any) bool {
			accepted = true
			return true
		},
	}); err != nil {
		t.Fatalf("ParseData: %v", err)
	}

	if !accepted {
		t.Fatal("expected OnAfterParse to run")
	}
	if finals != 1 {
		t.Fatalf("got %d end=true deliveries, want 1", finals)
	}
	if !bytes.Equal(payload, []byte("AB;DE")) {
		t.Fatalf("framed payload = %q, want %q", payload, "AB;DE")
	}
	if exe.HasData() {
		t.Fatalf("expected no residual bytes, got %q", exe.Data())
	}
}

func TestExecutor_FramedReadSuspendsMidFrame(t *testing.T) {
	exe := buildMsgExecutor(t)
	exe.ParseInit()

	var payload []byte
	accepted := false
	hooks := Hooks{
		OnTknData: func(name intern.Name, data []byte, end bool) {
			payload = append(payload, data...)
		},
		OnAfterParse: func(env any) bool {
			accepted = true
			return true
		},
	}

	for _, chunk := range []string{"CX!A", "B;D", "E;"} {
		if accepted {
			t.Fatalf("accepted before chunk %q arrived", chunk)
		}
		if err := exe.ParseData([]byte(chunk), hooks); err != nil {
			t.Fatalf("ParseData(%q): %v", chunk, err)
		}
	}

	if !accepted {
		t.Fatal("expected OnAfterParse to run once all chunks arrived")
	}
	if !bytes.Equal(payload, []byte("AB;DE")) {
		t.Fatalf("framed payload = %q, want %q", payload, "AB;DE")
	}
}
