package lrtoolkit

import (
	"github.com/coregx/lrtoolkit/dfa"
	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/parser"
)

// ActionCompiler is the host collaborator Build consults whenever it
// finds an opaque `{...}` action body attached to a regular-definition
// rule or a grammar production (spec.md §1 excludes "host-language
// action callbacks" from the core itself — original_source/src/lex.rs
// and dfa_grammar.rs compile these bodies into live JavaScript
// functions via wasm_bindgen's Function::new_with_args, a mechanism
// with no Go analogue and, per spec.md §1, deliberately out of this
// module's scope).
//
// A nil ActionCompiler is fine for a regular-definition/grammar pair
// that attaches no action bodies at all (e.g. a lexer whose only
// non-DEF rules need no host-side bytes-to-AST bridging). Build
// reports an error if an action body is found with no compiler to
// resolve it.
type ActionCompiler interface {
	// CompileLexAction compiles a regular-definition rule's action
	// body into the dfa.Action a StreamLex-matched token runs (the
	// spec.md §4.8/§4.9 get/set/set_name/set_name_from_hash/pass
	// capability set). ruleName is the rule's declared name, for
	// diagnostics.
	CompileLexAction(ruleName, body string) (dfa.Action, error)

	// CompileReduceAction compiles a grammar production's host action
	// body into the parser.Action a reduction by that production
	// invokes (the full spec.md §4.8 ReduceCtx capability set). lhs is
	// the production's left-hand-side nonterminal's interned name, for
	// diagnostics (see intern.OriginalName to recover its text when
	// intern.SetDebugNames(true) has been called).
	CompileReduceAction(lhs intern.Name, body string) (parser.Action, error)
}
