package lrtoolkit

import (
	"github.com/coregx/lrtoolkit/lex"
	"github.com/coregx/lrtoolkit/parser"
	"github.com/coregx/lrtoolkit/table"
)

// Hooks are the per-ParseData-call callbacks an Executor's caller may
// supply. All four are optional.
//
// NewEnv replaces original_source/src/executor.rs's
// `Object::create(proto)` / `Reflect::set(socket_key, socket)` pair: a
// factory for the opaque per-top-level-parse environment a grammar's
// host reduction actions run against (parser.ReduceCtx.Env), created
// once per top-level parse (i.e. once per Accept, not once per
// ParseData call — see ParseData's doc comment). The host AST
// representation that environment builds into is an external
// collaborator this module never looks inside.
type Hooks struct {
	// NewEnv constructs a fresh environment for a new top-level parse.
	// Its return value is attached via parser.Parser.SetEnv and handed
	// back unchanged to OnBeforeParse/OnAfterParse.
	NewEnv func() any
	// OnBeforeParse runs once, immediately after NewEnv, before the
	// first token of a new top-level parse is read.
	OnBeforeParse func(env any)
	// OnAfterParse runs once a top-level parse accepts. Returning true
	// stops ParseData from starting another top-level parse on any
	// residual buffered bytes; returning false (or a nil OnAfterParse)
	// lets ParseData continue automatically as long as HasData is true.
	OnAfterParse func(env any) bool
	// OnTknData receives chunked/final deliveries of a framed
	// (push_after size-mode) token's payload — see lex.OnTknData.
	OnTknData lex.OnTknData
}

// Executor is a compiled, resumable "feed bytes, receive events"
// session: a streaming DFA lexer and a shift/reduce parser driven
// together over tables built once by Build. Tables are shared
// read-only; an Executor's own session state (lexer buffer, parser
// stack, in-flight environment) is exclusive to it and must not be
// used from more than one goroutine concurrently.
type Executor struct {
	lexer  *lex.StreamLex
	parser *parser.Parser
	tables *table.Tables

	env    any
	hasEnv bool
}

// Tables returns the compiled ACTION/GOTO tables driving this
// Executor's parser, safe to share (read-only) across Executors built
// from the same Build call.
func (e *Executor) Tables() *table.Tables { return e.tables }

// ParseInit resets both the lexer and the parser driver to their
// initial state, abandoning any in-progress parse and its environment.
// Call before the first ParseData, or to discard a suspended parse and
// start over.
func (e *Executor) ParseInit() {
	e.lexer.Init()
	e.parser.Init()
	e.env = nil
	e.hasEnv = false
}

// HasData reports whether the lexer's residual buffer still holds
// unconsumed bytes.
func (e *Executor) HasData() bool { return e.lexer.HasData() }

// Data returns the lexer's residual, not-yet-consumed input bytes.
func (e *Executor) Data() []byte { return e.lexer.Data() }

// ParseData appends chunk to the input buffer and drives the parser
// until either the lexer suspends for more input (ParseData returns
// nil, with the Executor's session state checkpointed for the next
// ParseData call) or a top-level parse accepts and either
// hooks.OnAfterParse requests a break or no buffered bytes remain to
// start another one.
//
// On accept, if bytes remain buffered and OnAfterParse did not break,
// ParseData immediately starts a fresh top-level parse (a fresh
// environment, via NewEnv/OnBeforeParse) on the residual buffer within
// the same call — it does not return control to the caller first
// (original_source/src/executor.rs's parse_data outer loop).
func (e *Executor) ParseData(chunk []byte, hooks Hooks) error {
	e.lexer.SetOnTknData(hooks.OnTknData)
	e.lexer.SetData(chunk)

	for {
		if !e.hasEnv {
			var env any
			if hooks.NewEnv != nil {
				env = hooks.NewEnv()
			}
			e.env = env
			e.hasEnv = true
			e.parser.SetEnv(env)
			if hooks.OnBeforeParse != nil {
				hooks.OnBeforeParse(env)
			}
		}

		result, err := e.parser.Parse()
		if err != nil {
			return err
		}
		if result == parser.ParseWait {
			return nil
		}

		env := e.env
		e.env = nil
		e.hasEnv = false

		breakParse := false
		if hooks.OnAfterParse != nil {
			breakParse = hooks.OnAfterParse(env)
		}
		if breakParse || !e.lexer.HasData() {
			return nil
		}
	}
}
