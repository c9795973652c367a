// Package parser implements the shift/reduce parser driver (C11): a
// suspendable loop over a table.Tables-built ACTION/GOTO pair and a
// token source, with an in-band "push expected token after N" side
// channel (the Next/expect queue) and two kinds of reduction action —
// a driver-internal structured "set" and a host callback exposing a
// fixed reduction capability set.
//
// Grounded in full on original_source/src/parser.rs (Parser::parse).
package parser

import (
	"errors"
	"fmt"

	"github.com/coregx/lrtoolkit/grammar"
	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/lex"
	"github.com/coregx/lrtoolkit/table"
)

// ErrParse is a fatal run-time parse error: no ACTION entry for either
// the current symbol or epsilon (the input is not in the grammar's
// language), or a GOTO entry missing after a reduce (a malformed
// table).
var ErrParse = errors.New("parser: parse error")

// ErrTooManyNextParams is returned by ReduceCtx.PushAfter when more
// than one of {InsertValue, Size, StopCode} is set — a programmer
// error in the grammar's own actions, always fatal.
var ErrTooManyNextParams = errors.New("parser: push_after: at most one of InsertValue/Size/StopCode may be set")

// Result is the outcome of one Parse call.
type Result uint8

const (
	// ParseWait means the lexer needs more input; driver state has
	// been checkpointed and Parse should be called again once more
	// bytes are available to the Lexer.
	ParseWait Result = iota
	// ParseSuccess means the augmented start production was accepted;
	// driver state has been reset and the Parser is ready to reuse.
	ParseSuccess
)

// Lexer is the token source a Parser drives. Both lex.Lex (C9) and
// lex.StreamLex (C10) satisfy it; StreamLex additionally supports
// framed reads via SetReadSize.
type Lexer interface {
	// GetToken returns the next token, or an error on scanner failure
	// (no rule matches — lex.ErrNoMatch — which aborts the parse). A
	// (nil, nil) return means true end of input and is only ever
	// produced by resident-text lexers; a streaming lexer has no such
	// condition and reports "need more input" by returning a token
	// named intern.Wait instead.
	GetToken() (*lex.Token, error)
}

// SizedLexer is implemented by lexers that support the framed
// size-mode read Next.Size triggers (lex.StreamLex). A Lexer that does
// not implement it simply cannot be driven by a grammar using
// push_after's size parameter.
type SizedLexer interface {
	SetReadSize(name intern.Name, size int)
}

// Action is a production's host-callback reduction action, attached to
// a Production's Attrs bag under grammar.AttrAction.
type Action func(ctx ReduceCtx)

// NextParams carries the optional fields of a push_after call besides
// its name. At most one of InsertValue, Size (HasSize), and StopCode
// (HasStopCode) may be set.
type NextParams struct {
	InsertName  string
	HasInsert   bool
	InsertValue []byte
	Size        int
	HasSize     bool
	StopCode    byte
	HasStopCode bool
}

// ReduceCtx is the capability interface a reduction's host Action runs
// against: bind an AST id to the reduced symbol, read
// another stack item's bind id or value, read the lookahead's value,
// copy a stack item's value onto the reduced symbol (or override it
// outright), rename the reduced symbol, and enqueue a Next.
type ReduceCtx interface {
	// Bind records an AST binding id for the symbol being reduced.
	Bind(id int)
	// ID returns the bind id of the stack item `index` positions below
	// the top (0 = the item immediately below the popped RHS's first
	// symbol is NOT what this indexes — index counts from the current
	// top of stack before any popping, mirroring the reference's
	// `id(k)`/`get(k)` stack-relative addressing).
	ID(index int) (id int, ok bool)
	// Lookup returns the current lookahead token's value bytes.
	Lookup() []byte
	// Get returns the value bytes of the stack item `index` positions
	// from the top.
	Get(index int) []byte
	// Set copies the stack item `index` positions from the top's value
	// onto the symbol being reduced.
	Set(index int)
	// SetVal overrides the reduced symbol's value outright.
	SetVal(value []byte)
	// SetName overrides the reduced symbol's name (interning it).
	SetName(name string)
	// SetNameFromHash overrides the reduced symbol's name directly.
	SetNameFromHash(name intern.Name)
	// PushAfter enqueues a Next: an in-band terminal to synthesize (or
	// framed read to trigger) once `name`'s trigger condition fires.
	PushAfter(name string, params NextParams) error
	// Env returns the Parser's attached per-parse environment (see
	// Parser.SetEnv), or nil if none was set.
	Env() any
	// Fail aborts the current Parse call with err, the same way an
	// invalid PushAfter call does. For an action-level invariant
	// violation (e.g. a malformed bounded-repetition count) that has no
	// natural ACTION-table representation.
	Fail(err error)
}

// next is one queued Next/expect record.
type next struct {
	name          intern.Name
	insertName    intern.Name
	hasInsertName bool
	insertValue   []byte
	size          int
	hasSize       bool
	stopCode      byte
	hasStopCode   bool
	lastName      intern.Name
	hasLastName   bool
}

// stackItem is one parse-stack entry.
type stackItem struct {
	state   table.StateID
	bindID  int
	hasBind bool
	symbol  *grammar.Symbol
}

// Parser is the suspendable shift/reduce driver. The zero value is not
// usable; construct with New.
type Parser struct {
	lex    Lexer
	tables *table.Tables
	stack  []stackItem
	nexts  []next
	env    any
}

// New returns a Parser driving tables over lex, ready to Init.
func New(lex Lexer, tables *table.Tables) *Parser {
	p := &Parser{lex: lex, tables: tables}
	p.Init()
	return p
}

// SetEnv attaches an arbitrary per-parse environment, retrievable by a
// host Action via ReduceCtx.Env. Grammars whose Attrs are built once as
// Go literals and shared across many Parser instances (see package
// bootstrap) use this to give their actions somewhere to accumulate
// build state without capturing call-specific data in the shared
// closures themselves.
func (p *Parser) SetEnv(env any) { p.env = env }

// Init resets the driver to its initial state: empty stack, no pending
// Next records, lookahead not yet fetched. Call after a ParseSuccess
// (automatic) or to abandon an in-progress parse. Env is left untouched.
func (p *Parser) Init() {
	p.stack = p.stack[:0]
	p.nexts = p.nexts[:0]
}

// Parse runs the shift/reduce loop until the augmented start production
// is accepted (ParseSuccess, after which the driver is reset and ready
// for reuse) or the lexer reports it needs more input (ParseWait, after
// which driver state is checkpointed — call Parse again once the
// caller has fed the Lexer more bytes).
func (p *Parser) Parse() (Result, error) {
	curSymbol, err := p.getSymbol()
	if err != nil {
		return 0, err
	}
	if curSymbol.Name == intern.Wait {
		return ParseWait, nil
	}
	isEpsilon := curSymbol.Name == intern.Epsilon

	if len(p.stack) == 0 {
		p.stack = append(p.stack, stackItem{state: 0})
	}

	for {
		top := p.stack[len(p.stack)-1]
		act, ok := p.tables.Action(top.state, curSymbol.Name)
		if !ok {
			isEpsilon = true
			act, ok = p.tables.Action(top.state, intern.Epsilon)
		}
		if !ok {
			return 0, fmt.Errorf("%w: no action for state %d on %v", ErrParse, top.state, curSymbol.Name)
		}

		switch act.Kind {
		case table.ActionShift:
			sym := curSymbol
			if isEpsilon {
				sym = grammar.EpsilonSymbol()
			}
			p.stack = append(p.stack, stackItem{state: act.Goto, symbol: &sym})
			if !isEpsilon {
				curSymbol, err = p.getSymbol()
				if err != nil {
					return 0, err
				}
				if curSymbol.Name == intern.Wait {
					return ParseWait, nil
				}
			}
			isEpsilon = false

		case table.ActionReduce:
			newState, err := p.reduce(act.Production, &curSymbol)
			if err != nil {
				return 0, err
			}
			p.stack = append(p.stack, newState)

		case table.ActionAccept:
			p.Init()
			return ParseSuccess, nil
		}
	}
}

// reduce runs production prodIdx's semantic action (if any), pops its
// RHS from the stack, and pushes the reduced nonterminal's new stack
// item after consulting the GOTO table.
func (p *Parser) reduce(prodIdx int, lookahead *grammar.Symbol) (stackItem, error) {
	prod := p.tables.Grammar.Productions[prodIdx]
	newSymbol := grammar.NonTermName(prod.LHS)

	var bindID int
	var hasBind bool

	if prod.Attrs != nil {
		if raw, ok := prod.Attrs.Get(grammar.AttrSetAction); ok {
			indices, _ := raw.([]int)
			applySetAction(p.stack, indices, &newSymbol)
		} else if raw, ok := prod.Attrs.Get(grammar.AttrAction); ok {
			fn, _ := raw.(Action)
			if fn != nil {
				ctx := &reduceCtx{p: p, newSymbol: &newSymbol, lookahead: lookahead}
				fn(ctx)
				if ctx.err != nil {
					return stackItem{}, ctx.err
				}
				bindID, hasBind = ctx.bindID, ctx.hasBind
				p.nexts = append(p.nexts, ctx.queued...)
			}
		}
	}

	p.stack = p.stack[:len(p.stack)-len(prod.RHS)]

	if len(p.stack) == 0 {
		return stackItem{}, fmt.Errorf("%w: stack underflow reducing production %d", ErrParse, prodIdx)
	}
	top := p.stack[len(p.stack)-1]
	newState, ok := p.tables.Goto(top.state, newSymbol.Name)
	if !ok {
		return stackItem{}, fmt.Errorf("%w: no goto for state %d on %v", ErrParse, top.state, newSymbol.Name)
	}

	return stackItem{state: newState, bindID: bindID, hasBind: hasBind, symbol: &newSymbol}, nil
}

// applySetAction implements the structured "set(i1,...,i5)" reduction
// action entirely inside the driver: the first index's stack item's
// value replaces the reduced symbol's value, and every following
// index's value is appended in order.
func applySetAction(stack []stackItem, indices []int, newSymbol *grammar.Symbol) {
	for n, idx := range indices {
		si := len(stack) - 1 - idx
		var v []byte
		if si >= 0 && si < len(stack) && stack[si].symbol != nil {
			v = stack[si].symbol.Value
		}
		if n == 0 {
			newSymbol.Value = append([]byte(nil), v...)
		} else {
			newSymbol.Value = append(newSymbol.Value, v...)
		}
	}
}

// getSymbol implements the Next/expect mechanism: if
// the head of the nexts queue is due to fire (its target name is
// epsilon, meaning "fire unconditionally", or the last real token
// fetched had that name), it is popped and either switches the lexer
// into framed-size mode (falling through to a real GetToken call) or
// synthesizes an in-band terminal directly. Otherwise a token is read
// from the lexer as normal, and the queue head (if any) records it as
// the "last name" it will next compare against.
func (p *Parser) getSymbol() (grammar.Symbol, error) {
	var synthesized *grammar.Symbol

	if len(p.nexts) > 0 {
		n := p.nexts[0]
		fires := n.name == intern.Epsilon || (n.hasLastName && n.lastName == n.name)
		if fires {
			if n.hasSize {
				sl, ok := p.lex.(SizedLexer)
				if !ok {
					return grammar.Symbol{}, fmt.Errorf("%w: lexer does not support framed size reads", ErrParse)
				}
				sl.SetReadSize(n.insertName, n.size)
			} else {
				var sym grammar.Symbol
				if n.hasInsertName {
					sym = grammar.Symbol{Name: n.insertName, Value: n.insertValue, Kind: grammar.Terminal}
				} else {
					sym = grammar.EndOfInputSymbol()
				}
				synthesized = &sym
			}
			p.nexts = p.nexts[1:]
		}
	}

	if synthesized != nil {
		return *synthesized, nil
	}

	tok, err := p.lex.GetToken()
	if err != nil {
		return grammar.Symbol{}, err
	}
	if tok == nil {
		return grammar.EndOfInputSymbol(), nil
	}
	sym := grammar.Symbol{Name: tok.Name, Value: tok.Bytes, Kind: grammar.Terminal}
	if len(p.nexts) > 0 {
		p.nexts[0].lastName = sym.Name
		p.nexts[0].hasLastName = true
	}
	return sym, nil
}

// reduceCtx is the concrete ReduceCtx a host Action runs against
// during one reduce call.
type reduceCtx struct {
	p         *Parser
	newSymbol *grammar.Symbol
	lookahead *grammar.Symbol
	bindID    int
	hasBind   bool
	queued    []next
	err       error
}

func (c *reduceCtx) stackAt(index int) (stackItem, bool) {
	idx := len(c.p.stack) - 1 - index
	if idx < 0 || idx >= len(c.p.stack) {
		return stackItem{}, false
	}
	return c.p.stack[idx], true
}

func (c *reduceCtx) Bind(id int) { c.bindID = id; c.hasBind = true }

func (c *reduceCtx) ID(index int) (int, bool) {
	item, ok := c.stackAt(index)
	if !ok || !item.hasBind {
		return 0, false
	}
	return item.bindID, true
}

func (c *reduceCtx) Lookup() []byte {
	if c.lookahead == nil {
		return nil
	}
	return c.lookahead.Value
}

func (c *reduceCtx) Get(index int) []byte {
	item, ok := c.stackAt(index)
	if !ok || item.symbol == nil {
		return nil
	}
	return item.symbol.Value
}

func (c *reduceCtx) Set(index int) {
	item, ok := c.stackAt(index)
	if !ok || item.symbol == nil {
		c.newSymbol.Value = nil
		return
	}
	c.newSymbol.Value = item.symbol.Value
}

func (c *reduceCtx) SetVal(value []byte) { c.newSymbol.Value = value }

func (c *reduceCtx) SetName(name string) { c.newSymbol.Name = intern.Hash(name) }

func (c *reduceCtx) SetNameFromHash(name intern.Name) { c.newSymbol.Name = name }

func (c *reduceCtx) Env() any { return c.p.env }

func (c *reduceCtx) Fail(err error) { c.err = err }

func (c *reduceCtx) PushAfter(name string, params NextParams) error {
	count := 0
	if params.InsertValue != nil {
		count++
	}
	if params.HasSize {
		count++
	}
	if params.HasStopCode {
		count++
	}
	if count > 1 {
		c.err = ErrTooManyNextParams
		return c.err
	}

	n := next{name: intern.Hash(name), insertValue: params.InsertValue, size: params.Size, hasSize: params.HasSize,
		stopCode: params.StopCode, hasStopCode: params.HasStopCode}
	if params.HasInsert {
		n.insertName = intern.Hash(params.InsertName)
		n.hasInsertName = true
	}
	c.queued = append(c.queued, n)
	return nil
}
