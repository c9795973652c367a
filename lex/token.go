// Package lex implements the non-streaming lexer (C9) and the
// streaming DFA lexer (C10). Both share the Token type and the small
// action capability interface (Ctx/Action) that lexer-rule actions run
// against.
package lex

import "github.com/coregx/lrtoolkit/intern"

// Token is a single lexed token: an interned rule name paired with the
// matched lexeme bytes.
type Token struct {
	Name  intern.Name
	Bytes []byte
}

// Ctx is the capability interface a rule's Action runs against. It
// deliberately exposes only the fixed operation set spec.md §4.8/§4.9
// names — get/set/set_name/set_name_from_hash/pass — rather than a
// general escape hatch, so actions stay expressible as plain Go
// closures bound at compile time instead of opaque strings interpreted
// at run time (see SPEC_FULL.md §9 Design Notes).
type Ctx interface {
	// Get returns the token's current value bytes.
	Get() []byte
	// Set overrides the token's value bytes.
	Set(value []byte)
	// SetName overrides the token's name, interning name first.
	SetName(name string)
	// SetNameFromHash overrides the token's name directly by id.
	SetNameFromHash(name intern.Name)
	// Pass discards this token (after the action has run) and
	// restarts scanning from the new position. Used for whitespace.
	Pass()
}

// Action is a lexer-rule action callback.
type Action func(ctx Ctx)

type ctxImpl struct {
	value       []byte
	name        intern.Name
	nameChanged bool
	pass        bool
}

func (c *ctxImpl) Get() []byte { return c.value }

func (c *ctxImpl) Set(value []byte) { c.value = value }

func (c *ctxImpl) SetName(name string) {
	c.name = intern.Hash(name)
	c.nameChanged = true
}

func (c *ctxImpl) SetNameFromHash(name intern.Name) {
	c.name = name
	c.nameChanged = true
}

func (c *ctxImpl) Pass() { c.pass = true }
