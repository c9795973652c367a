// Package lrtoolkit is the executor façade: it wires the table
// builder (package table), the streaming DFA lexer (package lex), and
// the shift/reduce parser driver (package parser) into one resumable
// "feed bytes, receive events" session, compiled once from a pair of
// external-format texts and then reusable, read-only, across as many
// independent parses as the caller needs.
//
// Grounded in full on original_source/src/executor.rs's Executor.
package lrtoolkit

import (
	"errors"
	"fmt"

	"github.com/coregx/lrtoolkit/bootstrap"
	"github.com/coregx/lrtoolkit/dfa"
	"github.com/coregx/lrtoolkit/grammar"
	"github.com/coregx/lrtoolkit/lex"
	"github.com/coregx/lrtoolkit/parser"
	"github.com/coregx/lrtoolkit/regexast"
	"github.com/coregx/lrtoolkit/regexdef"
	"github.com/coregx/lrtoolkit/table"
)

// ErrNoLexRules is returned by Build when the regular-definition text
// expands to zero emitted rules (every record was a DEF macro, or the
// text was empty).
var ErrNoLexRules = errors.New("lrtoolkit: regular-definition text declares no token rules")

// ErrMissingActionCompiler is returned by Build when a rule or
// production carries an action body but no ActionCompiler was given to
// resolve it.
var ErrMissingActionCompiler = errors.New("lrtoolkit: action body present but no ActionCompiler was given")

// ErrUnknownTableKind is returned by Build for a table.Kind other than
// table.LALR1 or table.LR1.
var ErrUnknownTableKind = errors.New("lrtoolkit: unknown table.Kind")

// Build compiles regularDefinitionText (the regular-definition text
// format) into a streaming DFA and grammarText (the grammar text
// format) into LALR(1) or LR(1) ACTION/GOTO tables (per kind), and
// returns an Executor ready to drive both over an incoming byte stream.
//
// compiler resolves any `{...}` action body attached to a lexer rule or
// a grammar production into a live Go callback (see ActionCompiler); it
// may be nil if the regular-definition/grammar pair being built attaches
// no such bodies.
//
// Example:
//
//	exe, err := lrtoolkit.Build(regularDefs, grammarText, table.LALR1, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	exe.ParseInit()
//	err = exe.ParseData([]byte("1+2*3"), lrtoolkit.Hooks{
//		OnAfterParse: func(env any) bool { return true },
//	})
func Build(regularDefinitionText, grammarText string, kind table.Kind, compiler ActionCompiler) (*Executor, error) {
	dfaTable, err := buildLexTable(regularDefinitionText, compiler)
	if err != nil {
		return nil, fmt.Errorf("lrtoolkit: building lexer: %w", err)
	}

	g, err := grammar.ParseGrammarText(grammarText)
	if err != nil {
		return nil, fmt.Errorf("lrtoolkit: parsing grammar text: %w", err)
	}
	if err := bindHostActions(g, compiler); err != nil {
		return nil, err
	}

	var tabs *table.Tables
	switch kind {
	case table.LALR1:
		tabs, err = table.BuildLALR1(g)
	case table.LR1:
		tabs, err = table.BuildLR1(g)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownTableKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("lrtoolkit: building tables: %w", err)
	}

	lx := lex.NewStreamLex(dfaTable, nil)
	p := parser.New(lx, tabs)

	return &Executor{lexer: lx, parser: p, tables: tabs}, nil
}

// buildLexTable parses and macro-expands regularDefinitionText (package
// regexdef), compiles each surviving rule's expression into the bootstrap
// regex AST (package bootstrap, sharing one arena across every rule so
// dfa.Compile's follow-position pass sees one consistent id space), and
// folds the result into a single compiled dfa.Table.
func buildLexTable(text string, compiler ActionCompiler) (*dfa.Table, error) {
	raw, err := regexdef.Parse(text)
	if err != nil {
		return nil, err
	}
	rules, err := regexdef.ExpandMacros(raw)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, ErrNoLexRules
	}

	b := regexast.NewBuilder()
	dfaRules := make([]dfa.Rule, 0, len(rules))
	for _, r := range rules {
		root, err := bootstrap.ParseInto(b, r.Expr)
		if err != nil {
			return nil, fmt.Errorf("lrtoolkit: rule %q: %w", r.NameText, err)
		}

		var action dfa.Action
		if r.HasAction {
			if compiler == nil {
				return nil, fmt.Errorf("%w: rule %q", ErrMissingActionCompiler, r.NameText)
			}
			action, err = compiler.CompileLexAction(r.NameText, r.ActionBody)
			if err != nil {
				return nil, fmt.Errorf("lrtoolkit: compiling action for rule %q: %w", r.NameText, err)
			}
		}

		dfaRules = append(dfaRules, dfa.Rule{Root: root, Accept: r.Name, Action: action})
	}

	return dfa.Compile(b, dfaRules)
}

// bindHostActions resolves every production's grammar.AttrHostAction
// body (attached by grammar.ParseGrammarText from a `{...}` action in
// grammar text) into a parser.Action via compiler, storing it under
// grammar.AttrAction — the attribute key package parser actually
// consults at reduce time. Productions with no host action are left
// untouched; a structured `[set(...)]` action (grammar.AttrSetAction)
// never needs this step, since the driver executes it directly.
func bindHostActions(g *grammar.Grammar, compiler ActionCompiler) error {
	for _, p := range g.Productions {
		if p.Attrs == nil {
			continue
		}
		raw, ok := p.Attrs.Get(grammar.AttrHostAction)
		if !ok {
			continue
		}
		body, _ := raw.(string)
		if compiler == nil {
			return fmt.Errorf("%w: production with LHS %v", ErrMissingActionCompiler, p.LHS)
		}
		fn, err := compiler.CompileReduceAction(p.LHS, body)
		if err != nil {
			return fmt.Errorf("lrtoolkit: compiling host action for LHS %v: %w", p.LHS, err)
		}
		p.Attrs.Set(grammar.AttrAction, fn)
	}
	return nil
}
