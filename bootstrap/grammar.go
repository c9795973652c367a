package bootstrap

import (
	"sync"

	"github.com/coregx/lrtoolkit/attrs"
	"github.com/coregx/lrtoolkit/grammar"
	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/parser"
	"github.com/coregx/lrtoolkit/table"
)

// Grammar productions, built directly as Go literals rather than
// parsed from the grammar-text format, since the bootstrap grammar is
// the thing that implements the grammar-text format's own regex
// sublanguage — parsing it from text would be circular:
//
//	pattern          -> disjunction
//	disjunction      -> alternative | disjunction '|' alternative
//	alternative      -> term | alternative term
//	term             -> atom
//	                   | atom '*'
//	                   | atom '+'
//	                   | atom '?'
//	                   | atom '{' digits '}'
//	                   | atom '{' digits ',' '}'
//	                   | atom '{' digits ',' digits '}'
//	digits           -> <single 0-9 'code' token>
//	atom             -> 'code' | 'codes' | '(' disjunction ')' | character_class
//	character_class  -> '[' class_ranges ']' | '[' '^' class_ranges ']'
//	class_ranges     -> class_range_item | class_ranges class_range_item
//	class_range_item -> class_atom | class_atom '-' class_atom
//	class_atom       -> 'code' | 'codes'
//
// Grounded on original_source/src/dfa_grammar.rs's reg_exp() grammar
// text and ExecContext actions (to_codes/to_digit/v1/v2/v3/
// build_tree_to_duplicates*/build_tree_to_range/build_tree_to_codes).
// digits is restricted to a single 0-9 'code' token (a two-or-more
// digit bound like {12} is out of scope — the reference's own grammar
// never defines a multi-digit digits production either; its `{`..`}`
// rule only ever binds a single digit token).

var (
	nPattern         = intern.Hash("pattern")
	nDisjunction     = intern.Hash("disjunction")
	nAlternative     = intern.Hash("alternative")
	nTerm            = intern.Hash("term")
	nDigits          = intern.Hash("digits")
	nAtom            = intern.Hash("atom")
	nCharacterClass  = intern.Hash("character_class")
	nClassRanges     = intern.Hash("class_ranges")
	nClassRangeItem  = intern.Hash("class_range_item")
	nClassAtom       = intern.Hash("class_atom")
	tCode            = intern.Hash("code")
	tCodes           = intern.Hash("codes")
	tStar            = intern.Hash("*")
	tPlus            = intern.Hash("+")
	tQuestion        = intern.Hash("?")
	tPipe            = intern.Hash("|")
	tLParen          = intern.Hash("(")
	tRParen          = intern.Hash(")")
	tLBrace          = intern.Hash("{")
	tRBrace          = intern.Hash("}")
	tComma           = intern.Hash(",")
	tLBracket        = intern.Hash("[")
	tRBracket        = intern.Hash("]")
	tCaret           = intern.Hash("^")
	tDash            = intern.Hash("-")
)

func t(name intern.Name) grammar.Symbol  { return grammar.TermName(name) }
func nt(name intern.Name) grammar.Symbol { return grammar.NonTermName(name) }

func withAction(fn parser.Action) *attrs.Bag {
	b := attrs.New()
	b.Set(grammar.AttrAction, parser.Action(fn))
	return b
}

var (
	grammarOnce sync.Once
	grammarVal  *grammar.Grammar
	tablesOnce  sync.Once
	tablesVal   *table.Tables
	tablesErr   error
)

// Grammar returns the bootstrap regex grammar, built once and
// memoized.
func Grammar() *grammar.Grammar {
	grammarOnce.Do(func() {
		grammarVal = grammar.New([]*grammar.Production{
			grammar.Augment(nt(nPattern)),

			// pattern -> disjunction
			grammar.NewProduction(nPattern, []grammar.Symbol{nt(nDisjunction)}, withAction(actPassThrough)),

			// disjunction -> alternative
			grammar.NewProduction(nDisjunction, []grammar.Symbol{nt(nAlternative)}, withAction(actPassThrough)),
			// disjunction -> disjunction '|' alternative
			grammar.NewProduction(nDisjunction, []grammar.Symbol{nt(nDisjunction), t(tPipe), nt(nAlternative)}, withAction(actAlt)),

			// alternative -> term
			grammar.NewProduction(nAlternative, []grammar.Symbol{nt(nTerm)}, withAction(actPassThrough)),
			// alternative -> alternative term
			grammar.NewProduction(nAlternative, []grammar.Symbol{nt(nAlternative), nt(nTerm)}, withAction(actConcat)),

			// term -> atom
			grammar.NewProduction(nTerm, []grammar.Symbol{nt(nAtom)}, withAction(actPassThrough)),
			// term -> atom '*'
			grammar.NewProduction(nTerm, []grammar.Symbol{nt(nAtom), t(tStar)}, withAction(actStar)),
			// term -> atom '+'
			grammar.NewProduction(nTerm, []grammar.Symbol{nt(nAtom), t(tPlus)}, withAction(actPlus)),
			// term -> atom '?'
			grammar.NewProduction(nTerm, []grammar.Symbol{nt(nAtom), t(tQuestion)}, withAction(actQuestion)),
			// term -> atom '{' digits '}'
			grammar.NewProduction(nTerm, []grammar.Symbol{nt(nAtom), t(tLBrace), nt(nDigits), t(tRBrace)}, withAction(actExactly)),
			// term -> atom '{' digits ',' '}'
			grammar.NewProduction(nTerm, []grammar.Symbol{nt(nAtom), t(tLBrace), nt(nDigits), t(tComma), t(tRBrace)}, withAction(actAtLeast)),
			// term -> atom '{' digits ',' digits '}'
			grammar.NewProduction(nTerm, []grammar.Symbol{nt(nAtom), t(tLBrace), nt(nDigits), t(tComma), nt(nDigits), t(tRBrace)}, withAction(actBetween)),

			// digits -> 'code' (restricted to a single 0-9 byte)
			grammar.NewProduction(nDigits, []grammar.Symbol{t(tCode)}, withAction(actDigit)),

			// atom -> 'code'
			grammar.NewProduction(nAtom, []grammar.Symbol{t(tCode)}, withAction(actAtomCode)),
			// atom -> 'codes'
			grammar.NewProduction(nAtom, []grammar.Symbol{t(tCodes)}, withAction(actAtomCodes)),
			// atom -> '(' disjunction ')'
			grammar.NewProduction(nAtom, []grammar.Symbol{t(tLParen), nt(nDisjunction), t(tRParen)}, withAction(actGroup)),
			// atom -> character_class
			grammar.NewProduction(nAtom, []grammar.Symbol{nt(nCharacterClass)}, withAction(actPassThrough)),

			// character_class -> '[' class_ranges ']'
			grammar.NewProduction(nCharacterClass, []grammar.Symbol{t(tLBracket), nt(nClassRanges), t(tRBracket)}, withAction(actClass)),
			// character_class -> '[' '^' class_ranges ']'
			grammar.NewProduction(nCharacterClass, []grammar.Symbol{t(tLBracket), t(tCaret), nt(nClassRanges), t(tRBracket)}, withAction(actClassNegated)),

			// class_ranges -> class_range_item
			grammar.NewProduction(nClassRanges, []grammar.Symbol{nt(nClassRangeItem)}, withAction(actRangesInit)),
			// class_ranges -> class_ranges class_range_item
			grammar.NewProduction(nClassRanges, []grammar.Symbol{nt(nClassRanges), nt(nClassRangeItem)}, withAction(actRangesAppend)),

			// class_range_item -> class_atom
			grammar.NewProduction(nClassRangeItem, []grammar.Symbol{nt(nClassAtom)}, withAction(actRangeSingle)),
			// class_range_item -> class_atom '-' class_atom
			grammar.NewProduction(nClassRangeItem, []grammar.Symbol{nt(nClassAtom), t(tDash), nt(nClassAtom)}, withAction(actRangeSpan)),

			// class_atom -> 'code'
			grammar.NewProduction(nClassAtom, []grammar.Symbol{t(tCode)}, withAction(actClassAtomCode)),
			// class_atom -> 'codes'
			grammar.NewProduction(nClassAtom, []grammar.Symbol{t(tCodes)}, withAction(actClassAtomCodes)),
		})
	})
	return grammarVal
}

// Tables returns the bootstrap grammar's LALR(1) ACTION/GOTO tables,
// built once and memoized.
func Tables() (*table.Tables, error) {
	tablesOnce.Do(func() {
		tablesVal, tablesErr = table.BuildLALR1(Grammar())
	})
	return tablesVal, tablesErr
}
