// Package regexdef parses the external regular-definition text format:
// whitespace-separated records of the form
// `name regex [DEF] [{action-body}]`, one per line. It performs the
// macro-substitution pass ("DEF" rules are textually inlined wherever
// `{name}` appears in another rule's expression, iterated to a
// fixpoint) and hands back a flat, declaration-ordered rule list ready
// for the bootstrap regex parser to turn into regex ASTs.
package regexdef

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coregx/ahocorasick"
	"github.com/coregx/lrtoolkit/internal/hostre"
	"github.com/coregx/lrtoolkit/intern"
)

// ErrDuplicateRule is returned when the same rule name is defined twice.
var ErrDuplicateRule = errors.New("regexdef: rule already defined")

// ErrMissingExpression is returned when a record has a name but no
// regex expression.
var ErrMissingExpression = errors.New("regexdef: expression is not defined")

// ErrUnresolvedMacro is returned by ExpandMacros when a `{name}`
// reference survives the substitution fixpoint — the name matches no
// DEF rule — or when mutually recursive macros keep the fixpoint from
// converging.
var ErrUnresolvedMacro = errors.New("regexdef: macro expansion unresolved")

// Rule is one parsed (and, after ExpandMacros, fully macro-expanded)
// regular-definition record.
type Rule struct {
	NameText   string
	Name       intern.Name
	Expr       string
	Define     bool
	ActionBody string
	HasAction  bool
	Position   int
}

var (
	reName  = hostre.MustCompile(`((?:_|[A-Za-z])(?:_|[A-Za-z]|[0-9])*)|('[^\s]+')`)
	reWS    = hostre.MustCompile(`[ \t]+`)
	reExpr  = hostre.MustCompile(`[^ \t]+`)
	reDef   = hostre.MustCompile(`DEF`)
	reGap   = hostre.MustCompile(`[ \t]*`)
)

// Parse parses regular-definition text into a declaration-ordered,
// not-yet-macro-expanded rule list. Pass the result to ExpandMacros
// before handing rules to the bootstrap regex parser.
func Parse(text string) ([]Rule, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var rules []Rule
	seen := map[string]bool{}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n, rest, err := parseName(line)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRule, n)
		}
		seen[n] = true

		rest = trimLeadingGap(rest)
		elen, ok := reExpr.FindPrefix(rest)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingExpression, n)
		}
		expr := rest[:elen]
		rest = trimLeadingGap(rest[elen:])

		define := false
		if dl, ok := reDef.FindPrefix(rest); ok {
			define = true
			rest = trimLeadingGap(rest[dl:])
		}

		hasAction := false
		actionBody := ""
		if strings.HasPrefix(rest, "{") {
			body, ok := scanBracedAction(rest)
			if !ok {
				return nil, fmt.Errorf("regexdef: unterminated action for rule %q", n)
			}
			hasAction = true
			actionBody = body
		}

		rules = append(rules, Rule{
			NameText:   n,
			Name:       intern.Hash(n),
			Expr:       expr,
			Define:     define,
			ActionBody: actionBody,
			HasAction:  hasAction,
			Position:   len(rules),
		})
	}
	return rules, nil
}

// parseName consumes the name field (bare identifier or 'quoted
// literal') at the start of line and returns it (unquoted) plus the
// remainder of the line.
func parseName(line string) (name string, rest string, err error) {
	nlen, ok := reName.FindPrefix(line)
	if !ok {
		return "", "", fmt.Errorf("regexdef: no rule name found in %q", line)
	}
	raw := line[:nlen]
	if strings.HasPrefix(raw, "'") {
		name = raw[1 : len(raw)-1]
	} else {
		name = raw
	}
	return name, line[nlen:], nil
}

func trimLeadingGap(s string) string {
	glen, _ := reGap.FindPrefix(s)
	return s[glen:]
}

// scanBracedAction scans a balanced-brace action body starting at s[0]
// == '{', returning the body (brackets excluded) and whether the
// braces balanced before the line ended.
func scanBracedAction(s string) (string, bool) {
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[1:i], true
			}
		}
	}
	return "", false
}

// ExpandMacros substitutes every DEF rule's expression into any other
// rule's expression wherever `{name}` occurs, iterated to a fixpoint
// (a macro's own expression may itself reference another macro). The
// returned slice omits DEF rules and keeps declaration order (the
// insertion order of non-DEF rules in the input), matching the
// longest-match tie-break contract (rule declared first wins).
//
// Each round builds an Aho-Corasick automaton over the current macro
// names (as literal `{name}` tokens) and scans every rule's expression
// in one linear pass — a direct multi-pattern substring search, the
// textbook use case for Aho-Corasick, standing in for what the
// reference implementation did with a single-pattern regex findall
// re-run per substitution.
func ExpandMacros(rules []Rule) ([]Rule, error) {
	byName := make(map[string]Rule, len(rules))
	for _, r := range rules {
		byName[r.NameText] = r
	}

	for round := 0; ; round++ {
		if round >= maxExpandRounds {
			return nil, fmt.Errorf("%w: macro substitution did not converge", ErrUnresolvedMacro)
		}
		macroNames := make([]string, 0)
		for _, r := range rules {
			if r.Define {
				macroNames = append(macroNames, r.NameText)
			}
		}
		if len(macroNames) == 0 {
			break
		}

		builder := ahocorasick.NewBuilder()
		for _, m := range macroNames {
			builder.AddPattern([]byte("{" + m + "}"))
		}
		automaton, err := builder.Build()
		if err != nil {
			return nil, fmt.Errorf("regexdef: building macro automaton: %w", err)
		}

		changed := false
		for i := range rules {
			expanded, didChange := expandOnce(rules[i].Expr, automaton, byName)
			if didChange {
				rules[i].Expr = expanded
				byName[rules[i].NameText] = rules[i]
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Define {
			continue
		}
		if ref, ok := findMacroRef(r.Expr); ok {
			return nil, fmt.Errorf("%w: {%s} in rule %q", ErrUnresolvedMacro, ref, r.NameText)
		}
		r.Position = len(out)
		out = append(out, r)
	}
	return out, nil
}

// maxExpandRounds bounds the substitution fixpoint: each round inlines
// every macro reference once, so any sane definition chain converges in
// a handful of rounds; mutually recursive macros never do.
const maxExpandRounds = 100

// findMacroRef scans expr for a `{name}` macro reference. After the
// fixpoint, any that remains names no DEF rule.
func findMacroRef(expr string) (string, bool) {
	for i := 0; i < len(expr); i++ {
		if expr[i] != '{' {
			continue
		}
		j := i + 1
		for j < len(expr) && isNameByte(expr[j], j > i+1) {
			j++
		}
		if j > i+1 && j < len(expr) && expr[j] == '}' {
			return expr[i+1 : j], true
		}
	}
	return "", false
}

func isNameByte(b byte, notFirst bool) bool {
	if b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') {
		return true
	}
	return notFirst && b >= '0' && b <= '9'
}

func expandOnce(expr string, automaton *ahocorasick.Automaton, byName map[string]Rule) (string, bool) {
	b := []byte(expr)
	changed := false
	var out strings.Builder
	pos := 0
	for {
		m := automaton.Find(b, pos)
		if m == nil {
			out.WriteString(string(b[pos:]))
			break
		}
		name := string(b[m.Start+1 : m.End-1])
		macro, ok := byName[name]
		if !ok {
			out.WriteString(string(b[pos:m.End]))
			pos = m.End
			continue
		}
		out.WriteString(string(b[pos:m.Start]))
		out.WriteString(macro.Expr)
		pos = m.End
		changed = true
	}
	return out.String(), changed
}
