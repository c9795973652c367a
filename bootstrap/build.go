package bootstrap

import (
	"fmt"

	"github.com/coregx/lrtoolkit/attrs"
	"github.com/coregx/lrtoolkit/parser"
	"github.com/coregx/lrtoolkit/regexast"
)

// buildEnv is the per-Parse call environment threaded through the
// bootstrap grammar's shared, memoized Action closures via
// parser.Parser.SetEnv/parser.ReduceCtx.Env — since Grammar() builds
// its productions (and their attached actions) exactly once and reuses
// them for every call to Parse, nothing call-specific can be captured
// by the closures themselves.
//
// ReduceCtx only ever carries an int "bind id" between a reduction and
// its later uses (ReduceCtx.Bind/ID), so buildEnv keeps the actual
// values — regexast.ItemID, a decoded digit, or an in-progress
// character-class range list — in a side table keyed by that id.
type buildEnv struct {
	b        *regexast.Builder
	nextID   int
	values   map[int]any
	lastItem regexast.ItemID
}

func newBuildEnv(b *regexast.Builder) *buildEnv {
	return &buildEnv{b: b, values: make(map[int]any), lastItem: regexast.InvalidItem}
}

func env(ctx parser.ReduceCtx) *buildEnv {
	e, _ := ctx.Env().(*buildEnv)
	return e
}

func (e *buildEnv) bindItem(ctx parser.ReduceCtx, id regexast.ItemID) {
	bid := e.nextID
	e.nextID++
	e.values[bid] = id
	e.lastItem = id
	ctx.Bind(bid)
}

func (e *buildEnv) itemAt(ctx parser.ReduceCtx, index int) (regexast.ItemID, bool) {
	id, ok := e.valueAt(ctx, index)
	if !ok {
		return regexast.InvalidItem, false
	}
	item, ok := id.(regexast.ItemID)
	return item, ok
}

func (e *buildEnv) bindDigit(ctx parser.ReduceCtx, n int) {
	bid := e.nextID
	e.nextID++
	e.values[bid] = n
	ctx.Bind(bid)
}

func (e *buildEnv) digitAt(ctx parser.ReduceCtx, index int) (int, bool) {
	v, ok := e.valueAt(ctx, index)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

func (e *buildEnv) bindRanges(ctx parser.ReduceCtx, r rangesVal) {
	bid := e.nextID
	e.nextID++
	e.values[bid] = r
	ctx.Bind(bid)
}

func (e *buildEnv) rangesAt(ctx parser.ReduceCtx, index int) (rangesVal, bool) {
	v, ok := e.valueAt(ctx, index)
	if !ok {
		return rangesVal{}, false
	}
	r, ok := v.(rangesVal)
	return r, ok
}

func (e *buildEnv) bindClassAtom(ctx parser.ReduceCtx, v classAtomVal) {
	bid := e.nextID
	e.nextID++
	e.values[bid] = v
	ctx.Bind(bid)
}

func (e *buildEnv) classAtomAt(ctx parser.ReduceCtx, index int) (classAtomVal, bool) {
	v, ok := e.valueAt(ctx, index)
	if !ok {
		return classAtomVal{}, false
	}
	c, ok := v.(classAtomVal)
	return c, ok
}

func (e *buildEnv) valueAt(ctx parser.ReduceCtx, index int) (any, bool) {
	bid, ok := ctx.ID(index)
	if !ok {
		return nil, false
	}
	v, ok := e.values[bid]
	return v, ok
}

// byteRange is an inclusive [lo, hi] byte range contributed by one
// class_range_item.
type byteRange struct{ lo, hi byte }

// rangesVal accumulates a character class's members: byte ranges
// (from `code` atoms and `code`-`code` spans) and literal multi-byte
// subtrees (from `codes` atoms, which cannot participate in a '-'
// span or in negation — see actClassNegated).
type rangesVal struct {
	spans    []byteRange
	literals []regexast.ItemID
}

// classAtomVal is one class_atom's decoded value: either a single byte
// (from a `code` token) or an already-built literal subtree (from a
// `codes` token, a multi-byte UTF-8 sequence).
type classAtomVal struct {
	isByte bool
	b      byte
	item   regexast.ItemID
}

// cloneSubtree deep-copies the subtree rooted at id into b's arena,
// assigning every copied node a fresh ItemID. Required whenever a
// quantifier needs more than one occurrence of the same atom: each
// ItemID must appear exactly once in the final tree, since follow-
// position computation (package dfa) is keyed by item identity.
func cloneSubtree(b *regexast.Builder, id regexast.ItemID) regexast.ItemID {
	it, ok := b.ByID(id)
	if !ok {
		return regexast.InvalidItem
	}
	var bag *attrs.Bag
	if it.Attrs != nil {
		bag = it.Attrs.Clone()
	}
	if it.IsLeaf() {
		return b.AddLeaf(it.Kind, append([]byte(nil), it.Value...), bag)
	}
	left := cloneSubtree(b, it.Left)
	right := regexast.InvalidItem
	if it.Kind != regexast.KindStar {
		right = cloneSubtree(b, it.Right)
	}
	return b.AddNode(it.Kind, left, right, bag)
}

// epsilonLeaf returns a fresh always-matching leaf (a KindCode leaf
// with an empty Value — see regexast.Item.Nullable), used for `a?` and
// for the optional tail copies of a bounded `{n,m}` repetition.
func epsilonLeaf(b *regexast.Builder) regexast.ItemID {
	return b.AddLeaf(regexast.KindCode, nil, nil)
}

// v1 returns `count` freshly cloned copies of atom concatenated
// together; every copy (including the first) is a clone, leaving the
// original atom node free for the caller to use elsewhere (see v2).
// count must be >= 1. Ported from dfa_grammar.rs's ExecContext::v1.
func v1(b *regexast.Builder, atom regexast.ItemID, count int) regexast.ItemID {
	node := cloneSubtree(b, atom)
	for i := 1; i < count; i++ {
		next := cloneSubtree(b, atom)
		node = b.AddNode(regexast.KindConcat, node, next, nil)
	}
	return node
}

// v2 builds `atom{min,}`: a minimum of `min` copies (via v1) followed
// by `atom*` — or just `atom*` if min is 0. Ported from
// dfa_grammar.rs's ExecContext::v2.
func v2(b *regexast.Builder, atom regexast.ItemID, min int) regexast.ItemID {
	starAtom := cloneSubtree(b, atom)
	star := b.AddNode(regexast.KindStar, starAtom, regexast.InvalidItem, nil)
	if min <= 0 {
		return star
	}
	prefix := v1(b, atom, min)
	return b.AddNode(regexast.KindConcat, prefix, star, nil)
}

// v3 builds `atom{min,max}`: `min` required copies (or a single
// epsilon leaf if min is 0) followed by (max-min) optional copies,
// each expressed as `(atom|epsilon)` so the whole repetition stays a
// fixed-shape AST rather than a variable-depth one. Ported from
// dfa_grammar.rs's ExecContext::v3.
func v3(b *regexast.Builder, atom regexast.ItemID, min, max int) regexast.ItemID {
	var node regexast.ItemID
	if min > 0 {
		node = v1(b, atom, min)
	} else {
		node = epsilonLeaf(b)
	}
	for i := 0; i < max-min; i++ {
		clone := cloneSubtree(b, atom)
		opt := b.AddNode(regexast.KindAlt, clone, epsilonLeaf(b), nil)
		node = b.AddNode(regexast.KindConcat, node, opt, nil)
	}
	return node
}

// buildAlt folds items into a single left-associated KindAlt chain.
// Panics if items is empty — every call site guarantees at least one
// member (a class always has at least one class_range_item).
func buildAlt(b *regexast.Builder, items []regexast.ItemID) regexast.ItemID {
	node := items[0]
	for _, it := range items[1:] {
		node = b.AddNode(regexast.KindAlt, node, it, nil)
	}
	return node
}

// ----- reduction actions -----

func actPassThrough(ctx parser.ReduceCtx) {
	id, ok := ctx.ID(0)
	if !ok {
		return
	}
	ctx.Bind(id)
}

func actAlt(ctx parser.ReduceCtx) {
	e := env(ctx)
	left, _ := e.itemAt(ctx, 2)
	right, _ := e.itemAt(ctx, 0)
	e.bindItem(ctx, e.b.AddNode(regexast.KindAlt, left, right, nil))
}

func actConcat(ctx parser.ReduceCtx) {
	e := env(ctx)
	left, _ := e.itemAt(ctx, 1)
	right, _ := e.itemAt(ctx, 0)
	e.bindItem(ctx, e.b.AddNode(regexast.KindConcat, left, right, nil))
}

func actStar(ctx parser.ReduceCtx) {
	e := env(ctx)
	atom, _ := e.itemAt(ctx, 1)
	e.bindItem(ctx, e.b.AddNode(regexast.KindStar, atom, regexast.InvalidItem, nil))
}

// actPlus builds `a+` as `a . a*` ("a+ == aa*"), rather than
// dfa_grammar.rs's own `{n,}`-shaped call for `+` — that DSL text is
// ambiguous about whether the first copy is the original atom or a
// clone, so this spells out the concat directly instead.
func actPlus(ctx parser.ReduceCtx) {
	e := env(ctx)
	atom, _ := e.itemAt(ctx, 1)
	tail := cloneSubtree(e.b, atom)
	star := e.b.AddNode(regexast.KindStar, tail, regexast.InvalidItem, nil)
	e.bindItem(ctx, e.b.AddNode(regexast.KindConcat, atom, star, nil))
}

func actQuestion(ctx parser.ReduceCtx) {
	e := env(ctx)
	atom, _ := e.itemAt(ctx, 1)
	e.bindItem(ctx, e.b.AddNode(regexast.KindAlt, atom, epsilonLeaf(e.b), nil))
}

func actExactly(ctx parser.ReduceCtx) {
	e := env(ctx)
	atom, _ := e.itemAt(ctx, 3)
	n, _ := e.digitAt(ctx, 1)
	if n < 1 {
		ctx.Fail(fmt.Errorf("bootstrap: {%d} must be at least 1", n))
		return
	}
	e.bindItem(ctx, v1(e.b, atom, n))
}

func actAtLeast(ctx parser.ReduceCtx) {
	e := env(ctx)
	atom, _ := e.itemAt(ctx, 4)
	n, _ := e.digitAt(ctx, 2)
	e.bindItem(ctx, v2(e.b, atom, n))
}

func actBetween(ctx parser.ReduceCtx) {
	e := env(ctx)
	atom, _ := e.itemAt(ctx, 5)
	min, _ := e.digitAt(ctx, 3)
	max, _ := e.digitAt(ctx, 1)
	if max < min {
		ctx.Fail(fmt.Errorf("bootstrap: {%d,%d} has max < min", min, max))
		return
	}
	e.bindItem(ctx, v3(e.b, atom, min, max))
}

// actDigit restricts digits to a single 0-9 byte — a multi-digit bound
// like {12} is out of scope here, matching dfa_grammar.rs's own `{`
// rule, which likewise only ever binds one digit token.
func actDigit(ctx parser.ReduceCtx) {
	e := env(ctx)
	v := ctx.Get(0)
	if len(v) != 1 || v[0] < '0' || v[0] > '9' {
		ctx.Fail(fmt.Errorf("bootstrap: expected a single 0-9 digit, got %q", v))
		return
	}
	e.bindDigit(ctx, int(v[0]-'0'))
}

func actAtomCode(ctx parser.ReduceCtx) {
	e := env(ctx)
	v := ctx.Get(0)
	var val byte
	if len(v) > 0 {
		val = v[0]
	}
	e.bindItem(ctx, e.b.AddLeaf(regexast.KindCode, []byte{val}, nil))
}

func actAtomCodes(ctx parser.ReduceCtx) {
	e := env(ctx)
	e.bindItem(ctx, e.b.BuildCodes(ctx.Get(0)))
}

func actGroup(ctx parser.ReduceCtx) {
	e := env(ctx)
	id, _ := e.itemAt(ctx, 1)
	e.bindItem(ctx, id)
}

func actClassAtomCode(ctx parser.ReduceCtx) {
	e := env(ctx)
	v := ctx.Get(0)
	var b byte
	if len(v) > 0 {
		b = v[0]
	}
	e.bindClassAtom(ctx, classAtomVal{isByte: true, b: b})
}

func actClassAtomCodes(ctx parser.ReduceCtx) {
	e := env(ctx)
	v := ctx.Get(0)
	e.bindClassAtom(ctx, classAtomVal{item: e.b.BuildCodes(v)})
}

func actRangeSingle(ctx parser.ReduceCtx) {
	e := env(ctx)
	a, _ := e.classAtomAt(ctx, 0)
	if a.isByte {
		e.bindRanges(ctx, rangesVal{spans: []byteRange{{lo: a.b, hi: a.b}}})
		return
	}
	e.bindRanges(ctx, rangesVal{literals: []regexast.ItemID{a.item}})
}

func actRangeSpan(ctx parser.ReduceCtx) {
	e := env(ctx)
	lo, _ := e.classAtomAt(ctx, 2)
	hi, _ := e.classAtomAt(ctx, 0)
	if !lo.isByte || !hi.isByte {
		ctx.Fail(fmt.Errorf("bootstrap: a character class range endpoint must be a single byte"))
		return
	}
	if hi.b < lo.b {
		ctx.Fail(fmt.Errorf("bootstrap: character class range %q-%q is out of order", lo.b, hi.b))
		return
	}
	e.bindRanges(ctx, rangesVal{spans: []byteRange{{lo: lo.b, hi: hi.b}}})
}

func actRangesInit(ctx parser.ReduceCtx) {
	e := env(ctx)
	r, _ := e.rangesAt(ctx, 0)
	e.bindRanges(ctx, r)
}

func actRangesAppend(ctx parser.ReduceCtx) {
	e := env(ctx)
	prev, _ := e.rangesAt(ctx, 1)
	next, _ := e.rangesAt(ctx, 0)
	prev.spans = append(prev.spans, next.spans...)
	prev.literals = append(prev.literals, next.literals...)
	e.bindRanges(ctx, prev)
}

func actClass(ctx parser.ReduceCtx) {
	e := env(ctx)
	r, _ := e.rangesAt(ctx, 1)
	var items []regexast.ItemID
	for _, s := range r.spans {
		for c := int(s.lo); c <= int(s.hi); c++ {
			items = append(items, e.b.AddLeaf(regexast.KindCode, []byte{byte(c)}, nil))
		}
	}
	items = append(items, r.literals...)
	if len(items) == 0 {
		ctx.Fail(fmt.Errorf("bootstrap: empty character class"))
		return
	}
	e.bindItem(ctx, buildAlt(e.b, items))
}

// actClassNegated enumerates the complement of the matched byte set as
// an alternation of single-byte leaves (regexast.KindCodeNot is never
// produced — see DESIGN.md decision D2, cited directly on
// regexast.KindCodeNot's own doc comment: dfa.Compile's subset
// construction only ever examines KindCode leaves, so a KindCodeNot
// leaf would be silently invisible to the DFA builder). Literal
// multi-byte `codes` members cannot be complemented as a byte set and
// are rejected.
func actClassNegated(ctx parser.ReduceCtx) {
	e := env(ctx)
	r, _ := e.rangesAt(ctx, 1)
	if len(r.literals) > 0 {
		ctx.Fail(fmt.Errorf("bootstrap: a negated character class cannot contain a multi-byte member"))
		return
	}
	var matched [256]bool
	for _, s := range r.spans {
		for c := int(s.lo); c <= int(s.hi); c++ {
			matched[c] = true
		}
	}
	var items []regexast.ItemID
	for c := 0; c < 256; c++ {
		if !matched[c] {
			items = append(items, e.b.AddLeaf(regexast.KindCode, []byte{byte(c)}, nil))
		}
	}
	if len(items) == 0 {
		ctx.Fail(fmt.Errorf("bootstrap: negated character class matches no byte"))
		return
	}
	e.bindItem(ctx, buildAlt(e.b, items))
}

// Parse compiles a pattern written in the bootstrap regex language
// into a regexast tree, returning the Builder that owns it and the
// root item id.
func Parse(pattern string) (*regexast.Builder, regexast.ItemID, error) {
	b := regexast.NewBuilder()
	id, err := ParseInto(b, pattern)
	if err != nil {
		return nil, regexast.InvalidItem, err
	}
	return b, id, nil
}

// ParseInto compiles pattern into b, a Builder shared across several
// calls, returning the root item id of the subtree just added. Used by
// package regexdef's callers (and the lrtoolkit façade) to fold many
// regular-definition rules into one arena before handing the whole lot
// to dfa.Compile, whose follow-position construction requires every
// rule's leaves to share one dense id space.
func ParseInto(b *regexast.Builder, pattern string) (regexast.ItemID, error) {
	tabs, err := Tables()
	if err != nil {
		return regexast.InvalidItem, err
	}

	e := newBuildEnv(b)

	p := parser.New(newScanLexer(pattern), tabs)
	p.SetEnv(e)

	res, err := p.Parse()
	if err != nil {
		return regexast.InvalidItem, fmt.Errorf("bootstrap: parsing %q: %w", pattern, err)
	}
	if res != parser.ParseSuccess {
		return regexast.InvalidItem, fmt.Errorf("bootstrap: parsing %q: incomplete pattern", pattern)
	}
	if e.lastItem == regexast.InvalidItem {
		return regexast.InvalidItem, fmt.Errorf("bootstrap: parsing %q: produced no tree", pattern)
	}
	return e.lastItem, nil
}
