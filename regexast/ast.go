// Package regexast implements the regex AST component (C3): an
// immutable, dense, identity-tagged tree of leaves and binary nodes,
// built incrementally by a Builder and consumed by the DFA compiler's
// follow-position pass.
//
// Unlike a reference-counted tree, every Item lives in a flat arena
// indexed by a monotonic ItemID; Left/Right are indices into that
// arena rather than pointers, so the tree can never contain a cycle and
// equality/hashing of an Item reduces to comparing its ItemID.
package regexast

import "github.com/coregx/lrtoolkit/attrs"

// ItemID identifies a node or leaf within a Builder's arena. Ids are
// assigned in insertion order starting at 0 and are never reused.
type ItemID uint32

// InvalidItem is returned by lookups that found nothing and used as the
// Right child of nodes with no second child (star, and leaves never set
// it at all).
const InvalidItem ItemID = 0xFFFFFFFF

// Kind distinguishes leaf and node item kinds.
type Kind uint8

const (
	// KindCode is a leaf matching exactly one literal byte (Value has length 1).
	KindCode Kind = iota
	// KindCodeNot is a leaf representing a negated class member. See
	// DESIGN.md decision D2: no code path in this module produces one
	// (negation is enumerated at AST-construction time instead). The
	// kind exists to match the original's data model; dfa.Compile does
	// not match on it, so a KindCodeNot leaf produces no transitions.
	KindCodeNot
	// KindAccept is the synthetic accept leaf ('#') the DFA compiler
	// attaches to the end of each lexer rule's regex. Its Attrs carry
	// "accept" (an intern.Name) and, optionally, "action".
	KindAccept
	// KindConcat is a binary node ('.') meaning Left followed by Right.
	KindConcat
	// KindAlt is a binary node ('|') meaning Left or Right.
	KindAlt
	// KindStar is a unary node ('*') meaning zero or more repetitions of Left.
	KindStar
)

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindCodeNot:
		return "code_not"
	case KindAccept:
		return "#"
	case KindConcat:
		return "."
	case KindAlt:
		return "|"
	case KindStar:
		return "*"
	default:
		return "unknown"
	}
}

func (k Kind) isLeaf() bool {
	return k == KindCode || k == KindCodeNot || k == KindAccept
}

// Item is a single leaf or node in the arena. Leaves have Value set and
// Left/Right == InvalidItem; nodes have Left (and, except for KindStar,
// Right) set to a valid ItemID within the same Builder.
type Item struct {
	ID    ItemID
	Kind  Kind
	Value []byte
	Left  ItemID
	Right ItemID
	Attrs *attrs.Bag
}

// IsLeaf reports whether the item is a leaf (code/code_not/accept).
func (it Item) IsLeaf() bool { return it.Kind.isLeaf() }

// Nullable reports whether this single item (not the subtree) is
// nullable in isolation: a KindStar node, or a KindCode leaf whose
// Value is empty (representing epsilon). Composite nullability is
// computed by the DFA compiler over the whole subtree.
func (it Item) Nullable() bool {
	if it.Kind == KindStar {
		return true
	}
	return it.Kind == KindCode && len(it.Value) == 0
}

// Builder accumulates Items into a dense, append-only arena.
type Builder struct {
	items    []Item
	lastNode ItemID
	hasLast  bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{lastNode: InvalidItem}
}

// NewBuilderWithCapacity returns an empty Builder whose arena is
// preallocated for capacity items, avoiding reallocation for callers
// that know the approximate tree size up front (e.g. the bootstrap
// regex parser, which builds one tree per compiled pattern).
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{items: make([]Item, 0, capacity), lastNode: InvalidItem}
}

// AddLeaf appends a new leaf with the given kind/value/attrs and
// returns its id. AddLeaf never updates Last.
func (b *Builder) AddLeaf(kind Kind, value []byte, bag *attrs.Bag) ItemID {
	id := ItemID(len(b.items))
	b.items = append(b.items, Item{
		ID:    id,
		Kind:  kind,
		Value: value,
		Left:  InvalidItem,
		Right: InvalidItem,
		Attrs: bag,
	})
	return id
}

// AddNode appends a new node with the given kind/children/attrs and
// returns its id. right is ignored (stored as InvalidItem) for
// KindStar nodes. AddNode sets Last to the new id.
func (b *Builder) AddNode(kind Kind, left, right ItemID, bag *attrs.Bag) ItemID {
	if kind == KindStar {
		right = InvalidItem
	}
	id := ItemID(len(b.items))
	b.items = append(b.items, Item{
		ID:    id,
		Kind:  kind,
		Left:  left,
		Right: right,
		Attrs: bag,
	})
	b.lastNode = id
	b.hasLast = true
	return id
}

// Last returns the id of the most recently added node (not leaf), and
// whether any node has been added yet. This mirrors the reference
// ASTBuilder, whose add_leaf never updates last_id.
func (b *Builder) Last() (ItemID, bool) {
	return b.lastNode, b.hasLast
}

// ByID returns the item with the given id.
func (b *Builder) ByID(id ItemID) (Item, bool) {
	if int(id) < 0 || int(id) >= len(b.items) {
		return Item{}, false
	}
	return b.items[id], true
}

// Items returns every item in ascending id (insertion) order. The
// returned slice aliases the Builder's internal storage and must not be
// mutated or retained across further Add calls that may reallocate it.
func (b *Builder) Items() []Item {
	return b.items
}

// Len returns the number of items (leaves and nodes combined) in the
// arena.
func (b *Builder) Len() int {
	return len(b.items)
}

// BuildCodes chains two or more single-byte code leaves via Concat
// nodes, used to represent a multi-byte UTF-8 sequence as a sequential
// byte match. Panics if fewer than two bytes are given, mirroring the
// reference's build_tree_to_codes precondition.
func (b *Builder) BuildCodes(codes []byte) ItemID {
	if len(codes) < 2 {
		panic("regexast: BuildCodes requires at least two bytes")
	}
	cur := b.AddLeaf(KindCode, []byte{codes[0]}, nil)
	for _, c := range codes[1:] {
		next := b.AddLeaf(KindCode, []byte{c}, nil)
		cur = b.AddNode(KindConcat, cur, next, nil)
	}
	return cur
}
