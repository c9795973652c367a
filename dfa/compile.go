package dfa

import (
	"errors"
	"sort"

	"github.com/coregx/lrtoolkit/attrs"
	"github.com/coregx/lrtoolkit/internal/densetab"
	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/regexast"
)

// ErrNoRules is returned by Compile when given an empty rule list.
var ErrNoRules = errors.New("dfa: no rules to compile")

var (
	attrAccept = intern.Hash("$dfa_accept")
	attrAction = intern.Hash("$dfa_action")
)

// Rule is one lexer rule to fold into a compiled Table: Root is the
// root item of the rule's regex subtree within b, Accept is the
// terminal name a match reports, and Action (optional) runs over the
// matched bytes before the token is emitted.
type Rule struct {
	Root   regexast.ItemID
	Accept intern.Name
	Action Action
}

// Compile builds a Table recognizing the union of rules, by the
// classical follow-position construction:
//
//  1. each rule's subtree is terminated with a synthetic accept leaf
//     and concatenated to it, then every rule's (subtree . accept) is
//     joined with alternation, in rule order — this mirrors
//     original_source/src/dfa.rs's build_ast exactly, including its
//     "roll up previous root via |" loop;
//  2. nullable/firstpos/lastpos/followpos are computed over the
//     combined tree (original_source/src/dfa.rs's nullable/first/last/follow,
//     all memoized by item id);
//  3. subset construction starts from firstpos(root) and transitions on
//     every distinct literal byte appearing in the tree, states
//     compared by set equality;
//  4. a state is accepting iff its item set contains an accept leaf,
//     taking that leaf's Accept/Action (ties broken by lowest item id,
//     i.e. earliest-declared rule, since each rule's accept leaf is
//     added to the arena in rule order);
//  5. a final pass removes dead-end non-accepting states whose only
//     transitions loop back to themselves — ported verbatim from the
//     original, which (see DESIGN.md decision D3) only ever prunes
//     states that were never accepting in the first place.
func Compile(b *regexast.Builder, rules []Rule) (*Table, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}

	root := regexast.InvalidItem
	for _, r := range rules {
		bag := attrs.New()
		bag.Set(attrAccept, r.Accept)
		if r.Action != nil {
			bag.Set(attrAction, r.Action)
		}
		acceptLeaf := b.AddLeaf(regexast.KindAccept, nil, bag)
		concat := b.AddNode(regexast.KindConcat, r.Root, acceptLeaf, nil)
		if root == regexast.InvalidItem {
			root = concat
		} else {
			root = b.AddNode(regexast.KindAlt, root, concat, nil)
		}
	}

	items := b.Items()
	c := &compiler{items: items}

	codes := collectCodes(items)

	states := [][]regexast.ItemID{sortedIDs(c.first(root))}
	index := map[string]int{stateKey(states[0]): 0}
	marked := []bool{false}

	gotoB := densetab.NewBuilder[StateID]()

	for {
		cur := -1
		for i, m := range marked {
			if !m {
				cur = i
				break
			}
		}
		if cur == -1 {
			break
		}
		marked[cur] = true

		for _, code := range codes {
			u := map[regexast.ItemID]struct{}{}
			for _, p := range states[cur] {
				it := items[p]
				if it.Kind == regexast.KindCode && len(it.Value) > 0 && it.Value[0] == code {
					for f := range c.follow(p) {
						u[f] = struct{}{}
					}
				}
			}
			if len(u) == 0 {
				continue
			}

			ids := sortedIDs(u)
			k := stateKey(ids)
			target, ok := index[k]
			if !ok {
				target = len(states)
				states = append(states, ids)
				index[k] = target
				marked = append(marked, false)
			}
			gotoB.Set(uint32(cur), uint32(code), StateID(target))
		}
	}

	accept := make(map[int]*State, len(states))
	for i, set := range states {
		for _, id := range set {
			it := items[id]
			if it.Kind != regexast.KindAccept {
				continue
			}
			acceptName, _ := it.Attrs.GetName(attrAccept)
			var action Action
			if v, ok := it.Attrs.Get(attrAction); ok {
				action, _ = v.(Action)
			}
			accept[i] = &State{Accept: acceptName, Action: action}
			break
		}
	}

	// Remove dead-end transitions: a state whose every transition (if
	// any) loops back to itself, and which never accepts, is dropped
	// from the accept table. Transitions themselves are left in place.
	for i := range states {
		dead := true
		for _, code := range codes {
			if target, ok := gotoB.Get(uint32(i), uint32(code)); ok {
				if int(target) != i {
					dead = false
					break
				}
			}
		}
		if dead {
			if _, ok := accept[i]; ok {
				dead = false
			}
		}
		if dead {
			delete(accept, i)
		}
	}

	stateSlice := make([]*State, len(states))
	for i, s := range accept {
		stateSlice[i] = s
	}

	return &Table{states: stateSlice, trans: &transTable{t: gotoB.Freeze()}}, nil
}

// transTable adapts densetab's uint32 columns to byte transitions.
type transTable struct {
	t *densetab.Table[StateID]
}

func (t *transTable) get(state StateID, code byte) (StateID, bool) {
	return t.t.Get(uint32(state), uint32(code))
}

func (t *transTable) rowExists(state StateID) bool {
	return t.t.RowExists(uint32(state))
}

// compiler holds the memoized nullable/first/last/follow maps needed
// during one Compile call; it is never reused across calls.
type compiler struct {
	items   []regexast.Item
	firstM  map[regexast.ItemID]map[regexast.ItemID]struct{}
	lastM   map[regexast.ItemID]map[regexast.ItemID]struct{}
	followM map[regexast.ItemID]map[regexast.ItemID]struct{}
}

func (c *compiler) nullable(id regexast.ItemID) bool {
	it := c.items[id]
	switch it.Kind {
	case regexast.KindConcat:
		if !c.nullable(it.Left) {
			return false
		}
		if it.Right == regexast.InvalidItem {
			return true
		}
		return c.nullable(it.Right)
	case regexast.KindAlt:
		if c.nullable(it.Left) {
			return true
		}
		if it.Right == regexast.InvalidItem {
			return true
		}
		return c.nullable(it.Right)
	case regexast.KindStar:
		return true
	default: // leaves
		return len(it.Value) == 0
	}
}

func (c *compiler) first(id regexast.ItemID) map[regexast.ItemID]struct{} {
	if c.firstM == nil {
		c.firstM = map[regexast.ItemID]map[regexast.ItemID]struct{}{}
	}
	if s, ok := c.firstM[id]; ok {
		return s
	}
	result := map[regexast.ItemID]struct{}{}
	it := c.items[id]
	switch it.Kind {
	case regexast.KindConcat:
		for v := range c.first(it.Left) {
			result[v] = struct{}{}
		}
		if c.nullable(it.Left) && it.Right != regexast.InvalidItem {
			for v := range c.first(it.Right) {
				result[v] = struct{}{}
			}
		}
	case regexast.KindAlt:
		for v := range c.first(it.Left) {
			result[v] = struct{}{}
		}
		if it.Right != regexast.InvalidItem {
			for v := range c.first(it.Right) {
				result[v] = struct{}{}
			}
		}
	case regexast.KindStar:
		for v := range c.first(it.Left) {
			result[v] = struct{}{}
		}
	default: // leaves
		if len(it.Value) != 0 || it.Kind == regexast.KindAccept {
			result[id] = struct{}{}
		}
	}
	c.firstM[id] = result
	return result
}

func (c *compiler) last(id regexast.ItemID) map[regexast.ItemID]struct{} {
	if c.lastM == nil {
		c.lastM = map[regexast.ItemID]map[regexast.ItemID]struct{}{}
	}
	if s, ok := c.lastM[id]; ok {
		return s
	}
	result := map[regexast.ItemID]struct{}{}
	it := c.items[id]
	switch it.Kind {
	case regexast.KindConcat:
		rightNullable := it.Right == regexast.InvalidItem || c.nullable(it.Right)
		if it.Right != regexast.InvalidItem {
			for v := range c.last(it.Right) {
				result[v] = struct{}{}
			}
		}
		if rightNullable {
			for v := range c.last(it.Left) {
				result[v] = struct{}{}
			}
		}
	case regexast.KindAlt:
		for v := range c.last(it.Left) {
			result[v] = struct{}{}
		}
		if it.Right != regexast.InvalidItem {
			for v := range c.last(it.Right) {
				result[v] = struct{}{}
			}
		}
	case regexast.KindStar:
		for v := range c.last(it.Left) {
			result[v] = struct{}{}
		}
	default: // leaves
		if len(it.Value) != 0 || it.Kind == regexast.KindAccept {
			result[id] = struct{}{}
		}
	}
	c.lastM[id] = result
	return result
}

// follow scans the whole tree for every "." node whose left operand's
// lastpos contains id (adding firstpos(right)) and every "*" node whose
// own lastpos contains id (adding firstpos(its child)) — ported
// verbatim from original_source/src/dfa.rs's follow, including its
// whole-tree scan rather than a single-parent lookup (a leaf's
// followpos set can receive contributions from more than one node when
// the same subtree is referenced by star-repetition).
func (c *compiler) follow(id regexast.ItemID) map[regexast.ItemID]struct{} {
	if c.followM == nil {
		c.followM = map[regexast.ItemID]map[regexast.ItemID]struct{}{}
	}
	if s, ok := c.followM[id]; ok {
		return s
	}
	result := map[regexast.ItemID]struct{}{}
	for i, it := range c.items {
		switch it.Kind {
		case regexast.KindConcat:
			if it.Right == regexast.InvalidItem {
				continue
			}
			if _, ok := c.last(it.Left)[id]; ok {
				for v := range c.first(it.Right) {
					result[v] = struct{}{}
				}
			}
		case regexast.KindStar:
			if _, ok := c.last(regexast.ItemID(i))[id]; ok {
				for v := range c.first(it.Left) {
					result[v] = struct{}{}
				}
			}
		}
	}
	c.followM[id] = result
	return result
}

// collectCodes returns every distinct single byte a KindCode leaf
// matches, in ascending item-id (i.e. first-declared-rule) order.
func collectCodes(items []regexast.Item) []byte {
	var codes []byte
	seen := map[byte]bool{}
	for _, it := range items {
		if it.Kind == regexast.KindCode && len(it.Value) > 0 {
			c := it.Value[0]
			if !seen[c] {
				seen[c] = true
				codes = append(codes, c)
			}
		}
	}
	return codes
}

func sortedIDs(set map[regexast.ItemID]struct{}) []regexast.ItemID {
	ids := make([]regexast.ItemID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func stateKey(ids []regexast.ItemID) string {
	buf := make([]byte, 0, len(ids)*4)
	for _, id := range ids {
		buf = append(buf, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
	}
	return string(buf)
}
