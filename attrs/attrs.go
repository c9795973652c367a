// Package attrs provides a small heterogeneous key->value bag keyed by
// interned names, used to attach optional metadata (accept actions,
// reduction callbacks, production hints) to regex AST nodes and grammar
// productions without every consumer needing to know every attribute
// kind up front.
package attrs

import "github.com/coregx/lrtoolkit/intern"

// Bag is a heterogeneous attribute map. The zero value is not usable;
// construct one with New.
type Bag struct {
	m map[intern.Name]any
}

// New returns an empty Bag.
func New() *Bag {
	return &Bag{m: make(map[intern.Name]any)}
}

// Set stores value under key, overwriting any previous value.
func (b *Bag) Set(key intern.Name, value any) {
	b.m[key] = value
}

// Get returns the raw value stored under key, if any.
func (b *Bag) Get(key intern.Name) (any, bool) {
	v, ok := b.m[key]
	return v, ok
}

// Remove deletes key from the bag, if present.
func (b *Bag) Remove(key intern.Name) {
	delete(b.m, key)
}

// Len returns the number of attributes currently stored.
func (b *Bag) Len() int {
	return len(b.m)
}

// Clone returns a shallow copy of b; attribute values are not deep
// copied (mirrors the reference's manual Clone, which only needed to
// duplicate the map structure, not the held values).
func (b *Bag) Clone() *Bag {
	nb := New()
	for k, v := range b.m {
		nb.m[k] = v
	}
	return nb
}

// GetName returns the value stored under key as an intern.Name.
func (b *Bag) GetName(key intern.Name) (intern.Name, bool) {
	v, ok := b.m[key]
	if !ok {
		return intern.NoName, false
	}
	n, ok := v.(intern.Name)
	return n, ok
}

// GetBytes returns the value stored under key as a []byte.
func (b *Bag) GetBytes(key intern.Name) ([]byte, bool) {
	v, ok := b.m[key]
	if !ok {
		return nil, false
	}
	n, ok := v.([]byte)
	return n, ok
}
