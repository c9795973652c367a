package grammar

import "github.com/coregx/lrtoolkit/attrs"

// attrsBag lazily builds an attrs.Bag for a production being parsed out
// of grammar text, so productions with no action at all keep a nil
// Attrs field (matching NewProduction's bare-RHS callers elsewhere).
type attrsBag struct {
	b *attrs.Bag
}

func newAttrsBag() *attrsBag {
	return &attrsBag{b: attrs.New()}
}

func (a *attrsBag) setSetAction(indices []int) {
	a.b.Set(AttrSetAction, indices)
}

func (a *attrsBag) setHostAction(body string) {
	a.b.Set(AttrHostAction, body)
}

// bag returns the underlying *attrs.Bag, or nil if a itself is nil.
func (a *attrsBag) bag() *attrs.Bag {
	if a == nil {
		return nil
	}
	return a.b
}
