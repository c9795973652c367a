package table

import (
	"github.com/coregx/lrtoolkit/grammar"
	"github.com/coregx/lrtoolkit/intern"
	"github.com/coregx/lrtoolkit/lr"
)

// buildLALRCollection computes LALR(1) item sets over the LR(0)
// canonical collection's kernels, by the spontaneous/propagated
// lookahead fixpoint (original_source/src/lalr.rs's
// LALRBuilder::build_collection_items):
//
// each LR(0) kernel item is closed under LR(1) closure with a
// placeholder lookahead (intern.LookaheadPlaceholder); a closure item
// whose lookahead differs from the placeholder is a *spontaneous*
// lookahead for the item reached by its GOTO transition; a closure
// item whose lookahead equals the placeholder instead *propagates*:
// every lookahead already recorded (this pass) for the seeding kernel
// item is copied onto the advanced item in the GOTO target kernel.
// This repeats to a fixpoint (a pass that adds nothing), after which
// every kernel is closed under ordinary LR(1) closure for ACTION table
// construction.
func buildLALRCollection(g *grammar.Grammar) ([][]lr.Item, []map[grammar.SymbolKey]int) {
	coll0 := lr.Canonical0(g)
	n := len(coll0.States)

	kernels0 := make([][]lr.Item, n)
	for i := range coll0.States {
		kernels0[i] = lr.Kernel(coll0.States[i])
	}

	lalrKernels := make([][]lr.Item, n)
	if n > 0 {
		lalrKernels[0] = []lr.Item{{Prod: 0, Pos: 0, Lookahead: intern.EndOfInput}}
	}

	for {
		added := 0
		for i := 0; i < n; i++ {
			for _, kernItem := range kernels0[i] {
				seed := lr.Item{Prod: kernItem.Prod, Pos: kernItem.Pos, Lookahead: intern.LookaheadPlaceholder}
				closure := lr.Closure1(g, []lr.Item{seed})

				for _, ci := range closure {
					sym, ok := ci.NextSymbol(g)
					if !ok {
						continue
					}
					j, ok := coll0.Goto[i][sym.Key()]
					if !ok {
						continue
					}

					if ci.Lookahead != intern.LookaheadPlaceholder {
						advanced := lr.Item{Prod: ci.Prod, Pos: ci.Pos + 1, Lookahead: ci.Lookahead}
						if addKernelItem(&lalrKernels[j], advanced) {
							added++
						}
						continue
					}

					for _, srcItem := range lalrKernels[i] {
						if srcItem.Prod != kernItem.Prod || srcItem.Pos != kernItem.Pos {
							continue
						}
						advanced := lr.Item{Prod: ci.Prod, Pos: ci.Pos + 1, Lookahead: srcItem.Lookahead}
						if addKernelItem(&lalrKernels[j], advanced) {
							added++
						}
					}
				}
			}
		}
		if added == 0 {
			break
		}
	}

	result := make([][]lr.Item, n)
	for i := range lalrKernels {
		result[i] = lr.Closure1(g, lalrKernels[i])
	}
	return result, coll0.Goto
}

func addKernelItem(kernel *[]lr.Item, it lr.Item) bool {
	for _, x := range *kernel {
		if x == it {
			return false
		}
	}
	*kernel = append(*kernel, it)
	return true
}
