package grammar

import "github.com/havtorn/sturgeon/util"

// LR0Closure computes the closure of a kernel set of LR0 items: repeatedly,
// for every item with the dot before some non-terminal A,
// add `A -> . gamma` for every production of A, until no new items appear.
func (g Grammar) LR0Closure(kernel util.SVSet[LR0Item]) util.SVSet[LR0Item] {
	closure := util.NewSVSet[LR0Item]()
	closure.AddAll(kernel)

	changed := true
	for changed {
		changed = false
		for _, key := range closure.Elements() {
			item := closure.Get(key)
			next, ok := item.nextSymbol()
			if !ok || !g.IsNonTerminal(next) {
				continue
			}
			for _, p := range g.Rule(next).Productions {
				newItem := LR0Item{NonTerminal: next, Right: append([]string(nil), p.Symbols...)}
				k := newItem.String()
				if !closure.Has(k) {
					closure.Set(k, newItem)
					changed = true
				}
			}
		}
	}

	return closure
}

// LR1Closure computes the closure of a kernel set of LR1 items: for every
// item `[A -> alpha . B beta, a]` with B a
// non-terminal, add `[B -> . gamma, b]` for every production of B and every
// terminal b in FIRST(beta a).
func (g Grammar) LR1Closure(kernel util.SVSet[LR1Item]) util.SVSet[LR1Item] {
	closure := util.NewSVSet[LR1Item]()
	closure.AddAll(kernel)

	firstMemo := map[string]util.StringSet{}

	changed := true
	for changed {
		changed = false
		for _, key := range closure.Elements() {
			item := closure.Get(key)
			next, ok := item.nextSymbol()
			if !ok || !g.IsNonTerminal(next) {
				continue
			}

			beta := item.Right[1:]
			lookaheads := g.firstOfSequence(append(append([]string(nil), beta...), item.Lookahead), firstMemo, map[string]bool{})

			for _, p := range g.Rule(next).Productions {
				for _, la := range lookaheads.Elements() {
					if la == "" {
						continue // epsilon only arises transiently; a concrete lookahead always exists once item.Lookahead is appended
					}
					newItem := LR1Item{
						LR0Item:   LR0Item{NonTerminal: next, Right: append([]string(nil), p.Symbols...)},
						Lookahead: la,
					}
					k := newItem.String()
					if !closure.Has(k) {
						closure.Set(k, newItem)
						changed = true
					}
				}
			}
		}
	}

	return closure
}
