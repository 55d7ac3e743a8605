package automaton

import (
	"github.com/havtorn/sturgeon/errs"
	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/util"
)

// NewLALR1 builds the LALR1 viable-prefix automaton for g by building the
// full canonical LR1 automaton and merging states whose LR0 item cores are
// identical: two LR1 states merge into one LALR1 state when their item
// cores, ignoring lookahead, are identical.
//
// Core equality is a property of each state's item set alone and is not
// affected by merging other states, so this implementation computes the
// full core-equality partition once and merges every state in one pass,
// rather than merging states one candidate at a time in a loop that
// re-scans all states after every merge.
func NewLALR1(g grammar.Grammar) (DFA[util.SVSet[grammar.LR1Item]], error) {
	lr1 := NewLR1(g)

	// group original state keys by their core-item signature
	groupOf := map[string]string{} // original state key -> representative group key
	groupItems := map[string]util.SVSet[grammar.LR1Item]{}
	groupOrder := []string{}

	coreKeyOf := map[string]string{}
	for _, sKey := range lr1.States() {
		coreKeyOf[sKey] = stateKey(grammar.CoreSet(lr1.GetValue(sKey)))
	}

	repByCore := map[string]string{}
	for _, sKey := range lr1.States() {
		ck := coreKeyOf[sKey]
		rep, ok := repByCore[ck]
		if !ok {
			rep = sKey
			repByCore[ck] = rep
			groupOrder = append(groupOrder, rep)
			groupItems[rep] = util.NewSVSet[grammar.LR1Item]()
		}
		groupOf[sKey] = rep
		groupItems[rep].AddAll(lr1.GetValue(sKey))
	}

	merged := EmptyDFA[util.SVSet[grammar.LR1Item]]()
	for _, rep := range groupOrder {
		merged.AddState(rep, true)
	}
	for _, rep := range groupOrder {
		merged.SetValue(rep, groupItems[rep])
	}

	for _, sKey := range lr1.States() {
		from := groupOf[sKey]
		for _, tr := range lr1.Transitions(sKey) {
			sym, to := tr[0], tr[1]
			toRep := groupOf[to]
			if existing := merged.Next(from, sym); existing != "" && existing != toRep {
				return DFA[util.SVSet[grammar.LR1Item]]{}, &errs.ConflictError{
					State:    from,
					Terminal: sym,
					Item1:    existing,
					Item2:    toRep,
					Kind:     "shift/shift",
				}
			}
			merged.AddTransition(from, sym, toRep)
		}
	}

	merged.Start = groupOf[lr1.Start]
	return merged, nil
}
