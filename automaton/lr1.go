package automaton

import (
	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/util"
)

// NewLR1 builds the canonical LR1 viable-prefix automaton for g, the LR1
// variant of the same closure/goto construction NewLR0 uses, over LR1
// items carrying lookaheads.
func NewLR1(g grammar.Grammar) DFA[util.SVSet[grammar.LR1Item]] {
	aug := g.Augmented()
	oldStart := aug.Rule(aug.StartSymbol()).Productions[0].Symbols[0]

	initial := grammar.LR1Item{
		LR0Item:   grammar.LR0Item{NonTerminal: aug.StartSymbol(), Right: []string{oldStart}},
		Lookahead: "$",
	}
	startKernel := util.NewSVSet[grammar.LR1Item]()
	startKernel.Set(initial.String(), initial)
	startSet := aug.LR1Closure(startKernel)

	stateSets := util.NewSVSet[util.SVSet[grammar.LR1Item]]()
	stateSets.Set(stateKey(startSet), startSet)
	order := []string{stateKey(startSet)}
	transitions := map[string]map[string]string{}

	updates := true
	for updates {
		updates = false

		for _, sKey := range stateSets.Elements() {
			I := stateSets.Get(sKey)

			symbolsAhead := util.NewStringSet()
			for _, key := range I.Elements() {
				if s, ok := I.Get(key).NextSymbol(); ok {
					symbolsAhead.Add(s)
				}
			}

			for _, s := range symbolsAhead.Elements() {
				goTo := util.NewSVSet[grammar.LR1Item]()
				for _, key := range I.Elements() {
					item := I.Get(key)
					if next, ok := item.NextSymbol(); ok && next == s {
						advanced := grammar.LR1Item{LR0Item: item.LR0Item.Advanced(), Lookahead: item.Lookahead}
						goTo.Set(advanced.String(), advanced)
					}
				}

				newSet := aug.LR1Closure(goTo)
				newKey := stateKey(newSet)

				if !stateSets.Has(newKey) {
					stateSets.Set(newKey, newSet)
					order = append(order, newKey)
					updates = true
				}

				stateTrans, ok := transitions[sKey]
				if !ok {
					stateTrans = map[string]string{}
					transitions[sKey] = stateTrans
				}
				if stateTrans[s] != newKey {
					stateTrans[s] = newKey
					updates = true
				}
			}
		}
	}

	dfa := EmptyDFA[util.SVSet[grammar.LR1Item]]()
	for _, key := range order {
		dfa.AddState(key, true)
	}
	for _, key := range order {
		dfa.SetValue(key, stateSets.Get(key))
	}
	for from, trans := range transitions {
		for sym, to := range trans {
			dfa.AddTransition(from, sym, to)
		}
	}
	dfa.Start = stateKey(startSet)

	return dfa
}
