package lr

import (
	"github.com/havtorn/sturgeon/automaton"
	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/symbol"
	"github.com/havtorn/sturgeon/util"
)

// productionIndex finds the global production id of (head, body) within g,
// for translating a completed item back into a Reduce action's production
// reference: index in insertion order is the production's identifier in
// tables.
func productionIndex(g grammar.Grammar, head string, body []string) (int, bool) {
	for i, e := range g.Productions() {
		if e.Head != head || len(e.Prod.Symbols) != len(body) {
			continue
		}
		match := true
		for j := range body {
			if e.Prod.Symbols[j] != body[j] {
				match = false
				break
			}
		}
		if match {
			return i, true
		}
	}
	return 0, false
}

func allTerminals(g grammar.Grammar) []string {
	terms := append([]string(nil), g.Terminals()...)
	terms = append(terms, symbol.EOFName)
	return terms
}

// BuildSLR constructs the SLR(1) ACTION/GOTO table for g: LR0 item
// sets, reduce actions placed on every terminal in FOLLOW(head), unresolved
// shift/reduce conflicts reported as errors (PolicyError).
func BuildSLR(g grammar.Grammar) (*Table, error) {
	return BuildSLRWithPolicy(g, PolicyError)
}

// BuildSLRWithPolicy is BuildSLR, falling back to policy for any
// shift/reduce conflict operator precedence leaves unresolved.
func BuildSLRWithPolicy(g grammar.Grammar, policy ShiftReducePolicy) (*Table, error) {
	aug := g.Augmented()
	oldStart := aug.Rule(aug.StartSymbol()).Productions[0].Symbols[0]
	dfa := automaton.NewLR0(g)

	t := newTable(ModeSLR)
	t.terminals = allTerminals(g)
	t.Start = dfa.Start
	t.states = dfa.States()

	for _, s := range t.states {
		items := dfa.GetValue(s)
		for _, key := range items.Elements() {
			item := items.Get(key)

			next, hasNext := item.NextSymbol()
			if !hasNext {
				if item.NonTerminal == aug.StartSymbol() && len(item.Body()) == 1 && item.Body()[0] == oldStart {
					if err := t.setAction(g.Operators(), policy, s, symbol.EOFName, Action{Type: Accept}); err != nil {
						return nil, err
					}
					continue
				}
				id, ok := productionIndex(g, item.NonTerminal, item.Body())
				if !ok {
					continue // item belongs solely to the augmenting production's own closure
				}
				for _, la := range g.FOLLOW(item.NonTerminal).Elements() {
					if la == "" {
						continue
					}
					if err := t.setAction(g.Operators(), policy, s, la, Action{Type: Reduce, ProductionID: id, Head: item.NonTerminal, Body: item.Body()}); err != nil {
						return nil, err
					}
				}
				continue
			}

			dest := dfa.Next(s, next)
			if g.IsTerminal(next) {
				if err := t.setAction(g.Operators(), policy, s, next, Action{Type: Shift, State: dest}); err != nil {
					return nil, err
				}
			} else {
				t.setGoto(s, next, dest)
			}
		}
	}

	return t, nil
}

// buildFromLR1 is the shared construction logic for canonical LR(1) and
// LALR(1): both produce a DFA[SVSet[LR1Item]], differing only in how that
// automaton is built, and the table-building rules (reduce lookahead =
// item.Lookahead, not FOLLOW) are identical.
func buildFromLR1(g grammar.Grammar, mode Mode, policy ShiftReducePolicy, dfa automaton.DFA[util.SVSet[grammar.LR1Item]]) (*Table, error) {
	aug := g.Augmented()
	oldStart := aug.Rule(aug.StartSymbol()).Productions[0].Symbols[0]

	t := newTable(mode)
	t.terminals = allTerminals(g)
	t.Start = dfa.Start
	t.states = dfa.States()

	for _, s := range t.states {
		items := dfa.GetValue(s)
		for _, key := range items.Elements() {
			item := items.Get(key)

			next, hasNext := item.NextSymbol()
			if !hasNext {
				if item.NonTerminal == aug.StartSymbol() && len(item.Body()) == 1 && item.Body()[0] == oldStart {
					if err := t.setAction(g.Operators(), policy, s, symbol.EOFName, Action{Type: Accept}); err != nil {
						return nil, err
					}
					continue
				}
				id, ok := productionIndex(g, item.NonTerminal, item.Body())
				if !ok {
					continue
				}
				if err := t.setAction(g.Operators(), policy, s, item.Lookahead, Action{Type: Reduce, ProductionID: id, Head: item.NonTerminal, Body: item.Body()}); err != nil {
					return nil, err
				}
				continue
			}

			dest := dfa.Next(s, next)
			if g.IsTerminal(next) {
				if err := t.setAction(g.Operators(), policy, s, next, Action{Type: Shift, State: dest}); err != nil {
					return nil, err
				}
			} else {
				t.setGoto(s, next, dest)
			}
		}
	}

	return t, nil
}

// BuildCLR1 constructs the canonical LR(1) ACTION/GOTO table for g.
func BuildCLR1(g grammar.Grammar) (*Table, error) {
	return BuildCLR1WithPolicy(g, PolicyError)
}

// BuildCLR1WithPolicy is BuildCLR1 with an explicit shift/reduce fallback
// policy.
func BuildCLR1WithPolicy(g grammar.Grammar, policy ShiftReducePolicy) (*Table, error) {
	return buildFromLR1(g, ModeCLR1, policy, automaton.NewLR1(g))
}

// BuildLALR1 constructs the LALR(1) ACTION/GOTO table for g via kernel
// merging of the canonical LR(1) automaton.
func BuildLALR1(g grammar.Grammar) (*Table, error) {
	return BuildLALR1WithPolicy(g, PolicyError)
}

// BuildLALR1WithPolicy is BuildLALR1 with an explicit shift/reduce fallback
// policy.
func BuildLALR1WithPolicy(g grammar.Grammar, policy ShiftReducePolicy) (*Table, error) {
	dfa, err := automaton.NewLALR1(g)
	if err != nil {
		return nil, err
	}
	return buildFromLR1(g, ModeLALR1, policy, dfa)
}

// BuildAuto tries SLR, then LALR(1), then canonical LR(1), returning the
// first table that builds without conflicts along with the Mode that
// succeeded.
func BuildAuto(g grammar.Grammar) (*Table, Mode, error) {
	return BuildAutoWithPolicy(g, PolicyError)
}

// BuildAutoWithPolicy is BuildAuto with an explicit shift/reduce fallback
// policy applied at every stage it tries.
func BuildAutoWithPolicy(g grammar.Grammar, policy ShiftReducePolicy) (*Table, Mode, error) {
	if t, err := BuildSLRWithPolicy(g, policy); err == nil {
		return t, ModeSLR, nil
	}
	if t, err := BuildLALR1WithPolicy(g, policy); err == nil {
		return t, ModeLALR1, nil
	}
	t, err := BuildCLR1WithPolicy(g, policy)
	if err != nil {
		return nil, ModeCLR1, err
	}
	return t, ModeCLR1, nil
}
