// Package automaton implements the deterministic viable-prefix automaton
// construction: closure/goto over LR0 and LR1 item sets, and the
// three canonical item-set automata (LR0, canonical LR1, and LALR1 via
// kernel merging).
//
// The DFA is built directly via the standard closure/goto worklist (Dragon
// Book Algorithm 4.53/4.56), rather than first building an epsilon-NFA
// over items and subset-constructing a DFA from it: an NFA/epsilon-closure
// layer would exist only to serve this one call site, and introducing a
// second full generic automaton type here with nothing else to exercise it
// would be unwired machinery for its own sake. See DESIGN.md for the
// justification.
package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/havtorn/sturgeon/util"
)

// DFA is a deterministic finite automaton over string-labeled states, each
// carrying an attached value of type E (an item set, for the LR automata
// built in lr0.go/lr1.go).
type DFA[E any] struct {
	order uint64
	states map[string]dfaState[E]
	Start string
}

type dfaState[E any] struct {
	name        string
	value       E
	transitions map[string]string
	accepting   bool
	ordering    uint64
}

func (s dfaState[E]) copy() dfaState[E] {
	t := make(map[string]string, len(s.transitions))
	for k, v := range s.transitions {
		t[k] = v
	}
	return dfaState[E]{name: s.name, value: s.value, transitions: t, accepting: s.accepting, ordering: s.ordering}
}

// NewDFA returns an empty automaton.
func NewDFA[E any]() *DFA[E] {
	return &DFA[E]{states: map[string]dfaState[E]{}}
}

// EmptyDFA returns an empty automaton by value, for construction code that
// builds up a DFA[E] inline and assigns Start directly.
func EmptyDFA[E any]() DFA[E] {
	return DFA[E]{states: map[string]dfaState[E]{}}
}

// Copy returns a duplicate of dfa.
func (dfa DFA[E]) Copy() DFA[E] {
	cp := DFA[E]{Start: dfa.Start, order: dfa.order, states: make(map[string]dfaState[E], len(dfa.states))}
	for k, v := range dfa.states {
		cp.states[k] = v.copy()
	}
	return cp
}

// AddState adds a new named state. No-op if the state already exists.
func (dfa *DFA[E]) AddState(name string, accepting bool) {
	if _, ok := dfa.states[name]; ok {
		return
	}
	dfa.states[name] = dfaState[E]{name: name, transitions: map[string]string{}, accepting: accepting, ordering: dfa.order}
	dfa.order++
}

// SetValue attaches a value to an existing state.
func (dfa *DFA[E]) SetValue(name string, v E) {
	s, ok := dfa.states[name]
	if !ok {
		panic(fmt.Sprintf("automaton: no such state %q", name))
	}
	s.value = v
	dfa.states[name] = s
}

// GetValue returns the value attached to a state.
func (dfa DFA[E]) GetValue(name string) E {
	return dfa.states[name].value
}

// AddTransition adds a transition on input from fromState to toState. Both
// states must already exist.
func (dfa *DFA[E]) AddTransition(fromState, input, toState string) {
	if _, ok := dfa.states[fromState]; !ok {
		panic(fmt.Sprintf("automaton: no such state %q", fromState))
	}
	if _, ok := dfa.states[toState]; !ok {
		panic(fmt.Sprintf("automaton: no such state %q", toState))
	}
	dfa.states[fromState].transitions[input] = toState
}

// Next returns the state reached from fromState on input, or "" if none.
func (dfa DFA[E]) Next(fromState, input string) string {
	s, ok := dfa.states[fromState]
	if !ok {
		return ""
	}
	return s.transitions[input]
}

// Transitions returns the outgoing (input, toState) pairs of a state,
// sorted by input for deterministic iteration.
func (dfa DFA[E]) Transitions(state string) [][2]string {
	s := dfa.states[state]
	inputs := make([]string, 0, len(s.transitions))
	for in := range s.transitions {
		inputs = append(inputs, in)
	}
	sort.Strings(inputs)
	out := make([][2]string, len(inputs))
	for i, in := range inputs {
		out[i] = [2]string{in, s.transitions[in]}
	}
	return out
}

// IsAccepting reports whether state is an accepting state.
func (dfa DFA[E]) IsAccepting(state string) bool {
	return dfa.states[state].accepting
}

// States returns every state name, in the order states were added (which
// the LR construction uses as the canonical numbering for ACTION/GOTO table
// rows: states are numbered in the order item sets were discovered).
func (dfa DFA[E]) States() []string {
	names := make([]string, 0, len(dfa.states))
	for n := range dfa.states {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return dfa.states[names[i]].ordering < dfa.states[names[j]].ordering })
	return names
}

// NumStates reports how many states the automaton has.
func (dfa DFA[E]) NumStates() int {
	return len(dfa.states)
}

// String renders the automaton's transitions, one per line, mostly useful
// for debugging test failures.
func (dfa DFA[E]) String() string {
	var sb strings.Builder
	for _, name := range dfa.States() {
		for _, tr := range dfa.Transitions(name) {
			fmt.Fprintf(&sb, "(%s) =%s=> (%s)\n", name, tr[0], tr[1])
		}
	}
	return sb.String()
}

// stateKey canonicalizes an item set into a stable string key so structurally
// identical sets collapse to the same DFA state, by hashing item sets under
// a canonical ordering.
func stateKey[V any](set util.SVSet[V]) string {
	elems := set.Elements()
	return strings.Join(elems, "\n")
}
