package automaton

import (
	"testing"

	"github.com/havtorn/sturgeon/grammar"
	"github.com/stretchr/testify/assert"
)

// the canonical LR(0)/SLR example grammar from Aho, Sethi & Ullman's
// "Compilers": E -> E + T | T ; T -> T * F | F ; F -> ( E ) | id
func dragonBookGrammar() grammar.Grammar {
	g := grammar.Grammar{}
	for _, t := range []string{"+", "*", "(", ")", "id"} {
		g.AddTerm(t, t)
	}
	g.AddRule("E", []string{"E", "+", "T"})
	g.AddRule("E", []string{"T"})
	g.AddRule("T", []string{"T", "*", "F"})
	g.AddRule("T", []string{"F"})
	g.AddRule("F", []string{"(", "E", ")"})
	g.AddRule("F", []string{"id"})
	g.SetStartSymbol("E")
	return g
}

func Test_NewLR0_stateCount(t *testing.T) {
	assert := assert.New(t)
	g := dragonBookGrammar()

	dfa := NewLR0(g)

	// the dragon book's worked example (fig 4.31) produces exactly 12 LR0
	// states for this grammar.
	assert.Equal(12, dfa.NumStates())
}

func Test_NewLR1_isAtLeastAsLargeAsLR0(t *testing.T) {
	assert := assert.New(t)
	g := dragonBookGrammar()

	lr0 := NewLR0(g)
	lr1 := NewLR1(g)

	assert.GreaterOrEqual(lr1.NumStates(), lr0.NumStates())
}

func Test_NewLALR1_collapsesToLR0Count(t *testing.T) {
	assert := assert.New(t)
	g := dragonBookGrammar()

	lr0 := NewLR0(g)
	lalr1, err := NewLALR1(g)
	assert.NoError(err)

	// for a grammar with no LALR conflicts, the LALR1 automaton always has
	// exactly as many states as the LR0 automaton (cores are identical,
	// only lookaheads differ).
	assert.Equal(lr0.NumStates(), lalr1.NumStates())
}

func Test_NewLR0_startStateHasNoShiftCycleOnSelf(t *testing.T) {
	assert := assert.New(t)
	g := dragonBookGrammar()

	dfa := NewLR0(g)
	assert.NotEmpty(dfa.Start)
	assert.NotEqual(dfa.Start, dfa.Next(dfa.Start, "id"))
}
