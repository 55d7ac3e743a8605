package lr

import (
	"testing"

	"github.com/havtorn/sturgeon/grammar"
	"github.com/stretchr/testify/assert"
)

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

// classic dangling-else-shaped shift/reduce conflict: without precedence, a
// naive table build should fail; with "*" bound tighter than "+" it should
// resolve via left associativity both ways and succeed.
func ambiguousExprGrammar() grammar.Grammar {
	g := grammar.Grammar{}
	for _, t := range []string{"+", "*", "id"} {
		g.AddTerm(t, t)
	}
	g.AddRule("E", []string{"E", "+", "E"})
	g.AddRule("E", []string{"E", "*", "E"})
	g.AddRule("E", []string{"id"})
	g.SetStartSymbol("E")
	return g
}

func Test_BuildSLR_dragonBookGrammar(t *testing.T) {
	assert := assert.New(t)
	g := dragonBookGrammar()

	table, err := BuildSLR(g)
	assert.NoError(err)
	assert.NotNil(table)
	assert.NotEmpty(table.Initial())
}

func Test_BuildLALR1_dragonBookGrammar(t *testing.T) {
	assert := assert.New(t)
	g := dragonBookGrammar()

	table, err := BuildLALR1(g)
	assert.NoError(err)
	assert.NotNil(table)
}

func Test_BuildCLR1_dragonBookGrammar(t *testing.T) {
	assert := assert.New(t)
	g := dragonBookGrammar()

	table, err := BuildCLR1(g)
	assert.NoError(err)
	assert.NotNil(table)
}

func Test_BuildSLR_ambiguousGrammar_failsWithoutPrecedence(t *testing.T) {
	assert := assert.New(t)
	g := ambiguousExprGrammar()

	_, err := BuildSLR(g)
	assert.Error(err)
}

func Test_BuildSLR_ambiguousGrammar_resolvesWithPrecedence(t *testing.T) {
	assert := assert.New(t)
	g := ambiguousExprGrammar()
	g.Operators().Declare("+", grammar.AssocLeft, 1)
	g.Operators().Declare("*", grammar.AssocLeft, 2)

	table, err := BuildSLR(g)
	assert.NoError(err)
	assert.NotNil(table)
}

func Test_BuildAuto_reportsMode(t *testing.T) {
	assert := assert.New(t)
	g := dragonBookGrammar()

	_, mode, err := BuildAuto(g)
	assert.NoError(err)
	assert.Equal(ModeSLR, mode)
}
