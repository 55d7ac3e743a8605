package lower

import (
	"testing"

	"github.com/havtorn/sturgeon/driver"
	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/lexer"
	"github.com/havtorn/sturgeon/lr"
	"github.com/havtorn/sturgeon/notation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAndParse(t *testing.T, g grammar.Grammar, lx *lexer.Lexer) any {
	t.Helper()
	table, _, err := lr.BuildAuto(g)
	require.NoError(t, err)
	p := driver.New(g, table, nil)
	result, err := p.Parse(lx, nil)
	require.NoError(t, err)
	return result
}

func newLexer(t *testing.T, input string, rules []lexer.Rule) *lexer.Lexer {
	t.Helper()
	lx, err := lexer.New(rules, "$", nil)
	require.NoError(t, err)
	lx.SetInput(input)
	return lx
}

func Test_Lower_Group_AlternativesAllAccepted(t *testing.T) {
	cg, err := notation.ParseEBNF(`item = ("a" | "b") "x" ;`)
	require.NoError(t, err)
	g, _, err := Lower(cg)
	require.NoError(t, err)

	// the synthesized group non-terminal should carry exactly the two
	// alternatives, not a third.
	var groupHead string
	for _, nt := range g.NonTerminals() {
		if nt != "item" {
			groupHead = nt
		}
	}
	require.NotEmpty(t, groupHead)
	assert.Len(t, g.Rule(groupHead).Productions, 2)

	rules := []lexer.Rule{
		{Name: "a", Pattern: "a"},
		{Name: "b", Pattern: "b"},
		{Name: "x", Pattern: "x"},
		{Pattern: `\s+`, IsRegexp: true, Discard: true},
	}
	buildAndParse(t, g, newLexer(t, "a x", rules))
	buildAndParse(t, g, newLexer(t, "b x", rules))

	table, _, err := lr.BuildAuto(g)
	require.NoError(t, err)
	p := driver.New(g, table, nil)
	_, err = p.Parse(newLexer(t, "x", rules), nil)
	assert.Error(t, err, "neither alternative present should fail to parse")
}

func Test_Lower_Optional_PresentVsAbsent(t *testing.T) {
	cg, err := notation.ParseEBNF(`opt = "x" ["y"] ;`)
	require.NoError(t, err)
	g, _, err := Lower(cg)
	require.NoError(t, err)

	rules := []lexer.Rule{
		{Name: "x", Pattern: "x"},
		{Name: "y", Pattern: "y"},
		{Pattern: `\s+`, IsRegexp: true, Discard: true},
	}

	present := buildAndParse(t, g, newLexer(t, "x y", rules)).([]any)
	optVal := present[1].([]any)
	assert.Equal(t, "y", optVal[0])

	absent := buildAndParse(t, g, newLexer(t, "x", rules)).([]any)
	optValAbsent := absent[1].([]any)
	assert.Nil(t, optValAbsent[0])
}

func Test_Lower_Repeat_PreservesOrder(t *testing.T) {
	cg, err := notation.ParseEBNF(`list = NUM { COMMA NUM } ;`)
	require.NoError(t, err)
	g, _, err := Lower(cg)
	require.NoError(t, err)
	assert.True(t, g.IsTerminal("NUM"))
	assert.True(t, g.IsTerminal("COMMA"))

	rules := []lexer.Rule{
		{Name: "NUM", Pattern: `[0-9]+`, IsRegexp: true},
		{Name: "COMMA", Pattern: ","},
	}

	got := buildAndParse(t, g, newLexer(t, "1,2,3", rules)).([]any)
	first := got[0].(string)
	rest := got[1].([]any)
	assert.Equal(t, "1", first)

	var nums []string
	for i := 1; i < len(rest); i += 2 {
		nums = append(nums, rest[i].(string))
	}
	assert.Equal(t, []string{"2", "3"}, nums)
}

func Test_Lower_Incremental_RequiresBaseRule(t *testing.T) {
	cg := notation.ComplexGrammar{
		Terminals: []string{"b"},
		Productions: []notation.ComplexProduction{
			{Head: "rule", Body: []notation.Element{}, Incremental: true},
		},
	}
	_, _, err := Lower(cg)
	assert.Error(t, err)
}

func Test_Lower_Incremental_MergesIntoBaseRule(t *testing.T) {
	cg := notation.ComplexGrammar{
		Terminals: []string{"a", "b"},
		Productions: []notation.ComplexProduction{
			{Head: "rule", Body: []notation.Element{{Kind: notation.ElemSymbol, Symbol: "a"}}},
			{Head: "rule", Body: []notation.Element{{Kind: notation.ElemSymbol, Symbol: "b"}}, Incremental: true},
		},
	}
	g, _, err := Lower(cg)
	require.NoError(t, err)
	assert.Len(t, g.Rule("rule").Productions, 2)
}

func Test_Lower_Dedup_IdenticalGroupsShareOneRule(t *testing.T) {
	cg, err := notation.ParseEBNF(`
		one = ("a" | "b") "x" ;
		two = ("a" | "b") "y" ;
	`)
	require.NoError(t, err)
	g, _, err := Lower(cg)
	require.NoError(t, err)

	groupCount := 0
	for _, nt := range g.NonTerminals() {
		if nt != "one" && nt != "two" {
			groupCount++
		}
	}
	assert.Equal(t, 1, groupCount, "identical group bodies should share one synthesized non-terminal")
}

func Test_Lower_Mult_FixedRepetitionCount(t *testing.T) {
	cg, err := notation.ParseEBNF(`triplet = "a" * 3 ;`)
	require.NoError(t, err)
	g, _, err := Lower(cg)
	require.NoError(t, err)

	rules := []lexer.Rule{{Name: "a", Pattern: "a"}}
	got := buildAndParse(t, g, newLexer(t, "aaa", rules)).([]any)
	multVal := got[0].([]any)
	assert.Len(t, multVal, 3)

	table, _, err := lr.BuildAuto(g)
	require.NoError(t, err)
	p := driver.New(g, table, nil)
	_, err = p.Parse(newLexer(t, "aa", rules), nil)
	assert.Error(t, err, "fewer than 3 repetitions should fail to parse")
}
