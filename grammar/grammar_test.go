package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mustParseRule parses "HEAD -> alt1 sym | alt2 | ε" into a Rule, the same
// shorthand the rest of the package's String() methods produce, so fixtures
// below can be written as plain strings instead of nested struct literals.
func mustParseRule(s string) Rule {
	sides := strings.SplitN(s, "->", 2)
	if len(sides) != 2 {
		panic("not a rule of form 'HEAD -> alt1 | alt2': " + s)
	}
	head := strings.TrimSpace(sides[0])

	r := Rule{NonTerminal: head}
	for _, alt := range strings.Split(sides[1], "|") {
		alt = strings.TrimSpace(alt)
		if alt == "" || alt == "ε" {
			r.Productions = append(r.Productions, Production{})
			continue
		}
		r.Productions = append(r.Productions, Production{Symbols: strings.Fields(alt)})
	}
	return r
}

// setupGrammar builds a Grammar from plain terminal names and "HEAD -> ..."
// rule strings.
func setupGrammar(terminals []string, rules []string) Grammar {
	g := Grammar{}
	for _, term := range terminals {
		g.AddTerm(term, term)
	}
	for _, r := range rules {
		parsed := mustParseRule(r)
		for _, p := range parsed.Productions {
			g.AddRule(parsed.NonTerminal, p.Symbols)
		}
	}
	return g
}

func Test_Grammar_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		terminals []string
		rules     []string
		expectErr bool
	}{
		{
			name:      "empty grammar",
			expectErr: true,
		},
		{
			name:      "no rules in grammar",
			terminals: []string{"int"},
			expectErr: true,
		},
		{
			name:      "no terms in grammar",
			rules:     []string{"S -> s"},
			expectErr: true,
		},
		{
			name:      "production references undefined symbol",
			terminals: []string{"int"},
			rules:     []string{"S -> int X"},
			expectErr: true,
		},
		{
			name:      "single rule grammar",
			terminals: []string{"int"},
			rules:     []string{"S -> int"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			g := setupGrammar(tc.terminals, tc.rules)
			actual := g.Validate()
			if tc.expectErr {
				assert.Error(actual)
			} else {
				assert.NoError(actual)
			}
		})
	}
}

func Test_Grammar_FIRST(t *testing.T) {
	terminals := []string{"p", "g", "b", "a", "q", "s", "d", "f", "m"}
	rules := []string{
		"S -> K L p | g Q K",
		"K -> b L Q T | ε",
		"L -> Q a K | Q K | q a",
		"Q -> d s | ε",
		"T -> g S f | m",
	}

	testCases := []struct {
		name   string
		first  string
		expect []string
	}{
		{name: "T", first: "T", expect: []string{"g", "m"}},
		{name: "Q", first: "Q", expect: []string{"d", ""}},
		{name: "K", first: "K", expect: []string{"b", ""}},
		{name: "L", first: "L", expect: []string{"d", "", "q", "a", "b"}},
		{name: "S", first: "S", expect: []string{"b", "d", "q", "a", "p", "g"}},
	}

	g := setupGrammar(terminals, rules)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			actual := g.FIRST(tc.first)
			assert.ElementsMatch(tc.expect, actual.Elements())
		})
	}
}

func Test_Grammar_FOLLOW(t *testing.T) {
	terminals := []string{"a", "h", "c", "b", "g", "f"}
	rules := []string{
		"S -> a B D h",
		"B -> c C",
		"C -> b C | ε",
		"D -> E F",
		"E -> g | ε",
		"F -> f | ε",
	}

	testCases := []struct {
		name   string
		follow string
		expect []string
	}{
		{name: "S", follow: "S", expect: []string{"$"}},
		{name: "B", follow: "B", expect: []string{"g", "f", "h"}},
		{name: "C", follow: "C", expect: []string{"g", "f", "h"}},
		{name: "D", follow: "D", expect: []string{"h"}},
		{name: "E", follow: "E", expect: []string{"f", "h"}},
		{name: "F", follow: "F", expect: []string{"h"}},
	}

	g := setupGrammar(terminals, rules)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			actual := g.FOLLOW(tc.follow)
			assert.ElementsMatch(tc.expect, actual.Elements())
		})
	}
}

func Test_Grammar_Augmented(t *testing.T) {
	assert := assert.New(t)

	g := setupGrammar([]string{"int"}, []string{"S -> int"})
	aug := g.Augmented()

	assert.Equal("__GLOBAL", aug.StartSymbol())
	assert.Equal([]string{"S"}, aug.Rule("__GLOBAL").Productions[0].Symbols)
}

func Test_Grammar_Augmented_avoidsNameCollision(t *testing.T) {
	assert := assert.New(t)

	g := setupGrammar([]string{"int"}, []string{
		"__GLOBAL -> int",
		"S -> __GLOBAL",
	})
	g.SetStartSymbol("S")

	aug := g.Augmented()

	assert.Equal("__GLOBAL_1", aug.StartSymbol())
}

func assertIdenticalProductionSets(a *assert.Assertions, expect, actual Grammar) {
	expectNT := expect.NonTerminals()
	actualNT := actual.NonTerminals()
	if !a.ElementsMatch(expectNT, actualNT, "grammars do not have the same non-terminals") {
		return
	}
	for _, nt := range expectNT {
		exp := expect.Rule(nt)
		act := actual.Rule(nt)
		a.ElementsMatchf(exp.Productions, act.Productions, "expected rule %q to have same production set as %q", exp.String(), act.String())
	}
}

func Test_Grammar_Copy(t *testing.T) {
	assert := assert.New(t)

	g := setupGrammar([]string{"a", "b"}, []string{"S -> a S b | ε"})
	g.Operators().Declare("a", AssocLeft, 1)

	cp := g.Copy()
	assertIdenticalProductionSets(assert, g, cp)
	assert.Equal(g.Operators().Len(), cp.Operators().Len())

	cp.AddRule("T", []string{"a"})
	assert.False(g.IsNonTerminal("T"), "mutating the copy must not affect the original")
}
