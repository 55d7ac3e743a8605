package lexer

import (
	"testing"

	"github.com/havtorn/sturgeon/errs"
	"github.com/stretchr/testify/assert"
)

func arithRules() []Rule {
	return []Rule{
		{Pattern: `[ \t\r\n]+`, IsRegexp: true, Discard: true},
		{Name: "num", Pattern: `[0-9]+(\.[0-9]+)?`, IsRegexp: true, Handler: func(lexeme string, _ []string) (any, error) {
			return lexeme, nil
		}},
		{Name: "+", Pattern: "+"},
		{Name: "-", Pattern: "-"},
		{Name: "*", Pattern: "*"},
		{Name: "/", Pattern: "/"},
		{Name: "(", Pattern: "("},
		{Name: ")", Pattern: ")"},
	}
}

func Test_Lexer_TokenCoverage_eventuallyEOF(t *testing.T) {
	assert := assert.New(t)
	lx, err := New(arithRules(), "$", nil)
	assert.NoError(err)
	lx.SetInput("2 + 3")

	var names []string
	for {
		tok, err := lx.NextToken(true)
		assert.NoError(err)
		names = append(names, tok.Name)
		if tok.Name == "$" {
			break
		}
	}
	assert.Equal([]string{"num", "+", "num", "$"}, names)

	// repeated calls after EOF also return EOF.
	tok, err := lx.NextToken(true)
	assert.NoError(err)
	assert.Equal("$", tok.Name)
}

func Test_Lexer_PeekDoesNotAdvance(t *testing.T) {
	assert := assert.New(t)
	lx, err := New(arithRules(), "$", nil)
	assert.NoError(err)
	lx.SetInput("42")

	peeked, err := lx.NextToken(false)
	assert.NoError(err)
	assert.Equal("num", peeked.Name)
	assert.Equal(0, lx.Pos())

	advanced, err := lx.NextToken(true)
	assert.NoError(err)
	assert.Equal(peeked, advanced)
	assert.Equal(2, lx.Pos())
}

func Test_Lexer_UnknownToken(t *testing.T) {
	assert := assert.New(t)
	lx, err := New(arithRules(), "$", nil)
	assert.NoError(err)
	lx.SetInput("2 @ 3")

	_, err = lx.NextToken(true) // "2"
	assert.NoError(err)
	_, err = lx.NextToken(true) // "@" unknown
	assert.Error(err)
	var unknownErr *errs.UnknownTokenError
	assert.ErrorAs(err, &unknownErr)
}

func Test_Lexer_ZeroLengthRuleIsFatal(t *testing.T) {
	assert := assert.New(t)
	rules := []Rule{
		{Name: "stars", Pattern: `\**`, IsRegexp: true},
	}
	lx, err := New(rules, "$", nil)
	assert.NoError(err)
	lx.SetInput("abc")

	_, err = lx.NextToken(true)
	assert.Error(err)
	var zl *errs.ZeroLengthError
	assert.ErrorAs(err, &zl)
}

func Test_Lexer_NameSelectorCanDiscard(t *testing.T) {
	assert := assert.New(t)
	rules := []Rule{
		{Name: "word", Pattern: `[a-zA-Z]+`, IsRegexp: true, NameSelector: func(value any, lexeme string) (string, bool) {
			if lexeme == "skip" {
				return "", false
			}
			return "word", true
		}},
		{Pattern: " ", Discard: true},
	}
	lx, err := New(rules, "$", nil)
	assert.NoError(err)
	lx.SetInput("foo skip bar")

	var names []string
	for {
		tok, err := lx.NextToken(true)
		assert.NoError(err)
		if tok.Name == "$" {
			break
		}
		names = append(names, tok.Name)
	}
	assert.Equal([]string{"word", "word"}, names)
}

func Test_Lexer_NameSelectorCanRename(t *testing.T) {
	assert := assert.New(t)
	rules := []Rule{
		{Name: "ident", Pattern: `[a-zA-Z]+`, IsRegexp: true, NameSelector: func(value any, lexeme string) (string, bool) {
			if lexeme == "if" {
				return "kw_if", true
			}
			return "ident", true
		}},
	}
	lx, err := New(rules, "$", nil)
	assert.NoError(err)
	lx.SetInput("if x")

	tok, err := lx.NextToken(true)
	assert.NoError(err)
	assert.Equal("kw_if", tok.Name)
}

func Test_Lexer_SeekNegativeIsFatalOnRead(t *testing.T) {
	assert := assert.New(t)
	lx, err := New(arithRules(), "$", nil)
	assert.NoError(err)
	lx.SetInput("42")
	lx.Seek(SeekAbsolute, -5)

	_, err = lx.NextToken(true)
	assert.Error(err)
	var seekErr *errs.SeekError
	assert.ErrorAs(err, &seekErr)
}

func Test_Lexer_PositionTracking(t *testing.T) {
	assert := assert.New(t)
	lx, err := New(arithRules(), "$", nil)
	assert.NoError(err)
	lx.SetInput("1\n22 +")

	_, err = lx.NextToken(true) // "1"
	assert.NoError(err)
	tok, err := lx.NextToken(true) // "22" on line 2
	assert.NoError(err)
	assert.Equal("num", tok.Name)
	assert.Equal(2, tok.Line)
	assert.Equal(1, tok.Col)
}
