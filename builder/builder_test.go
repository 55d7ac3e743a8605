package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/havtorn/sturgeon/lexer"
)

func Test_Builder_Build_simpleGrammar_parsesInput(t *testing.T) {
	assert := assert.New(t)

	c, err := New().
		UseBNF(`E = E "+" "id" | "id" ;`).
		AddLexRule(lexer.Rule{Name: "+", Pattern: "+"}).
		AddLexRule(lexer.Rule{Name: "id", Pattern: `[a-z]+`, IsRegexp: true}).
		Build()
	assert.NoError(err)
	assert.NotNil(c)

	result, err := c.ParseString("a+b+c", nil)
	assert.NoError(err)
	assert.NotNil(result)
}

func Test_Builder_WithHandlers_invoked(t *testing.T) {
	assert := assert.New(t)

	var sawCtx any
	c, err := New().
		UseBNF(`E = E "+" "id" | "id" ;`).
		AddLexRule(lexer.Rule{Name: "+", Pattern: "+"}).
		AddLexRule(lexer.Rule{Name: "id", Pattern: `[a-z]+`, IsRegexp: true}).
		WithHandlers(
			func(ctx any, args []any) (any, error) {
				sawCtx = ctx
				return "sum", nil
			},
			func(ctx any, args []any) (any, error) {
				return args[0], nil
			},
		).
		Build()
	assert.NoError(err)

	result, err := c.ParseString("a+b", "marker")
	assert.NoError(err)
	assert.Equal("sum", result)
	assert.Equal("marker", sawCtx)
}

func Test_Builder_WithHandlers_tooMany_fails(t *testing.T) {
	assert := assert.New(t)

	_, err := New().
		UseBNF(`E = "id" ;`).
		AddLexRule(lexer.Rule{Name: "id", Pattern: `[a-z]+`, IsRegexp: true}).
		WithHandlers(
			func(ctx any, args []any) (any, error) { return nil, nil },
			func(ctx any, args []any) (any, error) { return nil, nil },
		).
		Build()
	assert.Error(err)
}

func Test_Builder_UseBNF_parseError_propagates(t *testing.T) {
	assert := assert.New(t)

	_, err := New().
		UseBNF(`this is not valid bnf +++ ===`).
		Build()
	assert.Error(err)
}

func Test_Builder_Build_missingLexRule_fails(t *testing.T) {
	assert := assert.New(t)

	_, err := New().
		UseBNF(`E = "id" ;`).
		Build()
	assert.Error(err)
}

func Test_Compiled_accessors(t *testing.T) {
	assert := assert.New(t)

	c, err := New().
		UseBNF(`E = "id" ;`).
		AddLexRule(lexer.Rule{Name: "id", Pattern: `[a-z]+`, IsRegexp: true}).
		Build()
	assert.NoError(err)

	assert.NotNil(c.Grammar())
	assert.NotNil(c.Table())
	assert.NotNil(c.Lexer())
	assert.Empty(c.Handlers())
}

func Test_Compiled_ParseStringTraced_reportsSteps(t *testing.T) {
	assert := assert.New(t)

	c, err := New().
		UseBNF(`E = E "+" "id" | "id" ;`).
		AddLexRule(lexer.Rule{Name: "+", Pattern: "+"}).
		AddLexRule(lexer.Rule{Name: "id", Pattern: `[a-z]+`, IsRegexp: true}).
		Build()
	assert.NoError(err)

	var steps []string
	_, err = c.ParseStringTraced("a+b", nil, func(msg string) {
		steps = append(steps, msg)
	})
	assert.NoError(err)
	assert.NotEmpty(steps)
}
