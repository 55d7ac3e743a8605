package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseBNF_simpleAlternatives(t *testing.T) {
	assert := assert.New(t)

	cg, err := ParseBNF(`E = E "+" id | id ;`)
	assert.NoError(err)
	assert.Equal([]string{"+"}, cg.Terminals)
	assert.Len(cg.Productions, 2)
	assert.Equal("E", cg.Productions[0].Head)
	assert.Equal([]Element{symbolRef("E"), symbolRef("+"), symbolRef("id")}, cg.Productions[0].Body)
	assert.Equal([]Element{symbolRef("id")}, cg.Productions[1].Body)
}

func Test_ParseBNF_angleBracketNames(t *testing.T) {
	assert := assert.New(t)

	cg, err := ParseBNF(`<expr> = <expr> "+" <term> | <term> ;`)
	assert.NoError(err)
	assert.Equal("expr", cg.Productions[0].Head)
}

func Test_ParseBNF_missingDefine_fails(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseBNF(`E "+" id ;`)
	assert.Error(err)
}

func Test_ParseBNF_unterminatedString_fails(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseBNF(`E = "+ ;`)
	assert.Error(err)
}

func Test_ParseEBNF_groupOptionalRepeat(t *testing.T) {
	assert := assert.New(t)

	cg, err := ParseEBNF(`stmt = "if" cond [ "else" stmt ] { "elseif" cond } ( "then" | "do" ) ;`)
	assert.NoError(err)
	assert.Len(cg.Productions, 1)

	body := cg.Productions[0].Body
	assert.Equal(ElemSymbol, body[0].Kind)
	assert.Equal(ElemSymbol, body[1].Kind)
	assert.Equal(ElemOptional, body[2].Kind)
	assert.Equal(ElemRepeat, body[3].Kind)
	assert.Equal(ElemGroup, body[4].Kind)
	assert.Len(body[4].Alternatives, 2)
}

func Test_ParseEBNF_questionIsOptionalSugar(t *testing.T) {
	assert := assert.New(t)

	cg, err := ParseEBNF(`E = id "+"? ;`)
	assert.NoError(err)
	body := cg.Productions[0].Body
	assert.Equal(ElemOptional, body[1].Kind)
	assert.Equal([][]Element{{symbolRef("+")}}, body[1].Alternatives)
}

func Test_ParseEBNF_multiplicity(t *testing.T) {
	assert := assert.New(t)

	cg, err := ParseEBNF(`E = id * 3 ;`)
	assert.NoError(err)
	body := cg.Productions[0].Body
	assert.Equal(ElemMult, body[0].Kind)
	assert.Equal(3, body[0].Mult)
}

func Test_ParseEBNF_unclosedGroup_fails(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseEBNF(`E = ( "a" | "b" ;`)
	assert.Error(err)
}

func Test_ParseABNF_basicRule(t *testing.T) {
	assert := assert.New(t)

	cg, err := ParseABNF("expr = term \"+\" term\n")
	assert.NoError(err)
	assert.Len(cg.Productions, 1)
	assert.Equal("expr", cg.Productions[0].Head)
	assert.False(cg.Productions[0].Incremental)
}

func Test_ParseABNF_incrementalAlternative(t *testing.T) {
	assert := assert.New(t)

	cg, err := ParseABNF("digit = \"0\" / \"1\"\ndigit =/ \"2\"\n")
	assert.NoError(err)
	assert.Len(cg.Productions, 3)
	assert.False(cg.Productions[0].Incremental)
	assert.False(cg.Productions[1].Incremental)
	assert.True(cg.Productions[2].Incremental)
}

func Test_ParseABNF_continuationLine(t *testing.T) {
	assert := assert.New(t)

	cg, err := ParseABNF("rule = \"a\"\n  \"b\"\n")
	assert.NoError(err)
	assert.Len(cg.Productions, 1)
	assert.Len(cg.Productions[0].Body, 2)
}

func Test_IsValidIdent(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsValidIdent("expr-1"))
	assert.True(IsValidIdent("_foo"))
	assert.False(IsValidIdent("1foo"))
	assert.False(IsValidIdent("foo bar"))
}
