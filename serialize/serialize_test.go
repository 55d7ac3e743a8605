package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/lexer"
	"github.com/havtorn/sturgeon/lr"
)

func sumGrammar() grammar.Grammar {
	g := grammar.Grammar{}
	g.AddTerm("+", "+")
	g.AddTerm("id", "identifier")
	g.AddRule("E", []string{"E", "+", "id"})
	g.AddRule("E", []string{"id"})
	g.SetStartSymbol("E")
	return g
}

func Test_SerializeParser_deserializeParser_roundTrip(t *testing.T) {
	assert := assert.New(t)
	g := sumGrammar()

	table, err := lr.BuildLALR1(g)
	assert.NoError(err)

	sp := SerializeParser(g, table, nil)
	assert.Equal(table.Mode.String(), sp.ActionMode)
	assert.Equal(len(table.States()), sp.NumStates)

	gotTable, handlers, err := DeserializeParser(sp, NewBuiltins())
	assert.NoError(err)
	assert.NotNil(gotTable)
	assert.Equal(table.Mode, gotTable.Mode)
	assert.Len(handlers, 0)

	// state names are renumbered on the way through, so the rebuilt table
	// is checked here only for having a start state.
	start := gotTable.Initial()
	assert.NotEmpty(start)
}

func Test_SerializeParser_unknownHandlerBuiltin_fails(t *testing.T) {
	assert := assert.New(t)
	g := sumGrammar()

	table, err := lr.BuildLALR1(g)
	assert.NoError(err)

	sp := SerializeParser(g, table, []string{"nope"})
	_, _, err = DeserializeParser(sp, NewBuiltins())
	assert.Error(err)
}

func Test_SerializeLexer_deserializeLexer_roundTrip(t *testing.T) {
	assert := assert.New(t)

	b := NewBuiltins()
	b.RegisterLexerHandler("upper", func(lexeme string, groups []string) (any, error) {
		return lexeme, nil
	})

	sources := []LexerSource{
		{Rule: lexer.Rule{Name: "id", Pattern: `[a-z]+`, IsRegexp: true}, HandlerBuiltin: "upper"},
		{Rule: lexer.Rule{Name: "ws", Pattern: ` `, Discard: true}},
	}
	sl := SerializeLexer(sources, "$", nil, "")
	assert.Len(sl.Records, 2)
	assert.Equal("upper", sl.Records[0].Handler.BuiltinID)
	assert.Nil(sl.Records[1].Handler)

	lx, err := DeserializeLexer(sl, b)
	assert.NoError(err)
	assert.NotNil(lx)
}

func Test_SerializeLexer_unknownBuiltin_fails(t *testing.T) {
	assert := assert.New(t)

	sources := []LexerSource{
		{Rule: lexer.Rule{Name: "id", Pattern: `[a-z]+`, IsRegexp: true}, HandlerBuiltin: "missing"},
	}
	sl := SerializeLexer(sources, "$", nil, "")

	_, err := DeserializeLexer(sl, NewBuiltins())
	assert.Error(err)
}

func Test_EncodeDecodeParserBinary_roundTrip(t *testing.T) {
	assert := assert.New(t)
	g := sumGrammar()

	table, err := lr.BuildLALR1(g)
	assert.NoError(err)

	sp := SerializeParser(g, table, nil)
	data := EncodeParserBinary(sp)
	assert.NotEmpty(data)

	got, err := DecodeParserBinary(data)
	assert.NoError(err)
	assert.Equal(sp.NumStates, got.NumStates)
	assert.Equal(sp.StartState, got.StartState)
	assert.Equal(sp.ActionMode, got.ActionMode)
}

func Test_EncodeDecodeLexerBinary_roundTrip(t *testing.T) {
	assert := assert.New(t)

	sources := []LexerSource{
		{Rule: lexer.Rule{Name: "id", Pattern: `[a-z]+`, IsRegexp: true}},
	}
	sl := SerializeLexer(sources, "$", "EOF-MARKER", "")

	data, err := EncodeLexerBinary(sl)
	assert.NoError(err)

	got, err := DecodeLexerBinary(data)
	assert.NoError(err)
	assert.Equal(sl.EOFName, got.EOFName)
	assert.Equal(sl.EOFValue, got.EOFValue)
	assert.Len(got.Records, 1)
}
