package inspect

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/havtorn/sturgeon/builder"
	"github.com/havtorn/sturgeon/lexer"
)

func compileSumGrammar(t *testing.T) *builder.Compiled {
	t.Helper()
	c, err := builder.New().
		UseBNF(`E = E "+" "id" | "id" ;`).
		AddLexRule(lexer.Rule{Name: "+", Pattern: "+"}).
		AddLexRule(lexer.Rule{Name: "id", Pattern: `[a-z]+`, IsRegexp: true}).
		Build()
	assert.NoError(t, err)
	return c
}

func Test_Server_handleGrammar(t *testing.T) {
	assert := assert.New(t)
	c := compileSumGrammar(t)
	s := New(c, nil)

	req := httptest.NewRequest("GET", "/grammar", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(200, rec.Code)

	var body grammarView
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal("E", body.StartSymbol)
	assert.Contains(body.Terminals, "+")
	assert.Contains(body.Terminals, "id")
}

func Test_Server_handleParser(t *testing.T) {
	assert := assert.New(t)
	c := compileSumGrammar(t)
	s := New(c, nil)

	req := httptest.NewRequest("GET", "/parser", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(200, rec.Code)
	assert.Contains(rec.Body.String(), "startState")
}

func Test_Server_handleState_unknownState(t *testing.T) {
	assert := assert.New(t)
	c := compileSumGrammar(t)
	s := New(c, nil)

	req := httptest.NewRequest("GET", "/parser/states/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(200, rec.Code)
	assert.Contains(rec.Body.String(), `"action":{}`)
}
