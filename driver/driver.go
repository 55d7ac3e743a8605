// Package driver implements the shift-reduce parse loop: a stack of
// (state, value) frames driven by an ACTION/GOTO table, invoking user
// handlers on reduce and yielding the start symbol's computed value on
// accept.
//
// This is the classic Dragon Book Algorithm 4.44 shift-reduce loop over a
// util.Stack of states, collapsed into a single stack of (state, value)
// frames rather than a separate parallel token/subtree bookkeeping stack,
// since this driver produces a handler-reduced value rather than a parse
// tree: at runtime only the tables, the handler array, and the symbol
// table are live.
package driver

import (
	"fmt"

	"github.com/havtorn/sturgeon/errs"
	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/lexer"
	"github.com/havtorn/sturgeon/lr"
	"github.com/havtorn/sturgeon/util"
)

// TokenSource is anything the driver can pull tokens from. *lexer.Lexer
// satisfies it directly; tests substitute fixed token sequences.
type TokenSource interface {
	NextToken(advance bool) (lexer.Token, error)
}

// frame is one (state, value) pair on the parse stack: (state_id,
// token_or_synthetic). Name is the symbol name the value
// is currently tagged with: the lexed token's class name while still a
// terminal, or the reducing production's head once synthesized.
type frame struct {
	state string
	name  string
	value any
}

// Parser drives one grammar's compiled table against a token source,
// invoking grammar.UserHandlers on every reduce.
type Parser struct {
	g        grammar.Grammar
	table    *lr.Table
	handlers []grammar.UserHandler
}

// New returns a Parser for g's compiled table, with user handlers indexed
// by grammar.HandlerRef.Index.
func New(g grammar.Grammar, table *lr.Table, handlers []grammar.UserHandler) *Parser {
	return &Parser{g: g, table: table, handlers: handlers}
}

// Parse runs the shift-reduce loop to completion, returning the
// value the start symbol reduced to, or a *errs.UnexpectedTokenError if the
// ACTION table has no entry (or an explicit Error action) for the current
// (state, lookahead) pair.
//
// ctx is passed through to every user handler as its first argument: an
// optional user "context" made available as the receiver.
func (p *Parser) Parse(src TokenSource, ctx any) (any, error) {
	return p.parse(src, ctx, nil)
}

// ParseTraced behaves exactly like Parse, additionally invoking trace (if
// non-nil) with a one-line human-readable description of every shift and
// reduce step as it happens, for a REPL's shift-reduce trace display.
func (p *Parser) ParseTraced(src TokenSource, ctx any, trace func(string)) (any, error) {
	return p.parse(src, ctx, trace)
}

func (p *Parser) parse(src TokenSource, ctx any, trace func(string)) (any, error) {
	stack := util.Stack[frame]{}
	stack.Push(frame{state: p.table.Initial()})

	a, err := src.NextToken(true)
	if err != nil {
		return nil, err
	}

	for {
		top := stack.Peek()
		act := p.table.Action(top.state, a.Name)

		switch act.Type {
		case lr.Shift:
			if trace != nil {
				trace(fmt.Sprintf("shift %s %q -> state %s", a.Name, a.Lexeme, act.State))
			}
			stack.Push(frame{state: act.State, name: a.Name, value: a.Value})
			a, err = src.NextToken(true)
			if err != nil {
				return nil, err
			}

		case lr.Reduce:
			n := len(act.Body)
			args := make([]any, n)
			for i := 0; i < n; i++ {
				args[i] = stack.Of[len(stack.Of)-n+i].value
			}
			for i := 0; i < n; i++ {
				stack.Pop()
			}

			result, err := p.invoke(act.ProductionID, ctx, args)
			if err != nil {
				return nil, err
			}

			newTop := stack.Peek()
			next, ok := p.table.Goto(newTop.state, act.Head)
			if !ok {
				return nil, &errs.InvalidProductionIndexError{Index: act.ProductionID, Where: "GOTO lookup after reduce"}
			}
			if trace != nil {
				trace(fmt.Sprintf("reduce %s -> %s -> state %s", act.Head, grammar.Production{Symbols: act.Body}.String(), next))
			}
			stack.Push(frame{state: next, name: act.Head, value: result})

		case lr.Accept:
			if trace != nil {
				trace("accept")
			}
			return stack.Peek().value, nil

		default:
			return nil, p.unexpectedToken(top.state, a)
		}
	}
}

// invoke resolves and calls the handler attached to the production with the
// given global id: a HandlerModifier chain, a plain user handler
// index, or identity if neither is set.
func (p *Parser) invoke(prodID int, ctx any, args []any) (any, error) {
	_, prod, ok := p.g.ProductionByID(prodID)
	if !ok {
		return nil, &errs.InvalidProductionIndexError{Index: prodID, Where: "reduce"}
	}

	callUser := func(idx int, args []any) (any, error) {
		if idx < 0 || idx >= len(p.handlers) || p.handlers[idx] == nil {
			return append([]any(nil), args...), nil
		}
		return p.handlers[idx](ctx, args)
	}

	if prod.Handler.Modifier != nil {
		return grammar.Eval(prod.Handler.Modifier, args, callUser)
	}
	if prod.Handler.HasIndex {
		return callUser(prod.Handler.Index, args)
	}
	return append([]any(nil), args...), nil
}

// unexpectedToken builds the ParseFailure/UnexpectedToken (or
// UnexpectedEOF) error for a dead ACTION cell, including a human-readable
// "expected one of ..." list.
func (p *Parser) unexpectedToken(state string, a lexer.Token) *errs.UnexpectedTokenError {
	var expected []string
	for _, term := range p.table.Terminals() {
		if p.table.Action(state, term).Type != lr.Error {
			expected = append(expected, term)
		}
	}

	return &errs.UnexpectedTokenError{
		TokenName: a.Name,
		Lexeme:    a.Lexeme,
		Pos:       errs.Position{Byte: a.Pos, Line: a.Line, Col: a.Col},
		State:     state,
		Expected:  expected,
		Reason:    p.table.Action(state, a.Name).Message,
	}
}
