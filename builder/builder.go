// Package builder assembles a grammar notation, a lexer rule set, user
// handlers, and generator options into a compiled front-end: a facade
// gluing lex -> parse -> evaluate into one call, built around this repo's
// own notation/lower/lr/driver pipeline.
package builder

import (
	"fmt"

	"github.com/havtorn/sturgeon/config"
	"github.com/havtorn/sturgeon/driver"
	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/lexer"
	"github.com/havtorn/sturgeon/lower"
	"github.com/havtorn/sturgeon/lr"
	"github.com/havtorn/sturgeon/notation"
)

// Builder accumulates a grammar source, lexer rules, user handlers, and
// options, failing lazily: the first error encountered by any With*/Use*
// call is remembered and returned by Build, so call chains never need an
// err check between every step.
type Builder struct {
	g       grammar.Grammar
	ids     []int
	lexRule []lexer.Rule
	eofName string
	eofVal  any
	handler []grammar.UserHandler
	opts    config.GeneratorOptions
	err     error
}

// New returns a Builder with the documented defaults: auto table mode,
// error on unresolved shift/reduce conflicts, and "$" as the EOF token name.
func New() *Builder {
	return &Builder{opts: config.Default(), eofName: "$"}
}

// UseBNF parses src as plain BNF and lowers it (trivially: BNF has no
// compound elements) into the working grammar.
func (b *Builder) UseBNF(src string) *Builder {
	return b.use(notation.ParseBNF(src))
}

// UseEBNF parses src as EBNF (groups, optionals, repeats, fixed
// multiplicity) and lowers every compound element into plain productions
// via package lower.
func (b *Builder) UseEBNF(src string) *Builder {
	return b.use(notation.ParseEBNF(src))
}

// UseABNF parses src as the supported ABNF subset (no numeric range
// interpretation, no grouping/optional operators) and lowers it the same
// way.
func (b *Builder) UseABNF(src string) *Builder {
	return b.use(notation.ParseABNF(src))
}

func (b *Builder) use(cg notation.ComplexGrammar, err error) *Builder {
	if b.err != nil {
		return b
	}
	if err != nil {
		b.err = fmt.Errorf("builder: parsing grammar source: %w", err)
		return b
	}
	g, ids, err := lower.Lower(cg)
	if err != nil {
		b.err = fmt.Errorf("builder: lowering grammar: %w", err)
		return b
	}
	b.g = g
	b.ids = ids
	return b
}

// AddLexRule appends one lexical rule. Rules are tried in the order added
// and the first one that matches at the current position wins, whatever
// the length of a later rule's match.
func (b *Builder) AddLexRule(r lexer.Rule) *Builder {
	b.lexRule = append(b.lexRule, r)
	return b
}

// AddLexRules appends every rule in rs, in order.
func (b *Builder) AddLexRules(rs ...lexer.Rule) *Builder {
	b.lexRule = append(b.lexRule, rs...)
	return b
}

// WithEOF overrides the end-of-input token name and value the lexer reports
// once the input is exhausted (default: name "$", value nil).
func (b *Builder) WithEOF(name string, value any) *Builder {
	b.eofName = name
	b.eofVal = value
	return b
}

// WithOptions replaces the generator options (table mode, shift/reduce
// fallback policy, handler purity strictness) used by Build.
func (b *Builder) WithOptions(o config.GeneratorOptions) *Builder {
	b.opts = o
	return b
}

// WithHandlers binds fns in order onto the productions synthesized from the
// top-level alternatives of the grammar source, in the order they appeared
// there (notation.ComplexGrammar.Productions order, which UseBNF/UseEBNF/
// UseABNF preserve through lower.Lower's returned ids). A caller with fewer
// handlers than alternatives only binds a prefix; unbound productions keep
// whatever handler lowering already attached (structural, for a synthesized
// compound rule) or default to identity.
func (b *Builder) WithHandlers(fns ...grammar.UserHandler) *Builder {
	if b.err != nil {
		return b
	}
	for i, fn := range fns {
		if i >= len(b.ids) {
			b.err = fmt.Errorf("builder: handler %d has no corresponding grammar alternative (only %d declared)", i, len(b.ids))
			return b
		}
		idx := len(b.handler)
		b.handler = append(b.handler, fn)
		b.g.SetHandler(b.ids[i], grammar.Handler(idx))
	}
	return b
}

// Operators exposes the operator-precedence table so a caller can declare
// associativity and precedence before Build constructs the parse table.
func (b *Builder) Operators() *grammar.Operators {
	return b.g.Operators()
}

// Build validates the accumulated options, constructs the lexer and the
// ACTION/GOTO table (per the requested Mode, falling back through
// SLR -> LALR(1) -> canonical LR(1) under ModeAuto), and returns a Compiled
// front-end ready to parse input.
func (b *Builder) Build() (*Compiled, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.opts.Validate(); err != nil {
		return nil, err
	}

	lx, err := lexer.New(b.lexRule, b.eofName, b.eofVal)
	if err != nil {
		return nil, fmt.Errorf("builder: constructing lexer: %w", err)
	}
	covered, renames := map[string]bool{}, false
	for _, r := range b.lexRule {
		covered[r.Name] = true
		renames = renames || r.NameSelector != nil
	}
	for _, term := range b.g.Terminals() {
		if !renames && !covered[term] {
			return nil, fmt.Errorf("builder: terminal %q has no lexer rule", term)
		}
	}

	policy := b.opts.LRPolicy()
	var table *lr.Table
	switch b.opts.Mode {
	case config.ModeSLR:
		table, err = lr.BuildSLRWithPolicy(b.g, policy)
	case config.ModeLALR1:
		table, err = lr.BuildLALR1WithPolicy(b.g, policy)
	case config.ModeCLR1:
		table, err = lr.BuildCLR1WithPolicy(b.g, policy)
	default:
		table, _, err = lr.BuildAutoWithPolicy(b.g, policy)
	}
	if err != nil {
		return nil, fmt.Errorf("builder: constructing parse table: %w", err)
	}

	return &Compiled{
		g:       b.g,
		table:   table,
		lx:      lx,
		handler: append([]grammar.UserHandler(nil), b.handler...),
	}, nil
}

// Compiled is a finished front-end: a grammar, its parse table, a lexer,
// and the bound user handlers, ready to parse many inputs without
// recompiling.
type Compiled struct {
	g       grammar.Grammar
	table   *lr.Table
	lx      *lexer.Lexer
	handler []grammar.UserHandler
}

// Mode reports which table-construction algorithm actually produced Table,
// useful when the Builder was run under ModeAuto.
func (c *Compiled) Mode() lr.Mode { return c.table.Mode }

// Grammar returns the plain grammar the front-end was compiled from (after
// EBNF/ABNF lowering).
func (c *Compiled) Grammar() grammar.Grammar { return c.g }

// Table returns the compiled ACTION/GOTO table.
func (c *Compiled) Table() *lr.Table { return c.table }

// Lexer returns the compiled lexer, shared across calls: callers that need
// their own seek/reset state (e.g. a REPL re-lexing the same input after an
// edit) should treat it as reset by each SetInput call rather than copying
// it.
func (c *Compiled) Lexer() *lexer.Lexer { return c.lx }

// Handlers returns the user handlers bound by WithHandlers, indexed exactly
// as grammar.HandlerRef.Index references them. The slice is the copy Build
// made for this Compiled and is shared by every call; callers must not
// mutate it.
func (c *Compiled) Handlers() []grammar.UserHandler { return c.handler }

// ParseString lexes and parses input, invoking bound handlers (or the
// identity default) at each reduce, per package driver's shift-reduce loop
// (Dragon Book Algorithm 4.44).
func (c *Compiled) ParseString(input string, ctx any) (any, error) {
	c.lx.SetInput(input)
	p := driver.New(c.g, c.table, c.handler)
	return p.Parse(c.lx, ctx)
}

// ParseStringTraced behaves like ParseString, additionally invoking trace
// with a one-line description of every shift and reduce step, for a REPL's
// shift-reduce trace display.
func (c *Compiled) ParseStringTraced(input string, ctx any, trace func(string)) (any, error) {
	c.lx.SetInput(input)
	p := driver.New(c.g, c.table, c.handler)
	return p.ParseTraced(c.lx, ctx, trace)
}
