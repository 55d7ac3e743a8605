// Package lower rewrites the EBNF/ABNF-flavored ComplexGrammar IR that
// package notation's front-ends produce into a plain grammar.Grammar: every
// compound element (group, optional, repeat, fixed multiplicity) becomes a
// fresh non-terminal with its own plain productions, wired with the
// HandlerModifier adapter chains from package grammar so a reduce over the
// synthesized rule still yields the value a caller expects.
//
// Uses its own freshName, mirroring the collision-avoiding naming scheme of
// grammar.Augmented (grammar/grammar.go), and the classic EBNF-to-BNF worklist
// rewrite: group -> one rule per alternative, `[X]` -> present/epsilon
// pair, `{X}` -> left-recursive accumulate/base pair.
package lower

import (
	"fmt"
	"strings"

	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/notation"
)

// lowering carries the state threaded through one Lower call: the grammar
// under construction, the set of names already spoken for (heads,
// terminals, and synthesized non-terminals) so fresh names never collide,
// every bare symbol name referenced anywhere in a body (to later infer
// implicit terminals), and a dedup cache so two structurally identical
// compound sub-expressions share one synthesized rule instead of each
// getting their own copy.
type lowering struct {
	g   *grammar.Grammar
	heads    map[string]bool
	declared map[string]bool
	refs     map[string]bool
	dedup    map[string]string
}

// Lower converts cg into a plain grammar.Grammar, plus the global production
// id assigned to each of cg.Productions in order (ids[i] is where
// cg.Productions[i] landed in the output grammar) — package builder uses
// this to retrofit a caller-supplied handler function onto the production
// for a specific textual alternative via grammar.Grammar.SetHandler, since
// lowering itself only ever attaches structural HandlerModifier chains.
//
// The first production's head becomes the start symbol, set before any
// synthesized rule is added so fresh non-terminals never hijack the default
// "head of the first rule" inference (grammar.Grammar.StartSymbol).
func Lower(cg notation.ComplexGrammar) (g grammar.Grammar, ids []int, err error) {
	gp := &grammar.Grammar{}
	lw := &lowering{
		g:        gp,
		heads:    map[string]bool{},
		declared: map[string]bool{},
		refs:     map[string]bool{},
		dedup:    map[string]string{},
	}

	for _, t := range cg.Terminals {
		gp.AddTerm(t, t)
		lw.declared[t] = true
	}
	for _, p := range cg.Productions {
		lw.heads[p.Head] = true
		lw.declared[p.Head] = true
	}

	if err := checkIncremental(cg); err != nil {
		return grammar.Grammar{}, nil, err
	}

	if len(cg.Productions) > 0 {
		gp.SetStartSymbol(cg.Productions[0].Head)
	}

	ids = make([]int, len(cg.Productions))
	for i, p := range cg.Productions {
		body, err := lw.lowerBody(p.Body)
		if err != nil {
			return grammar.Grammar{}, nil, err
		}
		ids[i] = gp.AddRule(p.Head, body)
	}

	// Any symbol referenced in a body that is never the head of a rule and
	// never an explicit (quoted-string) terminal is an implicit bare
	// terminal, e.g. a BNF/EBNF identifier like NUMBER or IDENT that names a
	// token class rather than a non-terminal.
	for name := range lw.refs {
		if !lw.heads[name] && !gp.IsTerminal(name) {
			gp.AddTerm(name, name)
		}
	}

	return *gp, ids, nil
}

// checkIncremental rejects an ABNF `=/` production whose head was never
// established by a prior plain `=` definition.
func checkIncremental(cg notation.ComplexGrammar) error {
	base := map[string]bool{}
	for _, p := range cg.Productions {
		if !p.Incremental {
			base[p.Head] = true
		}
	}
	for _, p := range cg.Productions {
		if p.Incremental && !base[p.Head] {
			return fmt.Errorf("rule %q uses an incremental definition (=/) with no base rule", p.Head)
		}
	}
	return nil
}

// freshName allocates a name rooted at prefix, incrementing a numeric suffix
// until it collides with nothing declared so far (mirrors
// grammar.freshName's scheme).
func (lw *lowering) freshName(prefix string) string {
	if !lw.declared[prefix] {
		lw.declared[prefix] = true
		return prefix
	}
	for k := 1; ; k++ {
		candidate := fmt.Sprintf("%s_%d", prefix, k)
		if !lw.declared[candidate] {
			lw.declared[candidate] = true
			return candidate
		}
	}
}

// lowerBody lowers every element of body in place, one plain symbol name per
// element.
func (lw *lowering) lowerBody(body []notation.Element) ([]string, error) {
	out := make([]string, 0, len(body))
	for _, e := range body {
		sym, err := lw.lowerElement(e)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, nil
}

func (lw *lowering) lowerElement(e notation.Element) (string, error) {
	switch e.Kind {
	case notation.ElemSymbol:
		lw.refs[e.Symbol] = true
		return e.Symbol, nil
	case notation.ElemGroup:
		return lw.lowerGroup(e)
	case notation.ElemOptional:
		return lw.lowerOptional(e)
	case notation.ElemRepeat:
		return lw.lowerRepeat(e)
	case notation.ElemMult:
		return lw.lowerMult(e)
	default:
		return "", fmt.Errorf("lower: unrecognized element kind %d", e.Kind)
	}
}

// lowerGroup rewrites `(A B | C)` into a fresh non-terminal with one
// production per alternative. Whichever alternative matches reduces with no
// handler of its own, so its value is the plain args vector the driver's
// default identity behavior already produces — there is no "absent"
// counterpart to keep in parity with, unlike Optional.
func (lw *lowering) lowerGroup(e notation.Element) (string, error) {
	altBodies := make([][]string, len(e.Alternatives))
	for i, alt := range e.Alternatives {
		body, err := lw.lowerBody(alt)
		if err != nil {
			return "", err
		}
		altBodies[i] = body
	}

	key := "GROUP:" + joinAlts(altBodies)
	if name, ok := lw.dedup[key]; ok {
		return name, nil
	}

	name := lw.freshName("__GROUP")
	lw.heads[name] = true
	lw.dedup[key] = name
	for _, body := range altBodies {
		lw.g.AddRule(name, body)
	}
	return name, nil
}

// lowerOptional rewrites `[X]` into a fresh non-terminal with a present
// production and an epsilon production, both shaped to reduce to a
// single-slot value so a caller can tell "absent" (nil) from "present"
// (whatever X reduced to) without caring how many symbols X's sequence
// held: the epsilon branch inserts undefined at the argument slot X would
// have occupied.
//
// `[X] * N` is the multiplicity-qualified form (§4.2): N+1 productions, one
// per t from 0 to N copies of X's body laid out in sequence, each wrapped in
// a `merge @ 0, t` handler that collects that production's t copies into a
// single array argument, so the handler always sees exactly one slot no
// matter which t matched.
func (lw *lowering) lowerOptional(e notation.Element) (string, error) {
	presentBody, err := lw.lowerBody(e.Alternatives[0])
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("OPT:%s:%d", strings.Join(presentBody, " "), e.Mult)
	if name, ok := lw.dedup[key]; ok {
		return name, nil
	}

	name := lw.freshName("__OPT")
	lw.heads[name] = true
	lw.dedup[key] = name

	if e.Mult <= 1 {
		presentHandler := grammar.HandlerRef{}
		if len(presentBody) > 1 {
			presentHandler = grammar.ModifierRef(grammar.Merge(0, len(presentBody), grammar.Identity(-1)))
		}
		lw.g.AddRuleWithHandler(name, presentBody, presentHandler)
		lw.g.AddRuleWithHandler(name, nil, grammar.ModifierRef(grammar.Epsilon(0, grammar.Identity(-1))))
		return name, nil
	}

	for t := 0; t <= e.Mult; t++ {
		body := make([]string, 0, t*len(presentBody))
		for i := 0; i < t; i++ {
			body = append(body, presentBody...)
		}
		lw.g.AddRuleWithHandler(name, body, grammar.ModifierRef(grammar.Merge(0, len(body), grammar.Identity(-1))))
	}
	return name, nil
}

// lowerRepeat rewrites `{X}` into a left-recursive accumulate/base pair:
// `Rep -> ε` starts the list, `Rep -> Rep X` extends it. Both
// productions carry a HandlerModifier so the reduced value is always the
// flat accumulated list itself, never a (state, increment) pair a caller
// would have to unpack.
func (lw *lowering) lowerRepeat(e notation.Element) (string, error) {
	unitBody, err := lw.lowerBody(e.Alternatives[0])
	if err != nil {
		return "", err
	}

	key := "REP:" + strings.Join(unitBody, " ")
	if name, ok := lw.dedup[key]; ok {
		return name, nil
	}

	name := lw.freshName("__REP")
	lw.heads[name] = true
	lw.dedup[key] = name

	lw.g.AddRuleWithHandler(name, nil, grammar.ModifierRef(grammar.Collect(nil)))
	recBody := append([]string{name}, unitBody...)
	lw.g.AddRuleWithHandler(name, recBody, grammar.ModifierRef(grammar.Append(nil)))

	return name, nil
}

// lowerMult rewrites `X * N` into a fresh non-terminal holding exactly N
// copies of X in sequence.
func (lw *lowering) lowerMult(e notation.Element) (string, error) {
	if len(e.Alternatives) != 1 || len(e.Alternatives[0]) != 1 {
		return "", fmt.Errorf("lower: a multiplicity element must wrap exactly one element")
	}
	unit, err := lw.lowerElement(e.Alternatives[0][0])
	if err != nil {
		return "", err
	}
	return lw.repeatFixed(unit, e.Mult)
}

// repeatFixed builds (or reuses) a fresh non-terminal producing exactly n
// copies of unit in sequence.
func (lw *lowering) repeatFixed(unit string, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("lower: multiplicity must be positive, got %d", n)
	}

	key := fmt.Sprintf("MULT:%s*%d", unit, n)
	if name, ok := lw.dedup[key]; ok {
		return name, nil
	}

	name := lw.freshName("__MULT")
	lw.heads[name] = true
	lw.dedup[key] = name

	body := make([]string, n)
	for i := range body {
		body[i] = unit
	}
	lw.g.AddRule(name, body)
	return name, nil
}

func joinAlts(alts [][]string) string {
	parts := make([]string, len(alts))
	for i, a := range alts {
		parts[i] = strings.Join(a, " ")
	}
	return strings.Join(parts, "|")
}
