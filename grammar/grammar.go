// Package grammar implements the grammar data model -- productions, rules,
// and operator table -- plus the FIRST/FOLLOW computation and
// augmenting-symbol synthesis that the LR generator in package lr builds on
// top of.
//
// This system is LR-only end to end, so LL(1)-only machinery (epsilon/
// unit-production/left-recursion removal, left factoring, LL(1) table
// construction) has no home here. See DESIGN.md.
package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/havtorn/sturgeon/symbol"
	"github.com/havtorn/sturgeon/util"
)

// TermInfo is the information tracked for a terminal: the human-readable
// name used in diagnostics.
type TermInfo struct {
	ID    string
	Human string
}

// Production is a single alternative for a rule: an ordered, possibly empty
// body of symbol names. An empty Symbols slice denotes an epsilon
// production.
type Production struct {
	Symbols []string

	// Handler is the optional handler reference for this production. The
	// zero value (HasIndex=false, Modifier=nil) means "no handler"; the
	// parse driver then defaults to identity.
	Handler HandlerRef
}

func (p Production) String() string {
	if len(p.Symbols) == 0 {
		return "ε"
	}
	return strings.Join(p.Symbols, " ")
}

// Equal compares two productions structurally, ignoring their Handler (which
// is bookkeeping, not grammar identity).
func (p Production) Equal(o Production) bool {
	if len(p.Symbols) != len(o.Symbols) {
		return false
	}
	for i := range p.Symbols {
		if p.Symbols[i] != o.Symbols[i] {
			return false
		}
	}
	return true
}

// Rule is all productions sharing one non-terminal head, in the order they
// were added.
type Rule struct {
	NonTerminal string
	Productions []Production
}

func (r Rule) String() string {
	alts := make([]string, len(r.Productions))
	for i := range r.Productions {
		alts[i] = r.Productions[i].String()
	}
	return fmt.Sprintf("%s -> %s", r.NonTerminal, strings.Join(alts, " | "))
}

// Equal compares two rules' production sets as ordered sequences.
func (r Rule) Equal(o Rule) bool {
	if r.NonTerminal != o.NonTerminal || len(r.Productions) != len(o.Productions) {
		return false
	}
	for i := range r.Productions {
		if !r.Productions[i].Equal(o.Productions[i]) {
			return false
		}
	}
	return true
}

type prodEntry struct {
	head string
	prod Production
}

// Grammar is the frozen-on-build production IR: productions, operators, and
// terminals accumulate via AddTerm/AddRule, then the generator consumes the
// result to build tables.
type Grammar struct {
	terms     map[string]TermInfo
	termOrder []string

	headSeen map[string]bool
	ruleOrd  []string
	prods    []prodEntry

	explicitStart string

	ops Operators
}

// AddTerm registers a terminal with the given id and human-readable name. If
// id was already registered, the human name is replaced.
func (g *Grammar) AddTerm(id string, human string) {
	if g.terms == nil {
		g.terms = map[string]TermInfo{}
	}
	if _, ok := g.terms[id]; !ok {
		g.termOrder = append(g.termOrder, id)
	}
	g.terms[id] = TermInfo{ID: id, Human: human}
}

// AddRule adds one production to the rule headed by head, returning the
// production's global id: its position in insertion order across the whole
// grammar, the same id used as the production reference in Reduce actions.
func (g *Grammar) AddRule(head string, body []string) int {
	return g.AddRuleWithHandler(head, body, HandlerRef{})
}

// AddRuleWithHandler is AddRule but additionally attaches a handler
// reference to the new production.
func (g *Grammar) AddRuleWithHandler(head string, body []string, h HandlerRef) int {
	if g.headSeen == nil {
		g.headSeen = map[string]bool{}
	}
	if !g.headSeen[head] {
		g.headSeen[head] = true
		g.ruleOrd = append(g.ruleOrd, head)
	}

	bodyCopy := make([]string, len(body))
	copy(bodyCopy, body)

	id := len(g.prods)
	g.prods = append(g.prods, prodEntry{head: head, prod: Production{Symbols: bodyCopy, Handler: h}})
	return id
}

// SetHandler retrofits the handler reference on an already-added production,
// identified by the global id AddRule/AddRuleWithHandler returned for it.
// Used by package builder to bind a user handler function onto a production
// package lower synthesized without one (lowering only ever attaches
// structural HandlerModifier chains, never a caller's own handler index).
func (g *Grammar) SetHandler(id int, h HandlerRef) bool {
	if id < 0 || id >= len(g.prods) {
		return false
	}
	g.prods[id].prod.Handler = h
	return true
}

// SetStartSymbol overrides the default start symbol (otherwise the head of
// the first rule added).
func (g *Grammar) SetStartSymbol(nt string) {
	g.explicitStart = nt
}

// StartSymbol resolves the grammar's start symbol: the explicit one if set,
// else the head of the first production added.
func (g Grammar) StartSymbol() string {
	if g.explicitStart != "" {
		return g.explicitStart
	}
	if len(g.ruleOrd) > 0 {
		return g.ruleOrd[0]
	}
	return ""
}

// Term returns the registered terminal info for id.
func (g Grammar) Term(id string) TermInfo {
	return g.terms[id]
}

// IsTerminal reports whether name was registered via AddTerm.
func (g Grammar) IsTerminal(name string) bool {
	_, ok := g.terms[name]
	return ok
}

// IsNonTerminal reports whether name is the head of at least one rule.
func (g Grammar) IsNonTerminal(name string) bool {
	return g.headSeen[name]
}

// Terminals returns all registered terminal ids, in insertion order.
func (g Grammar) Terminals() []string {
	out := make([]string, len(g.termOrder))
	copy(out, g.termOrder)
	return out
}

// NonTerminals returns all rule heads, in the order their first production
// was added.
func (g Grammar) NonTerminals() []string {
	out := make([]string, len(g.ruleOrd))
	copy(out, g.ruleOrd)
	return out
}

// Rule returns the grouped productions for head nt, in insertion order.
func (g Grammar) Rule(nt string) Rule {
	r := Rule{NonTerminal: nt}
	for _, e := range g.prods {
		if e.head == nt {
			r.Productions = append(r.Productions, e.prod)
		}
	}
	return r
}

// Productions returns every production in the grammar in global insertion
// order, alongside the head it belongs to. The slice index is the
// production's id as used in ACTION-table Reduce entries.
func (g Grammar) Productions() []struct {
	Head string
	Prod Production
} {
	out := make([]struct {
		Head string
		Prod Production
	}, len(g.prods))
	for i, e := range g.prods {
		out[i] = struct {
			Head string
			Prod Production
		}{e.head, e.prod}
	}
	return out
}

// ProductionByID returns the production with the given global id.
func (g Grammar) ProductionByID(id int) (head string, prod Production, ok bool) {
	if id < 0 || id >= len(g.prods) {
		return "", Production{}, false
	}
	return g.prods[id].head, g.prods[id].prod, true
}

// Operators returns the grammar's operator-precedence table.
func (g *Grammar) Operators() *Operators {
	return &g.ops
}

// Validate rejects degenerate grammars before they reach item-set
// construction: no terminals, or no rules at all.
func (g Grammar) Validate() error {
	if len(g.termOrder) == 0 {
		return fmt.Errorf("grammar has no terminals defined")
	}
	if len(g.prods) == 0 {
		return fmt.Errorf("grammar has no rules defined")
	}

	// every symbol referenced in a production body must be either a
	// registered terminal or the head of some rule.
	for _, e := range g.prods {
		for _, sym := range e.prod.Symbols {
			if !g.IsTerminal(sym) && !g.IsNonTerminal(sym) {
				return fmt.Errorf("production %s -> %s references undefined symbol %q", e.head, e.prod.String(), sym)
			}
		}
	}

	if start := g.StartSymbol(); start != "" && !g.IsNonTerminal(start) {
		return fmt.Errorf("start symbol %q is not the head of any rule", start)
	}

	return nil
}

// symbolKind classifies a body symbol for FIRST/FOLLOW purposes.
func (g Grammar) symbolKind(name string) symbol.Kind {
	if name == "" {
		return symbol.KindEpsilon
	}
	if g.IsTerminal(name) || name == symbol.EOFName {
		return symbol.KindTerminal
	}
	return symbol.KindNonTerminal
}

// FIRST computes FIRST(X) for a single grammar symbol name: terminal,
// non-terminal, or "" for epsilon.
func (g Grammar) FIRST(name string) util.StringSet {
	memo := map[string]util.StringSet{}
	return g.first(name, memo, map[string]bool{})
}

func (g Grammar) first(name string, memo map[string]util.StringSet, inProgress map[string]bool) util.StringSet {
	if s, ok := memo[name]; ok {
		return s
	}

	switch g.symbolKind(name) {
	case symbol.KindEpsilon:
		return util.NewStringSet([]string{""})
	case symbol.KindTerminal:
		return util.NewStringSet([]string{name})
	}

	// non-terminal: FIRST(A) = union of FIRST(body) over A's productions.
	// Every non-terminal's set is seeded empty in memo and then grown by
	// passes over all productions until a pass adds nothing, so recursion
	// cycles see each other's partial sets and still converge.
	if !g.IsNonTerminal(name) {
		return util.NewStringSet()
	}
	for _, nt := range g.ruleOrd {
		memo[nt] = util.NewStringSet()
	}
	for changed := true; changed; {
		changed = false
		for _, e := range g.prods {
			before := memo[e.head].Len()
			memo[e.head].AddAll(g.firstOfSequence(e.prod.Symbols, memo, inProgress))
			changed = changed || memo[e.head].Len() != before
		}
	}
	return memo[name]
}

// firstOfSequence computes FIRST(X1 X2 ... Xn): scan symbols left to right,
// including FIRST(Xi)\{ε} for each Xi until one is found that does not
// derive epsilon; include ε itself only if every Xi derives epsilon.
func (g Grammar) firstOfSequence(seq []string, memo map[string]util.StringSet, inProgress map[string]bool) util.StringSet {
	result := util.NewStringSet()
	if len(seq) == 0 {
		result.Add("")
		return result
	}

	allNullable := true
	for _, sym := range seq {
		fi := g.first(sym, memo, inProgress)
		for _, t := range fi.Elements() {
			if t != "" {
				result.Add(t)
			}
		}
		if !fi.Has("") {
			allNullable = false
			break
		}
	}
	if allNullable {
		result.Add("")
	}
	return result
}

// nullable reports whether the symbol sequence can derive the empty string.
func (g Grammar) nullable(seq []string) bool {
	memo := map[string]util.StringSet{}
	return g.firstOfSequence(seq, memo, map[string]bool{}).Has("")
}

// FOLLOW computes FOLLOW(A) for non-terminal A. The
// equations for different non-terminals are mutually recursive (FOLLOW(C)
// can depend on FOLLOW(B) via a production "B -> ... C"), so every
// non-terminal's set is computed together in one fixpoint and the requested
// one is returned at the end.
func (g Grammar) FOLLOW(nt string) util.StringSet {
	follow := map[string]util.StringSet{}
	for _, n := range g.ruleOrd {
		follow[n] = util.NewStringSet()
	}
	if _, ok := follow[nt]; !ok {
		// requested symbol may be a terminal; FOLLOW is only meaningful for
		// non-terminals, but callers may still query it for a terminal,
		// expecting "the terminals that can follow an occurrence of this
		// terminal in some sentential form" — treat it the same as if it
		// were a non-terminal symbol occurring after the dot.
		follow[nt] = util.NewStringSet()
	}

	start := g.StartSymbol()
	if _, ok := follow[start]; ok {
		follow[start] = follow[start].Union(util.NewStringSet([]string{symbol.EOFName}))
	}

	firstMemo := map[string]util.StringSet{}

	changed := true
	for changed {
		changed = false
		for _, e := range g.prods {
			body := e.prod.Symbols
			for i, sym := range body {
				if _, ok := follow[sym]; !ok {
					continue // sym is a terminal, FOLLOW is not tracked for it here
				}
				rest := body[i+1:]
				firstRest := g.firstOfSequence(rest, firstMemo, map[string]bool{})
				before := follow[sym].Len()
				for _, t := range firstRest.Elements() {
					if t != "" && !follow[sym].Has(t) {
						follow[sym] = follow[sym].Union(util.NewStringSet([]string{t}))
					}
				}
				if firstRest.Has("") {
					for _, t := range follow[e.head].Elements() {
						if !follow[sym].Has(t) {
							follow[sym] = follow[sym].Union(util.NewStringSet([]string{t}))
						}
					}
				}
				if follow[sym].Len() != before {
					changed = true
				}
			}
		}
	}

	return follow[nt]
}

// Augmented returns a copy of g with a fresh augmenting non-terminal added:
// a single production `augment -> start` where augment is named by
// incrementing a `__GLOBAL[_k]` suffix until it collides with neither an
// existing non-terminal nor terminal. The new grammar's start symbol is the
// augmenting non-terminal.
func (g Grammar) Augmented() Grammar {
	cp := g.Copy()
	fresh := freshName("__GLOBAL", func(n string) bool {
		return cp.IsTerminal(n) || cp.IsNonTerminal(n)
	})
	cp.AddRule(fresh, []string{cp.StartSymbol()})
	cp.SetStartSymbol(fresh)
	return cp
}

// freshName appends/increments a `_k` suffix on base until taken(candidate)
// is false.
func freshName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for k := 1; ; k++ {
		candidate := fmt.Sprintf("%s_%d", base, k)
		if !taken(candidate) {
			return candidate
		}
	}
}

// Copy returns a deep copy of the grammar.
func (g Grammar) Copy() Grammar {
	cp := Grammar{
		terms:         map[string]TermInfo{},
		termOrder:     append([]string(nil), g.termOrder...),
		headSeen:      map[string]bool{},
		ruleOrd:       append([]string(nil), g.ruleOrd...),
		explicitStart: g.explicitStart,
		ops:           g.ops.Copy(),
	}
	for k, v := range g.terms {
		cp.terms[k] = v
	}
	for k, v := range g.headSeen {
		cp.headSeen[k] = v
	}
	cp.prods = make([]prodEntry, len(g.prods))
	for i, e := range g.prods {
		bodyCopy := make([]string, len(e.prod.Symbols))
		copy(bodyCopy, e.prod.Symbols)
		cp.prods[i] = prodEntry{head: e.head, prod: Production{Symbols: bodyCopy, Handler: e.prod.Handler}}
	}
	return cp
}

// String renders the grammar in `Head -> alt1 | alt2` form, one rule per
// line, non-terminals in first-defined order.
func (g Grammar) String() string {
	var sb strings.Builder
	for _, nt := range g.ruleOrd {
		sb.WriteString(g.Rule(nt).String())
		sb.WriteRune('\n')
	}
	return sb.String()
}

// sortedTerminals returns the registered terminal ids alphabetized, a
// deterministic order distinct from insertion order. The EOF sentinel is not
// a registered terminal and so is not among them.
func (g Grammar) sortedTerminals() []string {
	out := append([]string(nil), g.termOrder...)
	sort.Strings(out)
	return out
}
