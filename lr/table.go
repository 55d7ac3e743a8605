package lr

import (
	"sort"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/havtorn/sturgeon/errs"
	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/symbol"
)

// Mode names which of the three table-construction algorithms produced a
// Table, surfaced by BuildAuto so callers can tell which mode auto settled
// on.
type Mode int

const (
	ModeSLR Mode = iota
	ModeLALR1
	ModeCLR1
)

func (m Mode) String() string {
	switch m {
	case ModeSLR:
		return "SLR(1)"
	case ModeLALR1:
		return "LALR(1)"
	case ModeCLR1:
		return "canonical LR(1)"
	default:
		return "unknown"
	}
}

// Table is an ACTION/GOTO parse table: for each discovered state, the
// action to take on each terminal and the state to go to on each
// non-terminal.
type Table struct {
	Mode  Mode
	Start string

	states    []string
	action    map[string]map[string]Action
	goTo      map[string]map[string]string
	terminals []string
}

// Initial returns the table's start state.
func (t *Table) Initial() string { return t.Start }

// States returns every discovered state, in construction order (their
// canonical numbering).
func (t *Table) States() []string { return t.states }

// Terminals returns the terminal alphabet the table was built over, in the
// grammar's terminal insertion order with the EOF sentinel last.
func (t *Table) Terminals() []string { return t.terminals }

// Action returns the ACTION cell for (state, terminal); the zero value
// (Type Error) if there is none.
func (t *Table) Action(state, terminal string) Action {
	row, ok := t.action[state]
	if !ok {
		return Action{Type: Error}
	}
	a, ok := row[terminal]
	if !ok {
		return Action{Type: Error}
	}
	return a
}

// Goto returns the GOTO cell for (state, nonTerminal).
func (t *Table) Goto(state, nonTerminal string) (string, bool) {
	row, ok := t.goTo[state]
	if !ok {
		return "", false
	}
	s, ok := row[nonTerminal]
	return s, ok
}

func newTable(mode Mode) *Table {
	return &Table{
		Mode:   mode,
		action: map[string]map[string]Action{},
		goTo:   map[string]map[string]string{},
	}
}

// NewFromTables reconstructs a Table directly from already-computed
// ACTION/GOTO maps, bypassing item-set construction entirely. Used by
// package serialize to rebuild a compiled table from a SerializedParser
// without re-running the generator against the original grammar.
func NewFromTables(mode Mode, start string, states, terminals []string, action map[string]map[string]Action, goTo map[string]map[string]string) *Table {
	return &Table{
		Mode:      mode,
		Start:     start,
		states:    append([]string(nil), states...),
		terminals: append([]string(nil), terminals...),
		action:    action,
		goTo:      goTo,
	}
}

// ShiftReducePolicy is the fallback used when a shift/reduce conflict's
// terminal and reducing production have no operator-precedence declaration
// to resolve it by: a policy option (shiftReduce: shift | reduce | error),
// defaulting to error.
type ShiftReducePolicy int

const (
	// PolicyError leaves an unresolved conflict as a *errs.ConflictError
	// (the default, matching classic yacc/bison behavior of refusing to
	// guess).
	PolicyError ShiftReducePolicy = iota
	// PolicyShift always shifts on an unresolved shift/reduce conflict.
	PolicyShift
	// PolicyReduce always reduces on an unresolved shift/reduce conflict.
	PolicyReduce
)

func (t *Table) setAction(ops *grammar.Operators, policy ShiftReducePolicy, state, terminal string, a Action) error {
	row, ok := t.action[state]
	if !ok {
		row = map[string]Action{}
		t.action[state] = row
	}
	existing, ok := row[terminal]
	if !ok {
		row[terminal] = a
		return nil
	}
	if actionsEqual(existing, a) {
		return nil
	}

	if resolved, resolvedOK := resolveConflict(*ops, terminal, existing, a); resolvedOK {
		row[terminal] = resolved
		return nil
	}

	if resolved, resolvedOK := resolveByPolicy(policy, existing, a); resolvedOK {
		row[terminal] = resolved
		return nil
	}

	return &errs.ConflictError{
		State:    state,
		Terminal: terminal,
		Item1:    existing.String(),
		Item2:    a.String(),
		Kind:     conflictKind(existing, a),
	}
}

func (t *Table) setGoto(state, nt, to string) {
	row, ok := t.goTo[state]
	if !ok {
		row = map[string]string{}
		t.goTo[state] = row
	}
	row[nt] = to
}

func actionsEqual(a, b Action) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case Shift:
		return a.State == b.State
	case Reduce:
		return a.ProductionID == b.ProductionID
	default:
		return true
	}
}

func conflictKind(a, b Action) string {
	if a.Type == Shift && b.Type == Shift {
		return "shift/shift"
	}
	if a.Type == Reduce && b.Type == Reduce {
		return "reduce/reduce"
	}
	return "shift/reduce"
}

// resolveConflict applies operator-precedence resolution: a
// shift/reduce conflict on terminal t resolves to shift if t has higher
// precedence than the reducing production's operator, to reduce if lower,
// and by associativity if equal (left -> reduce, right -> shift, none ->
// a parse-time Error("non-associative") action). Any other conflict kind
// (shift/shift, reduce/reduce) is never auto-resolved.
func resolveConflict(ops grammar.Operators, terminal string, a, b Action) (Action, bool) {
	var shiftAct, reduceAct Action
	switch {
	case a.Type == Shift && b.Type == Reduce:
		shiftAct, reduceAct = a, b
	case a.Type == Reduce && b.Type == Shift:
		shiftAct, reduceAct = b, a
	default:
		return Action{}, false
	}

	shiftOp, shiftHasOp := ops.Lookup(terminal)
	reduceOp, reduceHasOp := ops.PrecedenceOf(reduceAct.ProductionID, reduceAct.Body)
	if !shiftHasOp || !reduceHasOp {
		return Action{}, false
	}

	switch {
	case shiftOp.Precedence > reduceOp.Precedence:
		return shiftAct, true
	case shiftOp.Precedence < reduceOp.Precedence:
		return reduceAct, true
	default:
		switch reduceOp.Assoc {
		case grammar.AssocLeft:
			return reduceAct, true
		case grammar.AssocRight:
			return shiftAct, true
		default:
			// Equal precedence, no associativity: §4.3's nonassoc rule,
			// mirroring yacc's %nonassoc. This is a parse-time rejection of
			// the terminal in this state, not an unresolved conflict, so it
			// resolves (not a build-time ConflictError via policy fallback).
			return Action{Type: Error, Message: "non-associative"}, true
		}
	}
}

// resolveByPolicy is the last resort applied once operator precedence has
// failed to resolve a shift/reduce conflict: PolicyShift/PolicyReduce pick a
// side unconditionally, PolicyError (the default) leaves it unresolved so
// the caller reports a *errs.ConflictError. Never applies to shift/shift or
// reduce/reduce conflicts, which have no "side" to pick.
func resolveByPolicy(policy ShiftReducePolicy, a, b Action) (Action, bool) {
	var shiftAct, reduceAct Action
	switch {
	case a.Type == Shift && b.Type == Reduce:
		shiftAct, reduceAct = a, b
	case a.Type == Reduce && b.Type == Shift:
		shiftAct, reduceAct = b, a
	default:
		return Action{}, false
	}

	switch policy {
	case PolicyShift:
		return shiftAct, true
	case PolicyReduce:
		return reduceAct, true
	default:
		return Action{}, false
	}
}

// String renders the table as a fixed-width ACTION/GOTO grid using rosed.
func (t *Table) String() string {
	cols := []string{"STATE"}
	cols = append(cols, t.terminals...)

	nts := map[string]bool{}
	for _, row := range t.goTo {
		for nt := range row {
			nts[nt] = true
		}
	}
	var gotoCols []string
	for nt := range nts {
		gotoCols = append(gotoCols, nt)
	}
	sort.Strings(gotoCols)
	cols = append(cols, gotoCols...)

	var rows [][]string
	for _, s := range t.states {
		row := []string{s}
		for _, term := range t.terminals {
			row = append(row, t.Action(s, term).String())
		}
		for _, nt := range gotoCols {
			if dest, ok := t.Goto(s, nt); ok {
				row = append(row, dest)
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}

	var sb strings.Builder
	sb.WriteString(rosed.Edit("").InsertTableOpts(0, append([][]string{cols}, rows...), 120, rosed.Options{
		TableHeaders: true,
	}).String())
	return sb.String()
}

// eofTerminal is the reserved end-of-input terminal name used in ACTION
// tables, matching symbol.EOFName.
const eofTerminal = symbol.EOFName
