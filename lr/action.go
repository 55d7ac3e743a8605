// Package lr builds ACTION/GOTO parse tables from a grammar: SLR(1),
// LALR(1), and canonical LR(1), with operator-precedence-based resolution of
// shift/reduce conflicts and an "auto" mode that tries each in turn.
package lr

import (
	"fmt"

	"github.com/havtorn/sturgeon/grammar"
)

// ActionType is the kind of one ACTION table cell.
type ActionType int

const (
	Error ActionType = iota
	Shift
	Reduce
	Accept
)

func (t ActionType) String() string {
	switch t {
	case Shift:
		return "shift"
	case Reduce:
		return "reduce"
	case Accept:
		return "accept"
	default:
		return "error"
	}
}

// Action is one ACTION table cell.
type Action struct {
	Type ActionType

	// State is the destination state, used when Type == Shift.
	State string

	// ProductionID and Head are used when Type == Reduce: the production to
	// reduce by (by global id) and the non-terminal it reduces to.
	ProductionID int
	Head         string
	Body         []string

	// Message carries Error(message)'s payload (§3): a human-readable
	// reason the cell is explicitly a parse-time rejection rather than
	// simply absent, e.g. "non-associative".
	Message string
}

func (a Action) String() string {
	switch a.Type {
	case Shift:
		return fmt.Sprintf("shift %s", a.State)
	case Reduce:
		return fmt.Sprintf("reduce %s -> %s", a.Head, grammar.Production{Symbols: a.Body}.String())
	case Accept:
		return "accept"
	default:
		if a.Message != "" {
			return fmt.Sprintf("error: %s", a.Message)
		}
		return "error"
	}
}
