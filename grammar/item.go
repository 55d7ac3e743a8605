package grammar

import (
	"fmt"
	"strings"

	"github.com/havtorn/sturgeon/util"
)

// LR0Item is a dotted production `NonTerminal -> Left . Right`: a production
// with a dot recording how much of the body has been matched. Left and
// Right never share the dot itself; Right[0], if
// present, is the symbol immediately after the dot.
type LR0Item struct {
	NonTerminal string
	Left        []string
	Right       []string
}

// Equal compares two items structurally, accepting either LR0Item or
// *LR0Item for o.
func (lr0 LR0Item) Equal(o any) bool {
	other, ok := o.(LR0Item)
	if !ok {
		otherPtr, ok := o.(*LR0Item)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if lr0.NonTerminal != other.NonTerminal {
		return false
	} else if len(lr0.Left) != len(other.Left) {
		return false
	} else if len(lr0.Right) != len(other.Right) {
		return false
	}

	for i := range lr0.Left {
		if lr0.Left[i] != other.Left[i] {
			return false
		}
	}
	for i := range lr0.Right {
		if lr0.Right[i] != other.Right[i] {
			return false
		}
	}

	return true
}

// NextSymbol returns the symbol immediately after the dot, and whether one
// exists (false means the item is complete).
func (lr0 LR0Item) NextSymbol() (string, bool) {
	if len(lr0.Right) == 0 {
		return "", false
	}
	return lr0.Right[0], true
}

// nextSymbol is the unexported alias used within this package.
func (lr0 LR0Item) nextSymbol() (string, bool) { return lr0.NextSymbol() }

// Advanced returns the item with the dot moved one position to the right.
// Panics if the item is already complete; callers must check NextSymbol
// first.
func (lr0 LR0Item) Advanced() LR0Item {
	if len(lr0.Right) == 0 {
		panic("cannot advance a complete item")
	}
	n := LR0Item{
		NonTerminal: lr0.NonTerminal,
		Left:        append(append([]string(nil), lr0.Left...), lr0.Right[0]),
		Right:       append([]string(nil), lr0.Right[1:]...),
	}
	return n
}

func (lr0 LR0Item) advanced() LR0Item { return lr0.Advanced() }

// Complete reports whether the dot has reached the end of the production
// (no symbols remain in Right).
func (lr0 LR0Item) Complete() bool {
	return len(lr0.Right) == 0
}

// Body reconstructs the full, undotted production body.
func (lr0 LR0Item) Body() []string {
	return append(append([]string(nil), lr0.Left...), lr0.Right...)
}

// LR1Item is an LR0Item paired with a single lookahead terminal.
type LR1Item struct {
	LR0Item
	Lookahead string
}

// EqualCoreSets reports whether s1 and s2 have the same LR0 cores,
// disregarding lookaheads: two LR1 states merge into one LALR1 state when
// their item cores, ignoring lookahead, are identical, and this is the test
// kernel-merging relies on.
func EqualCoreSets(s1, s2 util.SVSet[LR1Item]) bool {
	return CoreSet(s1).Equal(CoreSet(s2))
}

// CoreSet projects a set of LR1 items down to the set of their LR0 cores.
func CoreSet(s util.SVSet[LR1Item]) util.SVSet[LR0Item] {
	cores := util.NewSVSet[LR0Item]()
	for _, key := range s.Elements() {
		lr1 := s.Get(key)
		cores.Set(lr1.LR0Item.String(), lr1.LR0Item)
	}
	return cores
}

// Equal compares two LR1 items, including their lookahead.
func (lr1 LR1Item) Equal(o any) bool {
	other, ok := o.(LR1Item)
	if !ok {
		otherPtr, ok := o.(*LR1Item)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if !lr1.LR0Item.Equal(other.LR0Item) {
		return false
	}
	return lr1.Lookahead == other.Lookahead
}

// Copy returns a deep copy of lr1.
func (lr1 LR1Item) Copy() LR1Item {
	cp := LR1Item{}
	cp.NonTerminal = lr1.NonTerminal
	cp.Left = append([]string(nil), lr1.Left...)
	cp.Right = append([]string(nil), lr1.Right...)
	cp.Lookahead = lr1.Lookahead
	return cp
}

// MustParseLR0Item parses s per ParseLR0Item, panicking on error. Intended
// for use in table-driven test fixtures where s is a string literal.
func MustParseLR0Item(s string) LR0Item {
	i, err := ParseLR0Item(s)
	if err != nil {
		panic(err.Error())
	}
	return i
}

// MustParseLR1Item parses s per ParseLR1Item, panicking on error.
func MustParseLR1Item(s string) LR1Item {
	i, err := ParseLR1Item(s)
	if err != nil {
		panic(err.Error())
	}
	return i
}

// ParseLR0Item parses the textbook notation "NONTERM -> ALPHA . BETA", with
// "ε" permitted on either side of the dot to denote an empty Left or Right.
func ParseLR0Item(s string) (LR0Item, error) {
	sides := strings.Split(s, "->")
	if len(sides) != 2 {
		return LR0Item{}, fmt.Errorf("not an item of form 'NONTERM -> ALPHA.BETA': %q", s)
	}
	nonTerminal := strings.TrimSpace(sides[0])
	if nonTerminal == "" {
		return LR0Item{}, fmt.Errorf("empty nonterminal name not allowed for item")
	}

	parsedItem := LR0Item{NonTerminal: nonTerminal}

	productionsString := strings.TrimSpace(sides[1])
	prodStrings := strings.Split(productionsString, ".")
	if len(prodStrings) != 2 {
		return LR0Item{}, fmt.Errorf("item must have exactly one dot")
	}

	alphaStr := strings.TrimSpace(prodStrings[0])
	betaStr := strings.TrimSpace(prodStrings[1])

	var parsedAlpha, parsedBeta []string

	for _, aSym := range strings.Split(alphaStr, " ") {
		aSym = strings.TrimSpace(aSym)
		if aSym == "" {
			continue
		}
		if strings.ToLower(aSym) == "ε" {
			continue
		}
		parsedAlpha = append(parsedAlpha, aSym)
	}

	for _, bSym := range strings.Split(betaStr, " ") {
		bSym = strings.TrimSpace(bSym)
		if bSym == "" {
			continue
		}
		if strings.ToLower(bSym) == "ε" {
			continue
		}
		parsedBeta = append(parsedBeta, bSym)
	}

	parsedItem.Left = parsedAlpha
	parsedItem.Right = parsedBeta

	return parsedItem, nil
}

// ParseLR1Item parses "NONTERM -> ALPHA . BETA, a" where a is the lookahead
// terminal (or the EOF symbol).
func ParseLR1Item(s string) (LR1Item, error) {
	sides := strings.Split(s, ",")
	if len(sides) != 2 {
		return LR1Item{}, fmt.Errorf("not an item of form 'NONTERM -> ALPHA.BETA, a': %q", s)
	}

	item := LR1Item{}
	var err error
	item.LR0Item, err = ParseLR0Item(sides[0])
	if err != nil {
		return item, err
	}
	item.Lookahead = strings.TrimSpace(sides[1])

	return item, nil
}

func (item LR0Item) String() string {
	nonTermPhrase := ""
	if item.NonTerminal != "" {
		nonTermPhrase = fmt.Sprintf("%s -> ", item.NonTerminal)
	}

	left := strings.Join(item.Left, " ")
	right := strings.Join(item.Right, " ")

	if len(left) > 0 {
		left = left + " "
	}
	if len(right) > 0 {
		right = " " + right
	}

	return fmt.Sprintf("%s%s.%s", nonTermPhrase, left, right)
}

func (item LR1Item) String() string {
	return fmt.Sprintf("%s, %s", item.LR0Item.String(), item.Lookahead)
}
