// Package lexer implements a deterministic longest-match-by-ordering
// lexer engine: an ordered list of (name, pattern, handler,
// nameSelector?) records, tried in order at the current position, with the
// first match winning.
package lexer

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/havtorn/sturgeon/errs"
)

// Handler computes a token's value from its matched lexeme and, for regex
// rules, the full submatch group slice (index 0 is the whole match). A nil
// Handler defaults to returning the lexeme itself as the value.
type Handler func(lexeme string, groups []string) (any, error)

// NameSelector may rename or discard a match after its Handler has produced
// a value. Returning ok=false discards the match; dispatch then continues
// scanning from the new position. Returning ok=true with an empty name keeps
// the match under the rule's own Name.
type NameSelector func(value any, lexeme string) (name string, ok bool)

// Rule is one entry of the lexer's ordered rule list: an ordered tuple of
// (name | null | nameSelector, pattern, handler?). A
// Rule with Discard set to true always drops its match (the "null name"
// case, used for whitespace skipping); a Rule with a non-nil NameSelector
// may conditionally discard or rename per match.
type Rule struct {
	Name string

	// Pattern is either a literal string (IsRegexp false) or a regex source
	// (IsRegexp true). Regex patterns are matched with sticky anchoring: the
	// "g" flag, if present in spirit, is irrelevant in Go's non-global
	// regexp model, and "y" (sticky-at-position) is emulated by anchoring
	// the compiled pattern to the start of the remaining input on every
	// match attempt.
	Pattern  string
	IsRegexp bool

	Handler      Handler
	NameSelector NameSelector
	Discard      bool

	compiled *regexp.Regexp
}

// compile prepares re for sticky matching against an arbitrary position in
// the input: re is anchored to the start of whatever substring it is tested
// against.
func compileSticky(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`\A(?:` + pattern + `)`)
	if err != nil {
		return nil, err
	}
	return re, nil
}

// Token is one lexed unit: a name, the matched lexeme, a handler-
// computed value, and its position.
type Token struct {
	Name   string
	Lexeme string
	Value  any
	Pos    int
	Line   int
	Col    int
}

// Lexer holds an ordered list of rules plus an EOF descriptor and the
// mutable position/input state of one lexing session. Position, the line
// table, and the current input are exclusive to one Lexer instance:
// concurrent NextToken calls on one Lexer are undefined behaviour, and
// distinct Lexers are fully independent.
type Lexer struct {
	rules    []Rule
	eofName  string
	eofValue any

	input     string
	pos       int
	lineStart []int // byte offset of the start of each line, for position lookup
}

// New returns a Lexer with the given ordered rule list and EOF descriptor,
// compiling every regex rule up front. The lexer holds no input until
// SetInput is called.
func New(rules []Rule, eofName string, eofValue any) (*Lexer, error) {
	compiled := make([]Rule, len(rules))
	for i, r := range rules {
		if r.IsRegexp {
			re, err := compileSticky(r.Pattern)
			if err != nil {
				return nil, errs.NewSerializationError("lexer rule "+nameOrIndex(r, i)+": invalid pattern", err)
			}
			r.compiled = re
		}
		compiled[i] = r
	}
	return &Lexer{rules: compiled, eofName: eofName, eofValue: eofValue}, nil
}

// Rules returns the lexer's ordered rule list, in match-attempt order. The
// returned slice is a copy; mutating it has no effect on the lexer.
func (l *Lexer) Rules() []Rule { return append([]Rule(nil), l.rules...) }

// EOFName returns the token name reported once the input is exhausted.
func (l *Lexer) EOFName() string { return l.eofName }

// EOFValue returns the value reported alongside EOFName.
func (l *Lexer) EOFValue() any { return l.eofValue }

func nameOrIndex(r Rule, i int) string {
	if r.Name != "" {
		return r.Name
	}
	return "#" + strconv.Itoa(i)
}

// SetInput resets the lexer onto a new input string, starting at position 0.
// Lexers and parsers are restartable this way; no mutable global state
// persists across parses.
func (l *Lexer) SetInput(input string) {
	l.input = input
	l.pos = 0
	l.lineStart = computeLineStarts(input)
}

// Reset rewinds the current input back to position 0 without discarding it.
func (l *Lexer) Reset() {
	l.pos = 0
}

func computeLineStarts(s string) []int {
	starts := []int{0}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// position derives the (line, col) of a byte offset by binary search over
// the precomputed line-start table.
func (l *Lexer) position(offset int) (line, col int) {
	line = sort.Search(len(l.lineStart), func(i int) bool {
		return l.lineStart[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return line + 1, offset - l.lineStart[line] + 1
}

// atEOF reports whether pos has reached (or passed) the end of the input.
func (l *Lexer) atEOF(pos int) bool {
	return pos >= len(l.input)
}

func (l *Lexer) eofToken(pos int) Token {
	line, col := l.position(pos)
	return Token{Name: l.eofName, Value: l.eofValue, Pos: pos, Line: line, Col: col}
}

// NextToken returns the next token starting at the lexer's current
// position. If advance is true, the lexer's position is committed past the
// returned token; if false, the position is left unchanged so the same
// token will be returned again -- used for lookahead by the parse driver
// and for tests.
func (l *Lexer) NextToken(advance bool) (Token, error) {
	tok, newPos, err := l.scan(l.pos)
	if err != nil {
		return Token{}, err
	}
	if advance {
		l.pos = newPos
	}
	return tok, nil
}

// scan performs dispatch starting at pos, returning the token found and the
// position immediately after it. Discarded matches (whitespace, or a
// NameSelector that returns ok=false) consume input but recurse rather than
// returning a token.
func (l *Lexer) scan(pos int) (Token, int, error) {
	for {
		if pos < 0 {
			return Token{}, pos, &errs.SeekError{Pos: pos, Reason: "position is negative"}
		}
		if l.atEOF(pos) {
			return l.eofToken(pos), pos, nil
		}

		rule, lexeme, groups, ok := l.dispatch(pos)
		if !ok {
			line, col := l.position(pos)
			snippet := snippetAt(l.input, pos)
			return Token{}, pos, &errs.UnknownTokenError{
				Pos:     errs.Position{Byte: pos, Line: line, Col: col},
				Snippet: snippet,
			}
		}

		if len(lexeme) == 0 {
			line, col := l.position(pos)
			return Token{}, pos, &errs.ZeroLengthError{
				Pos:    errs.Position{Byte: pos, Line: line, Col: col},
				Rule:   rule.Name,
				Lexeme: lexeme,
			}
		}

		newPos := pos + len(lexeme)

		var value any
		var err error
		if rule.Handler != nil {
			value, err = rule.Handler(lexeme, groups)
			if err != nil {
				return Token{}, pos, err
			}
		} else {
			value = lexeme
		}

		name := rule.Name
		if rule.Discard {
			pos = newPos
			continue
		}
		if rule.NameSelector != nil {
			selected, keep := rule.NameSelector(value, lexeme)
			if !keep {
				pos = newPos
				continue
			}
			if selected != "" {
				name = selected
			}
		}

		line, col := l.position(pos)
		return Token{Name: name, Lexeme: lexeme, Value: value, Pos: pos, Line: line, Col: col}, newPos, nil
	}
}

// dispatch tries every rule in order at pos, returning the first match.
func (l *Lexer) dispatch(pos int) (Rule, string, []string, bool) {
	rest := l.input[pos:]
	for _, r := range l.rules {
		if r.IsRegexp {
			loc := r.compiled.FindStringSubmatchIndex(rest)
			if loc == nil {
				continue
			}
			lexeme := rest[loc[0]:loc[1]]
			groups := make([]string, 0, len(loc)/2)
			for i := 0; i < len(loc); i += 2 {
				if loc[i] < 0 {
					groups = append(groups, "")
					continue
				}
				groups = append(groups, rest[loc[i]:loc[i+1]])
			}
			return r, lexeme, groups, true
		}
		if len(r.Pattern) <= len(rest) && rest[:len(r.Pattern)] == r.Pattern {
			return r, r.Pattern, []string{r.Pattern}, true
		}
	}
	return Rule{}, "", nil, false
}

func snippetAt(s string, pos int) string {
	const radius = 16
	start := pos - radius
	if start < 0 {
		start = 0
	}
	end := pos + radius
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

// SeekMode selects how Seek interprets its offset argument.
type SeekMode int

const (
	SeekAbsolute SeekMode = iota
	SeekRelative
	SeekFromEnd
)

// Seek repositions the lexer: absolutely, from-end, or relative to
// current. A resulting negative position is not rejected here but is
// instead reported as a fatal error on the subsequent read.
func (l *Lexer) Seek(mode SeekMode, offset int) {
	switch mode {
	case SeekAbsolute:
		l.pos = offset
	case SeekRelative:
		l.pos += offset
	case SeekFromEnd:
		l.pos = len(l.input) + offset
	}
}

// Pos returns the lexer's current byte position.
func (l *Lexer) Pos() int { return l.pos }
