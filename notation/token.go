package notation

import (
	"regexp"
	"sort"

	"github.com/havtorn/sturgeon/errs"
)

// Token is one lexical unit of grammar-notation text, carrying the byte
// position and derived line/col every token carries.
type Token struct {
	Kind string
	Text string
	Pos  int
	Line int
	Col  int
}

// pattern is one entry of a notation tokenizer's fixed ordered pattern
// list: tried in order, first match wins, longest match is a consequence
// of ordering, not backtracking. Mirrors the lexer package's Rule/dispatch
// shape but specialized to grammar-notation text (no user Handler/
// NameSelector — the Kind alone identifies the token).
type pattern struct {
	Kind string
	Re   *regexp.Regexp
	Skip bool // whitespace/comments: matched but never emitted
}

func compilePatterns(specs []struct {
	Kind string
	Expr string
	Skip bool
}) []pattern {
	out := make([]pattern, len(specs))
	for i, s := range specs {
		out[i] = pattern{Kind: s.Kind, Re: regexp.MustCompile(`\A(?:` + s.Expr + `)`), Skip: s.Skip}
	}
	return out
}

// tokenize runs the ordered pattern list over input from position 0,
// returning every non-skip token plus a final EOF token, or an
// errs.UnknownTokenError at the first position nothing matches.
func tokenize(input string, patterns []pattern) ([]Token, error) {
	lineStarts := []int{0}
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	posOf := func(pos int) (int, int) {
		line := sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > pos }) - 1
		if line < 0 {
			line = 0
		}
		return line + 1, pos - lineStarts[line] + 1
	}

	var toks []Token
	pos := 0
	for pos < len(input) {
		matched := false
		for _, p := range patterns {
			loc := p.Re.FindStringIndex(input[pos:])
			if loc == nil || loc[1] == 0 {
				continue
			}
			text := input[pos : pos+loc[1]]
			if !p.Skip {
				line, col := posOf(pos)
				toks = append(toks, Token{Kind: p.Kind, Text: text, Pos: pos, Line: line, Col: col})
			}
			pos += loc[1]
			matched = true
			break
		}
		if !matched {
			line, col := posOf(pos)
			end := pos + 16
			if end > len(input) {
				end = len(input)
			}
			return nil, &errs.UnknownTokenError{
				Pos:     errs.Position{Byte: pos, Line: line, Col: col},
				Snippet: input[pos:end],
			}
		}
	}
	line, col := posOf(pos)
	toks = append(toks, Token{Kind: "EOF", Pos: pos, Line: line, Col: col})
	return toks, nil
}
