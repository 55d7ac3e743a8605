package notation

import (
	"fmt"
	"regexp"
)

var bnfPatterns = compilePatterns([]struct {
	Kind string
	Expr string
	Skip bool
}{
	{"WS", `[ \t\r\n]+`, true},
	{"COMMENT", `//[^\n]*`, true},
	{"DEFINE", `::=|:=|=|:`, false},
	{"PIPE", `\|`, false},
	{"SEMI", `;`, false},
	{"ANGLE", `<(?:[^<>]|>>)*>`, false},
	{"STRING", `"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`, false},
	{"IDENT", `[A-Za-z_][A-Za-z0-9_-]*`, false},
})

// ParseBNF tokenizes and parses BNF grammar text into a ComplexGrammar.
// Terminal names are discovered implicitly: any quoted string
// becomes a terminal (after string decoding); any identifier that is never
// the head of a rule is treated as a terminal reference once lowering sees
// the complete production set (package lower / package builder resolve
// that; ParseBNF itself only records symbol names as they're written).
func ParseBNF(input string) (ComplexGrammar, error) {
	toks, err := tokenize(input, bnfPatterns)
	if err != nil {
		return ComplexGrammar{}, err
	}
	p := &bnfParser{toks: toks}
	return p.parseGrammar()
}

type bnfParser struct {
	toks []Token
	pos  int
}

func (p *bnfParser) peek() Token { return p.toks[p.pos] }

func (p *bnfParser) advance() Token {
	t := p.toks[p.pos]
	if t.Kind != "EOF" {
		p.pos++
	}
	return t
}

func (p *bnfParser) expect(kind string) (Token, error) {
	t := p.peek()
	if t.Kind != kind {
		return t, fmt.Errorf("parse error at line %d, col %d: expected %s, found %s %q", t.Line, t.Col, kind, t.Kind, t.Text)
	}
	return p.advance(), nil
}

func (p *bnfParser) parseGrammar() (ComplexGrammar, error) {
	var terms []string
	termSeen := map[string]bool{}
	recordTerm := func(name string) {
		if !termSeen[name] {
			termSeen[name] = true
			terms = append(terms, name)
		}
	}

	var prods []ComplexProduction
	for p.peek().Kind != "EOF" {
		head, err := p.parseSymbolName()
		if err != nil {
			return ComplexGrammar{}, err
		}
		if _, err := p.expect("DEFINE"); err != nil {
			return ComplexGrammar{}, err
		}

		for {
			body, bodyTerms, err := p.parseAlternative()
			if err != nil {
				return ComplexGrammar{}, err
			}
			for _, t := range bodyTerms {
				recordTerm(t)
			}
			prods = append(prods, ComplexProduction{Head: head, Body: body})

			if p.peek().Kind == "PIPE" {
				p.advance()
				continue
			}
			break
		}

		if p.peek().Kind == "SEMI" {
			p.advance()
		}
	}

	return ComplexGrammar{Terminals: terms, Productions: prods}, nil
}

// parseSymbolName accepts either a bare or angle-bracketed identifier as a
// non-terminal/terminal name.
func (p *bnfParser) parseSymbolName() (string, error) {
	t := p.peek()
	switch t.Kind {
	case "IDENT":
		p.advance()
		return t.Text, nil
	case "ANGLE":
		p.advance()
		return decodeAngle(t.Text), nil
	default:
		return "", fmt.Errorf("parse error at line %d, col %d: expected an identifier, found %s %q", t.Line, t.Col, t.Kind, t.Text)
	}
}

// parseAlternative consumes one alternative's body: a run of
// identifiers/angle-identifiers/strings, stopping at PIPE, SEMI, or EOF.
// Returns the Element sequence plus the set of quoted-string terminal names
// it introduced.
func (p *bnfParser) parseAlternative() ([]Element, []string, error) {
	var body []Element
	var termsIntroduced []string

	for {
		t := p.peek()
		switch t.Kind {
		case "IDENT":
			p.advance()
			body = append(body, symbolRef(t.Text))
		case "ANGLE":
			p.advance()
			body = append(body, symbolRef(decodeAngle(t.Text)))
		case "STRING":
			p.advance()
			decoded, err := decodeQuoted(t.Text)
			if err != nil {
				return nil, nil, err
			}
			body = append(body, symbolRef(decoded))
			termsIntroduced = append(termsIntroduced, decoded)
		case "PIPE", "SEMI", "EOF":
			return body, termsIntroduced, nil
		default:
			return nil, nil, fmt.Errorf("parse error at line %d, col %d: unexpected %s %q in production body", t.Line, t.Col, t.Kind, t.Text)
		}
	}
}

// identRegex matches a legal BNF identifier; it backs IsValidIdent.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// IsValidIdent reports whether name would tokenize as a single IDENT.
func IsValidIdent(name string) bool {
	return identRegex.MatchString(name)
}
