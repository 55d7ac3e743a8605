package notation

import "fmt"

var ebnfPatterns = compilePatterns([]struct {
	Kind string
	Expr string
	Skip bool
}{
	{"WS", `[ \t\r\n]+`, true},
	{"COMMENT", `//[^\n]*`, true},
	{"DEFINE", `::=|:=|=|:`, false},
	{"PIPE", `\|`, false},
	{"SEMI", `;`, false},
	{"LPAREN", `\(`, false},
	{"RPAREN", `\)`, false},
	{"LBRACKET", `\[`, false},
	{"RBRACKET", `\]`, false},
	{"LBRACE", `\{`, false},
	{"RBRACE", `\}`, false},
	{"STAR", `\*`, false},
	{"QUESTION", `\?`, false},
	{"NUMBER", `[0-9]+`, false},
	{"ANGLE", `<(?:[^<>]|>>)*>`, false},
	{"STRING", `"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`, false},
	{"IDENT", `[A-Za-z_][A-Za-z0-9_-]*`, false},
})

// ParseEBNF tokenizes and parses EBNF grammar text into a ComplexGrammar:
// the BNF superset plus `( )` grouping, `[ ]` optionality (with an
// optional postfix `* N` multiplicity), and `{ }` repetition.
//
// The postfix `?` token is tokenized, but its semantics are not left
// undefined here: this implementation defines it as
// sugar for `[…]` (the single-element optional form), one of the two
// explicitly sanctioned resolutions ("reject it or define it as sugar for
// […]") — see DESIGN.md.
func ParseEBNF(input string) (ComplexGrammar, error) {
	toks, err := tokenize(input, ebnfPatterns)
	if err != nil {
		return ComplexGrammar{}, err
	}
	p := &ebnfParser{toks: toks}
	return p.parseGrammar()
}

type ebnfParser struct {
	toks []Token
	pos  int
}

func (p *ebnfParser) peek() Token { return p.toks[p.pos] }

func (p *ebnfParser) advance() Token {
	t := p.toks[p.pos]
	if t.Kind != "EOF" {
		p.pos++
	}
	return t
}

func (p *ebnfParser) expect(kind string) (Token, error) {
	t := p.peek()
	if t.Kind != kind {
		return t, fmt.Errorf("parse error at line %d, col %d: expected %s, found %s %q", t.Line, t.Col, kind, t.Kind, t.Text)
	}
	return p.advance(), nil
}

func (p *ebnfParser) parseGrammar() (ComplexGrammar, error) {
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
			body, bodyTerms, err := p.parseSequence(stopAtTop)
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

func (p *ebnfParser) parseSymbolName() (string, error) {
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

type sequenceContext int

const (
	stopAtTop    sequenceContext = iota // PIPE/SEMI/EOF end the sequence, PIPE also separates alternatives at this level
	stopAtGroup                         // ')' or '|' ends one alternative inside a group
	stopAtBracket                       // ']' ends an optional body
	stopAtBrace                         // '}' ends a repeat body
)

// parseSequence reads a run of elements until a terminator appropriate to
// ctx, returning the Element sequence and any quoted-string terminal names
// introduced.
func (p *ebnfParser) parseSequence(ctx sequenceContext) ([]Element, []string, error) {
	var body []Element
	var terms []string

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
			terms = append(terms, decoded)

		case "LPAREN":
			p.advance()
			elem, groupTerms, err := p.parseGroup()
			if err != nil {
				return nil, nil, err
			}
			body = append(body, elem)
			terms = append(terms, groupTerms...)

		case "LBRACKET":
			p.advance()
			elem, innerTerms, err := p.parseOptional()
			if err != nil {
				return nil, nil, err
			}
			body = append(body, elem)
			terms = append(terms, innerTerms...)

		case "LBRACE":
			p.advance()
			elem, innerTerms, err := p.parseRepeat()
			if err != nil {
				return nil, nil, err
			}
			body = append(body, elem)
			terms = append(terms, innerTerms...)

		case "STAR":
			// postfix multiplicity on the element just appended.
			if len(body) == 0 {
				return nil, nil, fmt.Errorf("parse error at line %d, col %d: '*' with no preceding element", t.Line, t.Col)
			}
			p.advance()
			n, err := p.expectNumber()
			if err != nil {
				return nil, nil, err
			}
			last := body[len(body)-1]
			body[len(body)-1] = Element{Kind: ElemMult, Alternatives: [][]Element{{last}}, Mult: n}

		case "QUESTION":
			// sugar for a single-element optional (resolved above).
			if len(body) == 0 {
				return nil, nil, fmt.Errorf("parse error at line %d, col %d: '?' with no preceding element", t.Line, t.Col)
			}
			p.advance()
			last := body[len(body)-1]
			body[len(body)-1] = Element{Kind: ElemOptional, Alternatives: [][]Element{{last}}}

		case "PIPE":
			if ctx == stopAtTop || ctx == stopAtGroup {
				return body, terms, nil
			}
			return nil, nil, fmt.Errorf("parse error at line %d, col %d: unexpected '|'", t.Line, t.Col)

		case "SEMI", "EOF":
			if ctx == stopAtTop {
				return body, terms, nil
			}
			return nil, nil, fmt.Errorf("parse error at line %d, col %d: unterminated group/optional/repeat", t.Line, t.Col)

		case "RPAREN":
			if ctx == stopAtGroup {
				return body, terms, nil
			}
			return nil, nil, fmt.Errorf("parse error at line %d, col %d: unexpected ')'", t.Line, t.Col)

		case "RBRACKET":
			if ctx == stopAtBracket {
				return body, terms, nil
			}
			return nil, nil, fmt.Errorf("parse error at line %d, col %d: unexpected ']'", t.Line, t.Col)

		case "RBRACE":
			if ctx == stopAtBrace {
				return body, terms, nil
			}
			return nil, nil, fmt.Errorf("parse error at line %d, col %d: unexpected '}'", t.Line, t.Col)

		default:
			return nil, nil, fmt.Errorf("parse error at line %d, col %d: unexpected %s %q", t.Line, t.Col, t.Kind, t.Text)
		}
	}
}

func (p *ebnfParser) expectNumber() (int, error) {
	t := p.peek()
	if t.Kind != "NUMBER" {
		return 0, fmt.Errorf("parse error at line %d, col %d: expected a number, found %s %q", t.Line, t.Col, t.Kind, t.Text)
	}
	p.advance()
	n := 0
	for _, c := range t.Text {
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// parseGroup parses `(alt1 | alt2 | ...)`, already past the '('.
func (p *ebnfParser) parseGroup() (Element, []string, error) {
	var alts [][]Element
	var terms []string
	for {
		seq, seqTerms, err := p.parseSequence(stopAtGroup)
		if err != nil {
			return Element{}, nil, err
		}
		alts = append(alts, seq)
		terms = append(terms, seqTerms...)
		if p.peek().Kind == "PIPE" {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect("RPAREN"); err != nil {
		return Element{}, nil, err
	}
	return Element{Kind: ElemGroup, Alternatives: alts}, terms, nil
}

// parseOptional parses `[X]` or `[X] * N`, already past the '['.
func (p *ebnfParser) parseOptional() (Element, []string, error) {
	seq, terms, err := p.parseSequence(stopAtBracket)
	if err != nil {
		return Element{}, nil, err
	}
	if _, err := p.expect("RBRACKET"); err != nil {
		return Element{}, nil, err
	}
	mult := 0
	if p.peek().Kind == "STAR" {
		p.advance()
		n, err := p.expectNumber()
		if err != nil {
			return Element{}, nil, err
		}
		mult = n
	}
	return Element{Kind: ElemOptional, Alternatives: [][]Element{seq}, Mult: mult}, terms, nil
}

// parseRepeat parses `{X}`, already past the '{'.
func (p *ebnfParser) parseRepeat() (Element, []string, error) {
	seq, terms, err := p.parseSequence(stopAtBrace)
	if err != nil {
		return Element{}, nil, err
	}
	if _, err := p.expect("RBRACE"); err != nil {
		return Element{}, nil, err
	}
	return Element{Kind: ElemRepeat, Alternatives: [][]Element{seq}}, terms, nil
}
