package notation

import (
	"fmt"
	"strings"
)

var abnfPatterns = compilePatterns([]struct {
	Kind string
	Expr string
	Skip bool
}{
	{"WS", `[ \t]+`, true},
	{"COMMENT", `;[^\n]*`, true},
	{"INCDEFINE", `=/`, false},
	{"DEFINE", `=`, false},
	{"SLASH", `/`, false},
	{"REPEAT", `[0-9]*\*[0-9]*`, false},
	{"NUMVAL", `%[bBdDxX][0-9A-Fa-f]+(?:-[0-9A-Fa-f]+|(?:\.[0-9A-Fa-f]+)+)?`, false},
	{"NUMBER", `[0-9]+`, false},
	{"PROSE", `<[^<>]*>`, false},
	{"STRING", `"[^"]*"`, false},
	{"DOT", `\.`, false},
	{"LPAREN", `\(`, false},
	{"RPAREN", `\)`, false},
	{"LBRACKET", `\[`, false},
	{"RBRACKET", `\]`, false},
	{"IDENT", `[A-Za-z][A-Za-z0-9-]*`, false},
})

// ParseABNF tokenizes and parses ABNF grammar text into a ComplexGrammar.
// Only IDENTIFIER|STRING|PROSE|NUMBER|REPEAT|NUMVAL tokens become body
// elements (each as an opaque symbol named by its text);
// grouping (`( )`), optionality (`[ ]`), numeric-value ranges (`%x30-39`),
// and value concatenation (`.`) are recognized at the token level but not
// given further structural or numeric meaning: this is a documented
// limitation -- grammars that rely on `%x30-39` for "digit" will fail to
// match.
//
// `=/` (ABNF's incremental-alternative operator) sets ComplexProduction.
// Incremental on every alternative it introduces; package lower checks that
// a plain `=` rule for that head exists and adds the alternatives to it.
func ParseABNF(input string) (ComplexGrammar, error) {
	lines := mergeContinuations(input)

	var terms []string
	termSeen := map[string]bool{}
	recordTerm := func(name string) {
		if !termSeen[name] {
			termSeen[name] = true
			terms = append(terms, name)
		}
	}

	var prods []ComplexProduction
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		toks, err := tokenize(line, abnfPatterns)
		if err != nil {
			return ComplexGrammar{}, err
		}
		if len(toks) == 0 || toks[0].Kind == "EOF" {
			continue
		}

		head, incremental, body, err := parseABNFRule(toks)
		if err != nil {
			return ComplexGrammar{}, err
		}

		for _, alt := range body {
			for _, e := range alt {
				if e.Kind == ElemSymbol && !isABNFLiteralKind(e.Symbol) {
					recordTerm(e.Symbol)
				}
			}
			prods = append(prods, ComplexProduction{Head: head, Body: alt, Incremental: incremental})
		}
	}

	heads := map[string]bool{}
	for _, p := range prods {
		heads[p.Head] = true
	}
	var bodyTerms []string
	for _, t := range terms {
		if !heads[t] {
			bodyTerms = append(bodyTerms, t)
		}
	}
	return ComplexGrammar{Terminals: bodyTerms, Productions: prods}, nil
}

// isABNFLiteralKind is a placeholder hook for future literal-vs-reference
// classification; ABNF identifiers are always treated as symbol references
// here (terminals and non-terminals are disambiguated later by whether a
// name is ever the head of a rule, same as BNF/EBNF).
func isABNFLiteralKind(string) bool { return false }

// mergeContinuations joins ABNF continuation lines (lines beginning with
// whitespace) onto the logical rule line they continue, honoring
// CRLF-significant newlines.
func mergeContinuations(input string) []string {
	raw := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")

	var logical []string
	for _, line := range raw {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(logical) > 0 {
			logical[len(logical)-1] += " " + strings.TrimSpace(line)
			continue
		}
		logical = append(logical, line)
	}
	return logical
}

// parseABNFRule parses one logical rule's token stream: `name (= | =/)
// alt (/ alt)*`.
func parseABNFRule(toks []Token) (head string, incremental bool, alts [][]Element, err error) {
	if toks[0].Kind != "IDENT" {
		return "", false, nil, fmt.Errorf("parse error at line %d, col %d: expected a rule name, found %s %q", toks[0].Line, toks[0].Col, toks[0].Kind, toks[0].Text)
	}
	head = toks[0].Text
	pos := 1

	if pos >= len(toks) {
		return "", false, nil, fmt.Errorf("rule %q has no definition", head)
	}
	switch toks[pos].Kind {
	case "DEFINE":
		incremental = false
	case "INCDEFINE":
		incremental = true
	default:
		return "", false, nil, fmt.Errorf("parse error at line %d, col %d: expected '=' or '=/', found %s %q", toks[pos].Line, toks[pos].Col, toks[pos].Kind, toks[pos].Text)
	}
	pos++

	var cur []Element
	for pos < len(toks) && toks[pos].Kind != "EOF" {
		t := toks[pos]
		switch t.Kind {
		case "IDENT", "NUMBER", "REPEAT", "NUMVAL":
			cur = append(cur, symbolRef(t.Text))
		case "PROSE":
			cur = append(cur, symbolRef(t.Text))
		case "STRING":
			decoded, derr := decodeQuoted(t.Text)
			if derr != nil {
				return "", false, nil, derr
			}
			cur = append(cur, symbolRef(decoded))
		case "SLASH":
			alts = append(alts, cur)
			cur = nil
		case "LPAREN", "RPAREN", "LBRACKET", "RBRACKET", "DOT":
			// recognized but not interpreted.
		default:
			return "", false, nil, fmt.Errorf("parse error at line %d, col %d: unexpected %s %q", t.Line, t.Col, t.Kind, t.Text)
		}
		pos++
	}
	alts = append(alts, cur)

	return head, incremental, alts, nil
}
