// Package inspect exposes a read-only HTTP introspection surface over a
// compiled front-end: its ACTION/GOTO table and lexer rules, rendered as
// JSON, for tooling (an editor plugin, a web playground) that wants to show
// a grammar author what their grammar actually compiled to without shelling
// out to the REPL.
//
// Routing uses github.com/go-chi/chi/v5's Router, with chi.URLParam for
// path parameters. Each endpoint is a plain route on one router; no
// middleware is installed and handler panics are not turned into 500
// responses.
package inspect

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havtorn/sturgeon/builder"
	"github.com/havtorn/sturgeon/lr"
	"github.com/havtorn/sturgeon/serialize"
)

// Server serves a read-only view of one compiled front-end.
type Server struct {
	c               *builder.Compiled
	handlerBuiltins []string
}

// New returns a Server exposing c. handlerBuiltins names the builtin id
// bound to each of c.Handlers(), in order (see serialize.SerializeParser);
// pass nil if the front-end's handlers were never registered under builtin
// ids, in which case /parser's "actions" field is null.
func New(c *builder.Compiled, handlerBuiltins []string) *Server {
	return &Server{c: c, handlerBuiltins: handlerBuiltins}
}

// Router builds the chi.Router exposing this server's endpoints:
//
//	GET /grammar           terminals, non-terminals, and productions
//	GET /lexer             lexer rules in SerializedLexer form
//	GET /parser            ACTION/GOTO tables in SerializedParser form
//	GET /parser/states/{state} the ACTION/GOTO row for one state id
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/grammar", s.handleGrammar)
	r.Get("/lexer", s.handleLexer)
	r.Get("/parser", s.handleParser)
	r.Get("/parser/states/{state}", s.handleState)
	return r
}

type grammarView struct {
	StartSymbol  string   `json:"startSymbol"`
	Terminals    []string `json:"terminals"`
	NonTerminals []string `json:"nonTerminals"`
	Productions  []string `json:"productions"`
	Mode         string   `json:"mode"`
}

func (s *Server) handleGrammar(w http.ResponseWriter, r *http.Request) {
	g := s.c.Grammar()
	view := grammarView{
		StartSymbol:  g.StartSymbol(),
		Terminals:    g.Terminals(),
		NonTerminals: g.NonTerminals(),
		Mode:         s.c.Mode().String(),
	}
	for _, p := range g.Productions() {
		view.Productions = append(view.Productions, p.Head+" -> "+p.Prod.String())
	}
	writeJSON(w, http.StatusOK, view)
}

// handleLexer reports every rule's name and pattern, but never a handler's
// builtin id: Compiled has no record of which registry key a given
// lexer.Handler func value came from, only the func itself. A caller that
// needs the builtin ids back out should keep its own []serialize.LexerSource
// alongside the Compiled it built, rather than recovering it from here.
func (s *Server) handleLexer(w http.ResponseWriter, r *http.Request) {
	lx := s.c.Lexer()
	var sources []serialize.LexerSource
	for _, rule := range lx.Rules() {
		sources = append(sources, serialize.LexerSource{Rule: rule})
	}
	sl := serialize.SerializeLexer(sources, lx.EOFName(), lx.EOFValue(), "")
	writeJSON(w, http.StatusOK, sl)
}

func (s *Server) handleParser(w http.ResponseWriter, r *http.Request) {
	sp := serialize.SerializeParser(s.c.Grammar(), s.c.Table(), s.handlerBuiltins)
	writeJSON(w, http.StatusOK, sp)
}

type stateView struct {
	State  string                `json:"state"`
	Action map[string]lr.Action  `json:"action"`
	Goto   map[string]string     `json:"goto"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")

	view := stateView{State: state, Action: map[string]lr.Action{}, Goto: map[string]string{}}
	for _, term := range s.c.Table().Terminals() {
		act := s.c.Table().Action(state, term)
		if act.Type != lr.Error {
			view.Action[term] = act
		}
	}
	for _, nt := range s.c.Grammar().NonTerminals() {
		if dest, ok := s.c.Table().Goto(state, nt); ok {
			view.Goto[nt] = dest
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
