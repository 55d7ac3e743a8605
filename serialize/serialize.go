// Package serialize implements two JSON-compatible artifact shapes --
// SerializedLexer and SerializedParser -- plus a compact binary codec on
// top of them.
//
// The canonical form is plain encoding/json-tagged structs. The binary
// form uses github.com/dekarrin/rezi for exactly the kind of
// encode-a-struct-to-bytes task it's built for.
//
// Handlers serialize as {type: "function"|"arrow"|"builtin", source?,
// ...}, with source-coded handlers meant to be compiled by constructing a
// callable from the source string with an injected context map on
// deserialization. Go has no runtime eval, so that path has no direct
// equivalent here; this package supports only the "builtin" handler kind,
// resolved against a caller-supplied Builtins registry at deserialization
// time: built-ins are looked up in a fixed table. A handler with no
// registered builtin id fails deserialization with a
// *errs.SerializationError instead of silently defaulting to identity,
// since "identity" and "no handler bound" are observably different
// productions and silently conflating them would be a correctness bug, not
// a convenience.
package serialize

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dekarrin/rezi"

	"github.com/havtorn/sturgeon/errs"
	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/lexer"
	"github.com/havtorn/sturgeon/lr"
	"github.com/havtorn/sturgeon/symbol"
)

// HandlerRecord is the serialized form of one reduce/lex-match callback.
// Only Type == "builtin" round-trips through Deserialize*; a production or
// rule with no handler has no record at all (a null entry or an omitted
// field).
type HandlerRecord struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	IsAsync   bool   `json:"isAsync"`
	BuiltinID string `json:"builtinId,omitempty"`
}

// LexerRecord is one entry of SerializedLexer.Records, mirroring lexer.Rule.
type LexerRecord struct {
	Name         string         `json:"name"`
	Pattern      string         `json:"pattern"`
	Flags        string         `json:"flags,omitempty"`
	IsRegExp     bool           `json:"isRegExp"`
	Discard      bool           `json:"discard,omitempty"`
	Handler      *HandlerRecord `json:"handler,omitempty"`
	NameSelector *HandlerRecord `json:"nameSelector,omitempty"`
}

// SerializedLexer is the wire shape
// { records, eofName, eofValue, dummyHandler }.
type SerializedLexer struct {
	Records      []LexerRecord `json:"records"`
	EOFName      string        `json:"eofName"`
	EOFValue     any           `json:"eofValue"`
	DummyHandler string        `json:"dummyHandler"`
}

// ActionRecord is one ACTION table cell in wire form, equivalent to a
// ["shift",[s]] / ["reduce",[h,len,pid]] / ["accept",[]] / ["error",[msg]]
// tuple, spelled out as named fields instead of a positional tuple (nothing
// in this module's wire format needs the tuple-vs-object distinction, and a
// named-field record is harder to get wrong on either side of the codec).
type ActionRecord struct {
	Kind         string   `json:"kind"`
	State        string   `json:"state,omitempty"`
	Head         string   `json:"head,omitempty"`
	Body         []string `json:"body,omitempty"`
	ProductionID int      `json:"productionId,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// SymbolRecord is one entry of SerializedParser.Symbols.
type SymbolRecord struct {
	Name string `json:"name"`
	IsNT bool   `json:"isNT"`
}

// SerializedParser is the wire shape for a compiled parser: action/goto tables keyed
// by integer state/symbol id (stringified, since JSON object keys are
// always strings), the handler array, and the interned symbol table.
type SerializedParser struct {
	Action       map[string]map[string]ActionRecord `json:"action"`
	Goto         map[string]map[string]string       `json:"goto"`
	ActionMode   string                              `json:"actionMode"`
	Actions      []*HandlerRecord                    `json:"actions"`
	StartState   string                              `json:"startState"`
	NumStates    int                                 `json:"numStates"`
	Symbols      []SymbolRecord                      `json:"symbols"`
	SymbolsTable map[string]int                      `json:"symbolsTable"`
}

// Builtins is the fixed table deserialization resolves
// builtin handler ids against. A caller registers every handler its grammar
// and lexer rules use before calling DeserializeLexer/DeserializeParser.
type Builtins struct {
	lexHandlers  map[string]lexer.Handler
	lexSelectors map[string]lexer.NameSelector
	userHandlers map[string]grammar.UserHandler
}

// NewBuiltins returns an empty registry.
func NewBuiltins() *Builtins {
	return &Builtins{
		lexHandlers:  map[string]lexer.Handler{},
		lexSelectors: map[string]lexer.NameSelector{},
		userHandlers: map[string]grammar.UserHandler{},
	}
}

// RegisterLexerHandler binds id to a lexer.Handler, resolvable by
// DeserializeLexer.
func (b *Builtins) RegisterLexerHandler(id string, h lexer.Handler) {
	b.lexHandlers[id] = h
}

// RegisterNameSelector binds id to a lexer.NameSelector, resolvable by
// DeserializeLexer.
func (b *Builtins) RegisterNameSelector(id string, s lexer.NameSelector) {
	b.lexSelectors[id] = s
}

// RegisterUserHandler binds id to a grammar.UserHandler, resolvable by
// DeserializeParser.
func (b *Builtins) RegisterUserHandler(id string, h grammar.UserHandler) {
	b.userHandlers[id] = h
}

// LexerSource pairs one lexer.Rule with the builtin ids used to serialize
// its callbacks. Go cannot introspect a func value back into a registry
// key, so the caller -- who built the rule in the first place -- must name
// which builtin it came from; an empty id means "no handler"/"no selector".
type LexerSource struct {
	Rule            lexer.Rule
	HandlerBuiltin  string
	SelectorBuiltin string
}

// SerializeLexer builds the canonical SerializedLexer form of sources.
func SerializeLexer(sources []LexerSource, eofName string, eofValue any, dummyHandlerBuiltin string) *SerializedLexer {
	sl := &SerializedLexer{EOFName: eofName, EOFValue: eofValue, DummyHandler: dummyHandlerBuiltin}
	for _, src := range sources {
		rec := LexerRecord{
			Name:     src.Rule.Name,
			Pattern:  src.Rule.Pattern,
			IsRegExp: src.Rule.IsRegexp,
			Discard:  src.Rule.Discard,
		}
		if src.Rule.IsRegexp {
			rec.Flags = "y"
		}
		if src.HandlerBuiltin != "" {
			rec.Handler = &HandlerRecord{Type: "builtin", BuiltinID: src.HandlerBuiltin}
		}
		if src.SelectorBuiltin != "" {
			rec.NameSelector = &HandlerRecord{Type: "builtin", BuiltinID: src.SelectorBuiltin}
		}
		sl.Records = append(sl.Records, rec)
	}
	return sl
}

// DeserializeLexer rebuilds a *lexer.Lexer from sl, resolving every builtin
// handler/selector id against b.
func DeserializeLexer(sl *SerializedLexer, b *Builtins) (*lexer.Lexer, error) {
	rules := make([]lexer.Rule, len(sl.Records))
	for i, rec := range sl.Records {
		r := lexer.Rule{Name: rec.Name, Pattern: rec.Pattern, IsRegexp: rec.IsRegExp, Discard: rec.Discard}
		if rec.Handler != nil {
			h, ok := b.lexHandlers[rec.Handler.BuiltinID]
			if !ok {
				return nil, errs.NewSerializationError("unknown lexer handler builtin", fmt.Errorf("%q", rec.Handler.BuiltinID))
			}
			r.Handler = h
		}
		if rec.NameSelector != nil {
			s, ok := b.lexSelectors[rec.NameSelector.BuiltinID]
			if !ok {
				return nil, errs.NewSerializationError("unknown name-selector builtin", fmt.Errorf("%q", rec.NameSelector.BuiltinID))
			}
			r.NameSelector = s
		}
		rules[i] = r
	}
	lx, err := lexer.New(rules, sl.EOFName, sl.EOFValue)
	if err != nil {
		return nil, err
	}
	return lx, nil
}

// SerializeParser builds the canonical SerializedParser form of t, a table
// built over g. handlerBuiltins is indexed the same way the owning
// builder's handler array is: handlerBuiltins[i] names the builtin id for
// grammar.Handler(i), or "" if that slot has no serializable binding.
func SerializeParser(g grammar.Grammar, t *lr.Table, handlerBuiltins []string) *SerializedParser {
	st := symbol.NewTable()
	for _, term := range g.Terminals() {
		st.Intern(symbol.Terminal(term))
	}
	for _, nt := range g.NonTerminals() {
		st.Intern(symbol.NonTerminal(nt))
	}

	stateIdx := map[string]int{}
	for i, s := range t.States() {
		stateIdx[s] = i
	}

	sp := &SerializedParser{
		ActionMode: t.Mode.String(),
		StartState: strconv.Itoa(stateIdx[t.Initial()]),
		NumStates:  len(stateIdx),
		Action:     map[string]map[string]ActionRecord{},
		Goto:       map[string]map[string]string{},
	}

	for i := 0; i < st.Len(); i++ {
		sym := st.At(i)
		sp.Symbols = append(sp.Symbols, SymbolRecord{Name: sym.Name, IsNT: sym.IsNonTerminal()})
	}
	sp.SymbolsTable = map[string]int{}
	for i := 0; i < st.Len(); i++ {
		sp.SymbolsTable[st.At(i).Name] = i
	}

	for _, s := range t.States() {
		sid := strconv.Itoa(stateIdx[s])

		row := map[string]ActionRecord{}
		for _, term := range t.Terminals() {
			act := t.Action(s, term)
			if act.Type == lr.Error {
				continue
			}
			tid, ok := st.Lookup(term)
			if !ok {
				continue
			}
			row[strconv.Itoa(tid)] = serializeAction(act, stateIdx)
		}
		if len(row) > 0 {
			sp.Action[sid] = row
		}

		gotoRow := map[string]string{}
		for _, nt := range g.NonTerminals() {
			dest, ok := t.Goto(s, nt)
			if !ok {
				continue
			}
			ntID, ok := st.Lookup(nt)
			if !ok {
				continue
			}
			gotoRow[strconv.Itoa(ntID)] = strconv.Itoa(stateIdx[dest])
		}
		if len(gotoRow) > 0 {
			sp.Goto[sid] = gotoRow
		}
	}

	for _, id := range handlerBuiltins {
		if id == "" {
			sp.Actions = append(sp.Actions, nil)
			continue
		}
		sp.Actions = append(sp.Actions, &HandlerRecord{Type: "builtin", BuiltinID: id})
	}

	return sp
}

func serializeAction(a lr.Action, stateIdx map[string]int) ActionRecord {
	switch a.Type {
	case lr.Shift:
		return ActionRecord{Kind: "shift", State: strconv.Itoa(stateIdx[a.State])}
	case lr.Reduce:
		return ActionRecord{Kind: "reduce", Head: a.Head, Body: a.Body, ProductionID: a.ProductionID}
	case lr.Accept:
		return ActionRecord{Kind: "accept"}
	default:
		return ActionRecord{Kind: "error", Message: a.Message}
	}
}

// DeserializeParser rebuilds a *lr.Table and its handler array from sp,
// resolving every builtin handler id against b.
func DeserializeParser(sp *SerializedParser, b *Builtins) (*lr.Table, []grammar.UserHandler, error) {
	mode := parseMode(sp.ActionMode)

	idToName := make(map[string]string, len(sp.SymbolsTable))
	for name, id := range sp.SymbolsTable {
		idToName[strconv.Itoa(id)] = name
	}

	action := make(map[string]map[string]lr.Action, len(sp.Action))
	for state, row := range sp.Action {
		out := make(map[string]lr.Action, len(row))
		for tid, rec := range row {
			name, ok := idToName[tid]
			if !ok {
				return nil, nil, errs.NewSerializationError("unknown terminal id in serialized action table", fmt.Errorf("%s", tid))
			}
			out[name] = deserializeAction(rec)
		}
		action[state] = out
	}

	goTo := make(map[string]map[string]string, len(sp.Goto))
	for state, row := range sp.Goto {
		out := make(map[string]string, len(row))
		for ntID, dest := range row {
			name, ok := idToName[ntID]
			if !ok {
				return nil, nil, errs.NewSerializationError("unknown non-terminal id in serialized goto table", fmt.Errorf("%s", ntID))
			}
			out[name] = dest
		}
		goTo[state] = out
	}

	states := make([]string, sp.NumStates)
	for i := range states {
		states[i] = strconv.Itoa(i)
	}

	var terminals []string
	for _, sym := range sp.Symbols {
		if !sym.IsNT && sym.Name != symbol.EOFName {
			terminals = append(terminals, sym.Name)
		}
	}
	terminals = append(terminals, symbol.EOFName)

	table := lr.NewFromTables(mode, sp.StartState, states, terminals, action, goTo)

	handlers := make([]grammar.UserHandler, len(sp.Actions))
	for i, rec := range sp.Actions {
		if rec == nil {
			continue
		}
		h, ok := b.userHandlers[rec.BuiltinID]
		if !ok {
			return nil, nil, errs.NewSerializationError("unknown user-handler builtin", fmt.Errorf("%q", rec.BuiltinID))
		}
		handlers[i] = h
	}

	return table, handlers, nil
}

func deserializeAction(rec ActionRecord) lr.Action {
	switch rec.Kind {
	case "shift":
		return lr.Action{Type: lr.Shift, State: rec.State}
	case "reduce":
		return lr.Action{Type: lr.Reduce, Head: rec.Head, Body: rec.Body, ProductionID: rec.ProductionID}
	case "accept":
		return lr.Action{Type: lr.Accept}
	default:
		return lr.Action{Type: lr.Error, Message: rec.Message}
	}
}

func parseMode(s string) lr.Mode {
	switch s {
	case lr.ModeSLR.String():
		return lr.ModeSLR
	case lr.ModeLALR1.String():
		return lr.ModeLALR1
	default:
		return lr.ModeCLR1
	}
}

// reziLexer is the rezi-friendly mirror of SerializedLexer: rezi, unlike
// encoding/json, cannot encode an `any`-typed field, so EOFValue travels as
// its own JSON-encoded blob. Only the canonical form needs to be
// JSON-compatible; the binary codec is an additional convenience on top of
// it, not the format of record.
type reziLexer struct {
	Records      []LexerRecord
	EOFName      string
	EOFValueJSON []byte
	DummyHandler string
}

// EncodeLexerBinary encodes sl with github.com/dekarrin/rezi.
func EncodeLexerBinary(sl *SerializedLexer) ([]byte, error) {
	valueJSON, err := json.Marshal(sl.EOFValue)
	if err != nil {
		return nil, fmt.Errorf("serialize: encoding EOF value: %w", err)
	}
	wire := reziLexer{Records: sl.Records, EOFName: sl.EOFName, EOFValueJSON: valueJSON, DummyHandler: sl.DummyHandler}
	return rezi.EncBinary(wire), nil
}

// DecodeLexerBinary decodes bytes produced by EncodeLexerBinary.
func DecodeLexerBinary(data []byte) (*SerializedLexer, error) {
	var wire reziLexer
	n, err := rezi.DecBinary(data, &wire)
	if err != nil {
		return nil, errs.NewSerializationError("decoding binary lexer", err)
	}
	if n != len(data) {
		return nil, errs.NewSerializationError("decoding binary lexer", fmt.Errorf("consumed %d/%d bytes", n, len(data)))
	}
	var value any
	if len(wire.EOFValueJSON) > 0 {
		if err := json.Unmarshal(wire.EOFValueJSON, &value); err != nil {
			return nil, errs.NewSerializationError("decoding EOF value", err)
		}
	}
	return &SerializedLexer{Records: wire.Records, EOFName: wire.EOFName, EOFValue: value, DummyHandler: wire.DummyHandler}, nil
}

// EncodeParserBinary encodes sp with github.com/dekarrin/rezi. Unlike
// SerializedLexer, SerializedParser has no `any`-typed field, so it encodes
// directly with no wire-shape translation.
func EncodeParserBinary(sp *SerializedParser) []byte {
	return rezi.EncBinary(*sp)
}

// DecodeParserBinary decodes bytes produced by EncodeParserBinary.
func DecodeParserBinary(data []byte) (*SerializedParser, error) {
	var sp SerializedParser
	n, err := rezi.DecBinary(data, &sp)
	if err != nil {
		return nil, errs.NewSerializationError("decoding binary parser", err)
	}
	if n != len(data) {
		return nil, errs.NewSerializationError("decoding binary parser", fmt.Errorf("consumed %d/%d bytes", n, len(data)))
	}
	return &sp, nil
}
