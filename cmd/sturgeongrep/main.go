/*
Sturgeongrep loads a grammar and a compiled lexer and starts an interactive
session for exploring a parse table: feed it input lines and it shows the
shift/reduce trace and the value the grammar's handlers computed, or inspect
the tables directly.

Usage:

	sturgeongrep [flags]

The flags are:

	-g, --grammar FILE
		Grammar source file to compile. Required.

	-n, --notation bnf|ebnf|abnf
		Which notation --grammar is written in. Defaults to "ebnf".

	-l, --lexer FILE
		A JSON-encoded SerializedLexer (see package serialize) to compile
		against the grammar's terminal alphabet. Required.

	-m, --mode auto|slr|lalr1|lr1
		Table construction mode. Defaults to "auto".

	-d, --direct
		Force reading directly from stdin instead of readline, even if
		launched in a tty.

	-c, --command COMMANDS
		Run the given REPL command(s) immediately at start. Multiple commands
		are separated by ";".

Once started, type HELP for the list of REPL commands. To exit, type QUIT.
*/
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/pflag"

	"github.com/havtorn/sturgeon/config"
	"github.com/havtorn/sturgeon/driver"
	"github.com/havtorn/sturgeon/errs"
	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/lexer"
	"github.com/havtorn/sturgeon/lower"
	"github.com/havtorn/sturgeon/lr"
	"github.com/havtorn/sturgeon/notation"
	"github.com/havtorn/sturgeon/serialize"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitInitError indicates a problem loading the grammar or lexer.
	ExitInitError

	// ExitSessionError indicates a problem reading REPL input.
	ExitSessionError
)

var (
	returnCode   = ExitSuccess
	flagGrammar  = pflag.StringP("grammar", "g", "", "grammar source file to compile")
	flagNotation = pflag.StringP("notation", "n", "ebnf", "notation of --grammar: bnf, ebnf, or abnf")
	flagLexer    = pflag.StringP("lexer", "l", "", "JSON-encoded SerializedLexer file")
	flagMode     = pflag.StringP("mode", "m", "auto", "table construction mode: auto, slr, lalr1, or lr1")
	flagDirect   = pflag.BoolP("direct", "d", false, "force reading directly from stdin instead of readline")
	flagCommand  = pflag.StringP("command", "c", "", "run the given REPL command(s) immediately, separated by ;")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagGrammar == "" || *flagLexer == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --grammar and --lexer are both required")
		returnCode = ExitInitError
		return
	}

	sess, err := newSession(*flagGrammar, *flagNotation, *flagLexer, *flagMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	fmt.Printf("sturgeongrep: compiled %s table, %s states, %s terminals\n",
		sess.table.Mode, humanize.Comma(int64(len(sess.table.States()))), humanize.Comma(int64(len(sess.table.Terminals()))))

	var startCommands []string
	if *flagCommand != "" {
		startCommands = strings.Split(*flagCommand, ";")
	}

	reader, closeReader, err := newReader(*flagDirect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	defer closeReader()

	if err := runUntilQuit(sess, reader, startCommands); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitSessionError
		return
	}
}

// session bundles everything a REPL command needs: the grammar, its compiled
// table, a fresh lexer per parse (lexer.Lexer is reset by SetInput so one
// instance would do, but a REPL re-entering PARSE repeatedly is clearer
// about state if each call gets its own), and the builtins registry used to
// resolve the lexer's handler ids.
type session struct {
	g        grammar.Grammar
	table    *lr.Table
	sl       *serialize.SerializedLexer
	b        *serialize.Builtins
	handlers []grammar.UserHandler
}

func newSession(grammarFile, notationName, lexerFile, modeName string) (*session, error) {
	grammarSrc, err := os.ReadFile(grammarFile)
	if err != nil {
		return nil, fmt.Errorf("reading grammar file: %w", err)
	}

	var cg notation.ComplexGrammar
	switch notationName {
	case "bnf":
		cg, err = notation.ParseBNF(string(grammarSrc))
	case "abnf":
		cg, err = notation.ParseABNF(string(grammarSrc))
	default:
		cg, err = notation.ParseEBNF(string(grammarSrc))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing grammar: %w", err)
	}

	g, _, err := lower.Lower(cg)
	if err != nil {
		return nil, fmt.Errorf("lowering grammar: %w", err)
	}

	lexerData, err := os.ReadFile(lexerFile)
	if err != nil {
		return nil, fmt.Errorf("reading lexer file: %w", err)
	}
	var sl serialize.SerializedLexer
	if err := json.Unmarshal(lexerData, &sl); err != nil {
		return nil, fmt.Errorf("parsing lexer file: %w", err)
	}

	b := registerBuiltins()

	policy := config.Default().LRPolicy()
	var table *lr.Table
	switch config.Mode(modeName) {
	case config.ModeSLR:
		table, err = lr.BuildSLRWithPolicy(g, policy)
	case config.ModeLALR1:
		table, err = lr.BuildLALR1WithPolicy(g, policy)
	case config.ModeCLR1:
		table, err = lr.BuildCLR1WithPolicy(g, policy)
	default:
		table, _, err = lr.BuildAutoWithPolicy(g, policy)
	}
	if err != nil {
		return nil, fmt.Errorf("constructing parse table: %w", err)
	}

	return &session{g: g, table: table, sl: &sl, b: b}, nil
}

func (s *session) newLexer() (*lexer.Lexer, error) {
	return serialize.DeserializeLexer(s.sl, s.b)
}

// runUntilQuit drives the REPL loop: run any startCommands first, then read
// and dispatch lines from reader until QUIT or end of input -- run seed
// commands, then loop reading the rest interactively.
func runUntilQuit(sess *session, reader commandReader, startCommands []string) error {
	for _, cmdLine := range startCommands {
		if strings.TrimSpace(cmdLine) == "" {
			continue
		}
		if quit := dispatch(sess, cmdLine); quit {
			return nil
		}
	}

	for {
		line, err := reader.ReadCommand()
		if err != nil {
			return nil
		}
		if quit := dispatch(sess, line); quit {
			return nil
		}
	}
}

// dispatch runs one REPL line, returning true if it was QUIT.
func dispatch(sess *session, line string) (quit bool) {
	args, err := shellquote.Split(line)
	if err != nil || len(args) == 0 {
		return false
	}

	switch strings.ToUpper(args[0]) {
	case "QUIT", "EXIT":
		return true
	case "HELP":
		printHelp()
	case "GRAMMAR":
		printGrammar(sess)
	case "STATE":
		if len(args) < 2 {
			fmt.Println("usage: STATE <state-id>")
			return false
		}
		printState(sess, args[1])
	case "PARSE":
		runParse(sess, strings.TrimSpace(strings.TrimPrefix(line, args[0])), false)
	case "TRACE":
		runParse(sess, strings.TrimSpace(strings.TrimPrefix(line, args[0])), true)
	case "EXPORT":
		if len(args) < 3 {
			fmt.Println("usage: EXPORT <lexer-out.json> <parser-out.json>")
			return false
		}
		exportCompiled(sess, args[1], args[2])
	default:
		fmt.Printf("unrecognized command %q; type HELP for the list\n", args[0])
	}
	return false
}

func printHelp() {
	fmt.Println("commands:")
	fmt.Println("  GRAMMAR             show terminals, non-terminals, and productions")
	fmt.Println("  STATE <id>          show one state's ACTION/GOTO row")
	fmt.Println("  PARSE <input>       parse input, printing the resulting value")
	fmt.Println("  TRACE <input>       parse input, printing every shift/reduce step")
	fmt.Println("  EXPORT <lf> <pf>    write the loaded SerializedLexer/SerializedParser as JSON")
	fmt.Println("  QUIT                end the session")
}

// exportCompiled writes the session's SerializedLexer (as loaded) and a
// freshly built SerializedParser to lexerFile/parserFile, letting another
// tool (package inspect, package cache, or a second sturgeongrep run) pick
// up exactly what this session compiled.
func exportCompiled(sess *session, lexerFile, parserFile string) {
	lexData, err := json.MarshalIndent(sess.sl, "", "  ")
	if err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}
	if err := os.WriteFile(lexerFile, lexData, 0o644); err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}

	sp := serialize.SerializeParser(sess.g, sess.table, nil)
	parserData, err := json.MarshalIndent(sp, "", "  ")
	if err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}
	if err := os.WriteFile(parserFile, parserData, 0o644); err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}

	fmt.Printf("wrote %s and %s\n", lexerFile, parserFile)
}

func printGrammar(sess *session) {
	fmt.Printf("start: %s\n", sess.g.StartSymbol())
	fmt.Printf("terminals: %s\n", strings.Join(sess.g.Terminals(), ", "))
	fmt.Printf("non-terminals: %s\n", strings.Join(sess.g.NonTerminals(), ", "))
	for _, p := range sess.g.Productions() {
		fmt.Printf("  %s -> %s\n", p.Head, p.Prod.String())
	}
}

func printState(sess *session, state string) {
	found := false
	for _, term := range sess.table.Terminals() {
		act := sess.table.Action(state, term)
		if act.Type != lr.Error {
			fmt.Printf("  on %s: %s\n", term, act.String())
			found = true
		}
	}
	for _, nt := range sess.g.NonTerminals() {
		if dest, ok := sess.table.Goto(state, nt); ok {
			fmt.Printf("  goto %s: %s\n", nt, dest)
			found = true
		}
	}
	if !found {
		fmt.Printf("state %q has no recorded actions\n", state)
	}
}

func runParse(sess *session, input string, traced bool) {
	lx, err := sess.newLexer()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}
	lx.SetInput(input)

	p := driver.New(sess.g, sess.table, sess.handlers)

	var result any
	if traced {
		result, err = p.ParseTraced(lx, nil, func(msg string) { fmt.Println("  " + msg) })
	} else {
		result, err = p.Parse(lx, nil)
	}
	if err != nil {
		if ut, ok := err.(*errs.UnexpectedTokenError); ok {
			fmt.Printf("ERROR: unexpected token %s %q at line %d col %d (expected one of: %s)\n",
				ut.TokenName, ut.Lexeme, ut.Pos.Line, ut.Pos.Col, strings.Join(ut.Expected, ", "))
			return
		}
		fmt.Printf("ERROR: %s\n", err.Error())
		return
	}
	fmt.Printf("=> %#v\n", result)
}
