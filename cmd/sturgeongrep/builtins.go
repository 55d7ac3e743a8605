package main

import (
	"strconv"
	"strings"

	"github.com/havtorn/sturgeon/serialize"
)

// registerBuiltins populates b with the fixed table of lexer and user
// handlers a SerializedLexer/SerializedParser loaded from disk can reference
// by id: built-ins are looked up in a fixed table. A grammar author
// wiring a custom handler into their own Go program registers their own ids
// against their own *serialize.Builtins instead; this set exists only so
// sturgeongrep has something runnable to load out of the box.
func registerBuiltins() *serialize.Builtins {
	b := serialize.NewBuiltins()

	b.RegisterLexerHandler("identity", func(lexeme string, groups []string) (any, error) {
		return lexeme, nil
	})
	b.RegisterLexerHandler("parseInt", func(lexeme string, groups []string) (any, error) {
		return strconv.ParseInt(lexeme, 10, 64)
	})
	b.RegisterLexerHandler("parseFloat", func(lexeme string, groups []string) (any, error) {
		return strconv.ParseFloat(lexeme, 64)
	})
	b.RegisterLexerHandler("unquote", func(lexeme string, groups []string) (any, error) {
		return strconv.Unquote(lexeme)
	})

	b.RegisterNameSelector("discardWhitespace", func(value any, lexeme string) (string, bool) {
		if strings.TrimSpace(lexeme) == "" {
			return "", false
		}
		return "", true
	})

	b.RegisterUserHandler("identity", func(ctx any, args []any) (any, error) {
		return append([]any(nil), args...), nil
	})
	b.RegisterUserHandler("first", func(ctx any, args []any) (any, error) {
		if len(args) == 0 {
			return nil, nil
		}
		return args[0], nil
	})
	b.RegisterUserHandler("joinStrings", func(ctx any, args []any) (any, error) {
		var parts []string
		for _, a := range args {
			if s, ok := a.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ""), nil
	})

	return b
}
