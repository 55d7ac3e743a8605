package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
)

// commandReader is the REPL's input source, abstracting over a plain pipe
// and an interactive terminal so both can drive the same dispatch loop.
type commandReader interface {
	ReadCommand() (string, error)
}

// directReader reads lines from any io.Reader with no line editing, used for
// piped input (tests, scripted sessions) and as the --direct fallback.
type directReader struct {
	r *bufio.Reader
}

func newDirectReader(r io.Reader) *directReader {
	return &directReader{r: bufio.NewReader(r)}
}

func (d *directReader) ReadCommand() (string, error) {
	var line string
	var err error
	for line == "" {
		line, err = d.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line != "" || err == io.EOF {
			break
		}
	}
	return line, nil
}

// interactiveReader reads lines via github.com/chzyer/readline, giving history and
// line-editing when stdin and stdout are both a real terminal.
type interactiveReader struct {
	rl *readline.Instance
}

func newInteractiveReader() (*interactiveReader, error) {
	rl, err := readline.NewEx(&readline.Config{Prompt: "sturgeongrep> "})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}
	return &interactiveReader{rl: rl}, nil
}

func (i *interactiveReader) ReadCommand() (string, error) {
	var line string
	var err error
	for line == "" {
		line, err = i.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line != "" || err == io.EOF {
			break
		}
	}
	return line, nil
}

// newReader picks an interactiveReader when both stdin and stdout are a real
// terminal and the caller hasn't forced --direct, falling back to a
// directReader otherwise.
func newReader(forceDirect bool) (reader commandReader, closeFn func(), err error) {
	if !forceDirect && isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()) {
		ir, err := newInteractiveReader()
		if err != nil {
			return nil, nil, err
		}
		return ir, func() { ir.rl.Close() }, nil
	}
	return newDirectReader(os.Stdin), func() {}, nil
}
