package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/term"
)

const sourceStyle = "monokai"

func isTerminalFd(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

func sourceLexer() chroma.Lexer {
	for _, name := range []string{"plsql", "sql"} {
		if l := lexers.Get(name); l != nil {
			return chroma.Coalesce(l)
		}
	}
	return lexers.Fallback
}

// printSource writes src with line numbers, colored for a terminal when
// color is set.
func printSource(w io.Writer, src string, color bool) error {
	src = strings.TrimRight(src, " \t\r\n") + "\n"

	formatter := formatters.NoOp
	if color {
		formatter = formatters.Get("terminal256")
	}
	style := styles.Get(sourceStyle)

	iter, err := sourceLexer().Tokenise(nil, src)
	if err != nil {
		return fmt.Errorf("highlight source: %w", err)
	}
	lines := chroma.SplitTokensIntoLines(iter.Tokens())
	width := len(strconv.Itoa(len(lines)))
	for i, line := range lines {
		if _, err := fmt.Fprintf(w, "%*d  ", width, i+1); err != nil {
			return err
		}
		if err := formatter.Format(w, style, chroma.Literator(line...)); err != nil {
			return err
		}
	}
	return nil
}
