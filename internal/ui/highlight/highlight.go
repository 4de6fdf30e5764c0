// Package highlight colours SQL and PL/SQL text with chroma tokens mapped
// onto the active theme.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/oraterm/internal/theme"
)

// Highlighter tokenises SQL text using chroma and renders it with lipgloss
// styles from a theme.
type Highlighter struct {
	lexer chroma.Lexer
}

// New creates a Highlighter using chroma's generic SQL lexer, which covers
// both plain statements and PL/SQL program source.
func New() *Highlighter {
	l := lexers.Get("SQL")
	if l == nil {
		l = lexers.Fallback
	}
	return &Highlighter{lexer: chroma.Coalesce(l)}
}

// Highlight returns src with each token styled. Newlines are preserved so
// the output can be split into lines.
func (h *Highlighter) Highlight(src string, th *theme.Theme) string {
	if th == nil {
		return src
	}

	iter, err := h.lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}

	var b strings.Builder
	b.Grow(len(src) * 2)

	for _, tok := range iter.Tokens() {
		value := tok.Value
		if value == "" {
			continue
		}

		style, ok := styleFor(tok.Type, th)
		if !ok {
			b.WriteString(value)
			continue
		}

		// Style each line of a multi-line token on its own so newlines
		// stay outside the escape sequences.
		if strings.Contains(value, "\n") {
			lines := strings.Split(value, "\n")
			for i, line := range lines {
				if line != "" {
					b.WriteString(style.Render(line))
				}
				if i < len(lines)-1 {
					b.WriteByte('\n')
				}
			}
		} else {
			b.WriteString(style.Render(value))
		}
	}

	return b.String()
}

// Numbered highlights src and prefixes every line with its number. At most
// height lines starting at line offset are returned; height <= 0 returns
// everything.
func (h *Highlighter) Numbered(src string, th *theme.Theme, offset, height int) string {
	lines := strings.Split(h.Highlight(src, th), "\n")
	total := len(lines)
	offset = max(min(offset, total-1), 0)
	end := total
	if height > 0 {
		end = min(offset+height, total)
	}

	gutter := max(len(fmt.Sprintf("%d", total)), 2)
	num := lipgloss.NewStyle()
	if th != nil {
		num = th.EditorLineNumber
	}

	var b strings.Builder
	for i := offset; i < end; i++ {
		b.WriteString(num.Render(fmt.Sprintf("%*d ", gutter, i+1)))
		b.WriteString(lines[i])
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func styleFor(tt chroma.TokenType, th *theme.Theme) (lipgloss.Style, bool) {
	switch {
	// KeywordType is a subtype of Keyword; check it first so VARCHAR2 and
	// NUMBER get the type colour.
	case tt == chroma.KeywordType:
		return th.SQLType, true
	case tt == chroma.NameFunction || tt == chroma.NameBuiltin:
		return th.SQLFunction, true
	case isKeyword(tt):
		return th.SQLKeyword, true
	case isString(tt):
		return th.SQLString, true
	case isNumber(tt):
		return th.SQLNumber, true
	case isComment(tt):
		return th.SQLComment, true
	case tt == chroma.Operator || tt == chroma.OperatorWord:
		return th.SQLOperator, true
	default:
		return lipgloss.Style{}, false
	}
}

func isKeyword(tt chroma.TokenType) bool {
	return tt.InCategory(chroma.Keyword)
}

func isString(tt chroma.TokenType) bool {
	return tt.InSubCategory(chroma.LiteralString)
}

func isNumber(tt chroma.TokenType) bool {
	return tt.InSubCategory(chroma.LiteralNumber)
}

func isComment(tt chroma.TokenType) bool {
	return tt.InCategory(chroma.Comment)
}
