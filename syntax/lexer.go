package syntax

import (
	"strconv"
	"strings"

	"github.com/vercel-labs/vshell/token"
)

// lexer holds the low-level byte-scanning state shared by the parser's
// recursive-descent grammar functions. It never builds AST nodes itself;
// package syntax's Parser embeds it and layers grammar on top, the same
// tight coupling the teacher's own lexer.go/parser.go pair uses.
type lexer struct {
	src  string
	pos  int // next unread byte
	line []int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: []int{0}}
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line = append(l.line, l.pos)
	}
	return b
}

func (l *lexer) pushPos() token.Pos { return token.Pos(l.pos + 1) }

// skipLineContinuations collapses every "\\\n" at the current position,
// per spec.md §4.3 "Line continuations (\ + newline) collapse to empty
// outside quotes".
func (l *lexer) skipLineContinuations() {
	for !l.eof() && l.peekByte() == '\\' && l.peekAt(1) == '\n' {
		l.advance()
		l.advance()
	}
}

func (l *lexer) skipSpacesTabs() {
	for {
		l.skipLineContinuations()
		if l.eof() {
			return
		}
		switch l.peekByte() {
		case ' ', '\t':
			l.advance()
		case '#':
			for !l.eof() && l.peekByte() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) skipSpacesTabsNewlines() {
	for {
		l.skipSpacesTabs()
		if !l.eof() && l.peekByte() == '\n' {
			l.advance()
			continue
		}
		return
	}
}

// atWordEnd reports whether the current byte cannot continue an unquoted
// word: end of input, blank, or an operator-introducing character.
func (l *lexer) atWordEnd() bool {
	if l.eof() {
		return true
	}
	switch l.peekByte() {
	case ' ', '\t', '\n', ';', '&', '|', '<', '>', '(', ')', '\r':
		return true
	}
	return false
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' }

// unquoteLit strips backslash escapes from a literal run of unquoted text
// (a backslash escapes the single following byte); the parser applies it
// to here-doc delimiter words.
func unquoteLit(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			b.WriteByte(s[i])
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// decodeAnsiC implements the $'...' escape table from spec.md §6.
func decodeAnsiC(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'e', 'E':
			b.WriteByte(0x1b)
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			if n, err := strconv.ParseUint(s[i:j], 8, 32); err == nil {
				b.WriteByte(byte(n))
			}
			i = j - 1
		case 'x':
			j := i + 1
			for j < len(s) && j < i+3 && isHex(s[j]) {
				j++
			}
			if n, err := strconv.ParseUint(s[i+1:j], 16, 32); err == nil {
				b.WriteByte(byte(n))
			}
			i = j - 1
		case 'u', 'U':
			width := 4
			if s[i] == 'U' {
				width = 8
			}
			j := i + 1
			for j < len(s) && j < i+1+width && isHex(s[j]) {
				j++
			}
			if n, err := strconv.ParseUint(s[i+1:j], 16, 32); err == nil {
				b.WriteRune(rune(n))
			}
			i = j - 1
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
