package language

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Lexer scans a GraphQL source into tokens one at a time. Whitespace,
// commas and comments are insignificant and skipped. Tokens are never
// retained by the lexer itself.
type Lexer struct {
	src       string
	pos       int // byte offset of the next unread byte
	line      int
	lineStart int // byte offset of the start of the current line
}

// NewLexer creates a Lexer over src.
func NewLexer(src string) *Lexer {
	l := &Lexer{src: src, line: 1}
	// A leading byte order mark is insignificant.
	if strings.HasPrefix(src, "\uFEFF") {
		l.pos = len("\uFEFF")
		l.lineStart = l.pos
	}
	return l
}

func (l *Lexer) location(offset int) Location {
	return Location{Offset: offset, Line: l.line, Column: offset - l.lineStart + 1}
}

func (l *Lexer) errorf(offset int, format string, args ...any) *LexicalError {
	return &LexicalError{Message: fmt.Sprintf(format, args...), Location: l.location(offset)}
}

// Next returns the next token, or a LexicalError if the input cannot be
// tokenized. At the end of input it returns a TokenEOF token; calling
// Next again keeps returning EOF.
func (l *Lexer) Next() (Token, error) {
	l.skipIgnored()

	start := l.pos
	loc := l.location(start)
	if l.pos >= len(l.src) {
		return Token{Kind: TokenEOF, Start: start, End: start, Line: loc.Line, Column: loc.Column}, nil
	}

	c := l.src[l.pos]
	switch c {
	case '!':
		return l.punct(TokenBang, 1)
	case '?':
		return l.punct(TokenQuestion, 1)
	case '$':
		return l.punct(TokenDollar, 1)
	case '&':
		return l.punct(TokenAmp, 1)
	case '(':
		return l.punct(TokenParenL, 1)
	case ')':
		return l.punct(TokenParenR, 1)
	case ':':
		return l.punct(TokenColon, 1)
	case '=':
		return l.punct(TokenEquals, 1)
	case '@':
		return l.punct(TokenAt, 1)
	case '[':
		return l.punct(TokenBracketL, 1)
	case ']':
		return l.punct(TokenBracketR, 1)
	case '{':
		return l.punct(TokenBraceL, 1)
	case '}':
		return l.punct(TokenBraceR, 1)
	case '|':
		return l.punct(TokenPipe, 1)
	case '.':
		if strings.HasPrefix(l.src[l.pos:], "...") {
			return l.punct(TokenSpread, 3)
		}
		return Token{}, l.errorf(start, "unexpected character '.'")
	case '"':
		if strings.HasPrefix(l.src[l.pos:], `"""`) {
			return l.readBlockString()
		}
		return l.readString()
	}

	switch {
	case isNameStart(c):
		return l.readName(), nil
	case c == '-' || isDigit(c):
		return l.readNumber()
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return Token{}, l.errorf(start, "unexpected character %q", r)
}

func (l *Lexer) punct(kind TokenKind, width int) (Token, error) {
	start := l.pos
	loc := l.location(start)
	l.pos += width
	return Token{Kind: kind, Start: start, End: l.pos, Line: loc.Line, Column: loc.Column}, nil
}

// skipIgnored advances past whitespace, commas, line terminators and
// comments, updating line bookkeeping as it goes.
func (l *Lexer) skipIgnored() {
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; c {
		case ' ', '\t', ',':
			l.pos++
		case '\n':
			l.pos++
			l.line++
			l.lineStart = l.pos
		case '\r':
			l.pos++
			if l.pos < len(l.src) && l.src[l.pos] == '\n' {
				l.pos++
			}
			l.line++
			l.lineStart = l.pos
		case '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *Lexer) readName() Token {
	start := l.pos
	loc := l.location(start)
	for l.pos < len(l.src) && isNameContinue(l.src[l.pos]) {
		l.pos++
	}
	return Token{
		Kind:  TokenName,
		Value: l.src[start:l.pos],
		Start: start, End: l.pos,
		Line: loc.Line, Column: loc.Column,
	}
}

// readNumber scans an IntValue or FloatValue. A fractional part or an
// exponent makes it a float; leading zeros are rejected.
func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	loc := l.location(start)
	kind := TokenInt

	if l.peekByte() == '-' {
		l.pos++
	}
	if l.peekByte() == '0' {
		l.pos++
		if isDigit(l.peekByte()) {
			return Token{}, l.errorf(start, "invalid number: unexpected digit after 0")
		}
	} else if !l.readDigits() {
		return Token{}, l.errorf(start, "invalid number: expected digit")
	}

	if l.peekByte() == '.' {
		kind = TokenFloat
		l.pos++
		if !l.readDigits() {
			return Token{}, l.errorf(start, "invalid number: expected digit after '.'")
		}
	}
	if c := l.peekByte(); c == 'e' || c == 'E' {
		kind = TokenFloat
		l.pos++
		if c := l.peekByte(); c == '+' || c == '-' {
			l.pos++
		}
		if !l.readDigits() {
			return Token{}, l.errorf(start, "invalid number: expected exponent digit")
		}
	}
	// A number must not run directly into a name or another '.'.
	if c := l.peekByte(); isNameStart(c) || c == '.' {
		return Token{}, l.errorf(start, "invalid number: unexpected character %q", rune(c))
	}

	return Token{
		Kind:  kind,
		Value: l.src[start:l.pos],
		Start: start, End: l.pos,
		Line: loc.Line, Column: loc.Column,
	}, nil
}

func (l *Lexer) readDigits() bool {
	if !isDigit(l.peekByte()) {
		return false
	}
	for isDigit(l.peekByte()) {
		l.pos++
	}
	return true
}

func (l *Lexer) readString() (Token, error) {
	start := l.pos
	loc := l.location(start)
	l.pos++ // opening quote

	var b strings.Builder
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; c {
		case '"':
			l.pos++
			return Token{
				Kind:  TokenString,
				Value: b.String(),
				Start: start, End: l.pos,
				Line: loc.Line, Column: loc.Column,
			}, nil
		case '\n', '\r':
			return Token{}, l.errorf(start, "unterminated string")
		case '\\':
			v, err := l.readEscape(start)
			if err != nil {
				return Token{}, err
			}
			b.WriteString(v)
		default:
			if c < 0x20 && c != '\t' {
				return Token{}, l.errorf(l.pos, "invalid character %q in string", rune(c))
			}
			b.WriteByte(c)
			l.pos++
		}
	}
	return Token{}, l.errorf(start, "unterminated string")
}

func (l *Lexer) readEscape(strStart int) (string, error) {
	escStart := l.pos
	l.pos++ // backslash
	if l.pos >= len(l.src) {
		return "", l.errorf(strStart, "unterminated string")
	}
	c := l.src[l.pos]
	l.pos++
	switch c {
	case '"':
		return `"`, nil
	case '\\':
		return `\`, nil
	case '/':
		return "/", nil
	case 'b':
		return "\b", nil
	case 'f':
		return "\f", nil
	case 'n':
		return "\n", nil
	case 'r':
		return "\r", nil
	case 't':
		return "\t", nil
	case 'u':
		r, err := l.readHexQuad(escStart)
		if err != nil {
			return "", err
		}
		if utf16.IsSurrogate(r) {
			// A supplementary character is written as a high/low
			// surrogate escape pair; either half alone is not a rune.
			if !strings.HasPrefix(l.src[l.pos:], `\u`) {
				return "", l.errorf(escStart, "invalid unicode escape: unpaired surrogate")
			}
			l.pos += 2
			r2, err := l.readHexQuad(escStart)
			if err != nil {
				return "", err
			}
			paired := utf16.DecodeRune(r, r2)
			if paired == utf8.RuneError {
				return "", l.errorf(escStart, "invalid unicode escape: unpaired surrogate")
			}
			return string(paired), nil
		}
		return string(r), nil
	}
	return "", l.errorf(escStart, "invalid escape sequence '\\%c'", c)
}

// readHexQuad decodes the four hex digits of a \u escape.
func (l *Lexer) readHexQuad(escStart int) (rune, error) {
	if l.pos+4 > len(l.src) {
		return 0, l.errorf(escStart, "invalid unicode escape")
	}
	var r rune
	for i := 0; i < 4; i++ {
		d := hexValue(l.src[l.pos+i])
		if d < 0 {
			return 0, l.errorf(escStart, "invalid unicode escape")
		}
		r = r<<4 | rune(d)
	}
	l.pos += 4
	return r, nil
}

// readBlockString scans a triple-quoted string and strips common
// indentation per the BlockStringValue algorithm.
func (l *Lexer) readBlockString() (Token, error) {
	start := l.pos
	loc := l.location(start)
	l.pos += 3 // opening quotes

	var raw strings.Builder
	for l.pos < len(l.src) {
		if strings.HasPrefix(l.src[l.pos:], `\"""`) {
			raw.WriteString(`"""`)
			l.pos += 4
			continue
		}
		if strings.HasPrefix(l.src[l.pos:], `"""`) {
			l.pos += 3
			return Token{
				Kind:  TokenBlockString,
				Value: blockStringValue(raw.String()),
				Start: start, End: l.pos,
				Line: loc.Line, Column: loc.Column,
			}, nil
		}
		c := l.src[l.pos]
		if c == '\n' {
			l.line++
			l.lineStart = l.pos + 1
		} else if c == '\r' {
			if l.pos+1 >= len(l.src) || l.src[l.pos+1] != '\n' {
				l.line++
				l.lineStart = l.pos + 1
			}
		}
		raw.WriteByte(c)
		l.pos++
	}
	// Line bookkeeping has advanced past newlines inside the block, so
	// the error location must be the one captured at the opening quotes.
	return Token{}, &LexicalError{Message: "unterminated block string", Location: loc}
}

// blockStringValue strips the common indentation and blank leading and
// trailing lines from a raw block string body.
func blockStringValue(raw string) string {
	lines := strings.Split(strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n"), "\n")

	commonIndent := -1
	for i, line := range lines {
		if i == 0 {
			continue
		}
		indent := leadingWhitespace(line)
		if indent < len(line) && (commonIndent == -1 || indent < commonIndent) {
			commonIndent = indent
		}
	}
	if commonIndent > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= commonIndent {
				lines[i] = lines[i][commonIndent:]
			} else {
				lines[i] = ""
			}
		}
	}

	for len(lines) > 0 && strings.TrimLeft(lines[0], " \t") == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimLeft(lines[len(lines)-1], " \t") == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func leadingWhitespace(s string) int {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	return n
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameContinue(c byte) bool {
	return isNameStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
