package language

import "fmt"

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenBang
	TokenQuestion
	TokenDollar
	TokenAmp
	TokenParenL
	TokenParenR
	TokenSpread
	TokenColon
	TokenEquals
	TokenAt
	TokenBracketL
	TokenBracketR
	TokenBraceL
	TokenBraceR
	TokenPipe
	TokenName
	TokenInt
	TokenFloat
	TokenString
	TokenBlockString
)

var tokenNames = map[TokenKind]string{
	TokenEOF:         "<EOF>",
	TokenBang:        "!",
	TokenQuestion:    "?",
	TokenDollar:      "$",
	TokenAmp:         "&",
	TokenParenL:      "(",
	TokenParenR:      ")",
	TokenSpread:      "...",
	TokenColon:       ":",
	TokenEquals:      "=",
	TokenAt:          "@",
	TokenBracketL:    "[",
	TokenBracketR:    "]",
	TokenBraceL:      "{",
	TokenBraceR:      "}",
	TokenPipe:        "|",
	TokenName:        "Name",
	TokenInt:         "Int",
	TokenFloat:       "Float",
	TokenString:      "String",
	TokenBlockString: "BlockString",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexical unit of a document. Value holds the decoded
// content for names, numbers and strings; punctuators leave it empty.
type Token struct {
	Kind   TokenKind
	Value  string
	Start  int // byte offset of the first byte
	End    int // byte offset one past the last byte
	Line   int // 1-based
	Column int // 1-based
}

// Description renders the token for diagnostics, e.g. `Name "hero"`.
func (t Token) Description() string {
	switch t.Kind {
	case TokenName, TokenInt, TokenFloat:
		return fmt.Sprintf("%s %q", t.Kind, t.Value)
	case TokenString, TokenBlockString:
		return fmt.Sprintf("String %q", t.Value)
	default:
		return fmt.Sprintf("%q", t.Kind.String())
	}
}
