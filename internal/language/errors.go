package language

import "fmt"

// Location points into the source document.
type Location struct {
	Offset int // byte offset from the start of the source
	Line   int // 1-based
	Column int // 1-based
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// LexicalError reports a malformed token: an invalid byte sequence, an
// unterminated string, or an invalid escape. The location is the point at
// which the token began (for unterminated strings, the opening quote).
type LexicalError struct {
	Message  string
	Location Location
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("lexical error at %s: %s", e.Location, e.Message)
}

// SyntaxError reports a token stream that does not match the grammar.
// Expected is empty when the parser had no single expectation.
type SyntaxError struct {
	Message  string
	Expected string
	Found    string
	Location Location
}

func (e *SyntaxError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("syntax error at %s: expected %s, found %s", e.Location, e.Expected, e.Found)
	}
	return fmt.Sprintf("syntax error at %s: %s", e.Location, e.Message)
}
