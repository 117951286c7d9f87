package lexer

import (
	"strings"
	"unicode"

	"github.com/xplshn/semiscan/pkg/source"
	"github.com/xplshn/semiscan/pkg/token"
)

// State identifies which extractor produces the next token.
type State int

const (
	StateDone State = iota
	StateWhiteSpace
	StateAlpha
	StatePunct
	StateSpecialSingle
	StateSpecialPair
	StateLineComment
	StateBlockComment
	StateQuoted
)

var stateNames = [...]string{
	StateDone:          "Done",
	StateWhiteSpace:    "WhiteSpace",
	StateAlpha:         "Alpha",
	StatePunct:         "Punct",
	StateSpecialSingle: "SpecialSingle",
	StateSpecialPair:   "SpecialPair",
	StateLineComment:   "LineComment",
	StateBlockComment:  "BlockComment",
	StateQuoted:        "Quoted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(?)"
	}
	return stateNames[s]
}

func isSpace(ch rune) bool { return unicode.IsSpace(ch) }

// isAlphaStart also admits '@', which prefixes verbatim identifiers.
func isAlphaStart(ch rune) bool { return isAlpha(ch) || ch == '@' }

func isAlpha(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func isPunct(ch rune) bool { return unicode.IsPunct(ch) || unicode.IsSymbol(ch) }

func isQuote(ch rune) bool { return ch == '"' || ch == '\'' }

// nextState inspects up to two runes of src and picks the extractor for the
// next token. It consumes nothing. Registry entries win over the comment
// openers and plain punctuation.
func nextState(src source.Source, reg *token.Registry) State {
	c1 := src.Peek(0)
	switch {
	case c1 == source.EOF:
		return StateDone
	case isSpace(c1):
		return StateWhiteSpace
	case isAlphaStart(c1):
		return StateAlpha
	case isQuote(c1):
		return StateQuoted
	}

	// A missing second rune is not punctuation, so a trailing '}' still
	// gets its own token.
	c2 := src.Peek(1)
	if isPunct(c2) {
		switch {
		case reg.IsPair(c1, c2):
			return StateSpecialPair
		case c1 == '/' && c2 == '/':
			return StateLineComment
		case c1 == '/' && c2 == '*':
			return StateBlockComment
		}
	}
	if reg.IsSingle(c1) {
		return StateSpecialSingle
	}
	return StatePunct
}

// extract runs the extractor for st. It reports false when a comment or
// quoted literal ran into the end of input.
func extract(st State, src source.Source, sb *strings.Builder) bool {
	switch st {
	case StateWhiteSpace:
		eatWhile(src, sb, isSpace)
	case StateAlpha:
		eatWhile(src, sb, isAlpha)
	case StatePunct, StateSpecialSingle:
		sb.WriteRune(src.Next())
	case StateSpecialPair:
		sb.WriteRune(src.Next())
		sb.WriteRune(src.Next())
	case StateLineComment:
		eatLineComment(src, sb)
	case StateBlockComment:
		return eatBlockComment(src, sb)
	case StateQuoted:
		return eatQuoted(src, sb)
	case StateDone:
	}
	return true
}

// eatWhile takes the first rune unconditionally; selection already
// classified it.
func eatWhile(src source.Source, sb *strings.Builder, in func(rune) bool) {
	sb.WriteRune(src.Next())
	for in(src.Peek(0)) {
		sb.WriteRune(src.Next())
	}
}

func eatLineComment(src source.Source, sb *strings.Builder) {
	sb.WriteRune(src.Next())
	for {
		ch := src.Next()
		if ch == source.EOF {
			return
		}
		sb.WriteRune(ch)
		if ch == '\n' {
			return
		}
	}
}

func eatBlockComment(src source.Source, sb *strings.Builder) bool {
	sb.WriteRune(src.Next()) // '/'
	sb.WriteRune(src.Next()) // '*'
	// The opener's '*' counts, so "/*/" is a complete comment.
	prev := '*'
	for {
		ch := src.Next()
		if ch == source.EOF {
			return false
		}
		sb.WriteRune(ch)
		if ch == '/' && prev == '*' {
			return true
		}
		prev = ch
	}
}

// eatQuoted ends at the first rune matching the opening quote that follows
// an even run of backslashes.
func eatQuoted(src source.Source, sb *strings.Builder) bool {
	quote := src.Next()
	sb.WriteRune(quote)
	backslashes := 0
	for {
		ch := src.Next()
		if ch == source.EOF {
			return false
		}
		sb.WriteRune(ch)
		if ch == quote && backslashes%2 == 0 {
			return true
		}
		if ch == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
	}
}
