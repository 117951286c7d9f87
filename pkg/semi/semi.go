// Package semi folds a token stream into semi-expressions: token groups that
// end in ";", "{" or "}". Such a group is roughly one statement or scope
// boundary, which is what code analysis tools want to look at.
package semi

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/xplshn/semiscan/pkg/config"
	"github.com/xplshn/semiscan/pkg/lexer"
	"github.com/xplshn/semiscan/pkg/token"
	"github.com/xplshn/semiscan/pkg/util"
)

// Expression holds the semi-expression currently being collected.
type Expression struct {
	toker *lexer.Toker
	cfg   *config.Config
	toks  []string
}

// New returns an Expression reading through its own Toker. A nil cfg means
// config.NewConfig().
func New(cfg *config.Config) *Expression {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Expression{toker: lexer.NewToker(cfg), cfg: cfg}
}

func (e *Expression) Open(path string) error { return e.toker.Open(path) }

func (e *Expression) OpenString(s string) { e.toker.OpenString(s) }

func (e *Expression) OpenReader(r io.Reader) { e.toker.OpenReader(r) }

func (e *Expression) Close() error { return e.toker.Close() }

// Err reports a read failure that ended the underlying token stream early.
func (e *Expression) Err() error { return e.toker.Err() }

func (e *Expression) LineCount() int { return e.toker.LineCount() }

func (e *Expression) Toker() *lexer.Toker { return e.toker }

// next pulls the next token, skipping comments when they are discarded.
// It returns "" at end of input.
func (e *Expression) next() string {
	for {
		tok := e.toker.GetTok()
		if tok == "" || !e.cfg.IsFeatureEnabled(config.FeatDiscardComments) || !token.IsComment(tok) {
			return tok
		}
	}
}

// Get collects the next semi-expression and reports whether one was found.
// Tokens left over at end of input without a terminator are dropped.
func (e *Expression) Get() bool {
	e.toks = e.toks[:0]
	for {
		tok := e.next()
		if tok == "" {
			e.truncated()
			return false
		}
		if (tok == "using" || tok == "#") && e.cfg.IsFeatureEnabled(config.FeatNewlines) {
			e.toks = append(e.toks, token.Newline)
		}
		e.toks = append(e.toks, tok)

		for e.cfg.IsFeatureEnabled(config.FeatForFold) && e.toks[len(e.toks)-1] == "for" {
			if !e.foldFor() {
				return false
			}
		}

		if token.IsTerminated(e.toks[len(e.toks)-1]) {
			return true
		}
	}
}

// foldFor appends a for header up to its balancing ")" plus the token after
// it, so the ";" inside the header does not end the expression.
func (e *Expression) foldFor() bool {
	line := e.toker.LineCount()
	open, closed := 0, 0
	for {
		tok := e.next()
		if tok == "" {
			util.Warn(e.cfg, config.WarnUnbalancedFor, e.position(line), "end of input inside for header (%d unclosed)", open-closed)
			e.toks = e.toks[:0]
			return false
		}
		e.toks = append(e.toks, tok)
		switch tok {
		case "(":
			open++
		case ")":
			closed++
		}
		if open == closed {
			break
		}
	}
	tok := e.next()
	if tok == "" {
		e.truncated()
		return false
	}
	e.toks = append(e.toks, tok)
	return true
}

func (e *Expression) truncated() {
	if len(e.toks) > 0 {
		util.Warn(e.cfg, config.WarnTruncatedSemi, e.position(e.toker.LineCount()), "dropping %d trailing token(s) without terminator", len(e.toks))
		e.toks = e.toks[:0]
	}
}

func (e *Expression) position(line int) util.Position {
	return util.Position{Name: e.toker.Name(), Line: line}
}

func (e *Expression) Len() int { return len(e.toks) }

func (e *Expression) At(i int) string { return e.toks[i] }

func (e *Expression) Set(i int, tok string) { e.toks[i] = tok }

// Tokens returns a copy of the current tokens.
func (e *Expression) Tokens() []string { return slices.Clone(e.toks) }

func (e *Expression) Flush() { e.toks = e.toks[:0] }

// Initialize puts a lone ";" into an empty expression. It fails if the
// expression already holds tokens.
func (e *Expression) Initialize() bool {
	if len(e.toks) > 0 {
		return false
	}
	e.toks = append(e.toks, ";")
	return true
}

// Insert places tok before position pos, which must index an existing token.
func (e *Expression) Insert(pos int, tok string) bool {
	if pos < 0 || pos >= len(e.toks) {
		return false
	}
	e.toks = slices.Insert(e.toks, pos, tok)
	return true
}

func (e *Expression) Add(tok string) *Expression {
	e.toks = append(e.toks, tok)
	return e
}

func (e *Expression) AddAll(toks ...string) {
	e.toks = append(e.toks, toks...)
}

func (e *Expression) RemoveAt(i int) bool {
	if i < 0 || i >= len(e.toks) {
		return false
	}
	e.toks = slices.Delete(e.toks, i, i+1)
	return true
}

// Remove deletes the first occurrence of tok.
func (e *Expression) Remove(tok string) bool {
	return e.RemoveAt(slices.Index(e.toks, tok))
}

// FindFirst returns the index of the first tok, or -1.
func (e *Expression) FindFirst(tok string) int { return slices.Index(e.toks, tok) }

// FindLast returns the index of the last tok, or -1.
func (e *Expression) FindLast(tok string) int {
	for i := len(e.toks) - 1; i >= 0; i-- {
		if e.toks[i] == tok {
			return i
		}
	}
	return -1
}

func (e *Expression) Contains(tok string) bool { return slices.Contains(e.toks, tok) }

// Trim removes whitespace-only tokens such as the newline marker.
func (e *Expression) Trim() {
	e.toks = slices.DeleteFunc(e.toks, func(tok string) bool {
		return tok != "" && strings.TrimFunc(tok, unicode.IsSpace) == ""
	})
}

// Clone copies the tokens into a detached Expression that shares no state
// with e and has no source of its own.
func (e *Expression) Clone() *Expression {
	return &Expression{
		toker: lexer.NewToker(e.cfg),
		cfg:   e.cfg,
		toks:  slices.Clone(e.toks),
	}
}

func (e *Expression) Equal(other *Expression) bool {
	return other != nil && slices.Equal(e.toks, other.toks)
}

// Hash is consistent with Equal.
func (e *Expression) Hash() uint64 {
	d := xxhash.New()
	for _, tok := range e.toks {
		d.WriteString(tok)
		d.Write([]byte{0})
	}
	return d.Sum64()
}

// String joins the tokens with single spaces. No space follows a token that
// ends its line, and ";" sits directly after the token before it.
func (e *Expression) String() string {
	var sb strings.Builder
	for i, tok := range e.toks {
		if i > 0 && tok != ";" && !token.EndsLine(e.toks[i-1]) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok)
	}
	return sb.String()
}

func (e *Expression) Display(w io.Writer) {
	fmt.Fprintf(w, "\n -- %s", e)
}

// IsComment reports whether tok is a comment token.
func (e *Expression) IsComment(tok string) bool { return token.IsComment(tok) }

func (e *Expression) SetSpecialSingleChars(ch rune) { e.toker.SetSpecialSingleChars(ch) }

func (e *Expression) SetSpecialCharPairs(pair string) error {
	return e.toker.SetSpecialCharPairs(pair)
}

func (e *Expression) PrintSpecialSingleChars(w io.Writer) { e.toker.PrintSpecialSingleChars(w) }

func (e *Expression) PrintSpecialCharPairs(w io.Writer) { e.toker.PrintSpecialCharPairs(w) }
