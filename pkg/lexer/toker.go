// Package lexer turns a rune stream into tokens with a small state machine.
//
// Before every token the machine peeks at most two runes to pick a State,
// then the extractor for that state consumes exactly the runes of one token.
// Toker drives the machine and hides whitespace tokens from its callers.
package lexer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xplshn/semiscan/pkg/config"
	"github.com/xplshn/semiscan/pkg/source"
	"github.com/xplshn/semiscan/pkg/token"
	"github.com/xplshn/semiscan/pkg/util"
)

// Toker holds the state for tokenizing one source at a time.
type Toker struct {
	cfg  *config.Config
	reg  *token.Registry
	src  *source.Reader
	last State
}

// NewToker returns a Toker with the default registry plus any extra rules
// queued in cfg. A nil cfg means config.NewConfig().
func NewToker(cfg *config.Config) *Toker {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	t := &Toker{cfg: cfg, reg: token.NewRegistry()}
	for _, ch := range cfg.Singles {
		t.reg.AddSingle(ch)
	}
	for _, p := range cfg.Pairs {
		// config.AddPairs already rejected malformed pairs
		t.reg.AddPair(p)
	}
	return t
}

func (t *Toker) Config() *config.Config { return t.cfg }

// Open attaches the Toker to the file at path, closing any previous source.
// On failure the Toker is left without a source and IsDone reports true.
func (t *Toker) Open(path string) error {
	t.Close()
	src, err := source.Open(path)
	if err != nil {
		return err
	}
	t.src = src
	return nil
}

func (t *Toker) OpenString(s string) { t.OpenReader(strings.NewReader(s)) }

func (t *Toker) OpenReader(r io.Reader) {
	t.Close()
	t.src = source.NewReader(r)
}

func (t *Toker) Close() error {
	if t.src == nil {
		return nil
	}
	err := t.src.Close()
	t.src = nil
	t.last = StateDone
	return err
}

// IsDone reports whether the source is exhausted. Trailing whitespace still
// counts as input, so GetTok may return "" while IsDone is false.
func (t *Toker) IsDone() bool {
	return t.src == nil || t.src.End()
}

// GetTok returns the next token that is not whitespace, or "" once the
// source is exhausted.
func (t *Toker) GetTok() string {
	for {
		tok, st := t.scan()
		if st != StateWhiteSpace {
			return tok
		}
	}
}

// GetTokRaw is GetTok without the whitespace filter. Concatenating its
// results reproduces the input.
func (t *Toker) GetTokRaw() string {
	tok, _ := t.scan()
	return tok
}

func (t *Toker) scan() (string, State) {
	if t.src == nil {
		return "", StateDone
	}
	// The state is picked here, not after the previous token, so registry
	// changes made between calls apply to this token.
	st := nextState(t.src, t.reg)
	t.last = st
	if st == StateDone {
		return "", st
	}
	line := t.src.LineCount()
	var sb strings.Builder
	if !extract(st, t.src, &sb) {
		kind := "quoted literal"
		if st == StateBlockComment {
			kind = "block comment"
		}
		util.Warn(t.cfg, config.WarnUnterminated, t.position(line), "unterminated %s runs to end of input", kind)
	}
	return sb.String(), st
}

// LastState is the state that produced the most recent token.
func (t *Toker) LastState() State { return t.last }

// LineCount is the line the source is currently positioned on, starting at 1.
func (t *Toker) LineCount() int {
	if t.src == nil {
		return 0
	}
	return t.src.LineCount()
}

// Err returns an exceptional read error that cut the scan short.
func (t *Toker) Err() error {
	if t.src == nil {
		return nil
	}
	return t.src.Err()
}

// Name is the path of the open file, or "" for strings and readers.
func (t *Toker) Name() string {
	if t.src == nil {
		return ""
	}
	return t.src.Name()
}

func (t *Toker) position(line int) util.Position {
	return util.Position{Name: t.Name(), Line: line}
}

func (t *Toker) Registry() *token.Registry { return t.reg }

func (t *Toker) SetSpecialSingleChars(ch rune) {
	if !t.reg.AddSingle(ch) {
		util.Warn(t.cfg, config.WarnDuplicateRule, t.position(0), "special single char '%c' already registered", ch)
	}
}

func (t *Toker) SetSpecialCharPairs(pair string) error {
	added, err := t.reg.AddPair(pair)
	if err != nil {
		return err
	}
	if !added {
		util.Warn(t.cfg, config.WarnDuplicateRule, t.position(0), "special char pair %q already registered", pair)
	}
	return nil
}

func (t *Toker) PrintSpecialSingleChars(w io.Writer) {
	fmt.Fprintf(w, "The special single chars are:\n%s\n", t.reg.FormatSingles())
}

func (t *Toker) PrintSpecialCharPairs(w io.Writer) {
	fmt.Fprintf(w, "The special char pairs are:\n%s\n", t.reg.FormatPairs())
}
