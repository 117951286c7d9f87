package token

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Newline is the synthetic marker inserted ahead of directive lines.
const Newline = "\n"

// Terminators end a semi-expression when they are the last rune of a token.
const Terminators = ";{}"

var DefaultSingles = []rune{
	'<', '>', '[', ']', '(', ')', '{', '}', ':', '=', '+', '-', '*',
}

var DefaultPairs = []string{
	"<<", ">>", "::", "++", "--", "==", "+=", "-=", "*=", "/=", "&&", "||",
}

// Registry holds the single runes and rune pairs that are always emitted as
// one atomic token. Both sets keep insertion order and ignore duplicates.
type Registry struct {
	singles []rune
	pairs   []string
	single  map[rune]struct{}
	pair    map[string]struct{}
}

func NewRegistry() *Registry {
	r := &Registry{
		single: make(map[rune]struct{}),
		pair:   make(map[string]struct{}),
	}
	for _, ch := range DefaultSingles {
		r.AddSingle(ch)
	}
	for _, p := range DefaultPairs {
		r.AddPair(p)
	}
	return r
}

// AddSingle registers ch and reports whether it was new.
func (r *Registry) AddSingle(ch rune) bool {
	if _, ok := r.single[ch]; ok {
		return false
	}
	r.single[ch] = struct{}{}
	r.singles = append(r.singles, ch)
	return true
}

// AddPair registers a two-rune sequence. It reports whether the pair was new
// and fails for anything that is not exactly two runes long.
func (r *Registry) AddPair(p string) (bool, error) {
	if utf8.RuneCountInString(p) != 2 {
		return false, fmt.Errorf("special char pair %q must be exactly two characters", p)
	}
	if _, ok := r.pair[p]; ok {
		return false, nil
	}
	r.pair[p] = struct{}{}
	r.pairs = append(r.pairs, p)
	return true, nil
}

func (r *Registry) IsSingle(ch rune) bool {
	_, ok := r.single[ch]
	return ok
}

func (r *Registry) IsPair(c1, c2 rune) bool {
	var buf [2 * utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], c1)
	n += utf8.EncodeRune(buf[n:], c2)
	_, ok := r.pair[string(buf[:n])]
	return ok
}

// Singles returns a copy of the single-rune set in insertion order.
func (r *Registry) Singles() []rune { return append([]rune(nil), r.singles...) }

// Pairs returns a copy of the pair set in insertion order.
func (r *Registry) Pairs() []string { return append([]string(nil), r.pairs...) }

func (r *Registry) FormatSingles() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, ch := range r.singles {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "'%c'", ch)
	}
	sb.WriteString("}")
	return sb.String()
}

func (r *Registry) FormatPairs() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, p := range r.pairs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%q", p)
	}
	sb.WriteString("}")
	return sb.String()
}

// IsTerminated reports whether tok closes a semi-expression.
func IsTerminated(tok string) bool {
	if tok == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(tok)
	return strings.ContainsRune(Terminators, r)
}

// IsComment reports whether tok is a line or block comment token.
func IsComment(tok string) bool {
	return len(tok) > 1 && tok[0] == '/' && (tok[1] == '/' || tok[1] == '*')
}

// EndsLine reports whether the only newline in tok is its last character,
// which is the case for the newline marker and for line comments.
func EndsLine(tok string) bool {
	i := strings.IndexByte(tok, '\n')
	return i >= 0 && i == len(tok)-1
}
