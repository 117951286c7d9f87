package token

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry()
	if diff := cmp.Diff(DefaultSingles, r.Singles()); diff != "" {
		t.Errorf("singles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DefaultPairs, r.Pairs()); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
	for _, ch := range DefaultSingles {
		if !r.IsSingle(ch) {
			t.Errorf("IsSingle(%q) = false", ch)
		}
	}
	if r.IsSingle('|') {
		t.Error("'|' should not be a default single")
	}
	if !r.IsPair('&', '&') || r.IsPair('!', '=') {
		t.Error("unexpected pair membership")
	}
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()
	if !r.AddSingle('|') {
		t.Fatal("AddSingle('|') reported duplicate")
	}
	if r.AddSingle('|') {
		t.Fatal("second AddSingle('|') reported new")
	}
	if got := r.Singles(); got[len(got)-1] != '|' {
		t.Errorf("last single = %q, want '|'", got[len(got)-1])
	}

	added, err := r.AddPair("!=")
	if err != nil || !added {
		t.Fatalf("AddPair(\"!=\") = %v, %v", added, err)
	}
	if added, _ := r.AddPair("!="); added {
		t.Error("duplicate pair reported new")
	}
	if !r.IsPair('!', '=') {
		t.Error("!= not registered")
	}
	for _, bad := range []string{"", "!", "!=="} {
		if _, err := r.AddPair(bad); err == nil {
			t.Errorf("AddPair(%q) succeeded", bad)
		}
	}
	if _, err := r.AddPair("→="); err != nil {
		t.Errorf("two-rune multibyte pair rejected: %v", err)
	}
	if !r.IsPair('→', '=') {
		t.Error("multibyte pair lookup failed")
	}
}

func TestRegistryCopies(t *testing.T) {
	r := NewRegistry()
	s := r.Singles()
	s[0] = '#'
	if r.Singles()[0] != '<' {
		t.Error("Singles leaked internal slice")
	}
}

func TestFormat(t *testing.T) {
	r := &Registry{single: map[rune]struct{}{}, pair: map[string]struct{}{}}
	r.AddSingle('<')
	r.AddSingle('>')
	r.AddPair("::")
	if got, want := r.FormatSingles(), "{'<' '>'}"; got != want {
		t.Errorf("FormatSingles() = %q, want %q", got, want)
	}
	if got, want := r.FormatPairs(), `{"::"}`; got != want {
		t.Errorf("FormatPairs() = %q, want %q", got, want)
	}
}

func TestTokenPredicates(t *testing.T) {
	tests := []struct {
		tok                         string
		terminated, comment, ending bool
	}{
		{";", true, false, false},
		{"{", true, false, false},
		{"}", true, false, false},
		{"x", false, false, false},
		{"", false, false, false},
		{Newline, false, false, true},
		{"// note\n", false, true, true},
		{"/* a\nb */", false, true, false},
		{"/", false, false, false},
		{`"};"`, false, false, false},
	}
	for _, tt := range tests {
		if got := IsTerminated(tt.tok); got != tt.terminated {
			t.Errorf("IsTerminated(%q) = %v", tt.tok, got)
		}
		if got := IsComment(tt.tok); got != tt.comment {
			t.Errorf("IsComment(%q) = %v", tt.tok, got)
		}
		if got := EndsLine(tt.tok); got != tt.ending {
			t.Errorf("EndsLine(%q) = %v", tt.tok, got)
		}
	}
}
