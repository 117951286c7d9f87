package semi

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/semiscan/pkg/config"
	"github.com/xplshn/semiscan/pkg/util"
)

func quiet(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := util.Output
	util.Output = &buf
	t.Cleanup(func() { util.Output = old })
	return &buf
}

func collect(t *testing.T, cfg *config.Config, src string) [][]string {
	t.Helper()
	e := New(cfg)
	e.OpenString(src)
	defer e.Close()
	var out [][]string
	for e.Get() {
		out = append(out, e.Tokens())
	}
	return out
}

func TestGet(t *testing.T) {
	quiet(t)
	tests := []struct {
		name string
		src  string
		want [][]string
	}{
		{
			name: "statements",
			src:  "int x = 1;\ny += x;",
			want: [][]string{{"int", "x", "=", "1", ";"}, {"y", "+=", "x", ";"}},
		},
		{
			name: "for header stays whole",
			src:  "for(int i=0;i<5;++i){ x++; }",
			want: [][]string{
				{"for", "(", "int", "i", "=", "0", ";", "i", "<", "5", ";", "++", "i", ")", "{"},
				{"x", "++", ";"},
				{"}"},
			},
		},
		{
			name: "nested parens in for header",
			src:  "for (i = f(a, (b)); i < n; i++) x;",
			want: [][]string{{"for", "(", "i", "=", "f", "(", "a", ",", "(", "b", ")", ")", ";", "i", "<", "n", ";", "i", "++", ")", "x", ";"}},
		},
		{
			name: "for after for header",
			src:  "for(;;) for(;;) ;",
			want: [][]string{{"for", "(", ";", ";", ")", "for", "(", ";", ";", ")", ";"}},
		},
		{
			name: "using",
			src:  "using System;\nnamespace N {",
			want: [][]string{{"\n", "using", "System", ";"}, {"namespace", "N", "{"}},
		},
		{
			name: "directive",
			src:  "#include <stdio.h>\nint main() {",
			want: [][]string{{"\n", "#", "include", "<", "stdio", ".", "h", ">", "int", "main", "(", ")", "{"}},
		},
		{
			name: "comments kept",
			src:  "// lead\nx; /* mid */ }",
			want: [][]string{{"// lead\n", "x", ";"}, {"/* mid */", "}"}},
		},
		{
			name: "terminator inside a token",
			src:  "s = \"a;\" + b;",
			want: [][]string{{"s", "=", `"a;"`, "+", "b", ";"}},
		},
		{
			name: "trailing tokens dropped",
			src:  "a; b c",
			want: [][]string{{"a", ";"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, collect(t, nil, tt.src)); diff != "" {
				t.Errorf("semi-expressions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFeatures(t *testing.T) {
	quiet(t)
	src := "using X; // c\nfor(;;) {"

	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatDiscardComments, true)
	cfg.SetFeature(config.FeatNewlines, false)
	cfg.SetFeature(config.FeatForFold, false)
	want := [][]string{{"using", "X", ";"}, {"for", "(", ";"}, {";"}, {")", "{"}}
	if diff := cmp.Diff(want, collect(t, cfg, src)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExhaustedStaysFalse(t *testing.T) {
	e := New(nil)
	e.OpenString("x;")
	defer e.Close()
	if !e.Get() {
		t.Fatal("first Get returned false")
	}
	for i := range 3 {
		if e.Get() {
			t.Fatalf("Get #%d after end returned true", i+2)
		}
		if e.Len() != 0 {
			t.Errorf("exhausted Get left %v", e.Tokens())
		}
	}
}

func TestGetWithoutSource(t *testing.T) {
	if New(nil).Get() {
		t.Error("Get without a source returned true")
	}
}

func TestUnbalancedFor(t *testing.T) {
	buf := quiet(t)
	e := New(nil)
	e.OpenString("a;\nfor (i = 0; i < n")
	defer e.Close()
	if !e.Get() {
		t.Fatal("expected the leading statement")
	}
	if e.Get() {
		t.Fatalf("Get inside an open for header returned %v", e.Tokens())
	}
	if e.Get() {
		t.Error("Get after an unbalanced for returned true")
	}
	if got := buf.String(); !strings.Contains(got, "<input>:2:") || !strings.Contains(got, "[-Wunbalanced-for]") {
		t.Errorf("warning = %q", got)
	}
}

func TestTruncatedWarning(t *testing.T) {
	buf := quiet(t)
	collect(t, nil, "a b")
	if buf.Len() != 0 {
		t.Errorf("truncated-semi is off by default, got %q", buf.String())
	}

	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnTruncatedSemi, true)
	collect(t, cfg, "a; b c")
	if !strings.Contains(buf.String(), "dropping 2 trailing token(s)") {
		t.Errorf("warning = %q", buf.String())
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		toks []string
		want string
	}{
		{[]string{"x", "=", "1", ";"}, "x = 1;"},
		{[]string{"\n", "using", "System", ";"}, "\nusing System;"},
		{[]string{"// c\n", "x", ";"}, "// c\nx;"},
		{[]string{"for", "(", ";", ";", ")", "{"}, "for (;; ) {"},
		{nil, ""},
	}
	for _, tt := range tests {
		e := New(nil)
		e.AddAll(tt.toks...)
		if got := e.String(); got != tt.want {
			t.Errorf("String(%q) = %q, want %q", tt.toks, got, tt.want)
		}
	}

	var buf bytes.Buffer
	e := New(nil)
	e.Add("x").Add(";").Display(&buf)
	if buf.String() != "\n -- x;" {
		t.Errorf("Display wrote %q", buf.String())
	}
}

func TestEditing(t *testing.T) {
	e := New(nil)
	if !e.Initialize() {
		t.Fatal("Initialize on empty expression failed")
	}
	if e.Initialize() {
		t.Error("Initialize on non-empty expression succeeded")
	}
	if !e.Insert(0, "x") {
		t.Fatal("Insert(0) failed")
	}
	if e.Insert(e.Len(), "y") || e.Insert(-1, "y") {
		t.Error("out of range Insert succeeded")
	}
	e.Add("z").Add("x")
	if diff := cmp.Diff([]string{"x", ";", "z", "x"}, e.Tokens()); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}

	if e.FindFirst("x") != 0 || e.FindLast("x") != 3 || e.FindFirst("q") != -1 || e.FindLast("q") != -1 {
		t.Errorf("Find on %v", e.Tokens())
	}
	if !e.Contains("z") || e.Contains("q") {
		t.Error("Contains")
	}

	if !e.Remove("x") {
		t.Error("Remove(x) failed")
	}
	if e.Remove("q") || e.RemoveAt(5) || e.RemoveAt(-1) {
		t.Error("bad removal succeeded")
	}
	e.Set(0, "{")
	if diff := cmp.Diff([]string{"{", "z", "x"}, e.Tokens()); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
	if e.At(2) != "x" {
		t.Errorf("At(2) = %q", e.At(2))
	}

	e.Flush()
	if e.Len() != 0 {
		t.Errorf("Flush left %v", e.Tokens())
	}
}

func TestTokensIsACopy(t *testing.T) {
	e := New(nil)
	e.AddAll("a", ";")
	toks := e.Tokens()
	toks[0] = "b"
	if e.At(0) != "a" {
		t.Error("Tokens exposed internal storage")
	}
}

func TestTrim(t *testing.T) {
	e := New(nil)
	e.AddAll("\n", "using", " ", "X", "\r\n", ";")
	e.Trim()
	if diff := cmp.Diff([]string{"using", "X", ";"}, e.Tokens()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneEqualHash(t *testing.T) {
	e := New(nil)
	e.OpenString("a = b; c;")
	defer e.Close()
	e.Get()

	c := e.Clone()
	if !c.Equal(e) || c.Hash() != e.Hash() {
		t.Fatal("clone differs from original")
	}
	if c.LineCount() != 0 {
		t.Error("clone should not share the source")
	}

	e.Get()
	if c.Equal(e) {
		t.Error("clone followed the original")
	}
	if diff := cmp.Diff([]string{"a", "=", "b", ";"}, c.Tokens()); diff != "" {
		t.Errorf("clone mismatch (-want +got):\n%s", diff)
	}

	// The separator keeps token boundaries significant.
	x, y := New(nil), New(nil)
	x.AddAll("ab", "c")
	y.AddAll("a", "bc")
	if x.Equal(y) || x.Hash() == y.Hash() {
		t.Error("different splits compare equal")
	}
	if x.Equal(nil) {
		t.Error("Equal(nil)")
	}
}

func TestIsComment(t *testing.T) {
	e := New(nil)
	for tok, want := range map[string]bool{"// x\n": true, "/* x */": true, "/": false, "x": false} {
		if got := e.IsComment(tok); got != want {
			t.Errorf("IsComment(%q) = %v", tok, got)
		}
	}
}

func TestRegistryForwarding(t *testing.T) {
	e := New(nil)
	e.OpenString("a|!b;")
	defer e.Close()
	e.SetSpecialSingleChars('|')
	if err := e.SetSpecialCharPairs("|!!"); err == nil {
		t.Error("three rune pair accepted")
	}
	if !e.Get() {
		t.Fatal("Get failed")
	}
	if diff := cmp.Diff([]string{"a", "|", "!", "b", ";"}, e.Tokens()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	e.PrintSpecialSingleChars(&buf)
	e.PrintSpecialCharPairs(&buf)
	if !strings.Contains(buf.String(), "'|'") || !strings.Contains(buf.String(), `"::"`) {
		t.Errorf("rules = %q", buf.String())
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.cs")
	if err := os.WriteFile(path, []byte("a;\nb;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	e := New(nil)
	if err := e.Open(path); err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	var lines []int
	for e.Get() {
		lines = append(lines, e.LineCount())
	}
	if diff := cmp.Diff([]int{1, 2}, lines); diff != "" {
		t.Errorf("line counts (-want +got):\n%s", diff)
	}
	if e.Err() != nil {
		t.Errorf("Err() = %v", e.Err())
	}

	if err := e.Open(filepath.Join(t.TempDir(), "missing.cs")); err == nil {
		t.Error("expected open failure")
	}
	if e.Get() {
		t.Error("Get after failed Open returned true")
	}
}
