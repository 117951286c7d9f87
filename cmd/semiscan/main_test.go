package main

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

func writeInput(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.cs")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanTokens(t *testing.T) {
	path := writeInput(t, "int x;\ny++;")
	var buf bytes.Buffer
	if err := scanTokens(&buf, path, config.NewConfig()); err != nil {
		t.Fatal(err)
	}
	want := "\n -- line#   1 : int" +
		"\n -- line#   1 : x" +
		"\n -- line#   1 : ;" +
		"\n -- line#   2 : y" +
		"\n -- line#   2 : ++" +
		"\n -- line#   2 : ;"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSemis(t *testing.T) {
	path := writeInput(t, "using System;\nfor(;;) { x = 1; }")
	var buf bytes.Buffer
	if err := scanSemis(&buf, path, config.NewConfig()); err != nil {
		t.Fatal(err)
	}
	want := "\n -- \nusing System;" +
		"\n -- for (;; ) {" +
		"\n -- x = 1;" +
		"\n -- }"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestScanMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.cs")
	var buf bytes.Buffer
	if err := scanTokens(&buf, missing, config.NewConfig()); err == nil {
		t.Error("scanTokens: expected error")
	}
	if err := scanSemis(&buf, missing, config.NewConfig()); err == nil {
		t.Error("scanSemis: expected error")
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q for a missing file", buf.String())
	}
}

func TestScanAllReportsFailures(t *testing.T) {
	var diag bytes.Buffer
	old := util.Output
	util.Output = &diag
	t.Cleanup(func() { util.Output = old })

	good := writeInput(t, "x;")
	missing := filepath.Join(t.TempDir(), "nope.cs")
	var out bytes.Buffer
	if got := scanAll(&out, "semiscan", []string{missing, good}, config.NewConfig(), scanSemis); got != 1 {
		t.Errorf("scanAll() = %d failures, want 1", got)
	}
	if !strings.Contains(diag.String(), "semiscan: \033[31merror:\033[0m cannot open "+missing) {
		t.Errorf("diagnostics = %q", diag.String())
	}
	if out.String() != "\n -- x;" {
		t.Errorf("output = %q", out.String())
	}
}
