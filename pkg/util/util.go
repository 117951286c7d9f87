package util

import (
	"fmt"
	"io"
	"os"

	"github.com/xplshn/semiscan/pkg/config"
)

// Output receives every diagnostic. Tests swap it for a buffer.
var Output io.Writer = os.Stderr

// exit is replaced in tests so Error can be observed.
var exit = os.Exit

// Position locates a diagnostic in a source. Name may be empty for
// in-memory sources, Line is 1-based and 0 means "no line".
type Position struct {
	Name string
	Line int
}

func (p Position) String() string {
	name := p.Name
	if name == "" {
		name = "<input>"
	}
	if p.Line <= 0 {
		return name
	}
	return fmt.Sprintf("%s:%d", name, p.Line)
}

// Error prints a formatted error message and exits the program.
// Library packages never call it; it is for commands only.
func Error(pos Position, format string, args ...any) {
	Report(pos, format, args...)
	exit(1)
}

// Report prints an error like Error but lets the caller carry on.
func Report(pos Position, format string, args ...any) {
	fmt.Fprintf(Output, "%s: \033[31merror:\033[0m ", pos)
	fmt.Fprintf(Output, format, args...)
	fmt.Fprintln(Output)
}

// Warn prints a warning tagged with its flag name when wt is enabled in cfg.
func Warn(cfg *config.Config, wt config.Warning, pos Position, format string, args ...any) {
	if cfg == nil || !cfg.IsWarningEnabled(wt) {
		return
	}
	fmt.Fprintf(Output, "%s: \033[33mwarning:\033[0m ", pos)
	fmt.Fprintf(Output, format, args...)
	fmt.Fprintf(Output, " [-W%s]\n", cfg.Warnings[wt].Name)
}

func Info(prog, format string, args ...any) {
	fmt.Fprintf(Output, "%s: info: ", prog)
	fmt.Fprintf(Output, format, args...)
	fmt.Fprintln(Output)
}
