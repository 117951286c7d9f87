package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/semiscan/pkg/cli"
	"github.com/xplshn/semiscan/pkg/config"
	"github.com/xplshn/semiscan/pkg/lexer"
	"github.com/xplshn/semiscan/pkg/semi"
	"github.com/xplshn/semiscan/pkg/util"
)

func main() {
	app := cli.NewApp("semiscan")
	app.Synopsis = "[options] <file> ..."
	app.Description = "A lexical scanner that splits source text into tokens and groups them into semi-expressions ending in ';', '{' or '}'."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/semiscan>"

	var (
		mode       string
		singles    []string
		pairs      []string
		printRules bool
		wall       bool
		wnoall     bool
	)

	fs := app.FlagSet
	fs.String(&mode, "mode", "m", "semi", "Output tokens or semi-expressions.", "tok|semi")
	fs.List(&singles, "single", "s", "Add special single characters.", "chars")
	fs.List(&pairs, "pair", "p", "Add a special character pair.", "pair")
	fs.Bool(&printRules, "print-rules", "", false, "Print the special character rules before scanning.")
	fs.Bool(&wall, "Wall", "", false, "Enable all warnings")
	fs.Bool(&wnoall, "Wno-all", "", false, "Disable all warnings")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		var global []string
		if wall {
			global = append(global, "-Wall")
		}
		if wnoall {
			global = append(global, "-Wno-all")
		}
		cfg.ProcessDirectiveFlags(strings.Join(global, " "))
		cfg.ApplyFlagGroups(warningFlags, featureFlags)

		cfg.AddSingles(singles...)
		if err := cfg.AddPairs(pairs...); err != nil {
			util.Error(util.Position{Name: app.Name}, "%v", err)
		}

		var scan func(io.Writer, string, *config.Config) error
		switch mode {
		case "tok":
			scan = scanTokens
		case "semi":
			scan = scanSemis
		default:
			util.Error(util.Position{Name: app.Name}, "unknown mode '%s', want 'tok' or 'semi'", mode)
		}

		if printRules {
			toker := lexer.NewToker(cfg)
			toker.PrintSpecialSingleChars(os.Stdout)
			toker.PrintSpecialCharPairs(os.Stdout)
		}
		if len(inputFiles) == 0 {
			if printRules {
				return nil
			}
			util.Error(util.Position{Name: app.Name}, "no input files specified.")
		}

		failed := scanAll(os.Stdout, app.Name, inputFiles, cfg, scan)
		fmt.Println()
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed", failed, len(inputFiles))
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// scanAll runs scan over every path, reporting failures and moving on.
// It returns the number of paths that failed.
func scanAll(w io.Writer, prog string, paths []string, cfg *config.Config, scan func(io.Writer, string, *config.Config) error) int {
	failed := 0
	for _, path := range paths {
		util.Info(prog, "processing %s", path)
		if err := scan(w, path, cfg); err != nil {
			util.Report(util.Position{Name: prog}, "%v", err)
			failed++
		}
	}
	return failed
}

func scanTokens(w io.Writer, path string, cfg *config.Config) error {
	toker := lexer.NewToker(cfg)
	if err := toker.Open(path); err != nil {
		return err
	}
	defer toker.Close()
	for tok := toker.GetTok(); tok != ""; tok = toker.GetTok() {
		fmt.Fprintf(w, "\n -- line#%4d : %s", toker.LineCount(), tok)
	}
	return toker.Err()
}

func scanSemis(w io.Writer, path string, cfg *config.Config) error {
	e := semi.New(cfg)
	if err := e.Open(path); err != nil {
		return err
	}
	defer e.Close()
	for e.Get() {
		e.Display(w)
	}
	return e.Err()
}
