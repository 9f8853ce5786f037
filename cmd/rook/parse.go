package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rook/internal/diag"
	"rook/internal/diagfmt"
	"rook/internal/lexer"
	"rook/internal/parser"
	"rook/internal/source"
	"rook/internal/token"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a single file and report syntax errors",
	Args:  cobra.ExactArgs(1),
	RunE:  runParseCommand,
}

func init() {
	parseCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
	parseCmd.Flags().String("emit", "none", "what to print (none|tokens|tokens-json)")
}

type parseOptions struct {
	Format         string
	Emit           string
	PathMode       diagfmt.PathMode
	MaxDiagnostics int
	Color          bool
	Quiet          bool
}

func runParseCommand(cmd *cobra.Command, args []string) error {
	var opts parseOptions
	var err error
	if opts.Format, err = cmd.Flags().GetString("format"); err != nil {
		return err
	}
	if opts.Format != "pretty" && opts.Format != "json" {
		return fmt.Errorf("unknown format %q (expected: pretty|json)", opts.Format)
	}
	if opts.Emit, err = cmd.Flags().GetString("emit"); err != nil {
		return err
	}
	switch opts.Emit {
	case "none", "tokens", "tokens-json":
	default:
		return fmt.Errorf("unknown emit %q (expected: none|tokens|tokens-json)", opts.Emit)
	}
	if opts.MaxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return err
	}
	if opts.Quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return err
	}
	mode, err := cmd.Root().PersistentFlags().GetString("path-mode")
	if err != nil {
		return err
	}
	var ok bool
	if opts.PathMode, ok = diagfmt.ParsePathMode(mode); !ok {
		return fmt.Errorf("unknown path mode %q", mode)
	}
	if opts.Color, err = useColor(cmd, os.Stderr); err != nil {
		return err
	}

	// #nosec G304 -- the file is chosen by the user
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	fs := source.NewFileSet()
	if cwd, err := os.Getwd(); err == nil {
		fs.SetBaseDir(cwd)
	}
	f := fs.Get(fs.AddRaw(args[0], data))

	failed, err := runParse(cmd.OutOrStdout(), cmd.ErrOrStderr(), fs, f, opts)
	if err != nil {
		return err
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// runParse lexes and parses f. Tokens, when requested, come from a separate
// lexer run so the dump shows exactly what the parser consumed.
func runParse(out, errOut io.Writer, fs *source.FileSet, f *source.File, opts parseOptions) (bool, error) {
	bag := diag.NewBag(opts.MaxDiagnostics)
	dedup := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	file, _ := parser.ParseFile(f, parser.Options{
		Reporter:  dedup,
		MaxErrors: uint(max(opts.MaxDiagnostics, 0)),
	})
	bag.Sort()

	switch opts.Emit {
	case "tokens", "tokens-json":
		toks := lexTokens(f)
		if opts.Emit == "tokens" {
			if err := diagfmt.FormatTokensPretty(out, toks, fs); err != nil {
				return false, err
			}
		} else if err := diagfmt.FormatTokensJSON(out, toks); err != nil {
			return false, err
		}
	}

	switch opts.Format {
	case "json":
		if err := diagfmt.JSON(out, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.PathMode,
			IncludeNotes:     true,
		}); err != nil {
			return false, err
		}
	default:
		if bag.Len() > 0 {
			diagfmt.Pretty(errOut, bag, fs, diagfmt.PrettyOpts{
				Color:     opts.Color,
				Context:   1,
				PathMode:  opts.PathMode,
				ShowNotes: true,
			})
		}
		if !opts.Quiet && file != nil {
			fmt.Fprintf(errOut, "parsed %s: %d items, %d errors",
				f.FormatPath(opts.PathMode.String(), fs.BaseDir()), len(file.Items), bag.Len())
			if n := dedup.Suppressed(); n > 0 {
				fmt.Fprintf(errOut, " (%d duplicates suppressed)", n)
			}
			fmt.Fprintln(errOut)
		}
	}
	return bag.HasErrors(), nil
}

func lexTokens(f *source.File) []token.Token {
	lx := lexer.New(f, lexer.Options{})
	var toks []token.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}
