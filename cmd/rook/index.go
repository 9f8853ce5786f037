package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rook/internal/cache"
	"rook/internal/compile"
	"rook/internal/diag"
	"rook/internal/diagfmt"
	"rook/internal/macros"
	"rook/internal/native"
	"rook/internal/observ"
	"rook/internal/project"
	"rook/internal/project/dag"
	"rook/internal/query"
	"rook/internal/source"
	"rook/internal/store"
	"rook/internal/version"
)

var indexCmd = &cobra.Command{
	Use:   "index [files...]",
	Short: "Index sources and resolve imports",
	Long: `Index loads the root files and every module they declare, records the items
they define and resolves their use declarations. Without arguments the
[run].main file of the nearest rook.toml is indexed.`,
	RunE: runIndexCommand,
}

func init() {
	indexCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|sarif)")
	indexCmd.Flags().String("emit", "none", "what to print after indexing (none|unit|json|modules)")
	indexCmd.Flags().String("db", "", "export the result into a SQLite database")
	indexCmd.Flags().Bool("cache", false, "reuse the cached result when sources did not change")
	indexCmd.Flags().String("cache-dir", "", "cache directory (default: user cache dir)")
	indexCmd.Flags().String("macros", "", "directory with script macros")
	indexCmd.Flags().StringArray("natives", nil, "native module manifest (repeatable)")
	indexCmd.Flags().Int("jobs", 0, "max parallel root reads (0 = auto)")
}

// indexOptions are the resolved flags of one index run.
type indexOptions struct {
	Format         string
	Emit           string
	PathMode       diagfmt.PathMode
	DBPath         string
	Cache          bool
	CacheDir       string
	MacrosDir      string
	Natives        []string
	Jobs           int
	MaxDiagnostics int
	BaseDir        string
	Color          bool
	Quiet          bool
	Timings        bool
	Args           []string
}

// indexView is what gets printed, whether it came from a fresh pass or
// from the cache.
type indexView struct {
	Files    *source.FileSet
	Unit     *query.Unit
	Errors   *diag.Bag
	Warnings *diag.Bag
	Modules  []project.ModuleMeta
	Tasks    int
	Cached   bool
	Timings  observ.Report
}

func runIndexCommand(cmd *cobra.Command, args []string) error {
	opts, err := readIndexOptions(cmd)
	if err != nil {
		return err
	}
	opts.Args = os.Args[1:]

	paths := args
	if len(paths) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		m, ok, err := project.Discover(cwd)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no input files and no %s found", project.ManifestName)
		}
		mainPath, err := m.MainPath()
		if err != nil {
			return err
		}
		paths = []string{mainPath}
		applyManifest(cmd, &opts, m)
	}

	failed, err := runIndex(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), paths, opts)
	if err != nil {
		return err
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

func readIndexOptions(cmd *cobra.Command) (indexOptions, error) {
	var opts indexOptions
	var err error
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if opts.Format, err = flags.GetString("format"); err != nil {
		return opts, err
	}
	switch opts.Format {
	case "pretty", "json", "sarif":
	default:
		return opts, fmt.Errorf("unknown format %q (expected: pretty|json|sarif)", opts.Format)
	}
	if opts.Emit, err = flags.GetString("emit"); err != nil {
		return opts, err
	}
	switch opts.Emit {
	case "none", "unit", "json", "modules":
	default:
		return opts, fmt.Errorf("unknown emit %q (expected: none|unit|json|modules)", opts.Emit)
	}
	if opts.Format != "pretty" && opts.Emit != "none" {
		return opts, fmt.Errorf("--emit %s cannot be combined with --format %s", opts.Emit, opts.Format)
	}
	if opts.DBPath, err = flags.GetString("db"); err != nil {
		return opts, err
	}
	if opts.Cache, err = flags.GetBool("cache"); err != nil {
		return opts, err
	}
	if opts.CacheDir, err = flags.GetString("cache-dir"); err != nil {
		return opts, err
	}
	if opts.MacrosDir, err = flags.GetString("macros"); err != nil {
		return opts, err
	}
	if opts.Natives, err = flags.GetStringArray("natives"); err != nil {
		return opts, err
	}
	if opts.Jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, err
	}

	if opts.MaxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return opts, err
	}
	if opts.Quiet, err = root.GetBool("quiet"); err != nil {
		return opts, err
	}
	if opts.Timings, err = root.GetBool("timings"); err != nil {
		return opts, err
	}
	mode, err := root.GetString("path-mode")
	if err != nil {
		return opts, err
	}
	var ok bool
	if opts.PathMode, ok = diagfmt.ParsePathMode(mode); !ok {
		return opts, fmt.Errorf("unknown path mode %q", mode)
	}
	if opts.Color, err = useColor(cmd, os.Stderr); err != nil {
		return opts, err
	}
	if opts.BaseDir, err = os.Getwd(); err != nil {
		return opts, err
	}
	return opts, nil
}

// applyManifest fills the options the user did not set on the command line
// from the [index] section.
func applyManifest(cmd *cobra.Command, opts *indexOptions, m *project.Manifest) {
	opts.BaseDir = m.Root
	if !cmd.Root().PersistentFlags().Changed("max-diagnostics") && m.Index.MaxDiagnostics > 0 {
		opts.MaxDiagnostics = m.Index.MaxDiagnostics
	}
	if opts.MacrosDir == "" {
		opts.MacrosDir = m.MacrosPath()
	}
	if !cmd.Flags().Changed("cache") {
		opts.Cache = m.Index.Cache
	}
	opts.Natives = append(m.NativePaths(), opts.Natives...)
}

// runIndex performs one index run and prints its result. It reports whether
// errors were found; err is reserved for failures of the tool itself.
func runIndex(ctx context.Context, out, errOut io.Writer, paths []string, opts indexOptions) (failed bool, err error) {
	timer := observ.NewTimer()
	fs := source.NewFileSet()
	fs.SetBaseDir(opts.BaseDir)

	var roots []*source.File
	timer.Track("load", func() string {
		roots, err = compile.LoadRoots(ctx, fs, paths, opts.Jobs)
		return fmt.Sprintf("%d files", len(roots))
	})
	if err != nil {
		return false, err
	}

	var dc *cache.DiskCache
	var inputs project.Digest
	if opts.Cache {
		if opts.CacheDir != "" {
			dc, err = cache.Open(opts.CacheDir)
		} else {
			dc, err = cache.OpenDefault("rook")
		}
		if err != nil {
			return false, err
		}
		inputs, err = cache.Inputs{Natives: opts.Natives, MacrosDir: opts.MacrosDir}.Digest()
		if err != nil {
			return false, err
		}
	}

	var view *indexView
	if dc != nil {
		var restored *cache.Restored
		var hit bool
		timer.Track("cache", func() string {
			restored, hit, err = dc.Lookup(roots, inputs)
			if hit {
				return "hit"
			}
			return "miss"
		})
		if err != nil {
			fmt.Fprintf(errOut, "cache: %v\n", err)
		}
		if hit {
			view = &indexView{
				Files:    restored.Files,
				Unit:     restored.Unit,
				Errors:   restored.Errors,
				Warnings: restored.Warnings,
				Modules:  restored.Modules,
				Tasks:    restored.Tasks,
				Cached:   true,
			}
			view.Files.SetBaseDir(opts.BaseDir)
			if opts.DBPath != "" {
				if err := writeSnapshot(ctx, opts.DBPath, view); err != nil {
					return false, err
				}
			}
		}
	}

	if view == nil {
		view, err = indexFresh(ctx, fs, roots, opts, dc, inputs, errOut)
		if err != nil {
			return false, err
		}
	}

	report := timer.Report()
	report.Phases = append(report.Phases, view.Timings.Phases...)
	report.TotalMS += view.Timings.TotalMS
	view.Timings = report

	if err := printIndex(out, errOut, view, opts); err != nil {
		return false, err
	}
	return view.Errors.HasErrors(), nil
}

func indexFresh(ctx context.Context, fs *source.FileSet, roots []*source.File, opts indexOptions, dc *cache.DiskCache, inputs project.Digest, errOut io.Writer) (*indexView, error) {
	copts := compile.Options{
		MaxDiagnostics: opts.MaxDiagnostics,
		Jobs:           opts.Jobs,
	}

	natives := native.Std()
	for _, path := range opts.Natives {
		m, err := native.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		if err := natives.Install(m); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	copts.Natives = natives
	if opts.MacrosDir != "" {
		copts.Macros = macros.Chain{macros.Builtins(), macros.NewScriptEvaluator(opts.MacrosDir)}
	}

	var st *store.Store
	var ex *store.Exporter
	if opts.DBPath != "" {
		var err error
		if st, err = store.Open(opts.DBPath); err != nil {
			return nil, err
		}
		defer st.Close()
		if ex, err = st.Begin(ctx); err != nil {
			return nil, err
		}
		copts.Visitor = ex
	}

	res := compile.CompileSources(ctx, fs, roots, copts)
	if res.Interrupted != nil {
		if ex != nil {
			_ = ex.Abort()
		}
		return nil, fmt.Errorf("index interrupted after %d tasks: %w", res.Tasks, res.Interrupted)
	}
	modules := project.BuildModuleMetas(roots, res.Loaded, res.Unit)
	dag.ModuleHashes(modules)

	view := &indexView{
		Files:    res.Files,
		Unit:     res.Unit,
		Errors:   res.Errors,
		Warnings: res.Warnings,
		Modules:  modules,
		Tasks:    res.Tasks,
		Timings:  res.Timings,
	}

	if ex != nil {
		if err := ex.Finish(snapshotOf(view)); err != nil {
			return nil, fmt.Errorf("export %s: %w", opts.DBPath, err)
		}
	}
	if dc != nil {
		if err := dc.Store(res, roots, inputs); err != nil {
			fmt.Fprintf(errOut, "cache: %v\n", err)
		}
	}
	return view, nil
}

func snapshotOf(v *indexView) store.Snapshot {
	diags := make([]diag.Diagnostic, 0, v.Errors.Len()+v.Warnings.Len())
	diags = append(diags, v.Errors.Items()...)
	diags = append(diags, v.Warnings.Items()...)
	return store.Snapshot{
		Files:       v.Files,
		Unit:        v.Unit,
		Modules:     v.Modules,
		Diagnostics: diags,
	}
}

func writeSnapshot(ctx context.Context, path string, v *indexView) (err error) {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, st.Close())
	}()
	return st.Write(ctx, snapshotOf(v))
}

func printIndex(out, errOut io.Writer, v *indexView, opts indexOptions) error {
	all := diag.NewBag(0)
	all.Merge(v.Errors)
	if !opts.Quiet || opts.Format != "pretty" {
		all.Merge(v.Warnings)
	}
	all.Sort()

	switch opts.Format {
	case "json":
		if err := diagfmt.JSON(out, all, v.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.PathMode,
			Max:              opts.MaxDiagnostics,
			IncludeNotes:     true,
		}); err != nil {
			return err
		}
	case "sarif":
		if err := diagfmt.Sarif(out, all, v.Files, diagfmt.SarifRunMeta{
			ToolName:       "rook",
			ToolVersion:    version.Version,
			InvocationArgs: opts.Args,
		}); err != nil {
			return err
		}
	default:
		if all.Len() > 0 {
			diagfmt.Pretty(errOut, all, v.Files, diagfmt.PrettyOpts{
				Color:     opts.Color,
				Context:   1,
				PathMode:  opts.PathMode,
				ShowNotes: true,
			})
		}
	}

	switch opts.Emit {
	case "unit":
		if err := diagfmt.UnitPretty(out, v.Unit, v.Files, opts.PathMode); err != nil {
			return err
		}
	case "json":
		if err := diagfmt.UnitJSON(out, v.Unit, v.Files, opts.PathMode); err != nil {
			return err
		}
	case "modules":
		printModules(out, v.Modules)
	}

	if opts.Format == "pretty" && !opts.Quiet {
		cached := ""
		if v.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(errOut, "indexed %d files: %d items, %d imports, %d errors, %d warnings%s\n",
			v.Files.Len(), v.Unit.Len(), len(v.Unit.Imports()), v.Errors.Len(), v.Warnings.Len(), cached)
	}
	if opts.Timings {
		fmt.Fprint(errOut, v.Timings.String())
	}
	return nil
}

// printModules prints the module graph in import order, one wave per line,
// followed by every module's hash.
func printModules(out io.Writer, modules []project.ModuleMeta) {
	idx := dag.BuildIndex(modules)
	topo := dag.ToposortKahn(dag.BuildGraph(idx, modules))
	for i, batch := range topo.Batches {
		fmt.Fprintf(out, "%d: %v\n", i, idx.Names(batch))
	}
	if topo.Cyclic {
		fmt.Fprintf(out, "cycle: %v\n", idx.Names(topo.Cycles))
	}
	for _, m := range modules {
		fmt.Fprintf(out, "%-24s %-4s %x\n", m.DisplayName(), m.Kind, m.ModuleHash)
	}
}
