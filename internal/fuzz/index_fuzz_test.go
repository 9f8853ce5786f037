package fuzztests

import (
	"context"
	"testing"
	"time"

	"rook/internal/compile"
	"rook/internal/source"
	"rook/internal/testkit"
)

// FuzzIndexPass runs the whole pass over a virtual root. Whatever the input,
// the pass must finish and leave a consistent unit behind.
func FuzzIndexPass(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampSeed(input)

		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		fs := source.NewFileSet()
		root := fs.Get(fs.AddVirtual("fuzz.rk", input))
		start := time.Now()
		res := compile.CompileSources(ctx, fs, []*source.File{root}, compile.Options{MaxDiagnostics: 256})
		if time.Since(start) > parseTimeout {
			t.Fatalf("index pass took %v on %q", time.Since(start), truncateForLog(input, 200))
		}
		if err := testkit.CheckUnitInvariants(res.Unit, res.Files); err != nil {
			t.Fatalf("unit invariants: %v\ninput: %q", err, truncateForLog(input, 200))
		}
	})
}
