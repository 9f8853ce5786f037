package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
)

// languageSeeds cover every construct the indexer looks at.
var languageSeeds = []string{
	"",
	"fn main() {}",
	"mod util; use util::*; fn main() { helper(); }",
	"use std::{io, fmt::{self, Display as D}}; use ::crate_root;",
	"use super::super::x; use self::a::{b, c::*};",
	"struct Point { x, y } struct Unit; struct Pair(a, b);",
	"enum Shape { Circle(r), Rect { w, h }, Empty }",
	"const A = 1 + 2 * 3; const B = A; const S = \"s\" + \"t\"; const T = (1, [2, 3], #{a: 1});",
	"fn f(a, b) { let c = |x, y| x + y + a; async { c(1, 2).await }; }",
	"impl Point { fn new(x, y) { Point { x, y } } #[test] fn bad() {} }",
	"fn main() { let x = stringify!(a b c); concat!(\"a\", 1); file!(); line!(); }",
	"macro_rules! m {} fn main() { m!(1, 2); }",
	"fn f() { if let Some(v) = x { v } else if y { 1 } else { 2 }; while let Ok(a) = b {} loop { break; } }",
	"fn f() { for (k, v) in it { match v { Some(x) if x > 1 => x, _ => 0, } } }",
	"fn f() { let #{a, b: c} = o; let [h, ..] = list; a.b[c] = d?; select { v = fut => v, } }",
	"#![allow(unused)]\n// comment\n/* block */ fn f() { r\"raw\"; b'x'; 'c'; 0x1f; 1.5e3; }",
	"fn f() { `tmpl ${a + 1} end` }",
	"pub(crate) fn g() {};;; pub(super) struct S;",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range languageSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every *.rk file under testdata/ of the repository,
// when there is one.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".rk" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
