package scopes

import (
	"testing"

	"rook/internal/diag"
	"rook/internal/source"
)

var sp = source.Span{}

func codeOf(t *testing.T, err error) diag.Code {
	t.Helper()
	de, ok := diag.AsError(err)
	if !ok {
		t.Fatalf("expected *diag.Error, got %v", err)
	}
	return de.Code
}

func TestClosureCapturesInFirstUseOrder(t *testing.T) {
	s := New()
	var c Closure
	_, err := s.WithFunction(false, func() error {
		_ = s.Declare("a", sp)
		_ = s.Declare("b", sp)
		_ = s.Declare("c", sp)
		var err error
		c, err = s.WithClosure(false, func() error {
			_ = s.Declare("local", sp)
			s.MarkUse("c")
			s.MarkUse("a")
			s.MarkUse("c")
			s.MarkUse("local")
			s.MarkUse("global_fn")
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Captures) != 2 || c.Captures[0] != "c" || c.Captures[1] != "a" {
		t.Fatalf("captures = %v, want [c a]", c.Captures)
	}
}

func TestNestedClosuresCaptureTransitively(t *testing.T) {
	s := New()
	var outer, inner Closure
	_, _ = s.WithFunction(false, func() error {
		_ = s.Declare("x", sp)
		var err error
		outer, err = s.WithClosure(false, func() error {
			var err error
			inner, err = s.WithClosure(false, func() error {
				s.MarkUse("x")
				return nil
			})
			return err
		})
		return err
	})
	if len(inner.Captures) != 1 || len(outer.Captures) != 1 || outer.Captures[0] != "x" {
		t.Fatalf("inner=%v outer=%v, want x captured by both", inner.Captures, outer.Captures)
	}
}

func TestPlainScopeShadowingAndVisibility(t *testing.T) {
	s := New()
	var c Closure
	_, _ = s.WithFunction(false, func() error {
		_ = s.WithScope(func() error {
			return s.Declare("hidden", sp)
		})
		var err error
		c, err = s.WithClosure(false, func() error {
			// declared in a plain scope that has already ended
			s.MarkUse("hidden")
			return s.WithScope(func() error {
				_ = s.Declare("y", sp)
				s.MarkUse("y")
				return nil
			})
		})
		return err
	})
	if len(c.Captures) != 0 {
		t.Fatalf("captures = %v, want none", c.Captures)
	}
}

func TestFunctionClassification(t *testing.T) {
	tests := []struct {
		name      string
		async     bool
		yield     bool
		await     bool
		generator bool
	}{
		{"immediate", false, false, false, false},
		{"generator", false, true, false, true},
		{"async", true, false, true, false},
		{"stream", true, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			f, err := s.WithFunction(tt.async, func() error {
				if tt.yield {
					if err := s.MarkYield(sp); err != nil {
						return err
					}
				}
				if tt.await {
					return s.MarkAwait(sp)
				}
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if f.IsAsync != tt.async || f.IsGenerator != tt.generator {
				t.Fatalf("got %+v", f)
			}
		})
	}
}

func TestAwaitLegalityUsesInnermostFrameOnly(t *testing.T) {
	s := New()
	_, err := s.WithFunction(true, func() error {
		_, err := s.WithClosure(false, func() error {
			return s.MarkAwait(sp)
		})
		return err
	})
	if err == nil || codeOf(t, err) != diag.ScopeAwaitOutsideAsync {
		t.Fatalf("await in sync closure inside async fn must fail, got %v", err)
	}

	s = New()
	var block Closure
	_, err = s.WithFunction(false, func() error {
		var err error
		block, err = s.WithAsyncBlock(func() error {
			return s.MarkAwait(sp)
		})
		return err
	})
	if err != nil || !block.IsAsync || !block.HasAwait {
		t.Fatalf("await in async block inside sync fn must pass: %v %+v", err, block)
	}
}

func TestYieldOutsideFunction(t *testing.T) {
	s := New()
	if err := s.MarkYield(sp); err == nil || codeOf(t, err) != diag.ScopeYieldOutsideFunction {
		t.Fatalf("got %v", err)
	}
	if err := s.MarkAwait(sp); err == nil || codeOf(t, err) != diag.ScopeAwaitOutsideAsync {
		t.Fatalf("got %v", err)
	}
}

func TestDeclareSelf(t *testing.T) {
	s := New()
	_, err := s.WithFunction(false, func() error {
		if err := s.Declare("self", sp); err != nil {
			return err
		}
		_, err := s.WithClosure(false, func() error {
			return s.Declare("self", sp)
		})
		return err
	})
	if err == nil || codeOf(t, err) != diag.ScopeInvalidSelf {
		t.Fatalf("self in closure must fail, got %v", err)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := New()
	var snap *Scopes
	_, _ = s.WithFunction(false, func() error {
		_ = s.Declare("a", sp)
		snap = s.Snapshot()
		return s.Declare("b", sp)
	})
	if snap.Depth() != 1 {
		t.Fatalf("snapshot depth = %d", snap.Depth())
	}
	c, err := snap.WithClosure(false, func() error {
		snap.MarkUse("a")
		snap.MarkUse("b")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Captures) != 1 || c.Captures[0] != "a" {
		t.Fatalf("captures = %v, want [a]", c.Captures)
	}
	if s.Depth() != 0 {
		t.Fatalf("original stack not restored")
	}
}
