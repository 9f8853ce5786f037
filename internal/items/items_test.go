package items

import (
	"errors"
	"testing"
)

func TestItemString(t *testing.T) {
	tests := []struct {
		item Item
		want string
	}{
		{Item{}, ""},
		{Of("std", "float"), "std::float"},
		{New(Name("a"), Component{Kind: KindBlock}, Component{Kind: KindClosure, Index: 1}), "a::$block0::$closure1"},
		{New(Component{Kind: KindAsyncBlock, Index: 2}, Component{Kind: KindMacro, Index: 3}), "$async2::$macro3"},
	}
	for _, tt := range tests {
		if got := tt.item.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestItemHashStable(t *testing.T) {
	a := Of("a", "b")
	b := Item{}.Join("a").Join("b")
	if a.Hash() != b.Hash() || !a.Equal(b) {
		t.Fatalf("equal items must hash equally")
	}
	if a.Hash() == Of("a", "c").Hash() {
		t.Fatalf("different items hash equally")
	}
}

func TestItemPrefixAndParent(t *testing.T) {
	it := Of("a", "b", "c")
	if !it.HasPrefix(Of("a", "b")) || it.HasPrefix(Of("b")) || !it.HasPrefix(Item{}) {
		t.Fatalf("HasPrefix wrong")
	}
	parent, ok := it.Parent()
	if !ok || parent.String() != "a::b" {
		t.Fatalf("Parent() = %v", parent)
	}
	// Extend on a parent must not clobber the original.
	_ = parent.Extend(Name("x"))
	if it.String() != "a::b::c" {
		t.Fatalf("Extend aliased the original item: %v", it)
	}
	if _, ok := New(Component{Kind: KindBlock}).Names(); ok {
		t.Fatalf("Names() must fail on anonymous components")
	}
}

func TestBuilderCounters(t *testing.T) {
	b := NewItems()
	var got []string
	record := func() error {
		got = append(got, b.Item().String())
		return nil
	}
	err := b.WithName("main", func() error {
		if err := b.WithBlock(func() error {
			if err := b.WithClosure(record); err != nil {
				return err
			}
			return b.WithAsyncBlock(record)
		}); err != nil {
			return err
		}
		return b.WithBlock(record)
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"main::$block0::$closure0", "main::$block0::$async1", "main::$block1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !b.IsEmpty() {
		t.Fatalf("builder not restored: %v", b.Item())
	}
}

func TestBuilderRestoresOnError(t *testing.T) {
	b := NewItems()
	boom := errors.New("boom")
	err := b.WithName("a", func() error {
		return b.WithName("b", func() error { return boom })
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error not propagated: %v", err)
	}
	if !b.IsEmpty() {
		t.Fatalf("path leaked after error: %v", b.Item())
	}
}

func TestRootCounters(t *testing.T) {
	b := NewItems()
	var paths []string
	for range 2 {
		_ = b.WithMacro(func() error {
			paths = append(paths, b.Item().String())
			return nil
		})
	}
	if paths[0] != "$macro0" || paths[1] != "$macro1" {
		t.Fatalf("root counters: %v", paths)
	}
}

// Restoring a snapshot and continuing yields the same paths as continuing inline.
func TestSnapshotRoundTrip(t *testing.T) {
	inline := NewItems()
	var snap Snapshot
	var inlinePaths []string
	_ = inline.WithName("f", func() error {
		_ = inline.WithBlock(func() error { return nil })
		snap = inline.Snapshot()
		return inline.WithClosure(func() error {
			inlinePaths = append(inlinePaths, inline.Item().String())
			return nil
		})
	})

	restored := FromSnapshot(snap)
	var restoredPath string
	_ = restored.WithClosure(func() error {
		restoredPath = restored.Item().String()
		return nil
	})
	if restoredPath != inlinePaths[0] {
		t.Fatalf("restored path %q, inline %q", restoredPath, inlinePaths[0])
	}
	if snap.Item().String() != "f" {
		t.Fatalf("snapshot mutated: %v", snap.Item())
	}
}

func TestPopMacro(t *testing.T) {
	b := NewItems()
	var snap Snapshot
	_ = b.WithName("m", func() error {
		return b.WithMacro(func() error {
			snap = b.Snapshot()
			return nil
		})
	})
	restored := FromSnapshot(snap)
	if !restored.PopMacro() {
		t.Fatalf("PopMacro failed on $macro tail")
	}
	if restored.Item().String() != "m" {
		t.Fatalf("after pop: %v", restored.Item())
	}
	if restored.PopMacro() {
		t.Fatalf("PopMacro must refuse a named tail")
	}
}

func TestFromItem(t *testing.T) {
	b := FromItem(Of("pkg", "sub"))
	var got string
	_ = b.WithName("f", func() error {
		got = b.Item().String()
		return nil
	})
	if got != "pkg::sub::f" {
		t.Fatalf("got %q", got)
	}
	if b.IsEmpty() {
		t.Fatalf("base path lost")
	}
}

func TestNames(t *testing.T) {
	n := NewNames()
	n.Insert(Of("std", "float", "parse"))
	n.Insert(Of("std", "float", "to_integer"))
	n.Insert(Of("std", "io"))
	if n.Insert(Of("std", "io")) {
		t.Fatalf("duplicate insert reported as new")
	}
	if !n.ContainsPrefix(Of("std")) || !n.ContainsPrefix(Item{}) || n.ContainsPrefix(Of("core")) {
		t.Fatalf("ContainsPrefix wrong")
	}
	if n.Contains(Of("std", "float")) || !n.Contains(Of("std", "io")) {
		t.Fatalf("Contains wrong")
	}
	got := n.IterComponents(Of("std", "float"))
	if len(got) != 2 || got[0] != "parse" || got[1] != "to_integer" {
		t.Fatalf("IterComponents = %v", got)
	}
}

func TestParseAnonymous(t *testing.T) {
	it := Parse("main::$block0::$closure12::$macro1::x")
	kinds := []Kind{KindName, KindBlock, KindClosure, KindMacro, KindName}
	if it.Len() != len(kinds) {
		t.Fatalf("len = %d", it.Len())
	}
	for i, k := range kinds {
		if it.At(i).Kind != k {
			t.Errorf("component %d kind = %s, want %s", i, it.At(i).Kind, k)
		}
	}
	if it.At(2).Index != 12 {
		t.Errorf("closure index = %d", it.At(2).Index)
	}
	if got := it.String(); got != "main::$block0::$closure12::$macro1::x" {
		t.Errorf("round trip = %s", got)
	}
	if c := Parse("$weird").At(0); c.Kind != KindName {
		t.Errorf("unknown $-name must stay a name, got %s", c.Kind)
	}
}
