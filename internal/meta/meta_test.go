package meta

import (
	"testing"

	"rook/internal/items"
)

func TestCallFor(t *testing.T) {
	tests := []struct {
		generator, async bool
		want             Call
	}{
		{false, false, CallImmediate},
		{true, false, CallGenerator},
		{false, true, CallAsync},
		{true, true, CallStream},
	}
	for _, tt := range tests {
		if got := CallFor(tt.generator, tt.async); got != tt.want {
			t.Errorf("CallFor(%v, %v) = %s, want %s", tt.generator, tt.async, got, tt.want)
		}
	}
}

func TestMetaTypeOf(t *testing.T) {
	fn := &Meta{Kind: KindFunction, Item: items.Of("a", "f")}
	if h, ok := fn.TypeOf(); !ok || h != items.Of("a", "f").Hash() {
		t.Fatalf("function must have a type hash")
	}
	variant := &Meta{Kind: KindTupleVariant, Item: items.Of("E", "A"), Enum: items.Of("E")}
	if _, ok := variant.TypeOf(); ok {
		t.Fatalf("variants have no own type")
	}
	if got := fn.String(); got != "fn a::f" {
		t.Fatalf("String() = %q", got)
	}
}

func TestConstDisplay(t *testing.T) {
	tests := []struct {
		v        ConstValue
		display  string
		rendered string
	}{
		{Integer(1), "1", "1"},
		{Float(1), "1.0", "1.0"},
		{Float(2.5), "2.5", "2.5"},
		{Bool(true), "true", "true"},
		{String("hi"), "hi", `"hi"`},
		{Tuple(Integer(1)), "(1,)", "(1,)"},
		{Vec(Integer(1), String("a")), `[1, "a"]`, `[1, "a"]`},
		{Object([]string{"k"}, []ConstValue{Unit()}), "#{k: ()}", "#{k: ()}"},
	}
	for _, tt := range tests {
		if got := tt.v.Display(); got != tt.display {
			t.Errorf("Display() = %q, want %q", got, tt.display)
		}
		if got := tt.v.String(); got != tt.rendered {
			t.Errorf("String() = %q, want %q", got, tt.rendered)
		}
	}
}

func TestConstEqual(t *testing.T) {
	a := Object([]string{"x"}, []ConstValue{Vec(Integer(1))})
	b := Object([]string{"x"}, []ConstValue{Vec(Integer(1))})
	c := Object([]string{"y"}, []ConstValue{Vec(Integer(1))})
	if !a.Equal(b) || a.Equal(c) || Integer(1).Equal(Float(1)) {
		t.Fatalf("Equal is wrong")
	}
}
