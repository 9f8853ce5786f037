package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	tm.Track("load", func() string { return "2 files" })
	idx := tm.Begin("index")
	tm.End(idx, "")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %d", len(r.Phases))
	}
	if r.Phases[0].Name != "load" || r.Phases[0].Note != "2 files" {
		t.Errorf("first phase = %+v", r.Phases[0])
	}
	if r.TotalMS < r.Phases[0].DurationMS {
		t.Errorf("total %f below a phase %f", r.TotalMS, r.Phases[0].DurationMS)
	}
	s := r.String()
	for _, want := range []string{"timings:", "load", "(2 files)", "index", "total"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary lacks %q:\n%s", want, s)
		}
	}
}

func TestEmptyReport(t *testing.T) {
	r := NewTimer().Report()
	if r.TotalMS != 0 || len(r.Phases) != 0 {
		t.Errorf("empty timer report = %+v", r)
	}
}
