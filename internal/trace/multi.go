package trace

import "errors"

// MultiTracer fans out trace events to multiple tracers. Each child gets
// its own copy of the event and only when its own level accepts it.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

// NewMultiTracer returns a tracer that forwards to every tracer in tracers.
func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{tracers: tracers, level: level}
}

// Emit forwards ev to the children whose level lets it through.
func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		if !tr.Level().ShouldEmit(ev.Kind, ev.Scope) {
			continue
		}
		cp := *ev
		tr.Emit(&cp)
	}
}

// Flush flushes every child and joins their errors.
func (t *MultiTracer) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

// Close closes every child, even after a failure, and joins their errors.
func (t *MultiTracer) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

// Ring returns the first in-memory child, if any.
func (t *MultiTracer) Ring() (*RingTracer, bool) {
	for _, tr := range t.tracers {
		if ring, ok := tr.(*RingTracer); ok {
			return ring, true
		}
	}
	return nil, false
}

func (t *MultiTracer) Level() Level  { return t.level }
func (t *MultiTracer) Enabled() bool { return t.level > LevelOff }
