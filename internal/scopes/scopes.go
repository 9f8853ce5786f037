// Package scopes tracks lexical visibility while indexing function bodies:
// which names are declared, which uses escape into closures as captures, and
// whether a function-like body suspends (yield / await).
package scopes

import (
	"fmt"
	"maps"

	"rook/internal/diag"
	"rook/internal/source"
)

// LevelKind classifies a scope level.
type LevelKind uint8

const (
	LevelPlain      LevelKind = iota // block, loop, match arm: visibility only
	LevelFunction                    // fn item or instance method
	LevelClosure                     // |args| body
	LevelAsyncBlock                  // async { .. }
)

func (k LevelKind) String() string {
	switch k {
	case LevelPlain:
		return "scope"
	case LevelFunction:
		return "function"
	case LevelClosure:
		return "closure"
	case LevelAsyncBlock:
		return "async block"
	default:
		return "invalid"
	}
}

func (k LevelKind) isFunctionLike() bool {
	return k != LevelPlain
}

// level is one entry of the scope stack.
type level struct {
	kind     LevelKind
	locals   map[string]source.Span
	captures []string
	captured map[string]struct{}

	// function-like levels only
	isAsync   bool
	generator bool
	hasAwait  bool
}

func newLevel(kind LevelKind, isAsync bool) level {
	return level{kind: kind, locals: make(map[string]source.Span), isAsync: isAsync}
}

func (l *level) capture(name string) {
	if l.captured == nil {
		l.captured = make(map[string]struct{})
	}
	if _, ok := l.captured[name]; ok {
		return
	}
	l.captured[name] = struct{}{}
	l.captures = append(l.captures, name)
}

// Function is the classification of a finished fn body.
type Function struct {
	IsAsync     bool
	IsGenerator bool
	HasAwait    bool
}

// Closure is the classification of a finished closure or async block.
// Captures are listed in first-use order.
type Closure struct {
	IsAsync     bool
	IsGenerator bool
	HasAwait    bool
	Captures    []string
}

// Scopes is the scope stack of a single indexing task.
type Scopes struct {
	levels []level
}

// New returns an empty stack. Uses outside any function are item references
// and are never captured.
func New() *Scopes {
	return &Scopes{}
}

// Depth is the number of open levels.
func (s *Scopes) Depth() int {
	return len(s.levels)
}

// WithFunction runs fn inside a fresh function frame.
func (s *Scopes) WithFunction(isAsync bool, fn func() error) (Function, error) {
	l, err := s.with(newLevel(LevelFunction, isAsync), fn)
	if err != nil {
		return Function{}, err
	}
	return Function{IsAsync: l.isAsync, IsGenerator: l.generator, HasAwait: l.hasAwait}, nil
}

// WithClosure runs fn inside a fresh closure frame.
func (s *Scopes) WithClosure(isAsync bool, fn func() error) (Closure, error) {
	return s.closure(newLevel(LevelClosure, isAsync), fn)
}

// WithAsyncBlock runs fn inside a fresh async block frame.
func (s *Scopes) WithAsyncBlock(fn func() error) (Closure, error) {
	return s.closure(newLevel(LevelAsyncBlock, true), fn)
}

func (s *Scopes) closure(l level, fn func() error) (Closure, error) {
	done, err := s.with(l, fn)
	if err != nil {
		return Closure{}, err
	}
	return Closure{
		IsAsync:     done.isAsync,
		IsGenerator: done.generator,
		HasAwait:    done.hasAwait,
		Captures:    done.captures,
	}, nil
}

// WithScope runs fn inside a plain visibility scope.
func (s *Scopes) WithScope(fn func() error) error {
	_, err := s.with(newLevel(LevelPlain, false), fn)
	return err
}

func (s *Scopes) with(l level, fn func() error) (done level, err error) {
	depth := len(s.levels)
	s.levels = append(s.levels, l)
	defer func() {
		if len(s.levels) != depth+1 {
			panic(fmt.Sprintf("scopes: unbalanced scope stack: depth %d, want %d", len(s.levels), depth+1))
		}
		done = s.levels[depth]
		s.levels = s.levels[:depth]
	}()
	err = fn()
	return done, err
}

// innermostFunction returns the nearest function-like level.
func (s *Scopes) innermostFunction() *level {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if s.levels[i].kind.isFunctionLike() {
			return &s.levels[i]
		}
	}
	return nil
}

// Declare makes name visible in the innermost level. `self` may only be
// declared directly in a function frame.
func (s *Scopes) Declare(name string, span source.Span) error {
	if name == "self" {
		if fn := s.innermostFunction(); fn == nil || fn.kind != LevelFunction {
			return diag.Errorf(diag.ScopeInvalidSelf, span, "`self` is only allowed as the first parameter of a function")
		}
	}
	if len(s.levels) == 0 {
		return diag.Internal(span, "declare %q outside of any scope", name)
	}
	s.levels[len(s.levels)-1].locals[name] = span
	return nil
}

// MarkUse records a read of name. Walking outward, every closure or async
// frame crossed before the declaring level captures the name. The walk stops
// at the first function frame: names beyond it are items, not locals.
func (s *Scopes) MarkUse(name string) {
	var crossed []int
	for i := len(s.levels) - 1; i >= 0; i-- {
		l := &s.levels[i]
		if _, ok := l.locals[name]; ok {
			for _, c := range crossed {
				s.levels[c].capture(name)
			}
			return
		}
		switch l.kind {
		case LevelFunction:
			return
		case LevelClosure, LevelAsyncBlock:
			crossed = append(crossed, i)
		}
	}
}

// MarkYield marks the innermost function-like frame as a generator.
func (s *Scopes) MarkYield(span source.Span) error {
	fn := s.innermostFunction()
	if fn == nil {
		return diag.Errorf(diag.ScopeYieldOutsideFunction, span, "`yield` outside of a function")
	}
	fn.generator = true
	return nil
}

// MarkAwait records an await in the innermost function-like frame, which must be async.
// Enclosing frames are never consulted.
func (s *Scopes) MarkAwait(span source.Span) error {
	fn := s.innermostFunction()
	if fn == nil || !fn.isAsync {
		if fn == nil {
			return diag.Errorf(diag.ScopeAwaitOutsideAsync, span, "`.await` outside of an async function")
		}
		return diag.Errorf(diag.ScopeAwaitOutsideAsync, span, "`.await` inside a non-async %s", fn.kind)
	}
	fn.hasAwait = true
	return nil
}

// Snapshot returns a deep copy of the stack. Changes to either copy are not
// visible in the other.
func (s *Scopes) Snapshot() *Scopes {
	out := &Scopes{levels: make([]level, len(s.levels))}
	for i, l := range s.levels {
		l.locals = maps.Clone(l.locals)
		l.captured = maps.Clone(l.captured)
		l.captures = append([]string(nil), l.captures...)
		out.levels[i] = l
	}
	return out
}
