package worker

import (
	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/parser"
	"rook/internal/source"
)

// Parser turns source text into syntax trees. ok is false when a syntax
// error was reported to r.
type Parser interface {
	ParseFile(f *source.File, r diag.Reporter) (*ast.File, bool)
	ParseExpr(f *source.File, r diag.Reporter) (ast.Expr, bool)
}

// SourceParser is the Parser backed by package parser.
type SourceParser struct {
	Interner  *source.Interner
	MaxErrors uint
}

func (p SourceParser) opts(r diag.Reporter) parser.Options {
	return parser.Options{Reporter: r, Interner: p.Interner, MaxErrors: p.MaxErrors}
}

func (p SourceParser) ParseFile(f *source.File, r diag.Reporter) (*ast.File, bool) {
	return parser.ParseFile(f, p.opts(r))
}

func (p SourceParser) ParseExpr(f *source.File, r diag.Reporter) (ast.Expr, bool) {
	return parser.ParseExpr(f, p.opts(r))
}
