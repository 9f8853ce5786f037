// Package diag defines the diagnostic model shared by the lexer, parser and indexer.
//
// Diagnostic is the central record: Severity, a numeric Code with a stable
// string form, a short Message, the Primary span and optional Notes pointing at
// related locations (for example "previously declared here").
//
// Producers either emit through a Reporter (the lexer and parser do this while
// recovering from errors) or return an *Error from an operation that failed as a
// whole (the indexer does this, and the worker converts the error into a
// Diagnostic tagged with the originating file). Bag collects diagnostics and
// supports sorting and deduplication.
//
// Code ranges:
//
//   - 1xxx LEX  lexical errors
//   - 2xxx SYN  parse errors
//   - 3xxx IDX  indexing errors (unsupported syntax, conflicts, imports, macros)
//   - 4xxx SCP  scope discipline (yield/await/self placement)
//   - 5xxx IO   loader failures
//   - 9xxx ICE  internal consistency failures
//
// Formatting lives in internal/diagfmt.
package diag
