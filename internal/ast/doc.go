// Package ast defines the syntax tree of Rook source files.
//
// Nodes are plain structs reached through three sealed interfaces: Item,
// Expr and Pat. Consumers dispatch with a type switch over the concrete node
// types; the unexported marker methods keep the sets closed. Identifiers are
// interned in a source.Interner shared by the parser and its consumers.
package ast
