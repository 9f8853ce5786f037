// Package fuzztests houses Go fuzz harnesses for the front of the indexer
// (source -> lexer -> parser -> index pass). They guard against panics, hangs
// and broken span invariants on arbitrary inputs.
//
// Назначение: загружать байты в FileSet и прогонять их через лексер, парсер
// и полный проход индексации.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.

package fuzztests
