package lexer

import (
	"rook/internal/diag"
	"rook/internal/source"
	"rook/internal/token"
)

type Options struct {
	Reporter diag.Reporter // может быть nil — тогда ошибки игнорируем
}

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token
	prev   token.Kind
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{file: file, cursor: NewCursor(file), opts: opts}
}

// NewRange lexes only [start, end) of file.
func NewRange(file *source.File, start, end uint32, opts Options) *Lexer {
	return &Lexer{file: file, cursor: NewRangeCursor(file, start, end), opts: opts}
}

// File returns the file being lexed.
func (lx *Lexer) File() *source.File {
	return lx.file
}

// Next returns the next significant token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	tok := lx.scan()
	lx.prev = tok.Kind
	return tok
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look != nil {
		return *lx.look
	}
	t := lx.Next()
	lx.look = &t
	return t
}

// EmptySpan is a zero-length span at the current position.
func (lx *Lexer) EmptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) scan() token.Token {
	lx.skipTrivia()
	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.EmptySpan()}
	}

	ch := lx.cursor.Peek()
	switch {
	case ch == 'b' && (lx.cursor.PeekAt(1) == '\'' || lx.cursor.PeekAt(1) == '"'):
		return lx.scanBytePrefixed()
	case ch == '_' && !isIdentContinueByte(lx.cursor.PeekAt(1)):
		return lx.single(token.Underscore)
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '"':
		return lx.scanString()
	case ch == '\'':
		return lx.scanCharOrLabel()
	case ch == '`':
		return lx.scanTemplate()
	default:
		return lx.scanOperatorOrPunct()
	}
}

func (lx *Lexer) single(kind token.Kind) token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	return lx.emit(kind, start)
}

func (lx *Lexer) emit(kind token.Kind, start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
}
