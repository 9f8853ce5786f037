package lexer

import (
	"rook/internal/diag"
	"rook/internal/token"
)

// scanString: "..." with escapes validated later by Unescape.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening '"'
	if !lx.scanQuoted('"') {
		lx.errLex(diag.LexUnterminatedString, lx.cursor.SpanFrom(start), "unterminated string literal")
		return lx.emit(token.Invalid, start)
	}
	return lx.emit(token.StringLit, start)
}

// scanQuoted consumes until the closing quote, skipping escapes.
func (lx *Lexer) scanQuoted(quote byte) bool {
	for !lx.cursor.EOF() {
		switch lx.cursor.Bump() {
		case quote:
			return true
		case '\\':
			lx.cursor.Bump()
		}
	}
	return false
}

// scanCharOrLabel distinguishes 'c' / '\n' from the label 'name.
func (lx *Lexer) scanCharOrLabel() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '\''

	if b := lx.cursor.Peek(); isIdentStartByte(b) || b >= utf8RuneSelf {
		save := lx.cursor.Mark()
		lx.bumpRune()
		if lx.cursor.Peek() == '\'' {
			lx.cursor.Bump()
			return lx.emit(token.CharLit, start)
		}
		lx.cursor.Reset(save)
		// метка: 'ident
		for {
			if b := lx.cursor.Peek(); b < utf8RuneSelf {
				if !isIdentContinueByte(b) || lx.cursor.EOF() {
					break
				}
				lx.cursor.Bump()
				continue
			}
			r, _ := lx.peekRune()
			if !isIdentContinueRune(r) {
				break
			}
			lx.bumpRune()
		}
		return lx.emit(token.Label, start)
	}

	if !lx.scanQuoted('\'') {
		lx.errLex(diag.LexBadChar, lx.cursor.SpanFrom(start), "unterminated character literal")
		return lx.emit(token.Invalid, start)
	}
	return lx.emit(token.CharLit, start)
}

// scanBytePrefixed handles b'x' and b"...".
func (lx *Lexer) scanBytePrefixed() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // 'b'
	quote := lx.cursor.Bump()
	if !lx.scanQuoted(quote) {
		code := diag.LexUnterminatedString
		if quote == '\'' {
			code = diag.LexBadChar
		}
		lx.errLex(code, lx.cursor.SpanFrom(start), "unterminated byte literal")
		return lx.emit(token.Invalid, start)
	}
	if quote == '\'' {
		return lx.emit(token.ByteLit, start)
	}
	return lx.emit(token.ByteStringLit, start)
}

// scanTemplate consumes a backtick template, including nested `{...}` expressions.
// The parser splits the parts; the lexer only finds the closing backtick.
func (lx *Lexer) scanTemplate() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '`'
	depth := 0
	for !lx.cursor.EOF() {
		b := lx.cursor.Bump()
		switch {
		case b == '\\':
			lx.cursor.Bump()
		case b == '{':
			depth++
		case b == '}' && depth > 0:
			depth--
		case b == '"' && depth > 0:
			lx.scanQuoted('"')
		case b == '`' && depth == 0:
			return lx.emit(token.TemplateLit, start)
		}
	}
	lx.errLex(diag.LexUnterminatedTemplate, lx.cursor.SpanFrom(start), "unterminated template literal")
	return lx.emit(token.Invalid, start)
}
