package lexer

import (
	"rook/internal/diag"
	"rook/internal/token"
)

// Поддержка: 123, 1_000, 0x.., 0o.., 0b.., 1.5, 1e-3, 2.5e+10.
// After a '.' token the fraction is never consumed, so `t.0.1` lexes as
// t . 0 . 1 (tuple field access).
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	if lx.cursor.Peek() == '0' {
		var digit func(byte) bool
		switch lx.cursor.PeekAt(1) {
		case 'x', 'X':
			digit = isHex
		case 'o', 'O':
			digit = func(b byte) bool { return b >= '0' && b <= '7' }
		case 'b', 'B':
			digit = func(b byte) bool { return b == '0' || b == '1' }
		}
		if digit != nil {
			lx.cursor.Bump()
			lx.cursor.Bump()
			n := 0
			for digit(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				lx.cursor.Bump()
				n++
			}
			if n == 0 {
				lx.errLex(diag.LexBadNumber, lx.cursor.SpanFrom(start), "expected digits after radix prefix")
				return lx.emit(token.Invalid, start)
			}
			return lx.emit(token.NumberLit, start)
		}
	}

	lx.eatDecimals()
	if lx.prev != token.Dot && lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
		lx.cursor.Bump()
		lx.eatDecimals()
	}
	if b := lx.cursor.Peek(); lx.prev != token.Dot && (b == 'e' || b == 'E') {
		save := lx.cursor.Mark()
		lx.cursor.Bump()
		if s := lx.cursor.Peek(); s == '+' || s == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			// не экспонента, например `1.method()` уже отсечён выше; откатываемся
			lx.cursor.Reset(save)
		} else {
			lx.eatDecimals()
		}
	}
	return lx.emit(token.NumberLit, start)
}

func (lx *Lexer) eatDecimals() {
	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
}
