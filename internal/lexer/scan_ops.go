package lexer

import (
	"rook/internal/diag"
	"rook/internal/token"
)

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	two := func(a, b byte, kind token.Kind) (token.Token, bool) {
		if lx.try2(a, b) {
			return lx.emit(kind, start), true
		}
		return token.Token{}, false
	}

	// сначала двухсимвольные
	for _, op := range [...]struct {
		a, b byte
		kind token.Kind
	}{
		{':', ':', token.ColonColon},
		{'.', '.', token.DotDot},
		{'=', '=', token.EqEq},
		{'=', '>', token.FatArrow},
		{'!', '=', token.BangEq},
		{'<', '=', token.LtEq},
		{'<', '<', token.Shl},
		{'>', '=', token.GtEq},
		{'>', '>', token.Shr},
		{'&', '&', token.AndAnd},
		{'|', '|', token.OrOr},
		{'+', '=', token.PlusAssign},
		{'-', '=', token.MinusAssign},
		{'-', '>', token.Arrow},
		{'*', '=', token.StarAssign},
		{'/', '=', token.SlashAssign},
		{'%', '=', token.PercentAssign},
		{'#', '!', token.PoundBang},
	} {
		if tok, ok := two(op.a, op.b, op.kind); ok {
			return tok
		}
	}

	var kind token.Kind
	switch lx.cursor.Bump() {
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case ',':
		kind = token.Comma
	case ';':
		kind = token.Semicolon
	case ':':
		kind = token.Colon
	case '.':
		kind = token.Dot
	case '=':
		kind = token.Assign
	case '<':
		kind = token.Lt
	case '>':
		kind = token.Gt
	case '+':
		kind = token.Plus
	case '-':
		kind = token.Minus
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '%':
		kind = token.Percent
	case '!':
		kind = token.Bang
	case '&':
		kind = token.Amp
	case '|':
		kind = token.Pipe
	case '^':
		kind = token.Caret
	case '?':
		kind = token.Question
	case '#':
		kind = token.Pound
	default:
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownChar, sp, "unknown character")
		return lx.emit(token.Invalid, start)
	}
	return lx.emit(kind, start)
}
