package parser

import (
	"fmt"
	"slices"

	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/lexer"
	"rook/internal/source"
	"rook/internal/token"
)

type Options struct {
	Reporter  diag.Reporter
	Interner  *source.Interner
	MaxErrors uint // 0 = unlimited
}

// Parser — состояние парсера на один файл (или диапазон файла).
type Parser struct {
	lx       *lexer.Lexer
	file     *source.File
	opts     Options
	buf      []token.Token // lookahead
	lastSpan source.Span   // span последнего съеденного токена
	errors   uint
	noStruct bool // `Path { .. }` literals are disabled (conditions, match heads)
}

func newParser(f *source.File, opts Options) *Parser {
	if opts.Interner == nil {
		opts.Interner = source.NewInterner()
	}
	p := &Parser{file: f}
	// ошибки лексера считаем вместе с ошибками парсера
	opts.Reporter = countingReporter{next: opts.Reporter, count: &p.errors}
	p.opts = opts
	p.lx = lexer.New(f, lexer.Options{Reporter: opts.Reporter})
	p.lastSpan = p.lx.EmptySpan()
	return p
}

// newRangeParser parses [start, end) of f, sharing the parent's reporter and interner.
func newRangeParser(f *source.File, start, end uint32, opts Options) *Parser {
	p := &Parser{file: f, opts: opts}
	p.lx = lexer.NewRange(f, start, end, lexer.Options{Reporter: opts.Reporter})
	p.lastSpan = source.Span{File: f.ID, Start: start, End: start}
	return p
}

// ParseFile parses a whole source file. ok is false when any syntax error was reported.
func ParseFile(f *source.File, opts Options) (file *ast.File, ok bool) {
	p := newParser(f, opts)
	file = p.parseFile()
	return file, p.errors == 0
}

// ParseExpr parses a file that must contain exactly one expression.
func ParseExpr(f *source.File, opts Options) (ast.Expr, bool) {
	p := newParser(f, opts)
	expr := p.parseExpr()
	if expr != nil && !p.at(token.EOF) {
		p.err(diag.SynTrailingInput, "unexpected input after expression")
	}
	return expr, expr != nil && p.errors == 0
}

func (p *Parser) parseFile() *ast.File {
	start := p.peek().Span
	file := &ast.File{}
	for p.at(token.PoundBang) {
		if attr := p.parseAttribute(); attr != nil {
			file.Attrs = append(file.Attrs, attr)
		}
	}
	file.Items = p.parseItemEntries(token.EOF)
	file.Sp = start.Cover(p.lastSpan)
	return file
}

// parseItemEntries parses items until the closing token (EOF or '}').
func (p *Parser) parseItemEntries(until token.Kind) []ast.ItemEntry {
	var entries []ast.ItemEntry
	for !p.at(until) && !p.at(token.EOF) && !p.enough() {
		before := p.peek().Span
		item, ok := p.parseItem()
		if !ok {
			p.resyncTop()
			if p.peek().Span == before {
				p.advance() // нет прогресса: пропускаем токен
			}
			continue
		}
		entry := ast.ItemEntry{Item: item}
		if p.at(token.Semicolon) {
			sp := p.advance().Span
			entry.Semi = &sp
		} else if ast.NeedsSemi(item) {
			p.errAt(diag.SynExpectSemicolon, p.lastSpan.Tail(), "expected ';' after item")
		}
		entries = append(entries, entry)
	}
	return entries
}

// ===== токены =====

func (p *Parser) peekN(n int) token.Token {
	for len(p.buf) <= n {
		p.buf = append(p.buf, p.lx.Next())
	}
	return p.buf[n]
}

func (p *Parser) peek() token.Token {
	return p.peekN(0)
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	p.buf = p.buf[1:]
	if tok.Kind != token.EOF {
		p.lastSpan = tok.Span
	}
	return tok
}

// eat consumes the token if it has kind k.
func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of kind k or reports an error.
func (p *Parser) expect(k token.Kind, code diag.Code) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.err(code, fmt.Sprintf("expected '%s', got '%s'", k, p.describe()))
	return token.Token{}, false
}

func (p *Parser) describe() string {
	tok := p.peek()
	if tok.Kind == token.EOF {
		return tok.Kind.String()
	}
	return tok.Text
}

func (p *Parser) intern(text string) source.StringID {
	return p.opts.Interner.Intern(text)
}

// parseIdent expects an identifier and interns it.
func (p *Parser) parseIdent() (ast.Ident, bool) {
	if p.at(token.Ident) {
		tok := p.advance()
		return ast.Ident{Name: p.intern(tok.Text), Sp: tok.Span}, true
	}
	p.err(diag.SynExpectIdentifier, "expected identifier, got '"+p.describe()+"'")
	return ast.Ident{}, false
}

// ===== ошибки =====

func (p *Parser) err(code diag.Code, msg string) {
	p.errAt(code, p.peek().Span, msg)
}

func (p *Parser) errAt(code diag.Code, sp source.Span, msg string) {
	if p.enough() {
		return
	}
	diag.ReportError(p.opts.Reporter, code, sp, msg).Emit()
}

func (p *Parser) enough() bool {
	return p.opts.MaxErrors != 0 && p.errors >= p.opts.MaxErrors
}

// countingReporter forwards diagnostics and counts errors.
type countingReporter struct {
	next  diag.Reporter
	count *uint
}

func (r countingReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	if sev >= diag.SevError {
		*r.count++
	}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

// ===== восстановление =====

func isItemStarter(k token.Kind) bool {
	switch k {
	case token.KwUse, token.KwMod, token.KwStruct, token.KwEnum, token.KwConst,
		token.KwFn, token.KwAsync, token.KwImpl, token.Pound:
		return true
	}
	return false
}

// resyncTop skips to the next item starter at nesting depth zero.
// A ';' ends the skipped region; a closing '}' ends it when it closes a block
// opened while skipping.
func (p *Parser) resyncTop() {
	depth := 0
	for !p.at(token.EOF) {
		switch k := p.peek().Kind; {
		case k == token.LBrace || k == token.LParen || k == token.LBracket:
			depth++
		case k == token.RBrace || k == token.RParen || k == token.RBracket:
			if depth == 0 {
				return
			}
			depth--
			p.advance()
			if depth == 0 && k == token.RBrace {
				return
			}
			continue
		case depth == 0 && k == token.Semicolon:
			p.advance()
			return
		case depth == 0 && isItemStarter(k):
			return
		}
		p.advance()
	}
}

// resyncStmt skips to the end of the current statement inside a block.
func (p *Parser) resyncStmt() {
	depth := 0
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.LBrace, token.LParen, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			if depth > 0 {
				depth--
			}
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}
