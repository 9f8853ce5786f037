package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	Label // 'name

	// keywords
	KwFn
	KwLet
	KwConst
	KwIf
	KwElse
	KwWhile
	KwLoop
	KwFor
	KwIn
	KwBreak
	KwContinue
	KwReturn
	KwYield
	KwUse
	KwMod
	KwStruct
	KwEnum
	KwImpl
	KwMatch
	KwSelect
	KwDefault
	KwAsync
	KwAwait
	KwSelf
	KwTrue
	KwFalse
	KwCrate
	KwSuper

	// literals
	NumberLit
	StringLit
	ByteStringLit
	CharLit
	ByteLit
	TemplateLit

	// punctuation / operators
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Semicolon
	Colon
	ColonColon
	Dot
	DotDot
	Assign
	EqEq
	BangEq
	Lt
	LtEq
	Gt
	GtEq
	Plus
	Minus
	Star
	Slash
	Percent
	Bang
	AndAnd
	OrOr
	Amp
	Pipe
	Caret
	Shl
	Shr
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	PercentAssign
	FatArrow
	Arrow
	Question
	Pound     // #
	PoundBang // #!
	Underscore
)

var kindNames = [...]string{
	Invalid:       "invalid",
	EOF:           "end of file",
	Ident:         "identifier",
	Label:         "label",
	KwFn:          "fn",
	KwLet:         "let",
	KwConst:       "const",
	KwIf:          "if",
	KwElse:        "else",
	KwWhile:       "while",
	KwLoop:        "loop",
	KwFor:         "for",
	KwIn:          "in",
	KwBreak:       "break",
	KwContinue:    "continue",
	KwReturn:      "return",
	KwYield:       "yield",
	KwUse:         "use",
	KwMod:         "mod",
	KwStruct:      "struct",
	KwEnum:        "enum",
	KwImpl:        "impl",
	KwMatch:       "match",
	KwSelect:      "select",
	KwDefault:     "default",
	KwAsync:       "async",
	KwAwait:       "await",
	KwSelf:        "self",
	KwTrue:        "true",
	KwFalse:       "false",
	KwCrate:       "crate",
	KwSuper:       "super",
	NumberLit:     "number",
	StringLit:     "string",
	ByteStringLit: "byte string",
	CharLit:       "char",
	ByteLit:       "byte",
	TemplateLit:   "template",
	LParen:        "(",
	RParen:        ")",
	LBrace:        "{",
	RBrace:        "}",
	LBracket:      "[",
	RBracket:      "]",
	Comma:         ",",
	Semicolon:     ";",
	Colon:         ":",
	ColonColon:    "::",
	Dot:           ".",
	DotDot:        "..",
	Assign:        "=",
	EqEq:          "==",
	BangEq:        "!=",
	Lt:            "<",
	LtEq:          "<=",
	Gt:            ">",
	GtEq:          ">=",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
	Percent:       "%",
	Bang:          "!",
	AndAnd:        "&&",
	OrOr:          "||",
	Amp:           "&",
	Pipe:          "|",
	Caret:         "^",
	Shl:           "<<",
	Shr:           ">>",
	PlusAssign:    "+=",
	MinusAssign:   "-=",
	StarAssign:    "*=",
	SlashAssign:   "/=",
	PercentAssign: "%=",
	FatArrow:      "=>",
	Arrow:         "->",
	Question:      "?",
	Pound:         "#",
	PoundBang:     "#!",
	Underscore:    "_",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}
