package token

var keywords = map[string]Kind{
	"fn":       KwFn,
	"let":      KwLet,
	"const":    KwConst,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"loop":     KwLoop,
	"for":      KwFor,
	"in":       KwIn,
	"break":    KwBreak,
	"continue": KwContinue,
	"return":   KwReturn,
	"yield":    KwYield,
	"use":      KwUse,
	"mod":      KwMod,
	"struct":   KwStruct,
	"enum":     KwEnum,
	"impl":     KwImpl,
	"match":    KwMatch,
	"select":   KwSelect,
	"default":  KwDefault,
	"async":    KwAsync,
	"await":    KwAwait,
	"self":     KwSelf,
	"true":     KwTrue,
	"false":    KwFalse,
	"crate":    KwCrate,
	"super":    KwSuper,
}

// LookupKeyword returns the keyword kind for ident, if any.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
