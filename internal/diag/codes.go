package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexBadEscape                Code = 1005
	LexUnterminatedTemplate     Code = 1006
	LexBadChar                  Code = 1007

	// Парсерные
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynExpectIdentifier  Code = 2002
	SynExpectExpression  Code = 2003
	SynExpectSemicolon   Code = 2004
	SynUnclosedDelimiter Code = 2005
	SynExpectItem        Code = 2006
	SynExpectPattern     Code = 2007
	SynBadLiteral        Code = 2008
	SynTrailingInput     Code = 2009

	// Indexing
	IdxInfo                     Code = 3000
	IdxUnsupportedAttributes    Code = 3001
	IdxUnsupportedFileAttrs     Code = 3002
	IdxUnsupportedSelf          Code = 3003
	IdxInstanceFnOutsideImpl    Code = 3004
	IdxModAlreadyLoaded         Code = 3005
	IdxUnsupportedModuleSource  Code = 3006
	IdxModNotFound              Code = 3007
	IdxMissingModule            Code = 3008
	IdxUnsupportedWildcard      Code = 3009
	IdxItemConflict             Code = 3010
	IdxImportConflict           Code = 3011
	IdxMacroNotFound            Code = 3012
	IdxMacroEval                Code = 3013
	IdxConstEval                Code = 3014
	IdxConstCycle               Code = 3015
	IdxMissingItem              Code = 3016
	IdxUnnecessarySemicolon     Code = 3017
	IdxUnsupportedMacroPosition Code = 3018
	IdxUnsupportedSyntax        Code = 3019
	IdxMacroRecursion           Code = 3020

	// Scope discipline
	ScopeInfo                 Code = 4000
	ScopeYieldOutsideFunction Code = 4001
	ScopeAwaitOutsideAsync    Code = 4002
	ScopeInvalidSelf          Code = 4003

	// I/O
	IOLoadFileError Code = 5001

	// Internal consistency failures; a defect in the indexer, never user input.
	InternalError           Code = 9001
	InternalMissingMacroKey Code = 9002
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Malformed number literal",
	LexBadEscape:                "Invalid escape sequence",
	LexUnterminatedTemplate:     "Unterminated template literal",
	LexBadChar:                  "Malformed character literal",
	SynUnexpectedToken:          "Unexpected token",
	SynExpectIdentifier:         "Expected identifier",
	SynExpectExpression:         "Expected expression",
	SynExpectSemicolon:          "Expected ';'",
	SynUnclosedDelimiter:        "Unclosed delimiter",
	SynExpectItem:               "Expected item",
	SynExpectPattern:            "Expected pattern",
	SynBadLiteral:               "Invalid literal",
	SynTrailingInput:            "Unexpected trailing input",
	IdxUnsupportedAttributes:    "Attributes are not supported here",
	IdxUnsupportedFileAttrs:     "File attributes are not supported",
	IdxUnsupportedSelf:          "`self` is not supported here",
	IdxInstanceFnOutsideImpl:    "Instance function declared outside of impl block",
	IdxModAlreadyLoaded:         "Module already loaded",
	IdxUnsupportedModuleSource:  "Module source does not support loading file modules",
	IdxModNotFound:              "Module file not found",
	IdxMissingModule:            "Missing module",
	IdxUnsupportedWildcard:      "Wildcard is only supported at the end of an import",
	IdxItemConflict:             "Conflicting item declaration",
	IdxImportConflict:           "Conflicting import",
	IdxMacroNotFound:            "Unknown macro",
	IdxMacroEval:                "Macro evaluation failed",
	IdxConstEval:                "Constant expression cannot be evaluated",
	IdxConstCycle:               "Cycle in constant evaluation",
	IdxMissingItem:              "Missing item",
	IdxUnnecessarySemicolon:     "Unnecessary semicolon",
	IdxUnsupportedMacroPosition: "Macro output is not supported in this position",
	IdxUnsupportedSyntax:        "Syntax is not supported here",
	IdxMacroRecursion:           "Macro expansion nested too deeply",
	ScopeYieldOutsideFunction:   "`yield` outside of function",
	ScopeAwaitOutsideAsync:      "`.await` outside of async function",
	ScopeInvalidSelf:            "`self` outside of method",
	IOLoadFileError:             "I/O load file error",
	InternalError:               "Internal compiler error",
	InternalMissingMacroKey:     "Internal error: macro path component missing",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("IDX%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("SCP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

// IsInternal reports whether the code marks a defect in the compiler itself.
func (c Code) IsInternal() bool {
	return c >= 9000 && c < 10000
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
