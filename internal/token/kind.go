package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF
	// Newline terminates a logical line.
	Newline
	// Indent opens a block.
	Indent
	// Dedent closes a block.
	Dedent

	Ident
	IntLit
	FloatLit
	ImagLit
	StringLit // includes bytes and f-strings; the prefix is part of Text

	// keywords
	KwFalse
	KwNone
	KwTrue
	KwAnd
	KwAs
	KwAssert
	KwAsync
	KwAwait
	KwBreak
	KwClass
	KwContinue
	KwDef
	KwDel
	KwElif
	KwElse
	KwExcept
	KwFinally
	KwFor
	KwFrom
	KwGlobal
	KwIf
	KwImport
	KwIn
	KwIs
	KwLambda
	KwNonlocal
	KwNot
	KwOr
	KwPass
	KwRaise
	KwReturn
	KwTry
	KwWhile
	KwWith
	KwYield

	// operators and punctuation
	Plus         // +
	Minus        // -
	Star         // *
	StarStar     // **
	Slash        // /
	SlashSlash   // //
	Percent      // %
	At           // @
	Amp          // &
	Pipe         // |
	Caret        // ^
	Tilde        // ~
	Shl          // <<
	Shr          // >>
	Lt           // <
	Gt           // >
	LtEq         // <=
	GtEq         // >=
	EqEq         // ==
	BangEq       // !=
	LParen       // (
	RParen       // )
	LBracket     // [
	RBracket     // ]
	LBrace       // {
	RBrace       // }
	Comma        // ,
	Colon        // :
	Dot          // .
	Ellipsis     // ...
	Semicolon    // ;
	Assign       // =
	Arrow        // ->
	ColonAssign  // :=
	AugAssign    // += -= *= /= //= %= @= &= |= ^= >>= <<= **=
	kindSentinel // must stay last
)

var kindNames = [...]string{
	Invalid:     "Invalid",
	EOF:         "EOF",
	Newline:     "NEWLINE",
	Indent:      "INDENT",
	Dedent:      "DEDENT",
	Ident:       "Ident",
	IntLit:      "IntLit",
	FloatLit:    "FloatLit",
	ImagLit:     "ImagLit",
	StringLit:   "StringLit",
	KwFalse:     "False",
	KwNone:      "None",
	KwTrue:      "True",
	KwAnd:       "and",
	KwAs:        "as",
	KwAssert:    "assert",
	KwAsync:     "async",
	KwAwait:     "await",
	KwBreak:     "break",
	KwClass:     "class",
	KwContinue:  "continue",
	KwDef:       "def",
	KwDel:       "del",
	KwElif:      "elif",
	KwElse:      "else",
	KwExcept:    "except",
	KwFinally:   "finally",
	KwFor:       "for",
	KwFrom:      "from",
	KwGlobal:    "global",
	KwIf:        "if",
	KwImport:    "import",
	KwIn:        "in",
	KwIs:        "is",
	KwLambda:    "lambda",
	KwNonlocal:  "nonlocal",
	KwNot:       "not",
	KwOr:        "or",
	KwPass:      "pass",
	KwRaise:     "raise",
	KwReturn:    "return",
	KwTry:       "try",
	KwWhile:     "while",
	KwWith:      "with",
	KwYield:     "yield",
	Plus:        "+",
	Minus:       "-",
	Star:        "*",
	StarStar:    "**",
	Slash:       "/",
	SlashSlash:  "//",
	Percent:     "%",
	At:          "@",
	Amp:         "&",
	Pipe:        "|",
	Caret:       "^",
	Tilde:       "~",
	Shl:         "<<",
	Shr:         ">>",
	Lt:          "<",
	Gt:          ">",
	LtEq:        "<=",
	GtEq:        ">=",
	EqEq:        "==",
	BangEq:      "!=",
	LParen:      "(",
	RParen:      ")",
	LBracket:    "[",
	RBracket:    "]",
	LBrace:      "{",
	RBrace:      "}",
	Comma:       ",",
	Colon:       ":",
	Dot:         ".",
	Ellipsis:    "...",
	Semicolon:   ";",
	Assign:      "=",
	Arrow:       "->",
	ColonAssign: ":=",
	AugAssign:   "AugAssign",
}

func (k Kind) String() string {
	if k < kindSentinel && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}
