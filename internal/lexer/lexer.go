package lexer

import (
	"typeguard/internal/source"
	"typeguard/internal/token"
)

type Lexer struct {
	file    *source.File
	cursor  Cursor
	opts    Options
	pending []token.Token  // queued layout tokens (DEDENT runs)
	hold    []token.Trivia // накопленные leading trivia
	indents []uint32
	depth   int  // bracket nesting; newlines inside brackets are ignored
	bol     bool // at beginning of a logical line
	onLine  bool // a significant token was emitted on the current logical line
	done    bool
}

func New(file *source.File, opts Options) *Lexer {
	if opts.TabSize == 0 {
		opts.TabSize = 8
	}
	return &Lexer{
		file:    file,
		cursor:  NewCursor(file),
		opts:    opts,
		indents: []uint32{0},
		bol:     true,
	}
}

// Next возвращает следующий значимый токен с уже собранным Leading.
// После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if len(lx.pending) > 0 {
		tok := lx.pending[0]
		lx.pending = lx.pending[1:]
		return tok
	}
	if lx.done {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}

	for {
		if lx.bol && lx.depth == 0 {
			if tok, ok := lx.scanIndentation(); ok {
				return tok
			}
			if lx.cursor.EOF() {
				return lx.finish()
			}
			if lx.bol {
				continue // blank or comment-only line consumed
			}
		}

		lx.skipInlineSpace()
		if lx.cursor.EOF() {
			return lx.finish()
		}

		ch := lx.cursor.Peek()
		switch {
		case ch == '#':
			lx.scanComment()
			continue
		case ch == '\\' && lx.cursor.PeekAt(1) == '\n':
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		case ch == '\n':
			start := lx.cursor.Mark()
			lx.cursor.Bump()
			if lx.depth > 0 {
				continue
			}
			lx.bol = true
			if !lx.onLine {
				continue
			}
			lx.onLine = false
			return token.Token{Kind: token.Newline, Span: lx.cursor.SpanFrom(start), Text: "\n"}
		}

		var tok token.Token
		switch {
		case isIdentStartByte(ch) || ch >= utf8RuneSelf:
			tok = lx.scanIdentOrString()
		case isDec(ch) || (ch == '.' && isDec(lx.cursor.PeekAt(1))):
			tok = lx.scanNumber()
		case ch == '"' || ch == '\'':
			tok = lx.scanString(lx.cursor.Mark())
		default:
			tok = lx.scanOperatorOrPunct()
		}
		tok.Leading = lx.hold
		lx.hold = nil
		lx.onLine = true
		return tok
	}
}

// All lexes the whole file, EOF included.
func (lx *Lexer) All() []token.Token {
	out := make([]token.Token, 0, len(lx.file.Content)/4+1)
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// scanIndentation measures the indentation of a new logical line and emits
// INDENT or DEDENT tokens. Blank and comment-only lines are consumed whole.
func (lx *Lexer) scanIndentation() (token.Token, bool) {
	start := lx.cursor.Mark()
	var width uint32
measure:
	for {
		switch lx.cursor.Peek() {
		case ' ':
			width++
		case '\t':
			width = (width/lx.opts.TabSize + 1) * lx.opts.TabSize
		case '\f':
			width = 0
		default:
			break measure
		}
		lx.cursor.Bump()
	}
	switch ch := lx.cursor.Peek(); {
	case lx.cursor.EOF():
		return token.Token{}, false
	case ch == '\n':
		lx.cursor.Bump()
		return token.Token{}, false
	case ch == '#':
		lx.scanComment()
		lx.cursor.Eat('\n')
		return token.Token{}, false
	}

	lx.bol = false
	sp := lx.cursor.SpanFrom(start)
	top := lx.indents[len(lx.indents)-1]
	switch {
	case width > top:
		lx.indents = append(lx.indents, width)
		return token.Token{Kind: token.Indent, Span: sp, Text: lx.file.Text(sp)}, true
	case width < top:
		at := source.Span{File: sp.File, Start: sp.End, End: sp.End}
		for len(lx.indents) > 1 && lx.indents[len(lx.indents)-1] > width {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.pending = append(lx.pending, token.Token{Kind: token.Dedent, Span: at})
		}
		if lx.indents[len(lx.indents)-1] != width {
			lx.report(sp, "unindent does not match any outer indentation level")
		}
		tok := lx.pending[0]
		lx.pending = lx.pending[1:]
		return tok, true
	}
	return token.Token{}, false
}

func (lx *Lexer) finish() token.Token {
	at := lx.emptySpan()
	if lx.depth > 0 {
		lx.report(at, "unexpected EOF inside brackets")
		lx.depth = 0
	}
	if lx.onLine {
		lx.onLine = false
		lx.pending = append(lx.pending, token.Token{Kind: token.Newline, Span: at})
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.pending = append(lx.pending, token.Token{Kind: token.Dedent, Span: at})
	}
	lx.done = true
	lx.pending = append(lx.pending, token.Token{Kind: token.EOF, Span: at})
	tok := lx.pending[0]
	lx.pending = lx.pending[1:]
	return tok
}

func (lx *Lexer) skipInlineSpace() {
	for {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\f', '\r':
			lx.cursor.Bump()
		default:
			return
		}
	}
}

func (lx *Lexer) scanComment() {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := lx.file.Text(sp)
	kind := token.TriviaComment
	if isTypeComment(text) {
		kind = token.TriviaTypeComment
	}
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: text})
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}
