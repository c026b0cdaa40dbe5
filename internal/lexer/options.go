package lexer

import (
	"typeguard/internal/source"
)

// Reporter: тонкий интерфейс, чтобы не тянуть diag сюда.
type Reporter interface {
	Report(span source.Span, msg string)
}

type Options struct {
	Reporter Reporter // может быть nil: тогда ошибки игнорируем (но продолжаем лексить)
	TabSize  uint32   // 0 means 8
}

func (lx *Lexer) report(sp source.Span, format string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(sp, format)
	}
}
