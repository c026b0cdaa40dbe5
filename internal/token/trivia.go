package token

import "typeguard/internal/source"

type TriviaKind uint8

const (
	TriviaComment TriviaKind = iota
	TriviaTypeComment // # type: ...
)

type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}
