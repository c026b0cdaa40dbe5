// Package token defines lexical token kinds for the Python subset analyzed by typeguard.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly (Start..End).
//   - Layout is explicit: NEWLINE ends a logical line, INDENT/DEDENT bracket blocks.
//     Newlines inside (), [], {} never produce tokens.
//   - Comments are leading trivia and never appear in the main token stream.
//   - Builtin names (int, str, None-as-type, List, ...) are identifiers or keywords
//     exactly as Python defines them; typing names are recognized by the types layer.
package token
