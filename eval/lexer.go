/*
lexer.go - Tokenization for the formula dialect

PURPOSE:
  Splits an expression string into a flat token stream for the parser.
  The token set is deliberately small: numbers, identifiers, string
  literals, and a fixed list of punctuation. Anything the lexer does not
  recognize is an EvaluationError immediately, so banned syntax never
  reaches the parser.

TOKEN KINDS:
  number    123, 4.5, .5
  ident     HEIGHT, Math, ceil
  string    'wood' or "wood"
  op        + - * / % ( ) , ? : . < <= > >= == != && || !

SEE ALSO:
  - parser.go: Consumes the token stream
*/
package eval

import (
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokString
	tokOp
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64 // valid when kind == tokNumber
	pos  int     // byte offset in source
}

func lex(source string) ([]token, error) {
	var tokens []token
	runes := []rune(source)
	i := 0

	for i < len(runes) {
		ch := runes[i]

		if unicode.IsSpace(ch) {
			i++
			continue
		}

		start := i

		// Numbers: digits with optional fraction, or a leading dot.
		if unicode.IsDigit(ch) || (ch == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])) {
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, evalErr(source, start, "malformed number %q", text)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: num, pos: start})
			continue
		}

		// Identifiers: letters, digits, underscore.
		if unicode.IsLetter(ch) || ch == '_' {
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i]), pos: start})
			continue
		}

		// String literals, single or double quoted. No escapes: formula
		// strings are plain category/type names.
		if ch == '\'' || ch == '"' {
			quote := ch
			i++
			var sb strings.Builder
			for i < len(runes) && runes[i] != quote {
				sb.WriteRune(runes[i])
				i++
			}
			if i >= len(runes) {
				return nil, evalErr(source, start, "unterminated string literal")
			}
			i++ // closing quote
			tokens = append(tokens, token{kind: tokString, text: sb.String(), pos: start})
			continue
		}

		// Two-character operators first.
		if i+1 < len(runes) {
			two := string(runes[i : i+2])
			switch two {
			case "<=", ">=", "==", "!=", "&&", "||":
				tokens = append(tokens, token{kind: tokOp, text: two, pos: start})
				i += 2
				continue
			}
		}

		switch ch {
		case '+', '-', '*', '/', '%', '(', ')', ',', '?', ':', '.', '<', '>', '!':
			tokens = append(tokens, token{kind: tokOp, text: string(ch), pos: start})
			i++
			continue
		}

		return nil, evalErr(source, start, "unexpected character %q", string(ch))
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}
