// Package nbparse implements the recursive-descent, precedence-climbing
// parser that translates NodeBrain's surface syntax into cell graphs.
// Operator precedence, sharing semantics (hash-consing through
// nbcell.Graph) and the identification of idempotent sub-expressions
// are part of the contract this package implements, not merely an
// input convenience.
package nbparse

import (
	"strings"

	"github.com/trettevik/nodebrain/internal/nberrors"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokNumber
	TokString
	TokOp
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokComma
	TokColon
	TokSemicolon
	TokUnderscore
	TokDollarParen // $(
	TokTildeParen  // ~(
)

// Token is one lexical unit with its 1-based source line, for
// location-tagged syntax diagnostics, plus the rune offsets (into the
// lexer's source) it spans. Start/End let a caller that needs raw,
// untokenized text following a particular token (a rule's command
// tail, read by ReadCommandUntilSemicolon) resume reading from exactly
// where that token ended, regardless of how far the lexer's own
// lookahead has since advanced.
type Token struct {
	Kind       TokenKind
	Text       string
	Line       int
	Start, End int
}

// opChars is the character-class table this lexer's operator
// recognition keys on: any maximal run of these runes lexes as a
// single TokOp token, and the parser's operator tables decide what
// each run means. The separators ',', ':' and ';' never join a run:
// each always lexes alone as its own token.
const opChars = "|&!?=<>~+-*/^.,:;"

func isOpChar(r rune) bool { return strings.ContainsRune(opChars, r) }

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9') || r == '.'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// Lexer tokenizes NodeBrain source text.
type Lexer struct {
	src  []rune
	pos  int
	line int
}

// NewLexer creates a Lexer over source text.
func NewLexer(source string) *Lexer {
	return &Lexer{src: []rune(source), line: 1}
}

func (l *Lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *Lexer) advance() (rune, bool) {
	r, ok := l.peekRune()
	if !ok {
		return 0, false
	}
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r, true
}

func (l *Lexer) skipTrivia() {
	for {
		r, ok := l.peekRune()
		if !ok {
			return
		}
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			l.advance()
			continue
		}
		if r == '#' {
			for {
				r, ok := l.advance()
				if !ok || r == '\n' {
					break
				}
			}
			continue
		}
		return
	}
}

// Pos returns the lexer's current rune offset into the source.
func (l *Lexer) Pos() int { return l.pos }

// SeekTo resets the lexer to read from the given rune offset, fixing up
// the line counter by recounting newlines from the start of the
// source. Used by the parser to resynchronize after consuming a rule's
// command tail as raw, untokenized text (see parser.go's
// parseRuleTail): the normal two-token lookahead has already lexed past
// the command's first word by the time the ':' token is current, so
// reading the command raw must rewind the lexer to immediately after
// the ':' before scanning forward again.
func (l *Lexer) SeekTo(pos int) {
	l.pos = pos
	line := 1
	for i := 0; i < pos && i < len(l.src); i++ {
		if l.src[i] == '\n' {
			line++
		}
	}
	l.line = line
}

// Next returns the next token in the stream.
func (l *Lexer) Next() (Token, error) {
	l.skipTrivia()
	start := l.pos
	tok, err := l.lexToken()
	tok.Start = start
	tok.End = l.pos
	return tok, err
}

// lexToken produces the next token's kind/text/line, assuming trivia
// has already been skipped; Next wraps it to record the token's source
// span.
func (l *Lexer) lexToken() (Token, error) {
	line := l.line
	r, ok := l.peekRune()
	if !ok {
		return Token{Kind: TokEOF, Line: line}, nil
	}

	switch {
	case r == '(':
		l.advance()
		return Token{Kind: TokLParen, Text: "(", Line: line}, nil
	case r == ')':
		l.advance()
		return Token{Kind: TokRParen, Text: ")", Line: line}, nil
	case r == '[':
		l.advance()
		return Token{Kind: TokLBracket, Text: "[", Line: line}, nil
	case r == ']':
		l.advance()
		return Token{Kind: TokRBracket, Text: "]", Line: line}, nil
	case r == '_':
		l.advance()
		return Token{Kind: TokUnderscore, Text: "_", Line: line}, nil
	case r == '"':
		return l.lexString(line)
	case isDigit(r):
		return l.lexNumber(line)
	case isIdentStart(r):
		return l.lexIdent(line)
	case isOpChar(r) || r == '$':
		return l.lexOp(line)
	default:
		l.advance()
		return Token{}, nberrors.SyntaxError(line, "unexpected character %q", r)
	}
}

func (l *Lexer) lexString(line int) (Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		r, ok := l.advance()
		if !ok {
			return Token{}, nberrors.SyntaxError(line, "unterminated string literal")
		}
		if r == '"' {
			break
		}
		if r == '\\' {
			esc, ok := l.advance()
			if !ok {
				return Token{}, nberrors.SyntaxError(line, "unterminated string literal")
			}
			b.WriteRune(esc)
			continue
		}
		b.WriteRune(r)
	}
	return Token{Kind: TokString, Text: b.String(), Line: line}, nil
}

func (l *Lexer) lexNumber(line int) (Token, error) {
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok || !(isDigit(r) || r == '.') {
			break
		}
		b.WriteRune(r)
		l.advance()
	}
	return Token{Kind: TokNumber, Text: b.String(), Line: line}, nil
}

func (l *Lexer) lexIdent(line int) (Token, error) {
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok || !isIdentPart(r) {
			break
		}
		b.WriteRune(r)
		l.advance()
	}
	return Token{Kind: TokIdent, Text: b.String(), Line: line}, nil
}

// lexOp consumes a maximal run of operator-class characters, with two
// special cases recognized up front: "$(" and "~(" are distinct token
// kinds because they introduce entirely different sub-grammars, a
// nested expression and a time expression respectively.
func (l *Lexer) lexOp(line int) (Token, error) {
	r, _ := l.peekRune()
	if r == '$' {
		l.advance()
		if n, ok := l.peekRune(); ok && n == '(' {
			l.advance()
			return Token{Kind: TokDollarParen, Text: "$(", Line: line}, nil
		}
		return Token{}, nberrors.SyntaxError(line, "'$' must be followed by '('")
	}
	if strings.ContainsRune(",:;", r) {
		l.advance()
		return classifyOpRun(string(r), line)
	}
	if r == '~' {
		l.advance()
		if n, ok := l.peekRune(); ok && n == '(' {
			l.advance()
			return Token{Kind: TokTildeParen, Text: "~(", Line: line}, nil
		}
		// fall through: "~" alone or "~=" is a regular operator run
		var b strings.Builder
		b.WriteRune('~')
		for {
			n, ok := l.peekRune()
			if !ok || !isOpChar(n) || strings.ContainsRune(",:;", n) {
				break
			}
			b.WriteRune(n)
			l.advance()
		}
		return classifyOpRun(b.String(), line)
	}

	var b strings.Builder
	for {
		n, ok := l.peekRune()
		if !ok || !isOpChar(n) || strings.ContainsRune(",:;", n) {
			break
		}
		b.WriteRune(n)
		l.advance()
	}
	return classifyOpRun(b.String(), line)
}

// ReadCommandUntilSemicolon scans raw source text, starting immediately
// after a rule's ':' token, up to (but not including) the next ';'
// (there is no escape for a ';' inside the command). A rule's command tail is opaque text, never tokenized
// with the expression grammar. The trailing ';' is left for the
// caller's normal token stream to consume next.
func (l *Lexer) ReadCommandUntilSemicolon() string {
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok || r == ';' {
			break
		}
		l.advance()
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func classifyOpRun(text string, line int) (Token, error) {
	switch text {
	case ",":
		return Token{Kind: TokComma, Text: text, Line: line}, nil
	case ":":
		return Token{Kind: TokColon, Text: text, Line: line}, nil
	case ";":
		return Token{Kind: TokSemicolon, Text: text, Line: line}, nil
	default:
		return Token{Kind: TokOp, Text: text, Line: line}, nil
	}
}
